package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/target365/sdk-go/internal/log"
	"github.com/target365/sdk-go/pkg/cli"
	"github.com/target365/sdk-go/pkg/client"
)

func writeErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n")
}

const usage = `
 * Commands sent to the API require a registered key name and the matching private key.
 * sms-parts and non-gsm7 run locally.`

func Usage() {
	fmt.Printf("Usage: %s [OPTION...] COMMAND [ARG...]\n", os.Args[0])
	fmt.Printf("\nRun %s help COMMAND for more information. Valid COMMANDs are listed below.", os.Args[0])
	fmt.Println("")
	fmt.Println(usage)
	fmt.Println("")

	fmt.Printf("Available OPTIONs:\n")
	flag.PrintDefaults()
	fmt.Println("")
	fmt.Printf("Available COMMANDs:\n")
	maxLength := 0
	var labels []string
	for command := range commands {
		labels = append(labels, command)
		if len(command) > maxLength {
			maxLength = len(command)
		}
	}
	sort.Strings(labels)
	for _, command := range labels {
		info := commands[command]
		fmt.Printf("  %s%s %s\n", command, strings.Repeat(" ", maxLength-len(command)), info.help)
	}
}

func runCommand(c *client.Client, args []string, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := execute(ctx, c, args); err != nil {
		var httpErr *client.HttpError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusUnauthorized {
			writeErr("The API rejected the request signature. Check -key-name and the private key: %s", err)
		} else if errors.Is(err, ErrRequiresKeyName) || errors.Is(err, ErrRequiresPrivateKey) {
			writeErr("You must provide -key-name and a private key with -key-file or -keyring-name to execute this command")
		} else {
			writeErr("Failed to execute command: %s", err)
		}
		return 1
	}
	return 0
}

func runInteractiveShell(c *client.Client, timeout time.Duration) int {
	scanner := bufio.NewScanner(os.Stdin)
	for fmt.Printf("> "); scanner.Scan(); fmt.Printf("> ") {
		args, err := shlex.Split(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			return 0
		}
		if err != nil {
			writeErr("Invalid command: %s", err)
			continue
		}
		runCommand(c, args, timeout)
	}
	if err := scanner.Err(); err != nil {
		writeErr("Error reading command: %s", err)
		return 1
	}
	return 0
}

func main() {
	status := 1
	defer func() {
		os.Exit(status)
	}()

	var (
		commandTimeout time.Duration
		httpTimeout    time.Duration
	)
	config, err := cli.NewConfig(cli.FlagAll)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load credential configuration: %s\n", err)
		os.Exit(1)
	}
	flag.Usage = Usage
	flag.DurationVar(&commandTimeout, "command-timeout", 90*time.Second, "Set timeout for each command.")
	flag.DurationVar(&httpTimeout, "http-timeout", client.DefaultTimeout, "Set timeout for each HTTP request (minimum 30s).")

	config.RegisterCommandLineFlags()
	flag.Parse()
	config.ReadFromEnvironment()

	args := flag.Args()
	if len(args) > 0 {
		if args[0] == "help" {
			if len(args) == 1 {
				Usage()
				return
			}
			info, ok := commands[args[1]]
			if !ok {
				writeErr("Unrecognized command: %s", args[1])
				return
			}
			info.Usage(args[1])
			status = 0
			return
		}
		if err := configureFlags(config, args[0]); err != nil {
			writeErr("Missing required flag: %s", err)
			return
		}
	}

	if err := config.LoadCredentials(); err != nil && !errors.Is(err, cli.ErrNoKeySpecified) {
		writeErr("Error loading credentials: %s", err)
		return
	}

	var c *client.Client
	if config.Flags != 0 && config.KeyName != "" {
		if c, err = config.Client(client.WithTimeout(httpTimeout)); err != nil {
			writeErr("Error: %s", err)
			return
		}
		log.Debug("Using key %s with %s", c.KeyName(), c.UserAgent)
	}

	if flag.NArg() > 0 {
		status = runCommand(c, flag.Args(), commandTimeout)
	} else {
		status = runInteractiveShell(c, commandTimeout)
	}
}
