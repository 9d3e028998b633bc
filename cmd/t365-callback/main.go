package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/target365/sdk-go/internal/log"
	"github.com/target365/sdk-go/pkg/cli"
	"github.com/target365/sdk-go/pkg/client"
)

const defaultPort = 8443

const (
	EnvTlsCert = "T365_CALLBACK_TLS_CERT"
	EnvTlsKey  = "T365_CALLBACK_TLS_KEY"
	EnvHost    = "T365_CALLBACK_HOST"
	EnvPort    = "T365_CALLBACK_PORT"
	EnvPrefix  = "T365_CALLBACK_PREFIX"
)

const plainTextWarning = `
No TLS certificate configured. Target365 only posts callbacks to https URLs; serve plain HTTP only
behind a TLS-terminating proxy that sets X-Forwarded-Proto.`

type CallbackServerConfig struct {
	keyFilename   string
	certFilename  string
	host          string
	port          int
	prefix        string
	replayProtect bool
}

var (
	serverConfig = &CallbackServerConfig{}
)

func init() {
	flag.StringVar(&serverConfig.certFilename, "cert", "", "TLS certificate chain `file`")
	flag.StringVar(&serverConfig.keyFilename, "tls-key", "", "Server TLS private key `file`")
	flag.StringVar(&serverConfig.host, "host", "localhost", "Server `hostname`")
	flag.IntVar(&serverConfig.port, "port", defaultPort, "`Port` to listen on")
	flag.StringVar(&serverConfig.prefix, "prefix", "/callbacks", "URL `path` under which callbacks are received")
	flag.BoolVar(&serverConfig.replayProtect, "reject-replays", true, "Reject callbacks that reuse a signature nonce")
}

func Usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [OPTION...]\n", os.Args[0])
	fmt.Fprintf(out, "\nA server that receives signed delivery reports and in-messages from Target365")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	flag.PrintDefaults()
}

func main() {
	config, err := cli.NewConfig(cli.FlagAll)

	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load credential configuration: %s\n", err)
		os.Exit(1)
	}

	defer func() {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	}()

	flag.Usage = Usage
	config.RegisterCommandLineFlags()
	flag.Parse()
	if err = readFromEnvironment(); err != nil {
		return
	}
	config.ReadFromEnvironment()

	var options []client.Option
	if serverConfig.replayProtect {
		options = append(options, client.WithReplayProtection())
	}
	var c *client.Client
	if c, err = config.Client(options...); err != nil {
		return
	}

	e := newServer(c, serverConfig.prefix)
	addr := fmt.Sprintf("%s:%d", serverConfig.host, serverConfig.port)
	log.Info("Listening on %s", addr)
	if serverConfig.certFilename == "" {
		fmt.Fprintln(os.Stderr, plainTextWarning)
		log.Error("Server stopped: %s", e.Start(addr))
	} else {
		log.Error("Server stopped: %s", e.StartTLS(addr, serverConfig.certFilename, serverConfig.keyFilename))
	}
	_ = e.Shutdown(context.Background())
}

// readFromEnvironment applies configuration from environment variables.
// Values are not overwritten.
func readFromEnvironment() error {
	if serverConfig.certFilename == "" {
		serverConfig.certFilename = os.Getenv(EnvTlsCert)
	}

	if serverConfig.keyFilename == "" {
		serverConfig.keyFilename = os.Getenv(EnvTlsKey)
	}

	if serverConfig.host == "localhost" {
		host, ok := os.LookupEnv(EnvHost)
		if ok {
			serverConfig.host = host
		}
	}

	if serverConfig.prefix == "/callbacks" {
		if prefix, ok := os.LookupEnv(EnvPrefix); ok {
			serverConfig.prefix = prefix
		}
	}

	var err error
	if serverConfig.port == defaultPort {
		if port, ok := os.LookupEnv(EnvPort); ok {
			serverConfig.port, err = strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("invalid port: %s", port)
			}
		}
	}

	return nil
}
