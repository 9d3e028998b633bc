package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/target365/sdk-go/pkg/cli"
	"github.com/target365/sdk-go/pkg/client"
	"github.com/target365/sdk-go/pkg/sms"
)

var (
	ErrCommandLineArgs    = errors.New("invalid command line arguments")
	ErrRequiresKeyName    = errors.New("command requires an API key name")
	ErrRequiresPrivateKey = errors.New("command requires a private key")
	ErrUnknownCommand     = errors.New("unrecognized command")
)

type Argument struct {
	name string
	help string
}

type Handler func(ctx context.Context, c *client.Client, args map[string]string) error

type Command struct {
	help        string
	requiresAPI bool // True if command sends requests to the API (key name and private key)
	args        []Argument
	optional    []Argument
	handler     Handler
}

// ParsePolicy converts a command-line Unicode policy name.
func ParsePolicy(name string) (sms.UnicodePolicy, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return sms.UnicodeAuto, nil
	case "allow", "true":
		return sms.UnicodeAllow, nil
	case "forbid", "false":
		return sms.UnicodeForbid, nil
	}
	return sms.UnicodeAuto, fmt.Errorf("%w: unicode policy must be auto, allow or forbid", ErrCommandLineArgs)
}

// ParseSendTime accepts RFC 3339 timestamps or a delay such as 10m.
func ParseSendTime(value string, now time.Time) (time.Time, error) {
	if delay, err := time.ParseDuration(value); err == nil {
		if delay < 0 {
			return time.Time{}, fmt.Errorf("%w: send time is in the past", ErrCommandLineArgs)
		}
		return now.Add(delay), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: send time must be RFC 3339 or a duration", ErrCommandLineArgs)
	}
	return t, nil
}

// configureFlags verifies that c contains all the information required to execute a command.
func configureFlags(c *cli.Config, commandName string) error {
	info, ok := commands[commandName]
	if !ok {
		return ErrUnknownCommand
	}
	if !info.requiresAPI {
		c.Flags = 0
		return nil
	}
	_, err := checkReadiness(commandName, c.KeyName != "", !(c.KeyringKeyName == "" && c.KeyFilename == ""))
	return err
}

func checkReadiness(commandName string, haveKeyName, havePrivateKey bool) (*Command, error) {
	info, ok := commands[commandName]
	if !ok {
		return nil, ErrUnknownCommand
	}
	if info.requiresAPI {
		if !haveKeyName {
			return nil, ErrRequiresKeyName
		}
		if !havePrivateKey {
			return nil, ErrRequiresPrivateKey
		}
	}
	return info, nil
}

func execute(ctx context.Context, c *client.Client, args []string) error {
	if len(args) == 0 {
		return errors.New("missing COMMAND")
	}

	info, err := checkReadiness(args[0], c != nil, c != nil)
	if err != nil {
		return err
	}

	if len(args)-1 < len(info.args) || len(args)-1 > len(info.args)+len(info.optional) {
		writeErr("Invalid number of command line arguments: %d (%d required, %d optional).", len(args)-1, len(info.args), len(info.optional))
		err = ErrCommandLineArgs
	} else {
		keywords := make(map[string]string)
		for i, argInfo := range info.args {
			keywords[argInfo.name] = args[i+1]
		}
		index := len(info.args) + 1
		for _, argInfo := range info.optional {
			if index >= len(args) {
				break
			}
			keywords[argInfo.name] = args[index]
			index++
		}
		err = info.handler(ctx, c, keywords)
	}

	// Print command-specific help
	if errors.Is(err, ErrCommandLineArgs) {
		info.Usage(args[0])
	}
	return err
}

func (c *Command) Usage(name string) {
	fmt.Printf("Usage: %s", name)
	maxLength := 0
	for _, arg := range c.args {
		fmt.Printf(" %s", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	if len(c.optional) > 0 {
		fmt.Printf(" [")
	}
	for _, arg := range c.optional {
		fmt.Printf(" %s", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	if len(c.optional) > 0 {
		fmt.Printf(" ]")
	}
	fmt.Printf("\n%s\n", c.help)
	maxLength++
	for _, arg := range c.args {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
	for _, arg := range c.optional {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
}

func printJSON(v interface{}) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

// printResult prints v, or a not-found message if v is a nil pointer.
func printResult[T any](v *T, what string) error {
	if v == nil {
		return fmt.Errorf("%s not found", what)
	}
	return printJSON(v)
}

var commands = map[string]*Command{
	"ping": &Command{
		help:        "Check connectivity with the API",
		requiresAPI: true,
		handler: func(ctx context.Context, c *client.Client, args map[string]string) error {
			pong, err := c.Ping(ctx)
			if err != nil {
				return err
			}
			fmt.Println(pong)
			return nil
		},
	},
	"server-key": &Command{
		help:        "Print the server public key NAME used to sign callbacks",
		requiresAPI: true,
		args: []Argument{
			Argument{name: "NAME", help: "Server key name, as found in the X-ECDSA-Signature header"},
		},
		handler: func(ctx context.Context, c *client.Client, args map[string]string) error {
			key, err := c.GetServerPublicKey(ctx, args["NAME"])
			if err != nil {
				return err
			}
			return printResult(key, "server key")
		},
	},
	"client-keys": &Command{
		help:        "List the public keys registered for this account",
		requiresAPI: true,
		handler: func(ctx context.Context, c *client.Client, args map[string]string) error {
			keys, err := c.GetClientPublicKeys(ctx)
			if err != nil {
				return err
			}
			return printJSON(keys)
		},
	},
	"client-key": &Command{
		help:        "Print the client public key NAME",
		requiresAPI: true,
		args: []Argument{
			Argument{name: "NAME", help: "Client key name"},
		},
		handler: func(ctx context.Context, c *client.Client, args map[string]string) error {
			key, err := c.GetClientPublicKey(ctx, args["NAME"])
			if err != nil {
				return err
			}
			return printResult(key, "client key")
		},
	},
	"sms-parts": &Command{
		help: "Count the SMS parts needed to send TEXT",
		args: []Argument{
			Argument{name: "TEXT", help: "Message content. Text between ~~ delimiters is not counted"},
		},
		optional: []Argument{
			Argument{name: "UNICODE", help: "One of: auto (default), allow, forbid"},
		},
		handler: func(ctx context.Context, c *client.Client, args map[string]string) error {
			policy, err := ParsePolicy(args["UNICODE"])
			if err != nil {
				return err
			}
			result := sms.Count(args["TEXT"], policy)
			fmt.Printf("%d part(s), %s\n", result.Parts, result.Encoding)
			if result.UnicodeForbidden {
				fmt.Printf("Characters that will be substituted: %q\n", string(result.NonGSM7))
			}
			return nil
		},
	},
	"non-gsm7": &Command{
		help: "List the characters of TEXT that require Unicode",
		args: []Argument{
			Argument{name: "TEXT", help: "Message content"},
		},
		handler: func(ctx context.Context, c *client.Client, args map[string]string) error {
			for _, r := range sms.NonGSM7Characters(args["TEXT"]) {
				fmt.Printf("%q U+%04X\n", r, r)
			}
			return nil
		},
	},
	"send-sms": &Command{
		help:        "Send TEXT from SENDER to RECIPIENT",
		requiresAPI: true,
		args: []Argument{
			Argument{name: "SENDER", help: "Sender name or short number"},
			Argument{name: "RECIPIENT", help: "Recipient MSISDN, e.g. +4798079008"},
			Argument{name: "TEXT", help: "Message content"},
		},
		optional: []Argument{
			Argument{name: "SEND_TIME", help: "RFC 3339 timestamp or delay (e.g. 10m). Defaults to now"},
		},
		handler: func(ctx context.Context, c *client.Client, args map[string]string) error {
			message := client.NewOutMessage(args["SENDER"], args["RECIPIENT"], args["TEXT"])
			if value, ok := args["SEND_TIME"]; ok {
				sendTime, err := ParseSendTime(value, time.Now())
				if err != nil {
					return err
				}
				message.SendTime = &sendTime
			}
			id, err := c.CreateOutMessage(ctx, message)
			if err != nil {
				return err
			}
			fmt.Printf("Queued %s (%d part(s))\n", id, message.SmsParts())
			return nil
		},
	},
	"get-message": &Command{
		help:        "Print out-message TRANSACTION_ID",
		requiresAPI: true,
		args: []Argument{
			Argument{name: "TRANSACTION_ID", help: "ID returned by send-sms"},
		},
		handler: func(ctx context.Context, c *client.Client, args map[string]string) error {
			message, err := c.GetOutMessage(ctx, args["TRANSACTION_ID"])
			if err != nil {
				return err
			}
			return printResult(message, "message")
		},
	},
	"delete-message": &Command{
		help:        "Cancel scheduled out-message TRANSACTION_ID",
		requiresAPI: true,
		args: []Argument{
			Argument{name: "TRANSACTION_ID", help: "ID returned by send-sms"},
		},
		handler: func(ctx context.Context, c *client.Client, args map[string]string) error {
			return c.DeleteOutMessage(ctx, args["TRANSACTION_ID"])
		},
	},
	"get-in-message": &Command{
		help:        "Print in-message TRANSACTION_ID received by SHORT_NUMBER_ID",
		requiresAPI: true,
		args: []Argument{
			Argument{name: "SHORT_NUMBER_ID", help: "Short number ID, e.g. NO-0000"},
			Argument{name: "TRANSACTION_ID", help: "In-message transaction ID"},
		},
		handler: func(ctx context.Context, c *client.Client, args map[string]string) error {
			message, err := c.GetInMessage(ctx, args["SHORT_NUMBER_ID"], args["TRANSACTION_ID"])
			if err != nil {
				return err
			}
			return printResult(message, "message")
		},
	},
}
