// Utility for converting, migrating and exporting API signing keys

package main

import (
	"encoding/base64"
	"encoding/pem"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/target365/sdk-go/internal/log"
	"github.com/target365/sdk-go/pkg/cli"
	"github.com/target365/sdk-go/pkg/keys"
)

func writeErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n")
}

const usageText = `
Converts keys between the DER form used by the API and the native blob form, and moves private
keys between plaintext files and the system keyring.

  convert FILE  Print FILE (public or private key) in the other encoding, base64-encoded.
  public        Print the public key of the configured private key as the API expects it.
  migrate       Copy the private key in -key-file into the keyring entry -keyring-name.
  export        Print the configured private key as a base64 PKCS#8 structure.
  delete        Remove -keyring-name from the system keyring.

The type of keyring and name of the key inside that keyring are controlled by the command-line
options below, or through the corresponding environment variables.`

func cliUsage() {
	usage(flag.CommandLine.Output())
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s [OPTION...] convert|public|migrate|export|delete [FILE]\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(w, usageText)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "OPTIONS:")
	flag.PrintDefaults()
}

func printPublicKey(w io.Writer, skey keys.PrivateKey) error {
	der, err := keys.EncodePublicKey(skey.PublicKey())
	if err != nil {
		return err
	}
	fmt.Fprintln(w, base64.StdEncoding.EncodeToString(der))
	return pem.Encode(w, &pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func printPrivateKey(w io.Writer, skey keys.PrivateKey) error {
	ecKey, ok := skey.(*keys.ECPrivateKey)
	if !ok {
		return cli.ErrKeyNotWritable
	}
	_, err := fmt.Fprintln(w, base64.StdEncoding.EncodeToString(ecKey.DER()))
	return err
}

func main() {
	var (
		skey keys.PrivateKey
		err  error
	)
	status := 1
	defer func() {
		os.Exit(status)
	}()

	config, err := cli.NewConfig(cli.FlagPrivateKey)
	config.RegisterCommandLineFlags()
	flag.Usage = cliUsage
	flag.Parse()
	if err != nil {
		writeErr("Failed to load credential configuration: %s", err)
		return
	}
	config.ReadFromEnvironment()
	if config.Debug {
		log.SetLevel(log.LevelDebug)
	}

	if flag.NArg() < 1 {
		usage(os.Stderr)
		return
	}

	switch flag.Arg(0) {
	case "convert":
		if flag.NArg() != 2 {
			writeErr("Must provide the FILE to convert")
			return
		}
		b, err := keys.ReadKeyFile(flag.Arg(1))
		if err != nil {
			writeErr("Unable to read key: %s", err)
			return
		}
		out, description, err := convert(b)
		if err != nil {
			writeErr("Unable to convert key: %s", err)
			return
		}
		log.Info("Writing %s", description)
		fmt.Println(base64.StdEncoding.EncodeToString(out))
	case "public":
		if skey, err = config.PrivateKey(); err != nil {
			writeErr("Unable to load private key: %s", err)
			return
		}
		if err = printPublicKey(os.Stdout, skey); err != nil {
			writeErr("Failed to encode public key: %s", err)
			return
		}
	case "migrate":
		if config.KeyFilename == "" || config.KeyringKeyName == "" {
			writeErr("Must provide path of existing key (-key-file) and name of new key (-keyring-name)")
			return
		}
		skey, err = keys.LoadPrivateKey(config.KeyFilename)
		if err != nil {
			writeErr("Unable to read key: %s", err)
			return
		}
		config.KeyFilename = "" // Prevent key from being re-written to a file
		if err = config.SavePrivateKey(skey); err != nil {
			writeErr("Failed to save key to keyring: %s", err)
			return
		}
		if err = printPublicKey(os.Stdout, skey); err != nil {
			writeErr("Failed to encode public key: %s", err)
			return
		}
	case "export":
		skey, err = config.PrivateKey()
		if err == nil {
			err = printPrivateKey(os.Stdout, skey)
		}
		if err != nil {
			writeErr("Failed to export private key: %s", err)
			return
		}
	case "delete":
		if err := config.DeletePrivateKey(); err != nil {
			writeErr("Failed to delete key: %s", err)
			return
		}
	default:
		writeErr("Unrecognized command-line argument.")
		writeErr("")
		usage(os.Stderr)
		return
	}
	status = 0
}
