/*
Package cli facilitates building command-line applications that talk to the Target365 API. It
defines a [Config] type that can be used to register common command-line flags (using the Golang
flag package) and environment variable equivalents.

The package uses [keyring]'s platform-agnostic interface for storing private keys in an
OS-dependent credential store.

# Examples

	import flag

	config, err := NewConfig(FlagAll)
	if err != nil {
		panic(err)
	}
	config.RegisterCommandLineFlags() // Adds command-line flags for the API endpoint and private keys
	flag.Parse()
	config.ReadFromEnvironment()      // Fills in missing fields using environment variables
	config.LoadCredentials()          // Prompt for Keyring password if needed

	c, err := config.Client()
	if err != nil {
		panic(err)
	}

A [Flag] mask controls what [Config] fields are populated. Note that config.Flags must be set before
calling [flag.Parse] or [Config.ReadFromEnvironment]:

	config, err = NewConfig(FlagPrivateKey) // Only key management options, e.g. for key conversion tools.
*/
package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/target365/sdk-go/internal/log"
	"github.com/target365/sdk-go/pkg/client"
	"github.com/target365/sdk-go/pkg/keys"

	"github.com/99designs/keyring"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://shared.target365.io/"

// Environment variable names used are used by [Config.ReadFromEnvironment] to set common parameters.
const (
	EnvBaseURL      = "T365_BASE_URL"
	EnvKeyName      = "T365_KEY_NAME"
	EnvKeyFile      = "T365_KEY_FILE"
	EnvKeyringName  = "T365_KEYRING_NAME"
	EnvKeyringType  = "T365_KEYRING_TYPE"
	EnvKeyringPass  = "T365_KEYRING_PASSWORD"
	EnvKeyringPath  = "T365_KEYRING_PATH"
	EnvKeyringDebug = "T365_KEYRING_DEBUG"
	EnvVerbose      = "T365_VERBOSE"
)

// Flag controls what options should be scanned from the command line and/or environment variables.
type Flag int

func (f Flag) isSet(other Flag) bool {
	return (f & other) == other
}

const (
	FlagAPI        Flag = 1 // Enable API endpoint options.
	FlagPrivateKey Flag = 2 // Enable Private Key options. Required for sending signed requests.
	FlagAll        Flag = FlagAPI | FlagPrivateKey
)

var (
	ErrNoKeySpecified = errors.New("private key location not provided")
	ErrNoKeyName      = errors.New("API key name not provided")
	ErrKeyNotFound    = keyring.ErrKeyNotFound
	ErrKeyNotWritable = errors.New("key is not exportable")
)

// Config fields determine how a client authenticates to the Target365 API.
type Config struct {
	Flags          Flag   // Controls which set of environment variables/CLI flags to use.
	BaseURL        string // API endpoint
	KeyName        string // Name under which the public key is registered with Target365
	KeyringKeyName string // Username for private key in system keyring
	KeyFilename    string
	Backend        keyring.Config
	BackendType    backendType
	Debug          bool // Enable keyring debug messages
	Verbose        bool

	password *string
	skey     keys.PrivateKey
}

func NewConfig(flags Flag) (*Config, error) {
	c := Config{
		Flags: flags,
		Backend: keyring.Config{
			ServiceName:              keyringServiceName,
			KeychainTrustApplication: true,
			KeyCtlScope:              "user",
		},
	}
	c.BackendType = backendType{&c}
	c.Backend.KeychainPasswordFunc = c.getPassword
	c.Backend.FilePasswordFunc = c.getPassword

	return &c, nil
}

func (c *Config) RegisterCommandLineFlags() {
	c.RegisterFlags(flag.CommandLine)
}

// RegisterFlags adds options enabled by c.Flags to fs.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	if c.Flags.isSet(FlagAPI) {
		fs.StringVar(&c.BaseURL, "base-url", "", "API `url`. Defaults to $T365_BASE_URL or "+DefaultBaseURL+".")
		fs.StringVar(&c.KeyName, "key-name", "", "Registered API key `name`. Defaults to $T365_KEY_NAME.")
	}
	if c.Flags.isSet(FlagPrivateKey) {
		fs.StringVar(&c.KeyringKeyName, "keyring-name", "", "System keyring `name` for private key. Defaults to $T365_KEYRING_NAME.")
		fs.StringVar(&c.KeyFilename, "key-file", "", "A `file` containing private key. Defaults to $T365_KEY_FILE.")

		var names []string
		for _, name := range keyring.AvailableBackends() {
			names = append(names, string(name))
		}
		sort.Strings(names)
		fs.Var(&c.BackendType, "keyring-type", "Keyring `type` ("+strings.Join(names, "|")+"). Defaults to $T365_KEYRING_TYPE.")
		fs.StringVar(&c.Backend.FileDir, "keyring-file-dir", "", "keyring `directory` for file-backed keyring types. Defaults to $T365_KEYRING_PATH or "+keyringDirectory+".")
		fs.BoolVar(&c.Debug, "keyring-debug", false, "Enable keyring debug logging")
	}
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable verbose logging. Defaults to $T365_VERBOSE.")
}

// LoadCredentials attempts to open a keyring, prompting for a password if needed. Call this
// method before [Config.Client] to prevent interactive prompts from counting against timeouts.
func (c *Config) LoadCredentials() error {
	if c.Flags.isSet(FlagPrivateKey) {
		if _, err := c.PrivateKey(); err != nil {
			return err
		}
	}
	return nil
}

// ReadFromEnvironment populates c using environment variables. Values that are already populated
// are not overwritten.
//
// Calling ReadFromEnvironment after flag.Parse() (or other initialization method) will prevent the
// environment from overriding explicit command-line parameters and avoid potentially misleading
// debug log messages.
func (c *Config) ReadFromEnvironment() {
	if !c.Verbose {
		_, c.Verbose = os.LookupEnv(EnvVerbose)
	}
	if c.Verbose {
		log.SetLevel(log.LevelDebug)
	}
	if c.Flags.isSet(FlagAPI) {
		if c.BaseURL == "" {
			c.BaseURL = os.Getenv(EnvBaseURL)
			if c.BaseURL == "" {
				c.BaseURL = DefaultBaseURL
			}
			log.Debug("Set base URL to '%s'", c.BaseURL)
		}
		if c.KeyName == "" {
			c.KeyName = os.Getenv(EnvKeyName)
			log.Debug("Set API key name to '%s'", c.KeyName)
		}
	}
	if c.Flags.isSet(FlagPrivateKey) {
		if c.KeyringKeyName == "" && c.KeyFilename == "" {
			c.KeyringKeyName = os.Getenv(EnvKeyringName)
			log.Debug("Set keyring key name to '%s'", c.KeyringKeyName)

			c.KeyFilename = os.Getenv(EnvKeyFile)
			log.Debug("Set key file to '%s'", c.KeyFilename)
		}
		if c.BackendType.String() == string(keyring.InvalidBackend) {
			if err := c.BackendType.Set(os.Getenv(EnvKeyringType)); err == nil {
				log.Debug("Set keyring type to '%s'", c.BackendType)
			}
		}
		if c.password == nil {
			password := os.Getenv(EnvKeyringPass)
			c.password = &password
			if len(password) > 0 {
				log.Debug("Set keyring File Password to %s", strings.Repeat("*", len("hunter2")))
			}
		}
		if c.Backend.FileDir == "" {
			c.Backend.FileDir = os.Getenv(EnvKeyringPath)
			if c.Backend.FileDir == "" {
				c.Backend.FileDir = keyringDirectory
			}
			log.Debug("Set keyring File Path to '%s'", c.Backend.FileDir)
		}
		if !c.Debug {
			_, c.Debug = os.LookupEnv(EnvKeyringDebug)
			log.Debug("Set keyring Debug Logging to '%v'", c.Debug)
		}
		keyring.Debug = c.Debug
	}
}

// PrivateKey loads a private key from the location specified in c.
//
// The private key is cached after it is first loaded, and subsequent calls will always return the
// same private key. If the key file does not exist, the key is loaded from the system keyring
// instead.
func (c *Config) PrivateKey() (skey keys.PrivateKey, err error) {
	if c.skey != nil {
		return c.skey, nil
	}
	if !c.Flags.isSet(FlagPrivateKey) {
		log.Debug("Skipping private key loading because FlagPrivateKey is not set")
		return nil, ErrNoKeySpecified
	}
	if c.KeyFilename == "" && c.KeyringKeyName == "" {
		return nil, ErrNoKeySpecified
	}
	if c.KeyFilename != "" {
		skey, err = keys.LoadPrivateKey(c.KeyFilename)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if skey == nil && c.KeyringKeyName != "" {
		skey, err = c.LoadKeyFromKeyring()
	}
	if err != nil {
		return nil, err
	}
	c.skey = skey
	return skey, nil
}

// SavePrivateKey writes skey to the system keyring or file, depending on what options are
// configured. The method prefers the keyring if both options are available.
func (c *Config) SavePrivateKey(skey keys.PrivateKey) error {
	if c.KeyringKeyName != "" {
		return c.saveKeyToKeyring(skey)
	}
	if c.KeyFilename != "" {
		return keys.SavePrivateKey(skey, c.KeyFilename)
	}
	return ErrNoKeySpecified
}

// Client returns an API client that signs requests with the configured private key.
func (c *Config) Client(options ...client.Option) (*client.Client, error) {
	if !c.Flags.isSet(FlagAPI) {
		return nil, fmt.Errorf("API options are not enabled")
	}
	if c.KeyName == "" {
		return nil, ErrNoKeyName
	}
	skey, err := c.PrivateKey()
	if err != nil {
		return nil, err
	}
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	log.Debug("Connecting to %s with key %s", baseURL, c.KeyName)
	return client.New(baseURL, c.KeyName, skey, options...)
}
