// Package client sends signed requests to the Target365 REST API and verifies signed callbacks.
package client

import (
	"context"
	_ "embed" // Used to embed version for use with user agent
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/target365/sdk-go/internal/authentication"
	"github.com/target365/sdk-go/pkg/cache"
	"github.com/target365/sdk-go/pkg/keys"
)

var (
	//go:embed version.txt
	libraryVersion string
)

const (
	// DefaultTimeout bounds each HTTP round trip unless overridden with WithTimeout.
	DefaultTimeout = 60 * time.Second
	// MinimumTimeout is the shortest timeout accepted by WithTimeout.
	MinimumTimeout = 30 * time.Second
)

func buildUserAgent(app string) string {
	library := strings.TrimSpace("target365-sdk-go/" + libraryVersion)
	if app != "" {
		return fmt.Sprintf("%s %s", app, library)
	}
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return library
	}
	path := strings.Split(build.Path, "/")
	if len(path) == 0 || path[len(path)-1] == "" {
		return library
	}

	app = path[len(path)-1]
	var version string
	if build.Main.Version != "(devel)" && build.Main.Version != "" {
		version = build.Main.Version
	} else {
		for _, info := range build.Settings {
			if info.Key == "vcs.revision" {
				if len(info.Value) > 8 {
					version = info.Value[0:8]
				}
				break
			}
		}
	}
	if version != "" {
		app = fmt.Sprintf("%s/%s", app, version)
	}
	return fmt.Sprintf("%s %s", app, library)
}

type config struct {
	timeout   time.Duration
	insecure  bool
	keyCache  *cache.PublicKeyCache
	app       string
	verifyOpt []authentication.Option
}

// Option configures a Client.
type Option func(*config)

// WithTimeout sets the HTTP timeout. New fails if d is less than MinimumTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithInsecureBaseURL allows plain http base URLs. Intended for tests against local servers.
func WithInsecureBaseURL() Option {
	return func(c *config) { c.insecure = true }
}

// WithPublicKeyCache shares a public key cache between Clients. By default each Client has its own.
func WithPublicKeyCache(keyCache *cache.PublicKeyCache) Option {
	return func(c *config) { c.keyCache = keyCache }
}

// WithUserAgent sets the application component of the User-Agent header.
func WithUserAgent(app string) Option {
	return func(c *config) { c.app = app }
}

// WithReplayProtection makes the Client reject callbacks that reuse a nonce.
func WithReplayProtection() Option {
	return func(c *config) { c.verifyOpt = append(c.verifyOpt, authentication.WithReplayProtection()) }
}

// Client is a Target365 API client. A Client is safe for concurrent use.
type Client struct {
	// The default UserAgent is constructed from the application name and library version, but
	// can be overridden.
	UserAgent string
	baseURL   *url.URL
	signer    *authentication.Signer
	verifier  *authentication.Verifier
	keyCache  *cache.PublicKeyCache
	client    http.Client
}

// New returns a Client that signs requests with privateKey. The keyName must match the name under
// which the corresponding public key was registered with Target365.
func New(baseURL, keyName string, privateKey keys.PrivateKey, options ...Option) (*Client, error) {
	cfg := config{timeout: DefaultTimeout}
	for _, option := range options {
		option(&cfg)
	}
	if cfg.timeout < MinimumTimeout {
		return nil, fmt.Errorf("timeout %s too low, minimum is %s", cfg.timeout, MinimumTimeout)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "https" && !(cfg.insecure && base.Scheme == "http") {
		return nil, fmt.Errorf("base URL must have https scheme")
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base URL must include a host")
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	signer, err := authentication.NewSigner(keyName, privateKey)
	if err != nil {
		return nil, err
	}
	if cfg.keyCache == nil {
		cfg.keyCache = cache.New()
	}

	c := &Client{
		UserAgent: buildUserAgent(cfg.app),
		baseURL:   base,
		signer:    signer,
		keyCache:  cfg.keyCache,
		client:    http.Client{Timeout: cfg.timeout},
	}
	c.verifier = authentication.NewVerifier(c, cfg.keyCache, cfg.verifyOpt...)
	return c, nil
}

// KeyName returns the name of the Client's signing key.
func (c *Client) KeyName() string {
	return c.signer.KeyName()
}

// PublicKeyCache returns the cache used to verify callbacks.
func (c *Client) PublicKeyCache() *cache.PublicKeyCache {
	return c.keyCache
}

// Ping checks connectivity with the API. It returns the server's greeting.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var pong string
	rsp, err := c.send(ctx, http.MethodGet, "api/ping", nil, false)
	if err != nil {
		return "", err
	}
	if err := rsp.expect(http.StatusOK); err != nil {
		return "", err
	}
	if err := rsp.decode(&pong); err != nil {
		return "", err
	}
	return pong, nil
}
