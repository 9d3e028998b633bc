package authentication

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/target365/sdk-go/pkg/keys"
)

const (
	// HeaderScheme precedes the signature in outbound Authorization headers.
	HeaderScheme = "HMAC"
	// SignatureHeader carries the signature of inbound callback requests.
	SignatureHeader = "X-ECDSA-Signature"
	// MaxClockDrift is the largest accepted difference between a signature timestamp and the
	// local clock.
	MaxClockDrift = 300 * time.Second
)

type settings struct {
	now          func() time.Time
	nonce        func() string
	replayWindow *replayWindow
}

// Option configures a Signer or Verifier.
type Option func(*settings)

// WithClock replaces time.Now as the source of signature timestamps and drift checks.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithNonceSource replaces the random UUID nonce generator of a Signer.
func WithNonceSource(nonce func() string) Option {
	return func(s *settings) { s.nonce = nonce }
}

// WithReplayProtection makes a Verifier reject nonces it has already accepted within MaxClockDrift.
// Has no effect on Signers.
func WithReplayProtection() Option {
	return func(s *settings) { s.replayWindow = newReplayWindow() }
}

func newSettings(options []Option) settings {
	s := settings{now: time.Now, nonce: uuid.NewString}
	for _, option := range options {
		option(&s)
	}
	return s
}

// A Signer produces signature headers for outbound requests on behalf of a named client key. Signers
// are immutable and safe for concurrent use.
type Signer struct {
	settings
	keyName string
	key     keys.PrivateKey
	method  jwt.SigningMethod
}

// NewSigner creates a Signer that signs requests with key. The keyName is the name under which the
// corresponding public key was registered with the API.
func NewSigner(keyName string, key keys.PrivateKey, options ...Option) (*Signer, error) {
	if keyName == "" || strings.Contains(keyName, ":") {
		return nil, fmt.Errorf("invalid key name %q", keyName)
	}
	if key == nil || !key.IsPrivate() {
		return nil, keys.ErrInvalidPrivateKey
	}
	method, err := signingMethod(key.Shape())
	if err != nil {
		return nil, err
	}
	return &Signer{
		settings: newSettings(options),
		keyName:  keyName,
		key:      key,
		method:   method,
	}, nil
}

// KeyName returns the name of the signing key.
func (s *Signer) KeyName() string {
	return s.keyName
}

// Sign returns the signature header value for a request, of the form
// "keyName:timestamp:nonce:base64Signature". The uri must be absolute.
func (s *Signer) Sign(method, uri string, body []byte) (string, error) {
	timestamp := s.now().Unix()
	nonce := s.nonce()
	message := CanonicalMessage(method, uri, timestamp, nonce, ContentHash(body))
	signature, err := s.method.Sign(message, s.key.CryptoPrivateKey())
	if err != nil {
		return "", err
	}
	return strings.Join([]string{
		s.keyName,
		strconv.FormatInt(timestamp, 10),
		nonce,
		base64.StdEncoding.EncodeToString(signature),
	}, ":"), nil
}

// AuthorizationHeader returns Sign's result preceded by HeaderScheme, suitable for use as the
// Authorization header of outbound requests.
func (s *Signer) AuthorizationHeader(method, uri string, body []byte) (string, error) {
	value, err := s.Sign(method, uri, body)
	if err != nil {
		return "", err
	}
	return HeaderScheme + " " + value, nil
}
