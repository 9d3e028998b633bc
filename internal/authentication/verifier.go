package authentication

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/target365/sdk-go/internal/log"
	"github.com/target365/sdk-go/pkg/cache"
	"github.com/target365/sdk-go/pkg/keys"
)

// PublicKeyRecord describes a public key registered with the API.
type PublicKeyRecord struct {
	AccountID       int64     `json:"accountId,omitempty"`
	Name            string    `json:"name"`
	PublicKeyString string    `json:"publicKeyString"` // Base64-encoded DER
	SignAlgo        string    `json:"signAlgo"`
	HashAlgo        string    `json:"hashAlgo"`
	Created         time.Time `json:"created"`
	LastModified    time.Time `json:"lastModified"`
	NotUsableBefore time.Time `json:"notUsableBefore"`
	Expiry          time.Time `json:"expiry"`
}

// KeyLookup fetches public keys by name. FetchPublicKey returns a nil record and nil error if no key
// with the given name exists.
type KeyLookup interface {
	FetchPublicKey(ctx context.Context, keyName string) (*PublicKeyRecord, error)
}

// A Verifier checks signature headers of inbound requests. Public keys are resolved through a
// PublicKeyCache, falling back to the KeyLookup on a miss. Verifiers are safe for concurrent use.
type Verifier struct {
	settings
	lookup KeyLookup
	cache  *cache.PublicKeyCache
}

// NewVerifier returns a Verifier. If keyCache is nil, the Verifier uses a private cache.
func NewVerifier(lookup KeyLookup, keyCache *cache.PublicKeyCache, options ...Option) *Verifier {
	if keyCache == nil {
		keyCache = cache.New()
	}
	return &Verifier{
		settings: newSettings(options),
		lookup:   lookup,
		cache:    keyCache,
	}
}

type signatureHeader struct {
	keyName   string
	timestamp int64
	nonce     string
	signature []byte
}

func parseSignatureHeader(header string) (*signatureHeader, error) {
	header = strings.TrimPrefix(strings.TrimSpace(header), HeaderScheme+" ")
	parts := strings.Split(header, ":")
	if len(parts) != 4 {
		return nil, newError(errCodeMalformedSignature, fmt.Sprintf("expected 4 fields, got %d", len(parts)))
	}
	if parts[0] == "" {
		return nil, newError(errCodeMalformedSignature, "empty key name")
	}
	timestamp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, newError(errCodeMalformedSignature, "invalid timestamp")
	}
	signature, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, newError(errCodeMalformedSignature, "signature is not base64")
	}
	return &signatureHeader{
		keyName:   parts[0],
		timestamp: timestamp,
		nonce:     parts[2],
		signature: signature,
	}, nil
}

// Verify checks that header is a valid signature of a request with the given method, absolute uri
// and body. The returned error is an *Error for rejected signatures; errors from the KeyLookup are
// returned wrapped.
func (v *Verifier) Verify(ctx context.Context, method, uri string, content []byte, header string) error {
	if header == "" {
		return ErrMissingSignature
	}
	parsed, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	now := v.now()
	drift := int64(MaxClockDrift / time.Second)
	if parsed.timestamp < now.Unix()-drift || parsed.timestamp > now.Unix()+drift {
		return newError(errCodeClockDriftExceeded, fmt.Sprintf("timestamp %d, local clock %d", parsed.timestamp, now.Unix()))
	}

	contentHash := ContentHash(content)

	entry, err := v.resolve(ctx, parsed.keyName)
	if err != nil {
		return err
	}
	if entry.SignAlgorithm != keys.ECDsaP256 || entry.Key.Shape() != keys.ShapeECP256 {
		return newError(errCodeUnsupportedSignAlgorithm, fmt.Sprintf("key %s uses %s", parsed.keyName, entry.SignAlgorithm))
	}

	message := CanonicalMessage(method, uri, parsed.timestamp, parsed.nonce, contentHash)
	if err := verifyES256(message, parsed.signature, entry.Key); err != nil {
		log.Debug("[%s] Signature mismatch on %s %s", parsed.keyName, method, uri)
		return err
	}

	if v.replayWindow != nil && !v.replayWindow.accept(parsed.keyName, parsed.nonce, now) {
		return newError(errCodeReplayedNonce, parsed.nonce)
	}
	return nil
}

// resolve returns the named public key, fetching it on a cache miss. Concurrent misses on the same
// key may fetch it more than once.
func (v *Verifier) resolve(ctx context.Context, keyName string) (*cache.Entry, error) {
	if entry, ok := v.cache.Get(keyName); ok {
		return entry, nil
	}
	log.Debug("[%s] Fetching public key", keyName)
	record, err := v.lookup.FetchPublicKey(ctx, keyName)
	if err != nil {
		return nil, fmt.Errorf("fetching public key %s: %w", keyName, err)
	}
	if record == nil {
		return nil, newError(errCodeUnknownSigningKey, keyName)
	}
	key, err := keys.DecodePublicKeyString(record.PublicKeyString)
	if err != nil {
		return nil, fmt.Errorf("decoding public key %s: %w", keyName, err)
	}
	return v.cache.Add(&cache.Entry{
		KeyName:       keyName,
		Key:           key,
		SignAlgorithm: keys.Algorithm(record.SignAlgo),
		FetchedAt:     v.now(),
	}), nil
}
