package authentication

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrorCode identifies the reason a request signature was rejected.
type ErrorCode int

const (
	errCodeMissingSignature ErrorCode = iota + 1
	errCodeMalformedSignature
	errCodeClockDriftExceeded
	errCodeUnknownSigningKey
	errCodeUnsupportedSignAlgorithm
	errCodeSignatureMismatch
	errCodeReplayedNonce
)

var errCodeNames = map[ErrorCode]string{
	errCodeMissingSignature:         "ERROR_MISSING_SIGNATURE",
	errCodeMalformedSignature:       "ERROR_MALFORMED_SIGNATURE",
	errCodeClockDriftExceeded:       "ERROR_CLOCK_DRIFT_EXCEEDED",
	errCodeUnknownSigningKey:        "ERROR_UNKNOWN_SIGNING_KEY",
	errCodeUnsupportedSignAlgorithm: "ERROR_UNSUPPORTED_SIGN_ALGORITHM",
	errCodeSignatureMismatch:        "ERROR_SIGNATURE_MISMATCH",
	errCodeReplayedNonce:            "ERROR_REPLAYED_NONCE",
}

// String returns a CamelCase name for code.
func (code ErrorCode) String() string {
	// "ERROR_CLOCK_DRIFT_EXCEEDED" -> "ClockDriftExceeded"
	const prefix = "ERROR_"
	name, ok := errCodeNames[code]
	if !ok {
		return fmt.Sprintf("ErrorCode(%d)", int(code))
	}
	allCaps := name[len(prefix):]
	camelCase := make([]rune, 0, len(allCaps))
	lowerCaseNext := false
	for _, b := range allCaps {
		if b == '_' {
			lowerCaseNext = false
		} else {
			if lowerCaseNext {
				camelCase = append(camelCase, unicode.ToLower(b))
			} else {
				camelCase = append(camelCase, b)
				lowerCaseNext = true
			}
		}
	}
	return string(camelCase)
}

// Error represents a rejected request signature. All Errors are terminal: retrying the same request
// will not succeed.
type Error struct {
	Code ErrorCode
	Info string
}

func newError(code ErrorCode, info string) error {
	return &Error{code, info}
}

func (e *Error) Error() string {
	if e.Info == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Info)
}

// Is matches any Error with the same Code, so that errors.Is(err, ErrSignatureMismatch) holds
// regardless of Info.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	// ErrMissingSignature indicates the request did not carry a signature header.
	ErrMissingSignature = &Error{Code: errCodeMissingSignature}
	// ErrMalformedSignature indicates the signature header could not be parsed.
	ErrMalformedSignature = &Error{Code: errCodeMalformedSignature}
	// ErrClockDriftExceeded indicates the signature timestamp is more than MaxClockDrift away from
	// the local clock.
	ErrClockDriftExceeded = &Error{Code: errCodeClockDriftExceeded}
	// ErrUnknownSigningKey indicates the key lookup found no public key with the given name.
	ErrUnknownSigningKey = &Error{Code: errCodeUnknownSigningKey}
	// ErrUnsupportedSignAlgorithm indicates the signing key uses an algorithm other than ECDsaP256.
	ErrUnsupportedSignAlgorithm = &Error{Code: errCodeUnsupportedSignAlgorithm}
	// ErrSignatureMismatch indicates the signature does not match the request.
	ErrSignatureMismatch = &Error{Code: errCodeSignatureMismatch}
	// ErrReplayedNonce indicates the nonce was already accepted within the clock drift window. Only
	// returned by Verifiers created with WithReplayProtection.
	ErrReplayedNonce = &Error{Code: errCodeReplayedNonce}
)

// IsAuthenticationError returns true if err (or an error it wraps) is a signature rejection. Key
// lookup failures are not authentication errors.
func IsAuthenticationError(err error) bool {
	var authErr *Error
	return errors.As(err, &authErr)
}
