package keys

import "errors"

var (
	// ErrUnsupportedKeyFormat indicates an encoded key did not match any supported DER or native
	// blob layout. Only P256, P521, RSA-1024 and RSA-2048 public keys are supported.
	ErrUnsupportedKeyFormat = errors.New("unsupported key format")
	// ErrUnsupportedKeyShape indicates a raw key payload does not have the length or algorithm of
	// a supported key.
	ErrUnsupportedKeyShape = errors.New("unsupported key shape")
	// ErrInvalidPublicKey indicates a public key is well-formed but not a valid curve point.
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrInvalidPrivateKey indicates a private key is malformed or does not match its embedded
	// public key.
	ErrInvalidPrivateKey = errors.New("invalid private key")
)
