package keys

import (
	"bytes"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"os"
)

func readAll(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// decodeText strips PEM or base64 armor from contents. Binary input is returned unchanged.
func decodeText(contents []byte) []byte {
	if block, _ := pem.Decode(contents); block != nil {
		return block.Bytes
	}
	trimmed := bytes.TrimSpace(contents)
	if decoded, err := base64.StdEncoding.DecodeString(string(trimmed)); err == nil {
		return decoded
	}
	return contents
}

// ReadKeyFile returns the binary contents of a key file, stripping PEM or base64 armor.
func ReadKeyFile(filename string) ([]byte, error) {
	contents, err := readAll(filename)
	if err != nil {
		return nil, err
	}
	return decodeText(contents), nil
}

// DecodePrivateKeyString decodes a base64-encoded private key, as stored in configuration files and
// environment variables.
func DecodePrivateKeyString(s string) (PrivateKey, error) {
	b, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace([]byte(s))))
	if err != nil {
		return nil, fmt.Errorf("%w: private key is not base64: %s", ErrUnsupportedKeyFormat, err)
	}
	return ParsePrivateKey(b)
}

// DecodePublicKeyString decodes a base64-encoded public key. This is the PublicKeyString field of
// keys returned by the API.
func DecodePublicKeyString(s string) (KeyMaterial, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: public key is not base64: %s", ErrUnsupportedKeyFormat, err)
	}
	return ParsePublicKey(b)
}

// LoadPrivateKey loads a private key from a file.
//
// The function is flexible, supporting the following formats:
//   - PEM ("BEGIN PRIVATE KEY", "BEGIN EC PRIVATE KEY", "BEGIN RSA PRIVATE KEY")
//   - Base64-encoded PKCS#8 or native blob, as issued with API credentials
//   - Binary PKCS#8 or native blob
func LoadPrivateKey(filename string) (PrivateKey, error) {
	b, err := ReadKeyFile(filename)
	if err != nil {
		return nil, err
	}
	return ParsePrivateKey(b)
}

// LoadPublicKey loads a public key from a file. PEM ("BEGIN PUBLIC KEY"), base64 and binary forms
// of either DER SubjectPublicKeyInfo or native blobs are accepted.
func LoadPublicKey(filename string) (KeyMaterial, error) {
	b, err := ReadKeyFile(filename)
	if err != nil {
		return nil, err
	}
	return ParsePublicKey(b)
}

// EncodePublicKey returns the DER encoding of a public key.
func EncodePublicKey(key KeyMaterial) ([]byte, error) {
	return EncodedFromRaw(key.Raw(), key.Algorithm())
}

// SavePrivateKey writes an EC private key as a base64-encoded 165-byte PKCS#8 structure. RSA keys
// are not exportable.
func SavePrivateKey(key PrivateKey, filename string) error {
	ecKey, ok := key.(*ECPrivateKey)
	if !ok {
		return fmt.Errorf("key is not exportable")
	}
	encoded := base64.StdEncoding.EncodeToString(ecKey.DER())
	return os.WriteFile(filename, []byte(encoded+"\n"), 0600)
}
