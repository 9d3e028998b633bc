package keys

// Layout translation for P256 private keys. The DER form is a PKCS#8 PrivateKeyInfo wrapping a
// SEC1 ECPrivateKey with an embedded public key and a key-usage attribute:
//
//	derPrivatePrefix (36) | d (32) | derPrivateMid (18) | X || Y (64) | derPrivateSuffix (15)
//
// The native blob is:
//
//	nativePrivatePrefix (8) | X || Y (64) | d (32)

import (
	"bytes"
	"fmt"
)

const (
	// DERPrivateKeySize is the length of a P256 PKCS#8 private key in the layout above.
	DERPrivateKeySize = 165
	// NativePrivateKeySize is the length of a P256 native private key blob.
	NativePrivateKeySize = 104

	scalarSize      = 32
	publicPointSize = 64
)

var (
	derPrivatePrefix = []byte{
		0x30, 0x81, 0xa2, 0x02, 0x01, 0x00, 0x30, 0x13, 0x06, 0x07, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x02,
		0x01, 0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07, 0x04, 0x79, 0x30, 0x77, 0x02,
		0x01, 0x01, 0x04, 0x20,
	}
	derPrivateMid = []byte{
		0xa0, 0x0a, 0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07, 0xa1, 0x44, 0x03, 0x42,
		0x00, 0x04,
	}
	derPrivateSuffix = []byte{
		0xa0, 0x0d, 0x30, 0x0b, 0x06, 0x03, 0x55, 0x1d, 0x0f, 0x31, 0x04, 0x03, 0x02, 0x00, 0x90,
	}
	// "ECS2", 32-byte coordinates
	nativePrivatePrefix = []byte{0x45, 0x43, 0x53, 0x32, 0x20, 0x00, 0x00, 0x00}
)

var (
	derScalarOffset = len(derPrivatePrefix)
	derMidOffset    = derScalarOffset + scalarSize
	derPointOffset  = derMidOffset + len(derPrivateMid)

	nativePointOffset  = len(nativePrivatePrefix)
	nativeScalarOffset = nativePointOffset + publicPointSize
)

// IsDERPrivateKey returns true if b has the length and leading tag of a P256 PKCS#8 private key.
func IsDERPrivateKey(b []byte) bool {
	return len(b) == DERPrivateKeySize && b[0] == 0x30
}

// IsNativePrivateBlob returns true if b is a P256 native private key blob.
func IsNativePrivateBlob(b []byte) bool {
	return len(b) == NativePrivateKeySize && bytes.HasPrefix(b, nativePrivatePrefix)
}

// splitDERPrivateKey returns the private scalar and public point of a P256 PKCS#8 private key.
func splitDERPrivateKey(der []byte) (d, point []byte, err error) {
	if !IsDERPrivateKey(der) ||
		!bytes.HasPrefix(der, derPrivatePrefix) ||
		!bytes.Equal(der[derMidOffset:derPointOffset], derPrivateMid) {
		return nil, nil, fmt.Errorf("%w: not a %d-byte P256 PKCS#8 private key", ErrUnsupportedKeyFormat, DERPrivateKeySize)
	}
	return der[derScalarOffset:derMidOffset], der[derPointOffset : derPointOffset+publicPointSize], nil
}

func splitNativePrivateBlob(blob []byte) (d, point []byte, err error) {
	if !IsNativePrivateBlob(blob) {
		return nil, nil, fmt.Errorf("%w: not a %d-byte P256 native private key blob", ErrUnsupportedKeyFormat, NativePrivateKeySize)
	}
	return blob[nativeScalarOffset:], blob[nativePointOffset:nativeScalarOffset], nil
}

func joinNativePrivateBlob(d, point []byte) []byte {
	out := make([]byte, 0, NativePrivateKeySize)
	out = append(out, nativePrivatePrefix...)
	out = append(out, point...)
	return append(out, d...)
}

func joinDERPrivateKey(d, point []byte) []byte {
	out := make([]byte, 0, DERPrivateKeySize)
	out = append(out, derPrivatePrefix...)
	out = append(out, d...)
	out = append(out, derPrivateMid...)
	out = append(out, point...)
	return append(out, derPrivateSuffix...)
}

// NativePrivateBlobFromDER rearranges a P256 PKCS#8 private key into a native private key blob.
// The numeric values are copied unchanged.
func NativePrivateBlobFromDER(der []byte) ([]byte, error) {
	d, point, err := splitDERPrivateKey(der)
	if err != nil {
		return nil, err
	}
	return joinNativePrivateBlob(d, point), nil
}

// DERFromNativePrivateBlob is the inverse of NativePrivateBlobFromDER.
func DERFromNativePrivateBlob(blob []byte) ([]byte, error) {
	d, point, err := splitNativePrivateBlob(blob)
	if err != nil {
		return nil, err
	}
	return joinDERPrivateKey(d, point), nil
}
