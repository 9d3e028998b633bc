package keys

import (
	"bytes"
	"fmt"
)

// Algorithm identifies the signature algorithm associated with a key. The values match the
// SignAlgo field of public keys returned by the API.
type Algorithm string

const (
	ECDsaP256 Algorithm = "ECDsaP256"
	ECDsaP521 Algorithm = "ECDsaP521"
	RSA       Algorithm = "Rsa"
)

// Shape enumerates the key types supported by this package.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeECP256
	ShapeECP521
	ShapeRSA1024
	ShapeRSA2048
)

var shapeNames = map[Shape]string{
	ShapeECP256:  "P256",
	ShapeECP521:  "P521",
	ShapeRSA1024: "RSA-1024",
	ShapeRSA2048: "RSA-2048",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// Algorithm returns the signature algorithm tag used with keys of shape s.
func (s Shape) Algorithm() Algorithm {
	switch s {
	case ShapeECP256:
		return ECDsaP256
	case ShapeECP521:
		return ECDsaP521
	case ShapeRSA1024, ShapeRSA2048:
		return RSA
	}
	return ""
}

// CoordinateSize is the byte length of a single EC coordinate, or of the modulus for RSA keys.
func (s Shape) CoordinateSize() int {
	switch s {
	case ShapeECP256:
		return 32
	case ShapeECP521:
		return 66
	case ShapeRSA1024:
		return 128
	case ShapeRSA2048:
		return 256
	}
	return 0
}

// RawSize is the byte length of the raw public payload: X || Y for EC keys, the modulus for RSA.
func (s Shape) RawSize() int {
	switch s {
	case ShapeECP256, ShapeECP521:
		return 2 * s.CoordinateSize()
	}
	return s.CoordinateSize()
}

func (s Shape) isEC() bool {
	return s == ShapeECP256 || s == ShapeECP521
}

// Format distinguishes the standard ASN.1 DER encoding from the compact native key-blob layout.
type Format int

const (
	FormatDER Format = iota
	FormatNative
)

func (f Format) String() string {
	if f == FormatNative {
		return "native"
	}
	return "DER"
}

type encoding struct {
	shape  Shape
	format Format
	prefix []byte
	suffix []byte
}

// rsaExponentSuffix is the DER INTEGER 65537 that trails the modulus of an RSA SubjectPublicKeyInfo.
var rsaExponentSuffix = []byte{0x02, 0x03, 0x01, 0x00, 0x01}

// encodings is scanned in order. Prefixes are compared byte-for-byte over their full length.
var encodings = []encoding{
	{
		shape:  ShapeECP256,
		format: FormatDER,
		prefix: []byte{
			0x30, 0x59, 0x30, 0x13, 0x06, 0x07, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x02, 0x01, 0x06, 0x08,
			0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07, 0x03, 0x42, 0x00, 0x04,
		},
	},
	{
		shape:  ShapeECP521,
		format: FormatDER,
		prefix: []byte{
			0x30, 0x81, 0x9b, 0x30, 0x10, 0x06, 0x07, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x02, 0x01, 0x06,
			0x05, 0x2b, 0x81, 0x04, 0x00, 0x23, 0x03, 0x81, 0x86, 0x00, 0x04,
		},
	},
	{
		shape:  ShapeRSA1024,
		format: FormatDER,
		prefix: []byte{
			0x30, 0x81, 0x9f, 0x30, 0x0d, 0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01,
			0x01, 0x05, 0x00, 0x03, 0x81, 0x8d, 0x00, 0x30, 0x81, 0x89, 0x02, 0x81, 0x81, 0x00,
		},
		suffix: rsaExponentSuffix,
	},
	{
		shape:  ShapeRSA2048,
		format: FormatDER,
		prefix: []byte{
			0x30, 0x82, 0x01, 0x22, 0x30, 0x0d, 0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01,
			0x01, 0x01, 0x05, 0x00, 0x03, 0x82, 0x01, 0x0f, 0x00, 0x30, 0x82, 0x01, 0x0a, 0x02, 0x82,
			0x01, 0x01, 0x00,
		},
		suffix: rsaExponentSuffix,
	},
	{
		// "ECS1", 32-byte coordinates
		shape:  ShapeECP256,
		format: FormatNative,
		prefix: []byte{0x45, 0x43, 0x53, 0x31, 0x20, 0x00, 0x00, 0x00},
	},
	{
		// "ECS5", 66-byte coordinates
		shape:  ShapeECP521,
		format: FormatNative,
		prefix: []byte{0x45, 0x43, 0x53, 0x35, 0x42, 0x00, 0x00, 0x00},
	},
	{
		// "RSA1", 1024 bits, 3-byte exponent 65537, 128-byte modulus
		shape:  ShapeRSA1024,
		format: FormatNative,
		prefix: []byte{
			0x52, 0x53, 0x41, 0x31, 0x00, 0x04, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x80, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01,
		},
	},
	{
		// "RSA1", 2048 bits, 3-byte exponent 65537, 256-byte modulus
		shape:  ShapeRSA2048,
		format: FormatNative,
		prefix: []byte{
			0x52, 0x53, 0x41, 0x31, 0x00, 0x08, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01,
		},
	},
}

func (e *encoding) encode(raw []byte) []byte {
	out := make([]byte, 0, len(e.prefix)+len(raw)+len(e.suffix))
	out = append(out, e.prefix...)
	out = append(out, raw...)
	return append(out, e.suffix...)
}

// decode returns the raw payload of b, which must start with e.prefix.
func (e *encoding) decode(b []byte) ([]byte, error) {
	payload := b[len(e.prefix):]
	size := e.shape.RawSize()
	if len(payload) != size+len(e.suffix) {
		return nil, fmt.Errorf("%w: %s %s key has %d payload bytes", ErrUnsupportedKeyFormat, e.shape, e.format, len(payload))
	}
	if !bytes.Equal(payload[size:], e.suffix) {
		return nil, fmt.Errorf("%w: %s %s key has unsupported public exponent", ErrUnsupportedKeyFormat, e.shape, e.format)
	}
	raw := make([]byte, size)
	copy(raw, payload)
	return raw, nil
}

func matchEncoding(b []byte) *encoding {
	for i := range encodings {
		if bytes.HasPrefix(b, encodings[i].prefix) {
			return &encodings[i]
		}
	}
	return nil
}

func lookupEncoding(shape Shape, format Format) *encoding {
	for i := range encodings {
		if encodings[i].shape == shape && encodings[i].format == format {
			return &encodings[i]
		}
	}
	return nil
}

// MatchEncoded identifies the shape and format of an encoded public key and returns its raw
// payload.
func MatchEncoded(b []byte) (Shape, Format, []byte, error) {
	e := matchEncoding(b)
	if e == nil {
		return ShapeUnknown, FormatDER, nil, ErrUnsupportedKeyFormat
	}
	raw, err := e.decode(b)
	if err != nil {
		return ShapeUnknown, FormatDER, nil, err
	}
	return e.shape, e.format, raw, nil
}

// RawKeyFromEncoded strips the encoding of a public key, returning the curve point (X || Y) of EC
// keys or the modulus of RSA keys. Both DER SubjectPublicKeyInfo and native blobs are accepted.
func RawKeyFromEncoded(b []byte) ([]byte, error) {
	_, _, raw, err := MatchEncoded(b)
	return raw, err
}

// ShapeFromRaw determines the key shape of a raw payload for the given algorithm. RSA keys are
// distinguished by modulus length.
func ShapeFromRaw(raw []byte, algorithm Algorithm) (Shape, error) {
	var shape Shape
	switch algorithm {
	case ECDsaP256:
		shape = ShapeECP256
	case ECDsaP521:
		shape = ShapeECP521
	case RSA:
		switch len(raw) {
		case ShapeRSA1024.RawSize():
			shape = ShapeRSA1024
		case ShapeRSA2048.RawSize():
			shape = ShapeRSA2048
		default:
			return ShapeUnknown, fmt.Errorf("%w: %d-byte RSA modulus", ErrUnsupportedKeyShape, len(raw))
		}
	default:
		return ShapeUnknown, fmt.Errorf("%w: algorithm %q", ErrUnsupportedKeyShape, algorithm)
	}
	if len(raw) != shape.RawSize() {
		return ShapeUnknown, fmt.Errorf("%w: %s key requires %d raw bytes, got %d", ErrUnsupportedKeyShape, shape, shape.RawSize(), len(raw))
	}
	return shape, nil
}

func encodeRaw(raw []byte, algorithm Algorithm, format Format) ([]byte, error) {
	shape, err := ShapeFromRaw(raw, algorithm)
	if err != nil {
		return nil, err
	}
	return lookupEncoding(shape, format).encode(raw), nil
}

// EncodedFromRaw wraps a raw public payload in a DER SubjectPublicKeyInfo structure.
func EncodedFromRaw(raw []byte, algorithm Algorithm) ([]byte, error) {
	return encodeRaw(raw, algorithm, FormatDER)
}

// NativeBlobFromRaw wraps a raw public payload in a native key blob.
func NativeBlobFromRaw(raw []byte, algorithm Algorithm) ([]byte, error) {
	return encodeRaw(raw, algorithm, FormatNative)
}

func convert(b []byte, format Format) ([]byte, error) {
	shape, _, raw, err := MatchEncoded(b)
	if err != nil {
		return nil, err
	}
	return lookupEncoding(shape, format).encode(raw), nil
}

// NativeBlobFromEncoded converts an encoded public key to a native key blob. Input that is already
// a native blob is returned as a copy.
func NativeBlobFromEncoded(der []byte) ([]byte, error) {
	return convert(der, FormatNative)
}

// EncodedFromNativeBlob converts a native key blob to DER. Input that is already DER is returned as
// a copy.
func EncodedFromNativeBlob(blob []byte) ([]byte, error) {
	return convert(blob, FormatDER)
}
