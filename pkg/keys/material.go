package keys

import (
	"bytes"
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"math/big"

	"github.com/cronokirby/saferith"
)

const rsaPublicExponent = 65537

var p256Order = saferith.ModulusFromBytes(elliptic.P256().Params().N.Bytes())

// KeyMaterial is an immutable key of one of the supported shapes.
type KeyMaterial interface {
	Shape() Shape
	Algorithm() Algorithm
	IsPrivate() bool
	// Raw returns a copy of the public payload: X || Y for EC keys, the modulus for RSA keys.
	Raw() []byte
	// CryptoPublicKey returns an *ecdsa.PublicKey or *rsa.PublicKey.
	CryptoPublicKey() crypto.PublicKey
}

// PrivateKey is KeyMaterial that can produce signatures.
type PrivateKey interface {
	KeyMaterial
	// CryptoPrivateKey returns an *ecdsa.PrivateKey or *rsa.PrivateKey.
	CryptoPrivateKey() crypto.Signer
	PublicKey() KeyMaterial
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func curveFor(shape Shape) (elliptic.Curve, ecdh.Curve) {
	if shape == ShapeECP521 {
		return elliptic.P521(), ecdh.P521()
	}
	return elliptic.P256(), ecdh.P256()
}

// ECPublicKey is a P256 or P521 public key.
type ECPublicKey struct {
	shape Shape
	x, y  []byte
}

// NewECPublicKey validates that (x, y) is a point on the curve of the given shape.
func NewECPublicKey(shape Shape, x, y []byte) (*ECPublicKey, error) {
	if !shape.isEC() {
		return nil, fmt.Errorf("%w: %s is not an elliptic curve shape", ErrUnsupportedKeyShape, shape)
	}
	size := shape.CoordinateSize()
	if len(x) != size || len(y) != size {
		return nil, fmt.Errorf("%w: %s coordinates must be %d bytes", ErrUnsupportedKeyShape, shape, size)
	}
	_, curve := curveFor(shape)
	uncompressed := append(append([]byte{0x04}, x...), y...)
	if _, err := curve.NewPublicKey(uncompressed); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPublicKey, err)
	}
	return &ECPublicKey{shape: shape, x: clone(x), y: clone(y)}, nil
}

func (k *ECPublicKey) Shape() Shape         { return k.shape }
func (k *ECPublicKey) Algorithm() Algorithm { return k.shape.Algorithm() }
func (k *ECPublicKey) IsPrivate() bool      { return false }
func (k *ECPublicKey) X() []byte            { return clone(k.x) }
func (k *ECPublicKey) Y() []byte            { return clone(k.y) }

func (k *ECPublicKey) Raw() []byte {
	return append(clone(k.x), k.y...)
}

func (k *ECPublicKey) CryptoPublicKey() crypto.PublicKey {
	curve, _ := curveFor(k.shape)
	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(k.x),
		Y:     new(big.Int).SetBytes(k.y),
	}
}

// ECPrivateKey is a P256 private key. P521 private keys are not supported.
type ECPrivateKey struct {
	ECPublicKey
	d []byte
}

// validScalar reports whether 0 < d < N for the P256 group order N, in constant time.
func validScalar(d []byte) bool {
	var scalar saferith.Nat
	scalar.SetBytes(d)
	_, _, lt := scalar.CmpMod(p256Order)
	return lt == 1 && scalar.EqZero() == 0
}

// NewECPrivateKey constructs a P256 private key from its scalar and public point. The point must
// match the scalar.
func NewECPrivateKey(d, x, y []byte) (*ECPrivateKey, error) {
	if len(d) != scalarSize {
		return nil, fmt.Errorf("%w: P256 private scalar must be %d bytes", ErrUnsupportedKeyShape, scalarSize)
	}
	if !validScalar(d) {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidPrivateKey)
	}
	public, err := NewECPublicKey(ShapeECP256, x, y)
	if err != nil {
		return nil, err
	}
	derived, err := ecdh.P256().NewPrivateKey(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrivateKey, err)
	}
	if !bytes.Equal(derived.PublicKey().Bytes()[1:], public.Raw()) {
		return nil, fmt.Errorf("%w: public key does not match private scalar", ErrInvalidPrivateKey)
	}
	return &ECPrivateKey{ECPublicKey: *public, d: clone(d)}, nil
}

func newECPrivateKeyFromCrypto(skey *ecdsa.PrivateKey) (*ECPrivateKey, error) {
	if skey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: only NIST-P256 private keys supported", ErrUnsupportedKeyShape)
	}
	d := make([]byte, scalarSize)
	x := make([]byte, scalarSize)
	y := make([]byte, scalarSize)
	if skey.D.BitLen() > 8*scalarSize {
		return nil, ErrInvalidPrivateKey
	}
	skey.D.FillBytes(d)
	skey.X.FillBytes(x)
	skey.Y.FillBytes(y)
	return NewECPrivateKey(d, x, y)
}

// GenerateECPrivateKey creates a new P256 private key.
func GenerateECPrivateKey() (*ECPrivateKey, error) {
	skey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return newECPrivateKeyFromCrypto(skey)
}

func (k *ECPrivateKey) IsPrivate() bool { return true }
func (k *ECPrivateKey) D() []byte       { return clone(k.d) }

func (k *ECPrivateKey) PublicKey() KeyMaterial {
	public := k.ECPublicKey
	return &public
}

func (k *ECPrivateKey) CryptoPrivateKey() crypto.Signer {
	return &ecdsa.PrivateKey{
		PublicKey: *k.CryptoPublicKey().(*ecdsa.PublicKey),
		D:         new(big.Int).SetBytes(k.d),
	}
}

// DER returns the 165-byte PKCS#8 encoding of k.
func (k *ECPrivateKey) DER() []byte {
	return joinDERPrivateKey(k.d, k.Raw())
}

// NativeBlob returns the 104-byte native private key blob of k.
func (k *ECPrivateKey) NativeBlob() []byte {
	return joinNativePrivateBlob(k.d, k.Raw())
}

// RSAPublicKey is an RSA-1024 or RSA-2048 public key.
type RSAPublicKey struct {
	shape Shape
	n     []byte
	e     int
}

// NewRSAPublicKey constructs an RSA public key from a 128- or 256-byte big-endian modulus.
func NewRSAPublicKey(n []byte, e int) (*RSAPublicKey, error) {
	shape, err := ShapeFromRaw(n, RSA)
	if err != nil {
		return nil, err
	}
	if n[0]&0x80 == 0 {
		return nil, fmt.Errorf("%w: modulus is shorter than %d bits", ErrInvalidPublicKey, 8*len(n))
	}
	if e < 3 || e%2 == 0 {
		return nil, fmt.Errorf("%w: invalid public exponent %d", ErrInvalidPublicKey, e)
	}
	return &RSAPublicKey{shape: shape, n: clone(n), e: e}, nil
}

func (k *RSAPublicKey) Shape() Shape         { return k.shape }
func (k *RSAPublicKey) Algorithm() Algorithm { return RSA }
func (k *RSAPublicKey) IsPrivate() bool      { return false }
func (k *RSAPublicKey) Raw() []byte          { return clone(k.n) }
func (k *RSAPublicKey) N() []byte            { return clone(k.n) }
func (k *RSAPublicKey) E() int               { return k.e }

func (k *RSAPublicKey) CryptoPublicKey() crypto.PublicKey {
	return &rsa.PublicKey{N: new(big.Int).SetBytes(k.n), E: k.e}
}

// RSAPrivateKey is an RSA-1024 or RSA-2048 private key.
type RSAPrivateKey struct {
	RSAPublicKey
	key *rsa.PrivateKey
}

func newRSAPrivateKey(skey *rsa.PrivateKey) (*RSAPrivateKey, error) {
	if err := skey.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrivateKey, err)
	}
	n := make([]byte, (skey.N.BitLen()+7)/8)
	skey.N.FillBytes(n)
	public, err := NewRSAPublicKey(n, skey.E)
	if err != nil {
		return nil, err
	}
	skey.Precompute()
	return &RSAPrivateKey{RSAPublicKey: *public, key: skey}, nil
}

func (k *RSAPrivateKey) IsPrivate() bool { return true }

func (k *RSAPrivateKey) PublicKey() KeyMaterial {
	public := k.RSAPublicKey
	return &public
}

func (k *RSAPrivateKey) CryptoPrivateKey() crypto.Signer {
	return k.key
}

// ParsePublicKey decodes a DER SubjectPublicKeyInfo or native blob public key of any supported
// shape.
func ParsePublicKey(encoded []byte) (KeyMaterial, error) {
	shape, _, raw, err := MatchEncoded(encoded)
	if err != nil {
		return nil, err
	}
	if shape.isEC() {
		size := shape.CoordinateSize()
		return NewECPublicKey(shape, raw[:size], raw[size:])
	}
	return NewRSAPublicKey(raw, rsaPublicExponent)
}

// ParsePrivateKey decodes a private key into its canonical representation. Accepted inputs are the
// 165-byte P256 PKCS#8 layout, the P256 native private blob, and any PKCS#8, SEC1 or PKCS#1
// encoding of a P256 or RSA-1024/2048 key.
func ParsePrivateKey(b []byte) (PrivateKey, error) {
	if IsNativePrivateBlob(b) {
		d, point, _ := splitNativePrivateBlob(b)
		return NewECPrivateKey(d, point[:scalarSize], point[scalarSize:])
	}
	if IsDERPrivateKey(b) {
		if d, point, err := splitDERPrivateKey(b); err == nil {
			return NewECPrivateKey(d, point[:scalarSize], point[scalarSize:])
		}
		// Other 165-byte structures fall through to the generic parsers.
	}

	var skey interface{}
	var err error
	if skey, err = x509.ParsePKCS8PrivateKey(b); err != nil {
		if skey, err = x509.ParseECPrivateKey(b); err != nil {
			if skey, err = x509.ParsePKCS1PrivateKey(b); err != nil {
				return nil, fmt.Errorf("%w: unrecognized private key encoding", ErrUnsupportedKeyFormat)
			}
		}
	}

	switch key := skey.(type) {
	case *ecdsa.PrivateKey:
		return newECPrivateKeyFromCrypto(key)
	case *rsa.PrivateKey:
		return newRSAPrivateKey(key)
	}
	return nil, fmt.Errorf("%w: only P256 and RSA private keys supported", ErrUnsupportedKeyShape)
}
