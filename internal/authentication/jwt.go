package authentication

// Signature primitives. The jwt signing methods hash the signing string with SHA-256 and encode
// ECDSA signatures as fixed-width r || s, which is the encoding the API server produces and expects.

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/target365/sdk-go/pkg/keys"
)

// ContentHash returns the base64-encoded SHA-256 digest of body, or the empty string if body is
// empty.
func ContentHash(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	digest := sha256.Sum256(body)
	return base64.StdEncoding.EncodeToString(digest[:])
}

// CanonicalMessage returns the string covered by a request signature.
func CanonicalMessage(method, uri string, timestamp int64, nonce, contentHash string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	b.WriteString(strings.ToLower(uri))
	b.WriteString(strconv.FormatInt(timestamp, 10))
	b.WriteString(nonce)
	b.WriteString(contentHash)
	return b.String()
}

func signingMethod(shape keys.Shape) (jwt.SigningMethod, error) {
	switch shape {
	case keys.ShapeECP256:
		return jwt.SigningMethodES256, nil
	case keys.ShapeRSA1024, keys.ShapeRSA2048:
		return jwt.SigningMethodRS256, nil
	}
	return nil, fmt.Errorf("%w: cannot sign with %s keys", keys.ErrUnsupportedKeyShape, shape)
}

func verifyES256(message string, signature []byte, key keys.KeyMaterial) error {
	if err := jwt.SigningMethodES256.Verify(message, signature, key.CryptoPublicKey()); err != nil {
		return newError(errCodeSignatureMismatch, err.Error())
	}
	return nil
}
