package authentication

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/target365/sdk-go/pkg/keys"
)

var testTime = time.Unix(1700000000, 0)

func fixedClock() time.Time { return testTime }

func fixedNonce() string { return "6fa459ea-ee8a-3ca4-894e-db77e160355e" }

func newTestSigner(t *testing.T) (*Signer, *keys.ECPrivateKey) {
	t.Helper()
	key, err := keys.GenerateECPrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	signer, err := NewSigner("client-key", key, WithClock(fixedClock), WithNonceSource(fixedNonce))
	if err != nil {
		t.Fatal(err)
	}
	return signer, key
}

func TestCanonicalMessage(t *testing.T) {
	body := []byte(`{"sender":"Target365"}`)
	digest := sha256.Sum256(body)
	hash := base64.StdEncoding.EncodeToString(digest[:])
	if ContentHash(body) != hash {
		t.Fatalf("Unexpected content hash %s", ContentHash(body))
	}
	if ContentHash(nil) != "" || ContentHash([]byte{}) != "" {
		t.Error("Expected empty content hash for empty body")
	}

	message := CanonicalMessage("POST", "https://Test.Target365.io/api/Out-Messages", 1700000000, "abc", hash)
	expected := "posthttps://test.target365.io/api/out-messages1700000000abc" + hash
	if message != expected {
		t.Errorf("Got canonical message %q, expected %q", message, expected)
	}
}

func TestSignHeaderFormat(t *testing.T) {
	signer, key := newTestSigner(t)
	value, err := signer.Sign("GET", "https://test.target365.io/api/ping", nil)
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(value, ":")
	if len(parts) != 4 {
		t.Fatalf("Header %q does not have 4 fields", value)
	}
	if parts[0] != "client-key" || parts[1] != "1700000000" || parts[2] != fixedNonce() {
		t.Errorf("Unexpected header fields %q", parts[:3])
	}
	signature, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		t.Fatal(err)
	}
	if len(signature) != 64 {
		t.Fatalf("Expected 64-byte r || s signature, got %d bytes", len(signature))
	}

	digest := sha256.Sum256([]byte(CanonicalMessage("get", "https://test.target365.io/api/ping", 1700000000, fixedNonce(), "")))
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	if !ecdsa.Verify(key.CryptoPublicKey().(*ecdsa.PublicKey), digest[:], r, s) {
		t.Error("Signature does not verify with crypto/ecdsa")
	}

	header, err := signer.AuthorizationHeader("GET", "https://test.target365.io/api/ping", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(header, "HMAC client-key:1700000000:") {
		t.Errorf("Unexpected authorization header %q", header)
	}
}

func TestSignDefaultNonceIsUnique(t *testing.T) {
	key, err := keys.GenerateECPrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	signer, err := NewSigner("client-key", key)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		value, err := signer.Sign("GET", "https://test.target365.io/api/ping", nil)
		if err != nil {
			t.Fatal(err)
		}
		nonce := strings.Split(value, ":")[2]
		if seen[nonce] {
			t.Fatalf("Nonce %s reused", nonce)
		}
		seen[nonce] = true
	}
}

func TestSignRSA(t *testing.T) {
	skey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	key, err := keys.ParsePrivateKey(x509.MarshalPKCS1PrivateKey(skey))
	if err != nil {
		t.Fatal(err)
	}
	signer, err := NewSigner("rsa-key", key, WithClock(fixedClock), WithNonceSource(fixedNonce))
	if err != nil {
		t.Fatal(err)
	}
	body := []byte("hello")
	value, err := signer.Sign("PUT", "https://test.target365.io/api/x", body)
	if err != nil {
		t.Fatal(err)
	}
	signature, err := base64.StdEncoding.DecodeString(strings.Split(value, ":")[3])
	if err != nil {
		t.Fatal(err)
	}
	message := CanonicalMessage("put", "https://test.target365.io/api/x", 1700000000, fixedNonce(), ContentHash(body))
	digest := sha256.Sum256([]byte(message))
	if err := rsa.VerifyPKCS1v15(&skey.PublicKey, crypto.SHA256, digest[:], signature); err != nil {
		t.Errorf("RSA signature does not verify: %s", err)
	}
}

func TestNewSignerRejectsInvalidInput(t *testing.T) {
	key, err := keys.GenerateECPrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"", "a:b"} {
		if _, err := NewSigner(name, key); err == nil {
			t.Errorf("Expected key name %q to be rejected", name)
		}
	}
	if _, err := NewSigner("key", nil); err == nil {
		t.Error("Expected nil key to be rejected")
	}
}
