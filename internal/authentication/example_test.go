package authentication_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/target365/sdk-go/internal/authentication"
	"github.com/target365/sdk-go/pkg/keys"
)

type lookupFunc func(ctx context.Context, keyName string) (*authentication.PublicKeyRecord, error)

func (f lookupFunc) FetchPublicKey(ctx context.Context, keyName string) (*authentication.PublicKeyRecord, error) {
	return f(ctx, keyName)
}

func Example() {
	/***** One-time setup ********************************************************/
	// Executed by the API server: generate a key pair and publish the public key.
	serverKey, err := keys.GenerateECPrivateKey()
	if err != nil {
		panic(fmt.Sprintf("Failed to generate server key: %s", err))
	}
	der, err := keys.EncodePublicKey(serverKey.PublicKey())
	if err != nil {
		panic(fmt.Sprintf("Failed to encode server key: %s", err))
	}
	published := &authentication.PublicKeyRecord{
		Name:            "server-key",
		PublicKeyString: base64.StdEncoding.EncodeToString(der),
		SignAlgo:        string(keys.ECDsaP256),
	}

	// Executed by the receiver of callbacks: look up published keys by name.
	verifier := authentication.NewVerifier(lookupFunc(func(ctx context.Context, keyName string) (*authentication.PublicKeyRecord, error) {
		if keyName == published.Name {
			return published, nil
		}
		return nil, nil
	}), nil)

	/***** Once per request *****************************************************/
	signer, err := authentication.NewSigner("server-key", serverKey)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize signer: %s", err))
	}
	uri := "https://hooks.example.com/callbacks/delivery-reports"
	body := []byte(`{"transactionId":"abc","statusCode":"Ok"}`)
	header, err := signer.Sign("POST", uri, body)
	if err != nil {
		panic(fmt.Sprintf("Failed to sign request: %s", err))
	}
	fmt.Println(strings.SplitN(header, ":", 2)[0])

	if err := verifier.Verify(context.Background(), "POST", uri, body, header); err != nil {
		panic(fmt.Sprintf("Failed to verify: %s", err))
	}
	fmt.Println("verified")

	// Any change to the request invalidates the signature:
	err = verifier.Verify(context.Background(), "POST", uri, []byte(`{"transactionId":"abd"}`), header)
	fmt.Println(errors.Is(err, authentication.ErrSignatureMismatch))
	// Output:
	// server-key
	// verified
	// true
}
