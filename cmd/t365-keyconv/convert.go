package main

import (
	"fmt"

	"github.com/target365/sdk-go/pkg/keys"
)

// convert translates an encoded key between the DER and native blob forms. It returns the
// converted key and a description of its form.
func convert(b []byte) ([]byte, string, error) {
	switch {
	case keys.IsDERPrivateKey(b):
		out, err := keys.NativePrivateBlobFromDER(b)
		return out, "native private key blob", err
	case keys.IsNativePrivateBlob(b):
		out, err := keys.DERFromNativePrivateBlob(b)
		return out, "PKCS#8 private key", err
	}
	shape, format, _, err := keys.MatchEncoded(b)
	if err != nil {
		return nil, "", err
	}
	if format == keys.FormatDER {
		out, err := keys.NativeBlobFromEncoded(b)
		return out, fmt.Sprintf("native %s public key blob", shape), err
	}
	out, err := keys.EncodedFromNativeBlob(b)
	return out, fmt.Sprintf("%s SubjectPublicKeyInfo", shape), err
}
