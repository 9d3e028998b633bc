package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/target365/sdk-go/internal/authentication"
)

// SignatureHeader is the header carrying the signature of callback requests.
const SignatureHeader = authentication.SignatureHeader

// IsAuthenticationError returns true if err indicates a callback signature was rejected, as opposed
// to a failure fetching the server's public key.
func IsAuthenticationError(err error) bool {
	return authentication.IsAuthenticationError(err)
}

// RequestURI reconstructs the absolute URI of a server-side request. The scheme is taken from the
// X-Forwarded-Proto header when present.
func RequestURI(r *http.Request) string {
	if r.URL.IsAbs() {
		return r.URL.String()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// ReadBody reads the body of r and replaces it with an in-memory copy, so that it can be read
// again by later handlers.
func ReadBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxResponseLength))
	r.Body.Close()
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// VerifySignature checks the signature header of a callback request with the given method,
// absolute uri and body.
func (c *Client) VerifySignature(ctx context.Context, method, uri string, content []byte, signature string) error {
	return c.verifier.Verify(ctx, method, uri, content, signature)
}

// VerifyRequest checks the signature of a callback request received by an HTTP server. The request
// body remains readable afterwards.
func (c *Client) VerifyRequest(ctx context.Context, r *http.Request) error {
	body, err := ReadBody(r)
	if err != nil {
		return err
	}
	return c.VerifySignature(ctx, r.Method, RequestURI(r), body, r.Header.Get(SignatureHeader))
}
