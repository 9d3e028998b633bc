package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/target365/sdk-go/internal/authentication"
)

func (c *Client) getPublicKey(ctx context.Context, endpoint string) (*PublicKey, error) {
	rsp, err := c.send(ctx, http.MethodGet, endpoint, nil, true)
	if err != nil {
		return nil, err
	}
	if rsp.status == http.StatusNotFound {
		return nil, nil
	}
	if err := rsp.expect(http.StatusOK); err != nil {
		return nil, err
	}
	var key PublicKey
	if err := rsp.decode(&key); err != nil {
		return nil, err
	}
	return &key, nil
}

// GetServerPublicKey returns the server public key with the given name, or nil if it does not
// exist. Server keys sign callbacks sent to the client.
func (c *Client) GetServerPublicKey(ctx context.Context, keyName string) (*PublicKey, error) {
	if err := validID("keyName", keyName); err != nil {
		return nil, err
	}
	return c.getPublicKey(ctx, "api/server/public-keys/"+url.PathEscape(keyName))
}

// FetchPublicKey implements authentication.KeyLookup.
func (c *Client) FetchPublicKey(ctx context.Context, keyName string) (*authentication.PublicKeyRecord, error) {
	return c.GetServerPublicKey(ctx, keyName)
}

// GetClientPublicKeys returns the public keys registered for the client's account.
func (c *Client) GetClientPublicKeys(ctx context.Context) ([]*PublicKey, error) {
	rsp, err := c.send(ctx, http.MethodGet, "api/client/public-keys", nil, true)
	if err != nil {
		return nil, err
	}
	if rsp.status == http.StatusNotFound {
		return nil, nil
	}
	if err := rsp.expect(http.StatusOK); err != nil {
		return nil, err
	}
	var keys []*PublicKey
	if err := rsp.decode(&keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// GetClientPublicKey returns the client public key with the given name, or nil if it does not
// exist.
func (c *Client) GetClientPublicKey(ctx context.Context, keyName string) (*PublicKey, error) {
	if err := validID("keyName", keyName); err != nil {
		return nil, err
	}
	return c.getPublicKey(ctx, "api/client/public-keys/"+url.PathEscape(keyName))
}
