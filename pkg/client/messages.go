package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

func validID(name, id string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

// CreateOutMessage queues message for sending and returns its transaction ID.
func (c *Client) CreateOutMessage(ctx context.Context, message *OutMessage) (string, error) {
	if message == nil {
		return "", errors.New("message cannot be nil")
	}
	rsp, err := c.send(ctx, http.MethodPost, "api/out-messages", message, true)
	if err != nil {
		return "", err
	}
	if err := rsp.expect(http.StatusCreated, http.StatusOK); err != nil {
		return "", err
	}
	location := rsp.header.Get("Location")
	if location == "" {
		return "", errors.New("server did not return the location of the created message")
	}
	return lastSegment(location), nil
}

// CreateOutMessageBatch queues several messages in one request.
func (c *Client) CreateOutMessageBatch(ctx context.Context, messages []*OutMessage) error {
	if len(messages) == 0 {
		return errors.New("messages cannot be empty")
	}
	rsp, err := c.send(ctx, http.MethodPost, "api/out-messages/batch", messages, true)
	if err != nil {
		return err
	}
	return rsp.expect(http.StatusCreated, http.StatusOK)
}

// GetOutMessage returns the out-message with the given transaction ID, or nil if it does not exist.
func (c *Client) GetOutMessage(ctx context.Context, transactionID string) (*OutMessage, error) {
	if err := validID("transactionID", transactionID); err != nil {
		return nil, err
	}
	rsp, err := c.send(ctx, http.MethodGet, "api/out-messages/"+url.PathEscape(transactionID), nil, true)
	if err != nil {
		return nil, err
	}
	if rsp.status == http.StatusNotFound {
		return nil, nil
	}
	if err := rsp.expect(http.StatusOK); err != nil {
		return nil, err
	}
	var message OutMessage
	if err := rsp.decode(&message); err != nil {
		return nil, err
	}
	return &message, nil
}

// UpdateOutMessage replaces a scheduled out-message. The TransactionID must be set.
func (c *Client) UpdateOutMessage(ctx context.Context, message *OutMessage) error {
	if message == nil {
		return errors.New("message cannot be nil")
	}
	if err := validID("transactionID", message.TransactionID); err != nil {
		return err
	}
	rsp, err := c.send(ctx, http.MethodPut, "api/out-messages/"+url.PathEscape(message.TransactionID), message, true)
	if err != nil {
		return err
	}
	return rsp.expect(http.StatusNoContent, http.StatusOK)
}

// DeleteOutMessage cancels a scheduled out-message.
func (c *Client) DeleteOutMessage(ctx context.Context, transactionID string) error {
	if err := validID("transactionID", transactionID); err != nil {
		return err
	}
	rsp, err := c.send(ctx, http.MethodDelete, "api/out-messages/"+url.PathEscape(transactionID), nil, true)
	if err != nil {
		return err
	}
	return rsp.expect(http.StatusNoContent, http.StatusOK)
}

// GetInMessage returns an in-message received by shortNumberID, or nil if it does not exist.
func (c *Client) GetInMessage(ctx context.Context, shortNumberID, transactionID string) (*InMessage, error) {
	if err := validID("shortNumberID", shortNumberID); err != nil {
		return nil, err
	}
	if err := validID("transactionID", transactionID); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("api/in-messages/%s/%s", url.PathEscape(shortNumberID), url.PathEscape(transactionID))
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
	var message InMessage
	if err := rsp.decode(&message); err != nil {
		return nil, err
	}
	return &message, nil
}
