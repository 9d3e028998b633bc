package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/target365/sdk-go/internal/log"
)

// MaxResponseLength caps the byte-length of response bodies.
const MaxResponseLength = 1 << 20

var tracer = otel.Tracer("github.com/target365/sdk-go/pkg/client")

// HttpError is returned when the API responds with an unexpected status code.
type HttpError struct {
	Code    int
	Message string
}

func (e *HttpError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return fmt.Sprintf("%s: %s", http.StatusText(e.Code), e.Message)
}

// Temporary returns true if the request may succeed if retried later.
func (e *HttpError) Temporary() bool {
	return e.Code == http.StatusServiceUnavailable ||
		e.Code == http.StatusGatewayTimeout ||
		e.Code == http.StatusRequestTimeout ||
		e.Code == http.StatusTooManyRequests
}

// IsNotFound returns true if err is an HttpError with status 404.
func IsNotFound(err error) bool {
	var httpErr *HttpError
	return errors.As(err, &httpErr) && httpErr.Code == http.StatusNotFound
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// expect returns an HttpError unless the response status is one of statuses.
func (r *response) expect(statuses ...int) error {
	for _, code := range statuses {
		if r.status == code {
			return nil
		}
	}
	// Error bodies look like {"message": "..."}. Fall back to the status text otherwise.
	var holder struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.body, &holder); err != nil {
		holder.Message = ""
	}
	return &HttpError{Code: r.status, Message: holder.Message}
}

func (r *response) decode(v interface{}) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) endpointURL(endpoint string) (*url.URL, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	return c.baseURL.ResolveReference(ref), nil
}

// send issues a request to endpoint, which is relative to the base URL. A non-nil payload is sent
// as JSON. The request is signed unless sign is false.
func (c *Client) send(ctx context.Context, method, endpoint string, payload interface{}, sign bool) (*response, error) {
	target, err := c.endpointURL(endpoint)
	if err != nil {
		return nil, fmt.Errorf("error constructing request to %s: %w", endpoint, err)
	}

	ctx, span := tracer.Start(ctx, method+" "+target.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", target.String()),
		))
	defer span.End()

	rsp, err := c.roundTrip(ctx, method, target, payload, sign)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", rsp.status))
	if rsp.status >= 400 {
		span.SetStatus(codes.Error, http.StatusText(rsp.status))
	}
	return rsp, nil
}

func (c *Client) roundTrip(ctx context.Context, method string, target *url.URL, payload interface{}, sign bool) (*response, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, err
		}
	}

	uri := target.String()
	log.Debug("Sending %s request to %s: %s", method, uri, body)
	request, err := http.NewRequestWithContext(ctx, method, uri, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error constructing request to %s: %w", uri, err)
	}
	request.Header.Set("User-Agent", c.UserAgent)
	request.Header.Set("Accept", "application/json")
	if payload != nil {
		request.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if sign {
		authHeader, err := c.signer.AuthorizationHeader(method, uri, body)
		if err != nil {
			return nil, fmt.Errorf("error signing request to %s: %w", uri, err)
		}
		request.Header.Set("Authorization", authHeader)
	}

	result, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("error sending %s request to %s: %w", method, uri, err)
	}
	defer result.Body.Close()

	reader := io.LimitedReader{R: result.Body, N: MaxResponseLength + 1}
	rspBody, err := io.ReadAll(&reader)
	if err != nil {
		return nil, err
	}
	if len(rspBody) > MaxResponseLength {
		return nil, fmt.Errorf("response from %s exceeds maximum length", uri)
	}
	log.Debug("Server returned %d: %s: %s", result.StatusCode, http.StatusText(result.StatusCode), rspBody)
	return &response{status: result.StatusCode, header: result.Header, body: rspBody}, nil
}

// lastSegment returns the final path element of a Location header.
func lastSegment(location string) string {
	location = strings.TrimRight(location, "/")
	if i := strings.LastIndex(location, "/"); i >= 0 {
		location = location[i+1:]
	}
	if unescaped, err := url.PathUnescape(location); err == nil {
		return unescaped
	}
	return location
}
