// Package callback receives delivery reports and in-messages posted by Target365 and rejects
// requests that are not signed by a Target365 server key.
//
// Handlers are registered on an [echo.Echo] router:
//
//	e := echo.New()
//	h := &callback.Handler{OnDeliveryReport: store}
//	h.Register(e.Group("/callbacks"), apiClient)
package callback

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/target365/sdk-go/internal/log"
	"github.com/target365/sdk-go/pkg/client"
)

// SignatureVerifier checks the signature header of an inbound request. *client.Client implements
// SignatureVerifier.
type SignatureVerifier interface {
	VerifySignature(ctx context.Context, method, uri string, content []byte, signature string) error
}

// Middleware rejects requests without a valid X-ECDSA-Signature header. Rejected signatures result
// in 401 Unauthorized; failures to obtain the server's public key result in 502 Bad Gateway. The
// request body remains readable by the next handler.
func Middleware(v SignatureVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			body, err := client.ReadBody(r)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unable to read request body")
			}
			uri := client.RequestURI(r)
			err = v.VerifySignature(r.Context(), r.Method, uri, body, r.Header.Get(client.SignatureHeader))
			if err == nil {
				return next(c)
			}
			if client.IsAuthenticationError(err) {
				log.Warning("Rejected callback %s %s: %s", r.Method, uri, err)
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			log.Error("Unable to verify callback %s %s: %s", r.Method, uri, err)
			return echo.NewHTTPError(http.StatusBadGateway, "unable to verify signature")
		}
	}
}

// Router is the subset of *echo.Echo and *echo.Group used by Register.
type Router interface {
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// Handler dispatches verified callbacks. A nil callback leaves its route unregistered.
type Handler struct {
	OnDeliveryReport func(ctx context.Context, report *client.DeliveryReport) error
	OnInMessage      func(ctx context.Context, message *client.InMessage) error
}

// Register adds POST /delivery-reports and POST /in-messages to r, guarded by Middleware(v).
func (h *Handler) Register(r Router, v SignatureVerifier) {
	verify := Middleware(v)
	if h.OnDeliveryReport != nil {
		r.POST("/delivery-reports", func(c echo.Context) error {
			var report client.DeliveryReport
			if err := decode(c, &report); err != nil {
				return err
			}
			return dispatch(c, h.OnDeliveryReport(c.Request().Context(), &report))
		}, verify)
	}
	if h.OnInMessage != nil {
		r.POST("/in-messages", func(c echo.Context) error {
			var message client.InMessage
			if err := decode(c, &message); err != nil {
				return err
			}
			return dispatch(c, h.OnInMessage(c.Request().Context(), &message))
		}, verify)
	}
}

// decode reads a JSON body regardless of Content-Type; callbacks do not always set it.
func decode(c echo.Context, v interface{}) error {
	if err := json.NewDecoder(c.Request().Body).Decode(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	return nil
}

func dispatch(c echo.Context, err error) error {
	if err != nil {
		log.Error("Callback handler failed: %s", err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusOK)
}
