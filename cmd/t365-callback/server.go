package main

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/target365/sdk-go/internal/log"
	"github.com/target365/sdk-go/pkg/callback"
	"github.com/target365/sdk-go/pkg/client"
)

func logDeliveryReport(ctx context.Context, report *client.DeliveryReport) error {
	log.Info("Delivery report for %s to %s: %s %s", report.TransactionID, report.Recipient, report.StatusCode, report.DetailedStatusCode)
	return nil
}

func logInMessage(ctx context.Context, message *client.InMessage) error {
	if message.IsStopMessage {
		log.Warning("Stop message from %s", message.Sender)
	}
	log.Info("In-message %s from %s to %s: %q", message.TransactionID, message.Sender, message.Recipient, message.Content)
	return nil
}

// newServer returns an echo server that logs verified callbacks received under prefix.
func newServer(v callback.SignatureVerifier, prefix string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug("%s %s: %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))

	h := &callback.Handler{
		OnDeliveryReport: logDeliveryReport,
		OnInMessage:      logInMessage,
	}
	h.Register(e.Group(strings.TrimRight(prefix, "/")), v)
	return e
}
