// Package rest implements the gateway subsystems over the hosted service's
// HTTP APIs: the auth endpoints under /auth/v1 and the table API under
// /rest/v1.
package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config carries the two required endpoint values plus optional tuning.
type Config struct {
	BaseURL    string
	AnonKey    string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

func (c Config) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// APIError is a non-2xx response from the hosted service, message preserved
// verbatim so callers can interpret it themselves.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("gateway request failed with status %d", e.Status)
}

// decodeError pulls the human message out of the service's varied error
// bodies ({"error_description"}, {"msg"}, {"message"}, {"error"}).
func decodeError(status int, body io.Reader) *APIError {
	var payload struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Err              string `json:"error"`
	}
	_ = json.NewDecoder(body).Decode(&payload)
	msg := payload.ErrorDescription
	if msg == "" {
		msg = payload.Msg
	}
	if msg == "" {
		msg = payload.Message
	}
	if msg == "" {
		msg = payload.Err
	}
	return &APIError{Status: status, Message: strings.TrimSpace(msg)}
}
