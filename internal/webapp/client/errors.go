package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/docbridge/backend/internal/pkg/errors"
)

// ErrCoreUnavailable marks a transport-level failure: the core API could not
// be reached or did not answer in time. It says nothing about the file's
// actual state.
var ErrCoreUnavailable = errors.New("core api unavailable")

type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if msg == "" {
		msg = "http error"
	}
	if strings.TrimSpace(e.Code) != "" {
		return fmt.Sprintf("core api: status=%d code=%s message=%s", e.StatusCode, strings.TrimSpace(e.Code), msg)
	}
	return fmt.Sprintf("core api: status=%d message=%s", e.StatusCode, msg)
}

// Unwrap lets a 404 satisfy errors.Is(err, pkgerrors.ErrNotFound): an
// authoritative miss is a fact about the file, not a transport problem.
func (e *HTTPError) Unwrap() error {
	if e != nil && e.StatusCode == http.StatusNotFound {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func statusError(status int, raw []byte) error {
	body := strings.TrimSpace(string(raw))

	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code,omitempty"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && strings.TrimSpace(env.Error.Message) != "" {
		return &HTTPError{
			StatusCode: status,
			Message:    strings.TrimSpace(env.Error.Message),
			Code:       strings.TrimSpace(env.Error.Code),
			Body:       body,
		}
	}
	return &HTTPError{StatusCode: status, Body: body}
}
