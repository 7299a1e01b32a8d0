package monclient

import (
	"fmt"
	"net/http"

	"github.com/go-faster/jx"
)

// Error is a monitoring backend API error.
type Error struct {
	// HTTPCode is the HTTP status code of the response.
	HTTPCode int
	// Status is the backend status identifier, e.g. "INVALID_ARGUMENT".
	Status string
	// Message is a human-readable cause.
	Message string
}

// Error implements error.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %s (http %d)", e.Status, e.HTTPCode)
	}
	return fmt.Sprintf("backend: %s (http %d): %s", e.Status, e.HTTPCode, e.Message)
}

// Temporary reports whether the call may succeed if repeated.
func (e *Error) Temporary() bool {
	switch e.HTTPCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// parseError decodes an error response body.
//
// The backend wraps failures as {"error": {"code": ..., "status": ..., "message": ...}}.
// A body that does not parse still yields an Error carrying the HTTP code.
func parseError(httpCode int, body []byte) *Error {
	apiErr := &Error{
		HTTPCode: httpCode,
		Status:   http.StatusText(httpCode),
	}
	d := jx.DecodeBytes(body)
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		if key != "error" {
			return d.Skip()
		}
		return d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "status":
				v, err := d.Str()
				if err != nil {
					return err
				}
				apiErr.Status = v
				return nil
			case "message":
				v, err := d.Str()
				if err != nil {
					return err
				}
				apiErr.Message = v
				return nil
			default:
				return d.Skip()
			}
		})
	})
	return apiErr
}
