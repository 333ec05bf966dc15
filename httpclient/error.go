package httpclient

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is returned when a config lacks the app key, app
// secret or access token.
var ErrMissingCredentials = errors.New("httpclient: missing app key, app secret or access token")

// ErrorKind classifies failures of the HTTP transport.
type ErrorKind int

const (
	KindInvalidConfig ErrorKind = iota + 1
	KindInvalidRequest
	KindNetwork
	KindBadStatus
	KindDecodeResponse
	KindOpenAPI
)

// Error is a failure reported by the HTTP client. KindOpenAPI errors carry
// the server-assigned code, message and trace id.
type Error struct {
	Kind    ErrorKind
	Status  int
	Code    int64
	Message string
	TraceID string
	Cause   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindOpenAPI:
		return fmt.Sprintf("openapi error: code=%d: %s", e.Code, e.Message)
	case KindBadStatus:
		return fmt.Sprintf("bad status: %d", e.Status)
	case KindInvalidConfig:
		return fmt.Sprintf("invalid config: %v", e.Cause)
	case KindInvalidRequest:
		return fmt.Sprintf("invalid request: %v", e.Cause)
	case KindDecodeResponse:
		return fmt.Sprintf("decode response: %v", e.Cause)
	default:
		return fmt.Sprintf("network error: %v", e.Cause)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ResponseDetail exposes the server detail of an OpenAPI error.
func (e *Error) ResponseDetail() (int64, string, string, bool) {
	if e.Kind != KindOpenAPI {
		return 0, "", "", false
	}
	return e.Code, e.Message, e.TraceID, true
}
