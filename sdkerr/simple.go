package sdkerr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SimpleKind distinguishes the two shapes of a SimpleError.
type SimpleKind int

const (
	SimpleOther SimpleKind = iota
	SimpleResponse
)

// SimpleError is the flattened error that crosses the foreign boundary.
// Response errors carry the server code and trace id; every other failure
// is an Other error carrying only a rendered message.
type SimpleError struct {
	Kind    SimpleKind
	Code    int64
	Message string
	TraceID string
}

func Response(code int64, message, traceID string) *SimpleError {
	return &SimpleError{Kind: SimpleResponse, Code: code, Message: message, TraceID: traceID}
}

func Other(message string) *SimpleError {
	return &SimpleError{Kind: SimpleOther, Message: message}
}

func (e *SimpleError) Error() string {
	if e.Kind == SimpleResponse {
		return fmt.Sprintf("response error: code=%d message=%s", e.Code, e.Message)
	}
	return fmt.Sprintf("other error: %s", e.Message)
}

// ErrorCode returns the server error code of a response error.
func (e *SimpleError) ErrorCode() (int64, bool) {
	if e.Kind == SimpleResponse {
		return e.Code, true
	}
	return 0, false
}

// Trace returns the trace id of a response error.
func (e *SimpleError) Trace() (string, bool) {
	if e.Kind == SimpleResponse {
		return e.TraceID, true
	}
	return "", false
}

type simpleWire struct {
	Code    *int64  `json:"code,omitempty"`
	Message string  `json:"message"`
	TraceID *string `json:"trace_id,omitempty"`
}

func (e *SimpleError) MarshalJSON() ([]byte, error) {
	w := simpleWire{Message: e.Message}
	if e.Kind == SimpleResponse {
		code, trace := e.Code, e.TraceID
		w.Code = &code
		w.TraceID = &trace
	}
	return json.Marshal(w)
}

func (e *SimpleError) UnmarshalJSON(data []byte) error {
	var w simpleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Code == nil {
		*e = SimpleError{Kind: SimpleOther, Message: w.Message}
		return nil
	}
	*e = SimpleError{Kind: SimpleResponse, Code: *w.Code, Message: w.Message}
	if w.TraceID != nil {
		e.TraceID = *w.TraceID
	}
	return nil
}

// Simplify reduces any error to a SimpleError. Errors that are not SDK
// errors render as Other. A nil error yields nil.
func Simplify(err error) *SimpleError {
	if err == nil {
		return nil
	}
	var se *SimpleError
	if errors.As(err, &se) {
		return se
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Simple()
	}
	return Other(err.Error())
}
