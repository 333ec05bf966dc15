package sdkerr

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies which failure variant an Error carries.
type Kind int

const (
	KindDecodeProtobuf Kind = iota + 1
	KindDecodeJSON
	KindParseField
	KindUnknownCommand
	KindInvalidSecuritySymbol
	KindUnknownMarket
	KindUnknownTradeSession
	KindHTTPClient
	KindWsClient
)

var kindNames = map[Kind]string{
	KindDecodeProtobuf:        "decode_protobuf",
	KindDecodeJSON:            "decode_json",
	KindParseField:            "parse_field",
	KindUnknownCommand:        "unknown_command",
	KindInvalidSecuritySymbol: "invalid_security_symbol",
	KindUnknownMarket:         "unknown_market",
	KindUnknownTradeSession:   "unknown_trade_session",
	KindHTTPClient:            "http_client",
	KindWsClient:              "ws_client",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single error type produced by the SDK core. Exactly one
// variant is populated, selected by Kind; the remaining fields are zero.
type Error struct {
	Kind Kind

	// Field names the wire field for KindParseField.
	Field string
	// Command is the rejected frame command code for KindUnknownCommand.
	Command uint8
	// Symbol is the security symbol for the domain validation kinds.
	Symbol string
	// Time is the instant that matched no session for KindUnknownTradeSession.
	Time time.Time

	// Cause is the underlying failure for decode, parse and transport kinds.
	Cause error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindParseField:
		return fmt.Sprintf("parse field: %s: %s", e.Field, causeText(e.Cause))
	case KindUnknownCommand:
		return fmt.Sprintf("unknown command: %d", e.Command)
	case KindInvalidSecuritySymbol:
		return fmt.Sprintf("invalid security symbol: %s", e.Symbol)
	case KindUnknownMarket:
		return fmt.Sprintf("unknown market: %s", e.Symbol)
	case KindUnknownTradeSession:
		return fmt.Sprintf("unknown trade session: %s, time=%s", e.Symbol, e.Time.Format(time.RFC3339))
	default:
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same Kind, so sentinel-style checks such
// as errors.Is(err, &sdkerr.Error{Kind: sdkerr.KindUnknownCommand}) work.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func causeText(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}

func DecodeProtobuf(err error) *Error {
	return &Error{Kind: KindDecodeProtobuf, Cause: err}
}

func DecodeJSON(err error) *Error {
	return &Error{Kind: KindDecodeJSON, Cause: err}
}

// ParseField reports a wire field that could not be converted to its typed form.
func ParseField(name string, err error) *Error {
	return &Error{Kind: KindParseField, Field: name, Cause: err}
}

func UnknownCommand(code uint8) *Error {
	return &Error{Kind: KindUnknownCommand, Command: code}
}

func InvalidSecuritySymbol(symbol string) *Error {
	return &Error{Kind: KindInvalidSecuritySymbol, Symbol: symbol}
}

func UnknownMarket(symbol string) *Error {
	return &Error{Kind: KindUnknownMarket, Symbol: symbol}
}

func UnknownTradeSession(symbol string, t time.Time) *Error {
	return &Error{Kind: KindUnknownTradeSession, Symbol: symbol, Time: t}
}

// HTTPClient wraps a failure reported by the HTTP transport.
func HTTPClient(err error) *Error {
	return &Error{Kind: KindHTTPClient, Cause: err}
}

// WsClient wraps a failure reported by the WebSocket transport.
func WsClient(err error) *Error {
	return &Error{Kind: KindWsClient, Cause: err}
}

// ResponseDetailer is implemented by transport errors that can carry a
// server-assigned response error. ok is false when the failure has no
// server detail attached.
type ResponseDetailer interface {
	ResponseDetail() (code int64, message, traceID string, ok bool)
}

func (e *Error) responseDetail() (code int64, message, traceID string, ok bool) {
	if e.Kind != KindHTTPClient && e.Kind != KindWsClient {
		return 0, "", "", false
	}
	var rd ResponseDetailer
	if !errors.As(e.Cause, &rd) {
		return 0, "", "", false
	}
	return rd.ResponseDetail()
}

// OpenAPIErrorCode returns the server error code when the failure is a
// response error from either transport.
func (e *Error) OpenAPIErrorCode() (int64, bool) {
	code, _, _, ok := e.responseDetail()
	return code, ok
}

// Simple reduces the error to its boundary-safe form. It never fails.
func (e *Error) Simple() *SimpleError {
	if code, message, traceID, ok := e.responseDetail(); ok {
		return Response(code, message, traceID)
	}
	return Other(e.Error())
}

// Wrap converts any error into an *Error, classifying unknown errors by the
// given fallback kind. nil stays nil.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: kind, Cause: err}
}
