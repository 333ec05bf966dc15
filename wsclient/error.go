package wsclient

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrorKind classifies failures of the WebSocket transport.
type ErrorKind int

const (
	KindConnect ErrorKind = iota + 1
	KindConnectionClosed
	KindRequestTimeout
	KindResponseError
	KindDecodePacket
	KindWrite
)

var kindNames = map[ErrorKind]string{
	KindConnect:          "connect",
	KindConnectionClosed: "connection closed",
	KindRequestTimeout:   "request timeout",
	KindResponseError:    "response error",
	KindDecodePacket:     "decode packet",
	KindWrite:            "write",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ResponseErrorDetail is the protobuf Error message carried in the body of
// a response with a non-zero status.
type ResponseErrorDetail struct {
	Code uint64
	Msg  string
}

func (d *ResponseErrorDetail) Marshal() []byte {
	var b []byte
	if d.Code != 0 {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, d.Code)
	}
	if d.Msg != "" {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, d.Msg)
	}
	return b
}

func (d *ResponseErrorDetail) Unmarshal(b []byte) error {
	*d = ResponseErrorDetail{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			d.Code, b = v, b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			d.Msg, b = v, b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

// Error is a failure reported by the WebSocket client.
type Error struct {
	Kind   ErrorKind
	Status uint8
	// Detail is set for KindResponseError when the body decoded.
	Detail *ResponseErrorDetail
	Cause  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindResponseError:
		if e.Detail != nil {
			return fmt.Sprintf("response error: status=%d code=%d: %s", e.Status, e.Detail.Code, e.Detail.Msg)
		}
		return fmt.Sprintf("response error: status=%d", e.Status)
	case KindConnectionClosed, KindRequestTimeout:
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
		}
		return e.Kind.String()
	default:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrClosed is the cause attached to requests failed by Close.
var ErrClosed = errors.New("wsclient: client closed")

// ResponseDetail exposes the server detail of a response error. WebSocket
// responses carry no trace id.
func (e *Error) ResponseDetail() (int64, string, string, bool) {
	if e.Kind != KindResponseError || e.Detail == nil {
		return 0, "", "", false
	}
	return int64(e.Detail.Code), e.Detail.Msg, "", true
}

func responseError(status uint8, body []byte) *Error {
	e := &Error{Kind: KindResponseError, Status: status}
	var detail ResponseErrorDetail
	if err := detail.Unmarshal(body); err == nil && (detail.Code != 0 || detail.Msg != "") {
		e.Detail = &detail
	}
	return e
}
