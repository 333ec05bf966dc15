package wsclient

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Control command codes shared by every endpoint.
const (
	CmdClose     uint8 = 0
	CmdHeartbeat uint8 = 1
	CmdAuth      uint8 = 2
	CmdReconnect uint8 = 3
)

// Session is the result of a successful authentication.
type Session struct {
	ID string
	// Expires is a Unix timestamp in milliseconds.
	Expires int64
}

// Authenticate sends the one-time token and returns the session granted.
func (c *Client) Authenticate(ctx context.Context, token string) (Session, error) {
	var req []byte
	req = protowire.AppendTag(req, 1, protowire.BytesType)
	req = protowire.AppendString(req, token)

	body, err := c.Request(ctx, CmdAuth, req)
	if err != nil {
		return Session{}, err
	}
	s, err := decodeSession(body)
	if err != nil {
		return Session{}, &Error{Kind: KindDecodePacket, Cause: fmt.Errorf("auth response: %w", err)}
	}
	c.log.WithField("session_id", s.ID).Debug("websocket authenticated")
	return s, nil
}

func decodeSession(b []byte) (Session, error) {
	var s Session
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Session{}, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Session{}, protowire.ParseError(n)
			}
			s.ID, b = v, b[n:]
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Session{}, protowire.ParseError(n)
			}
			s.Expires, b = int64(v), b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Session{}, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return s, nil
}
