package trade

import (
	"google.golang.org/protobuf/encoding/protowire"
)

type ContentType int32

const (
	ContentUndefined ContentType = 0
	ContentJSON      ContentType = 1
	ContentProto     ContentType = 2
)

type DispatchType int32

const (
	DispatchUndefined DispatchType = 0
	DispatchDirect    DispatchType = 1
	DispatchBroadcast DispatchType = 2
)

// Notification is the binary envelope of a trade push.
type Notification struct {
	Topic        string
	ContentType  ContentType
	DispatchType DispatchType
	Data         []byte
}

func (n *Notification) Marshal() []byte {
	var b []byte
	if n.Topic != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, n.Topic)
	}
	if n.ContentType != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(n.ContentType))
	}
	if n.DispatchType != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(n.DispatchType))
	}
	if len(n.Data) > 0 {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, n.Data)
	}
	return b
}

func (n *Notification) Unmarshal(b []byte) error {
	*n = Notification{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			n.Topic = v
			return m, nil
		case num == 2 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			n.ContentType = ContentType(v)
			return m, nil
		case num == 3 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			n.DispatchType = DispatchType(v)
			return m, nil
		case num == 4 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			n.Data = v
			return m, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

// subRequest is the body of subscribe and unsubscribe requests.
type subRequest struct {
	Topics []string
}

func (s *subRequest) Marshal() []byte {
	var b []byte
	for _, t := range s.Topics {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, t)
	}
	return b
}

func (s *subRequest) Unmarshal(b []byte) error {
	*s = subRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			v, m := protowire.ConsumeString(b)
			if m >= 0 {
				s.Topics = append(s.Topics, v)
			}
			return m, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

// SubFailure names a topic the server refused and why.
type SubFailure struct {
	Topic  string
	Reason string
}

// SubResponse reports the outcome of a subscription change.
type SubResponse struct {
	Success []string
	Fail    []SubFailure
	Current []string
}

func (s *SubResponse) Marshal() []byte {
	var b []byte
	for _, t := range s.Success {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, t)
	}
	for _, f := range s.Fail {
		var fb []byte
		fb = protowire.AppendTag(fb, 1, protowire.BytesType)
		fb = protowire.AppendString(fb, f.Topic)
		fb = protowire.AppendTag(fb, 2, protowire.BytesType)
		fb = protowire.AppendString(fb, f.Reason)
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, fb)
	}
	for _, t := range s.Current {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, t)
	}
	return b
}

func (s *SubResponse) Unmarshal(b []byte) error {
	*s = SubResponse{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType || num < 1 || num > 3 {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, m := protowire.ConsumeBytes(b)
		if m < 0 {
			return m, nil
		}
		switch num {
		case 1:
			s.Success = append(s.Success, string(v))
		case 2:
			var f SubFailure
			err := consumeFields(v, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				if typ == protowire.BytesType && (num == 1 || num == 2) {
					str, m := protowire.ConsumeString(b)
					if num == 1 {
						f.Topic = str
					} else {
						f.Reason = str
					}
					return m, nil
				}
				return protowire.ConsumeFieldValue(num, typ, b), nil
			})
			if err != nil {
				return 0, err
			}
			s.Fail = append(s.Fail, f)
		case 3:
			s.Current = append(s.Current, string(v))
		}
		return m, nil
	})
}

// consumeFields walks a protobuf message. field consumes one value and
// returns its length, negative on a malformed value.
func consumeFields(b []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}
