package trade

import (
	"encoding/json"
	"errors"
	"fmt"

	"portbridge/models"
	"portbridge/sdkerr"
	"portbridge/wire"
)

// TopicType is a subscription channel of the trade endpoint.
type TopicType int

const (
	TopicPrivate TopicType = iota + 1
)

var topics = wire.NewEnum("topic", map[TopicType]string{
	TopicPrivate: "private",
})

func ParseTopic(s string) (TopicType, error) {
	return topics.Parse(s)
}

func (t TopicType) String() string { return topics.Name(t) }

// EventType is the discriminator of a PushEvent.
type EventType string

const EventOrderChanged EventType = "order_changed_lb"

// PushEvent is a decoded trade push. Event selects the populated variant.
type PushEvent struct {
	Event        EventType
	OrderChanged *models.PushOrderChanged
}

type pushEnvelope struct {
	Event *EventType      `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (e *PushEvent) UnmarshalJSON(b []byte) error {
	var env pushEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return sdkerr.DecodeJSON(err)
	}
	if env.Event == nil {
		return sdkerr.DecodeJSON(errors.New("missing field `event`"))
	}
	if env.Data == nil {
		return sdkerr.DecodeJSON(errors.New("missing field `data`"))
	}
	switch *env.Event {
	case EventOrderChanged:
		var data models.PushOrderChanged
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return sdkerr.Wrap(sdkerr.KindDecodeJSON, err)
		}
		*e = PushEvent{Event: EventOrderChanged, OrderChanged: &data}
		return nil
	default:
		return sdkerr.DecodeJSON(fmt.Errorf("unknown variant `%s`, expected `%s`", *env.Event, EventOrderChanged))
	}
}

func (e PushEvent) MarshalJSON() ([]byte, error) {
	var data any
	switch e.Event {
	case EventOrderChanged:
		data = e.OrderChanged
	default:
		return nil, fmt.Errorf("trade: cannot encode push event %q", e.Event)
	}
	return json.Marshal(struct {
		Event EventType `json:"event"`
		Data  any       `json:"data"`
	}{e.Event, data})
}

// ParsePushEvent decodes the payload of a push with the given command code.
// Any code other than CmdPushNotification fails with an unknown command
// error. A notification on a topic that is not recognized yields (nil, nil).
func ParsePushEvent(cmd uint8, payload []byte) (*PushEvent, error) {
	if cmd != CmdPushNotification {
		return nil, sdkerr.UnknownCommand(cmd)
	}
	var n Notification
	if err := n.Unmarshal(payload); err != nil {
		return nil, sdkerr.DecodeProtobuf(err)
	}
	if topic, err := ParseTopic(n.Topic); err != nil || topic != TopicPrivate {
		return nil, nil
	}
	var event PushEvent
	if err := json.Unmarshal(n.Data, &event); err != nil {
		return nil, sdkerr.Wrap(sdkerr.KindDecodeJSON, err)
	}
	return &event, nil
}

// ErrEmptyFrame is the cause of decoding a frame without a command byte.
var ErrEmptyFrame = errors.New("trade: empty frame")

// DecodeFrame decodes a raw inbound push frame: one command byte followed
// by the notification envelope.
func DecodeFrame(frame []byte) (*PushEvent, error) {
	if len(frame) == 0 {
		return nil, sdkerr.DecodeProtobuf(ErrEmptyFrame)
	}
	return ParsePushEvent(frame[0], frame[1:])
}

// EncodeFrame is the inverse of DecodeFrame for a notification.
func EncodeFrame(n *Notification) []byte {
	return append([]byte{CmdPushNotification}, n.Marshal()...)
}
