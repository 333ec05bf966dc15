package trade

import (
	"errors"
	"testing"

	"portbridge/models"
	"portbridge/sdkerr"
)

const orderChangedData = `{"event":"order_changed_lb","data":{
	"side":"Sell","stock_name":"Apple","submitted_quantity":"10","symbol":"AAPL.US",
	"order_type":"LO","submitted_price":"180.5","executed_quantity":"10","executed_price":"180.50",
	"order_id":"1","currency":"USD","status":"FilledStatus","submitted_at":"1651234567",
	"updated_at":"1651234568","trigger_price":"","msg":"","tag":"Normal","trigger_status":"NOT_USED",
	"trigger_at":"0","trailing_amount":"","trailing_percent":"","limit_offset":"","account_no":"US1",
	"last_share":"10","last_price":"180.5","remark":""}}`

func notificationPayload(topic, data string) []byte {
	n := Notification{Topic: topic, ContentType: ContentJSON, DispatchType: DispatchDirect, Data: []byte(data)}
	return n.Marshal()
}

func TestParsePushEventOrderChanged(t *testing.T) {
	event, err := ParsePushEvent(CmdPushNotification, notificationPayload("private", orderChangedData))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event == nil || event.Event != EventOrderChanged || event.OrderChanged == nil {
		t.Fatalf("unexpected event %+v", event)
	}
	oc := event.OrderChanged
	if oc.Side != models.OrderSideSell || oc.Status != models.OrderStatusFilled || oc.Symbol != "AAPL.US" {
		t.Fatalf("unexpected payload %+v", oc)
	}
	if p, ok := oc.ExecutedPrice.Get(); !ok || p.String() != "180.5" {
		t.Fatalf("unexpected executed price %+v", oc.ExecutedPrice)
	}
	if oc.SubmittedAt.Unix() != 1651234567 {
		t.Fatalf("unexpected submitted_at %v", oc.SubmittedAt.Time)
	}
}

func TestParsePushEventUnknownCommand(t *testing.T) {
	payload := notificationPayload("private", orderChangedData)
	for code := 0; code < 256; code++ {
		if uint8(code) == CmdPushNotification {
			continue
		}
		_, err := ParsePushEvent(uint8(code), payload)
		var e *sdkerr.Error
		if !errors.As(err, &e) || e.Kind != sdkerr.KindUnknownCommand || e.Command != uint8(code) {
			t.Fatalf("code %d: expected unknown command, got %v", code, err)
		}
	}
}

func TestParsePushEventFiltersUnknownTopic(t *testing.T) {
	for _, topic := range []string{"public", "", "Private", "quote"} {
		event, err := ParsePushEvent(CmdPushNotification, notificationPayload(topic, `not even json`))
		if err != nil || event != nil {
			t.Fatalf("topic %q: expected no event, got %+v, %v", topic, event, err)
		}
	}
}

func TestParsePushEventBadEnvelope(t *testing.T) {
	_, err := ParsePushEvent(CmdPushNotification, []byte{0x0a, 0x20, 'x'})
	var e *sdkerr.Error
	if !errors.As(err, &e) || e.Kind != sdkerr.KindDecodeProtobuf {
		t.Fatalf("expected protobuf decode error, got %v", err)
	}
}

func TestParsePushEventBadPayload(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"event":`},
		{"missing event", `{"data":{}}`},
		{"missing data", `{"event":"order_changed_lb"}`},
		{"unknown variant", `{"event":"order_deleted","data":{}}`},
	}
	for _, tt := range tests {
		_, err := ParsePushEvent(CmdPushNotification, notificationPayload("private", tt.data))
		var e *sdkerr.Error
		if !errors.As(err, &e) || e.Kind != sdkerr.KindDecodeJSON {
			t.Errorf("%s: expected json decode error, got %v", tt.name, err)
		}
	}
}

func TestParsePushEventBadField(t *testing.T) {
	data := `{"event":"order_changed_lb","data":{"side":"Hold"}}`
	_, err := ParsePushEvent(CmdPushNotification, notificationPayload("private", data))
	var e *sdkerr.Error
	if !errors.As(err, &e) || e.Kind != sdkerr.KindParseField || e.Field != "side" {
		t.Fatalf("expected parse field error on side, got %v", err)
	}
}

func TestDecodeFrame(t *testing.T) {
	frame := EncodeFrame(&Notification{Topic: "private", Data: []byte(orderChangedData)})
	event, err := DecodeFrame(frame)
	if err != nil || event == nil {
		t.Fatalf("decode frame: %+v, %v", event, err)
	}
	if _, err := DecodeFrame(nil); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("expected ErrEmptyFrame, got %v", err)
	}
	if _, err := DecodeFrame([]byte{1}); !errors.Is(err, &sdkerr.Error{Kind: sdkerr.KindUnknownCommand}) {
		t.Fatalf("expected unknown command, got %v", err)
	}
}

func TestPushEventJSONRoundTrip(t *testing.T) {
	event, err := ParsePushEvent(CmdPushNotification, notificationPayload("private", orderChangedData))
	if err != nil {
		t.Fatal(err)
	}
	b, err := event.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	var back PushEvent
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("re-decode: %v\n%s", err, b)
	}
	if back.OrderChanged.OrderID != "1" || !back.OrderChanged.ExecutedQuantity.Equal(event.OrderChanged.ExecutedQuantity) {
		t.Fatalf("round trip mismatch: %s", b)
	}
}
