package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"portbridge/sdkerr"
	"portbridge/wire"
)

const orderChangedJSON = `{
	"side": "Buy",
	"stock_name": "Tencent",
	"submitted_quantity": "200",
	"symbol": "700.HK",
	"order_type": "LO",
	"submitted_price": "50.00",
	"executed_quantity": "0",
	"executed_price": "0",
	"order_id": "706388312699592704",
	"currency": "HKD",
	"status": "NewStatus",
	"submitted_at": "1651234567",
	"updated_at": "1651234600",
	"trigger_price": "",
	"msg": "",
	"tag": "Normal",
	"trigger_status": "NOT_USED",
	"trigger_at": "0",
	"trailing_amount": "",
	"trailing_percent": "",
	"limit_offset": "",
	"account_no": "HK123",
	"last_share": "",
	"last_price": "",
	"remark": "first"
}`

func TestPushOrderChangedDecode(t *testing.T) {
	var p PushOrderChanged
	if err := json.Unmarshal([]byte(orderChangedJSON), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Side != OrderSideBuy || p.OrderType != OrderTypeLO || p.Status != OrderStatusNew || p.Tag != OrderTagNormal {
		t.Fatalf("unexpected enums: %+v", p)
	}
	if !p.SubmittedQuantity.Equal(decimal.NewFromInt(200)) || !p.SubmittedPrice.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected decimals: %s %s", p.SubmittedQuantity, p.SubmittedPrice)
	}
	// zero is a valid executed quantity, not absent
	if !p.ExecutedQuantity.IsZero() {
		t.Fatalf("unexpected executed quantity %s", p.ExecutedQuantity)
	}
	if _, ok := p.ExecutedPrice.Get(); ok {
		t.Fatal("executed price 0 must decode to absent")
	}
	if _, ok := p.TriggerPrice.Get(); ok {
		t.Fatal("empty trigger price must decode to absent")
	}
	if _, ok := p.TriggerStatus.Get(); ok {
		t.Fatal("NOT_USED trigger status must decode to absent")
	}
	if _, ok := p.TriggerAt.Get(); ok {
		t.Fatal("trigger_at 0 must decode to absent")
	}
	if !p.SubmittedAt.Equal(time.Date(2022, 4, 29, 12, 16, 7, 0, time.UTC)) {
		t.Fatalf("unexpected submitted_at %v", p.SubmittedAt.Time)
	}
	if p.UpdatedAt.Unix() != 1651234600 {
		t.Fatalf("unexpected updated_at %v", p.UpdatedAt.Time)
	}
}

func TestPushOrderChangedConditionalOrder(t *testing.T) {
	in := strings.NewReplacer(
		`"executed_price": "0"`, `"executed_price": "49.5"`,
		`"trigger_price": ""`, `"trigger_price": "48.0000"`,
		`"trigger_status": "NOT_USED"`, `"trigger_status": "ACTIVE"`,
		`"trigger_at": "0"`, `"trigger_at": 1651234700`,
		`"last_share": ""`, `"last_share": "0"`,
	).Replace(orderChangedJSON)

	var p PushOrderChanged
	if err := json.Unmarshal([]byte(in), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := p.ExecutedPrice.Get(); !ok || !v.Equal(decimal.RequireFromString("49.5")) {
		t.Fatalf("unexpected executed price %+v", p.ExecutedPrice)
	}
	if v, ok := p.TriggerPrice.Get(); !ok || !v.Equal(decimal.NewFromInt(48)) {
		t.Fatalf("unexpected trigger price %+v", p.TriggerPrice)
	}
	if s, ok := p.TriggerStatus.Get(); !ok || s != TriggerStatusActive {
		t.Fatalf("unexpected trigger status %+v", p.TriggerStatus)
	}
	if at, ok := p.TriggerAt.Get(); !ok || at.Unix() != 1651234700 {
		t.Fatalf("unexpected trigger_at %+v", p.TriggerAt)
	}
	if v, ok := p.LastShare.Get(); !ok || !v.IsZero() {
		t.Fatalf("last_share \"0\" must be a present zero, got %+v", p.LastShare)
	}
}

func TestPushOrderChangedUnknownEnum(t *testing.T) {
	in := strings.Replace(orderChangedJSON, `"status": "NewStatus"`, `"status": "Sleeping"`, 1)
	var p PushOrderChanged
	err := json.Unmarshal([]byte(in), &p)
	var e *sdkerr.Error
	if !errors.As(err, &e) || e.Kind != sdkerr.KindParseField || e.Field != "status" {
		t.Fatalf("expected parse field error on status, got %v", err)
	}
	if !errors.Is(err, wire.ErrUnknownValue) {
		t.Fatalf("expected ErrUnknownValue cause, got %v", err)
	}
}

func TestPushOrderChangedMissingRequired(t *testing.T) {
	in := strings.Replace(orderChangedJSON, `"symbol": "700.HK",`, ``, 1)
	var p PushOrderChanged
	err := json.Unmarshal([]byte(in), &p)
	if !errors.Is(err, wire.ErrMissingField) {
		t.Fatalf("expected missing field error, got %v", err)
	}
}

func TestPushOrderChangedNullRequired(t *testing.T) {
	for _, field := range []string{"submitted_quantity", "submitted_price", "executed_quantity", "stock_name"} {
		var p PushOrderChanged
		err := json.Unmarshal([]byte(replaceField(t, orderChangedJSON, field, "null")), &p)
		var e *sdkerr.Error
		if !errors.As(err, &e) || e.Kind != sdkerr.KindParseField || e.Field != field {
			t.Fatalf("%s: expected parse field error, got %v", field, err)
		}
		if !errors.Is(err, wire.ErrMissingField) {
			t.Fatalf("%s: expected ErrMissingField cause, got %v", field, err)
		}
	}
}

func TestPushOrderChangedNullExecutedPrice(t *testing.T) {
	var p PushOrderChanged
	if err := json.Unmarshal([]byte(replaceField(t, orderChangedJSON, "executed_price", "null")), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := p.ExecutedPrice.Get(); ok {
		t.Fatalf("null executed_price must be absent, got %+v", p.ExecutedPrice)
	}
}

// replaceField swaps the value of a top-level field in doc for raw.
func replaceField(t *testing.T, doc, field, raw string) string {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		t.Fatal(err)
	}
	m[field] = json.RawMessage(raw)
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestPushOrderChangedEncodeAbsent(t *testing.T) {
	var p PushOrderChanged
	if err := json.Unmarshal([]byte(orderChangedJSON), &p); err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]string{
		"executed_price": `"0"`,
		"trigger_price":  `""`,
		"trigger_status": `"NOT_USED"`,
		"trigger_at":     `"0"`,
		"side":           `"Buy"`,
	} {
		if string(fields[name]) != want {
			t.Errorf("%s encoded as %s, want %s", name, fields[name], want)
		}
	}
}

func TestOrderStatusFinal(t *testing.T) {
	if !OrderStatusFilled.Final() || OrderStatusNew.Final() {
		t.Fatal("unexpected Final classification")
	}
}
