package models

import (
	"github.com/shopspring/decimal"

	"portbridge/wire"
)

// PushOrderChanged is the payload of an order_changed_lb push. Quantities are
// plain decimals, so zero is a real quantity. The optional monetary fields
// follow the per-field absence convention of the wire: ExecutedPrice uses
// zero for absent, the trigger and trailing fields use the empty string.
type PushOrderChanged struct {
	Side              OrderSide               `json:"side"`
	StockName         string                  `json:"stock_name"`
	SubmittedQuantity decimal.Decimal         `json:"submitted_quantity"`
	Symbol            string                  `json:"symbol"`
	OrderType         OrderType               `json:"order_type"`
	SubmittedPrice    decimal.Decimal         `json:"submitted_price"`
	ExecutedQuantity  decimal.Decimal         `json:"executed_quantity"`
	ExecutedPrice     wire.DecimalZeroAbsent  `json:"executed_price"`
	OrderID           string                  `json:"order_id"`
	Currency          string                  `json:"currency"`
	Status            OrderStatus             `json:"status"`
	SubmittedAt       wire.Timestamp          `json:"submitted_at"`
	UpdatedAt         wire.Timestamp          `json:"updated_at"`
	TriggerPrice      wire.DecimalEmptyAbsent `json:"trigger_price"`
	Msg               string                  `json:"msg"`
	Tag               OrderTag                `json:"tag"`
	TriggerStatus     OptTriggerStatus        `json:"trigger_status"`
	TriggerAt         wire.OptTimestamp       `json:"trigger_at"`
	TrailingAmount    wire.DecimalEmptyAbsent `json:"trailing_amount"`
	TrailingPercent   wire.DecimalEmptyAbsent `json:"trailing_percent"`
	LimitOffset       wire.DecimalEmptyAbsent `json:"limit_offset"`
	AccountNo         string                  `json:"account_no"`
	LastShare         wire.DecimalEmptyAbsent `json:"last_share"`
	LastPrice         wire.DecimalEmptyAbsent `json:"last_price"`
	Remark            string                  `json:"remark"`
}

// UnmarshalJSON decodes field by field so that failures carry the field
// name. Fields with an absence convention may be omitted entirely; every
// other field is required.
func (p *PushOrderChanged) UnmarshalJSON(data []byte) error {
	var v PushOrderChanged
	o := wire.NewObject(data)

	o.Required("side", &v.Side)
	o.Required("stock_name", &v.StockName)
	o.Required("submitted_quantity", &v.SubmittedQuantity)
	o.Required("symbol", &v.Symbol)
	o.Required("order_type", &v.OrderType)
	o.Required("submitted_price", &v.SubmittedPrice)
	o.Required("executed_quantity", &v.ExecutedQuantity)
	o.Optional("executed_price", &v.ExecutedPrice)
	o.Required("order_id", &v.OrderID)
	o.Required("currency", &v.Currency)
	o.Required("status", &v.Status)
	o.Required("submitted_at", &v.SubmittedAt)
	o.Required("updated_at", &v.UpdatedAt)
	o.Optional("trigger_price", &v.TriggerPrice)
	o.Required("msg", &v.Msg)
	o.Required("tag", &v.Tag)
	o.Optional("trigger_status", &v.TriggerStatus)
	o.Optional("trigger_at", &v.TriggerAt)
	o.Optional("trailing_amount", &v.TrailingAmount)
	o.Optional("trailing_percent", &v.TrailingPercent)
	o.Optional("limit_offset", &v.LimitOffset)
	o.Required("account_no", &v.AccountNo)
	o.Optional("last_share", &v.LastShare)
	o.Optional("last_price", &v.LastPrice)
	o.Required("remark", &v.Remark)

	if err := o.Err(); err != nil {
		return err
	}
	*p = v
	return nil
}
