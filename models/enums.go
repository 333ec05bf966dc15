package models

import "portbridge/wire"

/////////////////////////////////////////////////////////////////////////////
///////////////////////////////// ORDER SIDE ////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

type OrderSide int

const (
	OrderSideBuy OrderSide = iota + 1
	OrderSideSell
)

var orderSides = wire.NewEnum("order side", map[OrderSide]string{
	OrderSideBuy:  "Buy",
	OrderSideSell: "Sell",
})

func (s OrderSide) String() string              { return orderSides.Name(s) }
func (s OrderSide) MarshalJSON() ([]byte, error) { return orderSides.Encode(s) }
func (s *OrderSide) UnmarshalJSON(b []byte) error {
	return orderSides.Decode(b, s)
}

/////////////////////////////////////////////////////////////////////////////
///////////////////////////////// ORDER TYPE ////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

type OrderType int

const (
	OrderTypeLO      OrderType = iota + 1 // limit order
	OrderTypeELO                          // enhanced limit order
	OrderTypeMO                           // market order
	OrderTypeAO                           // at-auction order
	OrderTypeALO                          // at-auction limit order
	OrderTypeODD                          // odd lots
	OrderTypeLIT                          // limit if touched
	OrderTypeMIT                          // market if touched
	OrderTypeTSLPAMT                      // trailing limit if touched, by amount
	OrderTypeTSLPPCT                      // trailing limit if touched, by percent
	OrderTypeTSMAMT                       // trailing market if touched, by amount
	OrderTypeTSMPCT                       // trailing market if touched, by percent
	OrderTypeSLO                          // special limit order
)

var orderTypes = wire.NewEnum("order type", map[OrderType]string{
	OrderTypeLO:      "LO",
	OrderTypeELO:     "ELO",
	OrderTypeMO:      "MO",
	OrderTypeAO:      "AO",
	OrderTypeALO:     "ALO",
	OrderTypeODD:     "ODD",
	OrderTypeLIT:     "LIT",
	OrderTypeMIT:     "MIT",
	OrderTypeTSLPAMT: "TSLPAMT",
	OrderTypeTSLPPCT: "TSLPPCT",
	OrderTypeTSMAMT:  "TSMAMT",
	OrderTypeTSMPCT:  "TSMPCT",
	OrderTypeSLO:     "SLO",
})

func (t OrderType) String() string              { return orderTypes.Name(t) }
func (t OrderType) MarshalJSON() ([]byte, error) { return orderTypes.Encode(t) }
func (t *OrderType) UnmarshalJSON(b []byte) error {
	return orderTypes.Decode(b, t)
}

/////////////////////////////////////////////////////////////////////////////
//////////////////////////////// ORDER STATUS ///////////////////////////////
/////////////////////////////////////////////////////////////////////////////

type OrderStatus int

const (
	OrderStatusNotReported OrderStatus = iota + 1
	OrderStatusReplacedNotReported
	OrderStatusProtectedNotReported
	OrderStatusVarietiesNotReported
	OrderStatusFilled
	OrderStatusWaitToNew
	OrderStatusNew
	OrderStatusWaitToReplace
	OrderStatusPendingReplace
	OrderStatusReplaced
	OrderStatusPartialFilled
	OrderStatusWaitToCancel
	OrderStatusPendingCancel
	OrderStatusRejected
	OrderStatusCanceled
	OrderStatusExpired
	OrderStatusPartialWithdrawal
)

var orderStatuses = wire.NewEnum("order status", map[OrderStatus]string{
	OrderStatusNotReported:          "NotReported",
	OrderStatusReplacedNotReported:  "ReplacedNotReported",
	OrderStatusProtectedNotReported: "ProtectedNotReported",
	OrderStatusVarietiesNotReported: "VarietiesNotReported",
	OrderStatusFilled:               "FilledStatus",
	OrderStatusWaitToNew:            "WaitToNew",
	OrderStatusNew:                  "NewStatus",
	OrderStatusWaitToReplace:        "WaitToReplace",
	OrderStatusPendingReplace:       "PendingReplaceStatus",
	OrderStatusReplaced:             "ReplacedStatus",
	OrderStatusPartialFilled:        "PartialFilledStatus",
	OrderStatusWaitToCancel:         "WaitToCancel",
	OrderStatusPendingCancel:        "PendingCancelStatus",
	OrderStatusRejected:             "RejectedStatus",
	OrderStatusCanceled:             "CanceledStatus",
	OrderStatusExpired:              "ExpiredStatus",
	OrderStatusPartialWithdrawal:    "PartialWithdrawal",
})

func (s OrderStatus) String() string              { return orderStatuses.Name(s) }
func (s OrderStatus) MarshalJSON() ([]byte, error) { return orderStatuses.Encode(s) }
func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	return orderStatuses.Decode(b, s)
}

// Final reports whether no further changes can follow this status.
func (s OrderStatus) Final() bool {
	switch s {
	case OrderStatusFilled, OrderStatusRejected, OrderStatusCanceled, OrderStatusExpired, OrderStatusPartialWithdrawal:
		return true
	}
	return false
}

/////////////////////////////////////////////////////////////////////////////
///////////////////////////////// ORDER TAG /////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

type OrderTag int

const (
	OrderTagNormal OrderTag = iota + 1
	OrderTagLongTerm
	OrderTagGrey
	OrderTagMarginCall
	OrderTagOffline
	OrderTagCreditor
	OrderTagDebtor
	OrderTagNonExercise
	OrderTagAllocatedSub
)

var orderTags = wire.NewEnum("order tag", map[OrderTag]string{
	OrderTagNormal:       "Normal",
	OrderTagLongTerm:     "GTC",
	OrderTagGrey:         "Grey",
	OrderTagMarginCall:   "MarginCall",
	OrderTagOffline:      "Offline",
	OrderTagCreditor:     "Creditor",
	OrderTagDebtor:       "Debtor",
	OrderTagNonExercise:  "NonExercise",
	OrderTagAllocatedSub: "AllocatedSub",
})

func (t OrderTag) String() string              { return orderTags.Name(t) }
func (t OrderTag) MarshalJSON() ([]byte, error) { return orderTags.Encode(t) }
func (t *OrderTag) UnmarshalJSON(b []byte) error {
	return orderTags.Decode(b, t)
}

/////////////////////////////////////////////////////////////////////////////
/////////////////////////////// TRIGGER STATUS //////////////////////////////
/////////////////////////////////////////////////////////////////////////////

type TriggerStatus int

const (
	TriggerStatusDeactive TriggerStatus = iota + 1
	TriggerStatusActive
	TriggerStatusReleased
)

var triggerStatuses = wire.NewEnum("trigger status", map[TriggerStatus]string{
	TriggerStatusDeactive: "DEACTIVE",
	TriggerStatusActive:   "ACTIVE",
	TriggerStatusReleased: "RELEASED",
})

func (s TriggerStatus) String() string              { return triggerStatuses.Name(s) }
func (s TriggerStatus) MarshalJSON() ([]byte, error) { return triggerStatuses.Encode(s) }
func (s *TriggerStatus) UnmarshalJSON(b []byte) error {
	return triggerStatuses.Decode(b, s)
}

// OptTriggerStatus is the trigger status of a conditional order. Plain orders
// carry "" or "NOT_USED" on the wire, which decode to absent.
type OptTriggerStatus struct {
	Status TriggerStatus
	Valid  bool
}

func (s OptTriggerStatus) Get() (TriggerStatus, bool) {
	return s.Status, s.Valid
}

func (s *OptTriggerStatus) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `null`, `""`, `"NOT_USED"`:
		*s = OptTriggerStatus{}
		return nil
	}
	if err := s.Status.UnmarshalJSON(b); err != nil {
		return err
	}
	s.Valid = true
	return nil
}

func (s OptTriggerStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte(`"NOT_USED"`), nil
	}
	return s.Status.MarshalJSON()
}
