package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrEmptyDecimal is returned when an empty string reaches a decimal field
// that does not treat the empty string as absent.
var ErrEmptyDecimal = errors.New("wire: empty decimal")

var null = []byte("null")

// DecimalZeroAbsent is an optional decimal whose wire form uses zero for
// absent. 0, "0", "0.00" and null decode to absent.
type DecimalZeroAbsent struct {
	decimal.NullDecimal
}

// ZeroAbsent returns a present value. A zero d is indistinguishable from
// absent once encoded.
func ZeroAbsent(d decimal.Decimal) DecimalZeroAbsent {
	return DecimalZeroAbsent{decimal.NewNullDecimal(d)}
}

func (d DecimalZeroAbsent) Get() (decimal.Decimal, bool) {
	return d.Decimal, d.Valid
}

func (d *DecimalZeroAbsent) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), null) {
		d.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	v, present, err := parseDecimal(data)
	if err != nil {
		return err
	}
	if !present {
		return ErrEmptyDecimal
	}
	if v.IsZero() {
		d.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	d.NullDecimal = decimal.NewNullDecimal(v)
	return nil
}

func (d DecimalZeroAbsent) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte(`"0"`), nil
	}
	return d.Decimal.MarshalJSON()
}

// DecimalEmptyAbsent is an optional decimal whose wire form uses the empty
// string for absent. "" and null decode to absent; "0" is a present zero.
type DecimalEmptyAbsent struct {
	decimal.NullDecimal
}

func EmptyAbsent(d decimal.Decimal) DecimalEmptyAbsent {
	return DecimalEmptyAbsent{decimal.NewNullDecimal(d)}
}

func (d DecimalEmptyAbsent) Get() (decimal.Decimal, bool) {
	return d.Decimal, d.Valid
}

func (d *DecimalEmptyAbsent) UnmarshalJSON(data []byte) error {
	v, present, err := parseDecimal(data)
	if err != nil {
		return err
	}
	if !present {
		d.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	d.NullDecimal = decimal.NewNullDecimal(v)
	return nil
}

func (d DecimalEmptyAbsent) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte(`""`), nil
	}
	return d.Decimal.MarshalJSON()
}

// parseDecimal accepts a JSON number or a numeric string. present is false
// for null and for the empty string.
func parseDecimal(data []byte) (decimal.Decimal, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		return decimal.Decimal{}, false, nil
	}
	text := data
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return decimal.Decimal{}, false, err
		}
		if s == "" {
			return decimal.Decimal{}, false, nil
		}
		text = []byte(s)
	}
	v, err := decimal.NewFromString(string(text))
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("invalid decimal %s: %w", data, err)
	}
	return v, true, nil
}
