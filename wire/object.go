package wire

import (
	"bytes"
	"encoding/json"
	"errors"

	"portbridge/sdkerr"
)

// ErrMissingField is the cause of a field parse error for an absent required field.
var ErrMissingField = errors.New("missing field")

// Object decodes a JSON object field by field so that every failure names
// the field it came from. The first failure sticks; later calls are no-ops.
type Object struct {
	fields map[string]json.RawMessage
	err    error
}

// NewObject parses data as a JSON object.
func NewObject(data []byte) *Object {
	o := &Object{}
	if err := json.Unmarshal(data, &o.fields); err != nil {
		o.err = sdkerr.DecodeJSON(err)
	} else if o.fields == nil {
		o.err = sdkerr.DecodeJSON(errors.New("expected object, got null"))
	}
	return o
}

// Required decodes the named field into dst and fails when it is missing
// or null.
func (o *Object) Required(name string, dst any) {
	if o.err != nil {
		return
	}
	raw, ok := o.fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), null) {
		o.err = sdkerr.ParseField(name, ErrMissingField)
		return
	}
	o.decode(name, raw, dst)
}

// Optional decodes the named field when present and leaves dst untouched otherwise.
func (o *Object) Optional(name string, dst any) {
	if o.err != nil {
		return
	}
	if raw, ok := o.fields[name]; ok {
		o.decode(name, raw, dst)
	}
}

func (o *Object) decode(name string, raw json.RawMessage, dst any) {
	if err := json.Unmarshal(raw, dst); err != nil {
		o.err = sdkerr.ParseField(name, err)
	}
}

func (o *Object) Err() error {
	return o.err
}
