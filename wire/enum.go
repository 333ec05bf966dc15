package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownValue is returned for a wire string outside an Enum's vocabulary.
var ErrUnknownValue = errors.New("wire: unknown enum value")

// Enum maps a closed vocabulary of wire strings to the values of T, one to one.
type Enum[T comparable] struct {
	name   string
	values map[string]T
	names  map[T]string
}

// NewEnum builds the codec. It panics when two values share a wire string,
// which can only happen through a programming error in a vocabulary table.
func NewEnum[T comparable](name string, vocabulary map[T]string) *Enum[T] {
	e := &Enum[T]{
		name:   name,
		values: make(map[string]T, len(vocabulary)),
		names:  make(map[T]string, len(vocabulary)),
	}
	for v, s := range vocabulary {
		if _, dup := e.values[s]; dup {
			panic(fmt.Sprintf("wire: duplicate %s value %q", name, s))
		}
		e.values[s] = v
		e.names[v] = s
	}
	return e
}

func (e *Enum[T]) Parse(s string) (T, error) {
	v, ok := e.values[s]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %q", ErrUnknownValue, e.name, s)
	}
	return v, nil
}

// Name returns the wire string of v, or "" when v is not in the vocabulary.
func (e *Enum[T]) Name(v T) string {
	return e.names[v]
}

func (e *Enum[T]) Decode(data []byte, dst *T) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%s: %w", e.name, err)
	}
	v, err := e.Parse(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func (e *Enum[T]) Encode(v T) ([]byte, error) {
	s, ok := e.names[v]
	if !ok {
		return nil, fmt.Errorf("%w: %s %v", ErrUnknownValue, e.name, v)
	}
	return json.Marshal(s)
}
