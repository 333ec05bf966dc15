package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrMissingTimestamp is returned when a required timestamp is null or empty.
var ErrMissingTimestamp = errors.New("wire: missing timestamp")

// Timestamp is a point in time carried on the wire as whole seconds since the
// Unix epoch, either as a number or as a numeric string. Decoded values are UTC.
type Timestamp struct {
	time.Time
}

func Unix(sec int64) Timestamp {
	return Timestamp{time.Unix(sec, 0).UTC()}
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	sec, present, err := parseSeconds(data)
	if err != nil {
		return err
	}
	if !present {
		return ErrMissingTimestamp
	}
	t.Time = time.Unix(sec, 0).UTC()
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(t.Unix(), 10))
}

// OptTimestamp is an optional Timestamp. 0, "0", "" and null decode to absent.
type OptTimestamp struct {
	Time  time.Time
	Valid bool
}

func OptUnix(sec int64) OptTimestamp {
	return OptTimestamp{Time: time.Unix(sec, 0).UTC(), Valid: true}
}

func (t OptTimestamp) Get() (time.Time, bool) {
	return t.Time, t.Valid
}

func (t *OptTimestamp) UnmarshalJSON(data []byte) error {
	sec, present, err := parseSeconds(data)
	if err != nil {
		return err
	}
	if !present || sec == 0 {
		*t = OptTimestamp{}
		return nil
	}
	*t = OptUnix(sec)
	return nil
}

func (t OptTimestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte(`"0"`), nil
	}
	return json.Marshal(strconv.FormatInt(t.Time.Unix(), 10))
}

func parseSeconds(data []byte) (int64, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		return 0, false, nil
	}
	text := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return 0, false, err
		}
		if text == "" {
			return 0, false, nil
		}
	}
	sec, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	return sec, true, nil
}
