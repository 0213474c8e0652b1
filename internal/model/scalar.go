package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// OrderID keeps the identifier exactly as the backend sent it. Spreadsheet
// backends emit numbers for some rows and strings for others, and the upload
// payload must echo the same JSON type back.
type OrderID struct {
	value   string
	numeric bool
}

// StringOrderID builds a string-typed identifier.
func StringOrderID(v string) OrderID { return OrderID{value: v} }

// NumericOrderID builds a number-typed identifier.
func NumericOrderID(v int64) OrderID {
	return OrderID{value: strconv.FormatInt(v, 10), numeric: true}
}

func (id OrderID) String() string { return id.value }

func (id OrderID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *OrderID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*id = OrderID{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode orderId: %w", err)
		}
		*id = StringOrderID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decode orderId: %w", err)
		}
		*id = OrderID{value: n.String(), numeric: true}
	}
	return nil
}

// Text is a display string that tolerates numbers and booleans on the wire.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case 'n', '{', '[':
		*t = ""
	default:
		*t = Text(data)
	}
	return nil
}

// TimestampKind says which representation a Timestamp carries.
type TimestampKind int

const (
	TimestampAbsent TimestampKind = iota
	TimestampNumber
	TimestampText
)

// Timestamp is the order's reference instant: epoch milliseconds or a date
// string. Resolution to milliseconds lives in the deadline package.
type Timestamp struct {
	Kind   TimestampKind
	Number float64
	Text   string
}

// MillisTimestamp builds a numeric timestamp.
func MillisTimestamp(ms int64) Timestamp {
	return Timestamp{Kind: TimestampNumber, Number: float64(ms)}
}

// TextTimestamp builds a string timestamp.
func TextTimestamp(s string) Timestamp {
	return Timestamp{Kind: TimestampText, Text: s}
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	switch ts.Kind {
	case TimestampNumber:
		return []byte(strconv.FormatFloat(ts.Number, 'f', -1, 64)), nil
	case TimestampText:
		return json.Marshal(ts.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON never fails: values that are neither numbers nor strings
// decode as absent, which resolves to the epoch.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*ts = Timestamp{}
	if len(data) == 0 {
		return nil
	}
	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*ts = TextTimestamp(s)
		}
	case c == '-' || (c >= '0' && c <= '9'):
		if f, err := strconv.ParseFloat(string(data), 64); err == nil {
			*ts = Timestamp{Kind: TimestampNumber, Number: f}
		}
	}
	return nil
}
