package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is one outcome of a primitive objective: either a categorical label or
// a number. The zero Value is the empty label. Values are comparable and can
// be used as map keys.
type Value struct {
	text    string
	number  float64
	numeric bool
}

// Text returns a label value.
func Text(s string) Value { return Value{text: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{number: f, numeric: true} }

// IsNumeric reports whether v holds a number.
func (v Value) IsNumeric() bool { return v.numeric }

// Float returns the numeric content of v and whether v is numeric.
func (v Value) Float() (float64, bool) { return v.number, v.numeric }

// String renders v for logs and error messages.
func (v Value) String() string {
	if v.numeric {
		return strconv.FormatFloat(v.number, 'g', -1, 64)
	}
	return v.text
}

// MarshalJSON encodes v as a bare JSON string or number.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.numeric {
		return json.Marshal(v.number)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts a JSON string or number.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty outcome value")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("outcome value must be a string or number: %w", err)
	}
	*v = Number(f)
	return nil
}
