package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// HouseNumber is either an integer ("123") or a street number with a
// suffix or range ("123B", "45-12"). Integers encode as JSON numbers.
type HouseNumber struct {
	value   string
	numeric bool
}

// IntHouseNumber returns a numeric house number.
func IntHouseNumber(n int64) *HouseNumber {
	return &HouseNumber{value: strconv.FormatInt(n, 10), numeric: true}
}

// StringHouseNumber returns a house number kept as text.
func StringHouseNumber(s string) *HouseNumber {
	return &HouseNumber{value: s}
}

// String returns the house number as text.
func (h HouseNumber) String() string {
	return h.value
}

// IsNumeric reports whether the house number is an integer.
func (h HouseNumber) IsNumeric() bool {
	return h.numeric
}

// MarshalJSON encodes integers as numbers and everything else as strings.
func (h HouseNumber) MarshalJSON() ([]byte, error) {
	if h.numeric {
		return []byte(h.value), nil
	}
	return json.Marshal(h.value)
}

// UnmarshalJSON accepts a JSON integer or string. It does not validate;
// use NewAddress for that.
func (h *HouseNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = HouseNumber{value: s}
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("house number must be a string or an integer: %s", data)
	}
	*h = HouseNumber{value: strconv.FormatInt(n, 10), numeric: true}
	return nil
}
