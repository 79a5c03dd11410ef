// Package geo resolves countries (ISO 3166-1) and their subdivisions
// (ISO 3166-2) from free-text names and codes.
package geo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Country is an ISO 3166-1 entry.
type Country struct {
	Name         string `json:"name"`
	OfficialName string `json:"official_name,omitempty"`
	Alpha2       string `json:"alpha_2"`
	Alpha3       string `json:"alpha_3"`
	Numeric      int    `json:"numeric"`
	Flag         string `json:"flag,omitempty"`
}

// DisplayName is the official name when one exists, the common name otherwise.
func (c Country) DisplayName() string {
	if c.OfficialName != "" {
		return c.OfficialName
	}
	return c.Name
}

// NumericCode is the zero-padded three digit form, e.g. "004".
func (c Country) NumericCode() string {
	return fmt.Sprintf("%03d", c.Numeric)
}

// Subdivision is an ISO 3166-2 entry such as a state, province or region.
type Subdivision struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Code        string `json:"code"`
	CountryCode string `json:"country_code"`
	ParentCode  string `json:"parent_code,omitempty"`
}

// StateCode is the last segment of the code: "CA" for "US-CA".
func (s Subdivision) StateCode() string {
	return s.Code[strings.LastIndex(s.Code, "-")+1:]
}

// MarshalJSON adds the derived state_code.
func (s Subdivision) MarshalJSON() ([]byte, error) {
	type plain Subdivision
	return json.Marshal(struct {
		plain
		StateCode string `json:"state_code"`
	}{plain: plain(s), StateCode: s.StateCode()})
}

// CountryQuery selects a country. Any combination of fields may be set;
// a country matches when any populated field matches it.
type CountryQuery struct {
	// Q matches the name, official name, alpha-2, alpha-3 or numeric code.
	Q string
	// Name matches the name or official name.
	Name string
	// Code matches the alpha-2, alpha-3 or numeric code.
	Code string
	// Numeric matches the numeric code. Zero means unset.
	Numeric int
}

func (q CountryQuery) empty() bool {
	return q.Q == "" && q.Name == "" && q.Code == "" && q.Numeric == 0
}

// SubdivisionQuery selects subdivisions. Q, Name and Code are alternatives;
// ParentCode, CountryCode and Level narrow the result.
type SubdivisionQuery struct {
	Q           string
	Name        string
	Code        string
	ParentCode  string
	CountryCode string
	// Level is the depth in the subdivision tree, 1 for top-level. Zero means unset.
	Level int
}

func (q SubdivisionQuery) empty() bool {
	return !q.hasText() && q.ParentCode == "" && q.CountryCode == "" && q.Level == 0
}

func (q SubdivisionQuery) hasText() bool {
	return q.Q != "" || q.Name != "" || q.Code != ""
}
