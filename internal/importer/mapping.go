package importer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/stwalsh4118/pfman/internal/models"
)

// Ignored marks a CSV column that is not imported.
const Ignored = "ignored"

var (
	// ErrInvalidMapping is returned for mappings that reference unknown
	// columns or attributes, or map two columns to one attribute.
	ErrInvalidMapping = errors.New("invalid column mapping")

	// ErrInsufficientMapping is returned when the mapped attributes cannot
	// locate a property.
	ErrInsufficientMapping = errors.New("mapping does not provide enough fields to geocode")
)

// Mapping assigns each CSV column an address attribute or Ignored.
type Mapping map[string]string

// aliases maps cleaned header names to attributes.
var aliases = buildAliases(map[models.Attribute][]string{
	models.AttrID:               {"id", "identifier", "prop_id", "property_id", "asset_id", "building_id"},
	models.AttrName:             {"name", "building_name", "property_name", "asset_name"},
	models.AttrUnit:             {"unit", "unit_number", "suite", "apartment", "apt"},
	models.AttrHouseNumber:      {"house_number", "house no", "houseno", "number", "building_no", "bldg_no", "building number"},
	models.AttrStreet:           {"street", "street_name", "road", "rd", "avenue", "ave", "blvd", "boulevard", "dr", "drive", "lane", "way"},
	models.AttrAddressLine:      {"address", "address_line", "address_line_1", "addr line 1", "addr", "street_address"},
	models.AttrNeighborhood:     {"neighborhood", "neighbourhood", "district", "area"},
	models.AttrCity:             {"city", "town", "locality", "municipality"},
	models.AttrCounty:           {"county", "parish"},
	models.AttrState:            {"state", "province", "region", "territory"},
	models.AttrStateCode:        {"state_code"},
	models.AttrCountry:          {"country", "nation"},
	models.AttrCountryCode:      {"country_code"},
	models.AttrPostalCode:       {"postal_code", "zip", "zip_code", "zipcode", "postcode"},
	models.AttrFormattedAddress: {"formatted_address", "full_address", "complete_address"},
	models.AttrLatitude:         {"latitude", "lat", "y"},
	models.AttrLongitude:        {"longitude", "lng", "lon", "long", "x"},
})

func buildAliases(table map[models.Attribute][]string) map[string]models.Attribute {
	out := make(map[string]models.Attribute)
	for attr, names := range table {
		for _, name := range names {
			out[cleanHeader(name)] = attr
		}
	}
	return out
}

// cleanHeader lower-cases name and drops everything but letters and digits,
// so "Zip Code", "zip_code" and "ZIP-CODE" compare equal.
func cleanHeader(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SuggestMapping guesses an attribute for every column from the alias
// table. Unrecognized columns, and columns whose attribute was already
// taken by an earlier column, are Ignored.
func SuggestMapping(header []string) Mapping {
	mapping := make(Mapping, len(header))
	taken := make(map[models.Attribute]bool)
	for _, column := range header {
		attr, ok := aliases[cleanHeader(column)]
		if !ok || taken[attr] {
			mapping[column] = Ignored
			continue
		}
		taken[attr] = true
		mapping[column] = string(attr)
	}
	return mapping
}

// ValidateMapping checks that every mapped column exists in header, targets
// a known attribute at most once, and that the mapped attributes can
// locate a property.
func ValidateMapping(header []string, mapping Mapping) error {
	columns := make(map[string]bool, len(header))
	for _, column := range header {
		columns[column] = true
	}

	var problems []string
	mapped := make(map[string]string)

	keys := make([]string, 0, len(mapping))
	for column := range mapping {
		keys = append(keys, column)
	}
	sort.Strings(keys)

	for _, column := range keys {
		target := mapping[column]
		if !columns[column] {
			problems = append(problems, fmt.Sprintf("column %q is not in the file", column))
			continue
		}
		if target == Ignored || target == "" {
			continue
		}
		if !models.IsValidAttribute(target) {
			problems = append(problems, fmt.Sprintf("column %q maps to unknown attribute %q", column, target))
			continue
		}
		if other, dup := mapped[target]; dup {
			problems = append(problems, fmt.Sprintf("columns %q and %q both map to %s", other, column, target))
			continue
		}
		mapped[target] = column
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidMapping, strings.Join(problems, "; "))
	}

	has := func(a models.Attribute) bool { _, ok := mapped[string(a)]; return ok }
	hasCountry := has(models.AttrCountry) || has(models.AttrCountryCode)

	switch {
	case has(models.AttrFormattedAddress) && hasCountry:
	case has(models.AttrAddressLine) && has(models.AttrCity) && hasCountry:
	case (has(models.AttrHouseNumber) || has(models.AttrName)) && has(models.AttrCity) && hasCountry:
	case has(models.AttrLatitude) && has(models.AttrLongitude):
	default:
		return fmt.Errorf("%w: map formatted_address with country, address_line with city and country, "+
			"house_number or name with city and country, or latitude with longitude", ErrInsufficientMapping)
	}
	return nil
}
