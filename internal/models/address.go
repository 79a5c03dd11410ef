package models

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/pfman/internal/geo"
	"github.com/stwalsh4118/pfman/internal/geocoding"
	"github.com/uber/h3-go/v4"
)

// H3Resolution is the H3 grid resolution used for address cells (~1m²).
const H3Resolution = 15

var (
	houseNumberPattern = regexp.MustCompile(`^\p{Nd}+[-\p{L}\p{N}_]*?$`)
	addressLinePattern = regexp.MustCompile(`^(\p{Nd}+[-\p{L}\p{N}_]*?)[\s\v\p{Z}\x{85}]+(.*)$`)
	// Single underscores may separate digit groups, as in "1_000".
	groupedIntPattern  = regexp.MustCompile(`^[+-]?[0-9]+(_[0-9]+)*$`)
)

// Validation messages.
const (
	msgHouseNumberInvalid = "House number must be a valid number"
	msgHouseNumberType    = "House number must be a string or an integer"
	msgLatitudeType       = "Latitude must be a number"
	msgLatitudeRange      = "Latitude must be between -90 and 90"
	msgLongitudeType      = "Longitude must be a number"
	msgLongitudeRange     = "Longitude must be between -180 and 180"
)

var rangeMessages = map[string]string{
	string(AttrLatitude):  msgLatitudeRange,
	string(AttrLongitude): msgLongitudeRange,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Resolver looks up reference countries and states during reconciliation.
type Resolver interface {
	GetCountry(q geo.CountryQuery) (*geo.Country, error)
	GetState(q geo.SubdivisionQuery) (*geo.Subdivision, error)
}

// AddressInput is the loosely typed payload an Address is built from.
// house_number, latitude and longitude may arrive as strings or numbers.
type AddressInput struct {
	ID               *string     `json:"id"`
	Name             *string     `json:"name"`
	Unit             *string     `json:"unit"`
	HouseNumber      interface{} `json:"house_number"`
	Street           *string     `json:"street"`
	AddressLine      *string     `json:"address_line"`
	Neighborhood     *string     `json:"neighborhood"`
	City             *string     `json:"city"`
	County           *string     `json:"county"`
	State            *string     `json:"state"`
	StateCode        *string     `json:"state_code"`
	Country          *string     `json:"country"`
	CountryCode      *string     `json:"country_code"`
	PostalCode       *string     `json:"postal_code"`
	FormattedAddress *string     `json:"formatted_address"`
	Latitude         interface{} `json:"latitude"`
	Longitude        interface{} `json:"longitude"`
}

// Address is a validated and reconciled postal address. Nil fields are unset.
// Build one with NewAddress; the zero value is an empty address.
type Address struct {
	ID               *string      `json:"id"`
	Name             *string      `json:"name"`
	Unit             *string      `json:"unit"`
	HouseNumber      *HouseNumber `json:"house_number"`
	Street           *string      `json:"street"`
	AddressLine      *string      `json:"address_line"`
	Neighborhood     *string      `json:"neighborhood"`
	City             *string      `json:"city"`
	County           *string      `json:"county"`
	State            *string      `json:"state"`
	StateCode        *string      `json:"state_code"`
	Country          *string      `json:"country"`
	CountryCode      *string      `json:"country_code"`
	PostalCode       *string      `json:"postal_code"`
	FormattedAddress *string      `json:"formatted_address"`
	Latitude         *float64     `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude        *float64     `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

// NewAddress validates in and reconciles the result against resolver.
// Every field failure is reported together as ValidationErrors.
// A nil resolver skips country and state reconciliation.
func NewAddress(in AddressInput, resolver Resolver) (*Address, error) {
	var errs ValidationErrors

	a := &Address{
		ID:               optional(in.ID),
		Name:             optional(in.Name),
		Unit:             optional(in.Unit),
		Street:           optional(in.Street),
		AddressLine:      optional(in.AddressLine),
		Neighborhood:     optional(in.Neighborhood),
		City:             optional(in.City),
		County:           optional(in.County),
		State:            optional(in.State),
		StateCode:        optional(in.StateCode),
		Country:          optional(in.Country),
		CountryCode:      optional(in.CountryCode),
		PostalCode:       optional(in.PostalCode),
		FormattedAddress: optional(in.FormattedAddress),
	}

	hn, msg := coerceHouseNumber(in.HouseNumber)
	if msg != "" {
		errs = append(errs, FieldError{Field: string(AttrHouseNumber), Message: msg})
	}
	a.HouseNumber = hn

	lat, ok := coerceFloat(in.Latitude)
	if !ok {
		errs = append(errs, FieldError{Field: string(AttrLatitude), Message: msgLatitudeType})
	}
	a.Latitude = lat

	lon, ok := coerceFloat(in.Longitude)
	if !ok {
		errs = append(errs, FieldError{Field: string(AttrLongitude), Message: msgLongitudeType})
	}
	a.Longitude = lon

	if err := validate.Struct(a); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, fmt.Errorf("validate address: %w", err)
		}
		for _, fe := range verrs {
			msg, known := rangeMessages[fe.Field()]
			if !known {
				msg = fmt.Sprintf("failed %s validation", fe.Tag())
			}
			errs = append(errs, FieldError{Field: fe.Field(), Message: msg})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	if err := a.reconcile(resolver); err != nil {
		return nil, err
	}
	return a, nil
}

func optional(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}

// coerceHouseNumber returns the parsed house number or a validation message.
func coerceHouseNumber(v interface{}) (*HouseNumber, string) {
	switch t := v.(type) {
	case nil:
		return nil, ""
	case int:
		return IntHouseNumber(int64(t)), ""
	case int32:
		return IntHouseNumber(int64(t)), ""
	case int64:
		return IntHouseNumber(t), ""
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) || t != math.Trunc(t) || math.Abs(t) > 1<<53 {
			return nil, msgHouseNumberType
		}
		return IntHouseNumber(int64(t)), ""
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return nil, msgHouseNumberType
		}
		return IntHouseNumber(n), ""
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, ""
		}
		if n, err := parseGroupedInt(s); err == nil {
			return IntHouseNumber(n), ""
		}
		if houseNumberPattern.MatchString(s) {
			return StringHouseNumber(s), ""
		}
		return nil, msgHouseNumberInvalid
	default:
		return nil, msgHouseNumberType
	}
}

func parseGroupedInt(s string) (int64, error) {
	if strings.Contains(s, "_") {
		if !groupedIntPattern.MatchString(s) {
			return 0, strconv.ErrSyntax
		}
		s = strings.ReplaceAll(s, "_", "")
	}
	return strconv.ParseInt(s, 10, 64)
}

// coerceFloat parses a number or numeric string. Empty strings are unset.
func coerceFloat(v interface{}) (*float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil, true
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, true
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		f = parsed
	default:
		return nil, false
	}
	return &f, true
}

// reconcile derives house_number and street from address_line and
// canonicalizes country and state against the reference data.
func (a *Address) reconcile(resolver Resolver) error {
	if a.AddressLine != nil {
		if m := addressLinePattern.FindStringSubmatch(strings.TrimSpace(*a.AddressLine)); m != nil {
			if a.HouseNumber == nil {
				a.HouseNumber = StringHouseNumber(m[1])
			}
			if a.Street == nil {
				street := m[2]
				a.Street = &street
			}
		}
	}

	if resolver == nil {
		return nil
	}

	var country *geo.Country
	for _, q := range []*string{a.CountryCode, a.Country} {
		if q == nil || country != nil {
			continue
		}
		found, err := resolver.GetCountry(geo.CountryQuery{Q: strings.TrimSpace(*q)})
		if err != nil {
			return fmt.Errorf("resolve country %q: %w", *q, err)
		}
		if found != nil {
			country = found
			name, alpha2 := found.DisplayName(), found.Alpha2
			a.Country, a.CountryCode = &name, &alpha2
		}
	}

	countryCode := ""
	if country != nil {
		countryCode = country.Alpha2
	}

	var state *geo.Subdivision
	for _, q := range []*string{a.StateCode, a.State} {
		if q == nil || state != nil {
			continue
		}
		found, err := resolver.GetState(geo.SubdivisionQuery{Q: strings.TrimSpace(*q), CountryCode: countryCode})
		if err != nil {
			return fmt.Errorf("resolve state %q: %w", *q, err)
		}
		if found != nil {
			state = found
			name, code := found.Name, found.StateCode()
			a.State, a.StateCode = &name, &code
		}
	}

	return nil
}

func normalized(s *string, fn func(string) string) *string {
	if s == nil {
		return nil
	}
	v := fn(*s)
	return &v
}

func (a Address) NormalizedName() *string { return normalized(a.Name, geocoding.Normalize) }

// NormalizedHouseNumber keeps integers as their decimal form and
// normalizes anything else.
func (a Address) NormalizedHouseNumber() *string {
	if a.HouseNumber == nil {
		return nil
	}
	v := a.HouseNumber.String()
	if !a.HouseNumber.IsNumeric() {
		v = geocoding.Normalize(v)
	}
	return &v
}

func (a Address) NormalizedStreet() *string {
	return normalized(a.Street, geocoding.NormalizeStreetName)
}

func (a Address) NormalizedNeighborhood() *string {
	return normalized(a.Neighborhood, geocoding.Normalize)
}

func (a Address) NormalizedCity() *string { return normalized(a.City, geocoding.NormalizeCityName) }

func (a Address) NormalizedCounty() *string {
	return normalized(a.County, geocoding.NormalizeCountyName)
}

func (a Address) NormalizedState() *string { return normalized(a.State, geocoding.NormalizeStateName) }

func (a Address) NormalizedStateCode() *string { return normalized(a.StateCode, geocoding.Normalize) }

func (a Address) NormalizedCountry() *string { return normalized(a.Country, geocoding.Normalize) }

func (a Address) NormalizedCountryCode() *string {
	return normalized(a.CountryCode, geocoding.Normalize)
}

func (a Address) NormalizedPostalCode() *string {
	return normalized(a.PostalCode, geocoding.NormalizePostalCode)
}

// H3Cell is the resolution 15 H3 cell containing the coordinates, or nil
// unless both latitude and longitude are set.
func (a Address) H3Cell() *string {
	if a.Latitude == nil || a.Longitude == nil {
		return nil
	}
	cell := h3.LatLngToCell(h3.NewLatLng(*a.Latitude, *a.Longitude), H3Resolution).String()
	return &cell
}

// IsValidPropertyAddress reports whether the address carries enough to
// locate a single property.
func (a Address) IsValidPropertyAddress() bool {
	switch {
	case a.Latitude != nil && a.Longitude != nil:
		return true
	case a.FormattedAddress != nil:
		return true
	case a.AddressLine != nil && a.Country != nil:
		return true
	case (a.Name != nil || a.HouseNumber != nil) && a.Street != nil && a.Country != nil:
		return true
	}
	return false
}

// PickSubset returns a copy holding only the listed attributes. Unknown
// attribute names are ignored.
func (a Address) PickSubset(attributes []Attribute) Address {
	var out Address
	for _, attr := range attributes {
		switch attr {
		case AttrID:
			out.ID = a.ID
		case AttrName:
			out.Name = a.Name
		case AttrUnit:
			out.Unit = a.Unit
		case AttrHouseNumber:
			out.HouseNumber = a.HouseNumber
		case AttrStreet:
			out.Street = a.Street
		case AttrAddressLine:
			out.AddressLine = a.AddressLine
		case AttrNeighborhood:
			out.Neighborhood = a.Neighborhood
		case AttrCity:
			out.City = a.City
		case AttrCounty:
			out.County = a.County
		case AttrState:
			out.State = a.State
		case AttrStateCode:
			out.StateCode = a.StateCode
		case AttrCountry:
			out.Country = a.Country
		case AttrCountryCode:
			out.CountryCode = a.CountryCode
		case AttrPostalCode:
			out.PostalCode = a.PostalCode
		case AttrFormattedAddress:
			out.FormattedAddress = a.FormattedAddress
		case AttrLatitude:
			out.Latitude = a.Latitude
		case AttrLongitude:
			out.Longitude = a.Longitude
		}
	}
	return out
}

// IsEmpty reports whether no field is set.
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// GranularSubset is the part of an address usable at one granularity.
type GranularSubset struct {
	Granularity Granularity `json:"granularity"`
	Address     Address     `json:"address"`
}

// Subsets returns the non-empty subsets from finest to coarsest
// granularity, the order in which a geocoder should try them. Adjacent
// granularities that select the same fields collapse into one entry
// labelled with the coarser granularity.
func (a Address) Subsets() []GranularSubset {
	subsets := make([]GranularSubset, 0, len(Granularities))
	for _, g := range Granularities {
		subset := a.PickSubset(g.Attributes())
		if subset.IsEmpty() {
			continue
		}
		if n := len(subsets); n > 0 && subsets[n-1].Address == subset {
			subsets[n-1].Granularity = g
			continue
		}
		subsets = append(subsets, GranularSubset{Granularity: g, Address: subset})
	}
	return subsets
}

// MarshalJSON emits the stored fields followed by the derived normalized
// values and the H3 cell.
func (a Address) MarshalJSON() ([]byte, error) {
	type plain Address
	return json.Marshal(struct {
		plain
		NormalizedName         *string `json:"normalized_name"`
		NormalizedHouseNumber  *string `json:"normalized_house_number"`
		NormalizedStreet       *string `json:"normalized_street"`
		NormalizedNeighborhood *string `json:"normalized_neighborhood"`
		NormalizedCity         *string `json:"normalized_city"`
		NormalizedCounty       *string `json:"normalized_county"`
		NormalizedState        *string `json:"normalized_state"`
		NormalizedStateCode    *string `json:"normalized_state_code"`
		NormalizedCountry      *string `json:"normalized_country"`
		NormalizedCountryCode  *string `json:"normalized_country_code"`
		NormalizedPostalCode   *string `json:"normalized_postal_code"`
		H3Cell                 *string `json:"h3_cell"`
	}{
		plain:                  plain(a),
		NormalizedName:         a.NormalizedName(),
		NormalizedHouseNumber:  a.NormalizedHouseNumber(),
		NormalizedStreet:       a.NormalizedStreet(),
		NormalizedNeighborhood: a.NormalizedNeighborhood(),
		NormalizedCity:         a.NormalizedCity(),
		NormalizedCounty:       a.NormalizedCounty(),
		NormalizedState:        a.NormalizedState(),
		NormalizedStateCode:    a.NormalizedStateCode(),
		NormalizedCountry:      a.NormalizedCountry(),
		NormalizedCountryCode:  a.NormalizedCountryCode(),
		NormalizedPostalCode:   a.NormalizedPostalCode(),
		H3Cell:                 a.H3Cell(),
	})
}
