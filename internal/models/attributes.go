package models

// Attribute names an address field usable for geocoding.
type Attribute string

const (
	AttrID               Attribute = "id"
	AttrName             Attribute = "name"
	AttrUnit             Attribute = "unit"
	AttrHouseNumber      Attribute = "house_number"
	AttrStreet           Attribute = "street"
	AttrAddressLine      Attribute = "address_line"
	AttrNeighborhood     Attribute = "neighborhood"
	AttrCity             Attribute = "city"
	AttrCounty           Attribute = "county"
	AttrState            Attribute = "state"
	AttrStateCode        Attribute = "state_code"
	AttrCountry          Attribute = "country"
	AttrCountryCode      Attribute = "country_code"
	AttrPostalCode       Attribute = "postal_code"
	AttrFormattedAddress Attribute = "formatted_address"
	AttrLatitude         Attribute = "latitude"
	AttrLongitude        Attribute = "longitude"
)

// AllAttributes lists every attribute in canonical column order.
var AllAttributes = []Attribute{
	AttrID, AttrName, AttrUnit, AttrHouseNumber, AttrStreet, AttrAddressLine,
	AttrNeighborhood, AttrCity, AttrCounty, AttrState, AttrStateCode,
	AttrCountry, AttrCountryCode, AttrPostalCode, AttrFormattedAddress,
	AttrLatitude, AttrLongitude,
}

// Nested attribute sets. Each coarser set is a suffix of the finer ones.
var (
	CountryAttributes      = []Attribute{AttrCountry, AttrCountryCode}
	StateAttributes        = extend([]Attribute{AttrState, AttrStateCode}, CountryAttributes)
	CountyAttributes       = extend([]Attribute{AttrCounty}, StateAttributes)
	CityAttributes         = extend([]Attribute{AttrCity}, CountyAttributes)
	NeighborhoodAttributes = extend([]Attribute{AttrNeighborhood}, CityAttributes)
	StreetAttributes       = extend([]Attribute{AttrStreet}, NeighborhoodAttributes)
	PropertyAttributes     = extend([]Attribute{
		AttrName, AttrHouseNumber, AttrStreet, AttrAddressLine, AttrPostalCode,
		AttrFormattedAddress, AttrLatitude, AttrLongitude,
	}, StreetAttributes)
	UnitAttributes = extend([]Attribute{AttrUnit}, PropertyAttributes)
)

func extend(head, tail []Attribute) []Attribute {
	out := make([]Attribute, 0, len(head)+len(tail))
	out = append(out, head...)
	return append(out, tail...)
}

// Granularity is a geocoding precision level.
type Granularity string

const (
	GranularityUnit         Granularity = "unit"
	GranularityProperty     Granularity = "property"
	GranularityStreet       Granularity = "street"
	GranularityNeighborhood Granularity = "neighborhood"
	GranularityCity         Granularity = "city"
	GranularityCounty       Granularity = "county"
	GranularityState        Granularity = "state"
	GranularityCountry      Granularity = "country"
)

// Granularities is ordered finest first.
var Granularities = []Granularity{
	GranularityUnit, GranularityProperty, GranularityStreet, GranularityNeighborhood,
	GranularityCity, GranularityCounty, GranularityState, GranularityCountry,
}

// Attributes returns the attribute set for g, or nil for an unknown granularity.
func (g Granularity) Attributes() []Attribute {
	switch g {
	case GranularityUnit:
		return UnitAttributes
	case GranularityProperty:
		return PropertyAttributes
	case GranularityStreet:
		return StreetAttributes
	case GranularityNeighborhood:
		return NeighborhoodAttributes
	case GranularityCity:
		return CityAttributes
	case GranularityCounty:
		return CountyAttributes
	case GranularityState:
		return StateAttributes
	case GranularityCountry:
		return CountryAttributes
	}
	return nil
}

// IsValidAttribute reports whether name is a known attribute.
func IsValidAttribute(name string) bool {
	for _, a := range AllAttributes {
		if string(a) == name {
			return true
		}
	}
	return false
}
