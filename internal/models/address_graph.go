package models

import (
	"fmt"
	"strconv"
)

// Property node keys that do not share the attribute name.
const (
	graphKeySourceID = "source_id"
	graphKeyLocation = "location"
)

// GraphProperties flattens the address into Neo4j node properties. Unset
// fields are omitted. Normalized values, the H3 cell and a spatial
// location are written alongside the raw fields so they can be indexed.
func (a Address) GraphProperties() map[string]interface{} {
	props := make(map[string]interface{}, 32)

	put := func(key string, value *string) {
		if value != nil {
			props[key] = *value
		}
	}

	put(graphKeySourceID, a.ID)
	put(string(AttrName), a.Name)
	put(string(AttrUnit), a.Unit)
	put(string(AttrStreet), a.Street)
	put(string(AttrAddressLine), a.AddressLine)
	put(string(AttrNeighborhood), a.Neighborhood)
	put(string(AttrCity), a.City)
	put(string(AttrCounty), a.County)
	put(string(AttrState), a.State)
	put(string(AttrStateCode), a.StateCode)
	put(string(AttrCountry), a.Country)
	put(string(AttrCountryCode), a.CountryCode)
	put(string(AttrPostalCode), a.PostalCode)
	put(string(AttrFormattedAddress), a.FormattedAddress)

	if a.HouseNumber != nil {
		if n, err := strconv.ParseInt(a.HouseNumber.String(), 10, 64); err == nil && a.HouseNumber.IsNumeric() {
			props[string(AttrHouseNumber)] = n
		} else {
			props[string(AttrHouseNumber)] = a.HouseNumber.String()
		}
	}
	if a.Latitude != nil {
		props[string(AttrLatitude)] = *a.Latitude
	}
	if a.Longitude != nil {
		props[string(AttrLongitude)] = *a.Longitude
	}
	if pt := a.Point(); pt != nil {
		props[graphKeyLocation] = pt.Neo4j()
	}

	put("normalized_name", a.NormalizedName())
	put("normalized_house_number", a.NormalizedHouseNumber())
	put("normalized_street", a.NormalizedStreet())
	put("normalized_neighborhood", a.NormalizedNeighborhood())
	put("normalized_city", a.NormalizedCity())
	put("normalized_county", a.NormalizedCounty())
	put("normalized_state", a.NormalizedState())
	put("normalized_state_code", a.NormalizedStateCode())
	put("normalized_country", a.NormalizedCountry())
	put("normalized_country_code", a.NormalizedCountryCode())
	put("normalized_postal_code", a.NormalizedPostalCode())
	put("h3_cell", a.H3Cell())

	return props
}

// AddressFromGraph rebuilds an address from node properties written by
// GraphProperties. Derived keys are ignored.
func AddressFromGraph(props map[string]interface{}) (Address, error) {
	var a Address
	var err error

	get := func(key string) *string {
		if err != nil {
			return nil
		}
		v, ok := props[key]
		if !ok || v == nil {
			return nil
		}
		s, isString := v.(string)
		if !isString {
			err = fmt.Errorf("property %s: expected string, got %T", key, v)
			return nil
		}
		return &s
	}

	a.ID = get(graphKeySourceID)
	a.Name = get(string(AttrName))
	a.Unit = get(string(AttrUnit))
	a.Street = get(string(AttrStreet))
	a.AddressLine = get(string(AttrAddressLine))
	a.Neighborhood = get(string(AttrNeighborhood))
	a.City = get(string(AttrCity))
	a.County = get(string(AttrCounty))
	a.State = get(string(AttrState))
	a.StateCode = get(string(AttrStateCode))
	a.Country = get(string(AttrCountry))
	a.CountryCode = get(string(AttrCountryCode))
	a.PostalCode = get(string(AttrPostalCode))
	a.FormattedAddress = get(string(AttrFormattedAddress))
	if err != nil {
		return Address{}, err
	}

	switch hn := props[string(AttrHouseNumber)].(type) {
	case nil:
	case int64:
		a.HouseNumber = IntHouseNumber(hn)
	case string:
		a.HouseNumber = StringHouseNumber(hn)
	default:
		return Address{}, fmt.Errorf("property house_number: unexpected type %T", hn)
	}

	for key, dst := range map[string]**float64{
		string(AttrLatitude):  &a.Latitude,
		string(AttrLongitude): &a.Longitude,
	} {
		switch f := props[key].(type) {
		case nil:
		case float64:
			v := f
			*dst = &v
		case int64:
			v := float64(f)
			*dst = &v
		default:
			return Address{}, fmt.Errorf("property %s: expected float, got %T", key, f)
		}
	}

	return a, nil
}
