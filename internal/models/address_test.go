package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/pfman/internal/geo"
	"github.com/stwalsh4118/pfman/internal/logger"
	"github.com/uber/h3-go/v4"
)

func str(s string) *string { return &s }

func f64(f float64) *float64 { return &f }

func newResolver(t *testing.T) *geo.Resolver {
	t.Helper()
	ds, err := geo.DefaultDataset()
	require.NoError(t, err)
	r, err := geo.NewResolver(ds, logger.New("test"))
	require.NoError(t, err)
	return r
}

// MockResolver is a mock implementation of Resolver for testing
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) GetCountry(q geo.CountryQuery) (*geo.Country, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geo.Country), args.Error(1)
}

func (m *MockResolver) GetState(q geo.SubdivisionQuery) (*geo.Subdivision, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geo.Subdivision), args.Error(1)
}

func fieldErrors(t *testing.T, err error) ValidationErrors {
	t.Helper()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
	return verrs
}

func TestNewAddress_HouseNumber(t *testing.T) {
	tests := []struct {
		name        string
		input       interface{}
		wantValue   string
		wantNumeric bool
		wantNil     bool
		wantErr     string
	}{
		{name: "int", input: 123, wantValue: "123", wantNumeric: true},
		{name: "integral json number", input: float64(42), wantValue: "42", wantNumeric: true},
		{name: "json.Number", input: json.Number("9"), wantValue: "9", wantNumeric: true},
		{name: "digit string", input: "  77 ", wantValue: "77", wantNumeric: true},
		{name: "leading zeros", input: "007", wantValue: "7", wantNumeric: true},
		{name: "letter suffix", input: "123B", wantValue: "123B"},
		{name: "range", input: "45-12", wantValue: "45-12"},
		{name: "accented suffix", input: "12É", wantValue: "12É"},
		{name: "underscore grouped digits", input: "1_000", wantValue: "1000", wantNumeric: true},
		{name: "doubled underscore", input: "1__000", wantValue: "1__000"},
		{name: "trailing underscore", input: "12_", wantValue: "12_"},
		{name: "empty string", input: "", wantNil: true},
		{name: "blank string", input: "   ", wantNil: true},
		{name: "nil", input: nil, wantNil: true},
		{name: "letters", input: "abc", wantErr: msgHouseNumberInvalid},
		{name: "inner space", input: "12 B", wantErr: msgHouseNumberInvalid},
		{name: "fraction", input: 12.5, wantErr: msgHouseNumberType},
		{name: "bool", input: true, wantErr: msgHouseNumberType},
		{name: "list", input: []interface{}{"1"}, wantErr: msgHouseNumberType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := NewAddress(AddressInput{HouseNumber: tt.input}, nil)

			if tt.wantErr != "" {
				verrs := fieldErrors(t, err)
				require.Len(t, verrs, 1)
				assert.Equal(t, FieldError{Field: "house_number", Message: tt.wantErr}, verrs[0])
				return
			}

			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, addr.HouseNumber)
				return
			}
			require.NotNil(t, addr.HouseNumber)
			assert.Equal(t, tt.wantValue, addr.HouseNumber.String())
			assert.Equal(t, tt.wantNumeric, addr.HouseNumber.IsNumeric())
		})
	}
}

func TestNewAddress_Coordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     interface{}
		lon     interface{}
		wantLat *float64
		wantLon *float64
		wantErr map[string]string
	}{
		{name: "numeric strings", lat: " 45.5 ", lon: "-122.6", wantLat: f64(45.5), wantLon: f64(-122.6)},
		{name: "numbers", lat: 30.2672, lon: -97.7431, wantLat: f64(30.2672), wantLon: f64(-97.7431)},
		{name: "integers", lat: 45, lon: 7, wantLat: f64(45), wantLon: f64(7)},
		{name: "boundaries", lat: -90.0, lon: 180.0, wantLat: f64(-90), wantLon: f64(180)},
		{name: "empty strings are unset", lat: "", lon: "  "},
		{name: "not a number", lat: "north", lon: "east", wantErr: map[string]string{
			"latitude":  msgLatitudeType,
			"longitude": msgLongitudeType,
		}},
		{name: "out of range", lat: 91.0, lon: "-180.5", wantErr: map[string]string{
			"latitude":  msgLatitudeRange,
			"longitude": msgLongitudeRange,
		}},
		{name: "wrong type", lat: map[string]interface{}{}, lon: 0.0, wantErr: map[string]string{
			"latitude": msgLatitudeType,
		}},
		{name: "nan", lat: "NaN", lon: 1.0, wantErr: map[string]string{
			"latitude": msgLatitudeRange,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := NewAddress(AddressInput{Latitude: tt.lat, Longitude: tt.lon}, nil)

			if tt.wantErr != nil {
				verrs := fieldErrors(t, err)
				got := make(map[string]string)
				for _, fe := range verrs {
					got[fe.Field] = fe.Message
				}
				assert.Equal(t, tt.wantErr, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantLat, addr.Latitude)
			assert.Equal(t, tt.wantLon, addr.Longitude)
		})
	}
}

func TestNewAddress_CollectsAllErrors(t *testing.T) {
	_, err := NewAddress(AddressInput{HouseNumber: "??", Latitude: "x", Longitude: 500}, nil)

	verrs := fieldErrors(t, err)
	assert.Equal(t, []string{"house_number", "latitude", "longitude"}, verrs.Fields())
}

func TestNewAddress_EmptyStringsAreUnset(t *testing.T) {
	addr, err := NewAddress(AddressInput{Name: str(""), City: str("  "), Street: str("Main St")}, nil)

	require.NoError(t, err)
	assert.Nil(t, addr.Name)
	assert.Nil(t, addr.City)
	assert.Equal(t, "Main St", *addr.Street)
}

func TestNewAddress_AddressLine(t *testing.T) {
	t.Run("fills house number and street", func(t *testing.T) {
		addr, err := NewAddress(AddressInput{AddressLine: str("  123 Main St  ")}, nil)
		require.NoError(t, err)

		require.NotNil(t, addr.HouseNumber)
		assert.Equal(t, "123", addr.HouseNumber.String())
		assert.False(t, addr.HouseNumber.IsNumeric())
		assert.Equal(t, "Main St", *addr.Street)
		assert.Equal(t, "  123 Main St  ", *addr.AddressLine)
	})

	t.Run("suffixed number", func(t *testing.T) {
		addr, err := NewAddress(AddressInput{AddressLine: str("45-12 Queens Blvd")}, nil)
		require.NoError(t, err)
		assert.Equal(t, "45-12", addr.HouseNumber.String())
		assert.Equal(t, "Queens Blvd", *addr.Street)
	})

	t.Run("accented suffix and non-breaking space", func(t *testing.T) {
		addr, err := NewAddress(AddressInput{AddressLine: str("12É\u00a0Rue de Rivoli")}, nil)
		require.NoError(t, err)
		require.NotNil(t, addr.HouseNumber)
		assert.Equal(t, "12É", addr.HouseNumber.String())
		assert.Equal(t, "Rue de Rivoli", *addr.Street)
	})

	t.Run("keeps explicit fields", func(t *testing.T) {
		addr, err := NewAddress(AddressInput{
			AddressLine: str("123 Main St"),
			HouseNumber: 9,
			Street:      str("Elm St"),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "9", addr.HouseNumber.String())
		assert.Equal(t, "Elm St", *addr.Street)
	})

	t.Run("no leading number", func(t *testing.T) {
		addr, err := NewAddress(AddressInput{AddressLine: str("Main St")}, nil)
		require.NoError(t, err)
		assert.Nil(t, addr.HouseNumber)
		assert.Nil(t, addr.Street)
	})
}

func TestNewAddress_ReconcilesCountryAndState(t *testing.T) {
	r := newResolver(t)

	tests := []struct {
		name            string
		input           AddressInput
		wantCountry     *string
		wantCountryCode *string
		wantState       *string
		wantStateCode   *string
	}{
		{
			name:            "country code",
			input:           AddressInput{CountryCode: str("us")},
			wantCountry:     str("United States of America"),
			wantCountryCode: str("US"),
		},
		{
			name:            "country name without official name",
			input:           AddressInput{Country: str("Canada")},
			wantCountry:     str("Canada"),
			wantCountryCode: str("CA"),
		},
		{
			name:            "unknown country code falls back to name",
			input:           AddressInput{CountryCode: str("ZZ"), Country: str("germany")},
			wantCountry:     str("Federal Republic of Germany"),
			wantCountryCode: str("DE"),
		},
		{
			name:            "unknown country left as given",
			input:           AddressInput{Country: str("Atlantis")},
			wantCountry:     str("Atlantis"),
			wantCountryCode: nil,
		},
		{
			name:            "state code scoped by country",
			input:           AddressInput{CountryCode: str("US"), StateCode: str("wa")},
			wantCountry:     str("United States of America"),
			wantCountryCode: str("US"),
			wantState:       str("Washington"),
			wantStateCode:   str("WA"),
		},
		{
			name:          "state name without country",
			input:         AddressInput{State: str("texas")},
			wantState:     str("Texas"),
			wantStateCode: str("TX"),
		},
		{
			name:          "ambiguous state code left as given",
			input:         AddressInput{StateCode: str("WA")},
			wantStateCode: str("WA"),
		},
		{
			name:            "state resolved from name after code misses",
			input:           AddressInput{Country: str("DE"), StateCode: str("XX"), State: str("Bayern")},
			wantCountry:     str("Federal Republic of Germany"),
			wantCountryCode: str("DE"),
			wantState:       str("Bayern"),
			wantStateCode:   str("BY"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := NewAddress(tt.input, r)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCountry, addr.Country)
			assert.Equal(t, tt.wantCountryCode, addr.CountryCode)
			assert.Equal(t, tt.wantState, addr.State)
			assert.Equal(t, tt.wantStateCode, addr.StateCode)
		})
	}
}

func TestNewAddress_ReconcileLookupOrder(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("GetCountry", geo.CountryQuery{Q: "XX"}).Return(nil, nil).Once()
	resolver.On("GetCountry", geo.CountryQuery{Q: "France"}).
		Return(&geo.Country{Name: "France", OfficialName: "French Republic", Alpha2: "FR"}, nil).Once()
	resolver.On("GetState", geo.SubdivisionQuery{Q: "IDF", CountryCode: "FR"}).
		Return(&geo.Subdivision{Name: "Île-de-France", Code: "FR-IDF", CountryCode: "FR"}, nil).Once()

	addr, err := NewAddress(AddressInput{
		CountryCode: str("XX"),
		Country:     str("France"),
		StateCode:   str("IDF"),
		State:       str("Paris region"),
	}, resolver)

	require.NoError(t, err)
	assert.Equal(t, "French Republic", *addr.Country)
	assert.Equal(t, "FR", *addr.CountryCode)
	assert.Equal(t, "Île-de-France", *addr.State)
	assert.Equal(t, "IDF", *addr.StateCode)
	resolver.AssertExpectations(t)
	resolver.AssertNumberOfCalls(t, "GetState", 1)
}

func TestNewAddress_ResolverError(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("GetCountry", mock.Anything).Return(nil, geo.ErrMissingCriteria)

	_, err := NewAddress(AddressInput{Country: str("France")}, resolver)

	assert.ErrorIs(t, err, geo.ErrMissingCriteria)
}

func TestAddress_NormalizedFields(t *testing.T) {
	addr, err := NewAddress(AddressInput{
		Name:         str("The Shard."),
		HouseNumber:  "32b",
		Street:       str("London Bridge St"),
		Neighborhood: str("Downtown Southwark"),
		City:         str("City of London"),
		County:       str("Greater London County"),
		State:        str("State of England"),
		StateCode:    str("eng"),
		Country:      str("u.k."),
		CountryCode:  str("gb"),
		PostalCode:   str("se1   9sg"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "THE SHARD", *addr.NormalizedName())
	assert.Equal(t, "32B", *addr.NormalizedHouseNumber())
	assert.Equal(t, "LONDON BRIDGE STREET", *addr.NormalizedStreet())
	assert.Equal(t, "DOWNTOWN SOUTHWARK", *addr.NormalizedNeighborhood())
	assert.Equal(t, "LONDON", *addr.NormalizedCity())
	assert.Equal(t, "GREATER LONDON", *addr.NormalizedCounty())
	assert.Equal(t, "ENGLAND", *addr.NormalizedState())
	assert.Equal(t, "ENG", *addr.NormalizedStateCode())
	assert.Equal(t, "UK", *addr.NormalizedCountry())
	assert.Equal(t, "GB", *addr.NormalizedCountryCode())
	assert.Equal(t, "SE1 9SG", *addr.NormalizedPostalCode())
}

func TestAddress_NormalizedFieldsUnset(t *testing.T) {
	var addr Address

	assert.Nil(t, addr.NormalizedName())
	assert.Nil(t, addr.NormalizedHouseNumber())
	assert.Nil(t, addr.NormalizedStreet())
	assert.Nil(t, addr.NormalizedPostalCode())
	assert.Nil(t, addr.H3Cell())
}

func TestAddress_NormalizedHouseNumber(t *testing.T) {
	assert.Equal(t, "123", *Address{HouseNumber: IntHouseNumber(123)}.NormalizedHouseNumber())
	assert.Equal(t, "1214", *Address{HouseNumber: StringHouseNumber("12-14")}.NormalizedHouseNumber())
}

func TestAddress_H3Cell(t *testing.T) {
	t.Run("resolution 15 cell containing the point", func(t *testing.T) {
		addr := Address{Latitude: f64(37.7749), Longitude: f64(-122.4194)}

		cellID := addr.H3Cell()
		require.NotNil(t, cellID)

		cell := h3.Cell(h3.IndexFromString(*cellID))
		assert.True(t, cell.IsValid())
		assert.Equal(t, 15, cell.Resolution())

		center := cell.LatLng()
		assert.InDelta(t, 37.7749, center.Lat, 1e-4)
		assert.InDelta(t, -122.4194, center.Lng, 1e-4)
		assert.Equal(t, cellID, addr.H3Cell())
	})

	t.Run("zero coordinates are present", func(t *testing.T) {
		addr := Address{Latitude: f64(0), Longitude: f64(0)}
		assert.NotNil(t, addr.H3Cell())
	})

	t.Run("missing longitude", func(t *testing.T) {
		addr := Address{Latitude: f64(10)}
		assert.Nil(t, addr.H3Cell())
	})
}

func TestAddress_IsValidPropertyAddress(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want bool
	}{
		{name: "coordinates", addr: Address{Latitude: f64(1), Longitude: f64(2)}, want: true},
		{name: "formatted address", addr: Address{FormattedAddress: str("1 Main St, Springfield")}, want: true},
		{name: "address line and country", addr: Address{AddressLine: str("1 Main St"), Country: str("US")}, want: true},
		{name: "house number street country", addr: Address{HouseNumber: IntHouseNumber(1), Street: str("Main"), Country: str("US")}, want: true},
		{name: "name street country", addr: Address{Name: str("Tower"), Street: str("Main"), Country: str("US")}, want: true},
		{name: "latitude only", addr: Address{Latitude: f64(1)}, want: false},
		{name: "address line without country", addr: Address{AddressLine: str("1 Main St")}, want: false},
		{name: "street and country only", addr: Address{Street: str("Main"), Country: str("US")}, want: false},
		{name: "city and country", addr: Address{City: str("Austin"), Country: str("US")}, want: false},
		{name: "empty", addr: Address{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.addr.IsValidPropertyAddress())
		})
	}
}

func TestAddress_PickSubset(t *testing.T) {
	addr := Address{
		ID:      str("p-1"),
		Name:    str("Tower"),
		City:    str("Austin"),
		Country: str("United States of America"),
	}

	subset := addr.PickSubset([]Attribute{AttrCity, AttrCountry, AttrState, "planet"})

	assert.Equal(t, Address{City: addr.City, Country: addr.Country}, subset)
	assert.Equal(t, addr, addr.PickSubset(AllAttributes))
	assert.True(t, addr.PickSubset(nil).IsEmpty())
}

func TestAddress_Subsets(t *testing.T) {
	addr := Address{
		Name:    str("Tower"),
		Street:  str("Congress Ave"),
		City:    str("Austin"),
		Country: str("United States of America"),
	}

	subsets := addr.Subsets()

	granularities := make([]Granularity, 0, len(subsets))
	for _, s := range subsets {
		granularities = append(granularities, s.Granularity)
	}
	assert.Equal(t, []Granularity{GranularityProperty, GranularityStreet, GranularityCity, GranularityCountry}, granularities)
	assert.Equal(t, Address{Street: addr.Street, City: addr.City, Country: addr.Country}, subsets[1].Address)
	assert.Equal(t, Address{Country: addr.Country}, subsets[3].Address)
	assert.Empty(t, Address{ID: str("only-id")}.Subsets())
}

func TestAddress_MarshalJSON(t *testing.T) {
	addr := Address{
		HouseNumber: IntHouseNumber(221),
		Street:      str("Baker St"),
		Latitude:    f64(51.5238),
		Longitude:   f64(-0.1586),
	}

	data, err := json.Marshal(addr)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, float64(221), decoded["house_number"])
	assert.Equal(t, "BAKER STREET", decoded["normalized_street"])
	assert.Equal(t, "221", decoded["normalized_house_number"])
	assert.Equal(t, *addr.H3Cell(), decoded["h3_cell"])
	assert.Contains(t, decoded, "city")
	assert.Nil(t, decoded["city"])

	var back Address
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "221", back.HouseNumber.String())
	assert.True(t, back.HouseNumber.IsNumeric())
	assert.Equal(t, *addr.Street, *back.Street)
	assert.Equal(t, *addr.Latitude, *back.Latitude)
}

func TestHouseNumber_JSON(t *testing.T) {
	data, err := json.Marshal(StringHouseNumber("12B"))
	require.NoError(t, err)
	assert.JSONEq(t, `"12B"`, string(data))

	var hn HouseNumber
	assert.Error(t, json.Unmarshal([]byte(`12.5`), &hn))
	assert.Error(t, json.Unmarshal([]byte(`true`), &hn))
}
