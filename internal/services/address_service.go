package services

import (
	"github.com/stwalsh4118/pfman/internal/geocoding"
	"github.com/stwalsh4118/pfman/internal/logger"
	"github.com/stwalsh4118/pfman/internal/models"
)

// NormalizedAddress is the result of validating and reconciling one address.
type NormalizedAddress struct {
	Address                *models.Address         `json:"address"`
	IsValidPropertyAddress bool                    `json:"is_valid_property_address"`
	Subsets                []models.GranularSubset `json:"subsets"`
}

// AddressService validates free-form addresses against the reference data.
type AddressService interface {
	// Normalize validates in, reconciles its country and state, and
	// returns the address with its granular subsets.
	// Returns models.ValidationErrors when a field is malformed.
	Normalize(in models.AddressInput) (*NormalizedAddress, error)

	// NormalizeField applies the normalizer for kind to text.
	NormalizeField(kind, text string) (string, error)
}

type addressService struct {
	resolver models.Resolver
	log      *logger.Logger
}

// NewAddressService creates a new instance of AddressService.
func NewAddressService(resolver models.Resolver, log *logger.Logger) AddressService {
	return &addressService{resolver: resolver, log: log}
}

func (s *addressService) Normalize(in models.AddressInput) (*NormalizedAddress, error) {
	addr, err := models.NewAddress(in, s.resolver)
	if err != nil {
		return nil, err
	}

	subsets := addr.Subsets()
	if subsets == nil {
		subsets = []models.GranularSubset{}
	}

	s.log.Debug("Address normalized", map[string]interface{}{
		"subsets": len(subsets),
	})
	return &NormalizedAddress{
		Address:                addr,
		IsValidPropertyAddress: addr.IsValidPropertyAddress(),
		Subsets:                subsets,
	}, nil
}

func (s *addressService) NormalizeField(kind, text string) (string, error) {
	return geocoding.NormalizeField(kind, text)
}
