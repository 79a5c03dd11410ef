package models

import (
	"errors"
	"time"
)

const msgNotPropertyAddress = "Address must include coordinates, a formatted address, " +
	"an address line with country, or a house number or name with street and country"

// Portfolio is a named collection of properties.
type Portfolio struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Properties  []Property `json:"properties"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Property is a single addressed asset inside a portfolio.
type Property struct {
	ID      string  `json:"id"`
	Address Address `json:"address"`
}

// PortfolioSummary is the list view of a portfolio.
type PortfolioSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	PropertyCount int       `json:"property_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreatePortfolioPayload is the request body for creating a portfolio.
type CreatePortfolioPayload struct {
	Title       string         `json:"title" binding:"required,min=1,max=200"`
	Description *string        `json:"description" binding:"omitempty,max=2000"`
	Properties  []AddressInput `json:"properties" binding:"required"`
}

// BuildPropertyAddresses validates every input as a property address.
// Failures carry a "properties[i]." prefix and are returned together.
func BuildPropertyAddresses(inputs []AddressInput, resolver Resolver) ([]Address, error) {
	addresses := make([]Address, 0, len(inputs))
	var errs ValidationErrors

	for i, in := range inputs {
		prefix := indexPrefix("properties", i)
		addr, err := NewAddress(in, resolver)
		if err != nil {
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				return nil, err
			}
			errs = append(errs, verrs.Prefixed(prefix)...)
			continue
		}
		if !addr.IsValidPropertyAddress() {
			errs = append(errs, FieldError{Field: prefix[:len(prefix)-1], Message: msgNotPropertyAddress})
			continue
		}
		addresses = append(addresses, *addr)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return addresses, nil
}
