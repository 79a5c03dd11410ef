package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "latitude", Message: "Latitude must be a number"},
		{Field: "house_number", Message: "first"},
		{Field: "house_number", Message: "second"},
	}

	assert.Equal(t,
		"validation failed: latitude: Latitude must be a number; house_number: first; house_number: second",
		errs.Error())
	assert.Equal(t, map[string]interface{}{
		"latitude":     "Latitude must be a number",
		"house_number": "first; second",
	}, errs.Details())
	assert.Equal(t, []string{"house_number", "latitude"}, errs.Fields())

	prefixed := errs.Prefixed(indexPrefix("properties", 3))
	assert.Equal(t, "properties[3].latitude", prefixed[0].Field)
	assert.Equal(t, "latitude", errs[0].Field)
}
