package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/pfman/internal/errors"
	"github.com/stwalsh4118/pfman/internal/geo"
)

// GeoLookup is the reference data the geo endpoints expose.
// *geo.Resolver satisfies it.
type GeoLookup interface {
	Countries() []geo.Country
	GetCountry(q geo.CountryQuery) (*geo.Country, error)
	GetSubdivisions(q geo.SubdivisionQuery) ([]geo.Subdivision, error)
	GetSubdivision(q geo.SubdivisionQuery) (*geo.Subdivision, error)
}

// GeoHandler serves country and subdivision lookups.
type GeoHandler struct {
	lookup GeoLookup
}

// NewGeoHandler creates a new GeoHandler instance.
func NewGeoHandler(lookup GeoLookup) *GeoHandler {
	return &GeoHandler{lookup: lookup}
}

// CountryRequest represents the query parameters for the country endpoint.
type CountryRequest struct {
	Q       string `form:"q"`
	Name    string `form:"name"`
	Code    string `form:"code"`
	Numeric int    `form:"numeric" binding:"omitempty,min=1,max=999"`
}

// SubdivisionRequest represents the query parameters for subdivision endpoints.
type SubdivisionRequest struct {
	Q           string `form:"q"`
	Name        string `form:"name"`
	Code        string `form:"code"`
	ParentCode  string `form:"parent_code"`
	CountryCode string `form:"country_code"`
	Level       int    `form:"level" binding:"omitempty,min=1"`
}

func (r SubdivisionRequest) query() geo.SubdivisionQuery {
	return geo.SubdivisionQuery{
		Q:           r.Q,
		Name:        r.Name,
		Code:        r.Code,
		ParentCode:  r.ParentCode,
		CountryCode: r.CountryCode,
		Level:       r.Level,
	}
}

// CountriesResponse lists every known country.
type CountriesResponse struct {
	Countries []geo.Country `json:"countries"`
	Count     int           `json:"count"`
}

// SubdivisionsResponse lists matching subdivisions.
type SubdivisionsResponse struct {
	Subdivisions []geo.Subdivision `json:"subdivisions"`
	Count        int               `json:"count"`
}

// bindQuery binds query parameters and writes the error response on failure.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return false
	}
	return true
}

// lookupFailed maps resolver errors to responses.
func lookupFailed(c *gin.Context, err error) {
	if errors.Is(err, geo.ErrMissingCriteria) {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}
	apierrors.InternalServerError(c, "Failed to search reference data", err)
}

// Countries handles GET /api/geo/countries.
func (h *GeoHandler) Countries(c *gin.Context) {
	countries := h.lookup.Countries()
	c.JSON(http.StatusOK, CountriesResponse{Countries: countries, Count: len(countries)})
}

// Country handles GET /api/geo/country.
func (h *GeoHandler) Country(c *gin.Context) {
	var req CountryRequest
	if !bindQuery(c, &req) {
		return
	}

	country, err := h.lookup.GetCountry(geo.CountryQuery{
		Q:       req.Q,
		Name:    req.Name,
		Code:    req.Code,
		Numeric: req.Numeric,
	})
	if err != nil {
		lookupFailed(c, err)
		return
	}
	if country == nil {
		apierrors.NotFound(c, "No country matches the query")
		return
	}
	c.JSON(http.StatusOK, country)
}

// Subdivisions handles GET /api/geo/subdivisions.
func (h *GeoHandler) Subdivisions(c *gin.Context) {
	var req SubdivisionRequest
	if !bindQuery(c, &req) {
		return
	}

	subdivisions, err := h.lookup.GetSubdivisions(req.query())
	if err != nil {
		lookupFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, SubdivisionsResponse{Subdivisions: subdivisions, Count: len(subdivisions)})
}

// Subdivision handles GET /api/geo/subdivision. No match and an ambiguous
// match both yield 404.
func (h *GeoHandler) Subdivision(c *gin.Context) {
	var req SubdivisionRequest
	if !bindQuery(c, &req) {
		return
	}

	subdivision, err := h.lookup.GetSubdivision(req.query())
	if err != nil {
		lookupFailed(c, err)
		return
	}
	if subdivision == nil {
		apierrors.NotFound(c, "No single subdivision matches the query")
		return
	}
	c.JSON(http.StatusOK, subdivision)
}
