package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/pfman/internal/errors"
	"github.com/stwalsh4118/pfman/internal/geocoding"
	"github.com/stwalsh4118/pfman/internal/middleware"
	"github.com/stwalsh4118/pfman/internal/models"
	"github.com/stwalsh4118/pfman/internal/services"
)

// AddressHandler exposes address validation and field normalization.
type AddressHandler struct {
	service services.AddressService
}

// NewAddressHandler creates a new AddressHandler instance.
func NewAddressHandler(service services.AddressService) *AddressHandler {
	return &AddressHandler{service: service}
}

// NormalizeFieldRequest represents the query parameters for field normalization.
type NormalizeFieldRequest struct {
	Kind  string `form:"kind"`
	Value string `form:"value" binding:"required"`
}

// NormalizeFieldResponse is the normalized form of one value.
type NormalizeFieldResponse struct {
	Kind       string `json:"kind"`
	Value      string `json:"value"`
	Normalized string `json:"normalized"`
}

// Normalize handles POST /api/address/normalize.
func (h *AddressHandler) Normalize(c *gin.Context) {
	var in models.AddressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierrors.BadRequest(c, "Request body must be an address object", nil)
		return
	}

	result, err := h.service.Normalize(in)
	if err != nil {
		var fieldErrs models.ValidationErrors
		if errors.As(err, &fieldErrs) {
			apierrors.FieldErrors(c, fieldErrs)
			return
		}
		apierrors.InternalServerError(c, "Failed to normalize address", err)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Debug("Address normalized", map[string]interface{}{
			"valid_property_address": result.IsValidPropertyAddress,
		})
	}
	c.JSON(http.StatusOK, result)
}

// NormalizeField handles GET /api/geocoding/normalize.
func (h *AddressHandler) NormalizeField(c *gin.Context) {
	var req NormalizeFieldRequest
	if !bindQuery(c, &req) {
		return
	}
	if req.Kind == "" {
		req.Kind = geocoding.KindDefault
	}

	normalized, err := h.service.NormalizeField(req.Kind, req.Value)
	if err != nil {
		if errors.Is(err, geocoding.ErrUnknownFieldKind) {
			apierrors.BadRequest(c, err.Error(), map[string]interface{}{
				"kinds": geocoding.FieldKinds(),
			})
			return
		}
		apierrors.InternalServerError(c, "Failed to normalize value", err)
		return
	}

	c.JSON(http.StatusOK, NormalizeFieldResponse{
		Kind:       req.Kind,
		Value:      req.Value,
		Normalized: normalized,
	})
}
