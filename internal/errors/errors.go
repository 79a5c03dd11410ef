package errors

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/pfman/internal/middleware"
	"github.com/stwalsh4118/pfman/internal/models"
)

// Error code constants for standardized error responses
const (
	ErrNotFound           = "NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrPayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrServiceUnavailable = "SERVICE_UNAVAILABLE"
)

const msgValidationFailed = "Validation failed for one or more fields"

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// abort writes the error envelope and stops the handler chain.
func abort(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: middleware.GetRequestID(c),
		},
	})
}

// requestFields are the log fields shared by every error response.
func requestFields(c *gin.Context, extra map[string]interface{}) map[string]interface{} {
	fields := map[string]interface{}{
		"request_id": middleware.GetRequestID(c),
		"path":       c.Request.URL.Path,
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	if log := middleware.GetLogger(c); log != nil {
		log.Warn("Resource not found", requestFields(c, map[string]interface{}{"message": message}))
	}
	abort(c, http.StatusNotFound, ErrNotFound, message, nil)
}

// RouteNotFound is the NoRoute handler for unmatched paths.
func RouteNotFound(c *gin.Context) {
	NotFound(c, "Not Found")
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	if log := middleware.GetLogger(c); log != nil {
		extra := map[string]interface{}{"message": message}
		if details != nil {
			extra["details"] = details
		}
		log.Warn("Bad request", requestFields(c, extra))
	}
	abort(c, http.StatusBadRequest, ErrBadRequest, message, details)
}

// PayloadTooLarge returns a 413 response for oversized uploads.
func PayloadTooLarge(c *gin.Context, message string) {
	if log := middleware.GetLogger(c); log != nil {
		log.Warn("Payload too large", requestFields(c, map[string]interface{}{"message": message}))
	}
	abort(c, http.StatusRequestEntityTooLarge, ErrPayloadTooLarge, message, nil)
}

// InternalServerError returns a 500 Internal Server Error response.
// err is logged but never sent to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	if log := middleware.GetLogger(c); log != nil {
		log.Error("Internal server error", err, requestFields(c, map[string]interface{}{
			"message": message,
			"method":  c.Request.Method,
		}))
	}
	abort(c, http.StatusInternalServerError, ErrInternalServer, message, nil)
}

// ValidationError returns a 400 response listing request binding failures.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, err := range validationErrors {
		details[err.Field()] = formatValidationError(err)
	}
	validationFailed(c, details)
}

// FieldErrors returns a 400 response listing address field failures.
func FieldErrors(c *gin.Context, errs models.ValidationErrors) {
	validationFailed(c, errs.Details())
}

func validationFailed(c *gin.Context, details map[string]interface{}) {
	if log := middleware.GetLogger(c); log != nil {
		log.Warn("Validation error", requestFields(c, map[string]interface{}{"fields": details}))
	}
	abort(c, http.StatusBadRequest, ErrValidation, msgValidationFailed, details)
}

// UseJSONFieldNames makes gin's binding validator report fields by their
// json tag, or form tag for query structs, so error details match the request.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(jsonFieldName)
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" {
		name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
	}
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short or small (minimum: " + err.Param() + ")"
	case "max":
		return "Value is too long or large (maximum: " + err.Param() + ")"
	case "gte":
		return "Must be greater than or equal to " + err.Param()
	case "lte":
		return "Must be less than or equal to " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	case "uuid":
		return "Must be a valid UUID"
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}
