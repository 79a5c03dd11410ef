package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/pfman/internal/errors"
	"github.com/stwalsh4118/pfman/internal/importer"
	"github.com/stwalsh4118/pfman/internal/middleware"
	"github.com/stwalsh4118/pfman/internal/models"
	"github.com/stwalsh4118/pfman/internal/services"
)

// multipartOverhead is allowed on top of the file size for form fields
// and part headers.
const multipartOverhead = 1 << 20

// PortfolioHandler handles portfolio-related HTTP requests.
type PortfolioHandler struct {
	service services.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler instance.
func NewPortfolioHandler(service services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{service: service}
}

// PortfolioListResponse represents the response for the list endpoint.
type PortfolioListResponse struct {
	Portfolios []models.PortfolioSummary `json:"portfolios"`
	Count      int                       `json:"count"`
}

// ImportResponse is returned when an upload creates a portfolio.
type ImportResponse struct {
	Portfolio *models.Portfolio `json:"portfolio"`
	Preview   *importer.Preview `json:"preview"`
}

// List handles GET /api/portfolio/.
func (h *PortfolioHandler) List(c *gin.Context) {
	summaries, err := h.service.ListPortfolios(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list portfolios", err)
		return
	}
	if summaries == nil {
		summaries = []models.PortfolioSummary{}
	}
	c.JSON(http.StatusOK, PortfolioListResponse{Portfolios: summaries, Count: len(summaries)})
}

// Create handles POST /api/portfolio/.
func (h *PortfolioHandler) Create(c *gin.Context) {
	var payload models.CreatePortfolioPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	portfolio, err := h.service.CreatePortfolio(c.Request.Context(), payload)
	if err != nil {
		h.writeServiceError(c, err, "Failed to create portfolio")
		return
	}
	c.JSON(http.StatusCreated, portfolio)
}

// Get handles GET /api/portfolio/:id.
func (h *PortfolioHandler) Get(c *gin.Context) {
	portfolio, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// GeoJSON handles GET /api/portfolio/:id/geojson. Properties without
// coordinates are left out.
func (h *PortfolioHandler) GeoJSON(c *gin.Context) {
	portfolio, ok := h.load(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, portfolio.FeatureCollection())
}

func (h *PortfolioHandler) load(c *gin.Context) (*models.Portfolio, bool) {
	id := c.Param("id")
	portfolio, err := h.service.GetPortfolio(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrPortfolioNotFound) {
			apierrors.NotFound(c, "Portfolio not found")
			return nil, false
		}
		apierrors.InternalServerError(c, "Failed to load portfolio", err)
		return nil, false
	}
	return portfolio, true
}

// Import handles POST /api/portfolio/import. The multipart form carries the
// CSV in "file" and an optional JSON column mapping in "mapping". Without
// a "title" the rows are only validated; with one, the valid rows are
// stored as a new portfolio.
func (h *PortfolioHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, importer.MaxUploadSize+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.PayloadTooLarge(c, uploadLimitMessage())
			return
		}
		apierrors.BadRequest(c, "A CSV file is required in the \"file\" field", nil)
		return
	}
	if header.Size > importer.MaxUploadSize {
		apierrors.PayloadTooLarge(c, uploadLimitMessage())
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		apierrors.BadRequest(c, "Only .csv files are accepted", map[string]interface{}{
			"filename": header.Filename,
		})
		return
	}

	var mapping importer.Mapping
	if raw := strings.TrimSpace(c.PostForm("mapping")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			apierrors.BadRequest(c, "Mapping must be a JSON object of column to attribute", nil)
			return
		}
	}

	file, err := header.Open()
	if err != nil {
		apierrors.InternalServerError(c, "Failed to read upload", err)
		return
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing portfolio import", map[string]interface{}{
			"filename": header.Filename,
			"size":     header.Size,
			"mapping":  mapping != nil,
		})
	}

	title, hasTitle := c.GetPostForm("title")
	if !hasTitle {
		preview, err := h.service.PreviewImport(c.Request.Context(), file, mapping)
		if err != nil {
			h.writeServiceError(c, err, "Failed to parse upload")
			return
		}
		c.JSON(http.StatusOK, preview)
		return
	}

	var description *string
	if d, ok := c.GetPostForm("description"); ok {
		description = &d
	}
	portfolio, preview, err := h.service.ImportPortfolio(c.Request.Context(), file, mapping, title, description)
	if err != nil {
		if errors.Is(err, services.ErrNoValidRows) && preview != nil {
			apierrors.BadRequest(c, "The file contains no valid rows", map[string]interface{}{
				"invalid_count": preview.InvalidCount,
			})
			return
		}
		h.writeServiceError(c, err, "Failed to import portfolio")
		return
	}
	c.JSON(http.StatusCreated, ImportResponse{Portfolio: portfolio, Preview: preview})
}

// Template handles GET /api/portfolio/import/template.
func (h *PortfolioHandler) Template(c *gin.Context) {
	data, err := importer.Template()
	if err != nil {
		apierrors.InternalServerError(c, "Failed to build template", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", importer.TemplateFilename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// writeServiceError maps service and import errors to responses.
func (h *PortfolioHandler) writeServiceError(c *gin.Context, err error, message string) {
	var fieldErrs models.ValidationErrors
	switch {
	case errors.As(err, &fieldErrs):
		apierrors.FieldErrors(c, fieldErrs)
	case errors.Is(err, services.ErrInvalidPortfolio),
		errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, importer.ErrMalformedFile),
		errors.Is(err, importer.ErrInvalidMapping),
		errors.Is(err, importer.ErrInsufficientMapping):
		apierrors.BadRequest(c, err.Error(), nil)
	default:
		apierrors.InternalServerError(c, message, err)
	}
}

func uploadLimitMessage() string {
	return fmt.Sprintf("File exceeds the %d MiB upload limit", importer.MaxUploadSize>>20)
}
