package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/pfman/internal/cache"
	"github.com/stwalsh4118/pfman/internal/importer"
	"github.com/stwalsh4118/pfman/internal/logger"
	"github.com/stwalsh4118/pfman/internal/models"
	"github.com/stwalsh4118/pfman/internal/repository"
)

// Service-level errors
var (
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrInvalidPortfolio  = errors.New("invalid portfolio")
	ErrNoValidRows       = errors.New("no valid rows to import")
)

// PortfolioService defines the interface for portfolio business logic operations.
type PortfolioService interface {
	// CreatePortfolio validates every property address and stores the portfolio.
	// Returns models.ValidationErrors when any property fails validation.
	CreatePortfolio(ctx context.Context, payload models.CreatePortfolioPayload) (*models.Portfolio, error)

	// GetPortfolio returns the portfolio with its properties.
	// Returns ErrPortfolioNotFound if no portfolio has the ID.
	GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error)

	// ListPortfolios returns every portfolio summary, newest first.
	ListPortfolios(ctx context.Context) ([]models.PortfolioSummary, error)

	// PreviewImport parses and validates a CSV upload without storing it.
	PreviewImport(ctx context.Context, r io.Reader, mapping importer.Mapping) (*importer.Preview, error)

	// ImportPortfolio stores the valid rows of a CSV file as a new portfolio.
	// Invalid rows are skipped and reported in the returned preview.
	ImportPortfolio(ctx context.Context, r io.Reader, mapping importer.Mapping, title string, description *string) (*models.Portfolio, *importer.Preview, error)
}

// portfolioService is the concrete implementation of PortfolioService.
type portfolioService struct {
	repo     repository.PortfolioRepository
	cache    cache.PortfolioCache
	resolver models.Resolver
	log      *logger.Logger

	newID func() string
	now   func() time.Time
}

// NewPortfolioService creates a new instance of PortfolioService.
// A nil cache disables caching.
func NewPortfolioService(repo repository.PortfolioRepository, c cache.PortfolioCache, resolver models.Resolver, log *logger.Logger) PortfolioService {
	if c == nil {
		c = cache.NoopPortfolioCache{}
	}
	return &portfolioService{
		repo:     repo,
		cache:    c,
		resolver: resolver,
		log:      log,
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreatePortfolio validates the payload and stores a new portfolio.
func (s *portfolioService) CreatePortfolio(ctx context.Context, payload models.CreatePortfolioPayload) (*models.Portfolio, error) {
	addresses, err := models.BuildPropertyAddresses(payload.Properties, s.resolver)
	if err != nil {
		var verrs models.ValidationErrors
		if errors.As(err, &verrs) {
			s.log.Debug("Rejected portfolio with invalid properties", map[string]interface{}{
				"fields": verrs.Fields(),
			})
		}
		return nil, err
	}

	return s.store(ctx, payload.Title, payload.Description, addresses)
}

func (s *portfolioService) store(ctx context.Context, title string, description *string, addresses []models.Address) (*models.Portfolio, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidPortfolio)
	}
	if description != nil {
		trimmed := strings.TrimSpace(*description)
		description = &trimmed
		if trimmed == "" {
			description = nil
		}
	}

	portfolio := &models.Portfolio{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		Properties:  make([]models.Property, len(addresses)),
		CreatedAt:   s.now(),
	}
	for i, addr := range addresses {
		portfolio.Properties[i] = models.Property{ID: s.newID(), Address: addr}
	}

	if err := s.repo.Create(ctx, portfolio); err != nil {
		s.log.Error("Failed to create portfolio", err, map[string]interface{}{
			"portfolio_id": portfolio.ID,
			"properties":   len(portfolio.Properties),
		})
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}

	if err := s.cache.InvalidatePortfolioList(ctx); err != nil {
		s.log.Warn("Failed to invalidate portfolio list cache", map[string]interface{}{"error": err.Error()})
	}
	if err := s.cache.SetPortfolio(ctx, portfolio); err != nil {
		s.log.Warn("Failed to cache portfolio", map[string]interface{}{
			"portfolio_id": portfolio.ID,
			"error":        err.Error(),
		})
	}

	s.log.Info("Portfolio created", map[string]interface{}{
		"portfolio_id": portfolio.ID,
		"properties":   len(portfolio.Properties),
	})
	return portfolio, nil
}

// GetPortfolio reads through the cache to the repository.
func (s *portfolioService) GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error) {
	cached, err := s.cache.GetPortfolio(ctx, id)
	if err != nil {
		s.log.Warn("Portfolio cache read failed", map[string]interface{}{
			"portfolio_id": id,
			"error":        err.Error(),
		})
	}
	if cached != nil {
		return cached, nil
	}

	portfolio, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to query portfolio", err, map[string]interface{}{"portfolio_id": id})
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	if portfolio == nil {
		s.log.Debug("Portfolio not found", map[string]interface{}{"portfolio_id": id})
		return nil, fmt.Errorf("%w: %s", ErrPortfolioNotFound, id)
	}

	if err := s.cache.SetPortfolio(ctx, portfolio); err != nil {
		s.log.Warn("Failed to cache portfolio", map[string]interface{}{
			"portfolio_id": id,
			"error":        err.Error(),
		})
	}
	return portfolio, nil
}

// ListPortfolios reads through the cache to the repository.
func (s *portfolioService) ListPortfolios(ctx context.Context) ([]models.PortfolioSummary, error) {
	cached, err := s.cache.GetPortfolioList(ctx)
	if err != nil {
		s.log.Warn("Portfolio list cache read failed", map[string]interface{}{"error": err.Error()})
	}
	if cached != nil {
		return cached, nil
	}

	summaries, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("Failed to list portfolios", err, nil)
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	if err := s.cache.SetPortfolioList(ctx, summaries); err != nil {
		s.log.Warn("Failed to cache portfolio list", map[string]interface{}{"error": err.Error()})
	}
	return summaries, nil
}

// PreviewImport validates every row of the upload.
func (s *portfolioService) PreviewImport(ctx context.Context, r io.Reader, mapping importer.Mapping) (*importer.Preview, error) {
	preview, err := importer.Parse(r, mapping, s.resolver)
	if err != nil {
		return nil, err
	}
	s.log.Debug("Import preview built", map[string]interface{}{
		"valid":   preview.ValidCount,
		"invalid": preview.InvalidCount,
	})
	return preview, nil
}

// ImportPortfolio creates a portfolio from the valid rows of the upload.
func (s *portfolioService) ImportPortfolio(ctx context.Context, r io.Reader, mapping importer.Mapping, title string, description *string) (*models.Portfolio, *importer.Preview, error) {
	preview, err := s.PreviewImport(ctx, r, mapping)
	if err != nil {
		return nil, nil, err
	}
	if preview.ValidCount == 0 {
		return nil, preview, ErrNoValidRows
	}

	portfolio, err := s.store(ctx, title, description, preview.Addresses())
	if err != nil {
		return nil, preview, err
	}
	return portfolio, preview, nil
}
