package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/pfman/internal/geo"
	"github.com/stwalsh4118/pfman/internal/importer"
	"github.com/stwalsh4118/pfman/internal/logger"
	"github.com/stwalsh4118/pfman/internal/models"
)

// MockPortfolioRepository is a mock implementation of PortfolioRepository for testing
type MockPortfolioRepository struct {
	mock.Mock
}

func (m *MockPortfolioRepository) Create(ctx context.Context, portfolio *models.Portfolio) error {
	args := m.Called(ctx, portfolio)
	return args.Error(0)
}

func (m *MockPortfolioRepository) FindByID(ctx context.Context, id string) (*models.Portfolio, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Portfolio), args.Error(1)
}

func (m *MockPortfolioRepository) List(ctx context.Context) ([]models.PortfolioSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PortfolioSummary), args.Error(1)
}

// MockPortfolioCache is a mock implementation of cache.PortfolioCache for testing
type MockPortfolioCache struct {
	mock.Mock
}

func (m *MockPortfolioCache) GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Portfolio), args.Error(1)
}

func (m *MockPortfolioCache) SetPortfolio(ctx context.Context, portfolio *models.Portfolio) error {
	return m.Called(ctx, portfolio).Error(0)
}

func (m *MockPortfolioCache) GetPortfolioList(ctx context.Context) ([]models.PortfolioSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PortfolioSummary), args.Error(1)
}

func (m *MockPortfolioCache) SetPortfolioList(ctx context.Context, summaries []models.PortfolioSummary) error {
	return m.Called(ctx, summaries).Error(0)
}

func (m *MockPortfolioCache) InvalidatePortfolioList(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockPortfolioCache) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockPortfolioCache) Close() error {
	return m.Called().Error(0)
}

func str(s string) *string { return &s }

func newResolver(t *testing.T) *geo.Resolver {
	t.Helper()
	ds, err := geo.DefaultDataset()
	require.NoError(t, err)
	r, err := geo.NewResolver(ds, logger.New("test"))
	require.NoError(t, err)
	return r
}

// newTestService builds a service with deterministic IDs and clock.
func newTestService(t *testing.T, repo *MockPortfolioRepository, c *MockPortfolioCache) *portfolioService {
	t.Helper()
	svc := NewPortfolioService(repo, c, newResolver(t), logger.New("test")).(*portfolioService)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreatePortfolio_Success(t *testing.T) {
	// Arrange
	mockRepo := new(MockPortfolioRepository)
	mockCache := new(MockPortfolioCache)
	service := newTestService(t, mockRepo, mockCache)
	ctx := context.Background()

	payload := models.CreatePortfolioPayload{
		Title:       "  Texas offices ",
		Description: str("   "),
		Properties: []models.AddressInput{
			{HouseNumber: "100", Street: str("Congress Ave"), Country: str("US")},
			{Latitude: 30.2672, Longitude: "-97.7431"},
		},
	}

	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Portfolio")).Return(nil)
	mockCache.On("InvalidatePortfolioList", ctx).Return(nil)
	mockCache.On("SetPortfolio", ctx, mock.AnythingOfType("*models.Portfolio")).Return(nil)

	// Act
	portfolio, err := service.CreatePortfolio(ctx, payload)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "id-1", portfolio.ID)
	assert.Equal(t, "Texas offices", portfolio.Title)
	assert.Nil(t, portfolio.Description)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), portfolio.CreatedAt)
	require.Len(t, portfolio.Properties, 2)
	assert.Equal(t, "id-2", portfolio.Properties[0].ID)
	assert.Equal(t, "id-3", portfolio.Properties[1].ID)
	assert.Equal(t, "US", *portfolio.Properties[0].Address.CountryCode)
	assert.Equal(t, -97.7431, *portfolio.Properties[1].Address.Longitude)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestCreatePortfolio_InvalidProperties(t *testing.T) {
	// Arrange
	mockRepo := new(MockPortfolioRepository)
	mockCache := new(MockPortfolioCache)
	service := newTestService(t, mockRepo, mockCache)

	payload := models.CreatePortfolioPayload{
		Title: "Bad",
		Properties: []models.AddressInput{
			{Latitude: 95.0, Longitude: 10.0},
			{City: str("Austin")},
		},
	}

	// Act
	portfolio, err := service.CreatePortfolio(context.Background(), payload)

	// Assert
	assert.Nil(t, portfolio)
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.ElementsMatch(t, []string{"properties[0].latitude", "properties[1]"}, verrs.Fields())
	// Repository should not be called for validation errors
	mockRepo.AssertNotCalled(t, "Create")
	mockCache.AssertNotCalled(t, "InvalidatePortfolioList")
}

func TestCreatePortfolio_BlankTitle(t *testing.T) {
	mockRepo := new(MockPortfolioRepository)
	service := newTestService(t, mockRepo, new(MockPortfolioCache))

	_, err := service.CreatePortfolio(context.Background(), models.CreatePortfolioPayload{Title: " \t"})

	assert.ErrorIs(t, err, ErrInvalidPortfolio)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestCreatePortfolio_RepositoryError(t *testing.T) {
	// Arrange
	mockRepo := new(MockPortfolioRepository)
	mockCache := new(MockPortfolioCache)
	service := newTestService(t, mockRepo, mockCache)
	ctx := context.Background()

	dbErr := errors.New("connection refused")
	mockRepo.On("Create", ctx, mock.Anything).Return(dbErr)

	// Act
	portfolio, err := service.CreatePortfolio(ctx, models.CreatePortfolioPayload{Title: "Empty"})

	// Assert
	assert.Nil(t, portfolio)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "failed to create portfolio")
	mockCache.AssertNotCalled(t, "InvalidatePortfolioList")
}

func TestCreatePortfolio_CacheFailureIsNotFatal(t *testing.T) {
	mockRepo := new(MockPortfolioRepository)
	mockCache := new(MockPortfolioCache)
	service := newTestService(t, mockRepo, mockCache)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.Anything).Return(nil)
	mockCache.On("InvalidatePortfolioList", ctx).Return(errors.New("redis down"))
	mockCache.On("SetPortfolio", ctx, mock.Anything).Return(errors.New("redis down"))

	portfolio, err := service.CreatePortfolio(ctx, models.CreatePortfolioPayload{Title: "Still works"})

	require.NoError(t, err)
	assert.Equal(t, "Still works", portfolio.Title)
	assert.Empty(t, portfolio.Properties)
}

func TestGetPortfolio_CacheHit(t *testing.T) {
	mockRepo := new(MockPortfolioRepository)
	mockCache := new(MockPortfolioCache)
	service := newTestService(t, mockRepo, mockCache)
	ctx := context.Background()

	cached := &models.Portfolio{ID: "pf-1", Title: "Cached"}
	mockCache.On("GetPortfolio", ctx, "pf-1").Return(cached, nil)

	portfolio, err := service.GetPortfolio(ctx, "pf-1")

	require.NoError(t, err)
	assert.Same(t, cached, portfolio)
	mockRepo.AssertNotCalled(t, "FindByID")
}

func TestGetPortfolio_CacheMiss(t *testing.T) {
	mockRepo := new(MockPortfolioRepository)
	mockCache := new(MockPortfolioCache)
	service := newTestService(t, mockRepo, mockCache)
	ctx := context.Background()

	stored := &models.Portfolio{ID: "pf-1", Title: "Stored"}
	mockCache.On("GetPortfolio", ctx, "pf-1").Return(nil, errors.New("redis down"))
	mockRepo.On("FindByID", ctx, "pf-1").Return(stored, nil)
	mockCache.On("SetPortfolio", ctx, stored).Return(nil)

	portfolio, err := service.GetPortfolio(ctx, "pf-1")

	require.NoError(t, err)
	assert.Equal(t, "Stored", portfolio.Title)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestGetPortfolio_NotFound(t *testing.T) {
	// Arrange
	mockRepo := new(MockPortfolioRepository)
	mockCache := new(MockPortfolioCache)
	service := newTestService(t, mockRepo, mockCache)
	ctx := context.Background()

	mockCache.On("GetPortfolio", ctx, "missing").Return(nil, nil)
	// Repository returns nil, nil when no portfolio found
	mockRepo.On("FindByID", ctx, "missing").Return(nil, nil)

	// Act
	portfolio, err := service.GetPortfolio(ctx, "missing")

	// Assert
	assert.Nil(t, portfolio)
	assert.ErrorIs(t, err, ErrPortfolioNotFound)
	mockCache.AssertNotCalled(t, "SetPortfolio")
}

func TestGetPortfolio_RepositoryError(t *testing.T) {
	mockRepo := new(MockPortfolioRepository)
	mockCache := new(MockPortfolioCache)
	service := newTestService(t, mockRepo, mockCache)
	ctx := context.Background()

	dbErr := errors.New("timeout")
	mockCache.On("GetPortfolio", ctx, "pf-1").Return(nil, nil)
	mockRepo.On("FindByID", ctx, "pf-1").Return(nil, dbErr)

	_, err := service.GetPortfolio(ctx, "pf-1")

	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrPortfolioNotFound)
}

func TestListPortfolios(t *testing.T) {
	ctx := context.Background()
	summaries := []models.PortfolioSummary{{ID: "b", Title: "B"}, {ID: "a", Title: "A"}}

	t.Run("cache hit", func(t *testing.T) {
		mockRepo := new(MockPortfolioRepository)
		mockCache := new(MockPortfolioCache)
		service := newTestService(t, mockRepo, mockCache)
		mockCache.On("GetPortfolioList", ctx).Return([]models.PortfolioSummary{}, nil)

		got, err := service.ListPortfolios(ctx)

		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		mockRepo.AssertNotCalled(t, "List")
	})

	t.Run("cache miss", func(t *testing.T) {
		mockRepo := new(MockPortfolioRepository)
		mockCache := new(MockPortfolioCache)
		service := newTestService(t, mockRepo, mockCache)
		mockCache.On("GetPortfolioList", ctx).Return(nil, nil)
		mockRepo.On("List", ctx).Return(summaries, nil)
		mockCache.On("SetPortfolioList", ctx, summaries).Return(nil)

		got, err := service.ListPortfolios(ctx)

		require.NoError(t, err)
		assert.Equal(t, summaries, got)
		mockCache.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo := new(MockPortfolioRepository)
		mockCache := new(MockPortfolioCache)
		service := newTestService(t, mockRepo, mockCache)
		mockCache.On("GetPortfolioList", ctx).Return(nil, nil)
		mockRepo.On("List", ctx).Return(nil, errors.New("boom"))

		_, err := service.ListPortfolios(ctx)

		assert.ErrorContains(t, err, "failed to list portfolios")
		mockCache.AssertNotCalled(t, "SetPortfolioList")
	})
}

func TestNewPortfolioService_NilCache(t *testing.T) {
	mockRepo := new(MockPortfolioRepository)
	ctx := context.Background()
	mockRepo.On("List", ctx).Return([]models.PortfolioSummary{}, nil)

	service := NewPortfolioService(mockRepo, nil, nil, logger.New("test"))
	got, err := service.ListPortfolios(ctx)

	require.NoError(t, err)
	assert.Empty(t, got)
	mockRepo.AssertNumberOfCalls(t, "List", 1)
}

const importCSV = "Property Name,Address,City,Country\n" +
	"HQ,100 Congress Ave,Austin,US\n" +
	"Nowhere,,,\n"

func TestPreviewImport(t *testing.T) {
	mockRepo := new(MockPortfolioRepository)
	service := newTestService(t, mockRepo, new(MockPortfolioCache))

	preview, err := service.PreviewImport(context.Background(), strings.NewReader(importCSV), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, preview.ValidCount)
	assert.Equal(t, 1, preview.InvalidCount)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestPreviewImport_BadMapping(t *testing.T) {
	service := newTestService(t, new(MockPortfolioRepository), new(MockPortfolioCache))

	_, err := service.PreviewImport(context.Background(), strings.NewReader(importCSV),
		importer.Mapping{"City": "city"})

	assert.ErrorIs(t, err, importer.ErrInsufficientMapping)
}

func TestImportPortfolio_StoresValidRows(t *testing.T) {
	// Arrange
	mockRepo := new(MockPortfolioRepository)
	mockCache := new(MockPortfolioCache)
	service := newTestService(t, mockRepo, mockCache)
	ctx := context.Background()

	var stored *models.Portfolio
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Portfolio")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*models.Portfolio) }).
		Return(nil)
	mockCache.On("InvalidatePortfolioList", ctx).Return(nil)
	mockCache.On("SetPortfolio", ctx, mock.Anything).Return(nil)

	// Act
	portfolio, preview, err := service.ImportPortfolio(ctx, strings.NewReader(importCSV), nil, "Imported", str("from csv"))

	// Assert
	require.NoError(t, err)
	require.NotNil(t, preview)
	assert.Equal(t, 1, preview.InvalidCount)
	require.Len(t, portfolio.Properties, 1)
	assert.Equal(t, "HQ", *portfolio.Properties[0].Address.Name)
	assert.Equal(t, "from csv", *portfolio.Description)
	assert.Same(t, portfolio, stored)
}

func TestImportPortfolio_NoValidRows(t *testing.T) {
	mockRepo := new(MockPortfolioRepository)
	service := newTestService(t, mockRepo, new(MockPortfolioCache))

	portfolio, preview, err := service.ImportPortfolio(context.Background(),
		strings.NewReader("Address,City,Country\n,,\n"), nil, "Empty", nil)

	assert.ErrorIs(t, err, ErrNoValidRows)
	assert.Nil(t, portfolio)
	require.NotNil(t, preview)
	assert.Equal(t, 1, preview.InvalidCount)
	mockRepo.AssertNotCalled(t, "Create")
}
