//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/pfman/internal/database"
	"github.com/stwalsh4118/pfman/internal/logger"
	"github.com/stwalsh4118/pfman/internal/models"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDatabase(t *testing.T) *database.Database {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "neo4j:5",
		ExposedPorts: []string{"7687/tcp"},
		Env: map[string]string{
			"NEO4J_AUTH": "neo4j/testpassword",
		},
		WaitingFor: wait.ForLog("Started.").WithStartupTimeout(2 * time.Minute),
	}

	neo4jC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		neo4jC.Terminate(ctx)
	})

	host, err := neo4jC.Host(ctx)
	require.NoError(t, err)

	port, err := neo4jC.MappedPort(ctx, "7687")
	require.NoError(t, err)

	conn, err := database.ParseConnectionString("neo4j://neo4j:testpassword@" + host + ":" + port.Port() + "/neo4j")
	require.NoError(t, err)

	db, err := database.NewNeo4jDriver(ctx, conn, logger.New("test"), "ERROR")
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close(ctx)
	})

	return db
}

func TestPortfolioRepository_RoundTrip(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewPortfolioRepository(db)
	ctx := context.Background()

	desc := "Downtown offices"
	portfolio := &models.Portfolio{
		ID:          "pf-int-1",
		Title:       "Austin",
		Description: &desc,
		Properties: []models.Property{
			{ID: "p-1", Address: models.Address{
				HouseNumber: models.IntHouseNumber(100),
				Street:      str("Congress Ave"),
				City:        str("Austin"),
				CountryCode: str("US"),
				Latitude:    f64(30.2672),
				Longitude:   f64(-97.7431),
			}},
			{ID: "p-2", Address: models.Address{
				HouseNumber:      models.StringHouseNumber("45-12"),
				FormattedAddress: str("45-12 Queens Blvd, New York"),
			}},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	require.NoError(t, repo.Create(ctx, portfolio))

	got, err := repo.FindByID(ctx, "pf-int-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Austin", got.Title)
	assert.Equal(t, desc, *got.Description)
	assert.True(t, portfolio.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Properties, 2)
	assert.Equal(t, "p-1", got.Properties[0].ID)
	assert.Equal(t, portfolio.Properties[0].Address.GraphProperties(), got.Properties[0].Address.GraphProperties())
	assert.Equal(t, "45-12", got.Properties[1].Address.HouseNumber.String())

	summaries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].PropertyCount)

	missing, err := repo.FindByID(ctx, "does-not-exist")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	result, err := db.ExecuteQuery(ctx,
		`MATCH (p:Property {property_id: 'p-1'}) RETURN p.h3_cell AS cell, p.location.srid AS srid`, nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	cell, _ := result.Records[0].Get("cell")
	srid, _ := result.Records[0].Get("srid")
	assert.Equal(t, *portfolio.Properties[0].Address.H3Cell(), cell)
	assert.Equal(t, int64(models.WGS84), srid)
}
