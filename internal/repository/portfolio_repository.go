package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stwalsh4118/pfman/internal/models"
)

// QueryExecutor runs a single Cypher query and returns every record.
// *database.Database satisfies it.
type QueryExecutor interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error)
}

// PortfolioRepository defines the interface for portfolio data access operations.
type PortfolioRepository interface {
	// Create stores the portfolio and its properties. IDs and CreatedAt
	// must already be set.
	Create(ctx context.Context, portfolio *models.Portfolio) error

	// FindByID loads a portfolio with its properties in insertion order.
	// Returns nil, nil if no portfolio has the ID.
	FindByID(ctx context.Context, id string) (*models.Portfolio, error)

	// List returns every portfolio summary, newest first.
	List(ctx context.Context) ([]models.PortfolioSummary, error)
}

// portfolioRepository is the Neo4j implementation of PortfolioRepository.
type portfolioRepository struct {
	db QueryExecutor
}

// NewPortfolioRepository creates a new instance of PortfolioRepository.
func NewPortfolioRepository(db QueryExecutor) PortfolioRepository {
	return &portfolioRepository{
		db: db,
	}
}

const createPortfolioQuery = `
	CREATE (pf:Portfolio {
		portfolio_id: $id,
		title: $title,
		description: $description,
		created_at: $created_at
	})
	WITH pf
	UNWIND $properties AS prop
	CREATE (p:Property)
	SET p = prop.props, p.property_id = prop.id
	CREATE (pf)-[:CONTAINS {position: prop.position}]->(p)
	RETURN count(p) AS created
`

// Create writes the portfolio node, one Property node per address and a
// CONTAINS relationship carrying the original position.
func (r *portfolioRepository) Create(ctx context.Context, portfolio *models.Portfolio) error {
	properties := make([]interface{}, len(portfolio.Properties))
	for i, prop := range portfolio.Properties {
		properties[i] = map[string]interface{}{
			"id":       prop.ID,
			"position": int64(i),
			"props":    prop.Address.GraphProperties(),
		}
	}

	var description interface{}
	if portfolio.Description != nil {
		description = *portfolio.Description
	}

	result, err := r.db.ExecuteQuery(ctx, createPortfolioQuery, map[string]interface{}{
		"id":          portfolio.ID,
		"title":       portfolio.Title,
		"description": description,
		"created_at":  portfolio.CreatedAt,
		"properties":  properties,
	})
	if err != nil {
		return fmt.Errorf("failed to create portfolio %s: %w", portfolio.ID, err)
	}

	if len(result.Records) == 1 {
		created, _, err := neo4j.GetRecordValue[int64](result.Records[0], "created")
		if err == nil && created != int64(len(properties)) {
			return fmt.Errorf("portfolio %s: created %d of %d properties", portfolio.ID, created, len(properties))
		}
	}

	return nil
}

const findPortfolioQuery = `
	MATCH (pf:Portfolio {portfolio_id: $id})
	OPTIONAL MATCH (pf)-[c:CONTAINS]->(p:Property)
	WITH pf, c, p
	ORDER BY c.position
	RETURN pf, collect(p) AS properties
`

// FindByID loads a portfolio and its properties.
func (r *portfolioRepository) FindByID(ctx context.Context, id string) (*models.Portfolio, error) {
	result, err := r.db.ExecuteQuery(ctx, findPortfolioQuery, map[string]interface{}{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio %s: %w", id, err)
	}

	// Handle no rows found - this is not an error at the repository level
	if len(result.Records) == 0 {
		return nil, nil
	}
	record := result.Records[0]

	node, _, err := neo4j.GetRecordValue[dbtype.Node](record, "pf")
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio %s: %w", id, err)
	}
	portfolio, err := portfolioFromNode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio %s: %w", id, err)
	}

	raw, _, err := neo4j.GetRecordValue[[]interface{}](record, "properties")
	if err != nil {
		return nil, fmt.Errorf("failed to read properties of portfolio %s: %w", id, err)
	}

	portfolio.Properties = make([]models.Property, 0, len(raw))
	for i, value := range raw {
		propNode, ok := value.(dbtype.Node)
		if !ok {
			return nil, fmt.Errorf("portfolio %s property %d: expected node, got %T", id, i, value)
		}
		prop, err := propertyFromNode(propNode)
		if err != nil {
			return nil, fmt.Errorf("portfolio %s property %d: %w", id, i, err)
		}
		portfolio.Properties = append(portfolio.Properties, prop)
	}

	return portfolio, nil
}

const listPortfoliosQuery = `
	MATCH (pf:Portfolio)
	OPTIONAL MATCH (pf)-[:CONTAINS]->(p:Property)
	WITH pf, count(p) AS property_count
	RETURN pf, property_count
	ORDER BY pf.created_at DESC, pf.portfolio_id
`

// List returns every portfolio without its properties.
func (r *portfolioRepository) List(ctx context.Context) ([]models.PortfolioSummary, error) {
	result, err := r.db.ExecuteQuery(ctx, listPortfoliosQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	summaries := make([]models.PortfolioSummary, 0, len(result.Records))
	for _, record := range result.Records {
		node, _, err := neo4j.GetRecordValue[dbtype.Node](record, "pf")
		if err != nil {
			return nil, fmt.Errorf("failed to read portfolio row: %w", err)
		}
		portfolio, err := portfolioFromNode(node)
		if err != nil {
			return nil, err
		}
		count, _, err := neo4j.GetRecordValue[int64](record, "property_count")
		if err != nil {
			return nil, fmt.Errorf("failed to read property count of %s: %w", portfolio.ID, err)
		}

		summaries = append(summaries, models.PortfolioSummary{
			ID:            portfolio.ID,
			Title:         portfolio.Title,
			Description:   portfolio.Description,
			PropertyCount: int(count),
			CreatedAt:     portfolio.CreatedAt,
		})
	}

	return summaries, nil
}

func portfolioFromNode(node dbtype.Node) (*models.Portfolio, error) {
	id, err := neo4j.GetProperty[string](node, "portfolio_id")
	if err != nil {
		return nil, err
	}
	title, err := neo4j.GetProperty[string](node, "title")
	if err != nil {
		return nil, err
	}

	portfolio := &models.Portfolio{ID: id, Title: title}

	if desc, ok := node.Props["description"].(string); ok {
		portfolio.Description = &desc
	}
	if createdAt, ok := node.Props["created_at"].(time.Time); ok {
		portfolio.CreatedAt = createdAt.UTC()
	}

	return portfolio, nil
}

func propertyFromNode(node dbtype.Node) (models.Property, error) {
	id, err := neo4j.GetProperty[string](node, "property_id")
	if err != nil {
		return models.Property{}, err
	}
	addr, err := models.AddressFromGraph(node.Props)
	if err != nil {
		return models.Property{}, err
	}
	return models.Property{ID: id, Address: addr}, nil
}
