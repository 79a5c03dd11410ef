package graph

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/stwalsh4118/pfman/internal/logger"
)

const (
	dropSchemaQuery = "CALL apoc.schema.assert({}, {})"
	deleteAllQuery  = "MATCH (n) DETACH DELETE n"
)

// Executor runs a Cypher statement and discards its result.
// *database.Database satisfies it.
type Executor interface {
	Run(ctx context.Context, query string, params map[string]interface{}) error
}

// Manager applies schema changes to the graph database.
type Manager struct {
	db  Executor
	log *logger.Logger
}

// NewManager creates a Manager over db.
func NewManager(db Executor, log *logger.Logger) *Manager {
	return &Manager{db: db, log: log}
}

// InstallConstraints creates every constraint and index in s that does not
// exist yet. It stops at the first failing statement.
func (m *Manager) InstallConstraints(ctx context.Context, s *Schema) error {
	for _, stmt := range s.Statements() {
		m.log.Debug("Applying schema statement", map[string]interface{}{"statement": stmt})
		if err := m.db.Run(ctx, stmt, nil); err != nil {
			return eris.Wrapf(err, "apply %q", stmt)
		}
	}
	m.log.Info("Schema installed", map[string]interface{}{
		"constraints": len(s.Constraints),
		"indexes":     len(s.Indexes),
	})
	return nil
}

// DropConstraints removes every constraint and index. Requires APOC.
func (m *Manager) DropConstraints(ctx context.Context) error {
	if err := m.db.Run(ctx, dropSchemaQuery, nil); err != nil {
		return eris.Wrap(err, "drop constraints and indexes")
	}
	m.log.Info("Schema dropped", nil)
	return nil
}

// Reset deletes every node and relationship, then drops the schema.
func (m *Manager) Reset(ctx context.Context) error {
	if err := m.db.Run(ctx, deleteAllQuery, nil); err != nil {
		return eris.Wrap(err, "delete graph data")
	}
	m.log.Warn("Graph data deleted", nil)
	return m.DropConstraints(ctx)
}
