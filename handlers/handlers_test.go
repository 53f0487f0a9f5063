// ABOUTME: Shared fixtures for MCP handler tests
// ABOUTME: Builds an in-memory store, health engine and bulk processor
package handlers

import (
	"database/sql"
	"testing"
	"time"

	"github.com/harperreed/crmpulse/bulk"
	"github.com/harperreed/crmpulse/config"
	"github.com/harperreed/crmpulse/db"
	"github.com/harperreed/crmpulse/health"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *db.Store
	engine    *health.Engine
	processor *bulk.Processor
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	require.NoError(t, db.InitSchema(database))
	t.Cleanup(func() { _ = database.Close() })

	store := db.NewStore(database)
	engine := health.NewEngine(store, config.DefaultHealthConfig(), health.WithLocation(time.UTC))
	return &fixture{
		store:     store,
		engine:    engine,
		processor: bulk.NewProcessor(store, engine, config.DefaultBulkConfig()),
	}
}
