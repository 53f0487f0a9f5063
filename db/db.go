// ABOUTME: Opens the crmpulse SQLite database and applies the schema
// ABOUTME: Connections run in WAL mode with foreign keys enforced
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// dsnOptions are go-sqlite3 connection parameters. Foreign key enforcement is
// per connection in SQLite, so it has to ride on the DSN.
const dsnOptions = "_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"

// OpenDatabase creates path's directory if needed, opens the database and
// initializes the schema.
func OpenDatabase(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?"+dsnOptions)
	if err != nil {
		return nil, err
	}

	// One writer at a time; the store serializes through this connection.
	db.SetMaxOpenConns(1)

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}
