// ABOUTME: Store ties every collection repository to one SQLite handle
// ABOUTME: Provides partial updates with column whitelists and JSON column helpers
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidPatch = errors.New("invalid patch")
)

// Patch is a partial update keyed by column name.
type Patch map[string]interface{}

// Store provides get-by-id, query, insert, partial update and delete over the CRM collections.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a store over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// patch applies p to the row id in table. Only columns in allowed may be set.
// updated_at is always refreshed.
func (s *Store) patch(ctx context.Context, table string, allowed map[string]bool, id string, p Patch) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: no fields", ErrInvalidPatch)
	}

	columns := make([]string, 0, len(p))
	for col := range p {
		if !allowed[col] {
			return fmt.Errorf("%w: column %q is not writable on %s", ErrInvalidPatch, col, table)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+2)
	for _, col := range columns {
		val, err := columnValue(p[col])
		if err != nil {
			return fmt.Errorf("%w: column %q: %v", ErrInvalidPatch, col, err)
		}
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.now(), id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, table, strings.Join(sets, ", "))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// deleteRow removes id from table, returning ErrNotFound if nothing was deleted.
func (s *Store) deleteRow(ctx context.Context, table, id string) error {
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// columnValue converts a patch value into something the sqlite driver stores.
func columnValue(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string, int, int64, float64, bool:
		return val, nil
	case *string:
		if val == nil {
			return nil, nil
		}
		return *val, nil
	case time.Time:
		return val.UTC(), nil
	case *time.Time:
		if val == nil {
			return nil, nil
		}
		return val.UTC(), nil
	case []string, map[string]interface{}, []interface{}:
		data, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func encodeJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeTags(raw string) ([]string, error) {
	tags := []string{}
	if raw == "" || raw == "null" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func decodeFields(raw string) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	if raw == "" || raw == "null" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string]interface{})
	}
	return fields, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
