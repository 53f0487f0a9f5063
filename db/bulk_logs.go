// ABOUTME: Bulk operation log persistence
// ABOUTME: Creates run logs in processing state and finalises them with counts and errors
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harperreed/crmpulse/models"
)

const bulkLogSelect = `
	SELECT id, entity_type, operation, entity_ids, parameters, total_count, success_count,
		failed_count, error_details, status, executed_by, created_at, completed_at
	FROM bulk_operation_logs`

// CreateBulkLog inserts a new run log. The caller sets ID and initial state.
func (s *Store) CreateBulkLog(ctx context.Context, log *models.BulkOperationLog) error {
	if log.ID == "" {
		return errors.New("bulk log requires an id")
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = s.now()
	}

	ids, err := encodeJSON(log.EntityIDs)
	if err != nil {
		return err
	}
	params, err := encodeJSON(normalizeFields(log.Parameters))
	if err != nil {
		return err
	}
	details, err := encodeJSON(nonNilDetails(log.ErrorDetails))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bulk_operation_logs (id, entity_type, operation, entity_ids, parameters, total_count,
			success_count, failed_count, error_details, status, executed_by, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.EntityType, log.Operation, ids, params, log.TotalCount,
		log.SuccessCount, log.FailedCount, details, log.Status, log.ExecutedBy,
		log.CreatedAt.UTC(), nullTime(log.CompletedAt))

	return err
}

// FinishBulkLog writes the terminal counts, error details, status and completion time.
func (s *Store) FinishBulkLog(ctx context.Context, log *models.BulkOperationLog) error {
	details, err := encodeJSON(nonNilDetails(log.ErrorDetails))
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE bulk_operation_logs
		SET success_count = ?, failed_count = ?, error_details = ?, status = ?, completed_at = ?
		WHERE id = ?
	`, log.SuccessCount, log.FailedCount, details, log.Status, nullTime(log.CompletedAt), log.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("bulk log %s: %w", log.ID, ErrNotFound)
	}

	return nil
}

// GetBulkLog returns a run log or ErrNotFound.
func (s *Store) GetBulkLog(ctx context.Context, id string) (*models.BulkOperationLog, error) {
	row := s.db.QueryRowContext(ctx, bulkLogSelect+` WHERE id = ?`, id)
	log, err := scanBulkLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bulk log %s: %w", id, ErrNotFound)
	}
	return log, err
}

// ListBulkLogs returns the most recent run logs.
func (s *Store) ListBulkLogs(ctx context.Context, limit int) ([]models.BulkOperationLog, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, bulkLogSelect+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var logs []models.BulkOperationLog
	for rows.Next() {
		log, err := scanBulkLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}

	return logs, rows.Err()
}

func scanBulkLog(row rowScanner) (*models.BulkOperationLog, error) {
	var log models.BulkOperationLog
	var ids, params, details string
	var completedAt sql.NullTime

	err := row.Scan(
		&log.ID,
		&log.EntityType,
		&log.Operation,
		&ids,
		&params,
		&log.TotalCount,
		&log.SuccessCount,
		&log.FailedCount,
		&details,
		&log.Status,
		&log.ExecutedBy,
		&log.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(ids), &log.EntityIDs); err != nil {
		return nil, fmt.Errorf("decode entity_ids: %w", err)
	}
	if log.Parameters, err = decodeFields(params); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}
	if err := json.Unmarshal([]byte(details), &log.ErrorDetails); err != nil {
		return nil, fmt.Errorf("decode error_details: %w", err)
	}
	log.CompletedAt = timePtr(completedAt)

	return &log, nil
}

func nonNilDetails(d []models.ErrorDetail) []models.ErrorDetail {
	if d == nil {
		return []models.ErrorDetail{}
	}
	return d
}
