// ABOUTME: Bulk operation run log and response models
// ABOUTME: A log is created in processing and finalised exactly once
package models

import (
	"time"
)

// Bulk operation log statuses.
const (
	BulkStatusProcessing = "processing"
	BulkStatusCompleted  = "completed"
	BulkStatusFailed     = "failed"
)

type ErrorDetail struct {
	EntityID     string `json:"entity_id"`
	ErrorMessage string `json:"error_message"`
}

type BulkOperationLog struct {
	ID           string                 `json:"id"`
	EntityType   string                 `json:"entity_type"`
	Operation    string                 `json:"operation"`
	EntityIDs    []string               `json:"entity_ids"`
	Parameters   map[string]interface{} `json:"parameters"`
	TotalCount   int                    `json:"total_count"`
	SuccessCount int                    `json:"success_count"`
	FailedCount  int                    `json:"failed_count"`
	ErrorDetails []ErrorDetail          `json:"error_details"`
	Status       string                 `json:"status"`
	ExecutedBy   string                 `json:"executed_by"`
	CreatedAt    time.Time              `json:"created_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the log has left the processing state.
func (l *BulkOperationLog) IsTerminal() bool {
	return l.Status == BulkStatusCompleted || l.Status == BulkStatusFailed
}

type BulkOperationResponse struct {
	Success      bool          `json:"success"`
	OperationID  string        `json:"operation_id"`
	TotalCount   int           `json:"total_count"`
	SuccessCount int           `json:"success_count"`
	FailedCount  int           `json:"failed_count"`
	Errors       []ErrorDetail `json:"errors,omitempty"`
	Message      string        `json:"message"`
}
