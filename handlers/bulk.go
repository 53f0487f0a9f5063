// ABOUTME: Bulk operation MCP tool handlers
// ABOUTME: Implements bulk_operation, get_bulk_operation and list_bulk_operations tools
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/crmpulse/bulk"
	"github.com/harperreed/crmpulse/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type BulkHandlers struct {
	processor *bulk.Processor
}

func NewBulkHandlers(processor *bulk.Processor) *BulkHandlers {
	return &BulkHandlers{processor: processor}
}

type BulkOperationInput struct {
	EntityType string                 `json:"entity_type" jsonschema:"Entity type: lead, company or subscription"`
	Operation  string                 `json:"operation" jsonschema:"Operation name, e.g. change_status, add_tags, recalculate_health"`
	EntityIDs  []string               `json:"entity_ids" jsonschema:"IDs of the entities to update"`
	Parameters map[string]interface{} `json:"parameters,omitempty" jsonschema:"Operation parameters, e.g. {\"status\": \"qualified\"}"`
	ExecutedBy string                 `json:"executed_by,omitempty" jsonschema:"Who is running the operation"`
}

func (h *BulkHandlers) BulkOperation(ctx context.Context, request *mcp.CallToolRequest, input BulkOperationInput) (*mcp.CallToolResult, models.BulkOperationResponse, error) {
	resp, err := h.processor.Execute(ctx, bulk.Request{
		EntityType: input.EntityType,
		Operation:  input.Operation,
		EntityIDs:  input.EntityIDs,
		Parameters: input.Parameters,
		ExecutedBy: input.ExecutedBy,
	})
	if err != nil {
		return nil, models.BulkOperationResponse{}, fmt.Errorf("bulk operation failed: %w", err)
	}

	return nil, *resp, nil
}

type GetBulkOperationInput struct {
	OperationID string `json:"operation_id" jsonschema:"ID returned by bulk_operation"`
}

func (h *BulkHandlers) GetBulkOperation(ctx context.Context, request *mcp.CallToolRequest, input GetBulkOperationInput) (*mcp.CallToolResult, models.BulkOperationLog, error) {
	if input.OperationID == "" {
		return nil, models.BulkOperationLog{}, fmt.Errorf("operation_id is required")
	}

	log, err := h.processor.GetLog(ctx, input.OperationID)
	if err != nil {
		return nil, models.BulkOperationLog{}, err
	}

	return nil, *log, nil
}

type ListBulkOperationsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs (default 20)"`
}

type ListBulkOperationsOutput struct {
	Operations []models.BulkOperationLog `json:"operations"`
}

func (h *BulkHandlers) ListBulkOperations(ctx context.Context, request *mcp.CallToolRequest, input ListBulkOperationsInput) (*mcp.CallToolResult, ListBulkOperationsOutput, error) {
	logs, err := h.processor.ListLogs(ctx, input.Limit)
	if err != nil {
		return nil, ListBulkOperationsOutput{}, fmt.Errorf("failed to list bulk operations: %w", err)
	}
	if logs == nil {
		logs = []models.BulkOperationLog{}
	}

	return nil, ListBulkOperationsOutput{Operations: logs}, nil
}

// SupportedOperations describes the accepted (entity_type, operation) pairs.
func SupportedOperations() string {
	kinds := bulk.SupportedKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}
