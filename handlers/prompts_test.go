// ABOUTME: Tests for MCP prompt handlers
// ABOUTME: Checks prompt text is built from stored snapshots and run logs
package handlers

import (
	"context"
	"testing"

	"github.com/harperreed/crmpulse/bulk"
	"github.com/harperreed/crmpulse/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bulkRequest(entityType, operation string, ids ...string) bulk.Request {
	return bulk.Request{EntityType: entityType, Operation: operation, EntityIDs: ids}
}

func getPrompt(t *testing.T, h *PromptHandlers, name string, args map[string]string) (*mcp.GetPromptResult, error) {
	t.Helper()
	return h.GetPrompt(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Name: name, Arguments: args},
	})
}

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestAccountHealthReviewPrompt(t *testing.T) {
	f := setupFixture(t)
	h := NewPromptHandlers(f.store)
	ctx := context.Background()

	company := &models.Company{Name: "Acme Corp"}
	require.NoError(t, f.store.CreateCompany(ctx, company))

	res, err := getPrompt(t, h, "account-health-review", map[string]string{"company_id": company.ID})
	require.NoError(t, err)
	assert.Contains(t, promptText(t, res), "No health snapshots have been recorded yet")

	_, err = f.engine.Recalculate(ctx, company.ID, f.store)
	require.NoError(t, err)

	res, err = getPrompt(t, h, "account-health-review", map[string]string{"company_id": company.ID})
	require.NoError(t, err)
	text := promptText(t, res)
	assert.Contains(t, text, "Company: Acme Corp")
	assert.Contains(t, text, "no_users")
	assert.Equal(t, "Health review for: Acme Corp", res.Description)
}

func TestBulkRunReviewPrompt(t *testing.T) {
	f := setupFixture(t)
	h := NewPromptHandlers(f.store)

	resp, err := f.processor.Execute(context.Background(), bulkRequest("lead", "assign", "x"))
	require.NoError(t, err)

	res, err := getPrompt(t, h, "bulk-run-review", map[string]string{"operation_id": resp.OperationID})
	require.NoError(t, err)
	text := promptText(t, res)
	assert.Contains(t, text, "Operation: lead.assign")
	assert.Contains(t, text, "x: ")
}

func TestPromptErrors(t *testing.T) {
	f := setupFixture(t)
	h := NewPromptHandlers(f.store)

	_, err := getPrompt(t, h, "account-health-review", map[string]string{})
	assert.Error(t, err)

	_, err = getPrompt(t, h, "bulk-run-review", map[string]string{"operation_id": "missing"})
	assert.Error(t, err)

	_, err = getPrompt(t, h, "nope", nil)
	assert.Error(t, err)
}
