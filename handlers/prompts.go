// ABOUTME: MCP prompt handlers for reusable customer success workflows
// ABOUTME: Builds account review and bulk run review prompts from stored data
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/crmpulse/db"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	store *db.Store
}

func NewPromptHandlers(store *db.Store) *PromptHandlers {
	return &PromptHandlers{store: store}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "account-health-review":
		return h.getAccountHealthReviewPrompt(ctx, arguments)
	case "bulk-run-review":
		return h.getBulkRunReviewPrompt(ctx, arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func (h *PromptHandlers) getAccountHealthReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	companyID, ok := args["company_id"]
	if !ok || companyID == "" {
		return nil, fmt.Errorf("company_id is required")
	}

	company, err := h.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company: %w", err)
	}

	history, err := h.store.ListSnapshots(ctx, companyID, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch health history: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString("Please review the health of this customer account:\n\n")
	promptText.WriteString(fmt.Sprintf("Company: %s\n", company.Name))
	promptText.WriteString(fmt.Sprintf("Status: %s\n", company.Status))
	if company.CSManagerID != nil {
		promptText.WriteString(fmt.Sprintf("CS Manager: %s\n", *company.CSManagerID))
	}

	if len(history) == 0 {
		promptText.WriteString("\nNo health snapshots have been recorded yet.\n")
	} else {
		latest := history[0]
		promptText.WriteString(fmt.Sprintf("\nLatest score (%s): %d, %s\n", latest.SnapshotDate, latest.OverallScore, latest.HealthStatus))
		promptText.WriteString(fmt.Sprintf("  Engagement %d, product usage %d, support %d, payment %d\n",
			latest.EngagementScore, latest.ProductUsageScore, latest.SupportScore, latest.PaymentScore))
		for _, r := range latest.RiskFactors {
			promptText.WriteString(fmt.Sprintf("  Risk [%s] %s: %s\n", r.Severity, r.Type, r.Description))
		}
		if len(history) > 1 {
			promptText.WriteString("\nTrend (newest first):\n")
			for _, s := range history {
				promptText.WriteString(fmt.Sprintf("  %s: %d\n", s.SnapshotDate, s.OverallScore))
			}
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. A short assessment of churn risk")
	promptText.WriteString("\n2. The two or three actions most likely to improve the score")
	promptText.WriteString("\n3. Which of those could be applied across similar accounts with a bulk operation")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Health review for: %s", company.Name),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

func (h *PromptHandlers) getBulkRunReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	operationID, ok := args["operation_id"]
	if !ok || operationID == "" {
		return nil, fmt.Errorf("operation_id is required")
	}

	log, err := h.store.GetBulkLog(ctx, operationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bulk operation: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString("Please review this bulk operation run:\n\n")
	promptText.WriteString(fmt.Sprintf("Operation: %s.%s\n", log.EntityType, log.Operation))
	promptText.WriteString(fmt.Sprintf("Executed by: %s\n", log.ExecutedBy))
	promptText.WriteString(fmt.Sprintf("Status: %s (%d succeeded, %d failed of %d)\n",
		log.Status, log.SuccessCount, log.FailedCount, log.TotalCount))
	if len(log.ErrorDetails) > 0 {
		promptText.WriteString("\nFailures:\n")
		for _, d := range log.ErrorDetails {
			promptText.WriteString(fmt.Sprintf("  %s: %s\n", d.EntityID, d.ErrorMessage))
		}
	}

	promptText.WriteString("\nPlease group the failures by cause and suggest whether a retry with the failed IDs is safe.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review of bulk operation %s", log.ID),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}
