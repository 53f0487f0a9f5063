// ABOUTME: Health score MCP tool handlers
// ABOUTME: Implements calculate_health_score, get_health_history and list_at_risk_companies tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/crmpulse/db"
	"github.com/harperreed/crmpulse/health"
	"github.com/harperreed/crmpulse/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type HealthHandlers struct {
	store  *db.Store
	engine *health.Engine
	loc    *time.Location
}

func NewHealthHandlers(store *db.Store, engine *health.Engine, loc *time.Location) *HealthHandlers {
	if loc == nil {
		loc = time.UTC
	}
	return &HealthHandlers{store: store, engine: engine, loc: loc}
}

type CalculateHealthInput struct {
	CompanyID string `json:"company_id" jsonschema:"Company to score"`
	Save      bool   `json:"save,omitempty" jsonschema:"Store the result as today's snapshot"`
}

func (h *HealthHandlers) CalculateHealthScore(ctx context.Context, request *mcp.CallToolRequest, input CalculateHealthInput) (*mcp.CallToolResult, models.HealthScoreSnapshot, error) {
	if input.CompanyID == "" {
		return nil, models.HealthScoreSnapshot{}, fmt.Errorf("company_id is required")
	}
	if _, err := h.store.GetCompany(ctx, input.CompanyID); err != nil {
		return nil, models.HealthScoreSnapshot{}, err
	}

	var snap *models.HealthScoreSnapshot
	var err error
	if input.Save {
		snap, err = h.engine.Recalculate(ctx, input.CompanyID, h.store)
	} else {
		snap, err = h.engine.Calculate(ctx, input.CompanyID)
	}
	if err != nil {
		return nil, models.HealthScoreSnapshot{}, fmt.Errorf("failed to calculate health score: %w", err)
	}

	return nil, *snap, nil
}

type HealthHistoryInput struct {
	CompanyID string `json:"company_id" jsonschema:"Company whose snapshots to list"`
	From      string `json:"from,omitempty" jsonschema:"Earliest snapshot date (YYYY-MM-DD)"`
	To        string `json:"to,omitempty" jsonschema:"Latest snapshot date (YYYY-MM-DD)"`
}

type HealthHistoryOutput struct {
	Snapshots []models.HealthScoreSnapshot `json:"snapshots"`
}

func (h *HealthHandlers) GetHealthHistory(ctx context.Context, request *mcp.CallToolRequest, input HealthHistoryInput) (*mcp.CallToolResult, HealthHistoryOutput, error) {
	if input.CompanyID == "" {
		return nil, HealthHistoryOutput{}, fmt.Errorf("company_id is required")
	}
	for _, d := range []string{input.From, input.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(models.SnapshotDateFormat, d); err != nil {
			return nil, HealthHistoryOutput{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", d)
		}
	}

	snaps, err := h.store.ListSnapshots(ctx, input.CompanyID, input.From, input.To)
	if err != nil {
		return nil, HealthHistoryOutput{}, fmt.Errorf("failed to list snapshots: %w", err)
	}
	if snaps == nil {
		snaps = []models.HealthScoreSnapshot{}
	}

	return nil, HealthHistoryOutput{Snapshots: snaps}, nil
}

type AtRiskInput struct {
	Date string `json:"date,omitempty" jsonschema:"Snapshot date (YYYY-MM-DD, default today)"`
}

func (h *HealthHandlers) ListAtRiskCompanies(ctx context.Context, request *mcp.CallToolRequest, input AtRiskInput) (*mcp.CallToolResult, HealthHistoryOutput, error) {
	day := input.Date
	if day == "" {
		day = time.Now().In(h.loc).Format(models.SnapshotDateFormat)
	}

	snaps, err := h.store.ListSnapshotsByStatus(ctx, day, models.HealthAtRisk, models.HealthCritical)
	if err != nil {
		return nil, HealthHistoryOutput{}, fmt.Errorf("failed to list snapshots: %w", err)
	}
	if snaps == nil {
		snaps = []models.HealthScoreSnapshot{}
	}

	return nil, HealthHistoryOutput{Snapshots: snaps}, nil
}
