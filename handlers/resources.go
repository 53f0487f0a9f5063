// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only access to companies, health history and bulk runs via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/crmpulse/db"
	"github.com/harperreed/crmpulse/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ResourceHandlers struct {
	store *db.Store
}

func NewResourceHandlers(store *db.Store) *ResourceHandlers {
	return &ResourceHandlers{store: store}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "crm://") {
		return nil, fmt.Errorf("invalid URI scheme: expected crm://")
	}

	path := strings.TrimPrefix(uri, "crm://")
	parts := strings.Split(path, "/")

	switch parts[0] {
	case "companies":
		switch len(parts) {
		case 1:
			companies, err := h.store.FindCompanies(ctx, "", 1000)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch companies: %w", err)
			}
			return jsonResource(uri, companies)
		case 2:
			return h.readCompany(ctx, uri, parts[1])
		case 3:
			if parts[2] == "health" {
				return h.readHealthHistory(ctx, uri, parts[1])
			}
		}

	case "bulk-operations":
		if len(parts) == 1 {
			logs, err := h.store.ListBulkLogs(ctx, 50)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch bulk operations: %w", err)
			}
			return jsonResource(uri, logs)
		}
		log, err := h.store.GetBulkLog(ctx, parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to fetch bulk operation: %w", err)
		}
		return jsonResource(uri, log)
	}

	return nil, mcp.ResourceNotFoundError(uri)
}

func (h *ResourceHandlers) readCompany(ctx context.Context, uri, id string) (*mcp.ReadResourceResult, error) {
	company, err := h.store.GetCompany(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company: %w", err)
	}

	leads, err := h.store.FindLeads(ctx, db.LeadFilter{CompanyID: id, Limit: 1000})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company leads: %w", err)
	}

	var latest *models.HealthScoreSnapshot
	if snap, err := h.store.LatestSnapshot(ctx, id); err == nil {
		latest = snap
	}

	companyData := struct {
		models.Company
		Leads  []models.Lead               `json:"leads"`
		Health *models.HealthScoreSnapshot `json:"health,omitempty"`
	}{
		Company: *company,
		Leads:   leads,
		Health:  latest,
	}

	return jsonResource(uri, companyData)
}

func (h *ResourceHandlers) readHealthHistory(ctx context.Context, uri, id string) (*mcp.ReadResourceResult, error) {
	snaps, err := h.store.ListSnapshots(ctx, id, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch health history: %w", err)
	}
	if snaps == nil {
		snaps = []models.HealthScoreSnapshot{}
	}
	return jsonResource(uri, snaps)
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
