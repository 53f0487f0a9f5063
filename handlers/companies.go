// ABOUTME: Company and lead MCP tool handlers
// ABOUTME: Implements add_company, find_companies, add_lead and find_leads tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/crmpulse/db"
	"github.com/harperreed/crmpulse/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CompanyHandlers struct {
	store *db.Store
}

func NewCompanyHandlers(store *db.Store) *CompanyHandlers {
	return &CompanyHandlers{store: store}
}

type AddCompanyInput struct {
	Name   string   `json:"name" jsonschema:"Company name (required)"`
	Domain string   `json:"domain,omitempty" jsonschema:"Company domain (e.g., acme.com)"`
	Status string   `json:"status,omitempty" jsonschema:"Account status (default active)"`
	Tags   []string `json:"tags,omitempty" jsonschema:"Initial tags"`
}

type CompanyOutput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Domain      string   `json:"domain,omitempty"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	CSManagerID string   `json:"cs_manager_id,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func (h *CompanyHandlers) AddCompany(ctx context.Context, request *mcp.CallToolRequest, input AddCompanyInput) (*mcp.CallToolResult, CompanyOutput, error) {
	if input.Name == "" {
		return nil, CompanyOutput{}, fmt.Errorf("name is required")
	}

	company := &models.Company{
		Name:   input.Name,
		Domain: input.Domain,
		Status: input.Status,
		Tags:   input.Tags,
	}

	if err := h.store.CreateCompany(ctx, company); err != nil {
		return nil, CompanyOutput{}, fmt.Errorf("failed to create company: %w", err)
	}

	return nil, companyToOutput(company), nil
}

type FindCompaniesInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search query (searches name and domain)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindCompaniesOutput struct {
	Companies []CompanyOutput `json:"companies"`
}

func (h *CompanyHandlers) FindCompanies(ctx context.Context, request *mcp.CallToolRequest, input FindCompaniesInput) (*mcp.CallToolResult, FindCompaniesOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 10
	}

	companies, err := h.store.FindCompanies(ctx, input.Query, limit)
	if err != nil {
		return nil, FindCompaniesOutput{}, fmt.Errorf("failed to find companies: %w", err)
	}

	result := make([]CompanyOutput, len(companies))
	for i := range companies {
		result[i] = companyToOutput(&companies[i])
	}

	return nil, FindCompaniesOutput{Companies: result}, nil
}

type AddLeadInput struct {
	Name      string   `json:"name" jsonschema:"Lead name (required)"`
	Email     string   `json:"email,omitempty" jsonschema:"Email address"`
	CompanyID string   `json:"company_id,omitempty" jsonschema:"Company the lead was captured for"`
	Status    string   `json:"status,omitempty" jsonschema:"Lead status (default new)"`
	Tags      []string `json:"tags,omitempty" jsonschema:"Initial tags"`
}

type LeadOutput struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email,omitempty"`
	CompanyID  string   `json:"company_id,omitempty"`
	Status     string   `json:"status"`
	Tags       []string `json:"tags"`
	AssignedTo string   `json:"assigned_to,omitempty"`
	NoteCount  int      `json:"note_count"`
	CreatedAt  string   `json:"created_at"`
}

func (h *CompanyHandlers) AddLead(ctx context.Context, request *mcp.CallToolRequest, input AddLeadInput) (*mcp.CallToolResult, LeadOutput, error) {
	if input.Name == "" {
		return nil, LeadOutput{}, fmt.Errorf("name is required")
	}

	lead := &models.Lead{
		Name:   input.Name,
		Email:  input.Email,
		Status: input.Status,
		Tags:   input.Tags,
	}
	if input.CompanyID != "" {
		if _, err := h.store.GetCompany(ctx, input.CompanyID); err != nil {
			return nil, LeadOutput{}, err
		}
		lead.CompanyID = &input.CompanyID
	}

	if err := h.store.CreateLead(ctx, lead); err != nil {
		return nil, LeadOutput{}, fmt.Errorf("failed to create lead: %w", err)
	}

	return nil, leadToOutput(lead), nil
}

type FindLeadsInput struct {
	Query     string `json:"query,omitempty" jsonschema:"Search query (searches name and email)"`
	CompanyID string `json:"company_id,omitempty" jsonschema:"Filter by company ID"`
	Status    string `json:"status,omitempty" jsonschema:"Filter by status"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindLeadsOutput struct {
	Leads []LeadOutput `json:"leads"`
}

func (h *CompanyHandlers) FindLeads(ctx context.Context, request *mcp.CallToolRequest, input FindLeadsInput) (*mcp.CallToolResult, FindLeadsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 10
	}

	leads, err := h.store.FindLeads(ctx, db.LeadFilter{
		CompanyID: input.CompanyID,
		Status:    input.Status,
		Query:     input.Query,
		Limit:     limit,
	})
	if err != nil {
		return nil, FindLeadsOutput{}, fmt.Errorf("failed to find leads: %w", err)
	}

	result := make([]LeadOutput, len(leads))
	for i := range leads {
		result[i] = leadToOutput(&leads[i])
	}

	return nil, FindLeadsOutput{Leads: result}, nil
}

func companyToOutput(company *models.Company) CompanyOutput {
	out := CompanyOutput{
		ID:        company.ID,
		Name:      company.Name,
		Domain:    company.Domain,
		Status:    company.Status,
		Tags:      company.Tags,
		CreatedAt: company.CreatedAt.Format(time.RFC3339),
		UpdatedAt: company.UpdatedAt.Format(time.RFC3339),
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if company.CSManagerID != nil {
		out.CSManagerID = *company.CSManagerID
	}
	return out
}

func leadToOutput(lead *models.Lead) LeadOutput {
	out := LeadOutput{
		ID:        lead.ID,
		Name:      lead.Name,
		Email:     lead.Email,
		Status:    lead.Status,
		Tags:      lead.Tags,
		CreatedAt: lead.CreatedAt.Format(time.RFC3339),
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if lead.CompanyID != nil {
		out.CompanyID = *lead.CompanyID
	}
	if lead.AssignedTo != nil {
		out.AssignedTo = *lead.AssignedTo
	}
	if notes, ok := lead.CustomFields[models.NotesField].([]interface{}); ok {
		out.NoteCount = len(notes)
	}
	return out
}
