// ABOUTME: Tests for company and lead MCP tool handlers
// ABOUTME: Validates tool input/output and error handling
package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/crmpulse/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndFindCompanies(t *testing.T) {
	f := setupFixture(t)
	h := NewCompanyHandlers(f.store)
	ctx := context.Background()

	_, out, err := h.AddCompany(ctx, nil, AddCompanyInput{Name: "Acme Corp", Domain: "acme.com", Tags: []string{"enterprise"}})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "active", out.Status)
	assert.Equal(t, []string{"enterprise"}, out.Tags)

	_, _, err = h.AddCompany(ctx, nil, AddCompanyInput{Name: "Globex"})
	require.NoError(t, err)

	_, found, err := h.FindCompanies(ctx, nil, FindCompaniesInput{Query: "acme"})
	require.NoError(t, err)
	require.Len(t, found.Companies, 1)
	assert.Equal(t, "Acme Corp", found.Companies[0].Name)

	_, all, err := h.FindCompanies(ctx, nil, FindCompaniesInput{})
	require.NoError(t, err)
	assert.Len(t, all.Companies, 2)
}

func TestAddCompanyRequiresName(t *testing.T) {
	f := setupFixture(t)
	h := NewCompanyHandlers(f.store)

	_, _, err := h.AddCompany(context.Background(), nil, AddCompanyInput{})
	assert.Error(t, err)
}

func TestAddLeadLinksCompany(t *testing.T) {
	f := setupFixture(t)
	h := NewCompanyHandlers(f.store)
	ctx := context.Background()

	_, company, err := h.AddCompany(ctx, nil, AddCompanyInput{Name: "Acme Corp"})
	require.NoError(t, err)

	_, lead, err := h.AddLead(ctx, nil, AddLeadInput{Name: "Ada", Email: "ada@acme.com", CompanyID: company.ID})
	require.NoError(t, err)
	assert.Equal(t, company.ID, lead.CompanyID)
	assert.Equal(t, "new", lead.Status)
	assert.Equal(t, 0, lead.NoteCount)

	_, found, err := h.FindLeads(ctx, nil, FindLeadsInput{CompanyID: company.ID})
	require.NoError(t, err)
	require.Len(t, found.Leads, 1)
	assert.Equal(t, lead.ID, found.Leads[0].ID)
}

func TestAddLeadUnknownCompany(t *testing.T) {
	f := setupFixture(t)
	h := NewCompanyHandlers(f.store)

	_, _, err := h.AddLead(context.Background(), nil, AddLeadInput{Name: "Ada", CompanyID: "missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrNotFound))
}
