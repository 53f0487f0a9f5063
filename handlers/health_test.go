// ABOUTME: Tests for health score MCP tool handlers
// ABOUTME: Covers calculate, save, history and at-risk listing
package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/crmpulse/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateHealthScoreWithoutSave(t *testing.T) {
	f := setupFixture(t)
	h := NewHealthHandlers(f.store, f.engine, time.UTC)
	ctx := context.Background()

	company := &models.Company{Name: "Empty Inc"}
	require.NoError(t, f.store.CreateCompany(ctx, company))

	_, snap, err := h.CalculateHealthScore(ctx, nil, CalculateHealthInput{CompanyID: company.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, snap.EngagementScore)
	assert.Equal(t, models.HealthCritical, snap.HealthStatus)
	require.NotEmpty(t, snap.RiskFactors)
	assert.Equal(t, "no_users", snap.RiskFactors[0].Type)

	_, history, err := h.GetHealthHistory(ctx, nil, HealthHistoryInput{CompanyID: company.ID})
	require.NoError(t, err)
	assert.Empty(t, history.Snapshots)
}

func TestCalculateHealthScoreSaveAndAtRisk(t *testing.T) {
	f := setupFixture(t)
	h := NewHealthHandlers(f.store, f.engine, time.UTC)
	ctx := context.Background()

	company := &models.Company{Name: "Empty Inc"}
	require.NoError(t, f.store.CreateCompany(ctx, company))

	_, first, err := h.CalculateHealthScore(ctx, nil, CalculateHealthInput{CompanyID: company.ID, Save: true})
	require.NoError(t, err)
	_, second, err := h.CalculateHealthScore(ctx, nil, CalculateHealthInput{CompanyID: company.ID, Save: true})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, history, err := h.GetHealthHistory(ctx, nil, HealthHistoryInput{CompanyID: company.ID})
	require.NoError(t, err)
	require.Len(t, history.Snapshots, 1)

	_, atRisk, err := h.ListAtRiskCompanies(ctx, nil, AtRiskInput{Date: second.SnapshotDate})
	require.NoError(t, err)
	require.Len(t, atRisk.Snapshots, 1)
	assert.Equal(t, company.ID, atRisk.Snapshots[0].CompanyID)

	_, none, err := h.ListAtRiskCompanies(ctx, nil, AtRiskInput{Date: "1999-01-01"})
	require.NoError(t, err)
	assert.Empty(t, none.Snapshots)
}

func TestHealthHandlerInputErrors(t *testing.T) {
	f := setupFixture(t)
	h := NewHealthHandlers(f.store, f.engine, nil)
	ctx := context.Background()

	_, _, err := h.CalculateHealthScore(ctx, nil, CalculateHealthInput{})
	assert.Error(t, err)

	_, _, err = h.CalculateHealthScore(ctx, nil, CalculateHealthInput{CompanyID: "ghost"})
	assert.Error(t, err)

	_, _, err = h.GetHealthHistory(ctx, nil, HealthHistoryInput{})
	assert.Error(t, err)

	_, _, err = h.GetHealthHistory(ctx, nil, HealthHistoryInput{CompanyID: "x", From: "03/01/2024"})
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}
