// ABOUTME: Tests for health score snapshot persistence
// ABOUTME: Checks the one-row-per-company-per-day upsert and history reads
package db

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/crmpulse/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotFor(companyID, date string, overall int, status string) *models.HealthScoreSnapshot {
	return &models.HealthScoreSnapshot{
		CompanyID:         companyID,
		EngagementScore:   overall,
		ProductUsageScore: overall,
		SupportScore:      100,
		PaymentScore:      overall,
		OverallScore:      overall,
		HealthStatus:      status,
		SnapshotDate:      date,
		CalculatedAt:      time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		RiskFactors: []models.RiskFactor{
			{Type: "no_leads", Severity: models.SeverityHigh, Description: "No leads captured", Impact: "Product value unproven"},
		},
	}
}

func TestUpsertDailySnapshotSameDayUpdatesInPlace(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "acme")

	first := snapshotFor(company.ID, "2026-03-10", 55, models.HealthAtRisk)
	require.NoError(t, s.UpsertDailySnapshot(ctx, first))
	firstID := first.ID

	second := snapshotFor(company.ID, "2026-03-10", 72, models.HealthHealthy)
	second.RiskFactors = nil
	require.NoError(t, s.UpsertDailySnapshot(ctx, second))
	assert.Equal(t, firstID, second.ID)

	snaps, err := s.ListSnapshots(ctx, company.ID, "", "")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, firstID, snaps[0].ID)
	assert.Equal(t, 72, snaps[0].OverallScore)
	assert.Equal(t, models.HealthHealthy, snaps[0].HealthStatus)
	assert.Empty(t, snaps[0].RiskFactors)
}

func TestUpsertDailySnapshotNewDayInserts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "acme")

	require.NoError(t, s.UpsertDailySnapshot(ctx, snapshotFor(company.ID, "2026-03-09", 40, models.HealthAtRisk)))
	require.NoError(t, s.UpsertDailySnapshot(ctx, snapshotFor(company.ID, "2026-03-10", 61, models.HealthHealthy)))
	require.NoError(t, s.UpsertDailySnapshot(ctx, snapshotFor(company.ID, "2026-03-11", 82, models.HealthExcellent)))

	snaps, err := s.ListSnapshots(ctx, company.ID, "", "")
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, "2026-03-11", snaps[0].SnapshotDate)
	assert.Equal(t, "2026-03-09", snaps[2].SnapshotDate)
	require.Len(t, snaps[0].RiskFactors, 1)
	assert.Equal(t, "no_leads", snaps[0].RiskFactors[0].Type)

	ranged, err := s.ListSnapshots(ctx, company.ID, "2026-03-10", "2026-03-10")
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, 61, ranged[0].OverallScore)

	latest, err := s.LatestSnapshot(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-11", latest.SnapshotDate)
}

func TestLatestSnapshotNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.LatestSnapshot(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertDailySnapshotRequiresKey(t *testing.T) {
	s := setupTestStore(t)

	err := s.UpsertDailySnapshot(context.Background(), &models.HealthScoreSnapshot{CompanyID: "x"})
	assert.Error(t, err)
}

func TestListSnapshotsByStatus(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	a := seedCompany(t, s, "a")
	b := seedCompany(t, s, "b")
	c := seedCompany(t, s, "c")

	require.NoError(t, s.UpsertDailySnapshot(ctx, snapshotFor(a.ID, "2026-03-10", 45, models.HealthAtRisk)))
	require.NoError(t, s.UpsertDailySnapshot(ctx, snapshotFor(b.ID, "2026-03-10", 20, models.HealthCritical)))
	require.NoError(t, s.UpsertDailySnapshot(ctx, snapshotFor(c.ID, "2026-03-10", 90, models.HealthExcellent)))

	snaps, err := s.ListSnapshotsByStatus(ctx, "2026-03-10", models.HealthAtRisk, models.HealthCritical)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, b.ID, snaps[0].CompanyID)
	assert.Equal(t, a.ID, snaps[1].CompanyID)

	none, err := s.ListSnapshotsByStatus(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Empty(t, none)
}
