// ABOUTME: Tests for dashboard statistics and rendering
// ABOUTME: Uses an in-memory source so no database is needed
package viz

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/crmpulse/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	companies []models.Company
	snaps     []models.HealthScoreSnapshot
	logs      []models.BulkOperationLog
	err       error
}

func (f *fakeSource) FindCompanies(_ context.Context, _ string, _ int) ([]models.Company, error) {
	return f.companies, f.err
}

func (f *fakeSource) ListSnapshotsByStatus(_ context.Context, _ string, _ ...string) ([]models.HealthScoreSnapshot, error) {
	return f.snaps, nil
}

func (f *fakeSource) ListBulkLogs(_ context.Context, _ int) ([]models.BulkOperationLog, error) {
	return f.logs, nil
}

func TestGenerateDashboardStats(t *testing.T) {
	src := &fakeSource{
		companies: []models.Company{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		snaps: []models.HealthScoreSnapshot{
			{CompanyID: "a", OverallScore: 28, HealthStatus: models.HealthCritical,
				RiskFactors: []models.RiskFactor{{Type: "no_users"}}},
			{CompanyID: "b", OverallScore: 85, HealthStatus: models.HealthExcellent},
		},
		logs: []models.BulkOperationLog{
			{ID: "r1", EntityType: "lead", Operation: "delete", Status: models.BulkStatusFailed, FailedCount: 2},
			{ID: "r2", EntityType: "company", Operation: "add_tags", Status: models.BulkStatusCompleted, SuccessCount: 3},
		},
	}

	stats, err := GenerateDashboardStats(context.Background(), src, "2024-03-01", 5)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalCompanies)
	assert.Equal(t, 2, stats.Scored)
	assert.Equal(t, 1, stats.Unscored)
	assert.Equal(t, 57, stats.AverageScore)
	assert.Equal(t, 1, stats.HealthByStatus[models.HealthCritical].Count)
	require.Len(t, stats.Critical, 1)
	assert.Equal(t, "no_users", stats.Critical[0].TopRisk)
	assert.Equal(t, 1, stats.FailedRuns)
	require.Len(t, stats.RecentRuns, 2)
	assert.Equal(t, "lead.delete", stats.RecentRuns[0].Operation)

	out := RenderDashboard(stats)
	assert.Contains(t, out, "CRMPULSE DASHBOARD  2024-03-01")
	assert.Contains(t, out, "critical")
	assert.Contains(t, out, "1 companies - no snapshot")
	assert.Contains(t, out, "company.add_tags")
}

func TestGenerateDashboardStatsEmpty(t *testing.T) {
	stats, err := GenerateDashboardStats(context.Background(), &fakeSource{}, "2024-03-01", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.AverageScore)

	out := RenderDashboard(stats)
	assert.Contains(t, out, "no snapshots")
	assert.NotContains(t, out, "NEEDS ATTENTION")
}

func TestGenerateDashboardStatsSourceError(t *testing.T) {
	_, err := GenerateDashboardStats(context.Background(), &fakeSource{err: errors.New("boom")}, "2024-03-01", 5)
	assert.Error(t, err)
}
