// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarises portfolio health distribution and recent bulk runs as ASCII
package viz

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/crmpulse/models"
)

// DashboardSource is what the dashboard reads. db.Store implements it.
type DashboardSource interface {
	FindCompanies(ctx context.Context, query string, limit int) ([]models.Company, error)
	ListSnapshotsByStatus(ctx context.Context, date string, statuses ...string) ([]models.HealthScoreSnapshot, error)
	ListBulkLogs(ctx context.Context, limit int) ([]models.BulkOperationLog, error)
}

type DashboardStats struct {
	Date string

	// Health distribution for Date
	HealthByStatus map[string]HealthStatusStats

	TotalCompanies int
	Scored         int
	AverageScore   int

	RecentRuns []RunItem

	// Needs attention
	Critical   []AttentionItem
	Unscored   int
	FailedRuns int
}

type HealthStatusStats struct {
	Status string
	Count  int
}

type RunItem struct {
	ID        string
	Operation string
	Status    string
	Succeeded int
	Failed    int
}

type AttentionItem struct {
	CompanyID string
	Score     int
	TopRisk   string
}

var statusOrder = []string{
	models.HealthExcellent,
	models.HealthHealthy,
	models.HealthAtRisk,
	models.HealthCritical,
}

// GenerateDashboardStats collects stats for the snapshot day date.
func GenerateDashboardStats(ctx context.Context, src DashboardSource, date string, recentRuns int) (*DashboardStats, error) {
	stats := &DashboardStats{
		Date:           date,
		HealthByStatus: make(map[string]HealthStatusStats),
	}

	companies, err := src.FindCompanies(ctx, "", 10000)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch companies: %w", err)
	}
	stats.TotalCompanies = len(companies)

	snaps, err := src.ListSnapshotsByStatus(ctx, date, statusOrder...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshots: %w", err)
	}

	total := 0
	for _, snap := range snaps {
		s := stats.HealthByStatus[snap.HealthStatus]
		s.Status = snap.HealthStatus
		s.Count++
		stats.HealthByStatus[snap.HealthStatus] = s
		total += snap.OverallScore

		if snap.HealthStatus == models.HealthCritical {
			item := AttentionItem{CompanyID: snap.CompanyID, Score: snap.OverallScore, TopRisk: "-"}
			if len(snap.RiskFactors) > 0 {
				item.TopRisk = snap.RiskFactors[0].Type
			}
			stats.Critical = append(stats.Critical, item)
		}
	}
	stats.Scored = len(snaps)
	if stats.Scored > 0 {
		stats.AverageScore = (total + stats.Scored/2) / stats.Scored
	}
	if stats.TotalCompanies > stats.Scored {
		stats.Unscored = stats.TotalCompanies - stats.Scored
	}

	logs, err := src.ListBulkLogs(ctx, recentRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bulk runs: %w", err)
	}
	for _, l := range logs {
		stats.RecentRuns = append(stats.RecentRuns, RunItem{
			ID:        l.ID,
			Operation: l.EntityType + "." + l.Operation,
			Status:    l.Status,
			Succeeded: l.SuccessCount,
			Failed:    l.FailedCount,
		})
		if l.Status == models.BulkStatusFailed {
			stats.FailedRuns++
		}
	}

	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString(fmt.Sprintf("  CRMPULSE DASHBOARD  %s\n", stats.Date))
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("HEALTH DISTRIBUTION\n")
	renderHealth(&out, stats.HealthByStatus)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  %d companies  %d scored  average %d\n\n",
		stats.TotalCompanies, stats.Scored, stats.AverageScore))

	if len(stats.RecentRuns) > 0 {
		out.WriteString("RECENT BULK RUNS\n")
		for _, r := range stats.RecentRuns {
			out.WriteString(fmt.Sprintf("  %-28s %-10s %3d ok %3d failed  %s\n",
				r.Operation, r.Status, r.Succeeded, r.Failed, r.ID))
		}
		out.WriteString("\n")
	}

	if len(stats.Critical) > 0 || stats.Unscored > 0 || stats.FailedRuns > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		for _, c := range stats.Critical {
			out.WriteString(fmt.Sprintf("  ⚠️  %s critical (%d): %s\n", c.CompanyID, c.Score, c.TopRisk))
		}
		if stats.Unscored > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d companies - no snapshot for %s\n", stats.Unscored, stats.Date))
		}
		if stats.FailedRuns > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d bulk runs failed for every entity\n", stats.FailedRuns))
		}
	}

	return out.String()
}

func renderHealth(out *strings.Builder, byStatus map[string]HealthStatusStats) {
	maxCount := 0
	for _, s := range byStatus {
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}
	if maxCount == 0 {
		out.WriteString("  no snapshots\n")
		return
	}

	for _, status := range statusOrder {
		s := byStatus[status]

		// 0-10 blocks
		barLength := (s.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-10s %s  %2d\n", status, bar, s.Count))
	}
}
