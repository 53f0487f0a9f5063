// ABOUTME: Health score snapshot persistence
// ABOUTME: Upserts one row per company per calendar day and serves history reads
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/crmpulse/models"
)

const snapshotSelect = `
	SELECT id, company_id, snapshot_date, engagement_score, product_usage_score, support_score,
		payment_score, overall_score, health_status, risk_factors, recommendations, calculated_at
	FROM health_scores`

// UpsertDailySnapshot inserts the snapshot for (company, SnapshotDate) or updates
// the existing row for that day in place. On update the original row ID is kept
// and copied back into snap.
func (s *Store) UpsertDailySnapshot(ctx context.Context, snap *models.HealthScoreSnapshot) error {
	if snap.CompanyID == "" || snap.SnapshotDate == "" {
		return errors.New("snapshot requires company_id and snapshot_date")
	}
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}

	risks, err := encodeJSON(nonNilRisks(snap.RiskFactors))
	if err != nil {
		return err
	}
	recs, err := encodeJSON(nonNilRecommendations(snap.Recommendations))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO health_scores (id, company_id, snapshot_date, engagement_score, product_usage_score,
			support_score, payment_score, overall_score, health_status, risk_factors, recommendations, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, snapshot_date) DO UPDATE SET
			engagement_score = excluded.engagement_score,
			product_usage_score = excluded.product_usage_score,
			support_score = excluded.support_score,
			payment_score = excluded.payment_score,
			overall_score = excluded.overall_score,
			health_status = excluded.health_status,
			risk_factors = excluded.risk_factors,
			recommendations = excluded.recommendations,
			calculated_at = excluded.calculated_at
	`, snap.ID, snap.CompanyID, snap.SnapshotDate, snap.EngagementScore, snap.ProductUsageScore,
		snap.SupportScore, snap.PaymentScore, snap.OverallScore, snap.HealthStatus, risks, recs,
		snap.CalculatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert health snapshot: %w", err)
	}

	return s.db.QueryRowContext(ctx, `
		SELECT id FROM health_scores WHERE company_id = ? AND snapshot_date = ?
	`, snap.CompanyID, snap.SnapshotDate).Scan(&snap.ID)
}

// ListSnapshots returns a company's snapshots with from <= snapshot_date <= to, newest first.
// Empty bounds are open.
func (s *Store) ListSnapshots(ctx context.Context, companyID, from, to string) ([]models.HealthScoreSnapshot, error) {
	query := snapshotSelect + ` WHERE company_id = ?`
	args := []interface{}{companyID}
	if from != "" {
		query += ` AND snapshot_date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND snapshot_date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY snapshot_date DESC`

	return s.querySnapshots(ctx, query, args...)
}

// LatestSnapshot returns the newest snapshot for a company or ErrNotFound.
func (s *Store) LatestSnapshot(ctx context.Context, companyID string) (*models.HealthScoreSnapshot, error) {
	row := s.db.QueryRowContext(ctx, snapshotSelect+`
		WHERE company_id = ?
		ORDER BY snapshot_date DESC
		LIMIT 1
	`, companyID)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("health snapshot for company %s: %w", companyID, ErrNotFound)
	}
	return snap, err
}

// ListSnapshotsByStatus returns every snapshot taken on date with one of the given statuses,
// lowest overall score first.
func (s *Store) ListSnapshotsByStatus(ctx context.Context, date string, statuses ...string) ([]models.HealthScoreSnapshot, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	query := snapshotSelect + ` WHERE snapshot_date = ? AND health_status IN (?` + repeatPlaceholder(len(statuses)-1) + `) ORDER BY overall_score ASC`
	args := []interface{}{date}
	for _, st := range statuses {
		args = append(args, st)
	}

	return s.querySnapshots(ctx, query, args...)
}

func (s *Store) querySnapshots(ctx context.Context, query string, args ...interface{}) ([]models.HealthScoreSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var snaps []models.HealthScoreSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}

	return snaps, rows.Err()
}

func scanSnapshot(row rowScanner) (*models.HealthScoreSnapshot, error) {
	var snap models.HealthScoreSnapshot
	var risks, recs string

	err := row.Scan(
		&snap.ID,
		&snap.CompanyID,
		&snap.SnapshotDate,
		&snap.EngagementScore,
		&snap.ProductUsageScore,
		&snap.SupportScore,
		&snap.PaymentScore,
		&snap.OverallScore,
		&snap.HealthStatus,
		&risks,
		&recs,
		&snap.CalculatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(risks), &snap.RiskFactors); err != nil {
		return nil, fmt.Errorf("decode risk_factors: %w", err)
	}
	if err := json.Unmarshal([]byte(recs), &snap.Recommendations); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}

	return &snap, nil
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}

func nonNilRisks(r []models.RiskFactor) []models.RiskFactor {
	if r == nil {
		return []models.RiskFactor{}
	}
	return r
}

func nonNilRecommendations(r []models.Recommendation) []models.Recommendation {
	if r == nil {
		return []models.Recommendation{}
	}
	return r
}
