// ABOUTME: Usage data operations feeding the health score engine
// ABOUTME: Records users, activity events, landing pages and feature usage, and counts them per company
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/crmpulse/models"
)

func (s *Store) AddCompanyUser(ctx context.Context, user *models.CompanyUser) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO company_users (id, company_id, email, created_at)
		VALUES (?, ?, ?, ?)
	`, user.ID, user.CompanyID, user.Email, user.CreatedAt.UTC())

	return err
}

func (s *Store) RecordActivity(ctx context.Context, event *models.ActivityEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_events (id, company_id, user_id, event_type, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.ID, event.CompanyID, event.UserID, event.EventType, event.OccurredAt.UTC())

	return err
}

func (s *Store) CreateLandingPage(ctx context.Context, page *models.LandingPage) error {
	if page.ID == "" {
		page.ID = uuid.New().String()
	}
	if page.CreatedAt.IsZero() {
		page.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO landing_pages (id, company_id, title, published, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, page.ID, page.CompanyID, page.Title, page.Published, page.CreatedAt.UTC())

	return err
}

// SetFeatureUsage upserts the usage counter for one feature.
func (s *Store) SetFeatureUsage(ctx context.Context, usage *models.FeatureUsage) error {
	usage.UpdatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feature_usage (company_id, feature, usage_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(company_id, feature) DO UPDATE SET
			usage_count = excluded.usage_count,
			updated_at = excluded.updated_at
	`, usage.CompanyID, usage.Feature, usage.UsageCount, usage.UpdatedAt)

	return err
}

func (s *Store) CountCompanyUsers(ctx context.Context, companyID string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM company_users WHERE company_id = ?`, companyID)
}

// CountActiveUsers counts users with at least one login event since the given time.
func (s *Store) CountActiveUsers(ctx context.Context, companyID string, since time.Time) (int, error) {
	return s.count(ctx, `
		SELECT COUNT(DISTINCT user_id) FROM activity_events
		WHERE company_id = ? AND event_type = ? AND occurred_at >= ?
	`, companyID, models.EventLogin, since.UTC())
}

func (s *Store) CountEvents(ctx context.Context, companyID, eventType string, since time.Time) (int, error) {
	return s.count(ctx, `
		SELECT COUNT(*) FROM activity_events
		WHERE company_id = ? AND event_type = ? AND occurred_at >= ?
	`, companyID, eventType, since.UTC())
}

// LastActivityAt returns the newest activity event time, or nil if there is none.
func (s *Store) LastActivityAt(ctx context.Context, companyID string) (*time.Time, error) {
	var last time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT occurred_at FROM activity_events
		WHERE company_id = ?
		ORDER BY occurred_at DESC
		LIMIT 1
	`, companyID).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &last, nil
}

// CountLandingPages returns total and published landing pages for a company.
func (s *Store) CountLandingPages(ctx context.Context, companyID string) (int, int, error) {
	var total, published int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN published THEN 1 ELSE 0 END), 0)
		FROM landing_pages WHERE company_id = ?
	`, companyID).Scan(&total, &published)
	return total, published, err
}

// CountLeads counts a company's leads, optionally only those created since the given time.
func (s *Store) CountLeads(ctx context.Context, companyID string, since *time.Time) (int, error) {
	if since == nil {
		return s.count(ctx, `SELECT COUNT(*) FROM leads WHERE company_id = ?`, companyID)
	}
	return s.count(ctx, `
		SELECT COUNT(*) FROM leads WHERE company_id = ? AND created_at >= ?
	`, companyID, since.UTC())
}

// CountFeaturesUsed counts distinct features with nonzero usage.
func (s *Store) CountFeaturesUsed(ctx context.Context, companyID string) (int, error) {
	return s.count(ctx, `
		SELECT COUNT(DISTINCT feature) FROM feature_usage
		WHERE company_id = ? AND usage_count > 0
	`, companyID)
}

func (s *Store) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
