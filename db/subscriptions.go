// ABOUTME: Subscription database operations
// ABOUTME: Handles CRUD, partial updates and latest-subscription lookup per company
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/crmpulse/models"
)

var subscriptionColumns = map[string]bool{
	"plan_id":            true,
	"billing_cycle":      true,
	"status":             true,
	"current_period_end": true,
	"next_billing_date":  true,
}

const subscriptionSelect = `
	SELECT id, company_id, plan_id, billing_cycle, status, current_period_end, next_billing_date, created_at, updated_at
	FROM subscriptions`

func (s *Store) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.BillingCycle == "" {
		sub.BillingCycle = "monthly"
	}
	now := s.now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, company_id, plan_id, billing_cycle, status, current_period_end, next_billing_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.CompanyID, sub.PlanID, sub.BillingCycle, sub.Status,
		nullTime(sub.CurrentPeriodEnd), nullTime(sub.NextBillingDate), sub.CreatedAt.UTC(), sub.UpdatedAt)

	return err
}

// GetSubscription returns the subscription or ErrNotFound.
func (s *Store) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	row := s.db.QueryRowContext(ctx, subscriptionSelect+` WHERE id = ?`, id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subscription %s: %w", id, ErrNotFound)
	}
	return sub, err
}

// PatchSubscription updates only the given columns of a subscription.
func (s *Store) PatchSubscription(ctx context.Context, id string, p Patch) error {
	if err := s.patch(ctx, "subscriptions", subscriptionColumns, id, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("subscription %s: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

// LatestSubscription returns the most recently created subscription for a company, or nil if it has none.
func (s *Store) LatestSubscription(ctx context.Context, companyID string) (*models.Subscription, error) {
	row := s.db.QueryRowContext(ctx, subscriptionSelect+`
		WHERE company_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, companyID)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sub, err
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var sub models.Subscription
	var periodEnd, nextBilling sql.NullTime

	err := row.Scan(
		&sub.ID,
		&sub.CompanyID,
		&sub.PlanID,
		&sub.BillingCycle,
		&sub.Status,
		&periodEnd,
		&nextBilling,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sub.CurrentPeriodEnd = timePtr(periodEnd)
	sub.NextBillingDate = timePtr(nextBilling)

	return &sub, nil
}
