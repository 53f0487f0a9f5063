// ABOUTME: CLI commands that record subscriptions and product usage
// ABOUTME: Feeds the inputs the health score engine reads
package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/harperreed/crmpulse/models"
)

// AddSubscriptionCommand attaches a subscription to a company.
func (a *App) AddSubscriptionCommand(args []string) error {
	fs := flag.NewFlagSet("add-subscription", flag.ContinueOnError)
	companyID := fs.String("company", "", "Company ID (required)")
	plan := fs.String("plan", "", "Plan ID (required)")
	cycle := fs.String("cycle", "monthly", "Billing cycle")
	status := fs.String("status", models.SubscriptionActive, "Subscription status")
	periodEnd := fs.String("period-end", "", "Current period end (YYYY-MM-DD)")
	nextBilling := fs.String("next-billing", "", "Next billing date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *companyID == "" || *plan == "" {
		return fmt.Errorf("--company and --plan are required")
	}

	sub := &models.Subscription{
		CompanyID:    *companyID,
		PlanID:       *plan,
		BillingCycle: *cycle,
		Status:       *status,
	}
	var err error
	if sub.CurrentPeriodEnd, err = parseOptionalDate(*periodEnd); err != nil {
		return err
	}
	if sub.NextBillingDate, err = parseOptionalDate(*nextBilling); err != nil {
		return err
	}

	if err := a.Store.CreateSubscription(context.Background(), sub); err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	fmt.Fprintf(a.Out, "✓ Subscription created: %s on %s (ID: %s)\n", sub.Status, sub.PlanID, sub.ID)
	return nil
}

// AddUserCommand adds a user seat to a company.
func (a *App) AddUserCommand(args []string) error {
	fs := flag.NewFlagSet("add-user", flag.ContinueOnError)
	companyID := fs.String("company", "", "Company ID (required)")
	email := fs.String("email", "", "User email (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *companyID == "" || *email == "" {
		return fmt.Errorf("--company and --email are required")
	}

	user := &models.CompanyUser{CompanyID: *companyID, Email: *email}
	if err := a.Store.AddCompanyUser(context.Background(), user); err != nil {
		return fmt.Errorf("failed to add user: %w", err)
	}

	fmt.Fprintf(a.Out, "✓ User added: %s (ID: %s)\n", user.Email, user.ID)
	return nil
}

// RecordActivityCommand records one activity event such as a login.
func (a *App) RecordActivityCommand(args []string) error {
	fs := flag.NewFlagSet("record-activity", flag.ContinueOnError)
	companyID := fs.String("company", "", "Company ID (required)")
	userID := fs.String("user", "", "User ID (required)")
	eventType := fs.String("type", models.EventLogin, "Event type")
	at := fs.String("at", "", "When it happened (RFC3339, default: now)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *companyID == "" || *userID == "" {
		return fmt.Errorf("--company and --user are required")
	}

	event := &models.ActivityEvent{CompanyID: *companyID, UserID: *userID, EventType: *eventType}
	if *at != "" {
		ts, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		event.OccurredAt = ts
	}

	if err := a.Store.RecordActivity(context.Background(), event); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	fmt.Fprintf(a.Out, "✓ Recorded %s for %s\n", event.EventType, event.UserID)
	return nil
}

// AddPageCommand records a landing page for a company.
func (a *App) AddPageCommand(args []string) error {
	fs := flag.NewFlagSet("add-page", flag.ContinueOnError)
	companyID := fs.String("company", "", "Company ID (required)")
	title := fs.String("title", "", "Page title (required)")
	published := fs.Bool("published", false, "Whether the page is live")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *companyID == "" || *title == "" {
		return fmt.Errorf("--company and --title are required")
	}

	page := &models.LandingPage{CompanyID: *companyID, Title: *title, Published: *published}
	if err := a.Store.CreateLandingPage(context.Background(), page); err != nil {
		return fmt.Errorf("failed to add page: %w", err)
	}

	fmt.Fprintf(a.Out, "✓ Page added: %s (ID: %s)\n", page.Title, page.ID)
	return nil
}

// SetFeatureCommand sets the usage counter of one feature.
func (a *App) SetFeatureCommand(args []string) error {
	fs := flag.NewFlagSet("set-feature", flag.ContinueOnError)
	companyID := fs.String("company", "", "Company ID (required)")
	feature := fs.String("feature", "", "Feature name (required)")
	count := fs.Int("count", 1, "Usage count")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *companyID == "" || *feature == "" {
		return fmt.Errorf("--company and --feature are required")
	}

	usage := &models.FeatureUsage{CompanyID: *companyID, Feature: *feature, UsageCount: *count}
	if err := a.Store.SetFeatureUsage(context.Background(), usage); err != nil {
		return fmt.Errorf("failed to set feature usage: %w", err)
	}

	fmt.Fprintf(a.Out, "✓ %s usage set to %d\n", usage.Feature, usage.UsageCount)
	return nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(models.SnapshotDateFormat, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return &t, nil
}
