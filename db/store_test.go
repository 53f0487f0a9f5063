// ABOUTME: Tests for the typed CRM repositories behind Store
// ABOUTME: Covers leads, companies, subscriptions, usage counts and partial updates
package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/harperreed/crmpulse/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	require.NoError(t, InitSchema(database))
	t.Cleanup(func() { _ = database.Close() })
	return NewStore(database)
}

func seedCompany(t *testing.T, s *Store, name string) *models.Company {
	t.Helper()
	company := &models.Company{Name: name, Domain: name + ".example"}
	require.NoError(t, s.CreateCompany(context.Background(), company))
	return company
}

func TestLeadLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "acme")

	lead := &models.Lead{CompanyID: &company.ID, Name: "Ada", Email: "ada@acme.example", Tags: []string{"vip"}}
	require.NoError(t, s.CreateLead(ctx, lead))
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "new", lead.Status)

	got, err := s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, []string{"vip"}, got.Tags)
	require.NotNil(t, got.CompanyID)
	assert.Equal(t, company.ID, *got.CompanyID)
	assert.Nil(t, got.AssignedTo)
	assert.Empty(t, got.CustomFields)

	require.NoError(t, s.PatchLead(ctx, lead.ID, Patch{
		"status":      "qualified",
		"assigned_to": "rep-1",
		"tags":        []string{"vip", "warm"},
	}))

	got, err = s.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "qualified", got.Status)
	assert.Equal(t, []string{"vip", "warm"}, got.Tags)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, "rep-1", *got.AssignedTo)

	leads, err := s.FindLeads(ctx, LeadFilter{CompanyID: company.ID, Status: "qualified"})
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	require.NoError(t, s.DeleteLead(ctx, lead.ID))
	_, err = s.GetLead(ctx, lead.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteLead(ctx, lead.ID), ErrNotFound)
}

func TestPatchRejectsUnknownColumn(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "acme")

	err := s.PatchCompany(ctx, company.ID, Patch{"created_at": time.Now()})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	err = s.PatchCompany(ctx, company.ID, Patch{})
	assert.ErrorIs(t, err, ErrInvalidPatch)
}

func TestPatchMissingRow(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.PatchLead(ctx, "missing", Patch{"status": "lost"}), ErrNotFound)
	assert.ErrorIs(t, s.PatchCompany(ctx, "missing", Patch{"status": "churned"}), ErrNotFound)
	assert.ErrorIs(t, s.PatchSubscription(ctx, "missing", Patch{"plan_id": "pro"}), ErrNotFound)
}

func TestCompanyCustomFieldsRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "globex")

	fields := map[string]interface{}{
		models.NotesField: []interface{}{
			map[string]interface{}{"note": "kickoff", "created_by": "sam"},
		},
		"tier": "gold",
	}
	require.NoError(t, s.PatchCompany(ctx, company.ID, Patch{"custom_fields": fields, "cs_manager_id": "csm-9"}))

	got, err := s.GetCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, "gold", got.CustomFields["tier"])
	notes, ok := got.CustomFields[models.NotesField].([]interface{})
	require.True(t, ok)
	assert.Len(t, notes, 1)
	require.NotNil(t, got.CSManagerID)
	assert.Equal(t, "csm-9", *got.CSManagerID)

	found, err := s.FindCompanies(ctx, "glob", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, company.ID, found[0].ID)
}

func TestLatestSubscription(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "initech")

	none, err := s.LatestSubscription(ctx, company.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	old := &models.Subscription{CompanyID: company.ID, PlanID: "starter", Status: models.SubscriptionCanceled}
	require.NoError(t, s.CreateSubscription(ctx, old))

	next := base.AddDate(0, 1, 0)
	s.now = func() time.Time { return base.Add(time.Hour) }
	current := &models.Subscription{CompanyID: company.ID, PlanID: "pro", Status: models.SubscriptionActive, NextBillingDate: &next}
	require.NoError(t, s.CreateSubscription(ctx, current))

	latest, err := s.LatestSubscription(ctx, company.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, current.ID, latest.ID)
	assert.Nil(t, latest.CurrentPeriodEnd)
	require.NotNil(t, latest.NextBillingDate)
	assert.True(t, next.Equal(*latest.NextBillingDate))
}

func TestUsageCounts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "hooli")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, email := range []string{"a@hooli.example", "b@hooli.example", "c@hooli.example"} {
		require.NoError(t, s.AddCompanyUser(ctx, &models.CompanyUser{CompanyID: company.ID, Email: email}))
	}
	events := []models.ActivityEvent{
		{CompanyID: company.ID, UserID: "a", EventType: models.EventLogin, OccurredAt: now.Add(-time.Hour)},
		{CompanyID: company.ID, UserID: "a", EventType: models.EventLogin, OccurredAt: now.Add(-48 * time.Hour)},
		{CompanyID: company.ID, UserID: "b", EventType: models.EventLogin, OccurredAt: now.AddDate(0, 0, -20)},
		{CompanyID: company.ID, UserID: "c", EventType: models.EventLogin, OccurredAt: now.AddDate(0, 0, -40)},
		{CompanyID: company.ID, UserID: "c", EventType: models.EventPageView, OccurredAt: now.Add(-time.Minute)},
	}
	for i := range events {
		require.NoError(t, s.RecordActivity(ctx, &events[i]))
	}

	users, err := s.CountCompanyUsers(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, users)

	active, err := s.CountActiveUsers(ctx, company.ID, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 2, active)

	logins, err := s.CountEvents(ctx, company.ID, models.EventLogin, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, 2, logins)

	last, err := s.LastActivityAt(ctx, company.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, now.Add(-time.Minute).Equal(*last))

	require.NoError(t, s.CreateLandingPage(ctx, &models.LandingPage{CompanyID: company.ID, Title: "Spring", Published: true}))
	require.NoError(t, s.CreateLandingPage(ctx, &models.LandingPage{CompanyID: company.ID, Title: "Draft"}))
	total, published, err := s.CountLandingPages(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, published)

	require.NoError(t, s.CreateLead(ctx, &models.Lead{CompanyID: &company.ID, Name: "old", CreatedAt: now.AddDate(0, 0, -60)}))
	require.NoError(t, s.CreateLead(ctx, &models.Lead{CompanyID: &company.ID, Name: "new", CreatedAt: now.AddDate(0, 0, -2)}))
	allLeads, err := s.CountLeads(ctx, company.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, allLeads)
	since := now.AddDate(0, 0, -30)
	recent, err := s.CountLeads(ctx, company.ID, &since)
	require.NoError(t, err)
	assert.Equal(t, 1, recent)

	require.NoError(t, s.SetFeatureUsage(ctx, &models.FeatureUsage{CompanyID: company.ID, Feature: "forms", UsageCount: 4}))
	require.NoError(t, s.SetFeatureUsage(ctx, &models.FeatureUsage{CompanyID: company.ID, Feature: "ab_tests", UsageCount: 0}))
	require.NoError(t, s.SetFeatureUsage(ctx, &models.FeatureUsage{CompanyID: company.ID, Feature: "ab_tests", UsageCount: 2}))
	features, err := s.CountFeaturesUsed(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, features)
}

func TestLastActivityAtNone(t *testing.T) {
	s := setupTestStore(t)
	company := seedCompany(t, s, "empty")

	last, err := s.LastActivityAt(context.Background(), company.ID)
	require.NoError(t, err)
	assert.Nil(t, last)
}
