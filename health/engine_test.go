// ABOUTME: Tests for the health score engine
// ABOUTME: Uses an in-memory fake source and a fixed clock
package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harperreed/crmpulse/config"
	"github.com/harperreed/crmpulse/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

type fakeSource struct {
	users        int
	active       int
	logins       int
	lastActivity *time.Time
	pages        int
	published    int
	leads        int
	recentLeads  int
	features     int
	subscription *models.Subscription
	err          error

	activeSince time.Time
	loginSince  time.Time
	leadsSince  *time.Time
}

func (f *fakeSource) CountCompanyUsers(ctx context.Context, companyID string) (int, error) {
	return f.users, f.err
}

func (f *fakeSource) CountActiveUsers(ctx context.Context, companyID string, since time.Time) (int, error) {
	f.activeSince = since
	return f.active, nil
}

func (f *fakeSource) CountEvents(ctx context.Context, companyID, eventType string, since time.Time) (int, error) {
	f.loginSince = since
	return f.logins, nil
}

func (f *fakeSource) LastActivityAt(ctx context.Context, companyID string) (*time.Time, error) {
	return f.lastActivity, nil
}

func (f *fakeSource) CountLandingPages(ctx context.Context, companyID string) (int, int, error) {
	return f.pages, f.published, nil
}

func (f *fakeSource) CountLeads(ctx context.Context, companyID string, since *time.Time) (int, error) {
	if since == nil {
		return f.leads, nil
	}
	f.leadsSince = since
	return f.recentLeads, nil
}

func (f *fakeSource) CountFeaturesUsed(ctx context.Context, companyID string) (int, error) {
	return f.features, nil
}

func (f *fakeSource) LatestSubscription(ctx context.Context, companyID string) (*models.Subscription, error) {
	return f.subscription, nil
}

type memoryWriter struct {
	saved []*models.HealthScoreSnapshot
	err   error
}

func (m *memoryWriter) UpsertDailySnapshot(ctx context.Context, snap *models.HealthScoreSnapshot) error {
	if m.err != nil {
		return m.err
	}
	snap.ID = "snap-1"
	m.saved = append(m.saved, snap)
	return nil
}

func ago(d time.Duration) *time.Time {
	t := fixedNow.Add(-d)
	return &t
}

func newTestEngine(src Source) *Engine {
	return NewEngine(src, config.DefaultHealthConfig(), WithClock(func() time.Time { return fixedNow }))
}

func riskTypes(snap *models.HealthScoreSnapshot) []string {
	var types []string
	for _, r := range snap.RiskFactors {
		types = append(types, r.Type)
	}
	return types
}

func findRisk(snap *models.HealthScoreSnapshot, kind string) *models.RiskFactor {
	for i := range snap.RiskFactors {
		if snap.RiskFactors[i].Type == kind {
			return &snap.RiskFactors[i]
		}
	}
	return nil
}

func thrivingSource() *fakeSource {
	return &fakeSource{
		users:        10,
		active:       10,
		logins:       7,
		lastActivity: ago(time.Hour),
		pages:        6,
		published:    5,
		leads:        99,
		recentLeads:  20,
		features:     5,
		subscription: &models.Subscription{Status: models.SubscriptionActive},
	}
}

func TestCalculateThrivingCompany(t *testing.T) {
	snap, err := newTestEngine(thrivingSource()).Calculate(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, 100, snap.EngagementScore)
	assert.Equal(t, 100, snap.ProductUsageScore)
	assert.Equal(t, 100, snap.SupportScore)
	assert.Equal(t, 100, snap.PaymentScore)
	assert.Equal(t, 100, snap.OverallScore)
	assert.Equal(t, models.HealthExcellent, snap.HealthStatus)
	assert.Empty(t, snap.RiskFactors)
	assert.Empty(t, snap.Recommendations)
	assert.Equal(t, "2026-03-10", snap.SnapshotDate)
	assert.Equal(t, fixedNow, snap.CalculatedAt)
}

func TestCalculateUsesTrailingWindows(t *testing.T) {
	src := thrivingSource()
	_, err := newTestEngine(src).Calculate(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, fixedNow.AddDate(0, 0, -30), src.activeSince)
	assert.Equal(t, fixedNow.AddDate(0, 0, -7), src.loginSince)
	require.NotNil(t, src.leadsSince)
	assert.Equal(t, fixedNow.AddDate(0, 0, -30), *src.leadsSince)
}

func TestEngagementScenarioExactRatioThreshold(t *testing.T) {
	src := thrivingSource()
	src.users = 10
	src.active = 2
	src.logins = 1
	last := fixedNow
	src.lastActivity = &last

	snap, err := newTestEngine(src).Calculate(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, 38, snap.EngagementScore)
	assert.Contains(t, riskTypes(snap), "low_login_frequency")
	assert.NotContains(t, riskTypes(snap), "low_active_users")
}

func TestEngagementLowActiveRatio(t *testing.T) {
	src := thrivingSource()
	src.users = 10
	src.active = 1

	snap, err := newTestEngine(src).Calculate(context.Background(), "c1")
	require.NoError(t, err)

	risk := findRisk(snap, "low_active_users")
	require.NotNil(t, risk)
	assert.Equal(t, models.SeverityHigh, risk.Severity)
	require.Len(t, snap.Recommendations, 1)
	assert.Equal(t, models.PriorityHigh, snap.Recommendations[0].Priority)
}

func TestEngagementZeroUsers(t *testing.T) {
	src := thrivingSource()
	src.users = 0

	snap, err := newTestEngine(src).Calculate(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, 0, snap.EngagementScore)
	require.NotEmpty(t, snap.RiskFactors)
	assert.Equal(t, "no_users", snap.RiskFactors[0].Type)
	assert.Equal(t, models.SeverityCritical, snap.RiskFactors[0].Severity)
	assert.Nil(t, findRisk(snap, "inactive_company"))
	assert.Nil(t, findRisk(snap, "low_login_frequency"))
}

func TestEngagementRecencyTiers(t *testing.T) {
	tests := []struct {
		name    string
		last    *time.Time
		points  int
		risk    string
		urgency string
	}{
		{name: "today", last: ago(2 * time.Hour), points: 25},
		{name: "yesterday", last: ago(30 * time.Hour), points: 20},
		{name: "three days", last: ago(3*24*time.Hour + time.Hour), points: 15},
		{name: "a week", last: ago(7*24*time.Hour + time.Hour), points: 10},
		{name: "ten days", last: ago(10 * 24 * time.Hour), points: 5, risk: "inactive_company", urgency: models.SeverityHigh},
		{name: "a month", last: ago(30 * 24 * time.Hour), points: 0, risk: "inactive_company", urgency: models.SeverityCritical},
		{name: "never", last: nil, points: 0, risk: "inactive_company", urgency: models.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := thrivingSource()
			src.lastActivity = tt.last

			snap, err := newTestEngine(src).Calculate(context.Background(), "c1")
			require.NoError(t, err)

			// 40 active + 35 frequency
			assert.Equal(t, 75+tt.points, snap.EngagementScore)
			risk := findRisk(snap, "inactive_company")
			if tt.risk == "" {
				assert.Nil(t, risk)
				return
			}
			require.NotNil(t, risk)
			assert.Equal(t, tt.urgency, risk.Severity)
		})
	}
}

func TestProductUsageRisks(t *testing.T) {
	tests := []struct {
		name      string
		pages     int
		published int
		leads     int
		recent    int
		score     int
		risks     []string
		recs      int
	}{
		{name: "nothing built", score: 0, risks: []string{"no_landing_pages", "no_leads"}, recs: 2},
		{name: "drafts only", pages: 2, leads: 9, recent: 2, score: 10 + 20 + 1, risks: []string{"no_active_landing_pages"}, recs: 1},
		{name: "stalled leads", pages: 1, published: 1, leads: 9, recent: 0, score: 5 + 2 + 20, risks: []string{"declining_leads"}, recs: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := thrivingSource()
			src.pages = tt.pages
			src.published = tt.published
			src.leads = tt.leads
			src.recentLeads = tt.recent
			src.features = 0

			snap, err := newTestEngine(src).Calculate(context.Background(), "c1")
			require.NoError(t, err)

			assert.Equal(t, tt.score, snap.ProductUsageScore)
			assert.Equal(t, tt.risks, riskTypes(snap))
			assert.Len(t, snap.Recommendations, tt.recs)
		})
	}
}

func TestPaymentStatuses(t *testing.T) {
	tests := []struct {
		status string
		score  int
		risk   string
		recs   int
	}{
		{status: models.SubscriptionActive, score: 100},
		{status: models.SubscriptionTrialing, score: 90},
		{status: models.SubscriptionPastDue, score: 40, risk: "payment_past_due", recs: 1},
		{status: models.SubscriptionCanceled, score: 0, risk: "subscription_canceled"},
		{status: models.SubscriptionIncomplete, score: 30, risk: "incomplete_subscription"},
		{status: "paused", score: 50, risk: "no_subscription"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			src := thrivingSource()
			src.subscription = &models.Subscription{Status: tt.status}

			snap, err := newTestEngine(src).Calculate(context.Background(), "c1")
			require.NoError(t, err)

			assert.Equal(t, tt.score, snap.PaymentScore)
			if tt.risk == "" {
				assert.Empty(t, snap.RiskFactors)
			} else {
				assert.Equal(t, []string{tt.risk}, riskTypes(snap))
			}
			assert.Len(t, snap.Recommendations, tt.recs)
		})
	}
}

func TestPaymentNoSubscription(t *testing.T) {
	src := thrivingSource()
	src.subscription = nil

	snap, err := newTestEngine(src).Calculate(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, 50, snap.PaymentScore)
	risk := findRisk(snap, "no_subscription")
	require.NotNil(t, risk)
	assert.Equal(t, models.SeverityMedium, risk.Severity)
}

func TestPaymentExpiringWindow(t *testing.T) {
	tests := []struct {
		name     string
		end      time.Time
		expiring bool
	}{
		{name: "in three days", end: fixedNow.AddDate(0, 0, 3), expiring: true},
		{name: "exactly seven days", end: fixedNow.AddDate(0, 0, 7), expiring: true},
		{name: "in eight days", end: fixedNow.AddDate(0, 0, 8)},
		{name: "already ended", end: fixedNow.Add(-time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := thrivingSource()
			end := tt.end
			src.subscription = &models.Subscription{Status: models.SubscriptionActive, CurrentPeriodEnd: &end}

			snap, err := newTestEngine(src).Calculate(context.Background(), "c1")
			require.NoError(t, err)

			assert.Equal(t, 100, snap.PaymentScore)
			if tt.expiring {
				assert.Equal(t, []string{"subscription_expiring"}, riskTypes(snap))
				assert.Len(t, snap.Recommendations, 1)
			} else {
				assert.Empty(t, snap.RiskFactors)
			}
		})
	}
}

func TestCompositionOrderAndTier(t *testing.T) {
	src := &fakeSource{users: 0}

	snap, err := newTestEngine(src).Calculate(context.Background(), "c1")
	require.NoError(t, err)

	// 0.35*0 + 0.30*0 + 0.20*100 + 0.15*50 = 27.5
	assert.Equal(t, 28, snap.OverallScore)
	assert.Equal(t, models.HealthCritical, snap.HealthStatus)
	assert.Equal(t, []string{"no_users", "no_landing_pages", "no_leads", "no_subscription"}, riskTypes(snap))
	require.Len(t, snap.Recommendations, 2)
}

func TestOverallBounds(t *testing.T) {
	w := config.DefaultHealthConfig().Weights
	for _, e := range []int{0, 37, 100} {
		for _, u := range []int{0, 51, 100} {
			for _, p := range []int{0, 30, 40, 50, 90, 100} {
				overall := Overall(w, e, u, 100, p)
				assert.GreaterOrEqual(t, overall, 0)
				assert.LessOrEqual(t, overall, 100)
			}
		}
	}
	assert.Equal(t, 100, Overall(w, 100, 100, 100, 100))
	assert.Equal(t, 0, Overall(w, 0, 0, 0, 0))
}

func TestStatusTiers(t *testing.T) {
	tiers := config.DefaultHealthConfig().Tiers
	assert.Equal(t, models.HealthExcellent, Status(tiers, 80))
	assert.Equal(t, models.HealthHealthy, Status(tiers, 79))
	assert.Equal(t, models.HealthHealthy, Status(tiers, 60))
	assert.Equal(t, models.HealthAtRisk, Status(tiers, 59))
	assert.Equal(t, models.HealthAtRisk, Status(tiers, 40))
	assert.Equal(t, models.HealthCritical, Status(tiers, 39))
}

func TestCalculateSourceError(t *testing.T) {
	boom := errors.New("disk on fire")
	src := &fakeSource{err: boom}

	_, err := newTestEngine(src).Calculate(context.Background(), "c1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "engagement score for c1")
}

func TestSnapshotDateUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 15:30 UTC is 00:30 the next day in Tokyo.
	e := NewEngine(thrivingSource(), config.DefaultHealthConfig(),
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(tokyo),
	)
	snap, err := e.Calculate(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-11", snap.SnapshotDate)
}

func TestRecalculatePersists(t *testing.T) {
	w := &memoryWriter{}
	snap, err := newTestEngine(thrivingSource()).Recalculate(context.Background(), "c1", w)
	require.NoError(t, err)
	assert.Equal(t, "snap-1", snap.ID)
	require.Len(t, w.saved, 1)

	w = &memoryWriter{err: errors.New("locked")}
	_, err = newTestEngine(thrivingSource()).Recalculate(context.Background(), "c1", w)
	assert.ErrorContains(t, err, "save health snapshot for c1")
}
