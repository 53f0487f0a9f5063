// ABOUTME: Health score engine composing engagement, usage, support and payment sub-scores
// ABOUTME: Reads company activity through Source and produces a dated snapshot
package health

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/harperreed/crmpulse/config"
	"github.com/harperreed/crmpulse/metrics"
	"github.com/harperreed/crmpulse/models"
	"go.uber.org/zap"
)

// Source is the read side the engine scores from. db.Store implements it.
type Source interface {
	CountCompanyUsers(ctx context.Context, companyID string) (int, error)
	CountActiveUsers(ctx context.Context, companyID string, since time.Time) (int, error)
	CountEvents(ctx context.Context, companyID, eventType string, since time.Time) (int, error)
	LastActivityAt(ctx context.Context, companyID string) (*time.Time, error)
	CountLandingPages(ctx context.Context, companyID string) (total int, published int, err error)
	CountLeads(ctx context.Context, companyID string, since *time.Time) (int, error)
	CountFeaturesUsed(ctx context.Context, companyID string) (int, error)
	LatestSubscription(ctx context.Context, companyID string) (*models.Subscription, error)
}

// SnapshotWriter persists one snapshot per company per day.
type SnapshotWriter interface {
	UpsertDailySnapshot(ctx context.Context, snap *models.HealthScoreSnapshot) error
}

type Engine struct {
	source Source
	cfg    config.HealthConfig
	now    func() time.Time
	loc    *time.Location
	logger *zap.Logger
}

type Option func(*Engine)

// WithClock overrides the engine's notion of now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the timezone that decides a snapshot's calendar day.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEngine(source Source, cfg config.HealthConfig, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		cfg:    cfg,
		now:    time.Now,
		loc:    time.UTC,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// component is one sub-score with the risks and recommendations it raised.
type component struct {
	score           int
	risks           []models.RiskFactor
	recommendations []models.Recommendation
}

func (c *component) risk(kind, severity, description, impact string) {
	c.risks = append(c.risks, models.RiskFactor{
		Type:        kind,
		Severity:    severity,
		Description: description,
		Impact:      impact,
	})
}

func (c *component) recommend(priority, action, rationale, expected string) {
	c.recommendations = append(c.recommendations, models.Recommendation{
		Priority:       priority,
		Action:         action,
		Rationale:      rationale,
		ExpectedImpact: expected,
	})
}

// Calculate scores a company. The returned snapshot has no ID and is not persisted.
func (e *Engine) Calculate(ctx context.Context, companyID string) (*models.HealthScoreSnapshot, error) {
	now := e.now()

	engagement, err := e.engagement(ctx, companyID, now)
	if err != nil {
		metrics.RecordHealthError()
		return nil, fmt.Errorf("engagement score for %s: %w", companyID, err)
	}
	usage, err := e.productUsage(ctx, companyID, now)
	if err != nil {
		metrics.RecordHealthError()
		return nil, fmt.Errorf("product usage score for %s: %w", companyID, err)
	}
	support := e.support()
	payment, err := e.payment(ctx, companyID, now)
	if err != nil {
		metrics.RecordHealthError()
		return nil, fmt.Errorf("payment score for %s: %w", companyID, err)
	}

	snap := &models.HealthScoreSnapshot{
		CompanyID:         companyID,
		EngagementScore:   engagement.score,
		ProductUsageScore: usage.score,
		SupportScore:      support.score,
		PaymentScore:      payment.score,
		RiskFactors:       []models.RiskFactor{},
		Recommendations:   []models.Recommendation{},
		SnapshotDate:      now.In(e.loc).Format(models.SnapshotDateFormat),
		CalculatedAt:      now.UTC(),
	}
	snap.OverallScore = Overall(e.cfg.Weights, snap.EngagementScore, snap.ProductUsageScore, snap.SupportScore, snap.PaymentScore)
	snap.HealthStatus = Status(e.cfg.Tiers, snap.OverallScore)

	for _, c := range []component{engagement, usage, support, payment} {
		snap.RiskFactors = append(snap.RiskFactors, c.risks...)
		snap.Recommendations = append(snap.Recommendations, c.recommendations...)
	}

	metrics.RecordHealthScore(snap.HealthStatus, snap.OverallScore)
	e.logger.Debug("health score calculated",
		zap.String("company_id", companyID),
		zap.Int("overall", snap.OverallScore),
		zap.String("status", snap.HealthStatus),
		zap.Int("risk_factors", len(snap.RiskFactors)),
	)

	return snap, nil
}

// Recalculate scores a company and upserts the snapshot for the current day.
func (e *Engine) Recalculate(ctx context.Context, companyID string, w SnapshotWriter) (*models.HealthScoreSnapshot, error) {
	snap, err := e.Calculate(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := w.UpsertDailySnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("save health snapshot for %s: %w", companyID, err)
	}
	return snap, nil
}

// Overall is the rounded weighted sum of the four sub-scores.
func Overall(w config.Weights, engagement, usage, support, payment int) int {
	sum := w.Engagement*float64(engagement) +
		w.ProductUsage*float64(usage) +
		w.Support*float64(support) +
		w.Payment*float64(payment)
	return clamp(int(math.Round(sum)))
}

// Status maps an overall score to its tier. Bounds are inclusive.
func Status(t config.Tiers, overall int) string {
	switch {
	case overall >= t.Excellent:
		return models.HealthExcellent
	case overall >= t.Healthy:
		return models.HealthHealthy
	case overall >= t.AtRisk:
		return models.HealthAtRisk
	default:
		return models.HealthCritical
	}
}

func roundScore(sum float64) int {
	return clamp(int(math.Round(sum)))
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
