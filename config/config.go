// ABOUTME: Application configuration loaded from the environment and an optional .env file
// ABOUTME: Holds scoring weights, thresholds and bulk batching knobs as overridable values
package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/harperreed/crmpulse/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// DBPath is the SQLite database file. Defaults to $XDG_DATA_HOME/crmpulse/crmpulse.db.
	DBPath string `mapstructure:"CRMPULSE_DB_PATH"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	// PrettyLogs switches to the human readable console encoder.
	PrettyLogs bool `mapstructure:"PRETTY_LOGS"`
	// HTTPAddr is the listen address for the JSON API and /metrics.
	HTTPAddr string `mapstructure:"HTTP_ADDR" validate:"required"`
	// SnapshotTimezone is the IANA zone whose calendar day keys health snapshots.
	SnapshotTimezone string `mapstructure:"SNAPSHOT_TIMEZONE" validate:"required"`

	BulkBatchSize int `mapstructure:"BULK_BATCH_SIZE" validate:"min=1"`
	BulkWorkers   int `mapstructure:"BULK_WORKERS" validate:"min=1,max=64"`

	WeightEngagement   float64 `mapstructure:"HEALTH_WEIGHT_ENGAGEMENT" validate:"min=0,max=1"`
	WeightProductUsage float64 `mapstructure:"HEALTH_WEIGHT_PRODUCT_USAGE" validate:"min=0,max=1"`
	WeightSupport      float64 `mapstructure:"HEALTH_WEIGHT_SUPPORT" validate:"min=0,max=1"`
	WeightPayment      float64 `mapstructure:"HEALTH_WEIGHT_PAYMENT" validate:"min=0,max=1"`

	TierExcellent int `mapstructure:"HEALTH_TIER_EXCELLENT" validate:"min=0,max=100"`
	TierHealthy   int `mapstructure:"HEALTH_TIER_HEALTHY" validate:"min=0,max=100"`
	TierAtRisk    int `mapstructure:"HEALTH_TIER_AT_RISK" validate:"min=0,max=100"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Env vars override .env.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	v := viper.New()
	v.AutomaticEnv()

	defaultHealth := DefaultHealthConfig()
	defaultBulk := DefaultBulkConfig()

	v.SetDefault("CRMPULSE_DB_PATH", filepath.Join(xdg.DataHome, "crmpulse", "crmpulse.db"))
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PRETTY_LOGS", false)
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("SNAPSHOT_TIMEZONE", "UTC")
	v.SetDefault("BULK_BATCH_SIZE", defaultBulk.BatchSize)
	v.SetDefault("BULK_WORKERS", defaultBulk.Workers)
	v.SetDefault("HEALTH_WEIGHT_ENGAGEMENT", defaultHealth.Weights.Engagement)
	v.SetDefault("HEALTH_WEIGHT_PRODUCT_USAGE", defaultHealth.Weights.ProductUsage)
	v.SetDefault("HEALTH_WEIGHT_SUPPORT", defaultHealth.Weights.Support)
	v.SetDefault("HEALTH_WEIGHT_PAYMENT", defaultHealth.Weights.Payment)
	v.SetDefault("HEALTH_TIER_EXCELLENT", defaultHealth.Tiers.Excellent)
	v.SetDefault("HEALTH_TIER_HEALTHY", defaultHealth.Tiers.Healthy)
	v.SetDefault("HEALTH_TIER_AT_RISK", defaultHealth.Tiers.AtRisk)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field ranges and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if _, err := time.LoadLocation(c.SnapshotTimezone); err != nil {
		return fmt.Errorf("config: SNAPSHOT_TIMEZONE: %w", err)
	}

	return c.Health().Validate()
}

// Location returns the snapshot timezone. Falls back to UTC if the zone cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SnapshotTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Bulk returns the bulk processor settings.
func (c *Config) Bulk() BulkConfig {
	return BulkConfig{BatchSize: c.BulkBatchSize, Workers: c.BulkWorkers}
}

// Health returns the scoring configuration with env overrides applied to the defaults.
func (c *Config) Health() HealthConfig {
	h := DefaultHealthConfig()
	h.Weights = Weights{
		Engagement:   c.WeightEngagement,
		ProductUsage: c.WeightProductUsage,
		Support:      c.WeightSupport,
		Payment:      c.WeightPayment,
	}
	h.Tiers = Tiers{
		Excellent: c.TierExcellent,
		Healthy:   c.TierHealthy,
		AtRisk:    c.TierAtRisk,
	}
	return h
}

// BulkConfig controls batching of bulk operations.
type BulkConfig struct {
	// BatchSize splits entity IDs into batches for log granularity.
	BatchSize int
	// Workers bounds in-batch parallelism. 1 processes items sequentially.
	Workers int
}

// DefaultBulkConfig returns the reference batching: batches of 100, sequential.
func DefaultBulkConfig() BulkConfig {
	return BulkConfig{BatchSize: 100, Workers: 1}
}

// Weights are the sub-score weights. They must sum to 1.0.
type Weights struct {
	Engagement   float64
	ProductUsage float64
	Support      float64
	Payment      float64
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Engagement + w.ProductUsage + w.Support + w.Payment
}

// Tiers are inclusive lower bounds for the health status tiers.
type Tiers struct {
	Excellent int
	Healthy   int
	AtRisk    int
}

// RecencyTier awards Points when the last activity is at most MaxDays old.
type RecencyTier struct {
	MaxDays int
	Points  float64
}

// EngagementConfig holds engagement caps, windows and risk thresholds.
type EngagementConfig struct {
	ActiveWindow         time.Duration
	LoginWindow          time.Duration
	ActiveRatioCap       float64
	ActiveRatioFactor    float64
	FrequencyCap         float64
	Recency              []RecencyTier
	LowActiveRatio       float64
	InactiveDays         int
	CriticalInactiveDays int
	MinLogins            int
}

// UsageConfig holds product usage caps and multipliers.
type UsageConfig struct {
	RecentLeadsWindow  time.Duration
	PagesCap           float64
	PointsPerPage      float64
	PublishedCap       float64
	PointsPerPublished float64
	LeadsCap           float64
	LeadsLogFactor     float64
	RecentLeadsCap     float64
	PointsPerRecent    float64
	FeaturesCap        float64
	PointsPerFeature   float64
}

// PaymentConfig maps subscription status to a payment score.
type PaymentConfig struct {
	StatusScores   map[string]int
	UnknownScore   int
	ExpiringWindow time.Duration
}

// HealthConfig gathers every constant used by the health score engine.
type HealthConfig struct {
	Weights      Weights
	Tiers        Tiers
	Engagement   EngagementConfig
	Usage        UsageConfig
	Payment      PaymentConfig
	SupportScore int
}

// DefaultHealthConfig returns the reference scoring model.
func DefaultHealthConfig() HealthConfig {
	day := 24 * time.Hour
	return HealthConfig{
		Weights: Weights{Engagement: 0.35, ProductUsage: 0.30, Support: 0.20, Payment: 0.15},
		Tiers:   Tiers{Excellent: 80, Healthy: 60, AtRisk: 40},
		Engagement: EngagementConfig{
			ActiveWindow:      30 * day,
			LoginWindow:       7 * day,
			ActiveRatioCap:    40,
			ActiveRatioFactor: 0.4,
			FrequencyCap:      35,
			Recency: []RecencyTier{
				{MaxDays: 0, Points: 25},
				{MaxDays: 1, Points: 20},
				{MaxDays: 3, Points: 15},
				{MaxDays: 7, Points: 10},
				{MaxDays: 14, Points: 5},
			},
			LowActiveRatio:       0.20,
			InactiveDays:         7,
			CriticalInactiveDays: 14,
			MinLogins:            3,
		},
		Usage: UsageConfig{
			RecentLeadsWindow:  30 * day,
			PagesCap:           30,
			PointsPerPage:      5,
			PublishedCap:       10,
			PointsPerPublished: 2,
			LeadsCap:           40,
			LeadsLogFactor:     20,
			RecentLeadsCap:     10,
			PointsPerRecent:    0.5,
			FeaturesCap:        10,
			PointsPerFeature:   2,
		},
		Payment: PaymentConfig{
			StatusScores: map[string]int{
				models.SubscriptionActive:     100,
				models.SubscriptionTrialing:   90,
				models.SubscriptionPastDue:    40,
				models.SubscriptionCanceled:   0,
				models.SubscriptionIncomplete: 30,
			},
			UnknownScore:   50,
			ExpiringWindow: 7 * day,
		},
		SupportScore: 100,
	}
}

// Validate checks that weights sum to 1 and tiers are ordered.
func (h HealthConfig) Validate() error {
	if math.Abs(h.Weights.Sum()-1.0) > 1e-6 {
		return fmt.Errorf("config: health weights must sum to 1.0, got %.4f", h.Weights.Sum())
	}
	if !(h.Tiers.Excellent >= h.Tiers.Healthy && h.Tiers.Healthy >= h.Tiers.AtRisk) {
		return errors.New("config: health tiers must satisfy excellent >= healthy >= at_risk")
	}
	return nil
}
