// ABOUTME: Health score snapshot model with embedded risk factors and recommendations
// ABOUTME: One snapshot row per company per calendar day
package models

import (
	"time"
)

// Health status tiers.
const (
	HealthExcellent = "excellent"
	HealthHealthy   = "healthy"
	HealthAtRisk    = "at_risk"
	HealthCritical  = "critical"
)

// Severity levels for risk factors.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Recommendation priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type RiskFactor struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

type Recommendation struct {
	Priority       string `json:"priority"`
	Action         string `json:"action"`
	Rationale      string `json:"rationale"`
	ExpectedImpact string `json:"expected_impact"`
}

type HealthScoreSnapshot struct {
	ID                string           `json:"id"`
	CompanyID         string           `json:"company_id"`
	EngagementScore   int              `json:"engagement_score"`
	ProductUsageScore int              `json:"product_usage_score"`
	SupportScore      int              `json:"support_score"`
	PaymentScore      int              `json:"payment_score"`
	OverallScore      int              `json:"overall_score"`
	HealthStatus      string           `json:"health_status"`
	RiskFactors       []RiskFactor     `json:"risk_factors"`
	Recommendations   []Recommendation `json:"recommendations"`
	SnapshotDate      string           `json:"snapshot_date"` // YYYY-MM-DD
	CalculatedAt      time.Time        `json:"calculated_at"`
}

// SnapshotDateFormat is the layout of HealthScoreSnapshot.SnapshotDate.
const SnapshotDateFormat = "2006-01-02"
