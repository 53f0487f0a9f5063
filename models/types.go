// ABOUTME: Data models for CRM entities touched by scoring and bulk operations
// ABOUTME: Defines Lead, Company, Subscription and the usage records behind health scores
package models

import (
	"time"
)

// Entity types accepted by bulk operations.
const (
	EntityLead         = "lead"
	EntityCompany      = "company"
	EntitySubscription = "subscription"
)

type Lead struct {
	ID           string                 `json:"id"`
	CompanyID    *string                `json:"company_id,omitempty"`
	Name         string                 `json:"name"`
	Email        string                 `json:"email,omitempty"`
	Status       string                 `json:"status"`
	Tags         []string               `json:"tags"`
	AssignedTo   *string                `json:"assigned_to,omitempty"`
	CustomFields map[string]interface{} `json:"custom_fields"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type Company struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Domain       string                 `json:"domain,omitempty"`
	Status       string                 `json:"status"`
	Tags         []string               `json:"tags"`
	CSManagerID  *string                `json:"cs_manager_id,omitempty"`
	CustomFields map[string]interface{} `json:"custom_fields"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type Subscription struct {
	ID               string     `json:"id"`
	CompanyID        string     `json:"company_id"`
	PlanID           string     `json:"plan_id"`
	BillingCycle     string     `json:"billing_cycle"`
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	NextBillingDate  *time.Time `json:"next_billing_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Subscription statuses recognised by payment scoring.
const (
	SubscriptionActive     = "active"
	SubscriptionTrialing   = "trialing"
	SubscriptionPastDue    = "past_due"
	SubscriptionCanceled   = "canceled"
	SubscriptionIncomplete = "incomplete"
)

// Note is one entry of the append-only notes list kept in CustomFields.
type Note struct {
	Note      string    `json:"note"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NotesField is the CustomFields key holding the notes list.
const NotesField = "notes"

type CompanyUser struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity event types.
const (
	EventLogin    = "login"
	EventPageView = "page_view"
	EventExport   = "export"
)

type ActivityEvent struct {
	ID         string    `json:"id"`
	CompanyID  string    `json:"company_id"`
	UserID     string    `json:"user_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
}

type LandingPage struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
}

type FeatureUsage struct {
	CompanyID  string    `json:"company_id"`
	Feature    string    `json:"feature"`
	UsageCount int       `json:"usage_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}
