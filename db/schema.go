// ABOUTME: Database schema definitions
// ABOUTME: Handles SQLite table creation for CRM entities, usage data, health snapshots and bulk logs
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS companies (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	domain TEXT,
	status TEXT NOT NULL DEFAULT 'active',
	tags TEXT NOT NULL DEFAULT '[]',
	cs_manager_id TEXT,
	custom_fields TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);

CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	company_id TEXT,
	name TEXT NOT NULL,
	email TEXT,
	status TEXT NOT NULL DEFAULT 'new',
	tags TEXT NOT NULL DEFAULT '[]',
	assigned_to TEXT,
	custom_fields TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (company_id) REFERENCES companies(id)
);

CREATE INDEX IF NOT EXISTS idx_leads_company_created ON leads(company_id, created_at);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);

CREATE TABLE IF NOT EXISTS subscriptions (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	plan_id TEXT NOT NULL,
	billing_cycle TEXT NOT NULL DEFAULT 'monthly',
	status TEXT NOT NULL,
	current_period_end DATETIME,
	next_billing_date DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (company_id) REFERENCES companies(id)
);

CREATE INDEX IF NOT EXISTS idx_subscriptions_company_created ON subscriptions(company_id, created_at DESC);

CREATE TABLE IF NOT EXISTS company_users (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	email TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (company_id) REFERENCES companies(id)
);

CREATE INDEX IF NOT EXISTS idx_company_users_company ON company_users(company_id);

CREATE TABLE IF NOT EXISTS activity_events (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	occurred_at DATETIME NOT NULL,
	FOREIGN KEY (company_id) REFERENCES companies(id)
);

CREATE INDEX IF NOT EXISTS idx_activity_events_company_time ON activity_events(company_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_activity_events_type ON activity_events(company_id, event_type, occurred_at);

CREATE TABLE IF NOT EXISTS landing_pages (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	title TEXT NOT NULL,
	published INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (company_id) REFERENCES companies(id)
);

CREATE INDEX IF NOT EXISTS idx_landing_pages_company ON landing_pages(company_id);

CREATE TABLE IF NOT EXISTS feature_usage (
	company_id TEXT NOT NULL,
	feature TEXT NOT NULL,
	usage_count INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (company_id, feature),
	FOREIGN KEY (company_id) REFERENCES companies(id)
);

CREATE TABLE IF NOT EXISTS health_scores (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	snapshot_date TEXT NOT NULL,
	engagement_score INTEGER NOT NULL CHECK(engagement_score BETWEEN 0 AND 100),
	product_usage_score INTEGER NOT NULL CHECK(product_usage_score BETWEEN 0 AND 100),
	support_score INTEGER NOT NULL CHECK(support_score BETWEEN 0 AND 100),
	payment_score INTEGER NOT NULL CHECK(payment_score BETWEEN 0 AND 100),
	overall_score INTEGER NOT NULL CHECK(overall_score BETWEEN 0 AND 100),
	health_status TEXT NOT NULL CHECK(health_status IN ('excellent', 'healthy', 'at_risk', 'critical')),
	risk_factors TEXT NOT NULL DEFAULT '[]',
	recommendations TEXT NOT NULL DEFAULT '[]',
	calculated_at DATETIME NOT NULL,
	UNIQUE(company_id, snapshot_date),
	FOREIGN KEY (company_id) REFERENCES companies(id)
);

CREATE INDEX IF NOT EXISTS idx_health_scores_status ON health_scores(health_status, snapshot_date);

CREATE TABLE IF NOT EXISTS bulk_operation_logs (
	id TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL,
	operation TEXT NOT NULL,
	entity_ids TEXT NOT NULL,
	parameters TEXT NOT NULL DEFAULT '{}',
	total_count INTEGER NOT NULL DEFAULT 0,
	success_count INTEGER NOT NULL DEFAULT 0,
	failed_count INTEGER NOT NULL DEFAULT 0,
	error_details TEXT NOT NULL DEFAULT '[]',
	status TEXT NOT NULL CHECK(status IN ('processing', 'completed', 'failed')),
	executed_by TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_bulk_operation_logs_created ON bulk_operation_logs(created_at DESC);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
