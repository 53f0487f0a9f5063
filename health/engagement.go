// ABOUTME: Engagement sub-score from active users, login frequency and activity recency
// ABOUTME: Short-circuits to zero with a critical risk when a company has no users
package health

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/harperreed/crmpulse/config"
	"github.com/harperreed/crmpulse/models"
)

func (e *Engine) engagement(ctx context.Context, companyID string, now time.Time) (component, error) {
	cfg := e.cfg.Engagement
	var c component

	users, err := e.source.CountCompanyUsers(ctx, companyID)
	if err != nil {
		return c, err
	}
	if users == 0 {
		c.risk("no_users", models.SeverityCritical,
			"Company has no users",
			"No one can get value from the product")
		return c, nil
	}

	active, err := e.source.CountActiveUsers(ctx, companyID, now.Add(-cfg.ActiveWindow))
	if err != nil {
		return c, err
	}
	logins, err := e.source.CountEvents(ctx, companyID, models.EventLogin, now.Add(-cfg.LoginWindow))
	if err != nil {
		return c, err
	}
	last, err := e.source.LastActivityAt(ctx, companyID)
	if err != nil {
		return c, err
	}

	ratio := float64(active) / float64(users)
	activeComponent := math.Min(cfg.ActiveRatioCap, ratio*100*cfg.ActiveRatioFactor)

	windowDays := cfg.LoginWindow.Hours() / 24
	frequencyComponent := math.Min(cfg.FrequencyCap, float64(logins)/windowDays*cfg.FrequencyCap)

	// -1 means no activity was ever recorded.
	daysSince := -1
	recencyComponent := 0.0
	if last != nil {
		daysSince = daysBetween(*last, now)
		recencyComponent = recencyPoints(cfg.Recency, daysSince)
	}

	c.score = roundScore(activeComponent + frequencyComponent + recencyComponent)

	if ratio < cfg.LowActiveRatio {
		c.risk("low_active_users", models.SeverityHigh,
			fmt.Sprintf("Only %d of %d users logged in during the last %d days", active, users, int(cfg.ActiveWindow.Hours()/24)),
			"Low adoption usually precedes churn")
		c.recommend(models.PriorityHigh,
			"Run an adoption campaign for inactive users",
			"Most seats are not being used",
			"Raise the active user ratio above 20%")
	}

	if daysSince < 0 || daysSince > cfg.InactiveDays {
		severity := models.SeverityHigh
		description := fmt.Sprintf("No activity in %d days", daysSince)
		if daysSince < 0 {
			severity = models.SeverityCritical
			description = "No activity has ever been recorded"
		} else if daysSince > cfg.CriticalInactiveDays {
			severity = models.SeverityCritical
		}
		c.risk("inactive_company", severity, description,
			"The account may have stopped using the product")
		c.recommend(models.PriorityHigh,
			"Schedule a check-in call with the account",
			"The account has gone quiet",
			"Re-engage the customer before renewal")
	}

	if logins < cfg.MinLogins {
		c.risk("low_login_frequency", models.SeverityMedium,
			fmt.Sprintf("%d logins in the last %d days", logins, int(windowDays)),
			"Infrequent use weakens the habit loop")
	}

	return c, nil
}

// recencyPoints returns the points of the first tier whose MaxDays covers days.
func recencyPoints(tiers []config.RecencyTier, days int) float64 {
	for _, t := range tiers {
		if days <= t.MaxDays {
			return t.Points
		}
	}
	return 0
}

// daysBetween counts whole days elapsed from then to now. Future times count as zero.
func daysBetween(then, now time.Time) int {
	d := now.Sub(then)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
