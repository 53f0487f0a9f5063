// ABOUTME: Payment sub-score from the latest subscription status and renewal window
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/crmpulse/models"
)

func (e *Engine) payment(ctx context.Context, companyID string, now time.Time) (component, error) {
	cfg := e.cfg.Payment
	var c component

	sub, err := e.source.LatestSubscription(ctx, companyID)
	if err != nil {
		return c, err
	}

	status := ""
	if sub != nil {
		status = sub.Status
	}

	score, known := cfg.StatusScores[status]
	if !known {
		score = cfg.UnknownScore
	}
	c.score = clamp(score)

	switch {
	case !known:
		c.risk("no_subscription", models.SeverityMedium,
			"No recognised subscription on file",
			"Revenue for this account is not secured")
	case status == models.SubscriptionPastDue:
		c.risk("payment_past_due", models.SeverityHigh,
			"Subscription payment is past due",
			"Service may be interrupted and revenue is at risk")
		c.recommend(models.PriorityHigh,
			"Contact billing owner to update the payment method",
			"A failed payment is the most direct churn signal",
			"Recover the outstanding invoice")
	case status == models.SubscriptionCanceled:
		c.risk("subscription_canceled", models.SeverityCritical,
			"Subscription has been canceled",
			"The account has churned or is about to")
	case status == models.SubscriptionIncomplete:
		c.risk("incomplete_subscription", models.SeverityHigh,
			"Subscription setup was never completed",
			"The account is not paying")
	}

	if sub != nil && sub.CurrentPeriodEnd != nil {
		end := *sub.CurrentPeriodEnd
		if end.After(now) && end.Sub(now) <= cfg.ExpiringWindow {
			days := daysBetween(now, end)
			c.risk("subscription_expiring", models.SeverityMedium,
				fmt.Sprintf("Current period ends in %d days", days),
				"Renewal is imminent")
			c.recommend(models.PriorityMedium,
				"Confirm renewal with the account owner",
				"The billing period is about to end",
				"Secure the renewal")
		}
	}

	return c, nil
}
