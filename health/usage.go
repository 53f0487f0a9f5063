// ABOUTME: Product usage sub-score from landing pages, leads and feature adoption
package health

import (
	"context"
	"math"
	"time"

	"github.com/harperreed/crmpulse/models"
)

func (e *Engine) productUsage(ctx context.Context, companyID string, now time.Time) (component, error) {
	cfg := e.cfg.Usage
	var c component

	pages, published, err := e.source.CountLandingPages(ctx, companyID)
	if err != nil {
		return c, err
	}
	totalLeads, err := e.source.CountLeads(ctx, companyID, nil)
	if err != nil {
		return c, err
	}
	since := now.Add(-cfg.RecentLeadsWindow)
	recentLeads, err := e.source.CountLeads(ctx, companyID, &since)
	if err != nil {
		return c, err
	}
	features, err := e.source.CountFeaturesUsed(ctx, companyID)
	if err != nil {
		return c, err
	}

	sum := math.Min(cfg.PagesCap, float64(pages)*cfg.PointsPerPage) +
		math.Min(cfg.PublishedCap, float64(published)*cfg.PointsPerPublished) +
		math.Min(cfg.LeadsCap, math.Log10(float64(totalLeads)+1)*cfg.LeadsLogFactor) +
		math.Min(cfg.RecentLeadsCap, float64(recentLeads)*cfg.PointsPerRecent) +
		math.Min(cfg.FeaturesCap, float64(features)*cfg.PointsPerFeature)
	c.score = roundScore(sum)

	switch {
	case pages == 0:
		c.risk("no_landing_pages", models.SeverityHigh,
			"No landing pages have been created",
			"The core product is unused")
		c.recommend(models.PriorityHigh,
			"Help the customer build their first landing page",
			"Accounts without pages rarely convert to long term users",
			"Unlock lead capture")
	case published == 0:
		c.risk("no_active_landing_pages", models.SeverityMedium,
			"Landing pages exist but none are published",
			"Pages cannot capture leads while unpublished")
		c.recommend(models.PriorityMedium,
			"Walk the customer through publishing a page",
			"Drafts are ready but not live",
			"Start capturing leads")
	}

	switch {
	case totalLeads == 0:
		c.risk("no_leads", models.SeverityHigh,
			"No leads have been captured",
			"The customer has not seen product value yet")
		c.recommend(models.PriorityHigh,
			"Review page forms and traffic sources",
			"Lead capture is the main value signal",
			"First captured leads")
	case recentLeads == 0:
		c.risk("declining_leads", models.SeverityMedium,
			"No new leads in the last 30 days",
			"Lead flow has stalled")
	}

	return c, nil
}
