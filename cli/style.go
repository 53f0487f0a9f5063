// ABOUTME: Terminal styles for CLI output
// ABOUTME: Colours health tiers and bulk run outcomes
package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/crmpulse/models"
)

var (
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func styleHealth(status string) string {
	switch status {
	case models.HealthExcellent:
		return goodStyle.Render(status)
	case models.HealthHealthy:
		return okStyle.Render(status)
	case models.HealthAtRisk:
		return warnStyle.Render(status)
	default:
		return badStyle.Render(status)
	}
}

func styleSeverity(severity string) string {
	switch severity {
	case models.SeverityCritical:
		return badStyle.Render(severity)
	case models.SeverityHigh:
		return warnStyle.Render(severity)
	default:
		return mutedStyle.Render(severity)
	}
}

func styleRunStatus(resp *models.BulkOperationResponse) string {
	switch {
	case resp.FailedCount == 0:
		return goodStyle.Render("✓ " + resp.Message)
	case resp.SuccessCount == 0:
		return badStyle.Render("✗ " + resp.Message)
	default:
		return warnStyle.Render("! " + resp.Message)
	}
}
