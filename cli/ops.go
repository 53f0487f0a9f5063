// ABOUTME: Operations CLI commands for bulk runs and health scoring
// ABOUTME: Human-friendly wrappers over the bulk processor and health engine
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harperreed/crmpulse/bulk"
	"github.com/harperreed/crmpulse/models"
	"github.com/harperreed/crmpulse/viz"
)

// BulkCommand runs one bulk operation over a list of entity IDs.
func (a *App) BulkCommand(args []string) error {
	fs := flag.NewFlagSet("bulk", flag.ContinueOnError)
	entityType := fs.String("entity", "", "Entity type: lead, company or subscription (required)")
	operation := fs.String("op", "", "Operation name, e.g. change_status (required)")
	ids := fs.String("ids", "", "Comma separated entity IDs (or pass them as arguments)")
	params := fs.String("params", "", `Operation parameters as JSON, e.g. '{"status":"qualified"}'`)
	executedBy := fs.String("executed-by", "", "Who is running the operation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *entityType == "" || *operation == "" {
		return fmt.Errorf("--entity and --op are required")
	}

	entityIDs := splitIDs(*ids)
	entityIDs = append(entityIDs, fs.Args()...)
	if len(entityIDs) == 0 {
		return fmt.Errorf("at least one entity ID is required")
	}

	var parameters map[string]interface{}
	if *params != "" {
		if err := json.Unmarshal([]byte(*params), &parameters); err != nil {
			return fmt.Errorf("invalid --params JSON: %w", err)
		}
	}

	resp, err := a.Processor.Execute(context.Background(), bulk.Request{
		EntityType: *entityType,
		Operation:  *operation,
		EntityIDs:  entityIDs,
		Parameters: parameters,
		ExecutedBy: *executedBy,
	})
	if err != nil {
		return fmt.Errorf("bulk operation failed: %w", err)
	}

	fmt.Fprintln(a.Out, styleRunStatus(resp))
	fmt.Fprintf(a.Out, "  Operation ID: %s\n", resp.OperationID)
	fmt.Fprintf(a.Out, "  Succeeded: %d  Failed: %d  Total: %d\n", resp.SuccessCount, resp.FailedCount, resp.TotalCount)
	a.printErrors(resp.Errors)

	return nil
}

// HealthCommand calculates a company's health score and optionally stores today's snapshot.
func (a *App) HealthCommand(args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	save := fs.Bool("save", false, "Store the result as today's snapshot")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: ops health [--save] <company-id>")
	}
	companyID := fs.Arg(0)
	ctx := context.Background()

	company, err := a.Store.GetCompany(ctx, companyID)
	if err != nil {
		return err
	}

	var snap *models.HealthScoreSnapshot
	if *save {
		snap, err = a.Engine.Recalculate(ctx, companyID, a.Store)
	} else {
		snap, err = a.Engine.Calculate(ctx, companyID)
	}
	if err != nil {
		return fmt.Errorf("failed to calculate health: %w", err)
	}

	fmt.Fprintf(a.Out, "%s: %d (%s)\n", company.Name, snap.OverallScore, styleHealth(snap.HealthStatus))
	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPONENT\tSCORE")
	fmt.Fprintln(w, "---------\t-----")
	fmt.Fprintf(w, "engagement\t%d\n", snap.EngagementScore)
	fmt.Fprintf(w, "product usage\t%d\n", snap.ProductUsageScore)
	fmt.Fprintf(w, "support\t%d\n", snap.SupportScore)
	fmt.Fprintf(w, "payment\t%d\n", snap.PaymentScore)
	_ = w.Flush()

	if len(snap.RiskFactors) > 0 {
		fmt.Fprintln(a.Out, "\nRisk factors:")
		for _, r := range snap.RiskFactors {
			fmt.Fprintf(a.Out, "  [%s] %s: %s\n", styleSeverity(r.Severity), r.Type, r.Description)
		}
	}
	if len(snap.Recommendations) > 0 {
		fmt.Fprintln(a.Out, "\nRecommendations:")
		for _, r := range snap.Recommendations {
			fmt.Fprintf(a.Out, "  (%s) %s\n", r.Priority, r.Action)
		}
	}
	if *save {
		fmt.Fprintf(a.Out, "\nSnapshot saved for %s\n", snap.SnapshotDate)
	}

	return nil
}

// HealthHistoryCommand lists stored snapshots for a company.
func (a *App) HealthHistoryCommand(args []string) error {
	fs := flag.NewFlagSet("health-history", flag.ContinueOnError)
	from := fs.String("from", "", "Earliest snapshot date (YYYY-MM-DD)")
	to := fs.String("to", "", "Latest snapshot date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: ops health-history [--from date] [--to date] <company-id>")
	}
	for _, d := range []string{*from, *to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(models.SnapshotDateFormat, d); err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", d)
		}
	}

	snaps, err := a.Store.ListSnapshots(context.Background(), fs.Arg(0), *from, *to)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(snaps) == 0 {
		fmt.Fprintln(a.Out, "No snapshots found")
		return nil
	}

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tOVERALL\tSTATUS\tENG\tUSAGE\tSUPPORT\tPAYMENT\tRISKS")
	fmt.Fprintln(w, "----\t-------\t------\t---\t-----\t-------\t-------\t-----")
	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%d\t%d\t%d\n",
			s.SnapshotDate, s.OverallScore, s.HealthStatus,
			s.EngagementScore, s.ProductUsageScore, s.SupportScore, s.PaymentScore, len(s.RiskFactors))
	}
	_ = w.Flush()

	fmt.Fprintf(a.Out, "\nTotal: %d snapshot(s)\n", len(snaps))
	return nil
}

// AtRiskCommand lists companies whose snapshot for a day is at_risk or critical.
func (a *App) AtRiskCommand(args []string) error {
	fs := flag.NewFlagSet("at-risk", flag.ContinueOnError)
	date := fs.String("date", "", "Snapshot date (default: today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	day := *date
	if day == "" {
		day = time.Now().In(a.Config.Location()).Format(models.SnapshotDateFormat)
	}

	snaps, err := a.Store.ListSnapshotsByStatus(context.Background(), day, models.HealthAtRisk, models.HealthCritical)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(snaps) == 0 {
		fmt.Fprintf(a.Out, "No at-risk companies on %s\n", day)
		return nil
	}

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPANY\tOVERALL\tSTATUS\tTOP RISK")
	fmt.Fprintln(w, "-------\t-------\t------\t--------")
	for _, s := range snaps {
		top := "-"
		if len(s.RiskFactors) > 0 {
			top = s.RiskFactors[0].Type
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.CompanyID, s.OverallScore, s.HealthStatus, top)
	}
	_ = w.Flush()

	return nil
}

// BulkLogCommand shows one run log, or the most recent runs when no ID is given.
func (a *App) BulkLogCommand(args []string) error {
	fs := flag.NewFlagSet("bulk-log", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "Maximum runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx := context.Background()

	if fs.NArg() == 1 {
		log, err := a.Processor.GetLog(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Operation %s\n", log.ID)
		fmt.Fprintf(a.Out, "  %s.%s by %s\n", log.EntityType, log.Operation, log.ExecutedBy)
		fmt.Fprintf(a.Out, "  Status: %s\n", log.Status)
		fmt.Fprintf(a.Out, "  Succeeded: %d  Failed: %d  Total: %d\n", log.SuccessCount, log.FailedCount, log.TotalCount)
		fmt.Fprintf(a.Out, "  Started: %s\n", log.CreatedAt.Format(time.RFC3339))
		if log.CompletedAt != nil {
			fmt.Fprintf(a.Out, "  Completed: %s\n", log.CompletedAt.Format(time.RFC3339))
		}
		a.printErrors(log.ErrorDetails)
		return nil
	}

	logs, err := a.Processor.ListLogs(ctx, *limit)
	if err != nil {
		return fmt.Errorf("failed to list bulk operations: %w", err)
	}
	if len(logs) == 0 {
		fmt.Fprintln(a.Out, "No bulk operations found")
		return nil
	}

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOPERATION\tSTATUS\tOK\tFAILED\tBY\tSTARTED")
	fmt.Fprintln(w, "--\t---------\t------\t--\t------\t--\t-------")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%s.%s\t%s\t%d\t%d\t%s\t%s\n",
			l.ID, l.EntityType, l.Operation, l.Status, l.SuccessCount, l.FailedCount,
			l.ExecutedBy, l.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()

	return nil
}

func (a *App) printErrors(details []models.ErrorDetail) {
	if len(details) == 0 {
		return
	}
	fmt.Fprintln(a.Out, "\nErrors:")
	for _, d := range details {
		fmt.Fprintf(a.Out, "  %s: %s\n", d.EntityID, d.ErrorMessage)
	}
}

func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// DashboardCommand prints the portfolio health dashboard for a day.
func (a *App) DashboardCommand(args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	date := fs.String("date", "", "Snapshot date (default: today)")
	runs := fs.Int("runs", 5, "Recent bulk runs to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	day := *date
	if day == "" {
		day = time.Now().In(a.Config.Location()).Format(models.SnapshotDateFormat)
	}

	stats, err := viz.GenerateDashboardStats(context.Background(), a.Store, day, *runs)
	if err != nil {
		return err
	}

	fmt.Fprint(a.Out, viz.RenderDashboard(stats))
	return nil
}
