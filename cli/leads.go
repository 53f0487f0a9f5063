// ABOUTME: Lead CLI commands
// ABOUTME: Human-friendly commands for adding and listing leads
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/crmpulse/db"
	"github.com/harperreed/crmpulse/models"
)

// AddLeadCommand adds a new lead.
func (a *App) AddLeadCommand(args []string) error {
	fs := flag.NewFlagSet("add-lead", flag.ContinueOnError)
	name := fs.String("name", "", "Lead name (required)")
	email := fs.String("email", "", "Email address")
	companyID := fs.String("company", "", "Company ID the lead came in through")
	status := fs.String("status", "", "Status (default: new)")
	tags := fs.String("tags", "", "Comma separated tags")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	ctx := context.Background()
	lead := &models.Lead{
		Name:   *name,
		Email:  *email,
		Status: *status,
		Tags:   splitIDs(*tags),
	}
	if *companyID != "" {
		if _, err := a.Store.GetCompany(ctx, *companyID); err != nil {
			return err
		}
		lead.CompanyID = companyID
	}

	if err := a.Store.CreateLead(ctx, lead); err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}

	fmt.Fprintf(a.Out, "✓ Lead created: %s (ID: %s)\n", lead.Name, lead.ID)
	if lead.Email != "" {
		fmt.Fprintf(a.Out, "  Email: %s\n", lead.Email)
	}

	return nil
}

// ListLeadsCommand lists leads.
func (a *App) ListLeadsCommand(args []string) error {
	fs := flag.NewFlagSet("list-leads", flag.ContinueOnError)
	query := fs.String("query", "", "Search by name or email")
	companyID := fs.String("company", "", "Filter by company ID")
	status := fs.String("status", "", "Filter by status")
	limit := fs.Int("limit", 50, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	leads, err := a.Store.FindLeads(context.Background(), db.LeadFilter{
		CompanyID: *companyID,
		Status:    *status,
		Query:     *query,
		Limit:     *limit,
	})
	if err != nil {
		return fmt.Errorf("failed to find leads: %w", err)
	}

	if len(leads) == 0 {
		fmt.Fprintln(a.Out, "No leads found")
		return nil
	}

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tSTATUS\tTAGS\tOWNER\tID")
	fmt.Fprintln(w, "----\t-----\t------\t----\t-----\t--")

	for _, lead := range leads {
		email := lead.Email
		if email == "" {
			email = "-"
		}
		tags := strings.Join(lead.Tags, ",")
		if tags == "" {
			tags = "-"
		}
		owner := "-"
		if lead.AssignedTo != nil {
			owner = *lead.AssignedTo
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			lead.Name, email, lead.Status, tags, owner, lead.ID)
	}
	_ = w.Flush()

	fmt.Fprintf(a.Out, "\nTotal: %d lead(s)\n", len(leads))
	return nil
}
