// ABOUTME: Company CLI commands
// ABOUTME: Human-friendly commands for managing companies
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/crmpulse/models"
)

// AddCompanyCommand adds a new company
func (a *App) AddCompanyCommand(args []string) error {
	fs := flag.NewFlagSet("add-company", flag.ContinueOnError)
	name := fs.String("name", "", "Company name (required)")
	domain := fs.String("domain", "", "Company domain (e.g., acme.com)")
	status := fs.String("status", "", "Status (default: active)")
	tags := fs.String("tags", "", "Comma separated tags")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	company := &models.Company{
		Name:   *name,
		Domain: *domain,
		Status: *status,
		Tags:   splitIDs(*tags),
	}

	if err := a.Store.CreateCompany(context.Background(), company); err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}

	fmt.Fprintf(a.Out, "✓ Company created: %s (ID: %s)\n", company.Name, company.ID)
	if company.Domain != "" {
		fmt.Fprintf(a.Out, "  Domain: %s\n", company.Domain)
	}

	return nil
}

// ListCompaniesCommand lists companies
func (a *App) ListCompaniesCommand(args []string) error {
	fs := flag.NewFlagSet("list-companies", flag.ContinueOnError)
	query := fs.String("query", "", "Search by name or domain")
	limit := fs.Int("limit", 50, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	companies, err := a.Store.FindCompanies(context.Background(), *query, *limit)
	if err != nil {
		return fmt.Errorf("failed to find companies: %w", err)
	}

	if len(companies) == 0 {
		fmt.Fprintln(a.Out, "No companies found")
		return nil
	}

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDOMAIN\tSTATUS\tCSM\tID")
	fmt.Fprintln(w, "----\t------\t------\t---\t--")

	for _, company := range companies {
		domain := company.Domain
		if domain == "" {
			domain = "-"
		}
		csm := "-"
		if company.CSManagerID != nil {
			csm = *company.CSManagerID
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			company.Name, domain, company.Status, csm, company.ID)
	}
	_ = w.Flush()

	fmt.Fprintf(a.Out, "\nTotal: %d company(ies)\n", len(companies))
	return nil
}
