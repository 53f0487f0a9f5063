// ABOUTME: MCP server subcommand
// ABOUTME: Registers CRM, health and bulk tools and serves them on stdio
package cli

import (
	"context"

	"github.com/harperreed/crmpulse/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer builds the MCP server with every tool, resource and prompt registered.
func (a *App) NewMCPServer(version string) *mcp.Server {
	companyHandlers := handlers.NewCompanyHandlers(a.Store)
	bulkHandlers := handlers.NewBulkHandlers(a.Processor)
	healthHandlers := handlers.NewHealthHandlers(a.Store, a.Engine, a.Config.Location())
	resourceHandlers := handlers.NewResourceHandlers(a.Store)
	promptHandlers := handlers.NewPromptHandlers(a.Store)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "crmpulse",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_company",
		Description: "Add a new company to the CRM",
	}, companyHandlers.AddCompany)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_companies",
		Description: "Search for companies by name or domain",
	}, companyHandlers.FindCompanies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_lead",
		Description: "Add a new lead, optionally linked to a company",
	}, companyHandlers.AddLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_leads",
		Description: "Search for leads by name, email, company or status",
	}, companyHandlers.FindLeads)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "bulk_operation",
		Description: "Apply one operation to many entities. Failures are reported per entity. Supported: " + handlers.SupportedOperations(),
	}, bulkHandlers.BulkOperation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_bulk_operation",
		Description: "Get the run log of a bulk operation, including per-entity errors",
	}, bulkHandlers.GetBulkOperation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_bulk_operations",
		Description: "List the most recent bulk operation runs",
	}, bulkHandlers.ListBulkOperations)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "calculate_health_score",
		Description: "Calculate a company's health score with risk factors and recommendations",
	}, healthHandlers.CalculateHealthScore)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_health_history",
		Description: "List stored daily health snapshots for a company, newest first",
	}, healthHandlers.GetHealthHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_at_risk_companies",
		Description: "List companies whose snapshot for a day is at_risk or critical",
	}, healthHandlers.ListAtRiskCompanies)

	server.AddResource(&mcp.Resource{
		URI:      "crm://companies",
		Name:     "companies",
		MIMEType: "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:      "crm://bulk-operations",
		Name:     "bulk-operations",
		MIMEType: "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "crm://companies/{id}",
		Name:        "company",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "crm://companies/{id}/health",
		Name:        "company-health",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "crm://bulk-operations/{id}",
		Name:        "bulk-operation",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "account-health-review",
		Description: "Review an account's health trend and suggest actions",
		Arguments: []*mcp.PromptArgument{
			{Name: "company_id", Description: "Company to review", Required: true},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "bulk-run-review",
		Description: "Summarise the failures of a bulk operation run",
		Arguments: []*mcp.PromptArgument{
			{Name: "operation_id", Description: "Bulk operation ID", Required: true},
		},
	}, promptHandlers.GetPrompt)

	return server
}

// MCPCommand starts the MCP server on stdio
func (a *App) MCPCommand(version string) error {
	a.Logger.Info("starting MCP server")
	return a.NewMCPServer(version).Run(context.Background(), &mcp.StdioTransport{})
}
