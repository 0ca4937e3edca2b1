// ABOUTME: Assembles the MCP server from the tool, resource and prompt handlers
// ABOUTME: Every handler works through the shared mutation coordinator
package handlers

import (
	"github.com/harperreed/crmlink/coordinator"
	"github.com/harperreed/crmlink/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// NewServer registers every CRM tool, resource and prompt.
func NewServer(co *coordinator.Coordinator, version string, log zerolog.Logger) *mcp.Server {
	recordHandlers := NewRecordHandlers(co)
	contactHandlers := NewContactHandlers(co)
	taskHandlers := NewTaskHandlers(co)
	vizHandlers := NewVizHandlers(co, log)
	resourceHandlers := NewResourceHandlers(co)
	promptHandlers := NewPromptHandlers(co)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "crmlink",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_records",
		Description: "List records of a resource with optional filters, sorting and paging",
	}, recordHandlers.ListRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_record",
		Description: "Fetch one record by resource and ID",
	}, recordHandlers.GetRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_record",
		Description: "Create a record; the server assigns the ID",
	}, recordHandlers.CreateRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_record",
		Description: "Overwrite fields of an existing record",
	}, recordHandlers.UpdateRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_record",
		Description: "Delete a record by resource and ID",
	}, recordHandlers.DeleteRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_contact_status",
		Description: "Move a contact to a new status",
	}, contactHandlers.SetContactStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_task",
		Description: "Move a task card to another stage column",
	}, taskHandlers.MoveTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Render the deal pipeline or company network as Graphviz DOT",
	}, vizHandlers.GenerateGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dashboard",
		Description: "Summarize pipeline, contact and task totals",
	}, vizHandlers.Dashboard)

	for _, resource := range models.Resources() {
		server.AddResource(&mcp.Resource{
			URI:      "crm://" + resource,
			Name:     resource,
			MIMEType: "application/json",
		}, resourceHandlers.ReadResource)
	}
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "crm://{resource}/{id}",
		Name:        "record",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)
	server.AddResource(&mcp.Resource{
		URI:      "crm://pipeline",
		Name:     "pipeline",
		MIMEType: "text/plain",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "contact-summary",
		Description: "Summarize a contact and suggest next steps",
		Arguments:   []*mcp.PromptArgument{{Name: "contact_id", Required: true}},
	}, promptHandlers.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "deal-analysis",
		Description: "Analyze pipeline health",
	}, promptHandlers.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "task-review",
		Description: "Review overdue and upcoming tasks",
	}, promptHandlers.GetPrompt)

	return server
}
