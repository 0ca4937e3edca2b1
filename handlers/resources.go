// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only access to any resource list or record via crm:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/crmlink/adapter"
	"github.com/harperreed/crmlink/coordinator"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResourcePageSize bounds list resources.
const ResourcePageSize = 100

type ResourceHandlers struct {
	co *coordinator.Coordinator
}

func NewResourceHandlers(co *coordinator.Coordinator) *ResourceHandlers {
	return &ResourceHandlers{co: co}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "crm://") {
		return nil, fmt.Errorf("invalid URI scheme: expected crm://")
	}

	path := strings.Trim(strings.TrimPrefix(uri, "crm://"), "/")
	parts := strings.Split(path, "/")

	if parts[0] == "pipeline" {
		return h.readPipeline(ctx, uri)
	}
	if !models.IsKnownResource(parts[0]) {
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}

	if len(parts) == 1 {
		params := adapter.ListParams{Pagination: adapter.Pagination{Current: 1, PageSize: ResourcePageSize}}
		page, err := h.co.LoadList(ctx, "mcp:"+parts[0], parts[0], params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", parts[0], err)
		}
		return jsonResource(uri, page.Records)
	}

	rec, err := h.co.Load(ctx, parts[0], parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s/%s: %w", parts[0], parts[1], err)
	}
	return jsonResource(uri, rec)
}

func (h *ResourceHandlers) readPipeline(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	snap, err := viz.LoadSnapshot(ctx, h.co)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     viz.RenderDashboard(viz.GenerateDashboardStats(snap, time.Now())),
		},
	}}, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
