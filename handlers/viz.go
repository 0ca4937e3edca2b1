// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph and dashboard tools for agents
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/crmlink/coordinator"
	"github.com/harperreed/crmlink/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

type VizHandlers struct {
	co  *coordinator.Coordinator
	log zerolog.Logger
}

func NewVizHandlers(co *coordinator.Coordinator, log zerolog.Logger) *VizHandlers {
	return &VizHandlers{co: co, log: log}
}

type GenerateGraphInput struct {
	Type string `json:"type" jsonschema:"Graph type: pipeline or companies"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}
	if input.Type != "pipeline" && input.Type != "companies" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: pipeline, companies)", input.Type)
	}

	snap, err := viz.LoadSnapshot(ctx, h.co)
	if err != nil {
		return nil, GenerateGraphOutput{}, err
	}

	generator := viz.NewGraphGenerator(snap, h.log)
	var dot string
	if input.Type == "pipeline" {
		dot, err = generator.GeneratePipelineGraph(ctx)
	} else {
		dot, err = generator.GenerateCompanyGraph(ctx)
	}
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// Count nodes and edges for stats
	nodeCount := strings.Count(dot, "[label=")
	edgeCount := strings.Count(dot, "->")

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}, nil
}

type DashboardInput struct{}

type DashboardOutput struct {
	Text           string `json:"text"`
	TotalContacts  int    `json:"total_contacts"`
	TotalCompanies int    `json:"total_companies"`
	TotalDeals     int    `json:"total_deals"`
	OverdueTasks   int    `json:"overdue_tasks"`
}

func (h *VizHandlers) Dashboard(ctx context.Context, request *mcp.CallToolRequest, input DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	snap, err := viz.LoadSnapshot(ctx, h.co)
	if err != nil {
		return nil, DashboardOutput{}, err
	}

	stats := viz.GenerateDashboardStats(snap, time.Now())
	return nil, DashboardOutput{
		Text:           viz.RenderDashboard(stats),
		TotalContacts:  stats.TotalContacts,
		TotalCompanies: stats.TotalCompanies,
		TotalDeals:     stats.TotalDeals,
		OverdueTasks:   len(stats.OverdueTasks),
	}, nil
}
