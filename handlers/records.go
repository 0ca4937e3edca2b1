// ABOUTME: Generic record MCP tool handlers
// ABOUTME: Implements list_records, get_record, create_record, update_record, and delete_record
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/crmlink/adapter"
	"github.com/harperreed/crmlink/coordinator"
	"github.com/harperreed/crmlink/objects"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type RecordHandlers struct {
	co *coordinator.Coordinator
}

func NewRecordHandlers(co *coordinator.Coordinator) *RecordHandlers {
	return &RecordHandlers{co: co}
}

type ListRecordsInput struct {
	Resource string           `json:"resource" jsonschema:"Resource name: companies, contacts, deals, tasks, users, events, dealStages or taskStages"`
	Filters  []adapter.Filter `json:"filters,omitempty" jsonschema:"Field conditions using eq, ne, lt, gt, lte, gte, in, nin, contains, ncontains, startswith, endswith, null, nnull or between"`
	Sorters  []adapter.Sorter `json:"sorters,omitempty" jsonschema:"Sort order as field and asc or desc"`
	Page     int              `json:"page,omitempty" jsonschema:"Page number starting at 1"`
	PageSize int              `json:"page_size,omitempty" jsonschema:"Records per page (default 10)"`
}

type ListRecordsOutput struct {
	Resource string           `json:"resource"`
	Records  []objects.Record `json:"records"`
	Count    int              `json:"count"`
	Total    int              `json:"total"`
}

func (h *RecordHandlers) ListRecords(ctx context.Context, request *mcp.CallToolRequest, input ListRecordsInput) (*mcp.CallToolResult, ListRecordsOutput, error) {
	if input.Resource == "" {
		return nil, ListRecordsOutput{}, fmt.Errorf("resource is required")
	}

	params := adapter.ListParams{
		Filters:    input.Filters,
		Sorters:    input.Sorters,
		Pagination: adapter.Pagination{Current: input.Page, PageSize: input.PageSize},
	}
	page, err := h.co.LoadList(ctx, "mcp:"+input.Resource, input.Resource, params)
	if err != nil {
		return nil, ListRecordsOutput{}, fmt.Errorf("failed to list %s: %w", input.Resource, err)
	}

	records := page.Records
	if records == nil {
		records = []objects.Record{}
	}
	return nil, ListRecordsOutput{
		Resource: input.Resource,
		Records:  records,
		Count:    len(records),
		Total:    page.Total,
	}, nil
}

type RecordInput struct {
	Resource string `json:"resource" jsonschema:"Resource name"`
	ID       string `json:"id" jsonschema:"Record ID (required)"`
}

type RecordOutput struct {
	Resource string         `json:"resource"`
	Record   objects.Record `json:"record"`
}

func (h *RecordHandlers) GetRecord(ctx context.Context, request *mcp.CallToolRequest, input RecordInput) (*mcp.CallToolResult, RecordOutput, error) {
	if input.ID == "" {
		return nil, RecordOutput{}, fmt.Errorf("id is required")
	}

	rec, err := h.co.Load(ctx, input.Resource, input.ID)
	if err != nil {
		return nil, RecordOutput{}, fmt.Errorf("failed to fetch record: %w", err)
	}
	return nil, RecordOutput{Resource: input.Resource, Record: rec}, nil
}

type CreateRecordInput struct {
	Resource string         `json:"resource" jsonschema:"Resource name"`
	Values   map[string]any `json:"values" jsonschema:"Field values for the new record"`
}

func (h *RecordHandlers) CreateRecord(ctx context.Context, request *mcp.CallToolRequest, input CreateRecordInput) (*mcp.CallToolResult, RecordOutput, error) {
	if len(input.Values) == 0 {
		return nil, RecordOutput{}, fmt.Errorf("values are required")
	}

	rec, err := h.co.Create(ctx, input.Resource, objects.Patch(input.Values))
	if err != nil {
		return nil, RecordOutput{}, fmt.Errorf("failed to create record: %w", err)
	}
	return nil, RecordOutput{Resource: input.Resource, Record: rec}, nil
}

type UpdateRecordInput struct {
	Resource string         `json:"resource" jsonschema:"Resource name"`
	ID       string         `json:"id" jsonschema:"Record ID (required)"`
	Values   map[string]any `json:"values" jsonschema:"Fields to overwrite; null clears a field"`
}

func (h *RecordHandlers) UpdateRecord(ctx context.Context, request *mcp.CallToolRequest, input UpdateRecordInput) (*mcp.CallToolResult, RecordOutput, error) {
	if input.ID == "" {
		return nil, RecordOutput{}, fmt.Errorf("id is required")
	}
	if len(input.Values) == 0 {
		return nil, RecordOutput{}, fmt.Errorf("values are required")
	}

	rec, err := h.co.Update(ctx, input.Resource, input.ID, objects.Patch(input.Values))
	if err != nil {
		return nil, RecordOutput{}, fmt.Errorf("failed to update record: %w", err)
	}
	return nil, RecordOutput{Resource: input.Resource, Record: rec}, nil
}

type DeleteRecordOutput struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
	Deleted  bool   `json:"deleted"`
}

func (h *RecordHandlers) DeleteRecord(ctx context.Context, request *mcp.CallToolRequest, input RecordInput) (*mcp.CallToolResult, DeleteRecordOutput, error) {
	if input.ID == "" {
		return nil, DeleteRecordOutput{}, fmt.Errorf("id is required")
	}

	if err := h.co.Delete(ctx, input.Resource, input.ID); err != nil {
		return nil, DeleteRecordOutput{}, fmt.Errorf("failed to delete record: %w", err)
	}
	return nil, DeleteRecordOutput{Resource: input.Resource, ID: input.ID, Deleted: true}, nil
}
