// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements set_contact_status for moving a contact through the status cycle
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/crmlink/coordinator"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ContactHandlers struct {
	co *coordinator.Coordinator
}

func NewContactHandlers(co *coordinator.Coordinator) *ContactHandlers {
	return &ContactHandlers{co: co}
}

type SetContactStatusInput struct {
	ID     string `json:"id" jsonschema:"Contact ID (required)"`
	Status string `json:"status" jsonschema:"New status: NEW, CONTACTED, INTERESTED, UNQUALIFIED, QUALIFIED, NEGOTIATION, LOST, WON or CHURNED"`
}

type ContactStatusOutput struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status"`
}

func (h *ContactHandlers) SetContactStatus(ctx context.Context, request *mcp.CallToolRequest, input SetContactStatusInput) (*mcp.CallToolResult, ContactStatusOutput, error) {
	if input.ID == "" {
		return nil, ContactStatusOutput{}, fmt.Errorf("id is required")
	}

	status, err := models.ParseContactStatus(input.Status)
	if err != nil {
		return nil, ContactStatusOutput{}, err
	}

	rec, err := h.co.Update(ctx, models.ResourceContacts, input.ID, objects.Patch{"status": string(status)})
	if err != nil {
		return nil, ContactStatusOutput{}, fmt.Errorf("failed to update contact status: %w", err)
	}

	return nil, ContactStatusOutput{
		ID:     input.ID,
		Name:   rec.String("name"),
		Status: rec.String("status"),
	}, nil
}
