// ABOUTME: Registry of resource names the adapter knows how to query
// ABOUTME: Provides lookup and typed decoding of generic records
package models

import (
	"encoding/json"
	"fmt"
)

const (
	ResourceCompanies  = "companies"
	ResourceContacts   = "contacts"
	ResourceDeals      = "deals"
	ResourceTasks      = "tasks"
	ResourceUsers      = "users"
	ResourceEvents     = "events"
	ResourceDealStages = "dealStages"
	ResourceTaskStages = "taskStages"
)

var resources = []string{
	ResourceCompanies,
	ResourceContacts,
	ResourceDeals,
	ResourceTasks,
	ResourceUsers,
	ResourceEvents,
	ResourceDealStages,
	ResourceTaskStages,
}

// Resources returns every registered resource name.
func Resources() []string {
	out := make([]string, len(resources))
	copy(out, resources)
	return out
}

func IsKnownResource(name string) bool {
	for _, r := range resources {
		if r == name {
			return true
		}
	}
	return false
}

// DecodeRecord converts a generic record into a typed model.
func DecodeRecord[T any](rec map[string]any) (*T, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &out, nil
}
