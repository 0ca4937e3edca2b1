// ABOUTME: Tests for CRM data models
// ABOUTME: Covers status validation, patch validation, and record decoding
package models

import (
	"errors"
	"testing"

	"github.com/harperreed/crmlink/crmerr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactStatuses(t *testing.T) {
	statuses := ContactStatuses()
	assert.Len(t, statuses, 9)
	assert.Equal(t, StatusNew, statuses[0])
	assert.Equal(t, StatusChurned, statuses[8])

	// Returned slice is a copy
	statuses[0] = "BROKEN"
	assert.Equal(t, StatusNew, ContactStatuses()[0])
}

func TestParseContactStatus(t *testing.T) {
	st, err := ParseContactStatus(" contacted ")
	require.NoError(t, err)
	assert.Equal(t, StatusContacted, st)

	_, err = ParseContactStatus("MAYBE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, crmerr.ErrValidation))
}

func TestValidatePatch(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		patch    map[string]any
		wantErr  bool
	}{
		{"valid status", ResourceContacts, map[string]any{"status": "WON"}, false},
		{"invalid status", ResourceContacts, map[string]any{"status": "ARCHIVED"}, true},
		{"non-string status", ResourceContacts, map[string]any{"status": 3}, true},
		{"status on other resource ignored", ResourceCompanies, map[string]any{"status": "anything"}, false},
		{"string stage", ResourceTasks, map[string]any{"stageId": "s1"}, false},
		{"null stage", ResourceTasks, map[string]any{"stageId": nil}, false},
		{"numeric stage", ResourceDeals, map[string]any{"stageId": 12}, true},
		{"unrelated fields", ResourceContacts, map[string]any{"name": "Ada"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePatch(tt.resource, tt.patch)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, crmerr.ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsKnownResource(t *testing.T) {
	for _, r := range Resources() {
		assert.True(t, IsKnownResource(r), r)
	}
	assert.False(t, IsKnownResource("invoices"))
	assert.False(t, IsKnownResource(""))
}

func TestDecodeRecord(t *testing.T) {
	rec := map[string]any{
		"id":        "d1",
		"title":     "Enterprise License",
		"value":     12500.5,
		"stageId":   nil,
		"companyId": "co1",
	}

	deal, err := DecodeRecord[Deal](rec)
	require.NoError(t, err)
	assert.Equal(t, "d1", deal.ID)
	assert.Nil(t, deal.StageID)
	assert.True(t, decimal.RequireFromString("12500.5").Equal(deal.Value))

	contact, err := DecodeRecord[Contact](map[string]any{"id": "c1", "name": "Ada", "status": "NEW"})
	require.NoError(t, err)
	assert.Equal(t, StatusNew, contact.Status)
}
