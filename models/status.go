// ABOUTME: Contact status enumeration and patch validation
// ABOUTME: Enforces that status and stage fields always hold legal values
package models

import (
	"fmt"
	"strings"

	"github.com/harperreed/crmlink/crmerr"
)

type ContactStatus string

// Contact statuses. Any status is reachable from any other.
const (
	StatusNew         ContactStatus = "NEW"
	StatusContacted   ContactStatus = "CONTACTED"
	StatusInterested  ContactStatus = "INTERESTED"
	StatusUnqualified ContactStatus = "UNQUALIFIED"
	StatusQualified   ContactStatus = "QUALIFIED"
	StatusNegotiation ContactStatus = "NEGOTIATION"
	StatusLost        ContactStatus = "LOST"
	StatusWon         ContactStatus = "WON"
	StatusChurned     ContactStatus = "CHURNED"
)

var contactStatuses = []ContactStatus{
	StatusNew,
	StatusContacted,
	StatusInterested,
	StatusUnqualified,
	StatusQualified,
	StatusNegotiation,
	StatusLost,
	StatusWon,
	StatusChurned,
}

// ContactStatuses returns all statuses in display order.
func ContactStatuses() []ContactStatus {
	out := make([]ContactStatus, len(contactStatuses))
	copy(out, contactStatuses)
	return out
}

// ValidContactStatus reports whether s is one of the enumerated statuses.
func ValidContactStatus(s string) bool {
	for _, st := range contactStatuses {
		if string(st) == s {
			return true
		}
	}
	return false
}

// ParseContactStatus normalizes case and validates.
func ParseContactStatus(s string) (ContactStatus, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if !ValidContactStatus(up) {
		return "", crmerr.Validation("parse status", fmt.Sprintf("invalid contact status: %s", s),
			map[string]string{"status": "must be one of " + statusList()})
	}
	return ContactStatus(up), nil
}

func statusList() string {
	parts := make([]string, len(contactStatuses))
	for i, s := range contactStatuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// ValidatePatch checks enumerated fields before a patch is applied anywhere.
func ValidatePatch(resource string, patch map[string]any) error {
	fields := map[string]string{}

	if resource == ResourceContacts {
		if v, ok := patch["status"]; ok {
			s, isString := v.(string)
			switch {
			case !isString:
				fields["status"] = "must be a string"
			case !ValidContactStatus(s):
				fields["status"] = fmt.Sprintf("invalid value %q, must be one of %s", s, statusList())
			}
		}
	}

	if v, ok := patch["stageId"]; ok && v != nil {
		if _, isString := v.(string); !isString {
			fields["stageId"] = "must be a string or null"
		}
	}

	if len(fields) > 0 {
		return crmerr.Validation("validate "+resource, "invalid patch", fields)
	}
	return nil
}
