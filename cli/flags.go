// ABOUTME: Flag helpers for field assignments, filters and sorters
// ABOUTME: Values parse as JSON when they can and fall back to plain strings
package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/crmlink/adapter"
	"github.com/harperreed/crmlink/objects"
)

// repeated collects a flag given more than once.
type repeated []string

func (r *repeated) String() string {
	return strings.Join(*r, ",")
}

func (r *repeated) Set(v string) error {
	*r = append(*r, v)
	return nil
}

// parseValue reads 42, true, null and {"a":1} as JSON and anything else as text.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

// parseAssignments turns key=value pairs into a patch.
func parseAssignments(pairs []string) (objects.Patch, error) {
	patch := objects.Patch{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: expected field=value", pair)
		}
		patch[key] = parseValue(value)
	}
	return patch, nil
}

// parseFilters reads field:operator:value. in, nin and between take comma
// separated lists.
func parseFilters(specs []string) ([]adapter.Filter, error) {
	filters := make([]adapter.Filter, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid --filter %q: expected field:operator[:value]", spec)
		}
		f := adapter.Filter{Field: parts[0], Operator: parts[1]}
		if len(parts) == 3 {
			switch f.Operator {
			case "in", "nin", "between":
				items := strings.Split(parts[2], ",")
				values := make([]any, len(items))
				for i, item := range items {
					values[i] = parseValue(strings.TrimSpace(item))
				}
				f.Value = values
			case "contains", "ncontains", "startswith", "endswith":
				f.Value = parts[2]
			default:
				f.Value = parseValue(parts[2])
			}
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// parseSorters reads field or field:order.
func parseSorters(specs []string) ([]adapter.Sorter, error) {
	sorters := make([]adapter.Sorter, 0, len(specs))
	for _, spec := range specs {
		field, order, _ := strings.Cut(spec, ":")
		if field == "" {
			return nil, fmt.Errorf("invalid --sort %q: expected field[:asc|desc]", spec)
		}
		if order == "" {
			order = "asc"
		}
		sorters = append(sorters, adapter.Sorter{Field: field, Order: strings.ToLower(order)})
	}
	return sorters, nil
}
