// ABOUTME: List request parameters and their nestjs-query variable form
// ABOUTME: Shape-validates filters, sorters and pagination without interpreting them
package adapter

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/harperreed/crmlink/crmerr"
)

// DefaultPageSize applies when Pagination.PageSize is zero.
const DefaultPageSize = 10

// Filter is one field condition. Operator uses the short names (eq, ne, in, ...).
type Filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
}

// Sorter orders by one field. Order is "asc" or "desc"; empty sorts ascending.
type Sorter struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// Pagination selects a page. Current counts from 1.
type Pagination struct {
	Current  int `json:"current"`
	PageSize int `json:"pageSize"`
}

// ListParams bundles list criteria.
type ListParams struct {
	Filters    []Filter   `json:"filters,omitempty"`
	Sorters    []Sorter   `json:"sorters,omitempty"`
	Pagination Pagination `json:"pagination"`
}

var operators = map[string]string{
	"eq":         "eq",
	"ne":         "neq",
	"lt":         "lt",
	"gt":         "gt",
	"lte":        "lte",
	"gte":        "gte",
	"in":         "in",
	"nin":        "notIn",
	"contains":   "iLike",
	"ncontains":  "notILike",
	"startswith": "iLike",
	"endswith":   "iLike",
	"null":       "is",
	"nnull":      "isNot",
	"between":    "between",
}

// Validate checks the shape of every criterion.
func (p ListParams) Validate(op string) error {
	for i, f := range p.Filters {
		if strings.TrimSpace(f.Field) == "" {
			return crmerr.Configuration(op, "filter %d has no field", i)
		}
		if _, ok := operators[f.Operator]; !ok {
			return crmerr.Configuration(op, "filter on %q has unknown operator %q", f.Field, f.Operator)
		}
		switch f.Operator {
		case "in", "nin":
			if sliceLen(f.Value) < 0 {
				return crmerr.Configuration(op, "filter %s on %q needs a list value", f.Operator, f.Field)
			}
		case "between":
			if sliceLen(f.Value) != 2 {
				return crmerr.Configuration(op, "filter between on %q needs exactly two values", f.Field)
			}
		}
	}

	for i, s := range p.Sorters {
		if strings.TrimSpace(s.Field) == "" {
			return crmerr.Configuration(op, "sorter %d has no field", i)
		}
		switch strings.ToLower(s.Order) {
		case "", "asc", "desc":
		default:
			return crmerr.Configuration(op, "sorter on %q has invalid order %q", s.Field, s.Order)
		}
	}

	if p.Pagination.Current < 0 {
		return crmerr.Configuration(op, "page must be 1 or greater, got %d", p.Pagination.Current)
	}
	if p.Pagination.PageSize < 0 {
		return crmerr.Configuration(op, "page size must be 1 or greater, got %d", p.Pagination.PageSize)
	}
	return nil
}

// Variables renders params as filter, sorting and paging variables.
// Filters with a nil value are dropped, except null and nnull.
func (p ListParams) Variables() map[string]any {
	filter := map[string]any{}
	for _, f := range p.Filters {
		if f.Value == nil && f.Operator != "null" && f.Operator != "nnull" {
			continue
		}
		cond, ok := filter[f.Field].(map[string]any)
		if !ok {
			cond = map[string]any{}
			filter[f.Field] = cond
		}
		cond[operators[f.Operator]] = filterValue(f)
	}

	sorting := make([]map[string]any, 0, len(p.Sorters))
	for _, s := range p.Sorters {
		dir := "ASC"
		if strings.EqualFold(s.Order, "desc") {
			dir = "DESC"
		}
		sorting = append(sorting, map[string]any{"field": s.Field, "direction": dir})
	}

	current := p.Pagination.Current
	if current == 0 {
		current = 1
	}
	size := p.Pagination.PageSize
	if size == 0 {
		size = DefaultPageSize
	}

	return map[string]any{
		"filter":  filter,
		"sorting": sorting,
		"paging": map[string]any{
			"limit":  size,
			"offset": (current - 1) * size,
		},
	}
}

func filterValue(f Filter) any {
	switch f.Operator {
	case "contains", "ncontains":
		return fmt.Sprintf("%%%v%%", f.Value)
	case "startswith":
		return fmt.Sprintf("%v%%", f.Value)
	case "endswith":
		return fmt.Sprintf("%%%v", f.Value)
	case "null", "nnull":
		return nil
	case "between":
		v := reflect.ValueOf(f.Value)
		return map[string]any{
			"lower": v.Index(0).Interface(),
			"upper": v.Index(1).Interface(),
		}
	}
	return f.Value
}

// sliceLen returns the length of a slice or array value, or -1.
func sliceLen(v any) int {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len()
	}
	return -1
}
