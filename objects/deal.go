// ABOUTME: Deal helpers reading money and stage fields from generic records
// ABOUTME: Converts JSON numbers into exact decimal amounts
package objects

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Deal field keys.
const (
	DealFieldTitle   = "title"
	DealFieldValue   = "value"
	DealFieldStageID = "stageId"
)

// Decimal reads a numeric field. Missing, null or malformed values read as zero.
func (r Record) Decimal(field string) decimal.Decimal {
	return ToDecimal(r[field])
}

// Map returns a nested object field, or nil.
func (r Record) Map(field string) Record {
	switch t := r[field].(type) {
	case map[string]any:
		return Record(t)
	case Record:
		return t
	}
	return nil
}

// ToDecimal converts the number shapes produced by JSON decoding.
func ToDecimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t)
	case float32:
		return decimal.NewFromFloat32(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return d
		}
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(t)); err == nil {
			return d
		}
	case decimal.Decimal:
		return t
	}
	return decimal.Zero
}
