// ABOUTME: Deals chart series built from won and lost stage aggregates
// ABOUTME: Produces one point per month and state, ordered by time
package viz

import (
	"sort"
	"time"

	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
	"github.com/shopspring/decimal"
)

// Chart series states.
const (
	StateWon  = "Won"
	StateLost = "Lost"
)

// ChartPoint is one month of closed deal value.
type ChartPoint struct {
	TimeUnix int64
	TimeText string
	Value    decimal.Decimal
	State    string
}

// DealsChart maps dealStages records carrying a dealsAggregate into chart
// points. Only the WON and LOST stages contribute. Aggregates without a close
// month or year are skipped.
func DealsChart(stages []objects.Record) []ChartPoint {
	var points []ChartPoint
	for _, stage := range stages {
		var state string
		switch stage.String("title") {
		case models.StageWon:
			state = StateWon
		case models.StageLost:
			state = StateLost
		default:
			continue
		}

		aggregates, _ := stage["dealsAggregate"].([]any)
		for _, raw := range aggregates {
			agg, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			group := objects.Record(agg).Map("groupBy")
			month := int(group.Decimal("closeDateMonth").IntPart())
			year := int(group.Decimal("closeDateYear").IntPart())
			if month < 1 || month > 12 || year == 0 {
				continue
			}

			at := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
			points = append(points, ChartPoint{
				TimeUnix: at.Unix(),
				TimeText: at.Format("Jan 2006"),
				Value:    objects.Record(agg).Map("sum").Decimal("value"),
				State:    state,
			})
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].TimeUnix < points[j].TimeUnix
	})
	return points
}
