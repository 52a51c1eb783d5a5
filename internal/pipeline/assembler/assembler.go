// Package assembler merges resolver and expander output into one read-only
// ResolvedContext. It performs no I/O of its own.
package assembler

import (
	"time"

	"planiq/internal/models"
	"planiq/internal/pipeline/expander"
	"planiq/internal/pipeline/resolver"
)

// excelEpoch anchors spreadsheet serial dates used by some calendar docs.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Assemble builds the request's ResolvedContext. Resolved entities stay
// separate from expanded ones so the synthesizer can honor the
// exact-entity filtering rule.
func Assemble(resolved *resolver.Result, expanded *expander.Result) *models.ResolvedContext {
	ctx := &models.ResolvedContext{
		Products:  models.ExpandedEntitySet{Resolved: resolved.Products, Expanded: expanded.Products},
		Locations: models.ExpandedEntitySet{Resolved: resolved.Locations, Expanded: expanded.Locations},
		Dates:     models.ExpandedEntitySet{Resolved: resolved.Dates},
		Events:    models.ExpandedEntitySet{Resolved: resolved.Events, Expanded: expanded.Events},
		Schema:    resolved.Schema,
	}
	ctx.DateRange = deriveDateRange(resolved.Dates)
	return ctx
}

// deriveDateRange takes the min/max over every date carried by the resolved
// calendar entities. Returns nil when no entity carries a usable date.
func deriveDateRange(dates []models.ResolvedEntity) *models.DateRange {
	var min, max time.Time
	for _, entity := range dates {
		for _, key := range []string{"date", "start_date", "end_date"} {
			parsed, ok := parseDate(entity.Attributes[key])
			if !ok {
				continue
			}
			if min.IsZero() || parsed.Before(min) {
				min = parsed
			}
			if max.IsZero() || parsed.After(max) {
				max = parsed
			}
		}
	}
	if min.IsZero() {
		return nil
	}
	return &models.DateRange{
		Start: min.Format("2006-01-02"),
		End:   max.Format("2006-01-02"),
	}
}

func parseDate(raw interface{}) (time.Time, bool) {
	switch v := raw.(type) {
	case string:
		for _, layout := range []string{"2006-01-02", time.RFC3339, "01/02/2006"} {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed, true
			}
		}
	case float64:
		// Spreadsheet serial date.
		if v > 0 {
			return excelEpoch.AddDate(0, 0, int(v)), true
		}
	}
	return time.Time{}, false
}
