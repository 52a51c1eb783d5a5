// Package experts holds the keyword-gated domain experts. An expert never
// executes queries; it contributes schema fragments, formulas, and join
// patterns that guide query synthesis.
package experts

import (
	"fmt"
	"sort"
	"strings"
)

// Static demo-data anchor: 2025-11-08 is the current week end, all relative
// time phrases resolve against it.
const (
	CurrentWeekEnd  = "2025-11-08"
	PreviousWeekEnd = "2025-11-01"
	NextWeekEnd     = "2025-11-15"
)

// Formula is one named calculation an expert recommends.
type Formula struct {
	Name        string
	SQL         string
	Description string
}

// TimeContext resolves the query's relative-time phrasing to a filter.
type TimeContext struct {
	Type       string
	DateFilter string
}

// Hints is the structured fragment one expert contributes to the synthesis
// prompt.
type Hints struct {
	Agent        string
	Domain       string
	PrimaryTable string
	Description  string
	TableSchema  string
	KeyColumns   map[string]string
	JoinPatterns string
	Formulas     []Formula
	TimeContext  TimeContext
	Notes        []string
}

// Expert identifies domain-relevant queries and supplies hints for them.
type Expert interface {
	Name() string
	CanHandle(query string) bool
	DomainHints(query string) Hints
}

// All returns every registered domain expert.
func All() []Expert {
	return []Expert{
		&SalesExpert{},
		&WeatherExpert{},
		&EventsExpert{},
		&InventoryExpert{},
		&LocationExpert{},
		&MetricsExpert{},
	}
}

// PromptBlock renders the hints as a text block appended verbatim to the
// synthesis prompt.
func (h Hints) PromptBlock() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== DOMAIN EXPERT: %s (%s) ===\n", h.Agent, h.Domain)
	fmt.Fprintf(&b, "%s\n", h.Description)

	if h.TableSchema != "" {
		b.WriteString(strings.TrimSpace(h.TableSchema))
		b.WriteString("\n")
	}

	if len(h.KeyColumns) > 0 {
		b.WriteString("Key columns:\n")
		cols := make([]string, 0, len(h.KeyColumns))
		for col := range h.KeyColumns {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			fmt.Fprintf(&b, "- %s: %s\n", col, h.KeyColumns[col])
		}
	}

	if h.JoinPatterns != "" {
		b.WriteString(strings.TrimSpace(h.JoinPatterns))
		b.WriteString("\n")
	}

	for _, f := range h.Formulas {
		fmt.Fprintf(&b, "Formula %q: %s -- %s\n", f.Name, strings.TrimSpace(f.SQL), f.Description)
	}

	if h.TimeContext.DateFilter != "" {
		fmt.Fprintf(&b, "Time filter (%s): %s\n", h.TimeContext.Type, h.TimeContext.DateFilter)
	}

	for _, note := range h.Notes {
		fmt.Fprintf(&b, "NOTE: %s\n", note)
	}

	return b.String()
}

// HintsFor collects hints from every expert that can handle the query.
func HintsFor(query string, all []Expert) []Hints {
	var out []Hints
	for _, e := range all {
		if e.CanHandle(query) {
			out = append(out, e.DomainHints(query))
		}
	}
	return out
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// detectTimeContext maps relative-time phrases onto the static demo anchor.
// dateCol is the aliased date column of the expert's primary table.
func detectTimeContext(queryLower, dateCol string) TimeContext {
	switch {
	case containsAny(queryLower, []string{"last week", "previous week"}):
		return TimeContext{Type: "historical", DateFilter: fmt.Sprintf("%s = '%s'", dateCol, PreviousWeekEnd)}
	case containsAny(queryLower, []string{"this week", "current week"}):
		return TimeContext{Type: "current", DateFilter: fmt.Sprintf("%s = '%s'", dateCol, CurrentWeekEnd)}
	case containsAny(queryLower, []string{"next week"}):
		return TimeContext{Type: "future", DateFilter: fmt.Sprintf("%s = '%s'", dateCol, NextWeekEnd)}
	case containsAny(queryLower, []string{"week-on-week", "compare", "vs"}):
		return TimeContext{Type: "comparison", DateFilter: fmt.Sprintf("%s IN ('%s', '%s')", dateCol, PreviousWeekEnd, CurrentWeekEnd)}
	case containsAny(queryLower, []string{"last month", "october"}):
		return TimeContext{Type: "historical", DateFilter: "c.month = 'October' AND c.year = 2025"}
	case containsAny(queryLower, []string{"last 28 days", "last 4 weeks"}):
		return TimeContext{Type: "rolling", DateFilter: fmt.Sprintf("%s >= '%s'::date - INTERVAL '28 days'", dateCol, CurrentWeekEnd)}
	}
	return TimeContext{Type: "current"}
}
