// internal/experts/events.go
package experts

import "strings"

// EventsExpert covers holidays, sports, and festivals mapped to stores.
type EventsExpert struct{}

var eventsKeywords = []string{
	"event", "events", "holiday", "festival", "concert",
	"sports", "game", "match", "thanksgiving", "christmas",
	"super bowl", "memorial day", "labor day", "black friday",
	"new year", "easter", "halloween", "fourth of july",
	"event impact", "event proximity", "upcoming event",
}

func (e *EventsExpert) Name() string { return "events" }

func (e *EventsExpert) CanHandle(query string) bool {
	return containsAny(strings.ToLower(query), eventsKeywords)
}

func (e *EventsExpert) DomainHints(query string) Hints {
	queryLower := strings.ToLower(query)

	hints := Hints{
		Agent:        "events",
		Domain:       "event_analysis",
		PrimaryTable: "events",
		Description:  "Event data including holidays, sports, festivals mapped to store proximity",
		TableSchema: `
-- EVENTS TABLE
events (
    event VARCHAR,              -- Event name
    event_type VARCHAR,         -- Type: Sports, Concert, Festival, Holiday, etc.
    event_date DATE,            -- Date of event
    store_id VARCHAR,           -- Store in proximity (joins with location.location)
    event_start_date DATE,      -- Multi-day event start
    event_end_date DATE         -- Multi-day event end
)
-- Events are pre-mapped to stores by geographic proximity (lat/long)
`,
		KeyColumns: map[string]string{
			"event":      "Event name (VARCHAR)",
			"event_type": "Event category: Sports, Concert, Festival, Holiday, etc.",
			"event_date": "Primary event date (DATE)",
			"store_id":   "Store ID in proximity (joins with location.location)",
		},
		JoinPatterns: `
-- Standard Events Joins:
FROM events e
JOIN location l ON e.store_id = l.location
JOIN calendar c ON e.event_date = c.end_date
`,
		TimeContext: detectTimeContext(queryLower, "e.event_date"),
	}

	if containsAny(queryLower, []string{"how many", "count", "number of"}) {
		hints.Formulas = append(hints.Formulas, Formula{
			Name:        "Event Count",
			SQL:         "COUNT(DISTINCT e.event) AS event_count",
			Description: "Distinct events matching the filter",
		})
	}
	if containsAny(queryLower, []string{"upcoming", "next"}) {
		hints.Notes = append(hints.Notes, "Upcoming events: e.event_date > '"+CurrentWeekEnd+"'")
	}

	return hints
}
