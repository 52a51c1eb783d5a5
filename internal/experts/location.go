// internal/experts/location.go
package experts

import "strings"

// LocationExpert covers the geographic hierarchy.
type LocationExpert struct{}

var locationKeywords = []string{
	"location", "store", "region", "regional",
	"market", "state", "area", "geographic",
	"northeast", "southeast", "midwest", "southwest", "west",
	"florida", "texas", "california", "new york",
	"miami", "tampa", "boston", "chicago", "dallas", "san francisco", "los angeles",
	"by region", "by market", "by state", "by store",
}

// Regions are stored lowercase; filters must compare lowercase too.
var Regions = []string{"northeast", "southeast", "midwest", "southwest", "west", "south"}

func (e *LocationExpert) Name() string { return "location" }

func (e *LocationExpert) CanHandle(query string) bool {
	return containsAny(strings.ToLower(query), locationKeywords)
}

func (e *LocationExpert) DomainHints(query string) Hints {
	queryLower := strings.ToLower(query)

	return Hints{
		Agent:        "location",
		Domain:       "geographic_analysis",
		PrimaryTable: "location",
		Description:  "Geographic hierarchy and store location data",
		TableSchema: `
-- LOCATION TABLE
location (
    id INTEGER,                 -- Primary key
    location VARCHAR,           -- Store ID (e.g., 'ST0050')
    region VARCHAR,             -- Region (e.g., 'northeast', 'southeast') - LOWERCASE
    market VARCHAR,             -- Market (e.g., 'Miami, FL', 'Boston, MA')
    state VARCHAR,              -- State (e.g., 'Florida', 'Massachusetts')
    latitude NUMERIC,           -- Geographic coordinates
    longitude NUMERIC           -- Geographic coordinates
)
-- IMPORTANT: region values are LOWERCASE (e.g., 'northeast' not 'Northeast')
`,
		KeyColumns: map[string]string{
			"location": "Store ID (VARCHAR) - e.g., 'ST0050', 'ST1234'",
			"region":   "Region (VARCHAR, LOWERCASE) - northeast, southeast, midwest, southwest, west",
			"market":   "Market/City (VARCHAR) - e.g., 'Miami, FL', 'Boston, MA'",
			"state":    "State (VARCHAR) - e.g., 'Florida', 'Texas'",
		},
		JoinPatterns: `
-- Location joins with other tables:
-- Sales: sales.store_code = location.location
-- Batches: batches.store_code = location.location
-- Metrics: metrics.location = location.location
-- Events: events.store_id = location.location
-- Weather: weekly_weather.store_id = location.location
`,
		TimeContext: detectTimeContext(queryLower, "c.end_date"),
		Notes: []string{
			"Hierarchy: Region -> Market -> State -> Store (e.g., southeast -> Miami, FL -> Florida -> ST0050)",
		},
	}
}
