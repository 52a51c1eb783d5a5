// internal/experts/weather.go
package experts

import "strings"

// WeatherExpert covers observed weather conditions and flags.
type WeatherExpert struct{}

var weatherKeywords = []string{
	"weather", "temperature", "rain", "precipitation", "climate",
	"hot", "cold", "heatwave", "cold spell", "storm", "snow",
	"humid", "dry", "forecast", "tmax", "tmin",
	"weather condition", "weather impact", "weather flag",
}

func (e *WeatherExpert) Name() string { return "weather" }

func (e *WeatherExpert) CanHandle(query string) bool {
	return containsAny(strings.ToLower(query), weatherKeywords)
}

func (e *WeatherExpert) DomainHints(query string) Hints {
	queryLower := strings.ToLower(query)

	hints := Hints{
		Agent:        "weather",
		Domain:       "weather_analysis",
		PrimaryTable: "weekly_weather",
		Description:  "Weather conditions and flags for demand correlation",
		TableSchema: `
-- WEEKLY_WEATHER TABLE
weekly_weather (
    store_id VARCHAR,           -- Store ID (joins with location.location)
    week_end_date DATE,         -- Week ending date (joins with calendar.end_date)
    tmax NUMERIC,               -- Maximum temperature (F)
    tmin NUMERIC,               -- Minimum temperature (F)
    precip NUMERIC,             -- Precipitation (inches)
    heatwave_flag BOOLEAN,      -- True if heatwave conditions
    cold_spell_flag BOOLEAN,    -- True if cold spell conditions
    heavy_rain_flag BOOLEAN,    -- True if heavy rain
    snow_flag BOOLEAN           -- True if snow
)
`,
		KeyColumns: map[string]string{
			"tmax":          "Max temperature in F",
			"tmin":          "Min temperature in F",
			"precip":        "Precipitation in inches",
			"heatwave_flag": "Boolean - extreme heat conditions",
			"snow_flag":     "Boolean - snow conditions",
		},
		JoinPatterns: `
-- Standard Weather Joins:
FROM weekly_weather w
JOIN location l ON w.store_id = l.location
JOIN calendar c ON w.week_end_date = c.end_date
`,
		TimeContext: detectTimeContext(queryLower, "w.week_end_date"),
	}

	if containsAny(queryLower, []string{"condition", "flag", "type of weather"}) {
		hints.Formulas = append(hints.Formulas, Formula{
			Name: "Weather Condition Classification",
			SQL: `CASE
    WHEN w.heatwave_flag = true THEN 'Heatwave'
    WHEN w.cold_spell_flag = true THEN 'Cold Spell'
    WHEN w.heavy_rain_flag = true THEN 'Heavy Rain'
    WHEN w.snow_flag = true THEN 'Snow'
    ELSE 'Normal'
END AS weather_condition`,
			Description: "Classifies each store-week into one condition",
		})
	}
	if containsAny(queryLower, []string{"beach", "ideal"}) {
		hints.Notes = append(hints.Notes,
			"Ideal beach weather: tmax BETWEEN 80 AND 95 AND tmin >= 65 AND precip <= 0.1 AND heatwave_flag = false AND cold_spell_flag = false AND heavy_rain_flag = false")
	}

	return hints
}
