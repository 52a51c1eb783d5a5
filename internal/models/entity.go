// internal/models/entity.go
package models

// EntityKind classifies a resolved entity.
type EntityKind string

const (
	EntityKindProduct  EntityKind = "product"
	EntityKindLocation EntityKind = "location"
	EntityKindEvent    EntityKind = "event"
	EntityKindDate     EntityKind = "date"
)

// ResolvedEntity is a structured reference disambiguated from free text.
// Immutable once created; scoped to one request.
type ResolvedEntity struct {
	ID          string                 `json:"id"`
	DisplayName string                 `json:"display_name"`
	Kind        EntityKind             `json:"kind"`
	Score       float64                `json:"score,omitempty"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
}

// ExpandedEntitySet pairs the entities the user actually named with the
// related entities discovered via graph traversal. The expanded set never
// replaces the resolved set in the final query scope.
type ExpandedEntitySet struct {
	Resolved []ResolvedEntity `json:"resolved"`
	Expanded []ResolvedEntity `json:"expanded"`
}

// DateRange is the min/max window derived from resolved calendar entities.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SchemaMetadata describes one relevant table surfaced by metadata search.
type SchemaMetadata struct {
	Table       string   `json:"table"`
	Description string   `json:"description,omitempty"`
	Columns     []string `json:"columns,omitempty"`
}

// ResolvedContext aggregates everything the Query Synthesizer needs. Built
// once per request by the Context Assembler, read-only afterward.
type ResolvedContext struct {
	Products  ExpandedEntitySet `json:"products"`
	Locations ExpandedEntitySet `json:"locations"`
	Dates     ExpandedEntitySet `json:"dates"`
	Events    ExpandedEntitySet `json:"events"`
	DateRange *DateRange        `json:"date_range,omitempty"`
	Schema    []SchemaMetadata  `json:"schema_metadata,omitempty"`
}
