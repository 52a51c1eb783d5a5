// internal/pipeline/resolver/models.go
package resolver

import "planiq/internal/models"

// Result holds the ranked candidates per category. An empty slice means
// "no entities found", never an error: unreachable search collapses to
// empty candidates by contract.
type Result struct {
	Products  []models.ResolvedEntity `json:"products"`
	Locations []models.ResolvedEntity `json:"locations"`
	Events    []models.ResolvedEntity `json:"events"`
	Dates     []models.ResolvedEntity `json:"dates"`
	Schema    []models.SchemaMetadata `json:"schema_metadata,omitempty"`
}
