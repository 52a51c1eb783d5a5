// internal/pipeline/expander/models.go
package expander

import "planiq/internal/models"

// Input carries the seed entity identifiers per category.
type Input struct {
	ProductIDs  []string `json:"product_ids"`
	LocationIDs []string `json:"location_ids"`
	EventIDs    []string `json:"event_ids"`
}

// Result holds the expansions discovered via graph traversal. Expanded
// entities are informational only and never replace the seeds in the final
// query scope.
type Result struct {
	Products  []models.ResolvedEntity `json:"products"`
	Locations []models.ResolvedEntity `json:"locations"`
	Events    []models.ResolvedEntity `json:"events"`
}
