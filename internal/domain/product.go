package domain

import "time"

// Placeholder strings used when the catalog omits an optional field
const (
	PlaceholderDescription         = "No description available"
	PlaceholderBrand               = "Unknown brand"
	PlaceholderImageURL            = ""
	PlaceholderRecyclabilityInfo   = "No recycling information available"
	PlaceholderEnvironmentalImpact = "No environmental impact data available"
	PlaceholderHealthEffects       = "No health data available"
)

// Product is a resolved, scored catalog product. Values are never mutated after construction.
type Product struct {
	ID                  string    `json:"id"`
	Barcode             string    `json:"barcode"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	Brand               string    `json:"brand"`
	Ingredients         []string  `json:"ingredients"`
	ImageURL            string    `json:"image_url"`
	SustainabilityScore float64   `json:"sustainability_score"` // 0.0-10.0, one decimal
	RecyclabilityInfo   string    `json:"recyclability_info"`
	EnvironmentalImpact string    `json:"environmental_impact"`
	HealthEffects       string    `json:"health_effects"`
	Source              string    `json:"source"` // "OpenFoodFacts" or "Cache"
	ResolvedAt          time.Time `json:"resolved_at"`
}

// Rating is the display tier derived from a sustainability score
type Rating struct {
	Label string `json:"label"`
	Color string `json:"color"` // hex color token, independent of any renderer
}

// ScoreInputs are the three normalized signals the score is computed from.
// Recyclability: higher is better. Impact and Health: higher is worse.
type ScoreInputs struct {
	Recyclability float64 `json:"recyclability"`
	Impact        float64 `json:"impact"`
	Health        float64 `json:"health"`
}
