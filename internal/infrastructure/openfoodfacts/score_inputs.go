package openfoodfacts

import (
	"strings"

	"github.com/greenscope/backend/internal/domain"
)

// neutralSignal is used for any signal the catalog has no data for
const neutralSignal = 0.5

// Packaging keywords and their recyclability contribution
var (
	recyclableMaterials = []string{
		"glass", "verre", "cardboard", "carton", "paper", "papier",
		"aluminium", "aluminum", "metal", "steel", "recyclable", "compostable",
	}
	problemMaterials = []string{
		"plastic", "plastique", "polystyrene", "styrofoam", "pvc", "multilayer",
		"non-recyclable", "not recyclable",
	}
	lowImpactTerms  = []string{"low", "minimal", "reduced", "organic", "local"}
	highImpactTerms = []string{"high", "severe", "significant", "deforestation", "intensive"}
)

// gradeSignal maps a-e letter grades to [0,1], a being best
var gradeSignal = map[string]float64{
	"a": 0.0,
	"b": 0.25,
	"c": 0.5,
	"d": 0.75,
	"e": 1.0,
}

// DeriveScoreInputs turns catalog text fields into normalized score signals.
// This is a catalog-specific heuristic; unknown data yields neutral signals.
func DeriveScoreInputs(entry *domain.RawCatalogEntry) domain.ScoreInputs {
	if entry == nil {
		return domain.ScoreInputs{Recyclability: neutralSignal, Impact: neutralSignal, Health: neutralSignal}
	}
	return domain.ScoreInputs{
		Recyclability: recyclabilitySignal(entry.Packaging),
		Impact:        impactSignal(entry.EnvironmentalImpact),
		Health:        gradeOrNeutral(entry.NutriscoreGrade),
	}
}

// recyclabilitySignal scores packaging text by counting good and bad materials
func recyclabilitySignal(packaging string) float64 {
	text := strings.ToLower(strings.TrimSpace(packaging))
	if text == "" {
		return neutralSignal
	}

	// "non-recyclable" would otherwise also count as "recyclable"
	bad := countTerms(text, problemMaterials)
	for _, negated := range []string{"non-recyclable", "not recyclable"} {
		text = strings.ReplaceAll(text, negated, "")
	}
	good := countTerms(text, recyclableMaterials)

	if good+bad == 0 {
		return neutralSignal
	}
	return float64(good) / float64(good+bad)
}

// impactSignal accepts either an eco grade letter or free text
func impactSignal(impact string) float64 {
	text := strings.ToLower(strings.TrimSpace(impact))
	if text == "" {
		return neutralSignal
	}
	if v, ok := gradeSignal[text]; ok {
		return v
	}

	low := countTerms(text, lowImpactTerms)
	high := countTerms(text, highImpactTerms)
	if low+high == 0 {
		return neutralSignal
	}
	return float64(high) / float64(low+high)
}

func gradeOrNeutral(grade string) float64 {
	if v, ok := gradeSignal[strings.ToLower(strings.TrimSpace(grade))]; ok {
		return v
	}
	return neutralSignal
}

func countTerms(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			n++
		}
	}
	return n
}
