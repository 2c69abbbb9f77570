package openfoodfacts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/greenscope/backend/internal/domain"
)

// SourceName identifies products resolved from this catalog
const SourceName = "OpenFoodFacts"

// MapToProduct converts a catalog entry to our domain Product.
// The entry must carry a non-empty product name; optional fields fall back to placeholders.
func MapToProduct(barcode string, entry *domain.RawCatalogEntry, score float64) (*domain.Product, error) {
	if entry == nil {
		return nil, domain.ErrProductAbsent
	}

	// The name is passed through untouched; only a blank one is rejected
	if strings.TrimSpace(entry.ProductName) == "" {
		return nil, domain.ErrMissingProductName
	}

	return &domain.Product{
		ID:                  uuid.NewString(),
		Barcode:             barcode,
		Name:                entry.ProductName,
		Description:         orPlaceholder(entry.GenericName, domain.PlaceholderDescription),
		Brand:               orPlaceholder(entry.Brands, domain.PlaceholderBrand),
		Ingredients:         extractIngredients(entry.Ingredients),
		ImageURL:            orPlaceholder(entry.ImageURL, domain.PlaceholderImageURL),
		SustainabilityScore: score,
		RecyclabilityInfo:   orPlaceholder(entry.Packaging, domain.PlaceholderRecyclabilityInfo),
		EnvironmentalImpact: orPlaceholder(entry.EnvironmentalImpact, domain.PlaceholderEnvironmentalImpact),
		HealthEffects:       orPlaceholder(entry.NutriscoreGrade, domain.PlaceholderHealthEffects),
		Source:              SourceName,
		ResolvedAt:          time.Now().UTC(),
	}, nil
}

// extractIngredients keeps the catalog order; a missing list yields an empty slice
func extractIngredients(raw []domain.RawIngredient) []string {
	ingredients := make([]string, 0, len(raw))
	for _, ingredient := range raw {
		ingredients = append(ingredients, ingredient.Text)
	}
	return ingredients
}

func orPlaceholder(value, placeholder string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return placeholder
}
