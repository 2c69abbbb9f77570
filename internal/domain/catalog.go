package domain

// CatalogResponse is the envelope returned by the product catalog lookup endpoint
type CatalogResponse struct {
	Code          string           `json:"code,omitempty"`
	Status        int              `json:"status,omitempty"`
	StatusVerbose string           `json:"status_verbose,omitempty"`
	Product       *RawCatalogEntry `json:"product"`
}

// RawCatalogEntry is the untrusted catalog representation of a product.
// Only ProductName is mandatory; everything else may be missing.
type RawCatalogEntry struct {
	ProductName         string          `json:"product_name"`
	GenericName         string          `json:"generic_name,omitempty"`
	Brands              string          `json:"brands,omitempty"`
	Ingredients         []RawIngredient `json:"ingredients,omitempty"`
	ImageURL            string          `json:"image_url,omitempty"`
	Packaging           string          `json:"packaging,omitempty"`
	EnvironmentalImpact string          `json:"environmental_impact,omitempty"`
	NutriscoreGrade     string          `json:"nutriscore_grade,omitempty"`
}

// RawIngredient is one free-text ingredient label
type RawIngredient struct {
	Text string `json:"text"`
}
