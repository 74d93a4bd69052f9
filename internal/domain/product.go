package domain

import "strings"

// ExtractedProductRecord is the normalized product data read from a product page.
// Every field is optional; an empty string means the field was absent.
type ExtractedProductRecord struct {
	Name                string          `json:"name,omitempty"`
	Description         string          `json:"description,omitempty"`
	Price               string          `json:"price,omitempty"`
	PriceUnit           string          `json:"priceUnit,omitempty"`
	ComparisonPrice     string          `json:"comparisonPrice,omitempty"`
	ComparisonUnit      string          `json:"comparisonUnit,omitempty"` // unit code, e.g. "KGM"
	IngredientStatement string          `json:"ingredientStatement,omitempty"`
	StorageGuide        string          `json:"storageGuide,omitempty"`
	CountryOfOrigin     string          `json:"countryOfOrigin,omitempty"`
	BrandName           string          `json:"brandName,omitempty"`
	ContactInformation  string          `json:"contactInformation,omitempty"` // raw, before cleanup
	EAN                 string          `json:"ean,omitempty"`
	ImageURLTemplate    string          `json:"imageUrlTemplate,omitempty"`
	NutrientGroups      []NutrientGroup `json:"nutrientGroups,omitempty"`
}

// NutrientGroup is one set of nutrients sharing a reference quantity (e.g. "100g").
// A nil Nutrients slice means the list was absent on the page.
type NutrientGroup struct {
	ReferenceQuantity string     `json:"referenceQuantity,omitempty"`
	Nutrients         []Nutrient `json:"nutrients"`
}

// Nutrient is a single name/value pair inside a nutrient group
type Nutrient struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

// DisplayEntry is one titled, display-ready value. Value is never empty.
type DisplayEntry struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// NutrientTable holds the display entries of one nutrient group
type NutrientTable struct {
	Entries           []DisplayEntry `json:"entries"`
	ReferenceQuantity string         `json:"referenceQuantity,omitempty"`
}

// ProductView is what a client needs to render one extraction cycle
type ProductView struct {
	IsLoading                 bool           `json:"isLoading"`
	HasError                  bool           `json:"hasError"`
	ErrorMessage              string         `json:"errorMessage"`
	DisplayEntries            []DisplayEntry `json:"displayEntries"`
	NutrientEntries           []DisplayEntry `json:"nutrientEntries"`
	NutrientReferenceQuantity string         `json:"nutrientReferenceQuantity,omitempty"`
	ImageURL                  string         `json:"imageUrl,omitempty"`
}

// NormalizeIdentifier trims the EAN code; an empty result means the identifier is absent
func NormalizeIdentifier(ean string) string {
	return strings.TrimSpace(ean)
}
