package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/eaninfo/backend/internal/domain"
)

// NotFoundPlaceholder replaces a text field the DOM strategy could not locate
const NotFoundPlaceholder = "Tietoa ei löytynyt"

var innerWhitespace = regexp.MustCompile(`\s+`)

// domField binds a record field to the data-test-id of the element holding it.
// Fields with a placeholder degrade to NotFoundPlaceholder when missing.
type domField struct {
	name        string
	testID      string
	placeholder bool
	set         func(r *domain.ExtractedProductRecord, v string)
}

var domFields = []domField{
	{"name", "product-name", true, func(r *domain.ExtractedProductRecord, v string) { r.Name = v }},
	{"description", "product-description", true, func(r *domain.ExtractedProductRecord, v string) { r.Description = v }},
	{"price", "product-price", false, func(r *domain.ExtractedProductRecord, v string) { r.Price = v }},
	{"priceUnit", "product-price-unit", false, func(r *domain.ExtractedProductRecord, v string) { r.PriceUnit = v }},
	{"comparisonPrice", "product-comparison-price", false, func(r *domain.ExtractedProductRecord, v string) { r.ComparisonPrice = v }},
	{"comparisonUnit", "product-comparison-unit", false, func(r *domain.ExtractedProductRecord, v string) { r.ComparisonUnit = v }},
	{"ingredientStatement", "product-ingredients", true, func(r *domain.ExtractedProductRecord, v string) { r.IngredientStatement = v }},
	{"storageGuide", "product-storage-guide", true, func(r *domain.ExtractedProductRecord, v string) { r.StorageGuide = v }},
	{"countryOfOrigin", "product-country-of-origin", true, func(r *domain.ExtractedProductRecord, v string) { r.CountryOfOrigin = v }},
	{"brandName", "product-brand", true, func(r *domain.ExtractedProductRecord, v string) { r.BrandName = v }},
	{"contactInformation", "product-contact-information", true, func(r *domain.ExtractedProductRecord, v string) { r.ContactInformation = v }},
	{"ean", "product-ean", true, func(r *domain.ExtractedProductRecord, v string) { r.EAN = v }},
}

// DomFallbackStrategy reads product fields from elements marked with
// data-test-id attributes. It never fails on a missing field; the field is
// reported missing and, for text fields, filled with NotFoundPlaceholder.
type DomFallbackStrategy struct{}

// NewDomFallbackStrategy creates the DOM fallback strategy
func NewDomFallbackStrategy() *DomFallbackStrategy {
	return &DomFallbackStrategy{}
}

// Name returns the strategy name
func (s *DomFallbackStrategy) Name() string {
	return "dom-fallback"
}

// Extract parses raw as HTML and reads each field on its own
func (s *DomFallbackStrategy) Extract(raw string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, domain.NewParseError(domain.ReasonInvalidHTML, fmt.Errorf("parsing HTML: %w", err))
	}

	result := &Result{Strategy: s.Name()}
	for _, field := range domFields {
		value := textByTestID(doc, field.testID)
		if value == "" {
			result.MissingFields = append(result.MissingFields, field.name)
			if !field.placeholder {
				continue
			}
			value = NotFoundPlaceholder
		}
		field.set(&result.Record, value)
	}

	image := doc.Find(testIDSelector("product-image")).First().AttrOr("src", "")
	if image = strings.TrimSpace(image); image != "" {
		result.Record.ImageURLTemplate = image
	} else {
		result.MissingFields = append(result.MissingFields, "imageUrlTemplate")
	}

	if group, ok := readNutrientTable(doc); ok {
		result.Record.NutrientGroups = []domain.NutrientGroup{group}
	} else {
		result.MissingFields = append(result.MissingFields, "nutrientGroups")
	}

	return result, nil
}

func testIDSelector(testID string) string {
	return fmt.Sprintf(`[data-test-id=%q]`, testID)
}

// textByTestID returns the collapsed text of the first element with the test id
func textByTestID(doc *goquery.Document, testID string) string {
	sel := doc.Find(testIDSelector(testID)).First()
	if sel.Length() == 0 {
		return ""
	}
	return cleanText(sel.Text())
}

func cleanText(s string) string {
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(s, " "))
}

// readNutrientTable reads the nutrient table rows as a single nutrient group
func readNutrientTable(doc *goquery.Document) (domain.NutrientGroup, bool) {
	table := doc.Find(testIDSelector("product-nutrients")).First()
	if table.Length() == 0 {
		return domain.NutrientGroup{}, false
	}

	group := domain.NutrientGroup{
		ReferenceQuantity: textByTestID(doc, "product-nutrients-reference-quantity"),
		Nutrients:         []domain.Nutrient{},
	}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		group.Nutrients = append(group.Nutrients, domain.Nutrient{
			Name:  cleanText(cells.Eq(0).Text()),
			Value: cleanText(cells.Eq(1).Text()),
		})
	})
	return group, true
}
