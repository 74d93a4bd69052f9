package extract

import (
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/eaninfo/backend/internal/domain"
)

const (
	// NextDataMarker opens the JSON document embedded in a product page
	NextDataMarker = `<script id="__NEXT_DATA__" type="application/json">`

	// scriptCloseMarker ends the embedded JSON document
	scriptCloseMarker = `</script>`

	// productKeyPrefix identifies the product entry in the apollo cache
	productKeyPrefix = "Product:"

	// apolloRefKey marks a normalized reference to another cache entry
	apolloRefKey = "__ref"
)

// apolloCachePaths are the places an apollo cache can live inside the blob,
// tried in order. The empty path is the blob root itself.
var apolloCachePaths = [][]string{
	{},
	{"props", "pageProps", "apolloState"},
	{"apolloState"},
}

// blobField binds a record field to its path below the product root
type blobField struct {
	name string
	path []string
	set  func(r *domain.ExtractedProductRecord, v string)
}

var blobFields = []blobField{
	{"name", []string{"name"}, func(r *domain.ExtractedProductRecord, v string) { r.Name = v }},
	{"description", []string{"description"}, func(r *domain.ExtractedProductRecord, v string) { r.Description = v }},
	{"price", []string{"price"}, func(r *domain.ExtractedProductRecord, v string) { r.Price = v }},
	{"priceUnit", []string{"priceUnit"}, func(r *domain.ExtractedProductRecord, v string) { r.PriceUnit = v }},
	{"comparisonPrice", []string{"comparisonPrice"}, func(r *domain.ExtractedProductRecord, v string) { r.ComparisonPrice = v }},
	{"comparisonUnit", []string{"comparisonUnit"}, func(r *domain.ExtractedProductRecord, v string) { r.ComparisonUnit = v }},
	{"ingredientStatement", []string{"ingredientStatement"}, func(r *domain.ExtractedProductRecord, v string) { r.IngredientStatement = v }},
	{"storageGuide", []string{"productDetails", "storageGuideForConsumer"}, func(r *domain.ExtractedProductRecord, v string) { r.StorageGuide = v }},
	{"countryOfOrigin", []string{"countryName", "fi"}, func(r *domain.ExtractedProductRecord, v string) { r.CountryOfOrigin = v }},
	{"brandName", []string{"brandName"}, func(r *domain.ExtractedProductRecord, v string) { r.BrandName = v }},
	{"contactInformation", []string{"productDetails", "contactInformation"}, func(r *domain.ExtractedProductRecord, v string) { r.ContactInformation = v }},
	{"ean", []string{"ean"}, func(r *domain.ExtractedProductRecord, v string) { r.EAN = v }},
	{"imageUrlTemplate", []string{"productDetails", "productImages", "mainImage", "urlTemplate"}, func(r *domain.ExtractedProductRecord, v string) { r.ImageURLTemplate = v }},
}

var nutrientGroupsPath = []string{"productDetails", "nutrients"}

var errTrailingData = errors.New("unexpected data after JSON document")

// EmbeddedBlobStrategy reads the product from the apollo cache embedded in
// the page's __NEXT_DATA__ script. It fails the whole extraction when the
// product root cannot be located.
type EmbeddedBlobStrategy struct{}

// NewEmbeddedBlobStrategy creates the embedded-data-blob strategy
func NewEmbeddedBlobStrategy() *EmbeddedBlobStrategy {
	return &EmbeddedBlobStrategy{}
}

// Name returns the strategy name
func (s *EmbeddedBlobStrategy) Name() string {
	return "embedded-blob"
}

// Extract parses the embedded blob and reads every field independently
func (s *EmbeddedBlobStrategy) Extract(raw string) (*Result, error) {
	blob, err := sliceBlob(raw)
	if err != nil {
		return nil, err
	}

	var root any
	decoder := json.NewDecoder(strings.NewReader(blob))
	decoder.UseNumber()
	if err := decoder.Decode(&root); err != nil {
		return nil, domain.NewParseError(domain.ReasonInvalidJSON, err)
	}
	// Anything after the document, even a stray '}' or ']', is invalid
	if _, err := decoder.Token(); err != io.EOF {
		return nil, domain.NewParseError(domain.ReasonInvalidJSON, errTrailingData)
	}

	cache, product, ok := findProduct(root)
	if !ok {
		return nil, domain.NewParseError(domain.ReasonProductKeyMissing, nil)
	}

	result := &Result{Strategy: s.Name()}
	for _, field := range blobFields {
		value := stringify(cache.lookup(product, field.path))
		if value == "" {
			result.MissingFields = append(result.MissingFields, field.name)
			continue
		}
		field.set(&result.Record, value)
	}

	groups, ok := readNutrientGroups(cache, product)
	if !ok {
		result.MissingFields = append(result.MissingFields, "nutrientGroups")
	}
	result.Record.NutrientGroups = groups

	return result, nil
}

// sliceBlob returns the text between the marker and the next closing script tag
func sliceBlob(raw string) (string, error) {
	start := strings.Index(raw, NextDataMarker)
	if start < 0 {
		return "", domain.NewParseError(domain.ReasonMarkerNotFound, nil)
	}
	rest := raw[start+len(NextDataMarker):]

	end := strings.Index(rest, scriptCloseMarker)
	if end < 0 {
		return "", domain.NewParseError(domain.ReasonMarkerNotFound, nil)
	}
	return rest[:end], nil
}

// apolloCache is a normalized keyed-object graph
type apolloCache map[string]any

// findProduct locates the first "Product:" entry in any known cache location
func findProduct(root any) (apolloCache, map[string]any, bool) {
	for _, path := range apolloCachePaths {
		candidate, ok := walk(root, path).(map[string]any)
		if !ok {
			continue
		}

		keys := make([]string, 0, len(candidate))
		for key := range candidate {
			if strings.HasPrefix(key, productKeyPrefix) {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)

		for _, key := range keys {
			if product, ok := candidate[key].(map[string]any); ok {
				return apolloCache(candidate), product, true
			}
		}
	}
	return nil, nil, false
}

// walk follows a plain path without reference resolution
func walk(node any, path []string) any {
	for _, key := range path {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = obj[key]
	}
	return node
}

// resolve replaces a {"__ref": key} object with the entry it points to
func (c apolloCache) resolve(node any) any {
	// Bounded so a self-referencing cache cannot loop forever
	for range 8 {
		obj, ok := node.(map[string]any)
		if !ok {
			return node
		}
		ref, ok := obj[apolloRefKey].(string)
		if !ok || len(obj) != 1 {
			return node
		}
		node = c[ref]
	}
	return node
}

// lookup follows path from node, resolving references on the way
func (c apolloCache) lookup(node any, path []string) any {
	node = c.resolve(node)
	for _, key := range path {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = c.resolve(obj[key])
	}
	return node
}

// readNutrientGroups reads productDetails.nutrients. The bool is false when
// the list itself is absent.
func readNutrientGroups(cache apolloCache, product map[string]any) ([]domain.NutrientGroup, bool) {
	list, ok := cache.lookup(product, nutrientGroupsPath).([]any)
	if !ok {
		return nil, false
	}

	groups := make([]domain.NutrientGroup, 0, len(list))
	for _, item := range list {
		entry, _ := cache.resolve(item).(map[string]any)

		group := domain.NutrientGroup{
			ReferenceQuantity: stringify(cache.lookup(entry, []string{"referenceQuantity"})),
		}
		if nutrients, ok := cache.lookup(entry, []string{"nutrients"}).([]any); ok {
			group.Nutrients = make([]domain.Nutrient, 0, len(nutrients))
			for _, n := range nutrients {
				nutrient, _ := cache.resolve(n).(map[string]any)
				group.Nutrients = append(group.Nutrients, domain.Nutrient{
					Name:  stringify(cache.lookup(nutrient, []string{"name"})),
					Value: stringify(cache.lookup(nutrient, []string{"value"})),
				})
			}
		}
		groups = append(groups, group)
	}
	return groups, true
}

// stringify renders a scalar JSON value for display. Falsy values (zero,
// false, null, empty string) and non-scalars become "".
func stringify(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case json.Number:
		return formatNumber(value)
	case bool:
		if value {
			return "true"
		}
		return ""
	default:
		return ""
	}
}

// formatNumber prints a JSON number the shortest way (1.50 -> "1.5")
func formatNumber(n json.Number) string {
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
