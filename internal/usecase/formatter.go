package usecase

import (
	"log/slog"
	"strings"

	"github.com/eaninfo/backend/internal/domain"
)

// Display titles, in the order entries are emitted
const (
	TitleName               = "Nimi"
	TitlePrice              = "Hinta"
	TitleDescription        = "Kuvaus"
	TitleIngredients        = "Ainesosat"
	TitleStorageGuide       = "Säilytysohje"
	TitleCountryOfOrigin    = "Valmistusmaa"
	TitleBrand              = "Valmistaja"
	TitleContactInformation = "Yhteystiedot"
	TitleEAN                = "EAN Koodi"
)

// UnitKilogram is the comparison unit code for prices per kilogram
const UnitKilogram = "KGM"

// comparisonTitles maps a comparison unit code to its entry title.
// Units without a title produce no comparison entry.
var comparisonTitles = map[string]string{
	UnitKilogram: "Kilohinta",
}

// comparisonSuffixes maps a comparison unit code to the suffix after the amount
var comparisonSuffixes = map[string]string{
	UnitKilogram: "€/kg",
}

const (
	contactDelimiter = "###"
	contactLabel     = "Yhteystiedot"
)

// entryMapping produces the title and value of one display entry
type entryMapping func(r *domain.ExtractedProductRecord) (title, value string)

// field maps a plain record field under a fixed title
func field(title string, get func(r *domain.ExtractedProductRecord) string) entryMapping {
	return func(r *domain.ExtractedProductRecord) (string, string) {
		return title, get(r)
	}
}

// entryMappings is the fixed, ordered field-to-title table
var entryMappings = []entryMapping{
	field(TitleName, func(r *domain.ExtractedProductRecord) string { return r.Name }),
	field(TitlePrice, formatPrice),
	formatComparisonPrice,
	field(TitleDescription, func(r *domain.ExtractedProductRecord) string { return r.Description }),
	field(TitleIngredients, func(r *domain.ExtractedProductRecord) string { return r.IngredientStatement }),
	field(TitleStorageGuide, func(r *domain.ExtractedProductRecord) string { return r.StorageGuide }),
	field(TitleCountryOfOrigin, func(r *domain.ExtractedProductRecord) string { return r.CountryOfOrigin }),
	field(TitleBrand, func(r *domain.ExtractedProductRecord) string { return r.BrandName }),
	field(TitleContactInformation, func(r *domain.ExtractedProductRecord) string {
		return CleanContactInformation(r.ContactInformation)
	}),
	field(TitleEAN, func(r *domain.ExtractedProductRecord) string { return r.EAN }),
}

// FormatRecord maps a record into ordered, localized display entries.
// Fields without a value produce no entry. The result is a new slice on every call.
func FormatRecord(record *domain.ExtractedProductRecord) []domain.DisplayEntry {
	entries := make([]domain.DisplayEntry, 0, len(entryMappings))
	if record == nil {
		return entries
	}

	for _, mapping := range entryMappings {
		title, value := mapping(record)
		if title == "" || value == "" {
			slog.Debug("[formatter] omitting entry", "title", title)
			continue
		}
		entries = append(entries, domain.DisplayEntry{Title: title, Value: value})
	}
	return entries
}

// formatPrice renders "<price>€ <unit>" when both parts are present
func formatPrice(r *domain.ExtractedProductRecord) string {
	if r.Price == "" || r.PriceUnit == "" {
		return ""
	}
	return r.Price + "€ " + r.PriceUnit
}

// formatComparisonPrice returns the title and value of the comparison price
// entry, or empty strings when the unit has no known title.
func formatComparisonPrice(r *domain.ExtractedProductRecord) (string, string) {
	if r.ComparisonPrice == "" || r.ComparisonUnit == "" {
		return "", ""
	}
	title, ok := comparisonTitles[r.ComparisonUnit]
	if !ok {
		return "", ""
	}
	return title, r.ComparisonPrice + comparisonSuffixes[r.ComparisonUnit]
}

// CleanContactInformation strips the "###" delimiters and the first
// "Yhteystiedot" label from raw contact information.
func CleanContactInformation(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := strings.ReplaceAll(raw, contactDelimiter, "")
	cleaned = strings.Replace(cleaned, contactLabel, "", 1)
	return strings.TrimSpace(cleaned)
}
