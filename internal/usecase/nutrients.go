package usecase

import (
	"log/slog"

	"github.com/eaninfo/backend/internal/domain"
)

// BuildNutrients turns one nutrient group of the record into display entries.
// A missing group or nutrient list yields an empty table without a reference quantity.
func BuildNutrients(record *domain.ExtractedProductRecord, groupIndex int) domain.NutrientTable {
	table := domain.NutrientTable{Entries: []domain.DisplayEntry{}}
	if record == nil || groupIndex < 0 || groupIndex >= len(record.NutrientGroups) {
		return table
	}

	group := record.NutrientGroups[groupIndex]
	if group.Nutrients == nil {
		return table
	}

	table.ReferenceQuantity = group.ReferenceQuantity
	for _, nutrient := range group.Nutrients {
		if nutrient.Name == "" || nutrient.Value == "" {
			slog.Debug("[nutrients] omitting nutrient entry", "name", nutrient.Name, "value", nutrient.Value)
			continue
		}
		table.Entries = append(table.Entries, domain.DisplayEntry{
			Title: nutrient.Name,
			Value: nutrient.Value,
		})
	}
	return table
}
