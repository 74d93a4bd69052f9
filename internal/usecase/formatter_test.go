package usecase

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eaninfo/backend/internal/domain"
)

func TestFormatRecord(t *testing.T) {
	t.Run("scenario: name, price and EAN only", func(t *testing.T) {
		record := &domain.ExtractedProductRecord{
			Name:      "Milk",
			Price:     "1.5",
			PriceUnit: "L",
			EAN:       "6410405176315",
		}

		want := []domain.DisplayEntry{
			{Title: "Nimi", Value: "Milk"},
			{Title: "Hinta", Value: "1.5€ L"},
			{Title: "EAN Koodi", Value: "6410405176315"},
		}
		if diff := cmp.Diff(want, FormatRecord(record)); diff != "" {
			t.Errorf("FormatRecord() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("full record keeps the fixed order", func(t *testing.T) {
		record := &domain.ExtractedProductRecord{
			Name:                "Maito",
			Description:         "Rasvaton maito",
			Price:               "1.5",
			PriceUnit:           "kpl",
			ComparisonPrice:     "1.2",
			ComparisonUnit:      "KGM",
			IngredientStatement: "Maito",
			StorageGuide:        "Säilytä kylmässä",
			CountryOfOrigin:     "Suomi",
			BrandName:           "Valio",
			ContactInformation:  "###Yhteystiedot###Valio Oy, PL 10, 00039 VALIO",
			EAN:                 "6410405176315",
		}

		want := []domain.DisplayEntry{
			{Title: "Nimi", Value: "Maito"},
			{Title: "Hinta", Value: "1.5€ kpl"},
			{Title: "Kilohinta", Value: "1.2€/kg"},
			{Title: "Kuvaus", Value: "Rasvaton maito"},
			{Title: "Ainesosat", Value: "Maito"},
			{Title: "Säilytysohje", Value: "Säilytä kylmässä"},
			{Title: "Valmistusmaa", Value: "Suomi"},
			{Title: "Valmistaja", Value: "Valio"},
			{Title: "Yhteystiedot", Value: "Valio Oy, PL 10, 00039 VALIO"},
			{Title: "EAN Koodi", Value: "6410405176315"},
		}
		if diff := cmp.Diff(want, FormatRecord(record)); diff != "" {
			t.Errorf("FormatRecord() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty record produces no entries", func(t *testing.T) {
		got := FormatRecord(&domain.ExtractedProductRecord{})
		if got == nil || len(got) != 0 {
			t.Errorf("FormatRecord() = %v, want empty non-nil slice", got)
		}
	})

	t.Run("nil record produces no entries", func(t *testing.T) {
		if got := FormatRecord(nil); len(got) != 0 {
			t.Errorf("FormatRecord(nil) = %v, want empty", got)
		}
	})

	t.Run("blank contact information is omitted", func(t *testing.T) {
		got := FormatRecord(&domain.ExtractedProductRecord{Name: "Maito", ContactInformation: "###Yhteystiedot###  "})
		for _, entry := range got {
			if entry.Title == "Yhteystiedot" {
				t.Errorf("unexpected contact entry %v", entry)
			}
		}
	})

	t.Run("price without unit is omitted", func(t *testing.T) {
		got := FormatRecord(&domain.ExtractedProductRecord{Name: "Maito", Price: "1.5"})
		for _, entry := range got {
			if entry.Title == TitlePrice {
				t.Errorf("unexpected price entry %v", entry)
			}
		}
	})
}

func TestFormatRecord_ComparisonPrice(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		unit      string
		wantEntry bool
	}{
		{"price and kilogram unit", "3.49", "KGM", true},
		{"price and litre unit", "3.49", "LTR", false},
		{"price without unit", "3.49", "", false},
		{"unit without price", "", "KGM", false},
		{"lowercase unit code", "3.49", "kgm", false},
		{"neither", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &domain.ExtractedProductRecord{
				Name:            "Juusto",
				ComparisonPrice: tt.price,
				ComparisonUnit:  tt.unit,
			}

			var found *domain.DisplayEntry
			for _, entry := range FormatRecord(record) {
				if entry.Title == "Kilohinta" {
					found = &entry
				}
			}

			if tt.wantEntry {
				if found == nil {
					t.Fatal("expected Kilohinta entry")
				}
				if found.Value != tt.price+"€/kg" {
					t.Errorf("Kilohinta = %q, want %q", found.Value, tt.price+"€/kg")
				}
			} else if found != nil {
				t.Errorf("unexpected Kilohinta entry %v", *found)
			}
		})
	}
}

func TestFormatRecord_NeverEmitsEmptyValues(t *testing.T) {
	records := []*domain.ExtractedProductRecord{
		{},
		{Name: "Maito"},
		{PriceUnit: "kpl"},
		{ContactInformation: "###"},
		{ContactInformation: "###Yhteystiedot###"},
		{ComparisonPrice: "2", ComparisonUnit: "KGM", EAN: "1"},
		{Description: "Kuvaus", BrandName: "Valio", CountryOfOrigin: ""},
	}

	for _, record := range records {
		first := FormatRecord(record)
		for _, entry := range first {
			if entry.Value == "" {
				t.Errorf("FormatRecord(%+v) produced empty entry %q", *record, entry.Title)
			}
		}

		second := FormatRecord(record)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("FormatRecord is not stable (-first +second):\n%s", diff)
		}
	}
}

func TestCleanContactInformation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Valio Oy", "Valio Oy"},
		{"delimiters and label", "###Yhteystiedot###Valio Oy", "Valio Oy"},
		{"only first label removed", "Yhteystiedot: Yhteystiedot Oy", ": Yhteystiedot Oy"},
		{"only delimiters", "######", ""},
		{"whitespace only", "  \n ", ""},
		{"label surrounded by whitespace", "###Yhteystiedot### ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanContactInformation(tt.raw); got != tt.want {
				t.Errorf("CleanContactInformation(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
