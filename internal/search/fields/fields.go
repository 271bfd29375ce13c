// Package fields decides which strings of a record are searchable.
package fields

import (
	"strings"

	"crm_search_backend/internal/entities"
)

// SearchStrings are the raw searchable values of one record.
type SearchStrings struct {
	// Base holds identity and contact fields.
	Base []string
	// Dynamic holds custom document values, in definition order.
	Dynamic []string
}

// ExtractSearchStrings collects first name, last name, display name, email,
// every phone, account id and id, skipping empty values, plus the values of
// the custom documents named by defs. Only keys listed in defs are read from
// record.Documents.
func ExtractSearchStrings(record entities.Record, defs []entities.CustomDocumentDefinition) SearchStrings {
	base := make([]string, 0, 9)
	add := func(v string) {
		if strings.TrimSpace(v) != "" {
			base = append(base, v)
		}
	}

	add(record.FirstName)
	add(record.LastName)
	add(record.DisplayName())
	add(record.Email)
	for _, p := range record.Phones() {
		add(p)
	}
	add(record.AccountID)
	add(record.ID)

	var dynamic []string
	if len(record.Documents) > 0 {
		for _, def := range defs {
			if value, ok := entities.DocumentString(record.Documents[def.ID]); ok {
				dynamic = append(dynamic, value)
			}
		}
	}

	return SearchStrings{Base: base, Dynamic: dynamic}
}

// ExtractPhoneDigitStrings returns every phone field as stored. Digits are
// stripped at match time.
func ExtractPhoneDigitStrings(record entities.Record) []string {
	return record.Phones()
}
