package fields

import (
	"reflect"
	"testing"

	"crm_search_backend/internal/entities"
)

func TestExtractSearchStrings(t *testing.T) {
	record := entities.Record{
		ID:                   "c-7",
		FirstName:            "Jane",
		LastName:             "Doe",
		Email:                "jane@x.com",
		PhoneNumber:          "+1 (555) 123-4567",
		AlternatePhoneNumber: "06 12345678",
		AccountID:            "ACC-1",
		Documents: map[string]any{
			"passport": "NL123",
			"vip":      true,
			"notes":    "",
			"ignored":  nil,
			"secret":   "not in definitions",
		},
	}
	defs := []entities.CustomDocumentDefinition{
		{ID: "vip", Name: "VIP"},
		{ID: "passport", Name: "Passport"},
		{ID: "notes", Name: "Notes"},
		{ID: "ignored", Name: "Ignored"},
		{ID: "missing", Name: "Missing"},
	}

	got := ExtractSearchStrings(record, defs)

	wantBase := []string{"Jane", "Doe", "Jane Doe", "jane@x.com", "+1 (555) 123-4567", "06 12345678", "ACC-1", "c-7"}
	if !reflect.DeepEqual(got.Base, wantBase) {
		t.Fatalf("base = %#v, want %#v", got.Base, wantBase)
	}
	wantDynamic := []string{"true", "NL123"}
	if !reflect.DeepEqual(got.Dynamic, wantDynamic) {
		t.Fatalf("dynamic = %#v, want %#v", got.Dynamic, wantDynamic)
	}
}

func TestExtractSearchStringsToleratesEmptyRecord(t *testing.T) {
	got := ExtractSearchStrings(entities.Record{ID: "x"}, nil)
	if !reflect.DeepEqual(got.Base, []string{"x"}) || len(got.Dynamic) != 0 {
		t.Fatalf("unexpected strings: %+v", got)
	}
}

func TestExtractPhoneDigitStrings(t *testing.T) {
	record := entities.Record{PhoneNumber: "+31 6 1234", SecondaryPhoneNumber: "020-555"}
	got := ExtractPhoneDigitStrings(record)
	if !reflect.DeepEqual(got, []string{"+31 6 1234", "020-555"}) {
		t.Fatalf("phones = %#v", got)
	}
}
