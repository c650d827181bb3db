// Package fielddict holds the alias tables that map human-language
// spreadsheet headers to canonical transfer fields. Header inference never
// goes beyond these tables: a column that matches no alias stays unmapped.
package fielddict

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"hesed/masav-batch/internal/models"
)

// defaultAliases covers the header spellings seen in real upload files,
// Hebrew and English. Matching is case-insensitive substring.
var defaultAliases = map[models.CanonicalField][]string{
	models.FieldRecipientName: {"שם", "name", "recipient", "שם מקבל"},
	models.FieldIDNumber:      {"זהות", "id", "id_number", "ת.ז", "תעודת זהות"},
	models.FieldAmount:        {"סכום", "amount", "sum"},
	models.FieldBankCode:      {"בנק", "bank", "bank_code", "מספר בנק"},
	models.FieldBranchCode:    {"סניף", "branch", "branch_code", "מספר סניף"},
	models.FieldAccountNumber: {"חשבון", "account", "account_number", "מספר חשבון"},
}

// displayNames are the human-readable field labels used in error reports.
// The Hebrew label matches what the upload files themselves use.
var displayNames = map[models.CanonicalField]string{
	models.FieldRecipientName: "שם מקבל",
	models.FieldIDNumber:      "תעודת זהות",
	models.FieldAmount:        "סכום",
	models.FieldBankCode:      "קוד בנק",
	models.FieldBranchCode:    "קוד סניף",
	models.FieldAccountNumber: "מספר חשבון",
}

// Dictionary resolves header strings to canonical fields.
type Dictionary struct {
	aliases map[models.CanonicalField][]string
}

// New returns a Dictionary with the built-in alias tables.
func New() *Dictionary {
	aliases := make(map[models.CanonicalField][]string, len(defaultAliases))
	for field, list := range defaultAliases {
		aliases[field] = append([]string(nil), list...)
	}
	return &Dictionary{aliases: aliases}
}

// NewFromFile returns a Dictionary extended with aliases loaded from a YAML
// file of the form `canonical_field: [alias, alias, ...]`. Unknown canonical
// field names are an error so typos do not silently drop aliases.
func NewFromFile(path string) (*Dictionary, error) {
	d := New()

	data, err := os.ReadFile(path) // #nosec G304 -- operator-provided alias file
	if err != nil {
		return nil, fmt.Errorf("error reading alias file: %w", err)
	}

	var extra map[string][]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("error parsing alias file: %w", err)
	}

	for name, list := range extra {
		field := models.CanonicalField(name)
		if _, ok := d.aliases[field]; !ok {
			return nil, fmt.Errorf("unknown canonical field in alias file: %q", name)
		}
		d.aliases[field] = append(d.aliases[field], list...)
	}

	return d, nil
}

// Match returns the canonical field a header cell denotes, if any. The
// header is lowercased and trimmed, then tested for containing any alias.
func (d *Dictionary) Match(header string) (models.CanonicalField, bool) {
	normalized := strings.ToLower(strings.TrimSpace(header))
	if normalized == "" {
		return "", false
	}
	// Fixed field order so overlapping aliases resolve deterministically.
	for _, field := range fieldOrder {
		for _, alias := range d.aliases[field] {
			if strings.Contains(normalized, strings.ToLower(alias)) {
				return field, true
			}
		}
	}
	return "", false
}

// fieldOrder fixes the priority of alias matching. id_number is tested
// before bank/branch/account because Hebrew headers like "תעודת זהות" must
// not be claimed by a shorter alias of another field.
var fieldOrder = []models.CanonicalField{
	models.FieldRecipientName,
	models.FieldIDNumber,
	models.FieldAmount,
	models.FieldBankCode,
	models.FieldBranchCode,
	models.FieldAccountNumber,
}

// DisplayName returns the human-readable label of a canonical field for use
// in error reports. Unknown fields are returned as-is.
func DisplayName(field string) string {
	if name, ok := displayNames[models.CanonicalField(field)]; ok {
		return name
	}
	return field
}
