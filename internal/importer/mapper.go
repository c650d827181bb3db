// Package importer drives the bulk import pipeline: column mapping, row
// normalization, row validation, duplicate rejection and the commit of
// validated transfers to the repository.
package importer

import (
	"hesed/masav-batch/internal/fielddict"
	"hesed/masav-batch/internal/models"
)

// DetectMapping infers a column mapping from the header row using the alias
// dictionary. Each header cell is matched independently; when two columns
// denote the same field the later column wins. The result may be partial;
// ValidateMapping decides whether it is usable.
func DetectMapping(headers []string, dict *fielddict.Dictionary) models.ColumnMapping {
	mapping := models.ColumnMapping{}
	for index, header := range headers {
		if field, ok := dict.Match(header); ok {
			mapping[field] = index
		}
	}
	return mapping
}

// ValidateMapping checks that every required field is mapped and returns the
// missing canonical field names. A mapping with missing required fields must
// abort the import; there is no guessing beyond alias matching.
func ValidateMapping(mapping models.ColumnMapping) (valid bool, missing []models.CanonicalField) {
	missing = mapping.MissingRequired()
	return len(missing) == 0, missing
}
