// Package report writes the row-level failures of an import to a file the
// uploader can open, fix and re-upload from. XLSX output goes through
// excelize, CSV through gocsv.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"hesed/masav-batch/internal/fielddict"
	"hesed/masav-batch/internal/models"
)

// WriteErrors writes the import errors to path, choosing the format from the
// extension: .xlsx gets a workbook, anything else a CSV.
func WriteErrors(result *models.ImportResult, path string) error {
	if len(result.Errors) == 0 {
		return fmt.Errorf("import has no errors to report")
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return writeXLSX(result, path)
	}
	return writeCSV(result, path)
}

// errorRow is the flat CSV form of one import error.
type errorRow struct {
	RowNumber int    `csv:"row_number"`
	Field     string `csv:"field"`
	Code      string `csv:"code"`
	Message   string `csv:"message"`
	RawData   string `csv:"raw_data"`
}

func writeCSV(result *models.ImportResult, path string) error {
	rows := make([]*errorRow, len(result.Errors))
	for i, e := range result.Errors {
		rows[i] = &errorRow{
			RowNumber: e.RowNumber,
			Field:     fielddict.DisplayName(e.Field),
			Code:      string(e.Code),
			Message:   e.Message,
			RawData:   flattenRawData(e.RawData),
		}
	}

	f, err := os.Create(path) // #nosec G304 -- operator-chosen report path
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	return nil
}

func writeXLSX(result *models.ImportResult, path string) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := f.GetSheetName(0)
	header := []interface{}{"Row", "Field", "Code", "Message", "Raw Data"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("error writing report header: %w", err)
	}

	for i, e := range result.Errors {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("error addressing report row: %w", err)
		}
		row := []interface{}{
			e.RowNumber,
			fielddict.DisplayName(e.Field),
			string(e.Code),
			e.Message,
			flattenRawData(e.RawData),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("error writing report row: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving report: %w", err)
	}
	return nil
}

// flattenRawData renders the extracted row values as a stable, readable
// single cell.
func flattenRawData(raw map[string]string) string {
	if len(raw) == 0 {
		return ""
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		if raw[k] != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, raw[k])
	}
	return strings.Join(parts, "; ")
}
