// Package spreadsheet reads uploaded workbooks into a header row plus raw
// data rows. Only the first worksheet is consulted; rows with no populated
// cell are dropped before they reach the import pipeline.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is the raw content of an uploaded spreadsheet: the header row and
// the data rows in order. Cell values are strings exactly as the file
// carries them, trimmed.
type Sheet struct {
	Headers []string
	Rows    [][]string
}

// Read parses spreadsheet bytes. XLSX workbooks are detected by magic
// bytes; anything else is treated as CSV with the given delimiter.
func Read(data []byte, delimiter rune) (*Sheet, error) {
	if isXLSX(data) {
		return readXLSX(data)
	}
	return readCSV(data, delimiter)
}

// isXLSX checks for the ZIP (PK) header that every .xlsx file starts with.
func isXLSX(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == 0x50 && data[1] == 0x4B && data[2] == 0x03 && data[3] == 0x04
}

func readXLSX(data []byte) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheets found in workbook")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet %q is empty", sheetName)
	}

	return buildSheet(rows[0], rows[1:]), nil
}

func readCSV(data []byte, delimiter rune) (*Sheet, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1 // uploads often have ragged rows
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		rows = append(rows, row)
	}

	return buildSheet(header, rows), nil
}

// buildSheet trims every cell and drops rows with no populated cell.
func buildSheet(header []string, raw [][]string) *Sheet {
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for _, row := range raw {
		trimmed := make([]string, len(row))
		populated := false
		for i, cell := range row {
			trimmed[i] = strings.TrimSpace(cell)
			if trimmed[i] != "" {
				populated = true
			}
		}
		if populated {
			rows = append(rows, trimmed)
		}
	}

	return &Sheet{Headers: headers, Rows: rows}
}

// Cell returns the value at the given column of a row, or "" when the row
// is shorter than the requested index.
func Cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}
