package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CaseRecord is one case row extracted from the spreadsheet, before
// persistence. ScriptExists is populated by MatchScripts.
type CaseRecord struct {
	Name              string
	Number            string
	Topology          string
	BusinessCategory  string
	AppName           string
	Steps             string
	ExpectedResult    string
	DependencyPackage string
	DependencyRule    string
	EnvConfig         string
	ScriptExists      bool
}

// Recognized header labels. Columns may appear in any order; the
// header row is data, not fixed positions. Matching is exact,
// unrecognized headers are ignored.
const (
	headerCaseName          = "case name"
	headerCaseNumber        = "case number"
	headerTopology          = "network topology" // legacy, optional
	headerBusinessCategory  = "business category"
	headerAppName           = "app name"
	headerSteps             = "test steps"
	headerExpectedResult    = "expected result"
	headerDependencyPackage = "dependency package"
	headerDependencyRule    = "dependency rule"
	headerEnvConfig         = "environment config"
)

// ExtractCases parses the first sheet of the workbook into case
// records. Row 0 maps header text to column index; every later row is
// read through that map. Fully blank rows are skipped, but rows with a
// blank case number are kept. Output order equals row order.
//
// Cell handling: numeric cells come back in their decimal string form
// and date-formatted numerics in their calendar form (the workbook's
// number format is applied); boolean cells yield "true"/"false";
// formula cells yield the formula text, not an evaluated value.
func ExtractCases(data []byte) ([]CaseRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableSpreadsheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrMissingHeaderRow
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableSpreadsheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrMissingHeaderRow
	}

	columns := make(map[string]int)
	for idx, label := range rows[0] {
		switch label {
		case headerCaseName, headerCaseNumber, headerTopology,
			headerBusinessCategory, headerAppName, headerSteps,
			headerExpectedResult, headerDependencyPackage,
			headerDependencyRule, headerEnvConfig:
			columns[label] = idx
		}
	}
	if len(columns) == 0 {
		return nil, ErrMissingHeaderRow
	}

	records := make([]CaseRecord, 0, len(rows)-1)
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		if blankRow(row) {
			continue
		}
		records = append(records, CaseRecord{
			Name:              cellValue(f, sheet, row, columns, headerCaseName, rowIdx),
			Number:            cellValue(f, sheet, row, columns, headerCaseNumber, rowIdx),
			Topology:          cellValue(f, sheet, row, columns, headerTopology, rowIdx),
			BusinessCategory:  cellValue(f, sheet, row, columns, headerBusinessCategory, rowIdx),
			AppName:           cellValue(f, sheet, row, columns, headerAppName, rowIdx),
			Steps:             cellValue(f, sheet, row, columns, headerSteps, rowIdx),
			ExpectedResult:    cellValue(f, sheet, row, columns, headerExpectedResult, rowIdx),
			DependencyPackage: cellValue(f, sheet, row, columns, headerDependencyPackage, rowIdx),
			DependencyRule:    cellValue(f, sheet, row, columns, headerDependencyRule, rowIdx),
			EnvConfig:         cellValue(f, sheet, row, columns, headerEnvConfig, rowIdx),
		})
	}
	return records, nil
}

// cellValue reads one mapped column of a row. A column absent from the
// header map or a cell past the end of the row yields "" rather than
// an error. Formula cells yield their formula text; boolean cells are
// normalized to lowercase.
func cellValue(f *excelize.File, sheet string, row []string, columns map[string]int, label string, rowIdx int) string {
	col, ok := columns[label]
	if !ok {
		return ""
	}

	axis, err := excelize.CoordinatesToCellName(col+1, rowIdx+1)
	if err == nil {
		if formula, err := f.GetCellFormula(sheet, axis); err == nil && formula != "" {
			return formula
		}
		if cellType, err := f.GetCellType(sheet, axis); err == nil && cellType == excelize.CellTypeBool {
			if col < len(row) {
				return strings.ToLower(row[col])
			}
		}
	}

	if col >= len(row) {
		return ""
	}
	return row[col]
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
