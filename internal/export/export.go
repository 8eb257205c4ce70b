// Package export renders a batch of case results to the spreadsheet
// format served by POST /export, per spec.md §6/§9. The source's
// in-browser export UI is replaced entirely: this package only builds
// bytes, the caller (the export handler) sets the Content-Disposition
// filename and writes the response.
package export

import (
	"bytes"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nexconsult/zipcase/internal/models"
)

const sheetName = "Cases"

var header = []string{"Case Number", "Status", "Case Name", "Court", "Charges", "Message"}

// Generate renders results to an .xlsx workbook, one row per case,
// ordered by case number for reproducible output. notFound cases are
// excluded, mirroring the source's exportable-count policy that
// spec.md §9 leaves to this collaborator to decide.
func Generate(results map[models.CaseNumber]models.SearchResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	for col, title := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return nil, err
		}
	}
	if err := f.SetRowStyle(sheetName, 1, 1, headerStyle); err != nil {
		return nil, err
	}

	row := 2
	for _, caseNumber := range sortedCaseNumbers(results) {
		result := results[caseNumber]
		if result.ZipCase.FetchStatus.Tag == models.StatusNotFound {
			continue
		}
		if err := writeRow(f, row, result); err != nil {
			return nil, err
		}
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, result models.SearchResult) error {
	values := []interface{}{
		string(result.ZipCase.CaseNumber),
		string(result.ZipCase.FetchStatus.Tag),
		"",
		"",
		"",
		result.ZipCase.FetchStatus.Message,
	}
	if result.CaseSummary != nil {
		values[2] = result.CaseSummary.CaseName
		values[3] = result.CaseSummary.Court
		values[4] = chargesSummary(result.CaseSummary.Charges)
	}
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func chargesSummary(charges []models.Charge) string {
	descriptions := make([]string, 0, len(charges))
	for _, charge := range charges {
		descriptions = append(descriptions, charge.Description)
	}
	return strings.Join(descriptions, "; ")
}

func sortedCaseNumbers(results map[models.CaseNumber]models.SearchResult) []models.CaseNumber {
	caseNumbers := make([]models.CaseNumber, 0, len(results))
	for caseNumber := range results {
		caseNumbers = append(caseNumbers, caseNumber)
	}
	sort.Slice(caseNumbers, func(i, j int) bool { return caseNumbers[i] < caseNumbers[j] })
	return caseNumbers
}
