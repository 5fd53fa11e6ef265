package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXFilename is the download name of the workbook export.
const XLSXFilename = "rechnungen.xlsx"

const sheetName = "Rechnungen"

// XLSX renders the rows as a single-sheet workbook with the same
// columns as the CSV export.
func XLSX(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}

	header := make([]interface{}, len(headerRow))
	for i, cell := range headerRow {
		header[i] = cell
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header row: %w", err)
	}

	for i, row := range rows {
		cells := row.cells()
		values := make([]interface{}, len(cells))
		for j, cell := range cells {
			values[j] = cell
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("computing cell name: %w", err)
		}
		if err := f.SetSheetRow(sheetName, axis, &values); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
