// Package export renders stored receipt records as downloadable
// files.
package export

import (
	"strings"

	"github.com/mkempf/beleg-tracker/internal/format"
)

// CSVFilename is the download name of the CSV export.
const CSVFilename = "rechnungen.csv"

// headerRow holds the German column captions shared by all exports.
var headerRow = []string{"Lieferant", "Rechnungsnummer", "Datum", "Betrag"}

// Row is one receipt record prepared for export.
type Row struct {
	Vendor        string
	InvoiceNumber string
	InvoiceDate   string // ISO date
	TotalAmount   string
}

// cells renders the row for a German-facing spreadsheet: date as
// DD.MM.YYYY, amount with a comma decimal separator.
func (r Row) cells() []string {
	return []string{
		r.Vendor,
		r.InvoiceNumber,
		format.Date(r.InvoiceDate),
		strings.ReplaceAll(r.TotalAmount, ".", ","),
	}
}

// quote wraps a cell in double quotes, doubling any quotes inside.
// Quoting is unconditional so the output survives vendors with
// semicolons or line breaks in their names.
func quote(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

// CSV renders the rows as semicolon-delimited text with a header
// row, in input order.
func CSV(rows []Row) string {
	lines := make([]string, 0, len(rows)+1)

	header := make([]string, len(headerRow))
	for i, cell := range headerRow {
		header[i] = quote(cell)
	}
	lines = append(lines, strings.Join(header, ";"))

	for _, row := range rows {
		cells := row.cells()
		for i, cell := range cells {
			cells[i] = quote(cell)
		}
		lines = append(lines, strings.Join(cells, ";"))
	}

	return strings.Join(lines, "\n")
}
