package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// parseFieldsJSON parses a model response into Fields. Model output
// often wraps the JSON in markdown fences or prose, so the object is
// cut out of the surrounding text first.
func parseFieldsJSON(text string) (*Fields, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var p payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	fields := p.fields()
	fields.Vendor = strings.TrimSpace(fields.Vendor)
	fields.InvoiceNumber = strings.TrimSpace(fields.InvoiceNumber)
	fields.InvoiceDate = normalizeDate(strings.TrimSpace(fields.InvoiceDate))
	fields.TotalAmount = strings.TrimSpace(fields.TotalAmount)
	if fields.TotalAmount == "" {
		fields.TotalAmount = "0"
	}
	return fields, nil
}

// normalizeDate coerces common date renderings into ISO form. A date
// that matches nothing stays empty rather than guessing.
func normalizeDate(date string) string {
	if date == "" {
		return ""
	}
	if d, err := time.Parse("2006-01-02", date); err == nil {
		return d.Format("2006-01-02")
	}
	formats := []string{
		"2006/01/02",
		"02.01.2006",
		"01/02/2006",
		"02-01-2006",
	}
	for _, format := range formats {
		if d, err := time.Parse(format, date); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}
