// Package extract turns a captured receipt file into structured
// invoice fields. The primary backend forwards the file to a
// user-configured automation webhook; a Gemini backend is available
// as an alternative.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
)

// File is one captured receipt image or PDF.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file size in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Fields contains the extracted invoice data. Absent fields default
// to the empty string, and the amount to "0", so callers never see
// partially missing records.
type Fields struct {
	Vendor        string
	InvoiceNumber string
	InvoiceDate   string // ISO date, empty when unknown
	TotalAmount   string
}

// Extractor defines the interface for field extraction backends.
// Backends that do not call the webhook ignore webhookURL.
type Extractor interface {
	// Extract analyzes a receipt file and returns its invoice fields
	Extract(ctx context.Context, webhookURL string, file File) (*Fields, error)
	// RequiresWebhook reports whether the backend needs a configured
	// webhook URL before a submission may start
	RequiresWebhook() bool
	// Close releases backend resources
	Close() error
}

// flexString unmarshals a JSON string, number, bool or null into a
// string. The webhook payload is an untyped external contract, so
// the amount in particular arrives as either a string or a number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// payload is the wire shape of an extraction response.
type payload struct {
	Vendor        flexString `json:"vendor"`
	InvoiceNumber flexString `json:"invoiceNumber"`
	InvoiceDate   flexString `json:"invoiceDate"`
	TotalAmount   flexString `json:"totalAmount"`
}

// fields coerces the raw payload into Fields, applying defaults for
// absent values.
func (p payload) fields() *Fields {
	f := &Fields{
		Vendor:        string(p.Vendor),
		InvoiceNumber: string(p.InvoiceNumber),
		InvoiceDate:   string(p.InvoiceDate),
		TotalAmount:   string(p.TotalAmount),
	}
	if f.TotalAmount == "" {
		f.TotalAmount = "0"
	}
	return f
}
