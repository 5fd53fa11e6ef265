package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/mkempf/beleg-tracker/internal/capture"
)

// fieldsPrompt asks the model for exactly the fields the record
// store keeps, in the same JSON shape the webhook contract uses.
const fieldsPrompt = `You are analyzing a receipt or invoice document. Carefully read all text in the image and extract the following information:

1. **Vendor**: the merchant, store or business name, usually the largest text or header at the top.

2. **Invoice number**: the invoice, receipt or transaction number if one is printed. Look for labels like "Rechnungsnummer", "Invoice No", "Beleg-Nr" or "Receipt #".

3. **Invoice date**: the transaction or invoice date, converted to ISO 8601 format (YYYY-MM-DD).

4. **Total amount**: the final total or amount due, usually at the bottom, labeled "TOTAL", "Summe", "Gesamtbetrag" or similar. Extract only the numeric value as a string with a decimal point (e.g. "42.75").

Return ONLY valid JSON in this exact format:
{
  "vendor": "...",
  "invoiceNumber": "...",
  "invoiceDate": "YYYY-MM-DD",
  "totalAmount": "0.00"
}

Important:
- The date must be in YYYY-MM-DD format
- If you cannot find a field, use an empty string for it
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// Gemini implements the Extractor interface using Google Gemini. It
// is an alternative to the webhook backend for installations without
// an automation workflow.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini extractor instance.
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Extract analyzes the receipt with Gemini. The webhook URL is
// ignored; failures are reported as NetworkError so the upload log
// treats them like any other backend failure.
func (g *Gemini) Extract(ctx context.Context, _ string, file File) (*Fields, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pngData, err := capture.ToPNG(file.Data, file.ContentType)
	if err != nil {
		return nil, err
	}

	parts := []genai.Part{
		genai.ImageData("png", pngData),
		genai.Text(fieldsPrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	fields, err := parseFieldsJSON(responseText.String())
	if err != nil {
		return nil, &ResponseFormatError{Err: err}
	}
	return fields, nil
}

// RequiresWebhook reports that Gemini works without a webhook URL.
func (g *Gemini) RequiresWebhook() bool {
	return false
}

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
