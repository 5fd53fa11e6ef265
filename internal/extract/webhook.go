package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/mkempf/beleg-tracker/internal/format"
)

// Webhook implements the Extractor interface by forwarding the file
// to the user-configured automation webhook and interpreting its
// JSON reply.
type Webhook struct {
	client *http.Client
}

// NewWebhook creates a new Webhook extractor.
func NewWebhook() *Webhook {
	return &Webhook{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildBody assembles the multipart request body: the file itself
// under the "file" field plus the redundant metadata fields the
// workflow side reads without touching the binary part.
func buildBody(file File) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("writing file part: %w", err)
	}

	fields := map[string]string{
		"fileName":         file.Name,
		"mimeType":         contentType,
		"fileSize":         strconv.FormatInt(file.Size(), 10),
		"fileSizeReadable": format.FileSize(file.Size()),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("writing %s field: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// Extract posts the file to the webhook and parses the reply into
// Fields. Transport failures, non-2xx statuses, empty bodies and
// unparseable bodies each map to their own error type so the caller
// can log them distinctly.
func (w *Webhook) Extract(ctx context.Context, webhookURL string, file File) (*Fields, error) {
	if webhookURL == "" {
		return nil, &ConfigError{Reason: "no webhook configured"}
	}

	body, contentType, err := buildBody(file)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	var p payload
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &ResponseFormatError{Err: err}
		}
		return p.fields(), nil
	}

	// Some workflow tools reply with text/plain even when the body
	// holds JSON, so a non-JSON content type falls back to parsing
	// the text.
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, &ResponseFormatError{Err: err}
	}
	return p.fields(), nil
}

// RequiresWebhook reports that this backend cannot run without a
// configured URL.
func (w *Webhook) RequiresWebhook() bool {
	return true
}

// Close closes the extractor (no-op for the HTTP client).
func (w *Webhook) Close() error {
	return nil
}
