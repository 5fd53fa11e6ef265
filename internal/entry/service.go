package entry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mkempf/beleg-tracker/internal/capture"
	"github.com/mkempf/beleg-tracker/internal/extract"
	"github.com/mkempf/beleg-tracker/internal/format"
)

// IDGenerator generates synthetic upload log ids
type IDGenerator interface {
	Generate(filename string) string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator derives log ids from the wall clock and the
// uploaded filename
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate(filename string) string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filename)
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service owns the record store, the upload log and the submission
// pipeline. Submissions run independently when issued concurrently;
// each one updates the shared state when it resolves, so completion
// order decides store order and the last-result display.
type Service struct {
	db          DB
	extractor   extract.Extractor
	uploadLog   *UploadLog
	preview     *Preview
	idGenerator IDGenerator
	timeSource  TimeSource

	busy atomic.Int64

	lastMu     sync.Mutex
	lastResult *Entry
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, extractor extract.Extractor, uploadLog *UploadLog, preview *Preview) *Service {
	return NewServiceWithDeps(db, extractor, uploadLog, preview,
		&defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor extract.Extractor, uploadLog *UploadLog, preview *Preview, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		uploadLog:   uploadLog,
		preview:     preview,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Busy reports whether any submission is in flight.
func (s *Service) Busy() bool {
	return s.busy.Load() > 0
}

// UploadLog exposes the recent-activity list.
func (s *Service) UploadLog() *UploadLog {
	return s.uploadLog
}

// LastResult returns the entry of the most recently resolved
// successful submission, or nil.
func (s *Service) LastResult() *Entry {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.lastResult
}

// PreviewImage returns the preview JPEG of the last result, or nil
// when none is held.
func (s *Service) PreviewImage() ([]byte, error) {
	_, data, err := s.preview.Current()
	return data, err
}

// Submit runs the submission pipeline for one captured file: a
// pending upload log entry, the extraction call, and on success a
// new record at the front of the store plus the last-result swap.
// Failures mark the log entry instead and leave the store untouched.
func (s *Service) Submit(ctx context.Context, file extract.File) (*Entry, error) {
	settings, err := s.db.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	// The config precondition fails before any log entry exists.
	if s.extractor.RequiresWebhook() && settings.WebhookURL == "" {
		return nil, &extract.ConfigError{Reason: "no webhook configured"}
	}

	s.busy.Add(1)
	defer s.busy.Add(-1)

	meta := fmt.Sprintf("%s, %s", file.ContentType, format.FileSize(file.Size()))
	logID := s.idGenerator.Generate(file.Name)
	s.uploadLog.Upsert(UploadLogEntry{
		ID:        logID,
		FileName:  file.Name,
		Status:    StatusPending,
		Timestamp: s.timeSource.Now().Format(time.RFC3339),
		Message:   meta,
	})

	fields, err := s.extractor.Extract(ctx, settings.WebhookURL, file)
	if err != nil {
		slog.Error("Submission failed",
			"filename", file.Name,
			"content_type", file.ContentType,
			"file_size", file.Size(),
			"error", err,
		)
		s.uploadLog.Upsert(UploadLogEntry{
			ID:      logID,
			Status:  StatusError,
			Message: fmt.Sprintf("%v (%s)", err, meta),
		})
		return nil, err
	}

	entry := &Entry{
		Vendor:        fields.Vendor,
		InvoiceNumber: fields.InvoiceNumber,
		InvoiceDate:   fields.InvoiceDate,
		TotalAmount:   fields.TotalAmount,
		ImageName:     file.Name,
		CapturedAt:    s.timeSource.Now().Format(CaptureKeyLayout),
	}

	if err := s.db.SaveEntry(entry); err != nil {
		s.uploadLog.Upsert(UploadLogEntry{
			ID:      logID,
			Status:  StatusError,
			Message: fmt.Sprintf("saving entry: %v (%s)", err, meta),
		})
		return nil, fmt.Errorf("saving entry: %w", err)
	}

	s.replaceLastResult(logID, entry, file)

	s.uploadLog.Upsert(UploadLogEntry{ID: logID, Status: StatusSuccess})
	return entry, nil
}

// replaceLastResult swaps the last-result reference and its preview
// image. Preview encoding is best effort; a file the decoder cannot
// handle keeps the record but drops the preview.
func (s *Service) replaceLastResult(logID string, entry *Entry, file extract.File) {
	s.lastMu.Lock()
	s.lastResult = entry
	s.lastMu.Unlock()

	previewData, err := capture.JPEGPreview(file.Data, file.ContentType)
	if err != nil {
		slog.Warn("No preview for upload", "filename", file.Name, "error", err)
		if err := s.preview.Release(); err != nil {
			slog.Warn("Failed to release preview", "error", err)
		}
		return
	}
	if _, err := s.preview.Replace(logID+".jpg", previewData); err != nil {
		slog.Warn("Failed to store preview", "filename", file.Name, "error", err)
	}
}

// ListEntries returns all stored records, most recent first.
func (s *Service) ListEntries() ([]*Entry, error) {
	entries, err := s.db.ListEntries()
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// EntryUpdate carries a partial edit of a record. Nil fields stay
// unchanged. InvoiceDate accepts DD.MM.YYYY display form, an ISO
// date, or the empty string to clear the date.
type EntryUpdate struct {
	Vendor        *string `json:"vendor"`
	InvoiceNumber *string `json:"invoice_number"`
	InvoiceDate   *string `json:"invoice_date"`
	TotalAmount   *string `json:"total_amount"`
}

// UpdateEntry applies a user edit to a stored record. CapturedAt and
// ImageName are immutable.
func (s *Service) UpdateEntry(capturedAt string, update EntryUpdate) (*Entry, error) {
	entry, err := s.db.GetEntry(capturedAt)
	if err != nil {
		return nil, fmt.Errorf("getting entry: %w", err)
	}

	if update.InvoiceDate != nil {
		iso, err := normalizeEditedDate(*update.InvoiceDate)
		if err != nil {
			return nil, err
		}
		entry.InvoiceDate = iso
	}
	if update.Vendor != nil {
		entry.Vendor = *update.Vendor
	}
	if update.InvoiceNumber != nil {
		entry.InvoiceNumber = *update.InvoiceNumber
	}
	if update.TotalAmount != nil {
		entry.TotalAmount = *update.TotalAmount
	}

	if err := s.db.SaveEntry(entry); err != nil {
		return nil, fmt.Errorf("saving entry: %w", err)
	}
	return entry, nil
}

// normalizeEditedDate validates a user-edited date field. Empty
// input clears the date; anything else must parse as a German
// display date or an ISO date.
func normalizeEditedDate(input string) (string, error) {
	if input == "" {
		return "", nil
	}
	if iso, ok := format.ParseGermanDate(input); ok {
		return iso, nil
	}
	if d, err := time.Parse("2006-01-02", input); err == nil {
		return d.Format("2006-01-02"), nil
	}
	return "", &ValidationError{Field: "invoice_date", Reason: "enter date as DD.MM.YYYY"}
}

// DeleteEntry removes one record.
func (s *Service) DeleteEntry(capturedAt string) error {
	if err := s.db.DeleteEntry(capturedAt); err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	return nil
}

// DeleteAllEntries clears the record store.
func (s *Service) DeleteAllEntries() error {
	if err := s.db.DeleteAllEntries(); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	return nil
}

// Settings returns the persisted configuration.
func (s *Service) Settings() (Settings, error) {
	return s.db.LoadSettings()
}

// UpdateSettings validates and persists the configuration. The
// webhook URL may be empty (submissions then fail their
// precondition); a non-empty URL must be absolute HTTP or HTTPS.
func (s *Service) UpdateSettings(settings Settings) error {
	if settings.WebhookURL != "" && !ValidateWebhookURL(settings.WebhookURL) {
		return &ValidationError{Field: "webhook_url", Reason: "enter an http(s) URL"}
	}
	if settings.Theme == "" {
		settings.Theme = ThemeDark
	}
	if !ValidateTheme(settings.Theme) {
		return &ValidationError{Field: "theme", Reason: "theme must be dark or light"}
	}
	if err := s.db.SaveSettings(settings); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// Close releases the held preview resource.
func (s *Service) Close() error {
	return s.preview.Release()
}
