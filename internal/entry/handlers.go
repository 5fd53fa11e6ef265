package entry

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/mkempf/beleg-tracker/internal/export"
	"github.com/mkempf/beleg-tracker/internal/extract"
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// corsError writes a plain error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes an {"error": ...} body with the given status
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response body
func writeJSON(w http.ResponseWriter, code int, body any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// contentTypeFor falls back to the file extension when the upload
// carries no content type
func contentTypeFor(filename, declared string) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" {
		return contentType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleSubmitReceipt accepts a multipart upload and runs the
// submission pipeline
func (s *Server) handleSubmitReceipt(w http.ResponseWriter, r *http.Request) {
	// 50MB covers high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		jsonError(w, "File is too large. Maximum size is 50MB.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	file := extract.File{
		Name:        header.Filename,
		ContentType: contentTypeFor(header.Filename, header.Header.Get("Content-Type")),
		Data:        data,
	}

	entry, err := s.service.Submit(r.Context(), file)
	if err != nil {
		var configErr *extract.ConfigError
		if errors.As(err, &configErr) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// handleListEntries returns all stored records, most recent first
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListEntries()
	if err != nil {
		slog.Error("Error listing entries", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleUpdateEntry applies a user edit to a record
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Entry ID required", http.StatusBadRequest)
		return
	}

	var update EntryUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := s.service.UpdateEntry(id, update)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			jsonError(w, validationErr.Error(), http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, "Entry not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleDeleteEntry removes a single record
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Entry ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteEntry(id); err != nil {
		slog.Error("Error deleting entry", "error", err)
		corsError(w, "Error deleting entry", http.StatusInternalServerError)
		return
	}
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteAllEntries clears the record store
func (s *Server) handleDeleteAllEntries(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteAllEntries(); err != nil {
		slog.Error("Error clearing entries", "error", err)
		corsError(w, "Error clearing entries", http.StatusInternalServerError)
		return
	}
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// exportRows converts stored records for the export package
func exportRows(entries []*Entry) []export.Row {
	rows := make([]export.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, export.Row{
			Vendor:        e.Vendor,
			InvoiceNumber: e.InvoiceNumber,
			InvoiceDate:   e.InvoiceDate,
			TotalAmount:   e.TotalAmount,
		})
	}
	return rows
}

// handleExportCSV serves the record store as rechnungen.csv
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListEntries()
	if err != nil {
		slog.Error("Error listing entries for export", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.CSVFilename+`"`)
	if _, err := w.Write([]byte(export.CSV(exportRows(entries)))); err != nil {
		slog.Error("Error writing CSV export", "error", err)
	}
}

// handleExportXLSX serves the record store as rechnungen.xlsx
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListEntries()
	if err != nil {
		slog.Error("Error listing entries for export", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	workbook, err := export.XLSX(exportRows(entries))
	if err != nil {
		slog.Error("Error building XLSX export", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.XLSXFilename+`"`)
	if _, err := w.Write(workbook); err != nil {
		slog.Error("Error writing XLSX export", "error", err)
	}
}

// handleListUploads returns the upload log, most recent first
func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.UploadLog().Entries())
}

// handleRenameUpload changes the display name of an upload log entry
func (s *Server) handleRenameUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Upload ID required", http.StatusBadRequest)
		return
	}

	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// An empty name means the user cancelled the rename; that is a
	// no-op, not an error.
	s.service.UploadLog().Rename(id, req.DisplayName)
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveUpload removes an upload log entry
func (s *Server) handleRemoveUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Upload ID required", http.StatusBadRequest)
		return
	}
	s.service.UploadLog().Remove(id)
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleLastResult returns the most recently resolved entry
func (s *Server) handleLastResult(w http.ResponseWriter, r *http.Request) {
	last := s.service.LastResult()
	if last == nil {
		corsError(w, "No result yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, last)
}

// handleLastResultPreview serves the preview JPEG of the last result
func (s *Server) handleLastResultPreview(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.PreviewImage()
	if err != nil {
		slog.Error("Error reading preview", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		corsError(w, "No preview available", http.StatusNotFound)
		return
	}
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

// handleStatus reports whether a submission is in flight
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"busy": s.service.Busy()})
}

// handleGetSettings returns the persisted configuration
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.service.Settings()
	if err != nil {
		slog.Error("Error loading settings", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handlePutSettings validates and persists the configuration
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.service.UpdateSettings(settings); err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			jsonError(w, validationErr.Error(), http.StatusUnprocessableEntity)
			return
		}
		slog.Error("Error saving settings", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	settings, err := s.service.Settings()
	if err != nil {
		slog.Error("Error reloading settings", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
