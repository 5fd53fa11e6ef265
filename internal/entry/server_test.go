package entry

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mkempf/beleg-tracker/internal/extract"
)

// multipartBody builds a request body with a single file field
func multipartBody(fieldName, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="` + fieldName + `"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write(data)
	Expect(err).NotTo(HaveOccurred())
	Expect(writer.Close()).To(Succeed())
	return body, writer.FormDataContentType()
}

var _ = ginkgo.Describe("Server", func() {
	var (
		db        *mockDB
		extractor *mockExtractor
		uploadLog *UploadLog
		service   *Service
		server    *Server
		recorder  *httptest.ResponseRecorder
	)

	ginkgo.BeforeEach(func() {
		db = newMockDB()
		db.settings = Settings{WebhookURL: "https://flows.example.com/hook", Theme: ThemeDark}
		extractor = &mockExtractor{
			requiresWebhook: true,
			fields: &extract.Fields{
				Vendor:        "ACME",
				InvoiceNumber: "INV-1",
				InvoiceDate:   "2024-03-01",
				TotalAmount:   "19.99",
			},
		}
		clock := &fixedTimeSource{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
		uploadLog = NewUploadLogWithClock(clock)
		storage, err := NewLocalStorage(ginkgo.GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		service = NewServiceWithDeps(db, extractor, uploadLog, NewPreview(storage),
			&fixedIDGenerator{}, clock)
		server = NewServer(service, BasicAuth{})
		recorder = httptest.NewRecorder()
	})

	ginkgo.Describe("POST /api/receipts", func() {
		ginkgo.It("submits the uploaded file and returns the new entry", func() {
			body, contentType := multipartBody("file", "receipt.jpg", "image/jpeg", []byte("jpeg bytes"))
			req := httptest.NewRequest("POST", "/api/receipts", body)
			req.Header.Set("Content-Type", contentType)

			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusCreated))
			var entry Entry
			Expect(json.Unmarshal(recorder.Body.Bytes(), &entry)).To(Succeed())
			Expect(entry.Vendor).To(Equal("ACME"))
			Expect(entry.ImageName).To(Equal("receipt.jpg"))
		})

		ginkgo.It("rejects a request without a file", func() {
			body, contentType := multipartBody("other", "receipt.jpg", "image/jpeg", []byte("x"))
			req := httptest.NewRequest("POST", "/api/receipts", body)
			req.Header.Set("Content-Type", contentType)

			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(recorder.Body.String()).To(ContainSubstring("No file provided"))
		})

		ginkgo.It("returns 400 when no webhook is configured", func() {
			db.settings.WebhookURL = ""
			body, contentType := multipartBody("file", "receipt.jpg", "image/jpeg", []byte("x"))
			req := httptest.NewRequest("POST", "/api/receipts", body)
			req.Header.Set("Content-Type", contentType)

			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(recorder.Body.String()).To(ContainSubstring("no webhook configured"))
		})

		ginkgo.It("returns 502 when the webhook fails", func() {
			extractor.extractErr = &extract.HTTPStatusError{Status: 500}
			body, contentType := multipartBody("file", "receipt.jpg", "image/jpeg", []byte("x"))
			req := httptest.NewRequest("POST", "/api/receipts", body)
			req.Header.Set("Content-Type", contentType)

			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusBadGateway))
			Expect(recorder.Body.String()).To(ContainSubstring("500"))
		})

		ginkgo.It("falls back to the file extension for the content type", func() {
			body, contentType := multipartBody("file", "receipt.pdf", "", []byte("pdf bytes"))
			req := httptest.NewRequest("POST", "/api/receipts", body)
			req.Header.Set("Content-Type", contentType)

			server.ServeHTTP(recorder, req)

			Expect(extractor.gotFile.ContentType).To(Equal("application/pdf"))
		})
	})

	ginkgo.Describe("GET /api/entries", func() {
		ginkgo.It("returns the stored entries", func() {
			Expect(db.SaveEntry(&Entry{Vendor: "ACME", CapturedAt: "2024-03-01T10:00:00.000000000Z"})).To(Succeed())

			req := httptest.NewRequest("GET", "/api/entries", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var entries []Entry
			Expect(json.Unmarshal(recorder.Body.Bytes(), &entries)).To(Succeed())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Vendor).To(Equal("ACME"))
		})
	})

	ginkgo.Describe("PATCH /api/entries/{id}", func() {
		ginkgo.BeforeEach(func() {
			Expect(db.SaveEntry(&Entry{
				Vendor:     "ACME",
				CapturedAt: "2024-03-01T10:00:00.000000000Z",
			})).To(Succeed())
		})

		ginkgo.It("applies the edit", func() {
			req := httptest.NewRequest("PATCH", "/api/entries/2024-03-01T10:00:00.000000000Z",
				strings.NewReader(`{"vendor": "Edited GmbH"}`))
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var entry Entry
			Expect(json.Unmarshal(recorder.Body.Bytes(), &entry)).To(Succeed())
			Expect(entry.Vendor).To(Equal("Edited GmbH"))
		})

		ginkgo.It("rejects a bad date with 422", func() {
			req := httptest.NewRequest("PATCH", "/api/entries/2024-03-01T10:00:00.000000000Z",
				strings.NewReader(`{"invoice_date": "31.02.2024"}`))
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusUnprocessableEntity))
			Expect(recorder.Body.String()).To(ContainSubstring("DD.MM.YYYY"))
		})

		ginkgo.It("returns 404 for an unknown entry", func() {
			req := httptest.NewRequest("PATCH", "/api/entries/missing",
				strings.NewReader(`{"vendor": "x"}`))
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})
	})

	ginkgo.Describe("DELETE /api/entries", func() {
		ginkgo.BeforeEach(func() {
			Expect(db.SaveEntry(&Entry{CapturedAt: "2024-03-01T10:00:00.000000000Z"})).To(Succeed())
			Expect(db.SaveEntry(&Entry{CapturedAt: "2024-03-01T11:00:00.000000000Z"})).To(Succeed())
		})

		ginkgo.It("deletes a single entry", func() {
			req := httptest.NewRequest("DELETE", "/api/entries/2024-03-01T10:00:00.000000000Z", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			Expect(db.entries).To(HaveLen(1))
		})

		ginkgo.It("deletes all entries", func() {
			req := httptest.NewRequest("DELETE", "/api/entries", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			Expect(db.entries).To(BeEmpty())
		})
	})

	ginkgo.Describe("GET /api/entries/export.csv", func() {
		ginkgo.It("serves the CSV download", func() {
			Expect(db.SaveEntry(&Entry{
				Vendor:      "ACME",
				InvoiceDate: "2024-03-01",
				TotalAmount: "19.99",
				CapturedAt:  "2024-03-01T10:00:00.000000000Z",
			})).To(Succeed())

			req := httptest.NewRequest("GET", "/api/entries/export.csv", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Header().Get("Content-Disposition")).To(ContainSubstring("rechnungen.csv"))
			Expect(recorder.Body.String()).To(ContainSubstring(`"Lieferant";"Rechnungsnummer";"Datum";"Betrag"`))
			Expect(recorder.Body.String()).To(ContainSubstring(`"ACME";"";"01.03.2024";"19,99"`))
		})
	})

	ginkgo.Describe("GET /api/entries/export.xlsx", func() {
		ginkgo.It("serves the workbook download", func() {
			req := httptest.NewRequest("GET", "/api/entries/export.xlsx", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Header().Get("Content-Disposition")).To(ContainSubstring("rechnungen.xlsx"))
			Expect(recorder.Body.Len()).NotTo(BeZero())
		})
	})

	ginkgo.Describe("upload log endpoints", func() {
		ginkgo.BeforeEach(func() {
			uploadLog.Upsert(UploadLogEntry{ID: "u1", FileName: "a.jpg"})
		})

		ginkgo.It("lists the upload log", func() {
			req := httptest.NewRequest("GET", "/api/uploads", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var entries []UploadLogEntry
			Expect(json.Unmarshal(recorder.Body.Bytes(), &entries)).To(Succeed())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].ID).To(Equal("u1"))
		})

		ginkgo.It("renames an upload log entry", func() {
			req := httptest.NewRequest("POST", "/api/uploads/u1/rename",
				strings.NewReader(`{"display_name": "March receipt"}`))
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			Expect(uploadLog.Entries()[0].DisplayName).To(Equal("March receipt"))
		})

		ginkgo.It("treats an empty rename as a cancelled prompt", func() {
			req := httptest.NewRequest("POST", "/api/uploads/u1/rename",
				strings.NewReader(`{"display_name": ""}`))
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			Expect(uploadLog.Entries()[0].DisplayName).To(Equal("a.jpg"))
		})

		ginkgo.It("removes an upload log entry", func() {
			req := httptest.NewRequest("DELETE", "/api/uploads/u1", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			Expect(uploadLog.Entries()).To(BeEmpty())
		})
	})

	ginkgo.Describe("settings endpoints", func() {
		ginkgo.It("returns the persisted settings", func() {
			req := httptest.NewRequest("GET", "/api/settings", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var settings Settings
			Expect(json.Unmarshal(recorder.Body.Bytes(), &settings)).To(Succeed())
			Expect(settings.WebhookURL).To(Equal("https://flows.example.com/hook"))
		})

		ginkgo.It("saves valid settings", func() {
			req := httptest.NewRequest("PUT", "/api/settings",
				strings.NewReader(`{"webhook_url": "https://x.com/hook", "theme": "light"}`))
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(db.settings.Theme).To(Equal(ThemeLight))
		})

		ginkgo.It("rejects an invalid webhook URL with 422", func() {
			req := httptest.NewRequest("PUT", "/api/settings",
				strings.NewReader(`{"webhook_url": "ftp://x"}`))
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusUnprocessableEntity))
			Expect(db.settings.WebhookURL).To(Equal("https://flows.example.com/hook"))
		})
	})

	ginkgo.Describe("GET /api/status", func() {
		ginkgo.It("reports the busy flag", func() {
			req := httptest.NewRequest("GET", "/api/status", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(MatchJSON(`{"busy": false}`))
		})
	})

	ginkgo.Describe("GET /api/last-result", func() {
		ginkgo.It("returns 404 before any submission", func() {
			req := httptest.NewRequest("GET", "/api/last-result", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})
	})

	ginkgo.Describe("basic auth", func() {
		ginkgo.BeforeEach(func() {
			server = NewServer(service, BasicAuth{Username: "user", Password: "pass"})
		})

		ginkgo.It("rejects requests without credentials", func() {
			req := httptest.NewRequest("GET", "/api/entries", nil)
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
		})

		ginkgo.It("accepts requests with valid credentials", func() {
			req := httptest.NewRequest("GET", "/api/entries", nil)
			req.SetBasicAuth("user", "pass")
			server.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
		})
	})
})
