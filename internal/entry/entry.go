package entry

// Theme values accepted in settings.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Settings holds the user configuration. There is exactly one
// settings record, persisted on every change.
type Settings struct {
	WebhookURL string `json:"webhook_url"`
	Theme      string `json:"theme"`
}

// DefaultSettings returns the configuration used before the user has
// saved anything.
func DefaultSettings() Settings {
	return Settings{WebhookURL: "", Theme: ThemeDark}
}

// Entry is a stored receipt record derived from one successful
// submission. CapturedAt is the identity key; it and ImageName are
// immutable after creation.
type Entry struct {
	Vendor        string `json:"vendor"`
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"` // ISO date, empty when unknown
	TotalAmount   string `json:"total_amount"`
	ImageName     string `json:"image_name"`
	CapturedAt    string `json:"captured_at"` // RFC3339Nano, primary key
}

// Upload log statuses. A log entry starts pending and ends in
// success or error.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusError   = "error"
)

// UploadLogEntry is one row of the recent-activity list.
type UploadLogEntry struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Message     string `json:"message,omitempty"`
}
