package entry

import (
	"strings"
	"sync"
	"time"
)

// maxUploadLogEntries bounds the recent-activity list.
const maxUploadLogEntries = 5

// UploadLog is the bounded recent-activity list of submission
// attempts. Entries are keyed by a synthetic id and kept most recent
// first. Submissions may complete concurrently, so all access is
// mutex-guarded.
type UploadLog struct {
	mu         sync.Mutex
	entries    []UploadLogEntry
	timeSource TimeSource
}

// NewUploadLog creates an empty upload log.
func NewUploadLog() *UploadLog {
	return NewUploadLogWithClock(&defaultTimeSource{})
}

// NewUploadLogWithClock creates an upload log with a custom time
// source for testing.
func NewUploadLogWithClock(timeSource TimeSource) *UploadLog {
	return &UploadLog{timeSource: timeSource}
}

// Upsert merges the update with any existing entry sharing its id and
// moves the merged entry to the front. Empty fields fall back to the
// existing entry's values, then to defaults (status pending,
// timestamp now, display name from file name). The log is truncated
// to its bound afterwards.
func (l *UploadLog) Upsert(update UploadLogEntry) UploadLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := update
	for i, existing := range l.entries {
		if existing.ID != update.ID {
			continue
		}
		if merged.FileName == "" {
			merged.FileName = existing.FileName
		}
		if merged.DisplayName == "" {
			merged.DisplayName = existing.DisplayName
		}
		if merged.Status == "" {
			merged.Status = existing.Status
		}
		if merged.Timestamp == "" {
			merged.Timestamp = existing.Timestamp
		}
		if merged.Message == "" {
			merged.Message = existing.Message
		}
		l.entries = append(l.entries[:i], l.entries[i+1:]...)
		break
	}

	if merged.Status == "" {
		merged.Status = StatusPending
	}
	if merged.Timestamp == "" {
		merged.Timestamp = l.timeSource.Now().Format(time.RFC3339)
	}
	if merged.DisplayName == "" {
		merged.DisplayName = merged.FileName
	}

	l.entries = append([]UploadLogEntry{merged}, l.entries...)
	if len(l.entries) > maxUploadLogEntries {
		l.entries = l.entries[:maxUploadLogEntries]
	}
	return merged
}

// Rename updates the display name of an entry. Empty or all-space
// names are ignored, as is an unknown id.
func (l *UploadLog) Rename(id, newName string) bool {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i].DisplayName = newName
			return true
		}
	}
	return false
}

// Remove deletes the entry with the given id. Removing an absent id
// is a no-op.
func (l *UploadLog) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// Entries returns a snapshot of the log, most recent first.
func (l *UploadLog) Entries() []UploadLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	snapshot := make([]UploadLogEntry, len(l.entries))
	copy(snapshot, l.entries)
	return snapshot
}
