package entry

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	entriesBucketName  = "entries"
	settingsBucketName = "settings"

	settingsKey = "current"
)

// CaptureKeyLayout is the timestamp format used for CapturedAt. The
// fractional seconds are zero-padded so the keys sort bytewise in
// chronological order inside the entries bucket.
const CaptureKeyLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB defines the interface for persistence operations
type DB interface {
	// SaveEntry inserts or updates an entry keyed by CapturedAt
	SaveEntry(entry *Entry) error

	// GetEntry retrieves an entry by its CapturedAt key
	GetEntry(capturedAt string) (*Entry, error)

	// ListEntries returns all entries, most recent first
	ListEntries() ([]*Entry, error)

	// DeleteEntry removes an entry; absent keys are not an error
	DeleteEntry(capturedAt string) error

	// DeleteAllEntries clears the record store
	DeleteAllEntries() error

	// SaveSettings persists the settings record
	SaveSettings(settings Settings) error

	// LoadSettings returns the persisted settings, or defaults if
	// nothing has been saved yet
	LoadSettings() (Settings, error)

	// Close closes the database
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(entriesBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(settingsBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveEntry inserts or updates an entry keyed by CapturedAt
func (b *BoltDB) SaveEntry(entry *Entry) error {
	if entry.CapturedAt == "" {
		return fmt.Errorf("entry has no capture timestamp")
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entriesBucketName))
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		return bucket.Put([]byte(entry.CapturedAt), data)
	})
}

// GetEntry retrieves an entry by its CapturedAt key
func (b *BoltDB) GetEntry(capturedAt string) (*Entry, error) {
	var entry *Entry
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entriesBucketName))
		data := bucket.Get([]byte(capturedAt))
		if data == nil {
			return fmt.Errorf("entry not found: %s", capturedAt)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns all entries, most recent first
func (b *BoltDB) ListEntries() ([]*Entry, error) {
	entries := make([]*Entry, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket([]byte(entriesBucketName)).Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling entry: %w", err)
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteEntry removes an entry; absent keys are not an error
func (b *BoltDB) DeleteEntry(capturedAt string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entriesBucketName))
		return bucket.Delete([]byte(capturedAt))
	})
}

// DeleteAllEntries clears the record store
func (b *BoltDB) DeleteAllEntries() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(entriesBucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(entriesBucketName))
		return err
	})
}

// SaveSettings persists the settings record
func (b *BoltDB) SaveSettings(settings Settings) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(settingsBucketName))
		data, err := json.Marshal(settings)
		if err != nil {
			return fmt.Errorf("marshaling settings: %w", err)
		}
		return bucket.Put([]byte(settingsKey), data)
	})
}

// LoadSettings returns the persisted settings, or defaults if nothing
// has been saved yet
func (b *BoltDB) LoadSettings() (Settings, error) {
	settings := DefaultSettings()
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(settingsBucketName))
		data := bucket.Get([]byte(settingsKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &settings)
	})
	if err != nil {
		return DefaultSettings(), err
	}
	if settings.Theme != ThemeDark && settings.Theme != ThemeLight {
		settings.Theme = ThemeDark
	}
	return settings, nil
}

// Close closes the database
func (b *BoltDB) Close() error {
	return b.db.Close()
}
