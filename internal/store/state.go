package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Cursor is the persisted backfill pagination state. The cursor is only valid
// for the exact (After, ActivityScope) pair it was created under.
type Cursor struct {
	After         int64           `json:"after"`
	NextOffset    *int            `json:"next_offset"`
	Completed     bool            `json:"completed"`
	OldestSeenTS  *int64          `json:"oldest_seen_ts"`
	NewestSeenTS  *int64          `json:"newest_seen_ts"`
	RateLimited   bool            `json:"rate_limited"`
	ActivityScope json.RawMessage `json:"activity_scope"`
	LastRunUTC    string          `json:"last_run_utc"`
}

// FingerprintRecord tracks which account the persisted data belongs to.
type FingerprintRecord struct {
	Fingerprint string `json:"fingerprint"`
	UpdatedUTC  string `json:"updated_utc"`
	Version     int    `json:"version"`
}

// LoadCursor returns the persisted cursor, or (nil, nil) when none exists or
// the stored payload is unreadable. A corrupt cursor restarts the backfill
// rather than failing the run.
func LoadCursor(ctx context.Context, s Store) (*Cursor, error) {
	value, err := s.Load(ctx, KeyCursor)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cursor Cursor
	if err := json.Unmarshal(value, &cursor); err != nil {
		return nil, nil
	}
	return &cursor, nil
}

// SaveCursor rewrites the cursor state.
func SaveCursor(ctx context.Context, s Store, cursor Cursor) error {
	value, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("marshal cursor: %w", err)
	}
	return s.Save(ctx, KeyCursor, value)
}

// LoadFingerprint returns the stored account fingerprint, or "" when none
// (or an unreadable record) exists.
func LoadFingerprint(ctx context.Context, s Store) (string, error) {
	value, err := s.Load(ctx, KeyFingerprint)
	if err == ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var rec FingerprintRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return "", nil
	}
	return rec.Fingerprint, nil
}

// SaveFingerprint rewrites the account fingerprint record.
func SaveFingerprint(ctx context.Context, s Store, fingerprint, updatedUTC string) error {
	value, err := json.Marshal(FingerprintRecord{
		Fingerprint: fingerprint,
		UpdatedUTC:  updatedUTC,
		Version:     1,
	})
	if err != nil {
		return fmt.Errorf("marshal fingerprint: %w", err)
	}
	return s.Save(ctx, KeyFingerprint, value)
}
