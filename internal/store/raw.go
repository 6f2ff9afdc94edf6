package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yourusername/garminsync/internal/normalize"
)

// RawActivities is the per-id raw record surface over a Store. Records are
// replaced wholesale on every write, never partially patched.
type RawActivities struct {
	store Store
}

func NewRawActivities(s Store) *RawActivities {
	return &RawActivities{store: s}
}

// Write upserts a record keyed by its id. The write is skipped when the
// stored record is structurally identical, and the return value reports
// whether anything actually changed. Ids that could not form a safe storage
// key are rejected without error.
func (r *RawActivities) Write(ctx context.Context, rec normalize.Record) (bool, error) {
	id := strings.TrimSpace(rec.ID)
	if !SafeActivityID(id) {
		return false, nil
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("marshal activity %s: %w", id, err)
	}

	key := ActivityPrefix + id
	existing, err := r.store.Load(ctx, key)
	if err == nil && bytes.Equal(existing, value) {
		return false, nil
	}
	if err != nil && err != ErrNotFound {
		return false, err
	}

	if err := r.store.Save(ctx, key, value); err != nil {
		return false, err
	}
	return true, nil
}

// Get loads a single record by id.
func (r *RawActivities) Get(ctx context.Context, id string) (normalize.Record, error) {
	value, err := r.store.Load(ctx, ActivityPrefix+id)
	if err != nil {
		return normalize.Record{}, err
	}
	var rec normalize.Record
	if err := json.Unmarshal(value, &rec); err != nil {
		return normalize.Record{}, fmt.Errorf("unmarshal activity %s: %w", id, err)
	}
	return rec, nil
}

// IDs lists every stored activity id.
func (r *RawActivities) IDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Keys(ctx, ActivityPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, ActivityPrefix))
	}
	return ids, nil
}

// Delete removes a record by id.
func (r *RawActivities) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, ActivityPrefix+id)
}

// DeleteAll removes every stored activity record.
func (r *RawActivities) DeleteAll(ctx context.Context) error {
	keys, err := r.store.Keys(ctx, ActivityPrefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := r.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// SafeActivityID rejects ids that contain path separators or traversal
// sequences. Provider ids feed directly into storage keys, so a malformed or
// malicious id must never escape the activity namespace.
func SafeActivityID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return false
	}
	return true
}
