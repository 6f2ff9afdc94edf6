// Package store persists all mutable sync state behind a single keyed
// capability: raw activity records, the backfill cursor, the account
// fingerprint, and the last-run summary. Backings are swappable; the sqlite
// implementation is the production one.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load for absent keys.
var ErrNotFound = errors.New("store: key not found")

// Well-known keys. Raw activity records live under ActivityPrefix followed by
// the provider-scoped activity id.
const (
	ActivityPrefix = "activity/"
	KeyCursor      = "state/backfill"
	KeyFingerprint = "state/fingerprint"
	KeySummary     = "state/last_summary"
	KeySummaryText = "state/last_summary_text"
)

// Store is the minimal keyed persistence capability the engine depends on.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
