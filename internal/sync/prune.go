package sync

import (
	"context"

	"github.com/yourusername/garminsync/internal/observability"
)

// prune removes locally stored provider records whose id was not returned by
// this run's recent and backfill passes. Callers gate this on a fully
// exhausted, unthrottled scan; records ingested from local files are never
// provider fetches and are left alone.
func (s *Service) prune(ctx context.Context, fetchedIDs map[string]struct{}) (int, error) {
	ids, err := s.raw.IDs(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		if _, ok := fetchedIDs[id]; ok {
			continue
		}
		rec, err := s.raw.Get(ctx, id)
		if err == nil && rec.Provider != "garmin" {
			continue
		}
		if err := s.raw.Delete(ctx, id); err != nil {
			return deleted, err
		}
		deleted++
	}

	observability.RecordPruned(deleted)
	return deleted, nil
}
