package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/yourusername/garminsync/internal/garmin"
	"github.com/yourusername/garminsync/internal/normalize"
	"github.com/yourusername/garminsync/internal/store"
)

// backfillResult carries the outcome of one backfill pass back to Run.
type backfillResult struct {
	fetched          int
	newOrUpdated     int
	oldestTS         *int64
	newestTS         *int64
	exhausted        bool
	skipped          bool
	rateLimited      bool
	rateLimitMessage string
	nextOffset       *int
	cursor           *store.Cursor
}

// runBackfill executes the resumable full-history crawl bounded below by
// `after`. The persisted cursor resumes an in-progress crawl; a cursor whose
// bound or scope no longer matches the configuration restarts from offset
// zero, and a cursor already marked complete skips the pass entirely.
func (s *Service) runBackfill(ctx context.Context, opts Options, after int64, scope []byte, alreadyThrottled bool, enriched *int, fetchedIDs map[string]struct{}) (backfillResult, error) {
	res := backfillResult{}

	var cursor *store.Cursor
	if s.cfg.Sync.ResumeEnabled() && !opts.DryRun {
		var err error
		cursor, err = store.LoadCursor(ctx, s.store)
		if err != nil {
			return res, err
		}
	}

	if cursor != nil {
		switch {
		case cursor.After != after:
			s.logger.Println("backfill boundary changed; restarting cursor from offset 0")
			cursor = nil
		case !scopeEqual(cursor.ActivityScope, scope):
			s.logger.Println("activity scope changed; restarting backfill cursor from offset 0")
			cursor = nil
		case cursor.Completed:
			res.skipped = true
		}
	}
	res.cursor = cursor

	offset := 0
	if cursor != nil && cursor.NextOffset != nil {
		offset = *cursor.NextOffset
	}
	res.nextOffset = intPtr(offset)

	// A throttled recent pass consumes the run's budget; do not start paging.
	if alreadyThrottled || res.skipped {
		return res, nil
	}

	perPage := s.cfg.Sync.PerPage
	for {
		items, err := s.provider.ListActivities(ctx, offset, perPage)
		if err != nil {
			if garmin.IsThrottled(err) {
				res.rateLimited = true
				res.rateLimitMessage = err.Error()
				break
			}
			return res, fmt.Errorf("backfill: list activities at offset %d: %w", offset, err)
		}
		if len(items) == 0 {
			res.exhausted = true
			break
		}

		reachedBoundary := false
		for _, payload := range items {
			rec, ok := normalize.Activity(payload)
			if !ok {
				continue
			}
			rec = s.enrichDuration(ctx, rec, enriched)
			ts, hasTS := normalize.StartTimestamp(rec)
			if hasTS && ts < after {
				reachedBoundary = true
				continue
			}
			res.fetched++
			fetchedIDs[rec.ID] = struct{}{}
			if hasTS {
				res.oldestTS = minTS(res.oldestTS, ts)
				res.newestTS = maxTS(res.newestTS, ts)
			}
			if !opts.DryRun {
				wrote, err := s.raw.Write(ctx, rec)
				if err != nil {
					return res, err
				}
				if wrote {
					res.newOrUpdated++
				}
			}
		}

		offset += len(items)
		res.nextOffset = intPtr(offset)
		if reachedBoundary || len(items) < perPage {
			res.exhausted = true
			break
		}
	}

	return res, nil
}

// scopeEqual compares two scope fingerprints structurally, tolerating
// formatting differences in the stored JSON.
func scopeEqual(a, b json.RawMessage) bool {
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}

func intPtr(v int) *int {
	return &v
}
