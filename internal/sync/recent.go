package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/garminsync/internal/garmin"
	"github.com/yourusername/garminsync/internal/normalize"
)

// syncRecent covers the last RecentDays window from offset zero. Pages are
// not guaranteed sorted by time, so an out-of-bound item marks the boundary
// but the rest of the page is still scanned.
func (s *Service) syncRecent(ctx context.Context, opts Options, now time.Time, enriched *int) (RecentSummary, error) {
	res := RecentSummary{ActivityIDs: []string{}}
	if s.cfg.Sync.RecentDays <= 0 {
		return res, nil
	}

	after := now.Add(-time.Duration(s.cfg.Sync.RecentDays) * 24 * time.Hour).Unix()
	perPage := s.cfg.Sync.PerPage
	offset := 0
	ids := make(map[string]struct{})

	for {
		items, err := s.provider.ListActivities(ctx, offset, perPage)
		if err != nil {
			if garmin.IsThrottled(err) {
				res.RateLimited = true
				res.RateLimitMessage = err.Error()
				break
			}
			return res, fmt.Errorf("recent sync: list activities at offset %d: %w", offset, err)
		}
		if len(items) == 0 {
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
			res.Fetched++
			if hasTS {
				res.OldestTS = minTS(res.OldestTS, ts)
				res.NewestTS = maxTS(res.NewestTS, ts)
			}
			ids[rec.ID] = struct{}{}
			if !opts.DryRun {
				wrote, err := s.raw.Write(ctx, rec)
				if err != nil {
					return res, err
				}
				if wrote {
					res.NewOrUpdated++
				}
			}
		}

		if reachedBoundary || len(items) < perPage {
			break
		}
		offset += len(items)
	}

	res.ActivityIDs = sortedIDs(ids)
	return res, nil
}

func minTS(current *int64, ts int64) *int64 {
	if current == nil || ts < *current {
		return &ts
	}
	return current
}

func maxTS(current *int64, ts int64) *int64 {
	if current == nil || ts > *current {
		return &ts
	}
	return current
}
