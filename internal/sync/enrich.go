package sync

import (
	"context"
	"strings"

	"github.com/yourusername/garminsync/internal/normalize"
	"github.com/yourusername/garminsync/internal/observability"
)

// enrichDuration fills a zero duration via a detail lookup. Records that
// already carry a positive duration are never re-queried. Lookup failures
// leave the duration at zero; enrichment is best-effort by design.
func (s *Service) enrichDuration(ctx context.Context, rec normalize.Record, enriched *int) normalize.Record {
	if rec.MovingTime > 0 {
		return rec
	}
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return rec
	}

	payload, err := s.provider.ActivityDetail(ctx, id)
	if err != nil || payload == nil {
		return rec
	}

	resolved := normalize.PickDuration(normalize.DurationCandidates(payload)...)
	if resolved <= 0 {
		return rec
	}

	rec.MovingTime = resolved
	*enriched++
	observability.RecordEnriched()
	return rec
}
