// Package sync implements the activity synchronization engine: a fast
// recent-window pass plus a resumable full-history backfill, feeding an
// idempotent raw record store. Execution is strictly sequential; one provider
// request is in flight at a time.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/garminsync/internal/config"
	"github.com/yourusername/garminsync/internal/observability"
	"github.com/yourusername/garminsync/internal/store"
)

// Provider is the capability contract consumed from the client adapter.
type Provider interface {
	ListActivities(ctx context.Context, offset, limit int) ([]map[string]any, error)
	ActivityDetail(ctx context.Context, id string) (map[string]any, error)
}

// Options are the per-run caller switches.
type Options struct {
	DryRun       bool
	PruneDeleted bool
}

// Summary is the per-run result surfaced to callers and persisted for the
// status surfaces.
type Summary struct {
	Source             string        `json:"source"`
	RunID              string        `json:"run_id"`
	Fetched            int           `json:"fetched"`
	NewOrUpdated       int           `json:"new_or_updated"`
	Deleted            int           `json:"deleted"`
	LookbackStartTS    int64         `json:"lookback_start_ts"`
	TimestampUTC       string        `json:"timestamp_utc"`
	RateLimited        bool          `json:"rate_limited"`
	RateLimitMessage   string        `json:"rate_limit_message,omitempty"`
	BackfillCompleted  bool          `json:"backfill_completed"`
	BackfillNextOffset *int          `json:"backfill_next_offset"`
	DurationEnriched   int           `json:"duration_enriched"`
	RecentSync         RecentSummary `json:"recent_sync"`
}

// RecentSummary is the embedded result of the recent-window pass.
type RecentSummary struct {
	Fetched          int      `json:"fetched"`
	NewOrUpdated     int      `json:"new_or_updated"`
	OldestTS         *int64   `json:"oldest_ts"`
	NewestTS         *int64   `json:"newest_ts"`
	RateLimited      bool     `json:"rate_limited"`
	RateLimitMessage string   `json:"rate_limit_message"`
	ActivityIDs      []string `json:"activity_ids"`
}

// Service orchestrates one sync run end to end.
type Service struct {
	provider Provider
	store    store.Store
	raw      *store.RawActivities
	cfg      config.Config
	logger   *log.Logger
	now      func() time.Time
}

// Option configures optional Service behaviour.
type Option func(*Service)

// WithLogger overrides the service logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a Service over the provider adapter and state store.
func NewService(provider Provider, st store.Store, cfg config.Config, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		store:    st,
		raw:      store.NewRawActivities(st),
		cfg:      cfg,
		logger:   log.New(log.Writer(), "[sync] ", log.LstdFlags),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one full sync: identity guard, recent-window pass, backfill
// pass, optional prune, then summary and cursor persistence. Rate limiting
// degrades the run to a partial success; only configuration errors and
// non-throttle listing failures are fatal.
func (s *Service) Run(ctx context.Context, opts Options) (*Summary, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	after := s.cfg.Sync.StartAfterTS(now)
	scope, err := json.Marshal(s.cfg.Activities.Scope())
	if err != nil {
		return nil, fmt.Errorf("marshal activity scope: %w", err)
	}

	if !opts.DryRun {
		if err := s.guardAccountIdentity(ctx); err != nil {
			return nil, err
		}
	}

	enriched := 0
	recent, err := s.syncRecent(ctx, opts, now, &enriched)
	if err != nil {
		observability.RecordRun("error")
		return nil, err
	}

	fetchedIDs := make(map[string]struct{}, len(recent.ActivityIDs))
	for _, id := range recent.ActivityIDs {
		fetchedIDs[id] = struct{}{}
	}

	bf, err := s.runBackfill(ctx, opts, after, scope, recent.RateLimited, &enriched, fetchedIDs)
	if err != nil {
		observability.RecordRun("error")
		return nil, err
	}

	rateLimited := recent.RateLimited || bf.rateLimited
	rateLimitMessage := recent.RateLimitMessage
	if bf.rateLimitMessage != "" {
		rateLimitMessage = bf.rateLimitMessage
	}
	if rateLimited {
		observability.RecordRateLimited()
	}

	deleted := 0
	canPrune := opts.PruneDeleted && !opts.DryRun && !bf.skipped && bf.exhausted && !rateLimited
	if canPrune {
		deleted, err = s.prune(ctx, fetchedIDs)
		if err != nil {
			return nil, err
		}
	} else if opts.PruneDeleted && !opts.DryRun {
		s.logger.Println("skipping prune: pruning requires a fully completed, unthrottled backfill scan in this run")
	}

	completed := bf.exhausted && !rateLimited
	if bf.skipped {
		completed = true
	}
	nextOffset := bf.nextOffset
	if completed {
		nextOffset = nil
	}

	if !opts.DryRun {
		if err := s.persistCursor(ctx, bf, after, scope, completed, nextOffset, rateLimited, now); err != nil {
			return nil, err
		}
	}

	summary := &Summary{
		Source:             "garmin",
		RunID:              uuid.NewString(),
		Fetched:            bf.fetched + recent.Fetched,
		NewOrUpdated:       bf.newOrUpdated + recent.NewOrUpdated,
		Deleted:            deleted,
		LookbackStartTS:    after,
		TimestampUTC:       now.Format(time.RFC3339),
		RateLimited:        rateLimited,
		BackfillCompleted:  completed,
		BackfillNextOffset: nextOffset,
		DurationEnriched:   enriched,
		RecentSync:         recent,
	}
	if rateLimited {
		summary.RateLimitMessage = rateLimitMessage
	}

	observability.RecordFetched(summary.Fetched)
	observability.RecordRun("ok")

	if !opts.DryRun {
		if err := s.persistSummary(ctx, summary); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

func (s *Service) persistCursor(ctx context.Context, bf backfillResult, after int64, scope []byte, completed bool, nextOffset *int, rateLimited bool, now time.Time) error {
	nowStr := now.Format(time.RFC3339)
	if bf.skipped && bf.cursor != nil {
		// Fast path: carry the completed cursor forward, refreshing only
		// the run-scoped fields and the scope fingerprint.
		update := *bf.cursor
		update.Completed = true
		update.RateLimited = rateLimited
		update.LastRunUTC = nowStr
		update.ActivityScope = scope
		return store.SaveCursor(ctx, s.store, update)
	}
	return store.SaveCursor(ctx, s.store, store.Cursor{
		After:         after,
		NextOffset:    nextOffset,
		Completed:     completed,
		OldestSeenTS:  bf.oldestTS,
		NewestSeenTS:  bf.newestTS,
		RateLimited:   rateLimited,
		ActivityScope: scope,
		LastRunUTC:    nowStr,
	})
}

func (s *Service) persistSummary(ctx context.Context, summary *Summary) error {
	value, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := s.store.Save(ctx, store.KeySummary, value); err != nil {
		return err
	}
	return s.store.Save(ctx, store.KeySummaryText, []byte(summary.Text()))
}

// Text renders the one-line human-readable summary.
func (s *Summary) Text() string {
	rangeLabel := "start unknown"
	if s.LookbackStartTS > 0 {
		rangeLabel = "start " + time.Unix(s.LookbackStartTS, 0).UTC().Format("2006-01-02")
	}
	msg := fmt.Sprintf("Sync Garmin: %d new/updated, %d deleted (%s)", s.NewOrUpdated, s.Deleted, rangeLabel)
	if s.DurationEnriched > 0 {
		msg += fmt.Sprintf(", %d durations enriched", s.DurationEnriched)
	}
	if s.RateLimited {
		msg += " [rate limited]"
	}
	return msg
}

func sortedIDs(ids map[string]struct{}) []string {
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
