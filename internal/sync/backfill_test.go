package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/garminsync/internal/store"
)

// Full crawl: two pages, where the second page crosses the lookback boundary.
// The out-of-bound item ends the crawl but the in-bound items around it are
// still counted.
func TestBackfillCompletesWhenBoundaryReached(t *testing.T) {
	provider := &fakeProvider{pages: map[int][]map[string]any{
		0: {
			activity("1", "2023-05-03 08:00:00"),
			activity("2", "2023-05-02 08:00:00"),
			activity("3", "2023-05-01 08:00:00"),
		},
		3: {
			activity("4", "2023-04-01 08:00:00"),
			activity("old", "2022-12-01 08:00:00"),
			activity("5", "2023-03-01 08:00:00"),
		},
	}}
	st := store.NewMemoryStore()
	svc := newTestService(provider, st, testConfig())
	ctx := context.Background()

	summary, err := svc.Run(ctx, Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 3}, provider.listCalls)
	assert.Equal(t, 5, summary.Fetched)
	assert.Equal(t, 5, summary.NewOrUpdated)
	assert.True(t, summary.BackfillCompleted)
	assert.Nil(t, summary.BackfillNextOffset)

	// The out-of-bound record never lands in the store.
	raw := store.NewRawActivities(st)
	_, err = raw.Get(ctx, "old")
	assert.ErrorIs(t, err, store.ErrNotFound)

	cursor, err := store.LoadCursor(ctx, st)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.True(t, cursor.Completed)
	assert.Nil(t, cursor.NextOffset)
	assert.Equal(t, testAfter, cursor.After)
	assert.False(t, cursor.RateLimited)
}

// Throttled mid-crawl: page one lands, page two is rejected with 429. The run
// still succeeds, and the cursor records the offset after the last full page
// so the next run resumes there.
func TestBackfillRateLimitPreservesProgress(t *testing.T) {
	provider := &fakeProvider{
		pages: map[int][]map[string]any{
			0: {
				activity("1", "2023-05-03 08:00:00"),
				activity("2", "2023-05-02 08:00:00"),
				activity("3", "2023-05-01 08:00:00"),
			},
		},
		errAt: map[int]error{3: throttledErr()},
	}
	st := store.NewMemoryStore()
	svc := newTestService(provider, st, testConfig())
	ctx := context.Background()

	summary, err := svc.Run(ctx, Options{})
	require.NoError(t, err)

	assert.True(t, summary.RateLimited)
	assert.Contains(t, summary.RateLimitMessage, "429")
	assert.False(t, summary.BackfillCompleted)
	require.NotNil(t, summary.BackfillNextOffset)
	assert.Equal(t, 3, *summary.BackfillNextOffset)
	assert.Equal(t, 3, summary.Fetched)

	cursor, err := store.LoadCursor(ctx, st)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.False(t, cursor.Completed)
	require.NotNil(t, cursor.NextOffset)
	assert.Equal(t, 3, *cursor.NextOffset)
	assert.True(t, cursor.RateLimited)
}

func TestBackfillResumesFromPersistedOffset(t *testing.T) {
	cfg := testConfig()
	st := store.NewMemoryStore()
	ctx := context.Background()

	offset := 3
	require.NoError(t, store.SaveCursor(ctx, st, store.Cursor{
		After:         testAfter,
		NextOffset:    &offset,
		ActivityScope: scopeFor(t, cfg),
	}))

	provider := &fakeProvider{pages: map[int][]map[string]any{
		3: {activity("4", "2023-04-01 08:00:00")},
	}}
	svc := newTestService(provider, st, cfg)

	summary, err := svc.Run(ctx, Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{3}, provider.listCalls)
	assert.Equal(t, 1, summary.Fetched)
	assert.True(t, summary.BackfillCompleted)
}

func TestBackfillRestartsWhenBoundaryChanged(t *testing.T) {
	cfg := testConfig()
	st := store.NewMemoryStore()
	ctx := context.Background()

	offset := 6
	require.NoError(t, store.SaveCursor(ctx, st, store.Cursor{
		After:         testAfter + 86400, // written under a different start date
		NextOffset:    &offset,
		ActivityScope: scopeFor(t, cfg),
	}))

	provider := &fakeProvider{pages: map[int][]map[string]any{
		0: {activity("1", "2023-05-01 08:00:00")},
	}}
	svc := newTestService(provider, st, cfg)

	summary, err := svc.Run(ctx, Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{0}, provider.listCalls)
	assert.True(t, summary.BackfillCompleted)

	cursor, err := store.LoadCursor(ctx, st)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, testAfter, cursor.After)
}

func TestBackfillRestartsWhenScopeChanged(t *testing.T) {
	cfg := testConfig()
	st := store.NewMemoryStore()
	ctx := context.Background()

	offset := 6
	require.NoError(t, store.SaveCursor(ctx, st, store.Cursor{
		After:         testAfter,
		NextOffset:    &offset,
		ActivityScope: []byte(`{"include_all_types":false,"types":["running"]}`),
	}))

	provider := &fakeProvider{pages: map[int][]map[string]any{
		0: {activity("1", "2023-05-01 08:00:00")},
	}}
	svc := newTestService(provider, st, cfg)

	_, err := svc.Run(ctx, Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{0}, provider.listCalls)
}

// A cursor already marked complete short-circuits the backfill without a
// single provider call, but the rewritten cursor still refreshes the scope
// fingerprint and run timestamp.
func TestBackfillCompletedCursorFastPath(t *testing.T) {
	cfg := testConfig()
	st := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SaveCursor(ctx, st, store.Cursor{
		After:         testAfter,
		Completed:     true,
		ActivityScope: scopeFor(t, cfg),
		LastRunUTC:    "2023-06-01T00:00:00Z",
	}))

	provider := &fakeProvider{}
	svc := newTestService(provider, st, cfg)

	summary, err := svc.Run(ctx, Options{})
	require.NoError(t, err)

	assert.Empty(t, provider.listCalls)
	assert.Equal(t, 0, summary.Fetched)
	assert.True(t, summary.BackfillCompleted)
	assert.Nil(t, summary.BackfillNextOffset)

	cursor, err := store.LoadCursor(ctx, st)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.True(t, cursor.Completed)
	assert.NotEqual(t, "2023-06-01T00:00:00Z", cursor.LastRunUTC)
}

// Re-running a completed crawl with resume disabled re-fetches everything but
// writes nothing: the stored records already match byte for byte.
func TestBackfillSecondCrawlIsIdempotent(t *testing.T) {
	pages := map[int][]map[string]any{
		0: {activity("1", "2023-05-02 08:00:00"), activity("2", "2023-05-01 08:00:00")},
	}
	st := store.NewMemoryStore()
	ctx := context.Background()

	first := newTestService(&fakeProvider{pages: pages}, st, testConfig())
	firstSummary, err := first.Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, firstSummary.NewOrUpdated)

	cfg := testConfig()
	resume := false
	cfg.Sync.ResumeBackfill = &resume
	second := newTestService(&fakeProvider{pages: pages}, st, cfg)
	secondSummary, err := second.Run(ctx, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, secondSummary.Fetched)
	assert.Equal(t, 0, secondSummary.NewOrUpdated)
}

func TestBackfillFatalListingErrorPersistsNothing(t *testing.T) {
	provider := &fakeProvider{errAt: map[int]error{0: errors.New("connection refused")}}
	st := store.NewMemoryStore()
	svc := newTestService(provider, st, testConfig())
	ctx := context.Background()

	_, err := svc.Run(ctx, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 0")

	cursor, err := store.LoadCursor(ctx, st)
	require.NoError(t, err)
	assert.Nil(t, cursor)
}

func TestBackfillSkipsMalformedPayloads(t *testing.T) {
	provider := &fakeProvider{pages: map[int][]map[string]any{
		0: {
			activity("1", "2023-05-01 08:00:00"),
			{"activityId": "no-start"},
			{"startTimeGMT": "2023-05-01 08:00:00"},
		},
	}}
	svc := newTestService(provider, store.NewMemoryStore(), testConfig())

	summary, err := svc.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Fetched)
	assert.True(t, summary.BackfillCompleted)
}
