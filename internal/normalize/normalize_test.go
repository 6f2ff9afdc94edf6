package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityResolvesAliasedFields(t *testing.T) {
	payload := map[string]any{
		"activityId":    float64(123456789),
		"startTimeGMT":  "2023-06-01 10:00:00",
		"startTimeLocal": "2023-06-01 12:00:00",
		"activityType":  map[string]any{"typeKey": "trail_running"},
		"distance":      float64(10500),
		"movingDuration": float64(3600),
		"elevationGain": float64(250),
		"activityName":  "  Morning Run ",
	}

	rec, ok := Activity(payload)
	require.True(t, ok)
	assert.Equal(t, "123456789", rec.ID)
	assert.Equal(t, "2023-06-01T12:00:00", rec.StartDateLocal)
	assert.Equal(t, "2023-06-01T10:00:00", rec.StartDate)
	assert.Equal(t, "trail_running", rec.Type)
	assert.Equal(t, "trail_running", rec.SportType)
	assert.Equal(t, 10500.0, rec.Distance)
	assert.Equal(t, 3600.0, rec.MovingTime)
	assert.Equal(t, 250.0, rec.TotalElevationGain)
	assert.Equal(t, "garmin", rec.Provider)
	assert.Equal(t, "Morning Run", rec.Name)
}

func TestActivityFallbackAliases(t *testing.T) {
	payload := map[string]any{
		"id":        "abc-123",
		"startDate": "2023-06-01T10:00:00",
		"type":      "Ride",
		"totalDistance": float64(42000),
		"total_elevation_gain": float64(120),
		"elapsed_time":         float64(7200),
	}

	rec, ok := Activity(payload)
	require.True(t, ok)
	assert.Equal(t, "abc-123", rec.ID)
	assert.Equal(t, "Ride", rec.Type)
	assert.Equal(t, 42000.0, rec.Distance)
	assert.Equal(t, 120.0, rec.TotalElevationGain)
	assert.Equal(t, 7200.0, rec.MovingTime)
}

func TestActivityMissingIDOrStartSkipped(t *testing.T) {
	_, ok := Activity(map[string]any{"startTimeGMT": "2023-06-01 10:00:00"})
	assert.False(t, ok)

	_, ok = Activity(map[string]any{"activityId": float64(1)})
	assert.False(t, ok)

	_, ok = Activity(map[string]any{})
	assert.False(t, ok)
}

func TestActivityMalformedNestingDoesNotPanic(t *testing.T) {
	payload := map[string]any{
		"activityId":   "x1",
		"startTimeGMT": "2023-06-01 10:00:00",
		"activityType": "running_as_plain_string",
		"summaryDTO":   []any{"not", "a", "map"},
		"distance":     "not a number",
	}

	rec, ok := Activity(payload)
	require.True(t, ok)
	assert.Equal(t, "running_as_plain_string", rec.Type)
	assert.Equal(t, 0.0, rec.Distance)
}

func TestActivityUnknownType(t *testing.T) {
	rec, ok := Activity(map[string]any{
		"activityId":   "x2",
		"startTimeGMT": "2023-06-01 10:00:00",
	})
	require.True(t, ok)
	assert.Equal(t, "Unknown", rec.Type)
}

func TestPickDuration(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   float64
	}{
		{"first positive wins", []any{float64(0), float64(3600), float64(7200)}, 3600},
		{"skips non-numeric", []any{"n/a", nil, float64(120)}, 120},
		{"falls back to first numeric when none positive", []any{nil, float64(0), "bad"}, 0},
		{"negative then positive", []any{float64(-5), float64(90)}, 90},
		{"all unusable", []any{nil, "", []any{}}, 0},
		{"numeric strings accepted", []any{"", "1800"}, 1800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PickDuration(tt.values...))
		})
	}
}

func TestDurationCandidatesCoverNestedSummaries(t *testing.T) {
	payload := map[string]any{
		"summaryDTO": map[string]any{"movingDuration": float64(1234)},
	}
	assert.Equal(t, 1234.0, PickDuration(DurationCandidates(payload)...))

	payload = map[string]any{
		"activitySummary": map[string]any{"elapsedDuration": float64(99)},
	}
	assert.Equal(t, 99.0, PickDuration(DurationCandidates(payload)...))
}

func TestStartTimestamp(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want int64
		ok   bool
	}{
		{
			"UTC with zone",
			Record{StartDate: "2023-06-01T10:00:00Z"},
			1685613600, true,
		},
		{
			"naive treated as UTC",
			Record{StartDate: "2023-06-01T10:00:00"},
			1685613600, true,
		},
		{
			"falls back to local when GMT absent",
			Record{StartDateLocal: "2023-06-01T10:00:00"},
			1685613600, true,
		},
		{"empty", Record{}, 0, false},
		{"garbage", Record{StartDate: "yesterday"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := StartTimestamp(tt.rec)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, ts)
			}
		})
	}
}
