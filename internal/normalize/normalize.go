// Package normalize converts raw Garmin Connect payloads into the canonical
// activity record persisted by the sync engine. Garmin has shipped several
// shapes for the same logical fields across API versions, so every field is
// resolved from an ordered list of candidate keys.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is the canonical per-activity shape written to the raw store.
type Record struct {
	ID                 string  `json:"id"`
	StartDateLocal     string  `json:"start_date_local"`
	StartDate          string  `json:"start_date"`
	Type               string  `json:"type"`
	SportType          string  `json:"sport_type"`
	Distance           float64 `json:"distance"`
	MovingTime         float64 `json:"moving_time"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
	Provider           string  `json:"provider"`
	Name               string  `json:"name,omitempty"`
}

// Activity resolves a raw payload into a Record. ok is false when the payload
// has no usable id or start time; such payloads are skipped, never an error.
func Activity(payload map[string]any) (Record, bool) {
	id := coalesce(payload["activityId"], payload["id"])
	if id == nil {
		return Record{}, false
	}

	startLocal := coalesce(
		payload["startTimeLocal"],
		payload["startTimeGMT"],
		payload["startTimeGmt"],
		payload["startDate"],
	)
	if startLocal == nil {
		return Record{}, false
	}
	startLocalStr := isoTime(startLocal)
	if startLocalStr == "" {
		return Record{}, false
	}

	typeKey := activityTypeKey(payload)
	rec := Record{
		ID:             stringify(id),
		StartDateLocal: startLocalStr,
		StartDate: isoTime(coalesce(
			payload["startTimeGMT"],
			payload["startTimeGmt"],
			payload["startTimeLocal"],
			startLocalStr,
		)),
		Type:       typeKey,
		SportType:  typeKey,
		Distance:   toFloat(coalesce(payload["distance"], payload["totalDistance"]), 0),
		MovingTime: PickDuration(durationCandidates(payload)...),
		TotalElevationGain: toFloat(coalesce(
			payload["elevationGain"],
			payload["totalElevationGain"],
			payload["total_elevation_gain"],
		), 0),
		Provider: "garmin",
		Name: strings.TrimSpace(stringify(coalesce(
			payload["activityName"],
			payload["activity_name"],
			payload["name"],
			nested(payload, "summaryDTO", "activityName"),
		))),
	}
	return rec, true
}

// DurationCandidates lists every place Garmin is known to report a duration,
// in preference order. Shared with the enrichment path so both resolve
// identically.
func DurationCandidates(payload map[string]any) []any {
	return durationCandidates(payload)
}

func durationCandidates(payload map[string]any) []any {
	return []any{
		payload["movingDuration"],
		payload["duration"],
		payload["elapsedDuration"],
		payload["moving_time"],
		payload["elapsed_time"],
		nested(payload, "summaryDTO", "movingDuration"),
		nested(payload, "summaryDTO", "duration"),
		nested(payload, "summaryDTO", "elapsedDuration"),
		nested(payload, "activitySummary", "movingDuration"),
		nested(payload, "activitySummary", "duration"),
		nested(payload, "activitySummary", "elapsedDuration"),
	}
}

// PickDuration returns the first positive numeric candidate; when none is
// positive it falls back to the first numeric candidate, and finally to zero.
func PickDuration(values ...any) float64 {
	var firstNumeric *float64
	for _, value := range values {
		number, ok := asFloat(value)
		if !ok {
			continue
		}
		if firstNumeric == nil {
			n := number
			firstNumeric = &n
		}
		if number > 0 {
			return number
		}
	}
	if firstNumeric != nil {
		return *firstNumeric
	}
	return 0
}

func activityTypeKey(payload map[string]any) string {
	value := coalesce(
		nested(payload, "activityType", "typeKey"),
		nested(payload, "activityTypeDTO", "typeKey"),
		nested(payload, "activityType", "type"),
		payload["type"],
		payload["activityType"],
	)
	if value == nil {
		return "Unknown"
	}
	return stringify(value)
}

// StartTimestamp parses the record's start time into epoch seconds. The GMT
// field wins; start_date_local is the fallback for payloads that only carried
// a local time.
func StartTimestamp(rec Record) (int64, bool) {
	value := rec.StartDate
	if value == "" {
		value = rec.StartDateLocal
	}
	if value == "" {
		return 0, false
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.0",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Unix(), true
		}
	}
	return 0, false
}

// coalesce returns the first candidate that is present and non-empty.
func coalesce(values ...any) any {
	for _, value := range values {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			if v != "" {
				return v
			}
		case []any:
			if len(v) > 0 {
				return v
			}
		default:
			return v
		}
	}
	return nil
}

// nested walks a chain of map keys, returning nil as soon as the shape
// diverges from nested objects.
func nested(payload map[string]any, keys ...string) any {
	var value any = payload
	for _, key := range keys {
		m, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		value = m[key]
	}
	return value
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		if v == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toFloat(value any, def float64) float64 {
	if f, ok := asFloat(value); ok {
		return f
	}
	return def
}

// stringify renders identifiers and names. Garmin activity ids arrive as JSON
// numbers, so floats are formatted without an exponent or trailing zeros.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// isoTime canonicalizes Garmin's "2006-01-02 15:04:05" timestamps to ISO-8601
// by swapping the date/time separator.
func isoTime(value any) string {
	s := stringify(value)
	if s == "" {
		return ""
	}
	return strings.Replace(s, " ", "T", 1)
}
