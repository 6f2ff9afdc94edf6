// Package parser extracts activity metrics from exported workout files so
// they can be ingested into the raw store alongside provider-fetched records.
package parser

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/yourusername/garminsync/internal/normalize"
)

// ErrNoTrackData is returned when a file contains no usable samples.
var ErrNoTrackData = errors.New("no track data found")

// Metrics are the fields extractable from an exported activity file.
type Metrics struct {
	ActivityType  string
	StartTime     time.Time
	Duration      time.Duration
	Distance      float64 // meters
	ElevationGain float64 // meters
	Name          string
}

// Parser decodes one file format into Metrics.
type Parser interface {
	Parse(data []byte) (*Metrics, error)
}

// ForData picks a parser by sniffing the file content.
func ForData(data []byte) (Parser, error) {
	switch DetectFileType(data) {
	case FileTypeFIT:
		return &FITParser{}, nil
	case FileTypeTCX:
		return &TCXParser{}, nil
	case FileTypeGPX:
		return &GPXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file type")
	}
}

// ParseFile reads and decodes a single exported activity file.
func ParseFile(path string) (*Metrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ForData(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p.Parse(data)
}

// RecordFromMetrics converts parsed metrics into a raw activity record. The
// id must already be storage-safe; imported records carry their own provider
// tag so the pruner never treats them as provider fetches.
func RecordFromMetrics(id string, m *Metrics) normalize.Record {
	start := m.StartTime.UTC().Format(time.RFC3339)
	typeKey := m.ActivityType
	if typeKey == "" {
		typeKey = "Unknown"
	}
	return normalize.Record{
		ID:                 id,
		StartDateLocal:     start,
		StartDate:          start,
		Type:               typeKey,
		SportType:          typeKey,
		Distance:           m.Distance,
		MovingTime:         m.Duration.Seconds(),
		TotalElevationGain: m.ElevationGain,
		Provider:           "import",
		Name:               m.Name,
	}
}
