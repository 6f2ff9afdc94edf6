package parser

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/tormoder/fit"
)

// FITParser decodes Garmin FIT exports.
type FITParser struct{}

func (p *FITParser) Parse(data []byte) (*Metrics, error) {
	fitFile, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode FIT file: %w", err)
	}

	activity, err := fitFile.Activity()
	if err != nil {
		return nil, fmt.Errorf("failed to get activity from FIT: %w", err)
	}
	if len(activity.Sessions) == 0 {
		return nil, ErrNoTrackData
	}

	session := activity.Sessions[0]
	metrics := &Metrics{
		ActivityType: strings.ToLower(session.Sport.String()),
		StartTime:    session.StartTime,
		Duration:     time.Duration(session.GetTotalTimerTimeScaled() * float64(time.Second)),
		Distance:     session.GetTotalDistanceScaled(),
	}
	if session.TotalAscent != 0xFFFF {
		metrics.ElevationGain = float64(session.TotalAscent)
	}
	return metrics, nil
}
