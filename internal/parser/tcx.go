package parser

import (
	"encoding/xml"
	"strings"
	"time"
)

// TCXParser decodes Training Center XML exports. Lap summaries carry the
// totals directly.
type TCXParser struct{}

type tcxDatabase struct {
	XMLName    xml.Name      `xml:"TrainingCenterDatabase"`
	Activities tcxActivities `xml:"Activities"`
}

type tcxActivities struct {
	Activity []tcxActivity `xml:"Activity"`
}

type tcxActivity struct {
	Sport string   `xml:"Sport,attr"`
	Laps  []tcxLap `xml:"Lap"`
}

type tcxLap struct {
	StartTime        string  `xml:"StartTime,attr"`
	TotalTimeSeconds float64 `xml:"TotalTimeSeconds"`
	DistanceMeters   float64 `xml:"DistanceMeters"`
}

func (p *TCXParser) Parse(data []byte) (*Metrics, error) {
	var db tcxDatabase
	if err := xml.Unmarshal(data, &db); err != nil {
		return nil, err
	}
	if len(db.Activities.Activity) == 0 {
		return nil, ErrNoTrackData
	}

	activity := db.Activities.Activity[0]
	if len(activity.Laps) == 0 {
		return nil, ErrNoTrackData
	}

	metrics := &Metrics{
		ActivityType: strings.ToLower(activity.Sport),
	}
	metrics.StartTime, _ = time.Parse(time.RFC3339, activity.Laps[0].StartTime)
	for _, lap := range activity.Laps {
		metrics.Duration += time.Duration(lap.TotalTimeSeconds * float64(time.Second))
		metrics.Distance += lap.DistanceMeters
	}

	return metrics, nil
}
