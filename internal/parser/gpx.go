package parser

import (
	"encoding/xml"
	"math"
	"time"
)

// GPXParser decodes GPX track exports. Duration and distance are derived
// from the track points; GPX carries no summary block.
type GPXParser struct{}

type gpxFile struct {
	XMLName xml.Name `xml:"gpx"`
	Track   gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Name     string       `xml:"name"`
	Type     string       `xml:"type"`
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Ele  float64 `xml:"ele"`
	Time string  `xml:"time"`
}

func (p *GPXParser) Parse(data []byte) (*Metrics, error) {
	var file gpxFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	var points []gpxPoint
	for _, seg := range file.Track.Segments {
		points = append(points, seg.Points...)
	}
	if len(points) == 0 {
		return nil, ErrNoTrackData
	}

	startTime, _ := time.Parse(time.RFC3339, points[0].Time)
	endTime, _ := time.Parse(time.RFC3339, points[len(points)-1].Time)

	metrics := &Metrics{
		ActivityType: file.Track.Type,
		StartTime:    startTime,
		Duration:     endTime.Sub(startTime),
		Name:         file.Track.Name,
	}

	prev := points[0]
	for _, curr := range points[1:] {
		metrics.Distance += haversine(prev.Lat, prev.Lon, curr.Lat, curr.Lon)
		if curr.Ele > prev.Ele {
			metrics.ElevationGain += curr.Ele - prev.Ele
		}
		prev = curr
	}

	return metrics, nil
}

// haversine is the great-circle distance between two points, in meters.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}
