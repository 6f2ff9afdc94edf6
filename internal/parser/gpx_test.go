package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx xmlns="http://www.topografix.com/GPX/1/1" creator="test">
  <trk>
    <name>Lakeside Run</name>
    <type>running</type>
    <trkseg>
      <trkpt lat="47.6062" lon="-122.3321">
        <ele>50</ele>
        <time>2023-05-01T08:00:00Z</time>
      </trkpt>
      <trkpt lat="47.6072" lon="-122.3321">
        <ele>55</ele>
        <time>2023-05-01T08:05:00Z</time>
      </trkpt>
      <trkpt lat="47.6082" lon="-122.3321">
        <ele>52</ele>
        <time>2023-05-01T08:10:00Z</time>
      </trkpt>
    </trkseg>
  </trk>
</gpx>`

func TestGPXParse(t *testing.T) {
	m, err := (&GPXParser{}).Parse([]byte(sampleGPX))
	require.NoError(t, err)

	assert.Equal(t, "running", m.ActivityType)
	assert.Equal(t, "Lakeside Run", m.Name)
	assert.Equal(t, time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC), m.StartTime)
	assert.Equal(t, 10*time.Minute, m.Duration)
	// Two ~111m hops along a meridian.
	assert.InDelta(t, 222, m.Distance, 10)
	assert.InDelta(t, 5, m.ElevationGain, 0.001)
}

func TestGPXParseNoPoints(t *testing.T) {
	_, err := (&GPXParser{}).Parse([]byte(`<gpx><trk><name>empty</name></trk></gpx>`))
	assert.ErrorIs(t, err, ErrNoTrackData)
}

const sampleTCX = `<?xml version="1.0" encoding="UTF-8"?>
<TrainingCenterDatabase xmlns="http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2">
  <Activities>
    <Activity Sport="Biking">
      <Lap StartTime="2023-05-01T08:00:00Z">
        <TotalTimeSeconds>600</TotalTimeSeconds>
        <DistanceMeters>5000</DistanceMeters>
      </Lap>
      <Lap StartTime="2023-05-01T08:10:00Z">
        <TotalTimeSeconds>300</TotalTimeSeconds>
        <DistanceMeters>2500</DistanceMeters>
      </Lap>
    </Activity>
  </Activities>
</TrainingCenterDatabase>`

func TestTCXParse(t *testing.T) {
	m, err := (&TCXParser{}).Parse([]byte(sampleTCX))
	require.NoError(t, err)

	assert.Equal(t, "biking", m.ActivityType)
	assert.Equal(t, time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC), m.StartTime)
	assert.Equal(t, 15*time.Minute, m.Duration)
	assert.Equal(t, 7500.0, m.Distance)
}

func TestTCXParseNoActivities(t *testing.T) {
	_, err := (&TCXParser{}).Parse([]byte(`<TrainingCenterDatabase></TrainingCenterDatabase>`))
	assert.ErrorIs(t, err, ErrNoTrackData)
}
