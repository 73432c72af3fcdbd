package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProbeOutput = `{
  "streams": [
    {"index": 0, "codec_type": "audio", "codec_name": "aac"},
    {"index": 1, "codec_type": "video", "codec_name": "h264",
     "width": 1920, "height": 1080, "duration": "120.500000"}
  ],
  "format": {"format_name": "mov,mp4", "duration": "121.000000", "size": "1048576"}
}`

func TestProbeResult_FromFFProbeJSON(t *testing.T) {
	var probe ProbeResult
	require.NoError(t, json.Unmarshal([]byte(sampleProbeOutput), &probe))

	vs := probe.VideoStream()
	require.NotNil(t, vs)
	assert.Equal(t, 1920, vs.Width)
	assert.Equal(t, 1080, vs.Height)
	assert.InDelta(t, 120.5, probe.DurationSeconds(), 0.001, "stream duration preferred")
}

func TestProbeResult_NoVideoStream(t *testing.T) {
	probe := &ProbeResult{Streams: []ProbeStream{{CodecType: "audio"}}}
	assert.Nil(t, probe.VideoStream())
}

func TestProbeResult_DurationFallsBackToContainer(t *testing.T) {
	probe := &ProbeResult{
		Format:  ProbeFormat{Duration: "95.2"},
		Streams: []ProbeStream{{CodecType: "video", Duration: "N/A"}},
	}
	assert.InDelta(t, 95.2, probe.DurationSeconds(), 0.001)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 12.5, ParseDuration("12.5"))
	assert.Zero(t, ParseDuration(""))
	assert.Zero(t, ParseDuration("N/A"))
	assert.Zero(t, ParseDuration("garbage"))
}
