package domain

import "strconv"

// ProbeFormat is the container-level section of an ffprobe report.
type ProbeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

type ProbeStream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
	BitRate   string `json:"bit_rate"`
}

type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

// VideoStream returns the first video stream, or nil when the file has none.
func (p *ProbeResult) VideoStream() *ProbeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "video" {
			return &p.Streams[i]
		}
	}
	return nil
}

// DurationSeconds returns the media duration, preferring the video stream's
// own duration and falling back to the container. Matroska streams often
// omit per-stream durations.
func (p *ProbeResult) DurationSeconds() float64 {
	if vs := p.VideoStream(); vs != nil {
		if d := ParseDuration(vs.Duration); d > 0 {
			return d
		}
	}
	return ParseDuration(p.Format.Duration)
}

func ParseDuration(s string) float64 {
	if s == "" || s == "N/A" {
		return 0
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return d
}
