package port

import (
	"context"

	"github.com/bnema/shrink/internal/domain"
)

// EncodeParams carries the computed geometry and the configured quality
// settings for one transcode.
type EncodeParams struct {
	Width        int
	Height       int
	VideoBitrate string
	AudioBitrate string
	CRF          int
	Preset       string
}

// Encoder is the external media toolchain. Transcode honors the deadline on
// ctx by terminating the process and returns classified *domain.Error values
// (encoding, processing_timeout). Thumbnail grabs a single frame at the
// given offset.
type Encoder interface {
	Probe(ctx context.Context, path string) (*domain.ProbeResult, error)
	Transcode(ctx context.Context, inputPath, outputPath string, params EncodeParams) error
	Thumbnail(ctx context.Context, inputPath, outputPath string, atSeconds float64) error
}
