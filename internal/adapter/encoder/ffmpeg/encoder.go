package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/bnema/shrink/internal/domain"
	"github.com/bnema/shrink/internal/infrastructure/logger"
	"github.com/bnema/shrink/internal/port"
)

// killGrace is how long Wait lingers after the process is killed on a
// context deadline before the pipes are forced closed.
const killGrace = 10 * time.Second

type Encoder struct {
	ffmpegPath  string
	ffprobePath string
}

func NewEncoder() *Encoder {
	return &Encoder{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
	}
}

func (e *Encoder) Probe(ctx context.Context, path string) (*domain.ProbeResult, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, domain.NewError(domain.CodeProbe, "Could not analyze the video file.",
			fmt.Errorf("ffprobe %s: %w (%s)", path, err, exitStderr(err)))
	}
	return parseProbe(output)
}

func parseProbe(output []byte) (*domain.ProbeResult, error) {
	var result domain.ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, domain.NewError(domain.CodeProbe, "Could not analyze the video file.",
			fmt.Errorf("parse ffprobe output: %w", err))
	}
	return &result, nil
}

// Transcode runs ffmpeg with the computed geometry and quality settings.
// When the ctx deadline expires the process is killed and awaited, and the
// error is classified as a processing timeout; a nonzero exit carries a
// truncated stderr excerpt.
func (e *Encoder) Transcode(ctx context.Context, inputPath, outputPath string, params port.EncodeParams) error {
	args := transcodeArgs(inputPath, outputPath, params)
	logger.Info.Printf("running %s %v", e.ffmpegPath, args)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = killGrace

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewError(domain.CodeProcessingTimeout,
			"Processing timed out.", fmt.Errorf("ffmpeg killed on deadline: %w", err))
	}

	logger.Error.Printf("ffmpeg failed: %v\n%s", err, logger.SanitizeForLog(stderr.String()))
	return domain.NewError(domain.CodeEncoding,
		"Compression failed: "+domain.Excerpt(stderr.String()), err)
}

func transcodeArgs(inputPath, outputPath string, p port.EncodeParams) []string {
	return []string{
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=%d:%d", p.Width, p.Height),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:v", p.VideoBitrate,
		"-b:a", p.AudioBitrate,
		"-preset", p.Preset,
		"-crf", strconv.Itoa(p.CRF),
		"-f", "matroska",
		"-y", outputPath,
	}
}

// Thumbnail grabs a single frame at the given offset. Callers treat errors
// as non-fatal.
func (e *Encoder) Thumbnail(ctx context.Context, inputPath, outputPath string, atSeconds float64) error {
	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-ss", fmt.Sprintf("%.2f", atSeconds),
		"-i", inputPath,
		"-vframes", "1",
		"-f", "image2",
		"-y", outputPath,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("extract frame at %.2fs: %w", atSeconds, err)
	}
	return nil
}

// exitStderr surfaces the stderr Output() captured on an ExitError.
func exitStderr(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return domain.Excerpt(string(exitErr.Stderr))
	}
	return ""
}

var _ port.Encoder = (*Encoder)(nil)
