package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/bnema/shrink/config"
	"github.com/bnema/shrink/internal/domain"
	"github.com/bnema/shrink/internal/infrastructure/logger"
	"github.com/bnema/shrink/internal/port"
)

// thumbnailBound is the longest edge of the uploaded thumbnail image.
const thumbnailBound = 320

// Pipeline executes one job through the download, probe, transcode and
// upload stages inside a dedicated workspace. It owns all user-facing
// status updates for the run; the caller handles failure reporting and
// queue bookkeeping.
type Pipeline struct {
	transport  port.Transport
	encoder    port.Encoder
	workspaces *WorkspaceManager
	tracker    *Tracker
	cfg        *config.Config
}

func NewPipeline(
	transport port.Transport,
	encoder port.Encoder,
	workspaces *WorkspaceManager,
	tracker *Tracker,
	cfg *config.Config,
) *Pipeline {
	return &Pipeline{
		transport:  transport,
		encoder:    encoder,
		workspaces: workspaces,
		tracker:    tracker,
		cfg:        cfg,
	}
}

// Run drives job to a terminal state and returns the delivery stats on
// success or a classified error. The workspace is released on every exit
// path, including panics unwinding through the deferred close.
func (p *Pipeline) Run(ctx context.Context, job *domain.Job) (*domain.RunStats, error) {
	run := &domain.PipelineRun{Stage: domain.StageCreated, StartedAt: time.Now()}
	status := newStatusEditor(p.transport, job.Status)

	ws, err := p.workspaces.Open()
	if err != nil {
		return nil, run.Fail(err)
	}
	run.WorkspacePath = ws
	defer p.workspaces.Close(ws)

	if err := p.download(ctx, job, run, status); err != nil {
		return nil, run.Fail(err)
	}

	probe, err := p.probe(ctx, run, status)
	if err != nil {
		return nil, run.Fail(err)
	}

	run.Stage = domain.StageComputingGeometry
	vs := probe.VideoStream()
	width, height := domain.TargetGeometry(vs.Width, vs.Height, p.cfg.TargetHeight)

	if err := p.transcode(ctx, job, run, status, width, height); err != nil {
		return nil, run.Fail(err)
	}

	processingTime := time.Since(run.StartedAt)

	// The upload attributes come from the output file so dimensions and
	// duration describe what the submitter actually receives.
	run.Stage = domain.StageThumbnail
	outProbe := p.probeOutput(ctx, run)
	p.makeThumbnail(ctx, run, outProbe)

	stats, err := p.upload(ctx, job, run, status, outProbe, processingTime)
	if err != nil {
		return nil, run.Fail(err)
	}

	run.Stage = domain.StageDelivered
	status.Set(fmt.Sprintf(
		"✅ Video compressed and delivered!\n📊 Original size: %s\n📊 Compressed size: %s\n📉 Size reduction: %.1f%%\n⏱ Processing time: %s",
		domain.FormatSizeMB(stats.OriginalSize),
		domain.FormatSizeMB(stats.CompressedSize),
		stats.Reduction(),
		domain.FormatElapsed(stats.Elapsed.Seconds()),
	))
	return stats, nil
}

func (p *Pipeline) download(ctx context.Context, job *domain.Job, run *domain.PipelineRun, status *statusEditor) error {
	run.Stage = domain.StageDownloading
	status.Set("⬇️ Downloading video...")

	run.SourcePath = filepath.Join(run.WorkspacePath, "original_"+safeBasename(job.Filename))

	dlCtx, cancel := context.WithTimeout(ctx, p.cfg.DownloadTimeout)
	defer cancel()

	reporter := &progressReporter{
		tracker:     p.tracker,
		status:      status,
		submitterID: job.SubmitterID,
		direction:   DirectionDownload,
		now:         time.Now,
	}
	if err := p.transport.Download(dlCtx, job.Source, run.SourcePath, reporter.Report); err != nil {
		if errors.Is(dlCtx.Err(), context.DeadlineExceeded) {
			return domain.NewError(domain.CodeDownload,
				fmt.Sprintf("Download timed out after %s.", p.cfg.DownloadTimeout), err)
		}
		return domain.NewError(domain.CodeDownload, "Download failed. Please try again.", err)
	}

	if _, err := os.Stat(run.SourcePath); err != nil {
		return domain.NewError(domain.CodeDownload, "Download failed: file not found after transfer.", err)
	}
	return nil
}

func (p *Pipeline) probe(ctx context.Context, run *domain.PipelineRun, status *statusEditor) (*domain.ProbeResult, error) {
	run.Stage = domain.StageProbing
	status.Set("🔍 Analyzing video...")

	probe, err := p.encoder.Probe(ctx, run.SourcePath)
	if err != nil {
		return nil, err
	}
	vs := probe.VideoStream()
	if vs == nil || vs.Width <= 0 || vs.Height <= 0 {
		return nil, domain.NewError(domain.CodeNoVideoStream, "No video stream found in the file.", nil)
	}
	return probe, nil
}

func (p *Pipeline) transcode(ctx context.Context, job *domain.Job, run *domain.PipelineRun, status *statusEditor, width, height int) error {
	run.Stage = domain.StageTranscoding
	// Encoder progress is not observable, the message stays static until
	// the upload stage takes over.
	status.Set("⚙️ Compressing video...")

	run.OutputPath = filepath.Join(run.WorkspacePath, compressedName(job.Filename))

	encCtx, cancel := context.WithTimeout(ctx, p.cfg.ProcessingTimeout)
	defer cancel()

	err := p.encoder.Transcode(encCtx, run.SourcePath, run.OutputPath, port.EncodeParams{
		Width:        width,
		Height:       height,
		VideoBitrate: p.cfg.VideoBitrate,
		AudioBitrate: p.cfg.AudioBitrate,
		CRF:          p.cfg.CRF,
		Preset:       p.cfg.Preset,
	})
	if err != nil {
		return err
	}

	fi, statErr := os.Stat(run.OutputPath)
	if statErr != nil || fi.Size() == 0 {
		return domain.NewError(domain.CodeEmptyOutput,
			"Compression finished, but the output file is missing or empty.", statErr)
	}
	return nil
}

// probeOutput inspects the encoded file for upload attributes. A probe
// failure here is logged and tolerated: attributes degrade, delivery does
// not.
func (p *Pipeline) probeOutput(ctx context.Context, run *domain.PipelineRun) *domain.ProbeResult {
	probe, err := p.encoder.Probe(ctx, run.OutputPath)
	if err != nil {
		logger.Warn.Printf("could not probe encoded output %s: %v", run.OutputPath, err)
		return &domain.ProbeResult{}
	}
	return probe
}

// makeThumbnail extracts a frame at 10% of the detected duration and fits
// it into the thumbnail bound. Best effort: any failure is logged and
// swallowed, it never blocks delivery.
func (p *Pipeline) makeThumbnail(ctx context.Context, run *domain.PipelineRun, probe *domain.ProbeResult) {
	duration := probe.DurationSeconds()
	if duration <= 0 {
		return
	}

	framePath := filepath.Join(run.WorkspacePath, "frame.jpg")
	if err := p.encoder.Thumbnail(ctx, run.OutputPath, framePath, duration*0.1); err != nil {
		logger.Warn.Printf("could not extract thumbnail frame: %v", err)
		return
	}

	img, err := imaging.Open(framePath)
	if err != nil {
		logger.Warn.Printf("could not open thumbnail frame: %v", err)
		return
	}
	thumbPath := filepath.Join(run.WorkspacePath, "thumb.jpg")
	thumb := imaging.Fit(img, thumbnailBound, thumbnailBound, imaging.Lanczos)
	if err := imaging.Save(thumb, thumbPath); err != nil {
		logger.Warn.Printf("could not save thumbnail: %v", err)
		return
	}
	run.ThumbnailPath = thumbPath
}

func (p *Pipeline) upload(ctx context.Context, job *domain.Job, run *domain.PipelineRun, status *statusEditor, outProbe *domain.ProbeResult, processingTime time.Duration) (*domain.RunStats, error) {
	run.Stage = domain.StageUploading
	status.Set("⬆️ Uploading compressed video...")

	srcInfo, err := os.Stat(run.SourcePath)
	if err != nil {
		return nil, domain.NewError(domain.CodeFilesystem, "Could not read the downloaded file.", err)
	}
	outInfo, err := os.Stat(run.OutputPath)
	if err != nil {
		return nil, domain.NewError(domain.CodeFilesystem, "Could not read the compressed file.", err)
	}

	stats := &domain.RunStats{
		OriginalSize:   srcInfo.Size(),
		CompressedSize: outInfo.Size(),
		Elapsed:        processingTime,
	}

	var width, height int
	if vs := outProbe.VideoStream(); vs != nil {
		width, height = vs.Width, vs.Height
	}

	reporter := &progressReporter{
		tracker:     p.tracker,
		status:      status,
		submitterID: job.SubmitterID,
		direction:   DirectionUpload,
		now:         time.Now,
	}
	err = p.transport.Upload(ctx, job.Status.ChatID, port.VideoUpload{
		Path:          run.OutputPath,
		Filename:      filepath.Base(run.OutputPath),
		Caption:       p.caption(stats),
		ThumbnailPath: run.ThumbnailPath,
		Duration:      int(outProbe.DurationSeconds()),
		Width:         width,
		Height:        height,
		Streaming:     true,
	}, reporter.Report)
	if err != nil {
		return nil, domain.NewError(domain.CodeUpload, "Upload of the compressed video failed.", err)
	}
	return stats, nil
}

func (p *Pipeline) caption(stats *domain.RunStats) string {
	return fmt.Sprintf(
		"🎬 Compressed Video (%dp)\n\n📊 Original size: %s\n📊 Compressed size: %s\n📉 Size reduction: %.1f%%\n⏱ Processing time: %s",
		p.cfg.TargetHeight,
		domain.FormatSizeMB(stats.OriginalSize),
		domain.FormatSizeMB(stats.CompressedSize),
		stats.Reduction(),
		domain.FormatElapsed(stats.Elapsed.Seconds()),
	)
}

func compressedName(original string) string {
	base := strings.TrimSuffix(safeBasename(original), filepath.Ext(original))
	if base == "" {
		base = "video"
	}
	return "compressed_" + base + ".mkv"
}

// safeBasename strips any path components a declared filename might smuggle
// in, so workspace paths stay inside the workspace.
func safeBasename(name string) string {
	base := filepath.Base(filepath.Clean(name))
	if base == "." || base == string(filepath.Separator) {
		return "video"
	}
	return base
}
