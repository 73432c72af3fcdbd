package domain

import "time"

// SourceRef is an opaque handle the transport resolves to the submitted
// video's bytes. It never carries the bytes themselves.
type SourceRef struct {
	FileID string
	Size   int64
}

// MessageRef addresses an editable status message on the transport.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Job is one compression request. It is immutable after creation; run state
// lives on PipelineRun, not here.
type Job struct {
	SubmitterID int64
	Source      SourceRef
	Filename    string
	Size        int64
	Status      MessageRef
	HistoryID   int64
	EnqueuedAt  time.Time
}

type Stage string

const (
	StageCreated           Stage = "created"
	StageDownloading       Stage = "downloading"
	StageProbing           Stage = "probing"
	StageComputingGeometry Stage = "computing_geometry"
	StageTranscoding       Stage = "transcoding"
	StageThumbnail         Stage = "thumbnail"
	StageUploading         Stage = "uploading"
	StageDelivered         Stage = "delivered"
	StageFailed            Stage = "failed"
)

// PipelineRun is the ephemeral execution context of a single job. Every path
// it references lives under WorkspacePath.
type PipelineRun struct {
	WorkspacePath string
	SourcePath    string
	OutputPath    string
	ThumbnailPath string
	StartedAt     time.Time
	Stage         Stage
	LastErr       error
}

// Fail records the terminal error and returns it so call sites can
// `return run.Fail(err)`.
func (r *PipelineRun) Fail(err error) error {
	r.Stage = StageFailed
	r.LastErr = err
	return err
}

// RunStats summarizes a delivered run for the final user message and the
// job history record.
type RunStats struct {
	OriginalSize   int64
	CompressedSize int64
	Elapsed        time.Duration
}

// Reduction returns the size reduction as a percentage of the original size.
func (s RunStats) Reduction() float64 {
	if s.OriginalSize <= 0 {
		return 0
	}
	return float64(s.OriginalSize-s.CompressedSize) / float64(s.OriginalSize) * 100
}
