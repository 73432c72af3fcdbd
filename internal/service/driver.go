package service

import (
	"context"
	"runtime/debug"

	"github.com/bnema/shrink/internal/domain"
	"github.com/bnema/shrink/internal/infrastructure/logger"
	"github.com/bnema/shrink/internal/port"
)

// Driver pulls jobs off the queue head and runs them one at a time. A
// single loop goroutine drains the queue, so at most one pipeline run is
// ever active; new submissions kick the loop through a buffered signal
// channel instead of recursing, keeping stack depth flat regardless of
// queue length.
type Driver struct {
	queue     *Queue
	pipeline  *Pipeline
	tracker   *Tracker
	transport port.Transport
	history   port.History
	kick      chan struct{}
}

func NewDriver(queue *Queue, pipeline *Pipeline, tracker *Tracker, transport port.Transport, history port.History) *Driver {
	return &Driver{
		queue:     queue,
		pipeline:  pipeline,
		tracker:   tracker,
		transport: transport,
		history:   history,
		kick:      make(chan struct{}, 1),
	}
}

// Start launches the drive loop and kicks it once, which covers a queue
// already populated at startup.
func (d *Driver) Start(ctx context.Context) {
	go d.loop(ctx)
	d.Kick()
}

// Kick schedules a drive pass. Safe to call from any goroutine; redundant
// kicks coalesce.
func (d *Driver) Kick() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

func (d *Driver) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.kick:
			d.drain(ctx)
		}
	}
}

// drain processes queued jobs head-first until the queue is empty. The head
// is only removed after its run has terminated and cleaned up, so a /status
// query during the run still reports position 0.
func (d *Driver) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, ok := d.queue.Peek()
		if !ok {
			return
		}
		d.runOne(ctx, job)
		d.queue.Remove(job.SubmitterID)
	}
}

func (d *Driver) runOne(ctx context.Context, job *domain.Job) {
	defer d.tracker.Discard(job.SubmitterID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error.Printf("panic while processing job for submitter %d: %v\n%s",
				job.SubmitterID, r, debug.Stack())
			d.report(job, "❌ An unexpected internal error occurred. Please try again later.")
			d.recordFailure(job, "internal error")
		}
	}()

	logger.Info.Printf("starting pipeline for submitter %d (file=%s, size=%s)",
		job.SubmitterID, logger.SanitizeForLog(job.Filename), domain.FormatSizeMB(job.Size))

	if err := d.history.MarkStarted(job.HistoryID); err != nil {
		logger.Warn.Printf("could not mark history job %d started: %v", job.HistoryID, err)
	}

	stats, err := d.pipeline.Run(ctx, job)
	if err != nil {
		logger.Error.Printf("pipeline failed for submitter %d (code=%s): %v",
			job.SubmitterID, domain.CodeOf(err), err)
		d.report(job, "❌ Error: "+domain.UserMessage(err))
		d.recordFailure(job, err.Error())
		return
	}

	logger.Info.Printf("delivered for submitter %d: %s -> %s (%.1f%% smaller, %s)",
		job.SubmitterID,
		domain.FormatSizeMB(stats.OriginalSize),
		domain.FormatSizeMB(stats.CompressedSize),
		stats.Reduction(),
		stats.Elapsed)

	err = d.history.MarkCompleted(job.HistoryID,
		domain.SizeMB(stats.CompressedSize), stats.Reduction(), stats.Elapsed.Seconds())
	if err != nil {
		logger.Warn.Printf("could not mark history job %d completed: %v", job.HistoryID, err)
	}
}

func (d *Driver) report(job *domain.Job, text string) {
	newStatusEditor(d.transport, job.Status).Set(text)
}

func (d *Driver) recordFailure(job *domain.Job, errMsg string) {
	if err := d.history.MarkFailed(job.HistoryID, errMsg); err != nil {
		logger.Warn.Printf("could not mark history job %d failed: %v", job.HistoryID, err)
	}
}
