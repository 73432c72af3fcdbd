package service

import (
	"fmt"
	"time"

	"github.com/bnema/shrink/config"
	"github.com/bnema/shrink/internal/domain"
	"github.com/bnema/shrink/internal/infrastructure/logger"
	"github.com/bnema/shrink/internal/port"
)

// Submission is an inbound video event as decoded by the transport adapter.
type Submission struct {
	SubmitterID int64
	ChatID      int64
	Username    string
	FirstName   string
	LastName    string
	Source      domain.SourceRef
	Filename    string
	Size        int64
}

// Bot implements the user-visible command surface: informational replies,
// queue status, pending-job cancellation and video admission.
type Bot struct {
	queue     *Queue
	driver    *Driver
	transport port.Transport
	history   port.History
	cfg       *config.Config
}

func NewBot(queue *Queue, driver *Driver, transport port.Transport, history port.History, cfg *config.Config) *Bot {
	return &Bot{
		queue:     queue,
		driver:    driver,
		transport: transport,
		history:   history,
		cfg:       cfg,
	}
}

func (b *Bot) Start(senderName string) string {
	if senderName == "" {
		senderName = "there"
	}
	return fmt.Sprintf(
		"👋 Hello %s!\n\nI'm a video compression bot. Send me a video file and I'll re-encode it to %dp to shrink it.\n\nCommands:\n/start - show this message\n/help - usage and settings\n/status - check your queue position\n/cancel - cancel your pending job",
		senderName, b.cfg.TargetHeight)
}

func (b *Bot) Help() string {
	return fmt.Sprintf(
		"🎬 Video Compression Bot\n\nSend any video file (as video or document) and wait for the compressed result.\n\nSettings:\n- Target height: %dp\n- Format: MKV\n- Video bitrate: %s\n- Audio bitrate: %s\n- Preset: %s\n- CRF: %d\n\nOne video is processed at a time; /status shows your place in the queue. /cancel only works while your job is still pending.",
		b.cfg.TargetHeight, b.cfg.VideoBitrate, b.cfg.AudioBitrate, b.cfg.Preset, b.cfg.CRF)
}

func (b *Bot) Status(submitterID int64) string {
	position, ok := b.queue.Position(submitterID)
	switch {
	case !ok:
		return "✅ You don't have any videos in the compression queue."
	case position == 0:
		return "⚙️ Your video is currently being processed. Please wait for status updates."
	default:
		return fmt.Sprintf("⏳ Your video is in the queue. Position: %d/%d", position+1, b.queue.Size())
	}
}

// Cancel removes a strictly pending job. The head job is actively running
// and cannot be cancelled; the external encoder is not killed on request.
func (b *Bot) Cancel(submitterID int64) string {
	job, outcome := b.queue.CancelPending(submitterID)
	switch outcome {
	case CancelRunning:
		return "❌ Cannot cancel a job that is already processing. Please wait for it to finish or fail."
	case CancelNotQueued:
		return "❌ You don't have any pending jobs to cancel."
	}

	if err := b.history.MarkCancelled(job.HistoryID); err != nil {
		logger.Warn.Printf("could not mark history job %d cancelled: %v", job.HistoryID, err)
	}
	logger.Info.Printf("submitter %d cancelled a pending job", submitterID)
	return "✅ Your pending job has been cancelled and removed from the queue."
}

// Submit admits a video into the queue. Duplicate submissions and oversized
// files are rejected with a direct reply; admitted jobs get an editable
// status message that tracks their queue position.
func (b *Bot) Submit(sub Submission) error {
	if position, ok := b.queue.Position(sub.SubmitterID); ok {
		var text string
		if position == 0 {
			text = "⏳ You already have a video being processed. Please wait for it to complete."
		} else {
			text = fmt.Sprintf("⏳ You already have a video in the queue (position: %d/%d). Use /cancel to remove it.",
				position+1, b.queue.Size())
		}
		_, err := b.transport.Send(sub.ChatID, text)
		return err
	}

	if sub.Size > b.cfg.MaxFileSizeBytes() {
		logger.Info.Printf("rejected oversized submission from %d: %s", sub.SubmitterID, domain.FormatSizeMB(sub.Size))
		_, err := b.transport.Send(sub.ChatID, fmt.Sprintf(
			"❌ File too large (%s). Maximum allowed size is %d MB.",
			domain.FormatSizeMB(sub.Size), b.cfg.MaxFileSizeMB))
		return err
	}

	historyID := b.recordSubmission(sub)

	ref, err := b.transport.Send(sub.ChatID, fmt.Sprintf(
		"✅ Received: %s\n📊 Size: %s\n⏳ Adding to compression queue...",
		sub.Filename, domain.FormatSizeMB(sub.Size)))
	if err != nil {
		return fmt.Errorf("send status message: %w", err)
	}

	job := &domain.Job{
		SubmitterID: sub.SubmitterID,
		Source:      sub.Source,
		Filename:    sub.Filename,
		Size:        sub.Size,
		Status:      ref,
		HistoryID:   historyID,
		EnqueuedAt:  time.Now(),
	}
	if !b.queue.Enqueue(job) {
		// Lost the race against a concurrent submission from the same
		// sender; the earlier one holds the slot.
		return b.transport.Edit(ref, "⏳ You already have a video in the queue.")
	}

	position, _ := b.queue.Position(sub.SubmitterID)
	size := b.queue.Size()
	if position == 0 {
		err = b.transport.Edit(ref, fmt.Sprintf(
			"✅ Received: %s\n📊 Size: %s\n⚙️ Starting compression (1/%d)...",
			sub.Filename, domain.FormatSizeMB(sub.Size), size))
	} else {
		err = b.transport.Edit(ref, fmt.Sprintf(
			"✅ Received: %s\n📊 Size: %s\n⏳ Added to queue (position: %d/%d)",
			sub.Filename, domain.FormatSizeMB(sub.Size), position+1, size))
	}

	b.driver.Kick()
	return err
}

func (b *Bot) recordSubmission(sub Submission) int64 {
	userID, err := b.history.UpsertUser(sub.SubmitterID, sub.Username, sub.FirstName, sub.LastName)
	if err != nil {
		logger.Warn.Printf("could not upsert user %d: %v", sub.SubmitterID, err)
		return 0
	}
	jobID, err := b.history.CreateJob(userID, sub.Filename, domain.SizeMB(sub.Size))
	if err != nil {
		logger.Warn.Printf("could not record job for user %d: %v", sub.SubmitterID, err)
		return 0
	}
	return jobID
}
