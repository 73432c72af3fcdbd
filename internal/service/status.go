package service

import (
	"fmt"
	"time"

	"github.com/bnema/shrink/internal/domain"
	"github.com/bnema/shrink/internal/infrastructure/logger"
	"github.com/bnema/shrink/internal/port"
)

// maxRateLimitWait bounds how long a status update will sleep on a
// transport "retry after" before giving up or retrying.
const maxRateLimitWait = 30 * time.Second

// statusEditor owns one submitter's editable status message. Required stage
// transitions retry once after a rate-limit wait; throttled progress frames
// are dropped instead, they are superseded by the next sample anyway.
type statusEditor struct {
	transport port.Transport
	ref       domain.MessageRef
	sleep     func(time.Duration)
}

func newStatusEditor(transport port.Transport, ref domain.MessageRef) *statusEditor {
	return &statusEditor{transport: transport, ref: ref, sleep: time.Sleep}
}

// Set publishes a required status transition.
func (s *statusEditor) Set(text string) {
	err := s.transport.Edit(s.ref, text)
	if err == nil {
		return
	}
	if rl, ok := domain.AsRateLimited(err); ok {
		s.sleep(boundedWait(rl.RetryAfter))
		if err = s.transport.Edit(s.ref, text); err == nil {
			return
		}
	}
	logger.Warn.Printf("could not update status message %d/%d: %v",
		s.ref.ChatID, s.ref.MessageID, err)
}

// SetProgress publishes a throttled progress frame, best effort.
func (s *statusEditor) SetProgress(text string) {
	err := s.transport.Edit(s.ref, text)
	if err == nil {
		return
	}
	if rl, ok := domain.AsRateLimited(err); ok {
		// Pause so follow-up frames do not hammer the transport, but do
		// not retry: the next sample carries fresher numbers.
		s.sleep(boundedWait(rl.RetryAfter))
		return
	}
	logger.Warn.Printf("progress update failed for message %d/%d: %v",
		s.ref.ChatID, s.ref.MessageID, err)
}

func boundedWait(d time.Duration) time.Duration {
	if d > maxRateLimitWait {
		return maxRateLimitWait
	}
	if d <= 0 {
		return time.Second
	}
	return d + time.Second
}

// progressReporter adapts tracker decisions into status message edits. It
// carries its context explicitly so transfer callbacks never close over
// mutable pipeline state.
type progressReporter struct {
	tracker     *Tracker
	status      *statusEditor
	submitterID int64
	direction   Direction
	now         func() time.Time
}

func (r *progressReporter) Report(current, total int64) {
	update, emit := r.tracker.Sample(r.submitterID, r.direction, current, total, r.now())
	if !emit {
		return
	}

	text := fmt.Sprintf("🔄 Status: %s\n📊 Progress: %.1f%% (%.1f MB/s)",
		r.direction, update.Percent, update.Rate/(1024*1024))
	if update.HasETA && update.ETA > 0 {
		text += fmt.Sprintf("\n⏳ ETA: %s", domain.FormatElapsed(update.ETA.Seconds()))
	}
	r.status.SetProgress(text)
}
