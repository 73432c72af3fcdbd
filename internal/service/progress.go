package service

import (
	"math"
	"sync"
	"time"
)

// Direction labels which transfer a progress sample belongs to. The values
// double as the user-visible stage names.
type Direction string

const (
	DirectionDownload Direction = "Downloading"
	DirectionUpload   Direction = "Uploading"
)

const (
	emitInterval    = 3 * time.Second
	emitPercentStep = 5.0
)

// Update is the derived display state of an emitted sample. Rate is bytes
// per second; ETA is only meaningful when HasETA is set.
type Update struct {
	Percent float64
	Rate    float64
	ETA     time.Duration
	HasETA  bool
}

type progressKey struct {
	submitterID int64
	direction   Direction
}

type progressState struct {
	startedAt   time.Time
	lastEmitAt  time.Time
	lastPercent float64
	emitted     bool
}

// Tracker rate-limits progress emissions per submitter and transfer
// direction. State is created on the first sample of a transfer and must be
// discarded when the job's run ends; it is never reused across jobs.
type Tracker struct {
	mu     sync.Mutex
	states map[progressKey]*progressState
}

func NewTracker() *Tracker {
	return &Tracker{states: make(map[progressKey]*progressState)}
}

// Sample records a transfer observation and reports whether a status update
// should be emitted now. Emission happens on the first sample, after 3
// seconds of silence, after a 5-point percentage advance, and always on the
// final sample. Suppressed samples leave the stored state untouched.
func (t *Tracker) Sample(submitterID int64, direction Direction, current, total int64, now time.Time) (Update, bool) {
	if total <= 0 {
		return Update{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := progressKey{submitterID: submitterID, direction: direction}
	state, ok := t.states[key]
	if !ok {
		state = &progressState{startedAt: now}
		t.states[key] = state
	}

	percent := math.Round(float64(current)/float64(total)*1000) / 10

	emit := !state.emitted ||
		now.Sub(state.lastEmitAt) > emitInterval ||
		percent-state.lastPercent >= emitPercentStep ||
		current == total
	if !emit {
		return Update{}, false
	}

	state.emitted = true
	state.lastEmitAt = now
	state.lastPercent = percent

	update := Update{Percent: percent}
	if elapsed := now.Sub(state.startedAt).Seconds(); elapsed > 0 {
		update.Rate = float64(current) / elapsed
		if update.Rate > 0 {
			update.ETA = time.Duration(float64(total-current) / update.Rate * float64(time.Second))
			update.HasETA = true
		}
	}
	return update, true
}

// Discard drops all progress state held for a submitter. Called once the
// job reaches a terminal transition.
func (t *Tracker) Discard(submitterID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key := range t.states {
		if key.submitterID == submitterID {
			delete(t.states, key)
		}
	}
}
