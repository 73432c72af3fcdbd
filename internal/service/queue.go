package service

import (
	"sync"

	"github.com/bnema/shrink/internal/domain"
)

// Queue is the in-memory FIFO of pending jobs, keyed by submitter id. Each
// submitter holds at most one slot. All operations run under a single short
// critical section and never block on anything but the lock itself.
type Queue struct {
	mu   sync.Mutex
	jobs []*domain.Job
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends job to the tail unless the submitter already holds a slot.
// It reports whether the job was inserted.
func (q *Queue) Enqueue(job *domain.Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, j := range q.jobs {
		if j.SubmitterID == job.SubmitterID {
			return false
		}
	}
	q.jobs = append(q.jobs, job)
	return true
}

// Peek returns the head job without removing it.
func (q *Queue) Peek() (*domain.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return nil, false
	}
	return q.jobs[0], true
}

// Remove deletes the submitter's job wherever it sits in the sequence. It
// serves both completion of the head and cancellation of a pending entry.
func (q *Queue) Remove(submitterID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, j := range q.jobs {
		if j.SubmitterID == submitterID {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			return true
		}
	}
	return false
}

// CancelOutcome reports what CancelPending found under its critical section.
type CancelOutcome int

const (
	CancelNotQueued CancelOutcome = iota
	CancelRunning
	CancelRemoved
)

// CancelPending removes the submitter's job only while it is strictly
// pending (position > 0); the head is the active run and is refused. Check
// and removal share one lock so a concurrent dequeue cannot slip between
// them.
func (q *Queue) CancelPending(submitterID int64) (*domain.Job, CancelOutcome) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, j := range q.jobs {
		if j.SubmitterID != submitterID {
			continue
		}
		if i == 0 {
			return nil, CancelRunning
		}
		q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
		return j, CancelRemoved
	}
	return nil, CancelNotQueued
}

// Position returns the 0-based position of the submitter's job from the
// head, if present.
func (q *Queue) Position(submitterID int64) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, j := range q.jobs {
		if j.SubmitterID == submitterID {
			return i, true
		}
	}
	return 0, false
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
