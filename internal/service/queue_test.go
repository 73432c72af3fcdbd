package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/shrink/internal/domain"
)

func job(submitterID int64) *domain.Job {
	return &domain.Job{SubmitterID: submitterID}
}

func TestQueue_EnqueueDeduplicates(t *testing.T) {
	q := NewQueue()

	assert.True(t, q.Enqueue(job(1)))
	assert.True(t, q.Enqueue(job(2)))
	assert.False(t, q.Enqueue(job(1)), "duplicate enqueue must be a no-op")
	assert.Equal(t, 2, q.Size())
}

func TestQueue_FIFOPositions(t *testing.T) {
	q := NewQueue()
	for id := int64(1); id <= 3; id++ {
		q.Enqueue(job(id))
	}

	for id := int64(1); id <= 3; id++ {
		pos, ok := q.Position(id)
		require.True(t, ok)
		assert.Equal(t, int(id-1), pos)
	}

	_, ok := q.Position(99)
	assert.False(t, ok)
}

func TestQueue_RemoveHeadShiftsPositions(t *testing.T) {
	q := NewQueue()
	q.Enqueue(job(1))
	q.Enqueue(job(2))
	q.Enqueue(job(3))

	assert.True(t, q.Remove(1))

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, int64(2), head.SubmitterID)

	pos, ok := q.Position(2)
	require.True(t, ok)
	assert.Equal(t, 0, pos)

	pos, ok = q.Position(3)
	require.True(t, ok)
	assert.Equal(t, 1, pos)
}

func TestQueue_RemoveMiddle(t *testing.T) {
	q := NewQueue()
	q.Enqueue(job(1))
	q.Enqueue(job(2))
	q.Enqueue(job(3))

	assert.True(t, q.Remove(2))
	assert.False(t, q.Remove(2), "second removal reports nothing to remove")

	pos, ok := q.Position(3)
	require.True(t, ok)
	assert.Equal(t, 1, pos)
	assert.Equal(t, 2, q.Size())
}

func TestQueue_PeekEmpty(t *testing.T) {
	q := NewQueue()
	_, ok := q.Peek()
	assert.False(t, ok)
}

func TestQueue_CancelPending(t *testing.T) {
	q := NewQueue()
	q.Enqueue(&domain.Job{SubmitterID: 1, HistoryID: 11})
	q.Enqueue(&domain.Job{SubmitterID: 2, HistoryID: 22})
	q.Enqueue(&domain.Job{SubmitterID: 3, HistoryID: 33})

	_, outcome := q.CancelPending(1)
	assert.Equal(t, CancelRunning, outcome, "head job cannot be cancelled")

	_, outcome = q.CancelPending(99)
	assert.Equal(t, CancelNotQueued, outcome)

	cancelled, outcome := q.CancelPending(2)
	assert.Equal(t, CancelRemoved, outcome)
	assert.Equal(t, int64(22), cancelled.HistoryID)

	pos, ok := q.Position(3)
	require.True(t, ok)
	assert.Equal(t, 1, pos, "remaining jobs shift forward")
}

func TestQueue_ConcurrentEnqueue(t *testing.T) {
	q := NewQueue()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			q.Enqueue(job(id))
			q.Enqueue(job(id))
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 50, q.Size(), "one slot per submitter regardless of races")
}
