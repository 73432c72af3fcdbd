package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/shrink/internal/domain"
)

func newTestDriver(t *testing.T, transport *fakeTransport, encoder *fakeEncoder, history *fakeHistory) (*Driver, *Queue) {
	t.Helper()
	pipeline, _ := newTestPipeline(t, transport, encoder)
	queue := NewQueue()
	tracker := NewTracker()
	return NewDriver(queue, pipeline, tracker, transport, history), queue
}

func TestDriver_DrainEmptyQueueIsNoop(t *testing.T) {
	transport := newFakeTransport()
	driver, _ := newTestDriver(t, transport, newFakeEncoder(), newFakeHistory())

	driver.drain(context.Background())

	assert.Empty(t, transport.editTexts())
}

func TestDriver_ProcessesHeadAndRemovesIt(t *testing.T) {
	transport := newFakeTransport()
	history := newFakeHistory()
	driver, queue := newTestDriver(t, transport, newFakeEncoder(), history)

	j := testJob(1)
	require.True(t, queue.Enqueue(j))
	driver.drain(context.Background())

	assert.Equal(t, 0, queue.Size())
	assert.Len(t, transport.uploads, 1)
	assert.Equal(t, []int64{j.HistoryID}, history.started)
	assert.Equal(t, []int64{j.HistoryID}, history.completed)
}

func TestDriver_FailureAdvancesQueue(t *testing.T) {
	transport := newFakeTransport()
	encoder := newFakeEncoder()
	encoder.transcodeErrs = []error{
		domain.NewError(domain.CodeEncoding, "Compression failed: codec not found", assert.AnError),
	}
	history := newFakeHistory()
	driver, queue := newTestDriver(t, transport, encoder, history)

	first := testJob(1)
	second := testJob(2)
	queue.Enqueue(first)
	queue.Enqueue(second)

	driver.drain(context.Background())

	assert.Equal(t, 0, queue.Size(), "a failure never stalls the queue")
	assert.Len(t, transport.uploads, 1, "second job still delivered")
	assert.Contains(t, history.failed[first.HistoryID], "codec not found")
	assert.Equal(t, []int64{second.HistoryID}, history.completed)

	var sawError bool
	for _, text := range transport.editTexts() {
		if text == "❌ Error: Compression failed: codec not found" {
			sawError = true
		}
	}
	assert.True(t, sawError, "failure excerpt reported to the submitter")
}

func TestDriver_PanicIsContained(t *testing.T) {
	transport := newFakeTransport()
	encoder := newFakeEncoder()
	encoder.probeResult = nil // nil deref inside the run
	history := newFakeHistory()
	driver, queue := newTestDriver(t, transport, encoder, history)

	queue.Enqueue(testJob(1))
	queue.Enqueue(testJob(2))

	require.NotPanics(t, func() { driver.drain(context.Background()) })
	assert.Equal(t, 0, queue.Size())
}

func TestDriver_StartKicksPrepopulatedQueue(t *testing.T) {
	transport := newFakeTransport()
	history := newFakeHistory()
	driver, queue := newTestDriver(t, transport, newFakeEncoder(), history)

	queue.Enqueue(testJob(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	driver.Start(ctx)

	require.Eventually(t, func() bool {
		return queue.Size() == 0
	}, 5*time.Second, 10*time.Millisecond, "startup kick processes the existing queue")
}

func TestDriver_WorkspaceReleasedAfterEachRun(t *testing.T) {
	transport := newFakeTransport()
	encoder := newFakeEncoder()
	pipeline, cfg := newTestPipeline(t, transport, encoder)
	queue := NewQueue()
	driver := NewDriver(queue, pipeline, NewTracker(), transport, newFakeHistory())

	queue.Enqueue(testJob(1))
	queue.Enqueue(testJob(2))
	driver.drain(context.Background())

	entries, err := os.ReadDir(cfg.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
