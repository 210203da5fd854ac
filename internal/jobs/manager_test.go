package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maktaba/corpus/internal/export"
)

type fakeExporter struct {
	mu       sync.Mutex
	calls    []int64
	failFor  map[int64]error
	blockFor map[int64]chan struct{}
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{failFor: map[int64]error{}, blockFor: map[int64]chan struct{}{}}
}

func (f *fakeExporter) ExportBook(ctx context.Context, req export.Request, progress export.ProgressFunc) (export.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.BookID)
	failErr := f.failFor[req.BookID]
	wait := f.blockFor[req.BookID]
	f.mu.Unlock()

	if progress != nil {
		progress("step", "exporting")
		progress("chunking_done", 10)
		progress("embedding_progress", 10)
	}
	if wait != nil {
		<-wait
	}
	if failErr != nil {
		return export.Result{}, failErr
	}
	return export.Result{RawFilesCount: 3, MetadataURL: "https://example/metadata.json"}, nil
}

func waitForJobDone(t *testing.T, m *Manager, jobID string) Record {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec, ok := m.GetJob(jobID)
		require.True(t, ok)
		if rec.Status == StatusCompleted || rec.Status == StatusFailed || rec.Status == StatusCompletedWithErrors {
			return rec
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return Record{}
}

func TestManagerSubmitJobRunsAllBooksToCompletion(t *testing.T) {
	exporter := newFakeExporter()
	m := NewManager(exporter, 2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	jobID := m.SubmitJob([]BookSpec{{BookID: 1}, {BookID: 2}})
	rec := waitForJobDone(t, m, jobID)

	require.Equal(t, StatusCompleted, rec.Status)
	require.Len(t, rec.Books, 2)
	for _, b := range rec.Books {
		require.Equal(t, StatusCompleted, b.Status)
		require.Equal(t, 10, b.ChunksEmbedded)
		require.Equal(t, 3, b.RawFilesCount)
	}
}

func TestManagerMixedResultsIsCompletedWithErrors(t *testing.T) {
	exporter := newFakeExporter()
	exporter.failFor[2] = errors.New("boom")
	m := NewManager(exporter, 2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	jobID := m.SubmitJob([]BookSpec{{BookID: 1}, {BookID: 2}})
	rec := waitForJobDone(t, m, jobID)

	require.Equal(t, StatusCompletedWithErrors, rec.Status)
	require.Equal(t, StatusCompleted, rec.Books[1].Status)
	require.Equal(t, StatusFailed, rec.Books[2].Status)
	require.Equal(t, "boom", rec.Books[2].Error)

	entries, total := m.GetDLQ(10, 0)
	require.Equal(t, 1, total)
	require.Equal(t, int64(2), entries[0].BookID)
}

func TestManagerAllFailedJobIsFailed(t *testing.T) {
	exporter := newFakeExporter()
	exporter.failFor[1] = errors.New("boom")
	m := NewManager(exporter, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	jobID := m.SubmitJob([]BookSpec{{BookID: 1}})
	rec := waitForJobDone(t, m, jobID)
	require.Equal(t, StatusFailed, rec.Status)
}

func TestManagerListJobsNewestFirstWithStatusFilter(t *testing.T) {
	exporter := newFakeExporter()
	m := NewManager(exporter, 2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	first := m.SubmitJob([]BookSpec{{BookID: 1}})
	waitForJobDone(t, m, first)
	second := m.SubmitJob([]BookSpec{{BookID: 2}})
	waitForJobDone(t, m, second)

	jobs, total := m.ListJobs(nil, 10, 0)
	require.Equal(t, 2, total)
	require.Equal(t, second, jobs[0].JobID)
	require.Equal(t, first, jobs[1].JobID)

	completed := StatusCompleted
	filtered, filteredTotal := m.ListJobs(&completed, 10, 0)
	require.Equal(t, 2, filteredTotal)
	require.Len(t, filtered, 2)
}

func TestManagerRetryDLQEntryResubmitsAsNewJob(t *testing.T) {
	exporter := newFakeExporter()
	exporter.failFor[1] = errors.New("boom")
	m := NewManager(exporter, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	jobID := m.SubmitJob([]BookSpec{{BookID: 1, BookName: "b"}})
	waitForJobDone(t, m, jobID)

	exporter.mu.Lock()
	delete(exporter.failFor, 1)
	exporter.mu.Unlock()

	newJobID, ok := m.RetryDLQEntry(0)
	require.True(t, ok)
	require.NotEqual(t, jobID, newJobID)

	rec := waitForJobDone(t, m, newJobID)
	require.Equal(t, StatusCompleted, rec.Status)

	_, total := m.GetDLQ(10, 0)
	require.Zero(t, total)
}

func TestManagerClearDLQDropsAllEntries(t *testing.T) {
	exporter := newFakeExporter()
	exporter.failFor[1] = errors.New("boom")
	m := NewManager(exporter, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	jobID := m.SubmitJob([]BookSpec{{BookID: 1}})
	waitForJobDone(t, m, jobID)

	m.ClearDLQ()
	_, total := m.GetDLQ(10, 0)
	require.Zero(t, total)
}

func TestBookResultElapsedSecondsGrowsWhileRunning(t *testing.T) {
	start := time.Now().Add(-2 * time.Second)
	b := BookResult{StartedAt: &start}
	require.Greater(t, b.ElapsedSeconds(), 1.5)
}
