package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maktaba/corpus/internal/export"
)

// Exporter is the capability a job manager drives per book. Satisfied
// by *export.Orchestrator.
type Exporter interface {
	ExportBook(ctx context.Context, req export.Request, progress export.ProgressFunc) (export.Result, error)
}

// task is one unit of work handed to a pool worker.
type task struct {
	jobID string
	spec  BookSpec
}

// Manager runs a fixed-size pool of workers draining a shared FIFO of
// per-book export tasks. One mutex guards every mutable job, so reads
// and writes from worker goroutines and from polling callers never
// race; snapshots returned to callers are always deep copies taken
// under that lock.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*Record
	jobOrder []string
	dlq      []DLQEntry

	exporter Exporter
	logger   *slog.Logger
	queue    chan task
	workers  int

	startOnce sync.Once
	wg        sync.WaitGroup
}

// DefaultWorkers is the pool size used when NewManager is given zero.
const DefaultWorkers = 3

// NewManager builds a manager backed by exporter. workers <= 0 falls
// back to DefaultWorkers.
func NewManager(exporter Exporter, workers int, logger *slog.Logger) *Manager {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		jobs:     make(map[string]*Record),
		exporter: exporter,
		logger:   logger,
		queue:    make(chan task, 1024),
		workers:  workers,
	}
}

// Start launches the worker pool. It is idempotent; only the first
// call has any effect. Workers run until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		for i := 0; i < m.workers; i++ {
			m.wg.Add(1)
			go m.runWorker(ctx, i)
		}
	})
}

// Wait blocks until every worker goroutine has exited, which only
// happens once ctx passed to Start is cancelled. Workers stop without
// draining the queue; tasks still queued at that point are not run.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// SubmitJob allocates a job record with every book pending, dispatches
// its tasks to the pool, and returns immediately.
func (m *Manager) SubmitJob(books []BookSpec) string {
	jobID := uuid.NewString()
	now := time.Now()

	rec := &Record{
		JobID:     jobID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Books:     make(map[int64]*BookResult, len(books)),
	}
	for _, b := range books {
		rec.Books[b.BookID] = &BookResult{BookID: b.BookID, Status: StatusPending, spec: b}
	}

	m.mu.Lock()
	m.jobs[jobID] = rec
	m.jobOrder = append(m.jobOrder, jobID)
	m.mu.Unlock()

	for _, b := range books {
		m.queue <- task{jobID: jobID, spec: b}
	}
	return jobID
}

// GetJob returns a snapshot of one job, or false if it does not exist.
func (m *Manager) GetJob(jobID string) (Record, bool) {
	m.mu.Lock()
	rec, ok := m.jobs[jobID]
	if !ok {
		m.mu.Unlock()
		return Record{}, false
	}
	snap := rec.Snapshot()
	m.mu.Unlock()
	return snap, true
}

// ListJobs returns jobs newest-first, optionally filtered by status,
// along with the total count before pagination.
func (m *Manager) ListJobs(status *Status, limit, offset int) ([]Record, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Record
	for i := len(m.jobOrder) - 1; i >= 0; i-- {
		rec := m.jobs[m.jobOrder[i]]
		if status != nil && rec.Status != *status {
			continue
		}
		matched = append(matched, rec.Snapshot())
	}

	total := len(matched)
	if offset >= total {
		return nil, total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matched[offset:end], total
}

// GetDLQ returns a page of dead-letter entries and the total count.
func (m *Manager) GetDLQ(limit, offset int) ([]DLQEntry, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := len(m.dlq)
	if offset >= total {
		return nil, total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	out := make([]DLQEntry, end-offset)
	copy(out, m.dlq[offset:end])
	return out, total
}

// RetryDLQEntry removes the entry at index and resubmits its book as a
// new single-book job, returning the new job id. False if index is out
// of range.
func (m *Manager) RetryDLQEntry(index int) (string, bool) {
	m.mu.Lock()
	if index < 0 || index >= len(m.dlq) {
		m.mu.Unlock()
		return "", false
	}
	entry := m.dlq[index]
	m.dlq = append(m.dlq[:index], m.dlq[index+1:]...)
	m.mu.Unlock()

	return m.SubmitJob([]BookSpec{entry.spec}), true
}

// ClearDLQ drops every dead-letter entry.
func (m *Manager) ClearDLQ() {
	m.mu.Lock()
	m.dlq = nil
	m.mu.Unlock()
}

func (m *Manager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-m.queue:
			if !ok {
				return
			}
			m.runBook(ctx, t)
		}
	}
}

// runBook executes one book's export and folds the result back into
// its job's state, finalizing the job status once every book in it
// has reached a terminal state.
func (m *Manager) runBook(ctx context.Context, t task) {
	now := time.Now()
	m.mu.Lock()
	rec := m.jobs[t.jobID]
	rec.Status = StatusInProgress
	rec.UpdatedAt = now
	book := rec.Books[t.spec.BookID]
	book.Status = StatusInProgress
	book.CurrentStep = "queued"
	book.StartedAt = &now
	m.mu.Unlock()

	progress := func(event string, value any) {
		m.mu.Lock()
		defer m.mu.Unlock()
		switch event {
		case "step":
			if step, ok := value.(string); ok {
				book.CurrentStep = step
			}
		case "chunking_done":
			if n, ok := value.(int); ok {
				book.TotalChunks = n
			}
		case "embedding_progress":
			if n, ok := value.(int); ok {
				book.ChunksEmbedded = n
			}
		}
		rec.UpdatedAt = time.Now()
	}

	result, err := m.exporter.ExportBook(ctx, export.Request{
		BookID:          t.spec.BookID,
		BookName:        t.spec.BookName,
		AuthorName:      t.spec.AuthorName,
		CategoryName:    t.spec.CategoryName,
		AuthorID:        t.spec.AuthorID,
		CategoryID:      t.spec.CategoryID,
		TableOfContents: t.spec.TableOfContents,
	}, progress)

	completed := time.Now()
	m.mu.Lock()
	book.CompletedAt = &completed
	if err != nil {
		book.Status = StatusFailed
		book.Error = err.Error()
		m.dlq = append(m.dlq, DLQEntry{JobID: t.jobID, BookID: t.spec.BookID, Error: err.Error(), FailedAt: completed, spec: t.spec})
		m.logger.Error("book export failed", "job_id", t.jobID, "book_id", t.spec.BookID, "error", err)
	} else {
		book.Status = StatusCompleted
		book.RawFilesCount = result.RawFilesCount
		book.MetadataURL = result.MetadataURL
	}
	rec.UpdatedAt = completed
	m.finalizeIfDone(rec)
	m.mu.Unlock()
}

// finalizeIfDone must be called with m.mu held. It computes the job's
// terminal status once every book has finished.
func (m *Manager) finalizeIfDone(rec *Record) {
	allCompleted, allFailed, anyPending := true, true, false
	for _, b := range rec.Books {
		switch b.Status {
		case StatusCompleted:
			allFailed = false
		case StatusFailed:
			allCompleted = false
		default:
			anyPending = true
		}
	}
	if anyPending {
		return
	}
	switch {
	case allCompleted:
		rec.Status = StatusCompleted
	case allFailed:
		rec.Status = StatusFailed
	default:
		rec.Status = StatusCompletedWithErrors
	}
}
