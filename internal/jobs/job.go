// Package jobs supervises multi-book export runs: a bounded worker
// pool drains submitted books, a single lock protects all mutable job
// state, and terminal per-book failures are appended to a dead-letter
// queue for inspection and retry.
package jobs

import (
	"time"

	"github.com/maktaba/corpus/internal/model"
)

// Status is the lifecycle state of a job or a single book within one.
type Status string

const (
	StatusPending             Status = "pending"
	StatusInProgress          Status = "in_progress"
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
	StatusFailed              Status = "failed"
)

// BookSpec is the per-book input a caller submits. It carries
// everything the export orchestrator needs since the job manager
// never talks to the catalog itself.
type BookSpec struct {
	BookID          int64
	BookName        string
	AuthorName      string
	CategoryName    string
	AuthorID        int64
	CategoryID      int64
	TableOfContents []model.ToCEntry
}

// BookResult tracks one book's progress within a job.
type BookResult struct {
	BookID         int64
	Status         Status
	CurrentStep    string
	ChunksEmbedded int
	TotalChunks    int
	StartedAt      *time.Time
	CompletedAt    *time.Time
	Error          string
	RawFilesCount  int
	MetadataURL    string

	spec BookSpec // retained so a DLQ retry can rehydrate the original request
}

// ElapsedSeconds computes the book's running time as of now if it has
// started but not finished, or its final duration once it has.
func (b BookResult) ElapsedSeconds() float64 {
	if b.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if b.CompletedAt != nil {
		end = *b.CompletedAt
	}
	return end.Sub(*b.StartedAt).Seconds()
}

// Record is a transient, in-process job. It is never persisted across
// restarts.
type Record struct {
	JobID     string
	Status    Status
	Books     map[int64]*BookResult
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot returns a deep copy of r suitable for handing to a caller
// without exposing the manager's internal pointers.
func (r *Record) Snapshot() Record {
	out := Record{
		JobID:     r.JobID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Books:     make(map[int64]*BookResult, len(r.Books)),
	}
	for id, b := range r.Books {
		cp := *b
		out.Books[id] = &cp
	}
	return out
}

// DLQEntry records one terminally failed book export.
type DLQEntry struct {
	JobID    string
	BookID   int64
	Error    string
	FailedAt time.Time

	spec BookSpec
}
