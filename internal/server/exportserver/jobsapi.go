package exportserver

import (
	"net/http"
	"strconv"

	"github.com/maktaba/corpus/internal/apperr"
	"github.com/maktaba/corpus/internal/jobs"
)

// ListJobsResponse is the paginated job-listing response.
type ListJobsResponse struct {
	Jobs  []jobs.Record `json:"jobs"`
	Total int           `json:"total"`
}

// handleListJobs returns jobs newest-first, optionally filtered by
// status.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var status *jobs.Status
	if v := q.Get("status"); v != "" {
		st := jobs.Status(v)
		status = &st
	}
	recs, total := s.Jobs.ListJobs(status, queryInt(q, "limit", 50), queryInt(q, "offset", 0))
	JSON(w, http.StatusOK, ListJobsResponse{Jobs: recs, Total: total})
}

// handleGetJob returns one job's current state.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, ok := s.Jobs.GetJob(id)
	if !ok {
		Error(w, r, apperr.NotFound("job", id))
		return
	}
	JSON(w, http.StatusOK, rec)
}

// ListDLQResponse is the paginated dead-letter listing response.
type ListDLQResponse struct {
	Entries []jobs.DLQEntry `json:"entries"`
	Total   int             `json:"total"`
}

// handleListDLQ returns a page of dead-letter entries.
func (s *Server) handleListDLQ(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, total := s.Jobs.GetDLQ(queryInt(q, "limit", 50), queryInt(q, "offset", 0))
	JSON(w, http.StatusOK, ListDLQResponse{Entries: entries, Total: total})
}

// handleRetryDLQEntry resubmits the dead-letter entry at the given
// index as a new single-book job.
func (s *Server) handleRetryDLQEntry(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		Error(w, r, apperr.Validation("invalid dlq index"))
		return
	}
	jobID, ok := s.Jobs.RetryDLQEntry(index)
	if !ok {
		Error(w, r, apperr.NotFound("dlq entry", index))
		return
	}
	JSON(w, http.StatusAccepted, SubmitJobResponse{JobID: jobID})
}

// handleClearDLQ drops every dead-letter entry.
func (s *Server) handleClearDLQ(w http.ResponseWriter, r *http.Request) {
	s.Jobs.ClearDLQ()
	JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
