package exportserver

import (
	"net/http"

	"github.com/maktaba/corpus/internal/apperr"
	"github.com/maktaba/corpus/internal/jobs"
)

// SubmitJobResponse is returned for both single- and multi-book export
// submissions.
type SubmitJobResponse struct {
	JobID string `json:"job_id"`
}

// handleExportOneBook submits a single book, looked up from the
// catalog, as a one-book job.
func (s *Server) handleExportOneBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		Error(w, r, apperr.Validation("invalid book id"))
		return
	}
	spec, err := s.bookSpec(r, id)
	if err != nil {
		Error(w, r, err)
		return
	}
	jobID := s.Jobs.SubmitJob([]jobs.BookSpec{spec})
	JSON(w, http.StatusAccepted, SubmitJobResponse{JobID: jobID})
}

// ExportBooksRequest is the body for a multi-book export submission.
type ExportBooksRequest struct {
	BookIDs []int64 `json:"book_ids"`
}

// handleExportBooks submits every listed book as a single job; its
// books are drained by the job manager's fixed-size worker pool.
func (s *Server) handleExportBooks(w http.ResponseWriter, r *http.Request) {
	var req ExportBooksRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, r, apperr.Validation("invalid request body"))
		return
	}
	if len(req.BookIDs) == 0 {
		Error(w, r, apperr.Validation("book_ids must not be empty"))
		return
	}

	specs := make([]jobs.BookSpec, 0, len(req.BookIDs))
	for _, id := range req.BookIDs {
		spec, err := s.bookSpec(r, id)
		if err != nil {
			Error(w, r, err)
			return
		}
		specs = append(specs, spec)
	}

	jobID := s.Jobs.SubmitJob(specs)
	JSON(w, http.StatusAccepted, SubmitJobResponse{JobID: jobID})
}

// bookSpec resolves a catalog book and its author/category names into
// the jobs.BookSpec the export pipeline needs.
func (s *Server) bookSpec(r *http.Request, bookID int64) (jobs.BookSpec, error) {
	book, ok, err := s.Catalog.GetBook(r.Context(), bookID)
	if err != nil {
		return jobs.BookSpec{}, apperr.Internal(err)
	}
	if !ok {
		return jobs.BookSpec{}, apperr.NotFound("book", bookID)
	}
	author, _, err := s.Catalog.GetAuthor(r.Context(), book.MainAuthorID)
	if err != nil {
		return jobs.BookSpec{}, apperr.Internal(err)
	}
	category, _, err := s.Catalog.GetCategory(r.Context(), book.CategoryID)
	if err != nil {
		return jobs.BookSpec{}, apperr.Internal(err)
	}
	return jobs.BookSpec{
		BookID:          book.BookID,
		BookName:        book.BookName,
		AuthorName:      author.Name,
		CategoryName:    category.Name,
		AuthorID:        book.MainAuthorID,
		CategoryID:      book.CategoryID,
		TableOfContents: book.TableOfContents,
	}, nil
}
