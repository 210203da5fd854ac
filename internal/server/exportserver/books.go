package exportserver

import (
	"net/http"
	"strconv"

	"github.com/maktaba/corpus/internal/apperr"
	"github.com/maktaba/corpus/internal/catalog"
)

// ListBooksResponse is the paginated book-listing response.
type ListBooksResponse struct {
	BookIDs []int64 `json:"book_ids"`
	Total   int     `json:"total"`
}

// handleListBooks applies the catalog's filter query parameters and
// returns matching book ids with a total count for pagination.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{
		NameSubstring: q.Get("name"),
		Limit:         queryInt(q, "limit", 100),
		Offset:        queryInt(q, "offset", 0),
	}
	if v := q.Get("author_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.AuthorID = &id
		}
	}
	if v := q.Get("category_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.CategoryID = &id
		}
	}
	if v := q.Get("hidden"); v != "" {
		b := v == "true"
		f.Hidden = &b
	}

	ids, total, err := s.Catalog.ListBookIDs(r.Context(), f)
	if err != nil {
		Error(w, r, apperr.Internal(err))
		return
	}
	JSON(w, http.StatusOK, ListBooksResponse{BookIDs: ids, Total: total})
}

// handleGetBook returns one book's catalog record including its table
// of contents.
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		Error(w, r, apperr.Validation("invalid book id"))
		return
	}
	book, ok, err := s.Catalog.GetBook(r.Context(), id)
	if err != nil {
		Error(w, r, apperr.Internal(err))
		return
	}
	if !ok {
		Error(w, r, apperr.NotFound("book", id))
		return
	}
	JSON(w, http.StatusOK, book)
}

// handleDeleteBook removes one book's relational row and vector chunks.
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		Error(w, r, apperr.Validation("invalid book id"))
		return
	}
	if err := s.deleteBookArtifacts(r, id); err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// DeleteBooksRequest is the body for a bulk delete.
type DeleteBooksRequest struct {
	BookIDs []int64 `json:"book_ids"`
}

// handleDeleteBooks removes every book named in the request body.
func (s *Server) handleDeleteBooks(w http.ResponseWriter, r *http.Request) {
	var req DeleteBooksRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, r, apperr.Validation("invalid request body"))
		return
	}
	if len(req.BookIDs) == 0 {
		Error(w, r, apperr.Validation("book_ids must not be empty"))
		return
	}
	for _, id := range req.BookIDs {
		if err := s.deleteBookArtifacts(r, id); err != nil {
			Error(w, r, err)
			return
		}
	}
	JSON(w, http.StatusOK, map[string]any{"deleted": req.BookIDs})
}

// deleteBookArtifacts removes bookID from the relational and vector
// stores.
func (s *Server) deleteBookArtifacts(r *http.Request, bookID int64) error {
	if _, err := s.Relational.DeleteBook(r.Context(), bookID); err != nil {
		return apperr.Storage("delete book from relational store", err)
	}
	if _, err := s.Vectors.DeleteByBookID(r.Context(), bookID, s.Partition); err != nil {
		return apperr.Storage("delete book chunks from vector store", err)
	}
	return nil
}

// handleListAuthors returns a page of catalog authors.
func (s *Server) handleListAuthors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	authors, total, err := s.Catalog.ListAuthors(r.Context(), queryInt(q, "limit", 100), queryInt(q, "offset", 0))
	if err != nil {
		Error(w, r, apperr.Internal(err))
		return
	}
	JSON(w, http.StatusOK, map[string]any{"authors": authors, "total": total})
}

// handleListCategories returns a page of catalog categories.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	categories, total, err := s.Catalog.ListCategories(r.Context(), queryInt(q, "limit", 100), queryInt(q, "offset", 0))
	if err != nil {
		Error(w, r, apperr.Internal(err))
		return
	}
	JSON(w, http.StatusOK, map[string]any{"categories": categories, "total": total})
}
