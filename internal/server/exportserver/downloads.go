package exportserver

import (
	"archive/zip"
	"errors"
	"fmt"
	"net/http"

	"github.com/maktaba/corpus/internal/apperr"
	"github.com/maktaba/corpus/internal/objectstore"
)

// handleDownloadRaw streams a zip of every raw HTML page object-store
// holds for one book.
func (s *Server) handleDownloadRaw(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		Error(w, r, apperr.Validation("invalid book id"))
		return
	}
	prefix := fmt.Sprintf("raw/%d/", id)
	keys, err := s.Objects.List(r.Context(), prefix)
	if err != nil {
		Error(w, r, apperr.Storage("list raw pages", err))
		return
	}
	if len(keys) == 0 {
		Error(w, r, apperr.NotFound("raw pages for book", id))
		return
	}
	s.streamZip(w, r, fmt.Sprintf("book-%d-raw.zip", id), keys)
}

// handleDownloadMetadata streams a book's single processed metadata
// document.
func (s *Server) handleDownloadMetadata(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		Error(w, r, apperr.Validation("invalid book id"))
		return
	}
	key := objectstore.MetadataKey(id)
	data, err := s.Objects.Get(r.Context(), key)
	if err != nil {
		s.writeObjectErr(w, r, "metadata", id, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="book-%d-metadata.json"`, id))
	w.Write(data)
}

// handleDownloadEmbeddings streams a book's newline-delimited chunk
// embeddings mirror.
func (s *Server) handleDownloadEmbeddings(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		Error(w, r, apperr.Validation("invalid book id"))
		return
	}
	key := objectstore.EmbeddingsKey(id)
	data, err := s.Objects.Get(r.Context(), key)
	if err != nil {
		s.writeObjectErr(w, r, "embeddings", id, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="book-%d-embeddings.jsonl"`, id))
	w.Write(data)
}

func (s *Server) writeObjectErr(w http.ResponseWriter, r *http.Request, resource string, bookID int64, err error) {
	if errors.Is(err, objectstore.ErrNotFound) {
		Error(w, r, apperr.NotFound(resource+" for book", bookID))
		return
	}
	Error(w, r, apperr.Storage("fetch "+resource, err))
}

// streamZip fetches each key and writes it into a zip archive streamed
// directly to the response.
func (s *Server) streamZip(w http.ResponseWriter, r *http.Request, filename string, keys []string) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	zw := zip.NewWriter(w)
	defer zw.Close()

	for _, key := range keys {
		data, err := s.Objects.Get(r.Context(), key)
		if err != nil {
			s.Logger.Error("zip stream: skipping unreadable object", "key", key, "error", err)
			continue
		}
		f, err := zw.Create(key)
		if err != nil {
			s.Logger.Error("zip stream: failed to create entry", "key", key, "error", err)
			continue
		}
		if _, err := f.Write(data); err != nil {
			s.Logger.Error("zip stream: failed to write entry", "key", key, "error", err)
		}
	}
}
