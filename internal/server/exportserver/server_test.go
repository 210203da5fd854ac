package exportserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/maktaba/corpus/internal/catalog"
	"github.com/maktaba/corpus/internal/export"
	"github.com/maktaba/corpus/internal/jobs"
	"github.com/maktaba/corpus/internal/model"
)

func seedCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
		CREATE TABLE categories (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
		CREATE TABLE books (
			book_id INTEGER PRIMARY KEY,
			book_name TEXT NOT NULL,
			main_author_id INTEGER NOT NULL,
			category_id INTEGER NOT NULL,
			hidden INTEGER NOT NULL DEFAULT 0,
			has_toc INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE toc_entries (
			id INTEGER PRIMARY KEY, book_id INTEGER NOT NULL, page_ref INTEGER NOT NULL,
			parent_id INTEGER, part TEXT NOT NULL, physical_page INTEGER NOT NULL, title TEXT
		);
		INSERT INTO authors (id, name) VALUES (10, 'Al-Bukhari');
		INSERT INTO categories (id, name) VALUES (100, 'Hadith');
		INSERT INTO books (book_id, book_name, main_author_id, category_id) VALUES (1, 'Sahih al-Bukhari', 10, 100);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := catalog.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

type fakeExporter struct{ calls int }

func (f *fakeExporter) ExportBook(_ context.Context, req export.Request, _ export.ProgressFunc) (export.Result, error) {
	f.calls++
	return export.Result{RawFilesCount: 1, MetadataURL: "https://example/metadata.json"}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeExporter) {
	t.Helper()
	exporter := &fakeExporter{}
	mgr := jobs.NewManager(exporter, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	mgr.Start(ctx)

	srv := New(Server{
		Catalog:   seedCatalog(t),
		Jobs:      mgr,
		Partition: "_default",
	})
	return srv, exporter
}

func TestHandleHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleListAndGetBook(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListBooksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, []int64{1}, list.BookIDs)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var book model.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	require.Equal(t, "Sahih al-Bukhari", book.BookName)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/999", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleExportOneBookSubmitsJob(t *testing.T) {
	srv, exporter := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export/books/1", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp SubmitJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.JobID)

	require.Eventually(t, func() bool {
		rec, ok := srv.Jobs.GetJob(resp.JobID)
		return ok && rec.Status == jobs.StatusCompleted
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, exporter.calls)
}

func TestHandleExportMissingBookReturnsNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export/books/999", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListJobsAndDLQ(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/dlq", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var dlq ListDLQResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dlq))
	require.Empty(t, dlq.Entries)
}
