// Package export implements the top-level per-book export sequence:
// delete-if-exists, acquire, process, chunk, match, embed, and upsert
// to the object, relational, and vector stores.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/maktaba/corpus/internal/apperr"
	"github.com/maktaba/corpus/internal/chunk"
	"github.com/maktaba/corpus/internal/embedpipeline"
	"github.com/maktaba/corpus/internal/htmlproc"
	"github.com/maktaba/corpus/internal/model"
	"github.com/maktaba/corpus/internal/objectstore"
	"github.com/maktaba/corpus/internal/providers"
	"github.com/maktaba/corpus/internal/relstore"
)

// Acquirer is the capability needed from C5: turn a book id into its
// raw HTML pages. Satisfied by *acquire.Acquirer.
type Acquirer interface {
	ExportToMemory(ctx context.Context, bookID int64) ([]model.RawPage, error)
}

// ObjectStore is the slice of C2 the orchestrator drives directly.
// Satisfied by *objectstore.Store.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	PublicURL(key string) string
}

// RelationalStore is the slice of C3 the orchestrator drives directly.
// Satisfied by *relstore.Store.
type RelationalStore interface {
	UpsertBook(ctx context.Context, rec relstore.BookRecord) error
	DeleteBook(ctx context.Context, bookID int64) (bool, error)
}

// VectorStore is the slice of C4 the orchestrator drives directly.
// Satisfied by *vectorstore.Store.
type VectorStore interface {
	UpsertChunks(ctx context.Context, chunks []model.Chunk, partition string, batchSize int) error
	DeleteByBookID(ctx context.Context, bookID int64, partition string) (bool, error)
}

// Orchestrator wires the acquirer and every store adapter together to
// run the full export sequence for one book at a time.
type Orchestrator struct {
	Acquirer    Acquirer
	Objects     ObjectStore
	Relational  RelationalStore
	Vectors     VectorStore
	Embedder    providers.DenseEmbedder
	EmbedConfig embedpipeline.Config
	Partition   string
	Logger      *slog.Logger
}

// Request carries the catalog identity an export run needs; the
// orchestrator never reads the catalog itself.
type Request struct {
	BookID          int64
	BookName        string
	AuthorName      string
	CategoryName    string
	AuthorID        int64
	CategoryID      int64
	TableOfContents []model.ToCEntry
}

// ProgressFunc mirrors a job manager's per-book progress callback:
// event is a short step name ("step", "chunking_done",
// "embedding_progress", ...), value carries whatever payload fits
// that event (a step name string, a count, ...).
type ProgressFunc func(event string, value any)

// Result is what the orchestrator returns on success.
type Result struct {
	RawFilesCount int
	MetadataURL   string
}

// ExportBook runs the full sequence for one book: delete any existing
// export, acquire raw HTML, process it, chunk and match pages, embed,
// and upsert to every store. On any step's failure the error is
// returned as-is; partial writes already made to the stores are left
// in place, since the next attempt's delete-if-exists step (step 1)
// re-establishes a clean state.
func (o *Orchestrator) ExportBook(ctx context.Context, req Request, progress ProgressFunc) (Result, error) {
	if progress == nil {
		progress = func(string, any) {}
	}

	if err := o.deleteExisting(ctx, req.BookID); err != nil {
		return Result{}, fmt.Errorf("export: delete existing: %w", err)
	}

	progress("step", "exporting")
	rawPages, err := o.Acquirer.ExportToMemory(ctx, req.BookID)
	if err != nil {
		return Result{}, err
	}

	book := model.Book{
		BookID:          req.BookID,
		BookName:        req.BookName,
		MainAuthorID:    req.AuthorID,
		CategoryID:      req.CategoryID,
		TableOfContents: req.TableOfContents,
	}
	meta := htmlproc.Process(book, req.AuthorName, req.CategoryName, rawPages)

	rawFilesCount, err := o.uploadRawAndMetadata(ctx, req.BookID, rawPages, meta)
	if err != nil {
		return Result{}, err
	}

	pageRows := flattenPageRows(meta)
	if err := o.Relational.UpsertBook(ctx, relstore.BookRecord{
		Metadata:     meta,
		AuthorID:     req.AuthorID,
		AuthorName:   req.AuthorName,
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
		Pages:        pageRows,
	}); err != nil {
		return Result{}, apperr.Storage("upsert book to relational store", err)
	}

	progress("step", "chunking")
	chunks, _, err := chunk.BuildChunks(meta)
	if err != nil {
		return Result{}, apperr.UpstreamPermanent("chunk book", err)
	}
	if len(chunks) == 0 {
		return Result{}, apperr.UpstreamPermanent(fmt.Sprintf("book %d produced zero chunks", req.BookID), nil)
	}
	progress("chunking_done", len(chunks))

	progress("step", "embedding")
	embedded, err := embedpipeline.EmbedChunks(ctx, o.Embedder, chunks, o.EmbedConfig, func(done, total int) {
		progress("embedding_progress", done)
	})
	if err != nil {
		return Result{}, apperr.UpstreamTransient("embed chunks", err)
	}

	if err := o.uploadEmbeddingsMirror(ctx, req.BookID, embedded); err != nil {
		return Result{}, err
	}

	if err := o.Vectors.UpsertChunks(ctx, embedded, o.Partition, 0); err != nil {
		return Result{}, apperr.Storage("upsert chunks to vector store", err)
	}

	metadataURL := o.Objects.PublicURL(objectstore.MetadataKey(req.BookID))
	return Result{RawFilesCount: rawFilesCount, MetadataURL: metadataURL}, nil
}

// deleteExisting tears down any prior export for bookID across every
// store, tolerating a book that was never exported.
func (o *Orchestrator) deleteExisting(ctx context.Context, bookID int64) error {
	keys, err := o.Objects.List(ctx, fmt.Sprintf("raw/%d/", bookID))
	if err != nil {
		return fmt.Errorf("list existing raw objects: %w", err)
	}
	exists := len(keys) > 0
	if !exists {
		if ok, err := o.Objects.Exists(ctx, objectstore.MetadataKey(bookID)); err == nil && ok {
			exists = true
		}
	}
	if !exists {
		return nil
	}

	for _, key := range keys {
		if err := o.Objects.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete raw object %q: %w", key, err)
		}
	}
	if err := o.Objects.Delete(ctx, objectstore.MetadataKey(bookID)); err != nil {
		return fmt.Errorf("delete metadata object: %w", err)
	}
	if err := o.Objects.Delete(ctx, objectstore.EmbeddingsKey(bookID)); err != nil {
		return fmt.Errorf("delete embeddings object: %w", err)
	}

	if _, err := o.Relational.DeleteBook(ctx, bookID); err != nil {
		return fmt.Errorf("delete from relational store: %w", err)
	}
	if _, err := o.Vectors.DeleteByBookID(ctx, bookID, o.Partition); err != nil {
		return fmt.Errorf("delete from vector store: %w", err)
	}
	return nil
}

func (o *Orchestrator) uploadRawAndMetadata(ctx context.Context, bookID int64, rawPages []model.RawPage, meta model.Metadata) (int, error) {
	for _, p := range rawPages {
		if err := o.Objects.Put(ctx, objectstore.RawKey(bookID, p.Filename), p.Content, "text/html; charset=utf-8"); err != nil {
			return 0, apperr.Storage(fmt.Sprintf("upload raw page %q", p.Filename), err)
		}
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return 0, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := o.Objects.Put(ctx, objectstore.MetadataKey(bookID), metaBytes, "application/json"); err != nil {
		return 0, apperr.Storage("upload metadata document", err)
	}

	return len(rawPages), nil
}

func (o *Orchestrator) uploadEmbeddingsMirror(ctx context.Context, bookID int64, chunks []model.Chunk) error {
	var buf []byte
	for _, c := range chunks {
		line, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal chunk %d: %w", c.Order, err)
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	if err := o.Objects.Put(ctx, objectstore.EmbeddingsKey(bookID), buf, "application/x-ndjson"); err != nil {
		return apperr.Storage("upload embeddings mirror", err)
	}
	return nil
}

func flattenPageRows(meta model.Metadata) []relstore.PageRow {
	var rows []relstore.PageRow
	for _, part := range meta.Parts {
		for _, p := range meta.Pages[part] {
			rows = append(rows, relstore.PageRow{
				PageID:      p.PageID,
				PartTitle:   p.PartTitle,
				PageNum:     p.PageNum,
				DisplayElem: p.DisplayElem,
			})
		}
	}
	return rows
}
