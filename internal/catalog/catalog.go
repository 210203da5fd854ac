// Package catalog provides read-only access to the embedded, file-backed
// relational catalog of books, authors, categories, and per-book tables
// of contents. The catalog is produced by an upstream crawler; this
// package never writes to it.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/maktaba/corpus/internal/model"
)

// Store is a read-only handle on the embedded catalog file.
type Store struct {
	db *sql.DB
}

// Open opens the catalog file in read-only mode via the sqlite3 driver's
// "mode=ro" DSN parameter, so a misbehaving caller cannot mutate the
// crawler's data out from under the export pipeline.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Filter narrows ListBookIDs. Zero-valued fields are not applied. An
// "exported" constraint, when needed, is resolved by the caller by
// intersecting the result with the relational store's set of exported
// book ids — this package has no knowledge of the relational store.
type Filter struct {
	NameSubstring string
	CategoryID    *int64
	AuthorID      *int64
	Hidden        *bool
	HasToC        *bool
	Limit         int
	Offset        int
}

// ListBookIDs enumerates book ids matching filter, composed with AND,
// and returns the total count ignoring Limit/Offset for pagination.
func (s *Store) ListBookIDs(ctx context.Context, f Filter) ([]int64, int, error) {
	where, args := f.whereClause()

	var total int
	countQuery := "SELECT COUNT(*) FROM books" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query := "SELECT book_id FROM books" + where + " ORDER BY book_id LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, 0, fmt.Errorf("scan book id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, total, rows.Err()
}

func (f Filter) whereClause() (string, []any) {
	var clauses []string
	var args []any

	if f.NameSubstring != "" {
		clauses = append(clauses, "book_name LIKE ?")
		args = append(args, "%"+f.NameSubstring+"%")
	}
	if f.CategoryID != nil {
		clauses = append(clauses, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.AuthorID != nil {
		clauses = append(clauses, "main_author_id = ?")
		args = append(args, *f.AuthorID)
	}
	if f.Hidden != nil {
		v := 0
		if *f.Hidden {
			v = 1
		}
		clauses = append(clauses, "hidden = ?")
		args = append(args, v)
	}
	if f.HasToC != nil {
		if *f.HasToC {
			clauses = append(clauses, "has_toc = 1")
		} else {
			clauses = append(clauses, "has_toc = 0")
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE "
	for i, c := range clauses {
		if i > 0 {
			where += " AND "
		}
		where += c
	}
	return where, args
}

// GetBook fetches one book by id, false if it does not exist.
func (s *Store) GetBook(ctx context.Context, bookID int64) (model.Book, bool, error) {
	var b model.Book
	err := s.db.QueryRowContext(ctx,
		`SELECT book_id, book_name, main_author_id, category_id FROM books WHERE book_id = ?`, bookID,
	).Scan(&b.BookID, &b.BookName, &b.MainAuthorID, &b.CategoryID)
	if err == sql.ErrNoRows {
		return model.Book{}, false, nil
	}
	if err != nil {
		return model.Book{}, false, fmt.Errorf("get book %d: %w", bookID, err)
	}

	toc, err := s.GetTableOfContents(ctx, bookID)
	if err != nil {
		return model.Book{}, false, err
	}
	b.TableOfContents = toc
	return b, true, nil
}

// GetTableOfContents returns a book's ordered table of contents, or an
// empty slice if it has none.
func (s *Store) GetTableOfContents(ctx context.Context, bookID int64) ([]model.ToCEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, page_ref, parent_id, part, physical_page, title FROM toc_entries WHERE book_id = ? ORDER BY id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list table of contents for book %d: %w", bookID, err)
	}
	defer rows.Close()

	var entries []model.ToCEntry
	for rows.Next() {
		var e model.ToCEntry
		var parentID sql.NullInt64
		var title sql.NullString
		if err := rows.Scan(&e.ID, &e.PageRef, &parentID, &e.Part, &e.PhysicalPage, &title); err != nil {
			return nil, fmt.Errorf("scan table of contents entry: %w", err)
		}
		if parentID.Valid {
			v := parentID.Int64
			e.ParentID = &v
		}
		e.Title = title.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetAuthor fetches one author by id, false if it does not exist.
func (s *Store) GetAuthor(ctx context.Context, id int64) (model.Author, bool, error) {
	var a model.Author
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM authors WHERE id = ?`, id).Scan(&a.ID, &a.Name)
	if err == sql.ErrNoRows {
		return model.Author{}, false, nil
	}
	if err != nil {
		return model.Author{}, false, fmt.Errorf("get author %d: %w", id, err)
	}
	return a, true, nil
}

// GetCategory fetches one category by id, false if it does not exist.
func (s *Store) GetCategory(ctx context.Context, id int64) (model.Category, bool, error) {
	var c model.Category
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = ?`, id).Scan(&c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return model.Category{}, false, nil
	}
	if err != nil {
		return model.Category{}, false, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, true, nil
}

// ListAuthors returns a page of authors ordered by id, with the total
// count ignoring pagination.
func (s *Store) ListAuthors(ctx context.Context, limit, offset int) ([]model.Author, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM authors`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count authors: %w", err)
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM authors ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var out []model.Author
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, 0, fmt.Errorf("scan author: %w", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// ListCategories returns a page of categories ordered by id, with the
// total count ignoring pagination.
func (s *Store) ListCategories(ctx context.Context, limit, offset int) ([]model.Category, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, 0, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}
