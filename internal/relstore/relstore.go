package relstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/maktaba/corpus/internal/model"
)

// BookRecord is the full row set upsert_book writes in one transaction.
type BookRecord struct {
	Metadata   model.Metadata
	AuthorID   int64
	AuthorName string
	CategoryID int64
	CategoryName string
	Pages      []PageRow
}

// PageRow is one row of the pages table.
type PageRow struct {
	PageID      int64
	PartTitle   string
	PageNum     string
	DisplayElem string
}

// UpsertBook ensures the author and category rows exist, upserts the
// book row, and replaces all of the book's pages, in a single
// transaction.
func (s *Store) UpsertBook(ctx context.Context, rec BookRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("relstore: begin upsert_book: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO authors (id, name) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		rec.AuthorID, rec.AuthorName); err != nil {
		return fmt.Errorf("relstore: ensure author: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO categories (id, name) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		rec.CategoryID, rec.CategoryName); err != nil {
		return fmt.Errorf("relstore: ensure category: %w", err)
	}

	parts, err := json.Marshal(rec.Metadata.Parts)
	if err != nil {
		return fmt.Errorf("relstore: marshal parts: %w", err)
	}
	toc, err := json.Marshal(rec.Metadata.TableOfContents)
	if err != nil {
		return fmt.Errorf("relstore: marshal table_of_contents: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO books (
			book_id, book_name, author_id, category_id,
			editor, edition, publisher, num_volumes, num_pages,
			shamela_pub_date, author_full, parts, table_of_contents, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, now())
		ON CONFLICT (book_id) DO UPDATE SET
			book_name = EXCLUDED.book_name,
			author_id = EXCLUDED.author_id,
			category_id = EXCLUDED.category_id,
			editor = EXCLUDED.editor,
			edition = EXCLUDED.edition,
			publisher = EXCLUDED.publisher,
			num_volumes = EXCLUDED.num_volumes,
			num_pages = EXCLUDED.num_pages,
			shamela_pub_date = EXCLUDED.shamela_pub_date,
			author_full = EXCLUDED.author_full,
			parts = EXCLUDED.parts,
			table_of_contents = EXCLUDED.table_of_contents,
			updated_at = now()
	`,
		rec.Metadata.BookID, rec.Metadata.BookName, rec.AuthorID, rec.CategoryID,
		rec.Metadata.Editor, rec.Metadata.Edition, rec.Metadata.Publisher,
		rec.Metadata.NumVolumes, rec.Metadata.NumPages, rec.Metadata.ShamelaPubDate,
		rec.Metadata.AuthorFull, parts, toc,
	)
	if err != nil {
		return fmt.Errorf("relstore: upsert book row: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pages WHERE book_id = $1`, rec.Metadata.BookID); err != nil {
		return fmt.Errorf("relstore: clear pages: %w", err)
	}

	batch := &pgx.Batch{}
	for _, p := range rec.Pages {
		batch.Queue(
			`INSERT INTO pages (book_id, page_id, part_title, page_num, display_elem) VALUES ($1,$2,$3,$4,$5)`,
			rec.Metadata.BookID, p.PageID, p.PartTitle, p.PageNum, p.DisplayElem)
	}
	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("relstore: insert page row: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("relstore: close page batch: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// DeleteBook removes book_id's pages and book row, then removes its
// author/category rows if no other book references them. Returns
// whether the book existed.
func (s *Store) DeleteBook(ctx context.Context, bookID int64) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("relstore: begin delete_book: %w", err)
	}
	defer tx.Rollback(ctx)

	var authorID, categoryID int64
	err = tx.QueryRow(ctx, `SELECT author_id, category_id FROM books WHERE book_id = $1`, bookID).Scan(&authorID, &categoryID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("relstore: read book for delete: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pages WHERE book_id = $1`, bookID); err != nil {
		return false, fmt.Errorf("relstore: delete pages: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM books WHERE book_id = $1`, bookID); err != nil {
		return false, fmt.Errorf("relstore: delete book: %w", err)
	}

	if err := deleteOrphan(ctx, tx, "authors", "author_id", authorID); err != nil {
		return false, err
	}
	if err := deleteOrphan(ctx, tx, "categories", "category_id", categoryID); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

func deleteOrphan(ctx context.Context, tx pgx.Tx, table, fkColumn string, id int64) error {
	var remaining int
	err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM books WHERE %s = $1`, fkColumn), id).Scan(&remaining)
	if err != nil {
		return fmt.Errorf("relstore: count referencing books for %s: %w", table, err)
	}
	if remaining > 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id); err != nil {
		return fmt.Errorf("relstore: delete orphan %s: %w", table, err)
	}
	return nil
}

// GetAllExportedBookIDs returns the full set of book ids present in the
// relational store.
func (s *Store) GetAllExportedBookIDs(ctx context.Context) (map[int64]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT book_id FROM books`)
	if err != nil {
		return nil, fmt.Errorf("relstore: list exported book ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("relstore: scan book id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
