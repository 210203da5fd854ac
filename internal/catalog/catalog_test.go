package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func seedCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE books (
			book_id INTEGER PRIMARY KEY,
			book_name TEXT NOT NULL,
			main_author_id INTEGER NOT NULL,
			category_id INTEGER NOT NULL,
			hidden INTEGER NOT NULL DEFAULT 0,
			has_toc INTEGER NOT NULL DEFAULT 0
		);
	`)
	require.NoError(t, err)

	rows := []struct {
		id       int64
		name     string
		author   int64
		category int64
		hidden   int
		hasToC   int
	}{
		{1, "Sahih al-Bukhari", 10, 100, 0, 1},
		{2, "Sahih Muslim", 11, 100, 0, 1},
		{3, "Hidden Treatise", 10, 200, 1, 0},
	}
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO books (book_id, book_name, main_author_id, category_id, hidden, has_toc) VALUES (?, ?, ?, ?, ?, ?)`,
			r.id, r.name, r.author, r.category, r.hidden, r.hasToC)
		require.NoError(t, err)
	}
	return path
}

func TestListBookIDsNoFilter(t *testing.T) {
	path := seedCatalog(t)
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	ids, total, err := store.ListBookIDs(context.Background(), Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, []int64{1, 2, 3}, ids)
}

func TestListBookIDsByAuthor(t *testing.T) {
	path := seedCatalog(t)
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	author := int64(10)
	ids, total, err := store.ListBookIDs(context.Background(), Filter{AuthorID: &author})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, []int64{1, 3}, ids)
}

func TestListBookIDsExcludesHidden(t *testing.T) {
	path := seedCatalog(t)
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	notHidden := false
	ids, total, err := store.ListBookIDs(context.Background(), Filter{Hidden: &notHidden})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, []int64{1, 2}, ids)
}

func TestListBookIDsNameSubstringAndPagination(t *testing.T) {
	path := seedCatalog(t)
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	ids, total, err := store.ListBookIDs(context.Background(), Filter{NameSubstring: "Sahih", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, []int64{2}, ids)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist.db"))
	require.Error(t, err)
}

func seedFullCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
		CREATE TABLE categories (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
		CREATE TABLE books (
			book_id INTEGER PRIMARY KEY,
			book_name TEXT NOT NULL,
			main_author_id INTEGER NOT NULL,
			category_id INTEGER NOT NULL
		);
		CREATE TABLE toc_entries (
			id INTEGER PRIMARY KEY,
			book_id INTEGER NOT NULL,
			page_ref INTEGER NOT NULL,
			parent_id INTEGER,
			part TEXT NOT NULL,
			physical_page INTEGER NOT NULL,
			title TEXT
		);
		INSERT INTO authors (id, name) VALUES (10, 'Al-Bukhari');
		INSERT INTO categories (id, name) VALUES (100, 'Hadith');
		INSERT INTO books (book_id, book_name, main_author_id, category_id) VALUES (1, 'Sahih al-Bukhari', 10, 100);
		INSERT INTO toc_entries (id, book_id, page_ref, parent_id, part, physical_page, title) VALUES
			(1, 1, 1, NULL, 'Part One', 1, 'Book of Revelation'),
			(2, 1, 12, 1, 'Part One', 12, 'Chapter: How Revelation Began');
	`)
	require.NoError(t, err)
	return path
}

func TestGetBookReturnsBookWithTableOfContents(t *testing.T) {
	path := seedFullCatalog(t)
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	book, ok, err := store.GetBook(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Sahih al-Bukhari", book.BookName)
	require.Len(t, book.TableOfContents, 2)
	require.Nil(t, book.TableOfContents[0].ParentID)
	require.Equal(t, int64(1), *book.TableOfContents[1].ParentID)
}

func TestGetBookMissingReturnsFalse(t *testing.T) {
	path := seedFullCatalog(t)
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.GetBook(context.Background(), 999)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetAuthorAndCategory(t *testing.T) {
	path := seedFullCatalog(t)
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	author, ok, err := store.GetAuthor(context.Background(), 10)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Al-Bukhari", author.Name)

	category, ok, err := store.GetCategory(context.Background(), 100)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Hadith", category.Name)

	_, ok, err = store.GetAuthor(context.Background(), 999)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListAuthorsAndCategories(t *testing.T) {
	path := seedFullCatalog(t)
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	authors, total, err := store.ListAuthors(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, authors, 1)

	categories, total, err := store.ListCategories(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, categories, 1)
}
