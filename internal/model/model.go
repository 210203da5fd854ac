// Package model holds the data types shared across the export pipeline
// and retrieval path.
package model

// ToCEntry is one table-of-contents entry as read from the catalog (C1).
type ToCEntry struct {
	ID           int64  `json:"id"`
	PageRef      int64  `json:"page_ref"`
	ParentID     *int64 `json:"parent_id,omitempty"`
	Part         string `json:"part"`
	PhysicalPage int64  `json:"physical_page"`
	Title        string `json:"title,omitempty"`
}

// Book is the immutable catalog record (C1). The upstream crawler owns
// it; this system only ever reads it.
type Book struct {
	BookID          int64      `json:"book_id"`
	BookName        string     `json:"book_name"`
	MainAuthorID    int64      `json:"main_author_id"`
	CategoryID      int64      `json:"category_id"`
	TableOfContents []ToCEntry `json:"table_of_contents"`
}

// Author is a catalog author record.
type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category is a catalog category record.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RawPage is one HTML page as returned by the acquirer (C5).
type RawPage struct {
	Filename string
	Content  []byte
}

// PageRecord is one processed content page inside a part (C6 output).
type PageRecord struct {
	PageID      int64  `json:"page_id"`
	PageNum     string `json:"page_num"`
	PartTitle   string `json:"part_title"`
	CleanedText string `json:"cleaned_text"`
	DisplayElem string `json:"display_elem"`
}

// Metadata is the processed per-book metadata document.
type Metadata struct {
	BookID          int64                   `json:"book_id"`
	BookName        string                  `json:"book_name"`
	Author          string                  `json:"author"`
	Category        string                  `json:"category"`
	Editor          string                  `json:"editor,omitempty"`
	Edition         string                  `json:"edition,omitempty"`
	Publisher       string                  `json:"publisher,omitempty"`
	NumVolumes      string                  `json:"num_volumes,omitempty"`
	NumPages        string                  `json:"num_pages,omitempty"`
	ShamelaPubDate  string                  `json:"shamela_pub_date,omitempty"`
	AuthorFull      string                  `json:"author_full,omitempty"`
	Parts           []string                `json:"parts"`
	Pages           map[string][]PageRecord `json:"pages"`
	TableOfContents []ToCEntry              `json:"table_of_contents"`
}

// PageNumRange is the inclusive printed-page range a chunk spans.
type PageNumRange [2]string

// Chunk is one ordered slice of book text with its page assignment and
// embeddings.
type Chunk struct {
	Order        int          `json:"order"`
	BookID       int64        `json:"book_id"`
	BookName     string       `json:"book_name"`
	Author       string       `json:"author"`
	Category     string       `json:"category"`
	Text         string       `json:"text"`
	PartTitle    string       `json:"part_title"`
	StartPageID  int64        `json:"start_page_id"`
	PageOffset   int          `json:"page_offset"`
	PageNumRange PageNumRange `json:"page_num_range"`
	DenseVector  []float32    `json:"dense_vector,omitempty"`
	SparseVector map[int]float64 `json:"sparse_vector,omitempty"`
}

// ChunkGlobalID computes the vector-store primary key for a chunk:
// id = book_id * 10_000_000 + order.
func ChunkGlobalID(bookID int64, order int) int64 {
	return bookID*10_000_000 + int64(order)
}
