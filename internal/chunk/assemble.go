package chunk

import "github.com/maktaba/corpus/internal/model"

// BuildChunks chunks meta's content, matches each chunk to a page
// range, and assembles the final ordered model.Chunk list (without
// embeddings, which the embedding pipeline fills in afterward).
func BuildChunks(meta model.Metadata) ([]model.Chunk, Stats, error) {
	texts, stats, err := ChunkBook(meta)
	if err != nil {
		return nil, stats, err
	}

	matched := MatchChunksToPages(meta, texts)

	chunks := make([]model.Chunk, len(matched))
	for i, m := range matched {
		chunks[i] = model.Chunk{
			Order:        m.Order,
			BookID:       meta.BookID,
			BookName:     meta.BookName,
			Author:       meta.Author,
			Category:     meta.Category,
			Text:         m.Text,
			PartTitle:    m.PartTitle,
			StartPageID:  m.StartPageID,
			PageOffset:   m.PageOffset,
			PageNumRange: m.PageNumRange,
		}
	}
	return chunks, stats, nil
}
