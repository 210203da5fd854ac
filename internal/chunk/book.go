package chunk

import (
	"fmt"

	"github.com/maktaba/corpus/internal/model"
)

// ChunkBook walks a book's parts in order, accumulating pending HTML
// across markerless parts, and returns the final post-processed chunk
// texts plus chunking stats.
func ChunkBook(meta model.Metadata) ([]string, Stats, error) {
	var stats Stats
	var rawChunks []string
	var pendingHTML string

	for _, part := range meta.Parts {
		pagesInPart := meta.Pages[part]

		var fullHTML string
		if pendingHTML != "" {
			fullHTML = pendingHTML
		}
		for _, p := range pagesInPart {
			fullHTML += p.DisplayElem + "\n"
		}

		chunks, pending, err := ChunkPart(fullHTML, &stats)
		if err != nil {
			return nil, stats, fmt.Errorf("chunk part %q: %w", part, err)
		}
		rawChunks = append(rawChunks, chunks...)
		pendingHTML = pending
	}

	if pendingHTML != "" {
		seg, err := processSegment(pendingHTML, &stats)
		if err != nil {
			return nil, stats, fmt.Errorf("chunk trailing segment: %w", err)
		}
		rawChunks = append(rawChunks, seg...)
	}

	return postProcessChunks(rawChunks), stats, nil
}
