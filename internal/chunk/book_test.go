package chunk

import (
	"testing"

	"github.com/maktaba/corpus/internal/model"
	"github.com/stretchr/testify/require"
)

func TestChunkBookCarriesPendingHTMLAcrossMarkerlessParts(t *testing.T) {
	meta := model.Metadata{
		BookID: 7,
		Parts:  []string{"intro", "الجزء الأول"},
		Pages: map[string][]model.PageRecord{
			"intro": {
				{PageID: 1, PageNum: "1", PartTitle: "intro", DisplayElem: "<p>front matter with no toc marker at all here.</p>"},
			},
			"الجزء الأول": {
				{PageID: 2, PageNum: "2", PartTitle: "الجزء الأول", DisplayElem: `<span data-type="title" id="toc-1"><p>first real section text goes here with enough words.</p>`},
			},
		},
	}

	chunks, stats, err := ChunkBook(meta)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	require.GreaterOrEqual(t, stats.SegmentsUnderLimit, 1)

	joined := ""
	for _, c := range chunks {
		joined += c
	}
	require.Contains(t, joined, "front matter")
	require.Contains(t, joined, "first real section")
}

func TestChunkBookEmptyMetadataReturnsNoChunks(t *testing.T) {
	meta := model.Metadata{BookID: 1, Parts: nil, Pages: map[string][]model.PageRecord{}}
	chunks, stats, err := ChunkBook(meta)
	require.NoError(t, err)
	require.Empty(t, chunks)
	require.Zero(t, stats.SegmentsUnderLimit)
}
