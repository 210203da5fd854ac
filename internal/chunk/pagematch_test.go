package chunk

import (
	"strings"
	"testing"

	"github.com/maktaba/corpus/internal/model"
	"github.com/stretchr/testify/require"
)

func testMetadataForMatching() model.Metadata {
	return model.Metadata{
		BookID: 1,
		Parts:  []string{"الجزء الأول"},
		Pages: map[string][]model.PageRecord{
			"الجزء الأول": {
				{PageID: 101, PageNum: "1", PartTitle: "الجزء الأول", DisplayElem: "<p>" + strings.Repeat("a", 100) + "</p>"},
				{PageID: 102, PageNum: "2", PartTitle: "الجزء الأول", DisplayElem: "<p>" + strings.Repeat("b", 100) + "</p>"},
				{PageID: 103, PageNum: "3", PartTitle: "الجزء الأول", DisplayElem: "<p>" + strings.Repeat("c", 100) + "</p>"},
			},
		},
	}
}

func TestLoadPagesForMatchingAllocatesProportionally(t *testing.T) {
	meta := testMetadataForMatching()
	chunks := []string{strings.Repeat("x", 300)}
	pages := loadPagesForMatching(meta, chunks)
	require.Len(t, pages, 3)

	total := 0
	for _, p := range pages {
		total += p.length
	}
	require.Equal(t, 300, total)
	// Three equally sized pages should each take roughly a third.
	require.InDelta(t, 100, pages[0].length, 2)
	require.InDelta(t, 100, pages[1].length, 2)
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	require.Equal(t, 3, roundHalfAwayFromZero(2.5))
	require.Equal(t, 2, roundHalfAwayFromZero(2.4))
	require.Equal(t, -3, roundHalfAwayFromZero(-2.5))
}

func TestMatchChunksToPagesSingleChunkSpansAllPages(t *testing.T) {
	meta := testMetadataForMatching()
	chunks := []string{strings.Repeat("x", 300)}
	matched := MatchChunksToPages(meta, chunks)
	require.Len(t, matched, 1)
	require.Equal(t, int64(101), matched[0].StartPageID)
	require.Equal(t, model.PageNumRange{"1", "3"}, matched[0].PageNumRange)
}

func TestMatchChunksToPagesManyChunksPerPage(t *testing.T) {
	meta := testMetadataForMatching()
	// Five short chunks covering three pages: several chunks land inside
	// one page (p_length > c_length repeatedly) before the sweep
	// advances to the next page.
	chunks := []string{
		strings.Repeat("x", 40),
		strings.Repeat("x", 40),
		strings.Repeat("x", 40),
		strings.Repeat("x", 40),
		strings.Repeat("x", 40),
	}
	matched := MatchChunksToPages(meta, chunks)
	require.Len(t, matched, 5)
	require.Equal(t, int64(101), matched[0].StartPageID)
	// Page assignments should be monotonically non-decreasing by page id.
	for i := 1; i < len(matched); i++ {
		require.GreaterOrEqual(t, matched[i].StartPageID, matched[i-1].StartPageID)
	}
	require.Equal(t, int64(103), matched[len(matched)-1].StartPageID)
}

func TestMatchChunksToPagesLeftoverChunksInheritPreviousAssignment(t *testing.T) {
	meta := testMetadataForMatching()
	// The two trailing chunks have no cleaned text, so the page lengths
	// are used up by the first 20 chunks and the sweep ends before
	// reaching them: they fall through the sweep and must inherit the
	// prior chunk's page assignment rather than being left unassigned.
	chunks := make([]string, 0, 22)
	for i := 0; i < 20; i++ {
		chunks = append(chunks, "x")
	}
	chunks = append(chunks, "...", "...")
	matched := MatchChunksToPages(meta, chunks)
	require.Len(t, matched, 22)
	for i := 1; i < len(matched); i++ {
		require.NotZero(t, matched[i].StartPageID)
	}
	require.Equal(t, matched[19].StartPageID, matched[20].StartPageID)
	require.Equal(t, matched[19].StartPageID, matched[21].StartPageID)
}

func TestMatchChunksToPagesNoPagesReturnsUnassigned(t *testing.T) {
	meta := model.Metadata{BookID: 1, Parts: nil, Pages: map[string][]model.PageRecord{}}
	chunks := []string{"some text"}
	matched := MatchChunksToPages(meta, chunks)
	require.Len(t, matched, 1)
	require.Zero(t, matched[0].StartPageID)
}
