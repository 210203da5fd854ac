package chunk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkPartSplitsAtTocMarkers(t *testing.T) {
	html := `<p>intro text before any marker.</p>` +
		`<span data-type="title" id="toc-1">` + `<p>first section body text here.</p>` +
		`<span data-type="title" id="toc-2">` + `<p>second section body text here.</p>`

	stats := &Stats{}
	chunks, pending, err := ChunkPart(html, stats)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	// The intro segment before the first marker is its own chunk.
	require.Contains(t, chunks[0], "intro text")
	// The final marker's segment has no closing marker yet, so it
	// carries forward as pending HTML rather than being emitted.
	require.Contains(t, pending, "second section")
}

func TestChunkPartNoMarkersReturnsAllPending(t *testing.T) {
	html := `<p>no markers anywhere in this part.</p>`
	stats := &Stats{}
	chunks, pending, err := ChunkPart(html, stats)
	require.NoError(t, err)
	require.Nil(t, chunks)
	require.Equal(t, html, pending)
}

func TestSplitSentencesKeepsPeriodAttached(t *testing.T) {
	sentences := splitSentences("first sentence. second sentence. third without period")
	require.Len(t, sentences, 3)
	require.Equal(t, "first sentence.", sentences[0])
	require.Equal(t, " second sentence.", sentences[1])
	require.Equal(t, " third without period", sentences[2])
}

func TestSplitSentencesSkipsEmptyTrailingPiece(t *testing.T) {
	sentences := splitSentences("only one sentence.")
	require.Len(t, sentences, 1)
}
