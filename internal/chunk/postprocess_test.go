package chunk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostProcessChunksMergesShortChunkForward(t *testing.T) {
	chunks := []string{"too short", "this is now a much longer chunk of real content here"}
	result := postProcessChunks(chunks)
	require.Len(t, result, 1)
	require.Contains(t, result[0], "too short")
	require.Contains(t, result[0], "much longer chunk")
}

func TestPostProcessChunksCarriesColonContentForward(t *testing.T) {
	chunks := []string{
		"Intro sentence with many important descriptive words here. Topics covered include the following:",
		"first item. second item. third item with enough words to stand alone here.",
	}
	result := postProcessChunks(chunks)
	require.Len(t, result, 2)
	require.False(t, hasSuffixColon(result[0]))
	require.Contains(t, result[1], "Topics covered include the following:")
}

func hasSuffixColon(s string) bool {
	return len(s) > 0 && s[len(s)-1] == ':'
}

func TestPostProcessChunksLeavesNormalChunksAlone(t *testing.T) {
	chunks := []string{
		"this is a perfectly normal length chunk with plenty of words in it",
		"and here is another one that also has plenty of words inside it",
	}
	result := postProcessChunks(chunks)
	require.Equal(t, chunks, result)
}

func TestSplitTrailingColonContentNoColon(t *testing.T) {
	before, colon := splitTrailingColonContent("just a sentence.")
	require.Equal(t, "just a sentence.", before)
	require.Equal(t, "", colon)
}

func TestSplitTrailingColonContentWithColon(t *testing.T) {
	before, colon := splitTrailingColonContent("Intro sentence here. The following list is given:")
	require.Equal(t, "Intro sentence here.", before)
	require.Equal(t, "The following list is given:", colon)
}
