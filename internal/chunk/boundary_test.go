package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindSentenceBoundaryBeforePrefersLaterCandidate(t *testing.T) {
	html := `<p></p>some text<div class="PageText">more text` + strings.Repeat("x", 10) + `<span data-type="title" id="toc-1">`
	marker := strings.Index(html, `<span data-type="title"`)
	pos := findSentenceBoundaryBefore(html, marker)
	// The PageText div start is later than the empty-paragraph boundary.
	pageDivEnd := strings.Index(html, `<div class="PageText">`) + len(`<div class="PageText">`)
	require.Equal(t, pageDivEnd, pos)
}

func TestFindSentenceBoundaryBeforeFallsBackToPeriod(t *testing.T) {
	html := `intro text. continuing text <span data-type="title" id="toc-1">`
	marker := strings.Index(html, `<span data-type="title"`)
	pos := findSentenceBoundaryBefore(html, marker)
	require.Greater(t, pos, 0)
	require.LessOrEqual(t, pos, marker)
}

func TestFindSentenceBoundaryBeforeNoCandidatesReturnsZero(t *testing.T) {
	html := `no boundaries here <span data-type="title" id="toc-1">`
	marker := strings.Index(html, `<span data-type="title"`)
	pos := findSentenceBoundaryBefore(html, marker)
	require.Equal(t, 0, pos)
}
