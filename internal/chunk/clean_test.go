package chunk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanStripsDiacriticsAndWhitespace(t *testing.T) {
	// بِسْمِ (with diacritics) should reduce to بسم with no spaces.
	in := "بِسْمِ الله"
	out := clean(in)
	require.NotContains(t, out, " ")
	require.Equal(t, "بسمالله", out)
}

func TestCleanKeepsAsciiAlnum(t *testing.T) {
	require.Equal(t, "abc123", clean("abc 123!!"))
}

func TestCleanStripsTatweelAndControls(t *testing.T) {
	in := "aـb​c\x01d"
	require.Equal(t, "abcd", clean(in))
}

func TestStripHTMLRemovesFootnotesAndTags(t *testing.T) {
	html := `<div class="footnote">note</div><p>hello</p><sup>1</sup>`
	out := stripHTML(html)
	require.NotContains(t, out, "note")
	require.NotContains(t, out, "<p>")
	require.Contains(t, out, "hello")
}
