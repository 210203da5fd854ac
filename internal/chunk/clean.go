package chunk

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reDiacritics = regexp.MustCompile(`[\x{064B}-\x{065F}\x{0610}-\x{061A}\x{06D6}-\x{06ED}]`)
	reTatweel    = regexp.MustCompile(`\x{0640}`)
	reInvisible  = regexp.MustCompile(`[\x{200B}-\x{200F}\x{FEFF}\x{00AD}]`)
	reControl    = regexp.MustCompile(`[\x{0000}-\x{001F}\x{007F}-\x{009F}]`)
	reNonAlnum   = regexp.MustCompile(`[^\x{0621}-\x{064A}\x{0660}-\x{0669}\x{06F0}-\x{06F9}a-zA-Z0-9]`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// clean applies the strict normalization used for length matching: NFKC
// normalize, strip diacritics/tatweel/invisible/control characters,
// keep only Arabic letters, Arabic-Indic digits, and ASCII alphanumerics,
// then remove all remaining whitespace. The result is used only to
// count characters for proportional length allocation, never displayed.
func clean(text string) string {
	text = norm.NFKC.String(text)
	text = reDiacritics.ReplaceAllString(text, "")
	text = reTatweel.ReplaceAllString(text, "")
	text = reInvisible.ReplaceAllString(text, "")
	text = reControl.ReplaceAllString(text, "")
	text = reNonAlnum.ReplaceAllString(text, "")
	text = reWhitespace.ReplaceAllString(text, "")
	return text
}

var (
	reFootnoteDiv = regexp.MustCompile(`(?s)<div class="footnote">.*?</div>`)
	rePageHeadDiv = regexp.MustCompile(`(?s)<div class="PageHead">.*?</div>`)
	reSupTag      = regexp.MustCompile(`(?s)<sup[^>]*>.*?</sup>`)
	reSubTag      = regexp.MustCompile(`(?s)<sub[^>]*>.*?</sub>`)
	reEmptyP      = regexp.MustCompile(`<p></p>`)
	reBrTag       = regexp.MustCompile(`<br\s*/?>`)
	reHrTag       = regexp.MustCompile(`<hr[^>]*/>`)
	reAllTags     = regexp.MustCompile(`<[^>]+>`)
	reMultiNL     = regexp.MustCompile(`\n{3,}`)
)

// stripHTML removes HTML tags and converts a segment to plain text,
// applying the same cleaning rules used when processing pages.
func stripHTML(html string) string {
	html = reFootnoteDiv.ReplaceAllString(html, "")
	html = rePageHeadDiv.ReplaceAllString(html, "")
	html = reSupTag.ReplaceAllString(html, "")
	html = reSubTag.ReplaceAllString(html, "")
	html = reEmptyP.ReplaceAllString(html, "\n\n")
	html = reBrTag.ReplaceAllString(html, "\n")
	html = reHrTag.ReplaceAllString(html, "")
	html = reAllTags.ReplaceAllString(html, "")
	html = reMultiNL.ReplaceAllString(html, "\n\n")
	return strings.TrimSpace(html)
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
