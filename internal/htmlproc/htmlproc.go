// Package htmlproc converts the ordered raw HTML pages of a book into a
// processed metadata document: cleaned per-page text grouped by part,
// and the optional bibliographic fields recognized from the book's
// front matter.
package htmlproc

import (
	"regexp"
	"strings"

	"github.com/maktaba/corpus/internal/model"
)

// biblioLabels maps the fixed Arabic bibliographic labels to the
// English metadata keys they populate.
var biblioLabels = map[string]string{
	"المحقق":               "editor",
	"الطبعة":                "edition",
	"الناشر":                "publisher",
	"عدد الأجزاء":           "num_volumes",
	"عدد الصفحات":           "num_pages",
	"تاريخ النشر بالشاملة": "shamela_pub_date",
	"المؤلف":                "author_full",
}

var (
	rePageHead    = regexp.MustCompile(`(?s)<div class="PageHead">.*?</div>`)
	rePageNumSpan = regexp.MustCompile(`(?s)<span[^>]*class="[^"]*PageNum[^"]*"[^>]*>\s*ص:\s*([0-9\x{0660}-\x{0669}\x{06F0}-\x{06F9}]+)\s*</span>`)
	rePartSpan    = regexp.MustCompile(`(?s)<span[^>]*class="[^"]*PartName[^"]*"[^>]*>(.*?)</span>`)
	reBiblioRow   = regexp.MustCompile(`(?s)<span[^>]*class="[^"]*BiblioLabel[^"]*"[^>]*>\s*([^<:]+?)\s*:?\s*</span>\s*<span[^>]*class="[^"]*BiblioValue[^"]*"[^>]*>(.*?)</span>`)

	reFootnoteDiv = regexp.MustCompile(`(?s)<div class="footnote">.*?</div>`)
	reSup         = regexp.MustCompile(`(?s)<sup[^>]*>.*?</sup>`)
	reSub         = regexp.MustCompile(`(?s)<sub[^>]*>.*?</sub>`)
	reTag         = regexp.MustCompile(`<[^>]+>`)
	reFootMarker  = regexp.MustCompile(`\(\d+\)|\[\d+\]|⦗ص:\s*\d+⦘`)
	reTitleSpan   = regexp.MustCompile(`(?s)<span[^>]*class="[^"]*Title[^"]*"[^>]*>(.*?)</span>`)
	reMultiNL     = regexp.MustCompile(`\n{3,}`)
)

// arabicIndicDigits maps Arabic-Indic and Extended Arabic-Indic digits
// to ASCII.
var arabicIndicDigits = map[rune]rune{
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
}

func normalizeDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if ascii, ok := arabicIndicDigits[r]; ok {
			b.WriteRune(ascii)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isContentPage reports whether html contains a page-head element with
// a page-number span.
func isContentPage(html string) bool {
	head := rePageHead.FindString(html)
	if head == "" {
		return false
	}
	return rePageNumSpan.MatchString(head)
}

func extractPageNum(html string) string {
	m := rePageNumSpan.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	return normalizeDigits(m[1])
}

func extractPartTitle(html string) string {
	head := rePageHead.FindString(html)
	m := rePartSpan.FindStringSubmatch(head)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(reTag.ReplaceAllString(m[1], ""))
}

// cleanPageText applies the content-page text cleaning rules: footnote
// divs, superscripts, and the page head are removed; inline footnote
// markers are stripped; title spans are wrapped in "**...**"; paragraph
// breaks are preserved.
func cleanPageText(html string) string {
	html = reFootnoteDiv.ReplaceAllString(html, "")
	html = rePageHead.ReplaceAllString(html, "")
	html = reSup.ReplaceAllString(html, "")
	html = reSub.ReplaceAllString(html, "")
	html = reTitleSpan.ReplaceAllStringFunc(html, func(m string) string {
		inner := reTitleSpan.FindStringSubmatch(m)[1]
		return "**" + strings.TrimSpace(reTag.ReplaceAllString(inner, "")) + "**"
	})
	html = strings.ReplaceAll(html, "<p></p>", "\n\n")
	html = regexp.MustCompile(`<br\s*/?>`).ReplaceAllString(html, "\n")
	html = reTag.ReplaceAllString(html, "")
	html = reFootMarker.ReplaceAllString(html, "")
	html = reMultiNL.ReplaceAllString(html, "\n\n")
	return strings.TrimSpace(html)
}

// terminalPunctuation is the set of characters after which a page-run
// concatenation should start a new paragraph rather than continue the
// previous sentence.
var terminalPunctuation = []string{".", "؟", "?", "!", "***", "»", "]", "\""}

func endsWithTerminal(s string) bool {
	s = strings.TrimRight(s, " \t\n")
	for _, p := range terminalPunctuation {
		if strings.HasSuffix(s, p) {
			return true
		}
	}
	return false
}

func startsWithNonLetter(s string) bool {
	s = strings.TrimLeft(s, " \t\n")
	if s == "" {
		return false
	}
	r := []rune(s)[0]
	return !isLetter(r)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= 0x0621 && r <= 0x064A)
}

// Process walks pages in order and builds the processed metadata
// document. book carries the catalog identity fields and table of
// contents to pass through unchanged.
func Process(book model.Book, authorName, categoryName string, pages []model.RawPage) model.Metadata {
	meta := model.Metadata{
		BookID:          book.BookID,
		BookName:        book.BookName,
		Author:          authorName,
		Category:        categoryName,
		Parts:           nil,
		Pages:           make(map[string][]model.PageRecord),
		TableOfContents: book.TableOfContents,
	}

	partSeen := make(map[string]bool)
	var biblioContributed bool
	var pageID int64

	for _, page := range pages {
		html := string(page.Content)

		if !isContentPage(html) {
			if !biblioContributed {
				if applyBiblio(&meta, html) {
					biblioContributed = true
				}
			}
			continue
		}

		pageID++
		partTitle := extractPartTitle(html)
		rec := model.PageRecord{
			PageID:      pageID,
			PageNum:     extractPageNum(html),
			PartTitle:   partTitle,
			CleanedText: cleanPageText(html),
			DisplayElem: html,
		}

		if !partSeen[partTitle] {
			partSeen[partTitle] = true
			meta.Parts = append(meta.Parts, partTitle)
		}
		meta.Pages[partTitle] = append(meta.Pages[partTitle], rec)
	}

	return meta
}

// applyBiblio scans a non-content page for bibliographic label/value
// rows and fills any matching fields on meta. Returns true if any field
// was populated, so the caller stops after the first qualifying page.
func applyBiblio(meta *model.Metadata, html string) bool {
	matches := reBiblioRow.FindAllStringSubmatch(html, -1)
	if matches == nil {
		return false
	}

	found := false
	for _, m := range matches {
		label := strings.TrimSpace(m[1])
		value := strings.TrimSpace(reTag.ReplaceAllString(m[2], ""))
		key, ok := biblioLabels[label]
		if !ok || value == "" {
			continue
		}
		found = true
		switch key {
		case "editor":
			meta.Editor = value
		case "edition":
			meta.Edition = value
		case "publisher":
			meta.Publisher = value
		case "num_volumes":
			meta.NumVolumes = value
		case "num_pages":
			meta.NumPages = value
		case "shamela_pub_date":
			meta.ShamelaPubDate = value
		case "author_full":
			meta.AuthorFull = value
		}
	}
	return found
}

// ConcatenatePageRun joins a run of content pages' cleaned text into a
// single markdown-like string, inserting a paragraph break where the
// previous page ended in terminal punctuation or the next page begins
// with a non-letter, otherwise joining with a single space.
func ConcatenatePageRun(pages []model.PageRecord) string {
	if len(pages) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(pages[0].CleanedText)
	for i := 1; i < len(pages); i++ {
		prev := pages[i-1].CleanedText
		next := pages[i].CleanedText
		if endsWithTerminal(prev) || startsWithNonLetter(next) {
			b.WriteString("\n\n")
		} else {
			b.WriteString(" ")
		}
		b.WriteString(next)
	}
	return b.String()
}
