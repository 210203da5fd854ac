package htmlproc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maktaba/corpus/internal/model"
)

func TestNormalizeDigits(t *testing.T) {
	require.Equal(t, "123", normalizeDigits("١٢٣"))
	require.Equal(t, "45", normalizeDigits("۴۵"))
	require.Equal(t, "7", normalizeDigits("7"))
}

func TestIsContentPage(t *testing.T) {
	content := `<div class="PageHead"><span class="PageNum">ص: 12</span></div><p>text</p>`
	require.True(t, isContentPage(content))

	notContent := `<div class="Colophon"><p>no page head here</p></div>`
	require.False(t, isContentPage(notContent))
}

func TestExtractPartTitle(t *testing.T) {
	html := `<div class="PageHead"><span class="PartName">الجزء الأول</span><span class="PageNum">ص: 1</span></div>`
	require.Equal(t, "الجزء الأول", extractPartTitle(html))
}

func TestCleanPageTextStripsFootnotesAndMarkers(t *testing.T) {
	html := `<div class="PageHead">head</div><p>hello(1) world<sup>2</sup> end[3]</p><div class="footnote">note text</div>`
	cleaned := cleanPageText(html)
	require.NotContains(t, cleaned, "footnote")
	require.NotContains(t, cleaned, "(1)")
	require.NotContains(t, cleaned, "[3]")
	require.NotContains(t, cleaned, "<sup>")
}

func TestProcessAssignsMonotonicPageIDsAndParts(t *testing.T) {
	pages := []model.RawPage{
		{Filename: "001.htm", Content: []byte(`<div class="PageHead"><span class="PartName">Part A</span><span class="PageNum">ص: 1</span></div><p>one</p>`)},
		{Filename: "002.htm", Content: []byte(`<div class="PageHead"><span class="PartName">Part A</span><span class="PageNum">ص: 2</span></div><p>two</p>`)},
		{Filename: "003.htm", Content: []byte(`<div class="PageHead"><span class="PartName">Part B</span><span class="PageNum">ص: 3</span></div><p>three</p>`)},
	}
	book := model.Book{BookID: 1, BookName: "Test"}
	meta := Process(book, "Author", "Category", pages)

	require.Equal(t, []string{"Part A", "Part B"}, meta.Parts)
	require.Len(t, meta.Pages["Part A"], 2)
	require.Len(t, meta.Pages["Part B"], 1)
	require.Equal(t, int64(1), meta.Pages["Part A"][0].PageID)
	require.Equal(t, int64(2), meta.Pages["Part A"][1].PageID)
	require.Equal(t, int64(3), meta.Pages["Part B"][0].PageID)
}

func TestProcessCapturesBiblioFromFirstNonContentPage(t *testing.T) {
	pages := []model.RawPage{
		{Filename: "000.htm", Content: []byte(`<div class="Colophon">
			<span class="BiblioLabel">المحقق</span><span class="BiblioValue">فلان الفلاني</span>
			<span class="BiblioLabel">الطبعة</span><span class="BiblioValue">الثانية</span>
		</div>`)},
		{Filename: "001.htm", Content: []byte(`<div class="PageHead"><span class="PageNum">ص: 1</span></div><p>one</p>`)},
	}
	book := model.Book{BookID: 1, BookName: "Test"}
	meta := Process(book, "Author", "Category", pages)

	require.Equal(t, "فلان الفلاني", meta.Editor)
	require.Equal(t, "الثانية", meta.Edition)
}

func TestConcatenatePageRunInsertsBreakAfterTerminalPunctuation(t *testing.T) {
	pages := []model.PageRecord{
		{CleanedText: "This ends well."},
		{CleanedText: "Next page starts."},
	}
	joined := ConcatenatePageRun(pages)
	require.Contains(t, joined, "\n\n")
}

func TestConcatenatePageRunJoinsWithSpaceOtherwise(t *testing.T) {
	pages := []model.PageRecord{
		{CleanedText: "continues without end"},
		{CleanedText: "into the next page"},
	}
	joined := ConcatenatePageRun(pages)
	require.Equal(t, "continues without end into the next page", joined)
}
