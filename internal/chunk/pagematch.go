package chunk

import "github.com/maktaba/corpus/internal/model"

type pageInfo struct {
	pageID    int64
	pageNum   string
	partTitle string
	length    int
}

// loadPagesForMatching computes each page's proportional share of the
// total chunk length: for every page but the last, `round(chunkTotal *
// estimatedLen / estimatedTotal)`; the last page takes the remainder so
// totals match exactly.
func loadPagesForMatching(meta model.Metadata, chunks []string) []pageInfo {
	chunkTotal := 0
	for _, c := range chunks {
		chunkTotal += len([]rune(clean(c)))
	}

	var pages []pageInfo
	var estimatedLens []int
	estimatedTotal := 0
	for _, part := range meta.Parts {
		for _, rec := range meta.Pages[part] {
			estimated := len([]rune(clean(stripHTML(rec.DisplayElem + "\n"))))
			pages = append(pages, pageInfo{pageID: rec.PageID, pageNum: rec.PageNum, partTitle: part})
			estimatedLens = append(estimatedLens, estimated)
			estimatedTotal += estimated
		}
	}

	remaining := chunkTotal
	for i := range pages {
		if i == len(pages)-1 {
			pages[i].length = remaining
			continue
		}
		proportional := 0
		if estimatedTotal > 0 {
			proportional = roundHalfAwayFromZero(float64(chunkTotal) * float64(estimatedLens[i]) / float64(estimatedTotal))
		}
		pages[i].length = proportional
		remaining -= proportional
	}

	return pages
}

func roundHalfAwayFromZero(f float64) int {
	if f >= 0 {
		return int(f + 0.5)
	}
	return -int(-f + 0.5)
}

// MatchedChunk is one chunk with its text and resolved page assignment.
type MatchedChunk struct {
	Order        int
	Text         string
	StartPageID  int64
	PageOffset   int
	PageNumRange model.PageNumRange
	PartTitle    string
}

// MatchChunksToPages assigns each chunk a page range by proportional
// length matching: pages are allocated lengths proportional to their
// estimated share of the total, then a two-pointer sweep consumes chunk
// and page lengths together, emitting a chunk's page assignment
// whenever its remaining length is fully covered.
func MatchChunksToPages(meta model.Metadata, chunks []string) []MatchedChunk {
	result := make([]MatchedChunk, len(chunks))
	for i, c := range chunks {
		result[i] = MatchedChunk{Order: i, Text: c}
	}

	pages := loadPagesForMatching(meta, chunks)
	if len(chunks) == 0 || len(pages) == 0 {
		return result
	}

	chunkLens := make([]int, len(chunks))
	for i, c := range chunks {
		chunkLens[i] = len([]rune(clean(c)))
	}
	pageLens := make([]int, len(pages))
	for i, p := range pages {
		pageLens[i] = p.length
	}

	assigned := make([]bool, len(chunks))
	chunkPointer, pagePointer := 0, 0
	startPageIndex := 0
	startPageID := pages[0].pageID
	startPageNum := pages[0].pageNum
	currPart := ""

	for pagePointer < len(pages) && chunkPointer < len(chunks) {
		cLength := chunkLens[chunkPointer]
		pLength := pageLens[pagePointer]
		page := pages[pagePointer]
		currPart = page.partTitle

		switch {
		case pLength < cLength:
			chunkLens[chunkPointer] -= pLength
			pageLens[pagePointer] = 0
			pagePointer++
		case pLength > cLength:
			result[chunkPointer].StartPageID = startPageID
			result[chunkPointer].PageOffset = pagePointer - startPageIndex
			result[chunkPointer].PageNumRange = model.PageNumRange{startPageNum, page.pageNum}
			result[chunkPointer].PartTitle = currPart
			assigned[chunkPointer] = true

			startPageIndex = pagePointer
			startPageID = page.pageID
			startPageNum = page.pageNum
			pageLens[pagePointer] -= cLength
			chunkLens[chunkPointer] = 0
			chunkPointer++
		default:
			result[chunkPointer].StartPageID = startPageID
			result[chunkPointer].PageOffset = pagePointer - startPageIndex
			result[chunkPointer].PageNumRange = model.PageNumRange{startPageNum, page.pageNum}
			result[chunkPointer].PartTitle = currPart
			assigned[chunkPointer] = true

			chunkLens[chunkPointer] = 0
			pageLens[pagePointer] = 0
			pagePointer++
			chunkPointer++
			if pagePointer < len(pages) {
				startPageIndex = pagePointer
				startPageID = pages[pagePointer].pageID
				startPageNum = pages[pagePointer].pageNum
			}
		}
	}

	for i := chunkPointer; i < len(chunks); i++ {
		if assigned[i] {
			continue
		}
		if i > 0 && assigned[i-1] {
			result[i].StartPageID = result[i-1].StartPageID
			result[i].PageOffset = result[i-1].PageOffset
			result[i].PageNumRange = result[i-1].PageNumRange
			result[i].PartTitle = result[i-1].PartTitle
			assigned[i] = true
		} else {
			result[i].StartPageID = startPageID
			result[i].PageOffset = 0
			result[i].PageNumRange = model.PageNumRange{startPageNum, startPageNum}
			result[i].PartTitle = currPart
		}
	}

	return result
}
