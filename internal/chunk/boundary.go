package chunk

import (
	"regexp"
	"strings"
)

const boundaryLookback = 50_000

var rePeriodBoundary = regexp.MustCompile(`\.(\s*<|\s+[^\s<])`)

// findSentenceBoundaryBefore finds the nearest sentence/section start at
// or before pos by taking the maximum of three candidate positions: the
// last empty paragraph, the last page-text div start, and the last
// period followed by whitespace-or-tag within a bounded lookback
// window. Returns 0 if none are found.
func findSentenceBoundaryBefore(html string, pos int) int {
	bestPos := 0

	const emptyP = "<p></p>"
	if idx := strings.LastIndex(html[:pos], emptyP); idx != -1 {
		bestPos = max(bestPos, idx+len(emptyP))
	}

	const pageDiv = `<div class="PageText">`
	if idx := strings.LastIndex(html[:pos], pageDiv); idx != -1 {
		bestPos = max(bestPos, idx+len(pageDiv))
	}

	windowStart := pos - boundaryLookback
	if windowStart < 0 {
		windowStart = 0
	}
	region := html[windowStart:pos]
	if matches := rePeriodBoundary.FindAllStringIndex(region, -1); len(matches) > 0 {
		last := matches[len(matches)-1]
		bestPos = max(bestPos, windowStart+last[0]+1)
	}

	return bestPos
}
