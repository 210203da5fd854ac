package chunk

import "strings"

const minChunkWords = 7

// postProcessChunks walks the raw chunk list, maintaining a
// carry_forward string that absorbs trailing colon-introduced content
// and chunks under the minimum word count, so no emitted chunk ends on
// a "declaration before list" colon or is left absurdly short.
func postProcessChunks(chunks []string) []string {
	if len(chunks) == 0 {
		return chunks
	}

	var result []string
	carryForward := ""

	for _, chunk := range chunks {
		if carryForward != "" {
			chunk = carryForward + "\n\n" + chunk
			carryForward = ""
		}

		before, colonContent := splitTrailingColonContent(chunk)

		switch {
		case colonContent != "" && countWords(before) >= minChunkWords:
			result = append(result, before)
			carryForward = colonContent
		case colonContent != "" && before != "":
			carryForward = before + "\n\n" + colonContent
		case colonContent != "":
			carryForward = colonContent
		case countWords(chunk) < minChunkWords:
			carryForward = chunk
		default:
			result = append(result, chunk)
		}
	}

	if carryForward != "" {
		if len(result) > 0 {
			result[len(result)-1] = result[len(result)-1] + "\n\n" + carryForward
		} else {
			result = append(result, carryForward)
		}
	}

	return result
}

// splitTrailingColonContent strips trailing colon-terminated
// sentences/lines from the tail of text, repeatedly, until the
// remainder does not end in a colon. Returns (remainder, colonContent);
// colonContent is empty if text does not end in a colon.
func splitTrailingColonContent(text string) (string, string) {
	text = strings.TrimRight(text, " \t\n\r")
	if !strings.HasSuffix(text, ":") {
		return text, ""
	}

	var colonParts []string
	for strings.HasSuffix(strings.TrimRight(text, " \t\n\r"), ":") {
		text = strings.TrimRight(text, " \t\n\r")

		lastPeriod := lastSentencePeriod(text)
		lastNewline := strings.LastIndex(text, "\n")
		splitPos := lastPeriod
		if lastNewline > splitPos {
			splitPos = lastNewline
		}

		if splitPos == -1 {
			colonParts = append([]string{text}, colonParts...)
			text = ""
			break
		}

		colonPart := strings.TrimSpace(text[splitPos+1:])
		colonParts = append([]string{colonPart}, colonParts...)
		text = strings.TrimRight(text[:splitPos+1], " \t\n\r")
	}

	return text, strings.Join(colonParts, "\n\n")
}

// lastSentencePeriod finds the last '.' in text[:len(text)-1] that is
// followed by whitespace or end-of-string, mirroring a scan backward
// for the sentence boundary preceding the colon clause.
func lastSentencePeriod(text string) int {
	for i := len(text) - 2; i >= 0; i-- {
		if text[i] != '.' {
			continue
		}
		if i+1 >= len(text) {
			return i
		}
		switch text[i+1] {
		case ' ', '\n', '\t', '\r':
			return i
		}
	}
	return -1
}
