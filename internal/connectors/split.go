package connectors

import (
	"github.com/mattn/go-runewidth"
)

// Split breaks text into chunks no wider than maxChunk display cells,
// preferring a newline boundary inside the window, then a word boundary,
// then a hard cut at the widest rune count that still fits. Continuation
// chunks are left-trimmed so no chunk begins with whitespace. maxChunk <= 0
// means unbounded (the CLI case): text is returned whole.
func Split(text string, maxChunk int) []string {
	if maxChunk <= 0 || DisplayWidth(text) <= maxChunk {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	runes := []rune(text)
	var chunks []string

	for len(runes) > 0 {
		if DisplayWidth(string(runes)) <= maxChunk {
			chunks = append(chunks, string(runes))
			break
		}

		end := widthBoundary(runes, maxChunk)
		window := runes[:end]
		cut := lastNewline(window)
		if cut < 0 {
			cut = lastWordBoundary(window)
		}
		if cut <= 0 {
			cut = end
		}

		chunk := string(runes[:cut])
		chunks = append(chunks, chunk)
		rest := runes[cut:]
		chunks, runes = consumeLeft(chunks, rest)
	}

	return chunks
}

// widthBoundary returns the largest rune count n such that runes[:n]'s
// display width does not exceed maxWidth, so a hard cut never bisects a
// double-width rune's budget (e.g. a CJK character counted as 2 cells).
func widthBoundary(runes []rune, maxWidth int) int {
	width := 0
	for i, r := range runes {
		w := runewidth.RuneWidth(r)
		if width+w > maxWidth {
			return i
		}
		width += w
	}
	return len(runes)
}

func lastNewline(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '\n' {
			return i + 1 // keep the newline in the emitted chunk
		}
	}
	return -1
}

func lastWordBoundary(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		if window[i] == ' ' || window[i] == '\t' {
			return i // cut before the space; consumeLeft drops it from the next chunk
		}
	}
	return -1
}

// consumeLeft trims leading whitespace from rest (continuation chunks are
// left-trimmed) without otherwise altering chunk count/order.
func consumeLeft(chunks []string, rest []rune) ([]string, []rune) {
	i := 0
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t' || rest[i] == '\n') {
		i++
	}
	return chunks, rest[i:]
}

// DisplayWidth reports s's rendered terminal width, accounting for
// double-width runes; used by connectors whose platform counts display cells
// rather than code points when enforcing a max-chunk limit.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}
