package connectors

import "testing"

func TestSplit_NoNewlinesHardCutsAtLimit(t *testing.T) {
	text := make([]byte, 5000)
	for i := range text {
		text[i] = 'x'
	}
	chunks := Split(string(text), MaxChunkTelegram)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len([]rune(chunks[0])) != 4000 || len([]rune(chunks[1])) != 1000 {
		t.Fatalf("expected chunk lengths 4000/1000, got %d/%d", len(chunks[0]), len(chunks[1]))
	}
}

func TestSplit_PrefersNewlineBoundary(t *testing.T) {
	line1 := "first line\n"
	rest := ""
	for len(rest) < 30 {
		rest += "word "
	}
	input := line1 + rest
	chunks := Split(input, len(line1)+5)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	if chunks[0] != line1 {
		t.Fatalf("expected first chunk to stop at the newline, got %q", chunks[0])
	}
}

func TestSplit_ContinuationChunksAreLeftTrimmed(t *testing.T) {
	input := "aaaa aaaa aaaa aaaa aaaa"
	chunks := Split(input, 10)
	for i, c := range chunks {
		if i == 0 {
			continue
		}
		if len(c) > 0 && (c[0] == ' ' || c[0] == '\t' || c[0] == '\n') {
			t.Fatalf("chunk %d has leading whitespace: %q", i, c)
		}
	}
}

func TestSplit_WideRunesCountDoubleTowardLimit(t *testing.T) {
	// Each CJK rune below renders at display width 2, so ten of them consume
	// a 20-cell budget; a rune-count cut would fit all ten, a width-aware
	// cut must not.
	input := "一二三四五六七八九十"
	chunks := Split(input, 10)
	if len(chunks) < 2 {
		t.Fatalf("expected wide runes to force a split at a 10-cell limit, got %d chunk(s)", len(chunks))
	}
	if DisplayWidth(chunks[0]) > 10 {
		t.Fatalf("first chunk exceeds the display-width budget: width=%d", DisplayWidth(chunks[0]))
	}
}

func TestSplit_UnboundedReturnsWhole(t *testing.T) {
	input := "anything at all, arbitrarily long for CLI mode"
	chunks := Split(input, MaxChunkCLI)
	if len(chunks) != 1 || chunks[0] != input {
		t.Fatalf("expected a single unbounded chunk, got %+v", chunks)
	}
}
