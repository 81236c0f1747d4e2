package agent

import (
	"strings"
	"testing"

	"github.com/nextlevelbuilder/slashbot/internal/providers"
)

func imageFixture(mime string) providers.ImageContent {
	return providers.ImageContent{MimeType: mime, Data: "ZmFrZQ=="}
}

func TestBuffer_AddPasteAndExpand(t *testing.T) {
	b := NewBuffer()
	placeholder := b.AddPaste("line one\nline two\nline three")
	if !strings.HasPrefix(placeholder, "[pasted content 3 lines]") {
		t.Fatalf("unexpected placeholder: %q", placeholder)
	}

	expanded := b.ExpandPastePlaceholders("before " + placeholder + " after")
	if expanded != "before line one\nline two\nline three after" {
		t.Fatalf("expansion did not recover stored text: %q", expanded)
	}
}

func TestBuffer_ExpandLeavesUnknownPlaceholderIntact(t *testing.T) {
	b := NewBuffer()
	text := "see [pasted content 2 lines]​9999"
	if got := b.ExpandPastePlaceholders(text); got != text {
		t.Fatalf("expected unknown placeholder left untouched, got %q", got)
	}
}

func TestBuffer_AddImageAndExpand(t *testing.T) {
	b := NewBuffer()
	p1 := b.AddImage(imageFixture("image/png"))
	p2 := b.AddImage(imageFixture("image/jpeg"))

	images := b.ExpandImagePlaceholders(p1+" "+p2, 0)
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
	if images[0].MimeType != "image/png" || images[1].MimeType != "image/jpeg" {
		t.Fatalf("images resolved out of order: %+v", images)
	}
}

func TestBuffer_ExpandImagePlaceholders_RespectsMax(t *testing.T) {
	b := NewBuffer()
	p1 := b.AddImage(imageFixture("image/png"))
	p2 := b.AddImage(imageFixture("image/png"))

	images := b.ExpandImagePlaceholders(p1+" "+p2, 1)
	if len(images) != 1 {
		t.Fatalf("expected max to cap result at 1, got %d", len(images))
	}
}

func TestInferImageMime(t *testing.T) {
	cases := map[string]string{
		"photo.JPG":  "image/jpeg",
		"photo.jpeg": "image/jpeg",
		"icon.png":   "image/png",
		"anim.gif":   "image/gif",
		"pic.webp":   "image/webp",
		"doc.pdf":    "",
	}
	for path, want := range cases {
		if got := inferImageMime(path); got != want {
			t.Errorf("inferImageMime(%q) = %q, want %q", path, got, want)
		}
	}
}
