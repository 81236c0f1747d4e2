package agent

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/nextlevelbuilder/slashbot/internal/providers"
)

// maxImageBytes is the safety limit for reading image files (10MB).
const maxImageBytes = 10 * 1024 * 1024

// pasteCounter / imageCounter hand out process-scoped monotonic ids, shared
// by every Buffer in the process so ids never repeat across buffers.
var pasteCounter atomic.Int64
var imageCounter atomic.Int64

// Buffer holds opaque pasted text and image content, addressable by a
// rendering placeholder the user sees in place of the raw payload until
// the turn engine expands it.
type Buffer struct {
	mu     sync.Mutex
	pastes map[int64]string
	images map[int64]providers.ImageContent
}

// NewBuffer creates an empty paste/image buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		pastes: make(map[int64]string),
		images: make(map[int64]providers.ImageContent),
	}
}

// AddPaste stores text and returns its rendering placeholder.
func (b *Buffer) AddPaste(text string) string {
	id := pasteCounter.Add(1)
	lines := strings.Count(text, "\n") + 1
	b.mu.Lock()
	b.pastes[id] = text
	b.mu.Unlock()
	return fmt.Sprintf("[pasted content %d lines]", lines) + pasteIDSuffix(id)
}

// pasteIDSuffix appends the id to the placeholder text so
// ExpandPastePlaceholders can recover it; a zero-width space separates the
// "[pasted content N lines]" text from the decimal id.
func pasteIDSuffix(id int64) string {
	return fmt.Sprintf("​%d", id) // zero-width space + decimal id
}

// AddImage stores image content and returns its rendering placeholder.
func (b *Buffer) AddImage(img providers.ImageContent) string {
	id := imageCounter.Add(1)
	b.mu.Lock()
	b.images[id] = img
	b.mu.Unlock()
	return fmt.Sprintf("[image:%d]", id)
}

var pastePlaceholderRe = regexp.MustCompile(`\[pasted content \d+ lines\]\x{200b}(\d+)`)
var pasteTaggedRe = regexp.MustCompile(`\[pasted:(\d+):[^\]]*\]`)
var imagePlaceholderRe = regexp.MustCompile(`\[image:(\d+)\]`)

// ExpandPastePlaceholders replaces every paste placeholder in text with its
// stored content. Recognises both the canonical "[pasted content N lines]"
// form and the legacy "[pasted:<id>:<desc>]" form.
func (b *Buffer) ExpandPastePlaceholders(text string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	text = pastePlaceholderRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := pastePlaceholderRe.FindStringSubmatch(m)
		id, _ := strconv.ParseInt(sub[1], 10, 64)
		if content, ok := b.pastes[id]; ok {
			return content
		}
		return m
	})
	text = pasteTaggedRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := pasteTaggedRe.FindStringSubmatch(m)
		id, _ := strconv.ParseInt(sub[1], 10, 64)
		if content, ok := b.pastes[id]; ok {
			return content
		}
		return m
	})
	return text
}

// ExpandImagePlaceholders returns the images referenced by [image:N]
// placeholders found in text, bounded by maxImages.
func (b *Buffer) ExpandImagePlaceholders(text string, maxImages int) []providers.ImageContent {
	b.mu.Lock()
	defer b.mu.Unlock()

	matches := imagePlaceholderRe.FindAllStringSubmatch(text, -1)
	var out []providers.ImageContent
	for _, m := range matches {
		if maxImages > 0 && len(out) >= maxImages {
			break
		}
		id, _ := strconv.ParseInt(m[1], 10, 64)
		if img, ok := b.images[id]; ok {
			out = append(out, img)
		}
	}
	return out
}

// loadImages reads local image files and returns base64-encoded
// ImageContent slices. Non-image files and files that fail to read are
// skipped with a warning log.
func loadImages(paths []string) []providers.ImageContent {
	if len(paths) == 0 {
		return nil
	}

	var images []providers.ImageContent
	for _, p := range paths {
		mime := inferImageMime(p)
		if mime == "" {
			continue
		}

		data, err := os.ReadFile(p)
		if err != nil {
			slog.Warn("vision: failed to read image file", "path", p, "error", err)
			continue
		}
		if len(data) > maxImageBytes {
			slog.Warn("vision: image file too large, skipping", "path", p, "size", len(data))
			continue
		}

		images = append(images, providers.ImageContent{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(data),
		})
	}
	return images
}

// inferImageMime returns the MIME type for supported image extensions, or
// "" if not an image.
func inferImageMime(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}
