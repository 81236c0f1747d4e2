package execs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

const (
	fetchMaxChars   = 50000
	fetchTimeout    = 30 * time.Second
	fetchUserAgent  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// FetchExecutor implements fetch{url}: fetches a URL and extracts its
// content (HTML converted to markdown, JSON pretty-printed, else raw text).
type FetchExecutor struct {
	MaxChars int
	// Browser renders JS-dependent pages when the plain HTTP fetch looks
	// like an empty shell. Nil disables the fallback.
	Browser *rod.Browser
}

func NewFetchExecutor() *FetchExecutor {
	return &FetchExecutor{MaxChars: fetchMaxChars}
}

func (e *FetchExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	raw := action.Attrs["url"]
	if raw == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "fetch requires a url attribute", ""), nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return kernel.ErrResult(kernel.ErrDenied, "fetch only supports http(s) URLs", ""), nil
	}

	runCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, _ := http.NewRequestWithContext(runCtx, http.MethodGet, raw, nil)
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}

	ctype := resp.Header.Get("Content-Type")
	var content, kind string
	switch {
	case strings.Contains(ctype, "json"):
		content, kind = extractJSON(body)
	case strings.Contains(ctype, "html"):
		content, kind = htmlToMarkdown(string(body)), "html"
		if e.Browser != nil && looksLikeEmptyShell(content) {
			if rendered, ok := e.renderWithBrowser(raw); ok {
				content = rendered
			}
		}
	default:
		content, kind = string(body), "text"
	}

	max := e.MaxChars
	if max <= 0 {
		max = fetchMaxChars
	}
	if len(content) > max {
		content = content[:max] + "\n…(truncated)"
	}

	return kernel.ToolResult{
		OK:      true,
		ForLLM:  content,
		ForUser: fmt.Sprintf("fetch %s (%s)", raw, kind),
	}, nil
}

// looksLikeEmptyShell heuristically flags pages that rendered to almost
// nothing — typical of client-side-rendered apps whose content only
// appears after JS runs.
func looksLikeEmptyShell(content string) bool {
	return len(strings.TrimSpace(content)) < 200
}

// renderWithBrowser re-fetches the page through a headless browser when the
// plain HTTP response looks JS-dependent.
func (e *FetchExecutor) renderWithBrowser(url string) (string, bool) {
	page, err := e.Browser.Page(rod.PageConfig{URL: url})
	if err != nil {
		return "", false
	}
	defer page.Close()
	if err := page.WaitLoad(); err != nil {
		return "", false
	}
	html, err := page.HTML()
	if err != nil {
		return "", false
	}
	return htmlToMarkdown(html), true
}

var _ actions.Executor = (*FetchExecutor)(nil)
