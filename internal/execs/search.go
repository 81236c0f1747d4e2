package execs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nextlevelbuilder/slashbot/internal/actions"
	"github.com/nextlevelbuilder/slashbot/internal/kernel"
)

const (
	searchTimeout      = 30 * time.Second
	defaultSearchCount = 5
	maxSearchCount     = 10
	searchUserAgent    = fetchUserAgent
)

type searchResult struct {
	Title       string
	URL         string
	Description string
}

var (
	ddgLinkRe    = regexp.MustCompile(`<a[^>]*class="[^"]*result__a[^"]*"[^>]*href="([^"]+)"[^>]*>([\s\S]*?)</a>`)
	ddgSnippetRe = regexp.MustCompile(`<a class="result__snippet[^"]*".*?>([\s\S]*?)</a>`)
	searchTagRe2 = regexp.MustCompile(`<[^>]+>`)
)

// SearchExecutor implements search{query, count?}: a DuckDuckGo HTML-scrape
// search, requiring no API key.
type SearchExecutor struct {
	client *http.Client
}

func NewSearchExecutor() *SearchExecutor {
	return &SearchExecutor{client: &http.Client{Timeout: searchTimeout}}
}

func (e *SearchExecutor) Execute(ctx context.Context, action actions.Action) (kernel.ToolResult, error) {
	query := action.Attrs["query"]
	if query == "" {
		return kernel.ErrResult(kernel.ErrPatternNotFound, "search requires a query attribute", ""), nil
	}
	count := defaultSearchCount
	if n, err := strconv.Atoi(action.Attrs["count"]); err == nil && n > 0 {
		count = n
	}
	if count > maxSearchCount {
		count = maxSearchCount
	}

	searchURL := fmt.Sprintf("https://html.duckduckgo.com/html/?q=%s", url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return kernel.ErrResult(kernel.ErrIO, err.Error(), ""), nil
	}

	results := extractDDGResults(string(body), count)
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n\n", i+1, r.Title, r.URL, r.Description)
	}

	return kernel.ToolResult{
		OK:      true,
		ForLLM:  sb.String(),
		ForUser: fmt.Sprintf("search %q (%d results)", query, len(results)),
	}, nil
}

func extractDDGResults(html string, count int) []searchResult {
	linkMatches := ddgLinkRe.FindAllStringSubmatch(html, count+5)
	if len(linkMatches) == 0 {
		return nil
	}
	snippetMatches := ddgSnippetRe.FindAllStringSubmatch(html, count+5)

	var results []searchResult
	for i := 0; i < len(linkMatches) && i < count; i++ {
		rawURL := linkMatches[i][1]
		title := strings.TrimSpace(searchTagRe2.ReplaceAllString(linkMatches[i][2], ""))

		if strings.Contains(rawURL, "uddg=") {
			if u, err := url.QueryUnescape(rawURL); err == nil {
				if idx := strings.Index(u, "uddg="); idx != -1 {
					extracted := u[idx+5:]
					if ampIdx := strings.Index(extracted, "&"); ampIdx != -1 {
						extracted = extracted[:ampIdx]
					}
					rawURL = extracted
				}
			}
		}

		desc := ""
		if i < len(snippetMatches) {
			desc = strings.TrimSpace(searchTagRe2.ReplaceAllString(snippetMatches[i][1], ""))
		}

		results = append(results, searchResult{Title: title, URL: rawURL, Description: desc})
	}
	return results
}

var _ actions.Executor = (*SearchExecutor)(nil)
