// Package upgrade checks GitHub releases for a newer binary than the one
// currently running, the backing logic for `slashbot update`/`update-check`.
package upgrade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ReleaseStatus is the result of comparing the running version against the
// latest published release.
type ReleaseStatus struct {
	CurrentVersion string
	LatestVersion  string
	LatestURL      string
	UpToDate       bool
}

var ErrNoReleases = errors.New("upgrade: repository has no published releases")

type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Draft   bool   `json:"draft"`
	Prerelease bool `json:"prerelease"`
}

// CheckLatest queries the GitHub releases API for repo ("owner/name") and
// compares its newest non-draft, non-prerelease tag against current.
func CheckLatest(ctx context.Context, repo, current string) (*ReleaseStatus, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/releases", repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade: build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upgrade: fetch releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upgrade: github returned %s", resp.Status)
	}

	var releases []githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("upgrade: decode releases: %w", err)
	}

	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		latest := strings.TrimPrefix(r.TagName, "v")
		return &ReleaseStatus{
			CurrentVersion: current,
			LatestVersion:  latest,
			LatestURL:      r.HTMLURL,
			UpToDate:       latest == strings.TrimPrefix(current, "v"),
		}, nil
	}

	return nil, ErrNoReleases
}

// FormatStatus returns a user-facing summary of s.
func FormatStatus(s *ReleaseStatus) string {
	if s.UpToDate {
		return fmt.Sprintf("Up to date (v%s).\n", s.CurrentVersion)
	}
	return fmt.Sprintf(
		"A new version is available: v%s (current: v%s)\n  %s\n",
		s.LatestVersion, s.CurrentVersion, s.LatestURL,
	)
}
