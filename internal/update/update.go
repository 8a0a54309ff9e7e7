// Package update checks GitHub for newer hugsql releases.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/pthm/hugsql/internal/version"
)

const (
	releasesURL = "https://api.github.com/repos/pthm/hugsql/releases/latest"
	cacheTTL    = 24 * time.Hour
	cacheFile   = "update-check.json"
)

// Info contains update check results
type Info struct {
	LatestVersion   string    `json:"latest_version"`
	CurrentVersion  string    `json:"current_version"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
	UpdateAvailable bool      `json:"update_available"`
}

type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Checker fetches the latest release, caching the answer on disk.
type Checker struct {
	URL      string
	Client   *http.Client
	CacheDir string
	Current  string
	Now      func() time.Time
}

// NewChecker returns a Checker for the public hugsql releases.
func NewChecker() (*Checker, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return &Checker{
		URL:      releasesURL,
		Client:   &http.Client{Timeout: 5 * time.Second},
		CacheDir: dir,
		Current:  version.Version,
		Now:      time.Now,
	}, nil
}

// CheckWithCache checks for updates using the default Checker.
func CheckWithCache(ctx context.Context) (*Info, error) {
	c, err := NewChecker()
	if err != nil {
		return nil, err
	}
	return c.Check(ctx)
}

// Check returns cached results younger than a day, otherwise it asks
// GitHub and refreshes the cache.
func (c *Checker) Check(ctx context.Context) (*Info, error) {
	if info, err := c.loadCache(); err == nil && c.Now().Sub(info.CheckedAt) < cacheTTL {
		info.CurrentVersion = c.Current
		info.UpdateAvailable = compareVersions(c.Current, info.LatestVersion) < 0
		return info, nil
	}

	info, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	// Save to cache (ignore errors)
	_ = c.saveCache(info)

	return info, nil
}

func (c *Checker) fetch(ctx context.Context) (*Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "hugsql/"+c.Current)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	return &Info{
		LatestVersion:   latest,
		CurrentVersion:  c.Current,
		ReleaseURL:      release.HTMLURL,
		CheckedAt:       c.Now(),
		UpdateAvailable: compareVersions(c.Current, latest) < 0,
	}, nil
}

// cacheDir returns the cache directory path
func cacheDir() (string, error) {
	// Use XDG_CACHE_HOME if set, otherwise ~/.cache
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, "hugsql"), nil
}

func (c *Checker) loadCache() (*Info, error) {
	data, err := os.ReadFile(filepath.Join(c.CacheDir, cacheFile))
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Checker) saveCache(info *Info) error {
	if err := os.MkdirAll(c.CacheDir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(c.CacheDir, cacheFile), data, 0o644)
}

// compareVersions compares two release versions, with or without a "v"
// prefix. Returns -1 if a < b, 0 if a == b, 1 if a > b. A "dev" build
// is newer than every release; unparseable versions sort first.
func compareVersions(a, b string) int {
	if a == "dev" && b == "dev" {
		return 0
	}
	if a == "dev" {
		return 1
	}
	if b == "dev" {
		return -1
	}
	return semver.Compare(canonical(a), canonical(b))
}

func canonical(v string) string {
	return "v" + strings.TrimPrefix(v, "v")
}
