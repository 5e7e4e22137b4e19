package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/distantorigin/lwjgl3ify-installer/internal/failure"
	"github.com/distantorigin/lwjgl3ify-installer/internal/version"
)

const (
	// DefaultBaseURL is the GitHub REST API root
	DefaultBaseURL = "https://api.github.com"

	// Owner and Repo identify the repository releases are fetched from
	Owner = "GTNewHorizons"
	Repo  = "lwjgl3ify"
)

// DefaultAssetPatterns are tried in order; the first pattern matching any
// asset wins. The MultiMC/Prism instance patch is preferred over the bare jar.
var DefaultAssetPatterns = []string{"*-multimc.zip", "*.jar"}

// excludedSuffixes are build byproducts that are never installable.
var excludedSuffixes = []string{"-sources.jar", "-dev.jar", "-javadoc.jar"}

// Release represents a GitHub release
type Release struct {
	TagName string         `json:"tag_name"`
	Name    string         `json:"name"`
	Body    string         `json:"body"`
	Assets  []ReleaseAsset `json:"assets"`
}

// ReleaseAsset is a downloadable file attached to a release
type ReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// Asset is the archive chosen for installation
type Asset struct {
	Tag         string
	Filename    string
	DownloadURL string
	Size        int64
	Notes       string
}

// Client handles GitHub API requests
type Client struct {
	baseURL    string
	token      string
	patterns   []string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another API root (used by tests)
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithToken authenticates requests, raising the API rate limit
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithAssetPatterns replaces DefaultAssetPatterns
func WithAssetPatterns(patterns []string) Option {
	return func(c *Client) {
		if len(patterns) > 0 {
			c.patterns = patterns
		}
	}
}

// NewClient creates a new GitHub API client
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		patterns:   DefaultAssetPatterns,
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestReleaseURL returns the endpoint queried by LatestRelease
func (c *Client) LatestReleaseURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, Owner, Repo)
}

// LatestRelease fetches the latest published release
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	const op = "fetch latest release"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.LatestReleaseURL(), nil)
	if err != nil {
		return nil, failure.New(failure.KindNetwork, op, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", version.UserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, failure.New(failure.KindCancelled, op, err)
		}
		return nil, failure.New(failure.KindNetwork, op, err)
	}
	defer resp.Body.Close()

	if kind, err := checkStatus(resp); err != nil {
		return nil, failure.New(kind, op, err)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, failure.New(failure.KindNetwork, op, fmt.Errorf("failed to parse release: %w", err))
	}
	return &release, nil
}

// LatestAsset fetches the latest release and selects its installable archive
func (c *Client) LatestAsset(ctx context.Context) (Asset, error) {
	release, err := c.LatestRelease(ctx)
	if err != nil {
		return Asset{}, err
	}
	return SelectAsset(release, c.patterns)
}

// SelectAsset picks the release asset to install. Patterns are path.Match globs
// tried in order; within a pattern the first asset in listed order wins.
func SelectAsset(release *Release, patterns []string) (Asset, error) {
	const op = "select release asset"

	if release == nil || len(release.Assets) == 0 {
		return Asset{}, failure.New(failure.KindNotFound, op, fmt.Errorf("release has no downloadable assets"))
	}
	if len(patterns) == 0 {
		patterns = DefaultAssetPatterns
	}

	for _, pattern := range patterns {
		for _, a := range release.Assets {
			if excluded(a.Name) {
				continue
			}
			ok, err := path.Match(strings.ToLower(pattern), strings.ToLower(a.Name))
			if err != nil {
				return Asset{}, failure.New(failure.KindNotFound, op, fmt.Errorf("bad asset pattern %q: %w", pattern, err))
			}
			if ok {
				return Asset{
					Tag:         release.TagName,
					Filename:    a.Name,
					DownloadURL: a.BrowserDownloadURL,
					Size:        a.Size,
					Notes:       release.Body,
				}, nil
			}
		}
	}

	return Asset{}, failure.New(failure.KindNotFound, op,
		fmt.Errorf("no asset in release %s matches %s", release.TagName, strings.Join(patterns, ", ")))
}

func excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range excludedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// checkStatus classifies a non-200 API response
func checkStatus(resp *http.Response) (failure.Kind, error) {
	switch {
	case resp.StatusCode == http.StatusOK:
		return "", nil
	case resp.StatusCode == http.StatusNotFound:
		return failure.KindNotFound, fmt.Errorf("HTTP %d: repository has no published releases", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return failure.KindRateLimit, fmt.Errorf("HTTP %d: %s", resp.StatusCode, rateLimitHint(resp.Header))
	default:
		return failure.KindNetwork, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
}

func rateLimitHint(h http.Header) string {
	if retry := h.Get("Retry-After"); retry != "" {
		return "retry after " + retry + "s"
	}
	if reset := h.Get("X-RateLimit-Reset"); reset != "" {
		if secs, err := strconv.ParseInt(reset, 10, 64); err == nil {
			return "limit resets at " + time.Unix(secs, 0).Format(time.Kitchen)
		}
	}
	return "API rate limit exceeded"
}
