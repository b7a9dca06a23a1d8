// Package harvest implements the profile-search API client. A search
// turns person criteria into candidate profile URLs that feed the cache
// layer.
package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.harvest-api.com"
	searchPath     = "/linkedin/profile-search"
	defaultTimeout = 30 * time.Second
)

// Config controls the client.
type Config struct {
	// BaseURL overrides the API host, mainly for tests.
	BaseURL string
	// APIKey is required.
	APIKey string
	Timeout time.Duration
}

// Client talks to the search API.
type Client struct {
	cfg        Config
	HTTPClient *http.Client
	logger     *zap.Logger
}

// New validates the configuration and builds a Client. A missing API key
// is a startup error, not a per-request one.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("harvest: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Query is one profile search. Name is required; the rest narrow the
// match. Page is 1-based.
type Query struct {
	Name           string
	CurrentCompany string
	PastCompany    string
	School         string
	Location       string
	Page           int
}

// Candidate is one search hit. The API is inconsistent about which URL
// field it populates, so all three variants are kept.
type Candidate struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Headline         string `json:"headline"`
	URL              string `json:"url"`
	LinkedInURL      string `json:"linkedinUrl"`
	PublicIdentifier string `json:"publicIdentifier"`
}

// ProfileURL resolves the candidate's profile URL from whichever field
// the API populated. It returns "" when no variant is usable.
func (c Candidate) ProfileURL() string {
	switch {
	case c.URL != "":
		return c.URL
	case c.LinkedInURL != "":
		return c.LinkedInURL
	case c.PublicIdentifier != "":
		return "https://www.linkedin.com/in/" + c.PublicIdentifier
	}
	return ""
}

// SearchResult is the search response envelope.
type SearchResult struct {
	Elements []Candidate `json:"elements"`
}

// Search runs one profile search and returns the parsed envelope.
func (c *Client) Search(ctx context.Context, q Query) (*SearchResult, error) {
	if strings.TrimSpace(q.Name) == "" {
		return nil, fmt.Errorf("harvest: search name is required")
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("search", q.Name)
	params.Set("page", strconv.Itoa(page))
	if q.CurrentCompany != "" {
		params.Set("currentCompany", q.CurrentCompany)
	}
	if q.PastCompany != "" {
		params.Set("pastCompany", q.PastCompany)
	}
	if q.School != "" {
		params.Set("school", q.School)
	}
	if q.Location != "" {
		params.Set("location", q.Location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+searchPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	c.setHeaders(req)

	c.logger.Debug("searching profiles",
		zap.String("name", q.Name),
		zap.Int("page", page),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	c.logger.Debug("search finished", zap.Int("candidates", len(result.Elements)))
	return &result, nil
}

// setHeaders applies both auth header styles the API accepts.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
}
