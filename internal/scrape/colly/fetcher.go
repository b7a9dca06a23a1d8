// Package collyfetcher implements the probe PageFetcher using gocolly.
package collyfetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/profile-vault/internal/scrape"
)

// Config controls collector behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	SessionFile string
}

// Fetcher fetches profile pages with a Colly collector, reusing the
// session cookies persisted by a prior interactive login.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	cookies       []*http.Cookie
}

// sessionCookie is the on-disk shape of one persisted cookie.
type sessionCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// New builds a Fetcher, loading session cookies when a session file is
// configured. A configured but unreadable session file is an error:
// scraping with a broken session only ever yields auth walls.
func New(cfg Config) (*Fetcher, error) {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	c.IgnoreRobotsTxt = true

	var cookies []*http.Cookie
	if cfg.SessionFile != "" {
		loaded, err := loadSession(cfg.SessionFile)
		if err != nil {
			return nil, err
		}
		cookies = loaded
	}

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		cookies:       cookies,
	}, nil
}

// Cookies returns the session cookies loaded at construction so other
// fetchers can share the same login session.
func (f *Fetcher) Cookies() []*http.Cookie {
	return f.cookies
}

func loadSession(path string) ([]*http.Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var stored []sessionCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		cookies = append(cookies, &http.Cookie{
			Name:   sc.Name,
			Value:  sc.Value,
			Domain: sc.Domain,
			Path:   sc.Path,
		})
	}
	return cookies, nil
}

// FetchPage executes a single HTTP GET using Colly.
func (f *Fetcher) FetchPage(ctx context.Context, url string) (scrape.Page, error) {
	var (
		result   scrape.Page
		fetchErr error
	)
	start := time.Now()

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	if len(f.cookies) > 0 {
		if err := collector.SetCookies(url, f.cookies); err != nil {
			return scrape.Page{}, fmt.Errorf("set session cookies: %w", err)
		}
	}

	collector.OnResponse(func(r *colly.Response) {
		result = scrape.Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		// Keep the status code: a 4xx/5xx still informs the detector.
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return scrape.Page{}, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return scrape.Page{}, fmt.Errorf("colly visit failed: %w", err)
		}
		if fetchErr != nil {
			return scrape.Page{}, fmt.Errorf("colly response failed: %w", fetchErr)
		}
		return result, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
