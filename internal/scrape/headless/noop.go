package headless

import (
	"context"
	"errors"

	"github.com/JakeFAU/profile-vault/internal/scrape"
)

// Noop implements scrape.PageFetcher but always returns an error to
// indicate that headless browsing is not available in the current build.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// FetchPage returns an error since this is a stub implementation.
func (Noop) FetchPage(_ context.Context, _ string) (scrape.Page, error) {
	return scrape.Page{}, errors.New("headless fetcher not configured")
}
