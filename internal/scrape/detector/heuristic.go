// Package detector decides when a probe fetch needs the headless browser.
package detector

import (
	"bytes"
	"net/http"

	"github.com/JakeFAU/profile-vault/internal/scrape"
)

// Heuristic promotes fetches whose response looks like an auth wall or a
// JavaScript shell rather than a rendered profile page.
type Heuristic struct {
	BodyLengthThreshold int
}

// NewHeuristic creates a detector. threshold 0 selects the default.
func NewHeuristic(threshold int) *Heuristic {
	if threshold == 0 {
		threshold = 2048
	}
	return &Heuristic{BodyLengthThreshold: threshold}
}

var wallMarkers = [][]byte{
	[]byte("authwall"),
	[]byte("uas/login"),
	[]byte("join now to see"),
	[]byte("sign in to view"),
}

// ShouldPromote reports whether the page warrants a headless re-fetch.
func (h *Heuristic) ShouldPromote(p scrape.Page) bool {
	switch p.StatusCode {
	case http.StatusOK:
	case http.StatusFound, http.StatusSeeOther, http.StatusTemporaryRedirect:
		return true
	default:
		return false
	}
	body := bytes.ToLower(p.Body)
	if len(body) == 0 {
		return true
	}
	for _, marker := range wallMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	// A tiny page without embedded person data is a script shell.
	if len(body) < h.BodyLengthThreshold && !bytes.Contains(body, []byte("application/ld+json")) {
		return true
	}
	return false
}
