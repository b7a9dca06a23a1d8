package detector

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JakeFAU/profile-vault/internal/scrape"
)

func page(status int, body string) scrape.Page {
	return scrape.Page{StatusCode: status, Body: []byte(body)}
}

func TestShouldPromote(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(0)
	bigPlain := strings.Repeat("x", 4096)

	cases := []struct {
		name string
		page scrape.Page
		want bool
	}{
		{"auth wall marker", page(http.StatusOK, "<html>AuthWall here</html>"), true},
		{"login redirect marker", page(http.StatusOK, "uas/login?session"), true},
		{"redirect status", page(http.StatusFound, ""), true},
		{"empty body", page(http.StatusOK, ""), true},
		{"tiny script shell", page(http.StatusOK, "<script>boot()</script>"), true},
		{"small page with data", page(http.StatusOK, `<script type="application/ld+json">{}</script>`), false},
		{"large plain page", page(http.StatusOK, bigPlain), false},
		{"hard failure", page(http.StatusTooManyRequests, ""), false},
		{"not found", page(http.StatusNotFound, ""), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, h.ShouldPromote(tc.page))
		})
	}
}
