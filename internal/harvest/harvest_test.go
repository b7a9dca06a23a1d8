package harvest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil)
	require.Error(t, err)
}

func TestSearchSendsAuthAndFilters(t *testing.T) {
	t.Parallel()

	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"elements":[{"name":"Jane Doe","publicIdentifier":"janedoe","headline":"Engineer"}]}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, APIKey: "key-123"}, nil)
	require.NoError(t, err)

	res, err := c.Search(context.Background(), Query{
		Name:           "Jane Doe",
		CurrentCompany: "Acme",
		Location:       "Berlin",
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "/linkedin/profile-search", got.URL.Path)
	assert.Equal(t, "key-123", got.Header.Get("x-api-key"))
	assert.Equal(t, "Bearer key-123", got.Header.Get("Authorization"))

	q := got.URL.Query()
	assert.Equal(t, "Jane Doe", q.Get("search"))
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "Acme", q.Get("currentCompany"))
	assert.Equal(t, "Berlin", q.Get("location"))
	assert.Empty(t, q.Get("school"), "empty filters are omitted")

	require.Len(t, res.Elements, 1)
	assert.Equal(t, "Jane Doe", res.Elements[0].Name)
}

func TestSearchRequiresName(t *testing.T) {
	t.Parallel()

	c, err := New(Config{APIKey: "k"}, nil)
	require.NoError(t, err)
	_, err = c.Search(context.Background(), Query{Name: "   "})
	require.Error(t, err)
}

func TestSearchRejectsNon200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, APIKey: "k"}, nil)
	require.NoError(t, err)

	_, err = c.Search(context.Background(), Query{Name: "Jane"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestCandidateProfileURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://a", Candidate{URL: "https://a", LinkedInURL: "https://b"}.ProfileURL())
	assert.Equal(t, "https://b", Candidate{LinkedInURL: "https://b"}.ProfileURL())
	assert.Equal(t, "https://www.linkedin.com/in/janedoe", Candidate{PublicIdentifier: "janedoe"}.ProfileURL())
	assert.Empty(t, Candidate{}.ProfileURL())
}
