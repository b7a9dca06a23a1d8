package bulk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/profile-vault/internal/profile"
)

type scriptedRefresher struct {
	records map[string]*profile.Record
	errs    map[string]error
	panics  map[string]string
	calls   []string
}

func (s *scriptedRefresher) GetOrRefresh(_ context.Context, url string, _ int) (*profile.Record, error) {
	s.calls = append(s.calls, url)
	if msg, ok := s.panics[url]; ok {
		panic(msg)
	}
	if err, ok := s.errs[url]; ok {
		return nil, err
	}
	return s.records[url], nil
}

func record(url string) *profile.Record {
	name := "someone"
	return &profile.Record{
		LinkedInURL: url,
		Fields:      profile.Fields{Name: &name},
		LastUpdated: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestFetchManyPreservesOrderAndCardinality(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://www.linkedin.com/in/a",
		"https://www.linkedin.com/in/b",
		"https://www.linkedin.com/in/c",
	}
	ref := &scriptedRefresher{
		records: map[string]*profile.Record{
			urls[0]: record(urls[0]),
			urls[2]: record(urls[2]),
		},
		errs: map[string]error{urls[1]: assert.AnError},
	}
	d := New(ref, nil)

	results := d.FetchMany(context.Background(), urls, 30)
	require.Len(t, results, len(urls), "one result per input")

	assert.Equal(t, urls[0], results[0].URL)
	assert.NotNil(t, results[0].Profile)
	assert.Empty(t, results[0].Err)

	assert.Equal(t, urls[1], results[1].URL)
	assert.Nil(t, results[1].Profile, "a failed item must not carry a record")
	assert.NotEmpty(t, results[1].Err)

	assert.Equal(t, urls[2], results[2].URL)
	assert.NotNil(t, results[2].Profile, "a failure must not abort later items")

	assert.Equal(t, urls, ref.calls, "items are processed sequentially in input order")
}

func TestFetchManyCapturesPanics(t *testing.T) {
	t.Parallel()

	urls := []string{"https://www.linkedin.com/in/a", "https://www.linkedin.com/in/b"}
	ref := &scriptedRefresher{
		records: map[string]*profile.Record{urls[1]: record(urls[1])},
		panics:  map[string]string{urls[0]: "boom"},
	}
	d := New(ref, nil)

	results := d.FetchMany(context.Background(), urls, 30)
	require.Len(t, results, 2)
	assert.Contains(t, results[0].Err, "boom")
	assert.NotNil(t, results[1].Profile)
}

func TestFetchManyNotFoundIsNotAnError(t *testing.T) {
	t.Parallel()

	urls := []string{"https://www.linkedin.com/in/ghost"}
	ref := &scriptedRefresher{}
	d := New(ref, nil)

	results := d.FetchMany(context.Background(), urls, 30)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Profile)
	assert.Empty(t, results[0].Err)
}

func TestFetchManyEmptyInput(t *testing.T) {
	t.Parallel()

	d := New(&scriptedRefresher{}, nil)
	assert.Empty(t, d.FetchMany(context.Background(), nil, 30))
}
