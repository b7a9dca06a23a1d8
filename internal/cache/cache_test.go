package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/profile-vault/internal/archive"
	"github.com/JakeFAU/profile-vault/internal/events"
	"github.com/JakeFAU/profile-vault/internal/events/memory"
	"github.com/JakeFAU/profile-vault/internal/profile"
	"github.com/JakeFAU/profile-vault/internal/scrape"
	"github.com/JakeFAU/profile-vault/internal/store"
)

const profileURL = "https://www.linkedin.com/in/janedoe"

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type fakeStore struct {
	rec       *profile.Record
	findErr   error
	upsertErr error

	upsertCalls int
	upsertedURL string
	upserted    profile.Fields
}

func (f *fakeStore) FindByURL(_ context.Context, _ string) (*profile.Record, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.rec == nil {
		return nil, store.ErrNotFound
	}
	return f.rec, nil
}

func (f *fakeStore) Upsert(_ context.Context, url string, fields profile.Fields) (*profile.Record, error) {
	f.upsertCalls++
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.upsertedURL = url
	f.upserted = fields
	return &profile.Record{LinkedInURL: url, Fields: fields, LastUpdated: now}, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close()                     {}

type fakeFetcher struct {
	res   *scrape.Result
	calls int
	gotID string
}

func (f *fakeFetcher) Fetch(_ context.Context, externalID string) *scrape.Result {
	f.calls++
	f.gotID = externalID
	return f.res
}

type fakeSnapshots struct {
	objects map[string][]byte
	err     error
}

func (f *fakeSnapshots) Save(_ context.Context, name string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[name] = data
	return nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, any) (string, error) {
	return "", assert.AnError
}

func strPtr(s string) *string { return &s }

func storedRecord(age time.Duration) *profile.Record {
	return &profile.Record{
		LinkedInURL: profileURL,
		Fields:      profile.Fields{Name: strPtr("Jane Doe"), Company: strPtr("Acme")},
		LastUpdated: now.Add(-age),
	}
}

func fetchedResult() *scrape.Result {
	return &scrape.Result{
		Fields: profile.Fields{Name: strPtr("Jane Doe"), Headline: strPtr("Engineer")},
		Raw:    map[string]any{"name": "Jane Doe", "headline": "Engineer"},
	}
}

func newService(st *fakeStore, f *fakeFetcher, pub events.Publisher, snaps archive.SnapshotStore) *Service {
	return NewWithClock(st, f, pub, snaps, Config{}, nil, fixedClock{at: now})
}

func TestFreshRecordSkipsFetch(t *testing.T) {
	t.Parallel()

	st := &fakeStore{rec: storedRecord(10 * 24 * time.Hour)}
	f := &fakeFetcher{res: fetchedResult()}
	svc := newService(st, f, nil, nil)

	rec, err := svc.GetOrRefresh(context.Background(), profileURL, 30)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, st.rec, rec, "fresh path returns the stored record verbatim")
	assert.Zero(t, f.calls, "fresh path must not touch the fetch adapter")
	assert.Zero(t, st.upsertCalls)
}

func TestFreshnessBoundaryUsesWholeDays(t *testing.T) {
	t.Parallel()

	// 30 days and 23 hours floors to 30 elapsed days, which is within a
	// 30-day threshold.
	st := &fakeStore{rec: storedRecord(30*24*time.Hour + 23*time.Hour)}
	f := &fakeFetcher{res: fetchedResult()}
	svc := newService(st, f, nil, nil)

	rec, err := svc.GetOrRefresh(context.Background(), profileURL, 30)
	require.NoError(t, err)
	assert.Equal(t, st.rec, rec)
	assert.Zero(t, f.calls)
}

func TestStaleRecordTriggersRefresh(t *testing.T) {
	t.Parallel()

	st := &fakeStore{rec: storedRecord(31*24*time.Hour + time.Minute)}
	f := &fakeFetcher{res: fetchedResult()}
	svc := newService(st, f, nil, nil)

	rec, err := svc.GetOrRefresh(context.Background(), profileURL, 30)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, "janedoe", f.gotID, "external ID is the trailing path segment")
	assert.Equal(t, 1, st.upsertCalls)
	assert.Equal(t, profileURL, st.upsertedURL)
	assert.Equal(t, "Engineer", *rec.Headline)
}

func TestRefreshOverwritesEveryField(t *testing.T) {
	t.Parallel()

	// The stored record has a company; the fetched result does not. The
	// upsert must receive the nil so the column is overwritten with NULL.
	st := &fakeStore{rec: storedRecord(60 * 24 * time.Hour)}
	f := &fakeFetcher{res: fetchedResult()}
	svc := newService(st, f, nil, nil)

	_, err := svc.GetOrRefresh(context.Background(), profileURL, 30)
	require.NoError(t, err)
	require.Equal(t, 1, st.upsertCalls)
	assert.Nil(t, st.upserted.Company)
	assert.Equal(t, "Jane Doe", *st.upserted.Name)
}

func TestMissingRecordFetchesAndPersists(t *testing.T) {
	t.Parallel()

	st := &fakeStore{}
	f := &fakeFetcher{res: fetchedResult()}
	svc := newService(st, f, nil, nil)

	rec, err := svc.GetOrRefresh(context.Background(), profileURL, 30)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, 1, st.upsertCalls)
}

func TestFetchFailureFallsBackToStale(t *testing.T) {
	t.Parallel()

	st := &fakeStore{rec: storedRecord(90 * 24 * time.Hour)}
	f := &fakeFetcher{res: nil}
	svc := newService(st, f, nil, nil)

	rec, err := svc.GetOrRefresh(context.Background(), profileURL, 30)
	require.NoError(t, err, "stale fallback is not an error")
	assert.Equal(t, st.rec, rec, "the stale record is served as-is")
	assert.Zero(t, st.upsertCalls, "a failed fetch must not write")
}

func TestFetchFailureForUnknownProfileReturnsNil(t *testing.T) {
	t.Parallel()

	st := &fakeStore{}
	f := &fakeFetcher{res: nil}
	svc := newService(st, f, nil, nil)

	rec, err := svc.GetOrRefresh(context.Background(), profileURL, 30)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLookupFailureReturnsError(t *testing.T) {
	t.Parallel()

	st := &fakeStore{findErr: assert.AnError}
	f := &fakeFetcher{res: fetchedResult()}
	svc := newService(st, f, nil, nil)

	rec, err := svc.GetOrRefresh(context.Background(), profileURL, 30)
	require.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, rec)
	assert.Zero(t, f.calls, "a broken store must not trigger fetches")
}

func TestUpsertFailureReturnsError(t *testing.T) {
	t.Parallel()

	st := &fakeStore{upsertErr: assert.AnError}
	f := &fakeFetcher{res: fetchedResult()}
	svc := newService(st, f, nil, nil)

	rec, err := svc.GetOrRefresh(context.Background(), profileURL, 30)
	require.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, rec)
}

func TestNegativeFreshnessUsesDefault(t *testing.T) {
	t.Parallel()

	st := &fakeStore{rec: storedRecord(10 * 24 * time.Hour)}
	f := &fakeFetcher{res: fetchedResult()}
	svc := NewWithClock(st, f, nil, nil, Config{DefaultFreshnessDays: 30}, nil, fixedClock{at: now})

	rec, err := svc.GetOrRefresh(context.Background(), profileURL, -1)
	require.NoError(t, err)
	assert.Equal(t, st.rec, rec)
	assert.Zero(t, f.calls)
}

func TestZeroFreshnessRefreshesYesterday(t *testing.T) {
	t.Parallel()

	// Zero is a real threshold: only records updated within the current
	// day count as fresh.
	st := &fakeStore{rec: storedRecord(25 * time.Hour)}
	f := &fakeFetcher{res: fetchedResult()}
	svc := newService(st, f, nil, nil)

	_, err := svc.GetOrRefresh(context.Background(), profileURL, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
}

func TestRefreshPublishesEventAndSnapshot(t *testing.T) {
	t.Parallel()

	st := &fakeStore{}
	f := &fakeFetcher{res: fetchedResult()}
	pub := memory.New()
	snaps := &fakeSnapshots{}
	svc := newService(st, f, pub, snaps)

	_, err := svc.GetOrRefresh(context.Background(), profileURL, 30)
	require.NoError(t, err)

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	evt, ok := msgs[0].Payload.(events.RefreshEvent)
	require.True(t, ok)
	assert.Equal(t, profileURL, evt.LinkedInURL)
	assert.Equal(t, "janedoe", evt.ExternalID)
	assert.True(t, evt.Created)

	require.Len(t, snaps.objects, 1)
	for name, data := range snaps.objects {
		assert.Contains(t, name, "snapshots/janedoe/")
		assert.JSONEq(t, `{"name":"Jane Doe","headline":"Engineer"}`, string(data))
	}
}

func TestSideEffectFailuresAreAbsorbed(t *testing.T) {
	t.Parallel()

	st := &fakeStore{}
	f := &fakeFetcher{res: fetchedResult()}
	snaps := &fakeSnapshots{err: assert.AnError}
	svc := newService(st, f, failingPublisher{}, snaps)

	rec, err := svc.GetOrRefresh(context.Background(), profileURL, 30)
	require.NoError(t, err, "event and snapshot failures never surface")
	assert.NotNil(t, rec)
}
