package checker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
)

type fakeStore struct {
	records   map[string]*model.CheckRecord
	findErr   error
	saveErr   error
	findCalls int
	saveCalls int
	saved     []model.CheckRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*model.CheckRecord)}
}

func (f *fakeStore) FindCheck(ctx context.Context, key string) (*model.CheckRecord, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.records[key], nil
}

func (f *fakeStore) SaveCheck(ctx context.Context, rec model.CheckRecord) (*model.CheckRecord, error) {
	f.saveCalls++
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, rec)
	f.records[rec.QueryKey] = &rec
	return &rec, nil
}

type fakeGuard struct {
	allow bool
	calls int
	last  string
}

func (f *fakeGuard) Admit(ctx context.Context, identity string) bool {
	f.calls++
	f.last = identity
	return f.allow
}

type fakeRetriever struct {
	ev    model.Evidence
	calls int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string) model.Evidence {
	f.calls++
	return f.ev
}

type fakeClassifier struct {
	verdict *model.Verdict
	calls   int
}

func (f *fakeClassifier) Classify(ctx context.Context, query string, ev model.Evidence) *model.Verdict {
	f.calls++
	v := *f.verdict
	return &v
}

func testVerdict() *model.Verdict {
	return &model.Verdict{
		Verdict:    model.VerdictFalse,
		SmokeLevel: 80,
		Title:      "Smoke",
		Sources:    []model.Source{{Title: "Reuters", URL: "https://reuters.com/a"}},
	}
}

func newTestChecker(store *fakeStore, g *fakeGuard, r *fakeRetriever, cl *fakeClassifier) *Checker {
	return New(store, g, r, cl, 0)
}

func TestCheckEmptyQueryRejectedBeforeAnyCall(t *testing.T) {
	store := newFakeStore()
	g := &fakeGuard{allow: true}
	r := &fakeRetriever{}
	cl := &fakeClassifier{verdict: testVerdict()}
	c := newTestChecker(store, g, r, cl)

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := c.Check(context.Background(), Request{RawQuery: q, ClientIdentity: "id"})
		assert.ErrorIs(t, err, ErrEmptyQuery, "query %q", q)
	}

	assert.Equal(t, 0, g.calls, "rate guard runs after validation")
	assert.Equal(t, 0, store.findCalls)
	assert.Equal(t, 0, r.calls)
	assert.Equal(t, 0, cl.calls)
}

func TestCheckRateLimitedBeforePaidCalls(t *testing.T) {
	store := newFakeStore()
	g := &fakeGuard{allow: false}
	r := &fakeRetriever{}
	cl := &fakeClassifier{verdict: testVerdict()}
	c := newTestChecker(store, g, r, cl)

	_, err := c.Check(context.Background(), Request{RawQuery: "some claim", ClientIdentity: "203.0.113.7"})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, "203.0.113.7", g.last)
	assert.Equal(t, 0, r.calls, "no paid call after rejection")
	assert.Equal(t, 0, cl.calls)
	assert.Equal(t, 0, store.findCalls)
}

func TestCheckMissRunsFullPipelineAndPersists(t *testing.T) {
	store := newFakeStore()
	g := &fakeGuard{allow: true}
	r := &fakeRetriever{ev: model.Evidence{Items: []model.EvidenceItem{{Title: "t", URL: "u", Snippet: "s"}}}}
	cl := &fakeClassifier{verdict: testVerdict()}
	c := newTestChecker(store, g, r, cl)

	res, err := c.Check(context.Background(), Request{RawQuery: "https://www.site.com/news/1/?utm=x", ClientIdentity: "id"})
	require.NoError(t, err)

	assert.False(t, res.Cached)
	assert.Equal(t, "site.com/news/1", res.Key)
	assert.Equal(t, model.VerdictFalse, res.Verdict.Verdict)
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, 1, cl.calls)

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.Equal(t, "site.com/news/1", saved.QueryKey)
	assert.Equal(t, "FALSE", saved.VerdictStatus)
	assert.Equal(t, 80, saved.SmokeLevel)
}

func TestCheckIdempotentSecondCallHitsCache(t *testing.T) {
	store := newFakeStore()
	g := &fakeGuard{allow: true}
	r := &fakeRetriever{}
	cl := &fakeClassifier{verdict: testVerdict()}
	c := newTestChecker(store, g, r, cl)

	first, err := c.Check(context.Background(), Request{RawQuery: "site.com/news/1", ClientIdentity: "id"})
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := c.Check(context.Background(), Request{RawQuery: "https://www.site.com/news/1/", ClientIdentity: "id"})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.Verdict.Verdict, second.Verdict.Verdict)
	assert.Equal(t, first.Verdict.SmokeLevel, second.Verdict.SmokeLevel)
	assert.Equal(t, 1, r.calls, "cache hit skips evidence retrieval")
	assert.Equal(t, 1, cl.calls, "cache hit skips reasoning")
	assert.Equal(t, 1, store.saveCalls, "cache hit writes nothing")
}

func TestCheckLookupFailureTreatedAsMiss(t *testing.T) {
	store := newFakeStore()
	store.findErr = errors.New("store down")
	g := &fakeGuard{allow: true}
	r := &fakeRetriever{}
	cl := &fakeClassifier{verdict: testVerdict()}
	c := newTestChecker(store, g, r, cl)

	res, err := c.Check(context.Background(), Request{RawQuery: "some claim", ClientIdentity: "id"})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 1, cl.calls, "pipeline ran despite lookup failure")
}

func TestCheckPersistFailureDoesNotFailResponse(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("disk full")
	g := &fakeGuard{allow: true}
	r := &fakeRetriever{}
	cl := &fakeClassifier{verdict: testVerdict()}
	c := newTestChecker(store, g, r, cl)

	res, err := c.Check(context.Background(), Request{RawQuery: "some claim", ClientIdentity: "id"})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictFalse, res.Verdict.Verdict)
}

func TestCheckSurvivesCallerCancellation(t *testing.T) {
	store := newFakeStore()
	g := &fakeGuard{allow: true}
	r := &fakeRetriever{}
	cl := &fakeClassifier{verdict: testVerdict()}
	c := newTestChecker(store, g, r, cl)

	ctx, cancel := context.WithCancel(context.Background())

	// Cancel after the rate check; the paid stages run on a detached
	// context and must still complete and persist.
	cancel()
	res, err := c.Check(ctx, Request{RawQuery: "some claim", ClientIdentity: "id"})
	require.NoError(t, err)
	assert.NotNil(t, res.Verdict)
	assert.Equal(t, 1, store.saveCalls)
}
