package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"alumni-engine/internal/domain"
	"alumni-engine/internal/logging"
	"alumni-engine/internal/store"
)

type fakeDiscoverer struct {
	url   string
	err   error
	calls int
	query string
}

func (f *fakeDiscoverer) Discover(_ context.Context, query string) (string, error) {
	f.calls++
	f.query = query
	return f.url, f.err
}

type fakeSearcher struct {
	results []SearchResult
	err     error
	calls   int
}

func (f *fakeSearcher) Search(context.Context, string) ([]SearchResult, error) {
	f.calls++
	return f.results, f.err
}

type memCache struct {
	mu sync.Mutex
	m  map[string]domain.ResolvedCandidate
}

func (c *memCache) GetResolution(_ context.Context, key string, _ time.Duration) (domain.ResolvedCandidate, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *memCache) PutResolution(_ context.Context, key string, v domain.ResolvedCandidate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string]domain.ResolvedCandidate{}
	}
	c.m[key] = v
	return nil
}

func newResolver(p Discoverer, s Searcher) *Resolver {
	return &Resolver{
		Primary:        p,
		Search:         s,
		Threshold:      DefaultThreshold,
		InstituteTerms: []string{"IIIT Naya Raipur", "IIITNR", "International Institute"},
		Log:            logging.Discard(),
	}
}

func TestResolveEmptyName(t *testing.T) {
	p := &fakeDiscoverer{}
	r := newResolver(p, &fakeSearcher{})

	_, err := r.Resolve(context.Background(), "   ", "", domain.StrategyPrimary)
	require.ErrorIs(t, err, ErrEmptyName)
	assert.Zero(t, p.calls)
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery("Asha Rao", "2019-2023", []string{"IIIT Naya Raipur", "IIITNR", "ignored"})
	assert.Equal(t, `"Asha Rao" IIIT Naya Raipur IIITNR 2019-2023 site:linkedin.com/in`, q)

	q = BuildQuery("Asha Rao", "", nil)
	assert.Equal(t, `"Asha Rao" site:linkedin.com/in`, q)
}

func TestPrimaryReturnsCanonicalURL(t *testing.T) {
	p := &fakeDiscoverer{url: "https://in.linkedin.com/in/Asha-Rao-19/"}
	r := newResolver(p, nil)

	c, err := r.Resolve(context.Background(), "Asha Rao", "2019-2023", domain.StrategyPrimary)
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/in/asha-rao-19", c.URL)
	assert.Equal(t, domain.StrategyPrimary, c.Strategy)
	assert.Equal(t, 1.0, c.Confidence)
	assert.Contains(t, p.query, "2019-2023")
}

func TestPrimaryFailuresAreRetryable(t *testing.T) {
	cases := map[string]*fakeDiscoverer{
		"empty":     {url: ""},
		"not-a-url": {url: "https://www.linkedin.com/posts/asha-rao_activity"},
		"transport": {err: errors.New("connection reset")},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			s := &fakeSearcher{}
			r := newResolver(p, s)

			_, err := r.Resolve(context.Background(), "Asha Rao", "", domain.StrategyPrimary)
			var rf *ResolutionFailed
			require.ErrorAs(t, err, &rf)
			assert.Equal(t, domain.StrategyPrimary, rf.Strategy)
			assert.True(t, rf.Retryable())
			assert.Zero(t, s.calls, "primary must not fall back on its own")
		})
	}
}

func TestPrimaryWrapsTransportError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	r := newResolver(&fakeDiscoverer{err: cause}, nil)

	_, err := r.Resolve(context.Background(), "Asha Rao", "", domain.StrategyPrimary)
	assert.ErrorIs(t, err, cause)
}

func TestPrimaryTimeout(t *testing.T) {
	r := newResolver(DiscovererFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), nil)
	r.Timeout = 10 * time.Millisecond

	_, err := r.Resolve(context.Background(), "Asha Rao", "", domain.StrategyPrimary)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsRetryable(err))
}

func TestFallbackPicksExactMatch(t *testing.T) {
	s := &fakeSearcher{results: []SearchResult{
		{Title: "Zubin Mehta - Conductor - LinkedIn", URL: "https://www.linkedin.com/in/zubin"},
		{Title: "Asha Rao - Software Engineer - LinkedIn", URL: "https://www.linkedin.com/in/asha-rao-19"},
		{Title: "Quentin Blake | LinkedIn", URL: "https://www.linkedin.com/in/qblake"},
	}}
	r := newResolver(nil, s)

	c, err := r.Resolve(context.Background(), "Asha Rao", "", domain.StrategyFallback)
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/in/asha-rao-19", c.URL)
	assert.Equal(t, domain.StrategyFallback, c.Strategy)
	assert.InDelta(t, 1.0, c.Confidence, 1e-9)
}

func TestFallbackDropsNonProfileLinks(t *testing.T) {
	s := &fakeSearcher{results: []SearchResult{
		{Title: "Asha Rao - Post", URL: "https://www.linkedin.com/posts/asha-rao_123"},
		{Title: "Asha Rao - Jobs", URL: "https://www.linkedin.com/jobs/view/1"},
		{Title: "Asha Rao - Company", URL: "https://www.linkedin.com/company/asha"},
		{Title: "Asha Rao - Details", URL: "https://www.linkedin.com/in/asha/details/skills"},
	}}
	r := newResolver(nil, s)

	_, err := r.Resolve(context.Background(), "Asha Rao", "", domain.StrategyFallback)
	var rf *ResolutionFailed
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, domain.StrategyFallback, rf.Strategy)
	assert.False(t, rf.Retryable())
}

func TestFallbackThreshold(t *testing.T) {
	results := []SearchResult{
		{Title: "Asha Roa - LinkedIn", URL: "https://www.linkedin.com/in/a1"}, // 0.75
		{Title: "Bob Smith - LinkedIn", URL: "https://www.linkedin.com/in/b1"},
	}
	c, ok := SelectCandidate(results, "Asha Rao", DefaultThreshold, nil)
	require.True(t, ok)
	assert.Equal(t, "https://www.linkedin.com/in/a1", c.URL)

	_, ok = SelectCandidate(results[1:], "Asha Rao", DefaultThreshold, nil)
	assert.False(t, ok)
}

func TestFallbackTiesKeepFirstSeen(t *testing.T) {
	results := []SearchResult{
		{Title: "Asha Rao - Acme", URL: "https://www.linkedin.com/in/first"},
		{Title: "Asha Rao - Globex", URL: "https://www.linkedin.com/in/second"},
	}
	c, ok := SelectCandidate(results, "Asha Rao", DefaultThreshold, nil)
	require.True(t, ok)
	assert.Equal(t, "https://www.linkedin.com/in/first", c.URL)
}

func TestSubstringAcceptsBelowThreshold(t *testing.T) {
	results := []SearchResult{
		{Title: "Dr Asha Rao Venkataraman Iyer - LinkedIn", URL: "https://www.linkedin.com/in/asha-long"},
	}
	c, ok := SelectCandidate(results, "Asha Rao", DefaultThreshold, nil)
	require.True(t, ok)
	assert.Less(t, c.Confidence, DefaultThreshold)
}

// The cohort hint biases the query only; a candidate that never mentions the
// cohort is still accepted unless strict matching is on.
func TestCohortLenientByDefault(t *testing.T) {
	s := &fakeSearcher{results: []SearchResult{
		{Title: "Asha Rao - LinkedIn", URL: "https://www.linkedin.com/in/asha-2010", Snippet: "IIIT 2006-2010"},
	}}
	r := newResolver(nil, s)

	c, err := r.Resolve(context.Background(), "Asha Rao", "2019-2023", domain.StrategyFallback)
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/in/asha-2010", c.URL)
}

func TestCohortStrictDropsMismatch(t *testing.T) {
	s := &fakeSearcher{results: []SearchResult{
		{Title: "Asha Rao - LinkedIn", URL: "https://www.linkedin.com/in/asha-2010", Snippet: "IIIT 2006-2010"},
		{Title: "Asha Rao - LinkedIn", URL: "https://www.linkedin.com/in/asha-2023", Snippet: "B.Tech 2019 - 2023"},
	}}
	r := newResolver(nil, s)
	r.StrictCohort = true

	c, err := r.Resolve(context.Background(), "Asha Rao", "2019-2023", domain.StrategyFallback)
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/in/asha-2023", c.URL)

	s.results = s.results[:1]
	_, err = r.Resolve(context.Background(), "Asha Rao", "2019-2023", domain.StrategyFallback)
	assert.Error(t, err)
}

func TestAutoFallsBackAfterPrimary(t *testing.T) {
	p := &fakeDiscoverer{}
	s := &fakeSearcher{results: []SearchResult{
		{Title: "Asha Rao - Software Engineer - LinkedIn", URL: "https://www.linkedin.com/in/asha-rao-19"},
	}}
	r := newResolver(p, s)

	c, err := r.Resolve(context.Background(), "Asha Rao", "2019-2023", domain.StrategyAuto)
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, domain.StrategyFallback, c.Strategy)
}

func TestCacheShortCircuits(t *testing.T) {
	p := &fakeDiscoverer{url: "https://www.linkedin.com/in/asha-rao-19"}
	r := newResolver(p, nil)
	r.Cache = &memCache{}

	_, err := r.Resolve(context.Background(), "Asha Rao", "2019-2023", domain.StrategyPrimary)
	require.NoError(t, err)
	c, err := r.Resolve(context.Background(), "Asha Rao", "2019-2023", domain.StrategyPrimary)
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "https://www.linkedin.com/in/asha-rao-19", c.URL)
}

func TestCacheRespectsStrategyAndCohortMode(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	p := &fakeDiscoverer{}
	s := &fakeSearcher{results: []SearchResult{
		{Title: "Asha Rao - LinkedIn", URL: "https://www.linkedin.com/in/asha-other", Snippet: "B.Tech 2010 - 2014"},
	}}
	r := newResolver(p, s)
	r.Cache = db

	c, err := r.Resolve(ctx, "Asha Rao", "2019-2023", domain.StrategyFallback)
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/in/asha-other", c.URL)

	// A cached fallback hit must not answer a primary request.
	_, err = r.Resolve(ctx, "Asha Rao", "2019-2023", domain.StrategyPrimary)
	var rf *ResolutionFailed
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, domain.StrategyPrimary, rf.Strategy)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 1, p.calls)

	// auto may reuse it without searching again.
	c, err = r.Resolve(ctx, "Asha Rao", "2019-2023", domain.StrategyAuto)
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyFallback, c.Strategy)
	assert.Equal(t, 1, s.calls)

	// The lenient wrong-cohort match is not served in strict mode.
	r.StrictCohort = true
	_, err = r.Resolve(ctx, "Asha Rao", "2019-2023", domain.StrategyFallback)
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, domain.StrategyFallback, rf.Strategy)
	assert.Equal(t, 2, s.calls)
}

func TestCacheServes(t *testing.T) {
	assert.True(t, cacheServes(domain.StrategyPrimary, domain.StrategyPrimary))
	assert.False(t, cacheServes(domain.StrategyPrimary, domain.StrategyFallback))
	assert.True(t, cacheServes(domain.StrategyFallback, domain.StrategyFallback))
	assert.False(t, cacheServes(domain.StrategyFallback, domain.StrategyPrimary))
	assert.True(t, cacheServes(domain.StrategyAuto, domain.StrategyPrimary))
	assert.True(t, cacheServes(domain.StrategyAuto, domain.StrategyFallback))
	assert.False(t, cacheServes(domain.StrategyAuto, domain.StrategyKnown))
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "asha rao", CleanTitle("Asha Rao - Software Engineer - LinkedIn"))
	assert.Equal(t, "asha rao", CleanTitle("Asha Rao | LinkedIn"))
	assert.Equal(t, "jose p", CleanTitle("Jose P. – Bengaluru"))
}

const ddgPage = `<html><body>
<div class="result results_links">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.linkedin.com%2Fin%2Fasha-rao-19&rut=x">Asha Rao - Software Engineer - LinkedIn</a></h2>
  <a class="result__snippet">B.Tech&nbsp;IIIT Naya Raipur 2019 - 2023</a>
</div>
<div class="result">
  <h2><a class="result__a" href="https://www.linkedin.com/posts/asha_1">Asha Rao on LinkedIn</a></h2>
</div>
<div class="result"><span>no link</span></div>
</body></html>`

func TestDDGSearcherParsesResults(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, ddgPage)
	}))
	defer srv.Close()

	s := NewDDGSearcher(srv.URL+"/html/", nil)
	results, err := s.Search(context.Background(), `"Asha Rao" site:linkedin.com/in`)
	require.NoError(t, err)

	assert.Equal(t, `"Asha Rao" site:linkedin.com/in`, gotQuery)
	require.Len(t, results, 2)
	assert.Equal(t, "https://www.linkedin.com/in/asha-rao-19", results[0].URL)
	assert.Equal(t, "Asha Rao - Software Engineer - LinkedIn", results[0].Title)
	assert.Equal(t, "B.Tech IIIT Naya Raipur 2019 - 2023", results[0].Snippet)
}

func TestDDGSearcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := newResolver(nil, NewDDGSearcher(srv.URL, nil))
	_, err := r.Resolve(context.Background(), "Asha Rao", "", domain.StrategyFallback)

	var rf *ResolutionFailed
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, domain.StrategyFallback, rf.Strategy)
	assert.Contains(t, err.Error(), "429")
}

type fakeRenderer struct{ html string }

func (f fakeRenderer) Render(context.Context, string) (string, error) { return f.html, nil }

type fakeLLM struct {
	reply    string
	messages []llms.MessageContent
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func TestSessionDiscoverer(t *testing.T) {
	llm := &fakeLLM{reply: "```json\n{\"url\": \"https://www.linkedin.com/in/asha-rao-19\"}\n```"}
	d := &SessionDiscoverer{
		Browser:       fakeRenderer{html: `<html><body><h1>Results</h1><a href="https://www.linkedin.com/in/asha-rao-19">Asha Rao</a></body></html>`},
		LLM:           llm,
		SearchPageURL: "https://search.example/?q=%s",
		MaxPageChars:  1000,
	}

	u, err := d.Discover(context.Background(), `"Asha Rao"`)
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/in/asha-rao-19", u)

	require.Len(t, llm.messages, 2)
	human := llm.messages[1].Parts[0].(llms.TextContent).Text
	assert.True(t, strings.Contains(human, "asha-rao-19"))
}

func TestParseURLReply(t *testing.T) {
	u, err := ParseURLReply(`{"url": ""}`)
	require.NoError(t, err)
	assert.Empty(t, u)

	_, err = ParseURLReply("I think it is https://linkedin.com/in/x")
	assert.Error(t, err)
}
