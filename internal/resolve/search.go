package resolve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"alumni-engine/internal/netx"
)

const DefaultSearchURL = "https://html.duckduckgo.com/html/"

// DDGSearcher queries DuckDuckGo's HTML endpoint and parses the result list.
type DDGSearcher struct {
	BaseURL   string
	Client    *http.Client
	Limiter   *netx.HostLimiter
	UserAgent string
}

func NewDDGSearcher(baseURL string, limiter *netx.HostLimiter) *DDGSearcher {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultSearchURL
	}
	return &DDGSearcher{
		BaseURL:   baseURL,
		Client:    &http.Client{Timeout: 15 * time.Second},
		Limiter:   limiter,
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	}
}

func (s *DDGSearcher) Search(ctx context.Context, query string) ([]SearchResult, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("search url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	if err := s.Limiter.WaitURL(ctx, u.String()); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", "text/html")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &netx.StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}
	return parseResults(doc), nil
}

func parseResults(doc *goquery.Document) []SearchResult {
	var out []SearchResult
	doc.Find(".result").Each(func(_ int, sel *goquery.Selection) {
		a := sel.Find("a.result__a").First()
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		out = append(out, SearchResult{
			Title:   netx.CleanText(a.Text()),
			URL:     decodeDDGRedirect(href),
			Snippet: netx.CleanText(sel.Find(".result__snippet").Text()),
		})
	})
	return out
}

func decodeDDGRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	// DDG wraps targets as /l/?uddg=<urlencoded>
	if uddg := u.Query().Get("uddg"); uddg != "" {
		return uddg
	}
	return href
}
