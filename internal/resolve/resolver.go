// Package resolve turns a person's name and cohort hint into a single public
// profile URL, either through an interactive search session (primary) or by
// scoring raw search-engine results (fallback).
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"alumni-engine/internal/domain"
	"alumni-engine/internal/logging"
	"alumni-engine/internal/profileurl"
	"alumni-engine/internal/rank"
)

const DefaultThreshold = 0.6

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Discoverer runs the primary strategy: one query in, one URL out.
type Discoverer interface {
	Discover(ctx context.Context, query string) (string, error)
}

type DiscovererFunc func(ctx context.Context, query string) (string, error)

func (f DiscovererFunc) Discover(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

// Searcher runs the fallback strategy's raw search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

type Cache interface {
	GetResolution(ctx context.Context, key string, maxAge time.Duration) (domain.ResolvedCandidate, bool, error)
	PutResolution(ctx context.Context, key string, c domain.ResolvedCandidate) error
}

type Resolver struct {
	Primary Discoverer
	Search  Searcher
	Cache   Cache

	CacheTTL       time.Duration
	Threshold      float64
	StrictCohort   bool
	InstituteTerms []string
	Timeout        time.Duration
	Log            *slog.Logger
}

// Resolve finds the profile URL for name. strategy "auto" tries primary and
// falls back on a retryable failure.
func (r *Resolver) Resolve(ctx context.Context, name, cohortHint string, strategy domain.Strategy) (domain.ResolvedCandidate, error) {
	name = strings.TrimSpace(name)
	cohortHint = strings.TrimSpace(cohortHint)
	if name == "" {
		return domain.ResolvedCandidate{}, ErrEmptyName
	}
	log := logging.OrDefault(r.Log)

	key := r.cacheKey(name, cohortHint)
	if r.Cache != nil {
		if c, ok, err := r.Cache.GetResolution(ctx, key, r.CacheTTL); err != nil {
			log.Warn("resolution cache read failed", "name", name, "error", err)
		} else if ok && cacheServes(strategy, c.Strategy) {
			log.Debug("resolution cache hit", "name", name, "url", c.URL, "strategy", c.Strategy)
			return c, nil
		}
	}

	query := BuildQuery(name, cohortHint, r.InstituteTerms)

	var (
		c   domain.ResolvedCandidate
		err error
	)
	switch strategy {
	case domain.StrategyPrimary:
		c, err = r.primary(ctx, query)
	case domain.StrategyFallback:
		c, err = r.fallback(ctx, query, name, cohortHint)
	case domain.StrategyAuto, "":
		c, err = r.primary(ctx, query)
		if err != nil && IsRetryable(err) {
			log.Info("primary resolution failed, trying fallback", "name", name, "error", err)
			c, err = r.fallback(ctx, query, name, cohortHint)
		}
	default:
		return domain.ResolvedCandidate{}, fmt.Errorf("unknown strategy %q", strategy)
	}
	if err != nil {
		return domain.ResolvedCandidate{}, err
	}

	if r.Cache != nil {
		if err := r.Cache.PutResolution(ctx, key, c); err != nil {
			log.Warn("resolution cache write failed", "name", name, "error", err)
		}
	}
	log.Debug("resolved", "name", name, "url", c.URL, "strategy", c.Strategy, "confidence", c.Confidence)
	return c, nil
}

// cacheKey includes the cohort mode so lenient matches are never served once
// strict matching is switched on.
func (r *Resolver) cacheKey(name, cohortHint string) string {
	mode := "lenient"
	if r.StrictCohort {
		mode = "strict"
	}
	return name + " " + cohortHint + " " + mode
}

// cacheServes reports whether a hit produced by cached may answer a request
// for requested. Only auto accepts either strategy.
func cacheServes(requested, cached domain.Strategy) bool {
	switch requested {
	case domain.StrategyAuto, "":
		return cached == domain.StrategyPrimary || cached == domain.StrategyFallback
	default:
		return requested == cached
	}
}

func (r *Resolver) primary(ctx context.Context, query string) (domain.ResolvedCandidate, error) {
	if r.Primary == nil {
		return domain.ResolvedCandidate{}, &ResolutionFailed{Strategy: domain.StrategyPrimary, Reason: "primary discovery is disabled"}
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	raw, err := r.Primary.Discover(ctx, query)
	if err != nil {
		return domain.ResolvedCandidate{}, &ResolutionFailed{Strategy: domain.StrategyPrimary, Err: err}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.ResolvedCandidate{}, &ResolutionFailed{Strategy: domain.StrategyPrimary, Reason: "no url returned"}
	}
	u := profileurl.Canonical(raw)
	if u == "" {
		return domain.ResolvedCandidate{}, &ResolutionFailed{Strategy: domain.StrategyPrimary, Reason: fmt.Sprintf("not a profile url: %q", raw)}
	}
	return domain.ResolvedCandidate{URL: u, Confidence: 1, Strategy: domain.StrategyPrimary}, nil
}

func (r *Resolver) fallback(ctx context.Context, query, name, cohortHint string) (domain.ResolvedCandidate, error) {
	if r.Search == nil {
		return domain.ResolvedCandidate{}, &ResolutionFailed{Strategy: domain.StrategyFallback, Reason: "no searcher configured"}
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	results, err := r.Search.Search(ctx, query)
	if err != nil {
		return domain.ResolvedCandidate{}, &ResolutionFailed{Strategy: domain.StrategyFallback, Err: err}
	}

	threshold := r.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	var years []string
	if r.StrictCohort {
		years = cohortYears(cohortHint)
	}

	best, ok := SelectCandidate(results, name, threshold, years)
	if !ok {
		return domain.ResolvedCandidate{}, &ResolutionFailed{
			Strategy: domain.StrategyFallback,
			Reason:   fmt.Sprintf("no candidate matched among %d results", len(results)),
		}
	}
	return best, nil
}

// SelectCandidate scores profile-shaped results against name. A result is
// accepted when the cleaned name occurs in the cleaned title or the score
// exceeds threshold. When years is non-empty, results whose title and snippet
// mention none of them are dropped. The highest score wins; ties keep the
// first seen.
func SelectCandidate(results []SearchResult, name string, threshold float64, years []string) (domain.ResolvedCandidate, bool) {
	want := CleanName(name)
	var (
		best  domain.ResolvedCandidate
		found bool
	)
	for _, res := range results {
		u := profileurl.Canonical(res.URL)
		if u == "" {
			continue
		}
		if len(years) > 0 && !mentionsAny(res.Title+" "+res.Snippet, years) {
			continue
		}
		title := CleanTitle(res.Title)
		score := rank.Similarity(title, want)
		if !(want != "" && strings.Contains(title, want)) && !(score > threshold) {
			continue
		}
		if !found || score > best.Confidence {
			best = domain.ResolvedCandidate{URL: u, Confidence: score, Strategy: domain.StrategyFallback}
			found = true
		}
	}
	return best, found
}

// BuildQuery folds the name, institute identifiers and cohort hint into one
// search string restricted to profile pages.
func BuildQuery(name, cohortHint string, instituteTerms []string) string {
	parts := []string{fmt.Sprintf("%q", strings.TrimSpace(name))}
	for i, t := range instituteTerms {
		if i == 2 {
			break
		}
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	if h := strings.TrimSpace(cohortHint); h != "" {
		parts = append(parts, h)
	}
	parts = append(parts, "site:linkedin.com/in")
	return strings.Join(parts, " ")
}

var titleSeparators = []string{" - ", " | ", " – ", " — "}

// CleanTitle keeps the part of a result title before the first separator,
// which for profile pages is the person's name.
func CleanTitle(title string) string {
	for _, sep := range titleSeparators {
		if i := strings.Index(title, sep); i >= 0 {
			title = title[:i]
		}
	}
	return CleanName(title)
}

func CleanName(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

func cohortYears(hint string) []string {
	return yearRe.FindAllString(hint, -1)
}

func mentionsAny(text string, years []string) bool {
	for _, y := range years {
		if strings.Contains(text, y) {
			return true
		}
	}
	return false
}

func (r *Resolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Timeout)
}
