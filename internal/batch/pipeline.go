package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"alumni-engine/internal/domain"
	"alumni-engine/internal/logging"
	"alumni-engine/internal/profileurl"
	"alumni-engine/internal/store"
	"alumni-engine/internal/transform"
)

type Resolver interface {
	Resolve(ctx context.Context, name, cohortHint string, strategy domain.Strategy) (domain.ResolvedCandidate, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, profileURL string) ([]byte, error)
}

type Transformer interface {
	Transform(in transform.Input) (domain.CanonicalProfile, error)
}

type Store interface {
	Upsert(ctx context.Context, p domain.CanonicalProfile) error
}

// RawSink keeps a copy of every fetched payload for re-import.
type RawSink interface {
	SaveRaw(name string, payload []byte, meta domain.RawMetadata) (string, error)
}

// Processor runs one work item end to end.
type Processor interface {
	Process(ctx context.Context, item domain.WorkItem, strategy domain.Strategy) (Result, error)
}

type ProcessorFunc func(ctx context.Context, item domain.WorkItem, strategy domain.Strategy) (Result, error)

func (f ProcessorFunc) Process(ctx context.Context, item domain.WorkItem, strategy domain.Strategy) (Result, error) {
	return f(ctx, item, strategy)
}

type Result struct {
	Profile   domain.CanonicalProfile  `json:"profile"`
	Candidate domain.ResolvedCandidate `json:"candidate"`
}

// Pipeline is resolve -> fetch -> transform -> upsert -> raw audit.
// Nothing is stored unless the transform succeeds.
type Pipeline struct {
	Resolver    Resolver
	Fetcher     Fetcher
	Transformer Transformer
	Store       Store
	Raw         RawSink

	Now func() time.Time
	Log *slog.Logger
}

func (p *Pipeline) Process(ctx context.Context, item domain.WorkItem, strategy domain.Strategy) (Result, error) {
	var res Result

	raw := []byte(item.RawPayload)
	if len(raw) == 0 {
		cand, err := p.candidate(ctx, item, strategy)
		if err != nil {
			return res, err
		}
		res.Candidate = cand

		if p.Fetcher == nil {
			return res, errors.New("no fetcher configured")
		}
		raw, err = p.Fetcher.Fetch(ctx, cand.URL)
		if err != nil {
			return res, err
		}
		p.saveRaw(item, raw, cand.URL)
	} else if u := profileurl.Canonical(item.KnownURL); u != "" {
		res.Candidate = domain.ResolvedCandidate{URL: u, Confidence: 1, Strategy: domain.StrategyKnown}
	}

	prof, err := p.Transformer.Transform(transform.Input{
		Raw:        raw,
		Name:       item.Name,
		CohortHint: item.CohortHint,
		SourceURL:  res.Candidate.URL,
	})
	if err != nil {
		return res, fmt.Errorf("transform: %w", err)
	}
	now := p.now().UTC()
	if prof.ScrapedAt == "" {
		prof.ScrapedAt = now.Format(time.RFC3339)
	}

	if err := p.Store.Upsert(ctx, prof); err != nil {
		var se *store.StoreError
		if !errors.As(err, &se) {
			err = &store.StoreError{Op: "upsert", ExternalID: prof.ExternalID, Err: err}
		}
		return res, err
	}
	res.Profile = prof
	return res, nil
}

// saveRaw keeps every fetched payload, including ones that later fail to
// transform or store, so they can be re-imported.
func (p *Pipeline) saveRaw(item domain.WorkItem, raw []byte, sourceURL string) {
	if p.Raw == nil {
		return
	}
	meta := domain.RawMetadata{
		Batch:       item.CohortHint,
		OriginalURL: sourceURL,
		ScrapedAt:   p.now().UTC().Format(time.RFC3339),
		Source:      "apify",
	}
	if _, err := p.Raw.SaveRaw(item.Name, raw, meta); err != nil {
		logging.OrDefault(p.Log).Warn("raw payload not saved", "name", item.Name, "error", err)
	}
}

func (p *Pipeline) candidate(ctx context.Context, item domain.WorkItem, strategy domain.Strategy) (domain.ResolvedCandidate, error) {
	if item.KnownURL != "" {
		u := profileurl.Canonical(item.KnownURL)
		if u == "" {
			return domain.ResolvedCandidate{}, fmt.Errorf("known url %q is not a profile url", item.KnownURL)
		}
		return domain.ResolvedCandidate{URL: u, Confidence: 1, Strategy: domain.StrategyKnown}, nil
	}
	if p.Resolver == nil {
		return domain.ResolvedCandidate{}, errors.New("no resolver configured")
	}
	return p.Resolver.Resolve(ctx, item.Name, item.CohortHint, strategy)
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
