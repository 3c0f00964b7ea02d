package domain

import (
	"encoding/json"
	"time"
)

// WorkItem is one entry of a submitted batch.
type WorkItem struct {
	Name       string `json:"name"`
	CohortHint string `json:"cohortHint,omitempty"`
	KnownURL   string `json:"knownUrl,omitempty"`

	// RawPayload skips resolution and fetching; the payload is transformed as-is.
	RawPayload json.RawMessage `json:"rawPayload,omitempty"`
}

type FailedItem struct {
	WorkItem
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failedAt"`
}

type Strategy string

const (
	StrategyPrimary  Strategy = "primary"
	StrategyFallback Strategy = "fallback"
	StrategyAuto     Strategy = "auto"
	StrategyKnown    Strategy = "known"
)

func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(s) {
	case StrategyPrimary, StrategyFallback, StrategyAuto:
		return Strategy(s), true
	}
	return "", false
}

type ResolvedCandidate struct {
	URL        string   `json:"url"`
	Confidence float64  `json:"confidence"`
	Strategy   Strategy `json:"strategy"`
}

// RawMetadata is attached to saved collector payloads so a re-import keeps
// the cohort and URL the item was submitted with.
type RawMetadata struct {
	Batch       string `json:"batch,omitempty"`
	OriginalURL string `json:"originalUrl,omitempty"`
	ScrapedAt   string `json:"scrapedAt,omitempty"`
	Source      string `json:"source,omitempty"`
}
