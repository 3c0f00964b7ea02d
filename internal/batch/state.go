package batch

import (
	"fmt"
	"time"

	"alumni-engine/internal/domain"
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseCompleted Phase = "completed"
	PhaseStopped   Phase = "stopped"
)

const maxLogLines = 500

// JobState is the observable progress of the current (or last) batch.
type JobState struct {
	JobID          string              `json:"jobId,omitempty"`
	Phase          Phase               `json:"phase"`
	IsRunning      bool                `json:"isRunning"`
	Total          int                 `json:"total"`
	ProcessedCount int                 `json:"processedCount"`
	Succeeded      int                 `json:"succeeded"`
	CurrentLabel   string              `json:"currentLabel"`
	LogLines       []string            `json:"logLines"`
	FailedItems    []domain.FailedItem `json:"failedItems"`
	Concurrency    int                 `json:"concurrencyLimit"`
	Strategy       domain.Strategy     `json:"strategy,omitempty"`
	StopRequested  bool                `json:"stopRequested"`
	Warning        string              `json:"warning,omitempty"`
	AuditFile      string              `json:"auditFile,omitempty"`
	StartedAt      *time.Time          `json:"startedAt,omitempty"`
	FinishedAt     *time.Time          `json:"finishedAt,omitempty"`
}

func (s JobState) Failed() int { return len(s.FailedItems) }

func (s JobState) clone() JobState {
	c := s
	c.LogLines = append([]string(nil), s.LogLines...)
	c.FailedItems = make([]domain.FailedItem, len(s.FailedItems))
	for i, f := range s.FailedItems {
		f.RawPayload = append([]byte(nil), f.RawPayload...)
		c.FailedItems[i] = f
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		c.FinishedAt = &t
	}
	return c
}

// logf prepends a timestamped line; newest first.
func (s *JobState) logf(now time.Time, format string, args ...any) {
	line := fmt.Sprintf("[%s] %s", now.Format("15:04:05"), fmt.Sprintf(format, args...))
	s.LogLines = append([]string{line}, s.LogLines...)
	if len(s.LogLines) > maxLogLines {
		s.LogLines = s.LogLines[:maxLogLines]
	}
}
