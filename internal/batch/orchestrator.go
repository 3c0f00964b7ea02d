// Package batch runs submitted work items through the resolve/fetch/store
// pipeline with bounded concurrency and exposes live job state.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"alumni-engine/internal/domain"
	"alumni-engine/internal/events"
	"alumni-engine/internal/logging"
	"alumni-engine/internal/profileurl"
	"alumni-engine/internal/store"
)

type Options struct {
	DefaultConcurrency       int
	MaxConcurrency           int
	StoreFailureWarningAfter int
	DefaultStrategy          domain.Strategy
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = 10
	}
	if o.DefaultConcurrency <= 0 {
		o.DefaultConcurrency = 3
	}
	if o.DefaultConcurrency > o.MaxConcurrency {
		o.DefaultConcurrency = o.MaxConcurrency
	}
	if o.StoreFailureWarningAfter <= 0 {
		o.StoreFailureWarningAfter = 3
	}
	if o.DefaultStrategy == "" {
		o.DefaultStrategy = domain.StrategyAuto
	}
	return o
}

// FailedWriter persists the failures of a finished batch.
type FailedWriter interface {
	WriteFailed(jobID string, items []domain.FailedItem) (string, error)
}

type Publisher interface {
	Publish(evt string)
}

// Orchestrator owns the single batch job. At most one job runs at a time.
type Orchestrator struct {
	proc   Processor
	audit  FailedWriter
	events Publisher
	log    *slog.Logger
	opts   Options
	now    func() time.Time

	mu              sync.Mutex
	state           JobState
	done            chan struct{}
	cancel          context.CancelFunc
	storeFailStreak int
}

func NewOrchestrator(proc Processor, audit FailedWriter, pub Publisher, opts Options, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		proc:   proc,
		audit:  audit,
		events: pub,
		log:    logging.OrDefault(log),
		opts:   opts.withDefaults(),
		now:    time.Now,
		state:  JobState{Phase: PhaseIdle, CurrentLabel: "Idle"},
	}
}

// Submit validates items and starts a job in the background.
func (o *Orchestrator) Submit(items []domain.WorkItem, concurrency int, strategy string) (string, error) {
	if err := ValidateItems(items); err != nil {
		return "", err
	}
	strat := o.opts.DefaultStrategy
	if s := strings.TrimSpace(strategy); s != "" {
		parsed, ok := domain.ParseStrategy(s)
		if !ok {
			return "", &ValidationError{Field: "strategy", Msg: fmt.Sprintf("unknown strategy %q", s)}
		}
		strat = parsed
	}
	conc := o.clamp(concurrency)

	o.mu.Lock()
	if o.state.IsRunning {
		o.mu.Unlock()
		return "", ErrConflict
	}

	jobID := uuid.NewString()
	now := o.now()
	o.state = JobState{
		JobID:        jobID,
		Phase:        PhaseRunning,
		IsRunning:    true,
		Total:        len(items),
		CurrentLabel: "Starting",
		Concurrency:  conc,
		Strategy:     strat,
		StartedAt:    &now,
	}
	o.storeFailStreak = 0
	o.state.logf(now, "starting batch of %d items with concurrency %d", len(items), conc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	o.done = done
	o.cancel = cancel
	o.mu.Unlock()

	work := append([]domain.WorkItem(nil), items...)
	o.log.Info("batch started", "job_id", jobID, "items", len(work), "concurrency", conc, "strategy", strat)
	o.publish(events.TypeBatchStarted, events.BatchStarted{JobID: jobID, Total: len(work), Concurrency: conc, Strategy: string(strat)})

	go o.run(ctx, cancel, done, jobID, work, conc, strat)
	return jobID, nil
}

// ValidateItems rejects empty batches and items that cannot be processed.
func ValidateItems(items []domain.WorkItem) error {
	if len(items) == 0 {
		return &ValidationError{Field: "items", Msg: "at least one item is required"}
	}
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" && len(it.RawPayload) == 0 {
			return &ValidationError{Field: fmt.Sprintf("items[%d].name", i), Msg: "name is required"}
		}
		if it.KnownURL != "" && !profileurl.IsProfile(it.KnownURL) {
			return &ValidationError{Field: fmt.Sprintf("items[%d].knownUrl", i), Msg: "not a profile url"}
		}
	}
	return nil
}

func (o *Orchestrator) clamp(n int) int {
	if n <= 0 {
		return o.opts.DefaultConcurrency
	}
	if n > o.opts.MaxConcurrency {
		return o.opts.MaxConcurrency
	}
	return n
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}, jobID string, items []domain.WorkItem, conc int, strat domain.Strategy) {
	defer close(done)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(conc)

	for _, it := range items {
		if o.stopRequested() {
			break
		}
		g.Go(func() error {
			if o.stopRequested() {
				return nil
			}
			o.processOne(ctx, jobID, it, strat)
			return nil
		})
	}
	_ = g.Wait()

	o.finish(jobID)
}

func (o *Orchestrator) processOne(ctx context.Context, jobID string, it domain.WorkItem, strat domain.Strategy) {
	label := it.Name
	if label == "" {
		label = "raw payload"
	}
	o.mu.Lock()
	o.state.CurrentLabel = "Processing " + label
	o.mu.Unlock()

	start := time.Now()
	res, err := o.safeProcess(ctx, it, strat)

	o.mu.Lock()
	now := o.now()
	o.state.ProcessedCount++
	evt := events.ItemProcessed{JobID: jobID, Name: label, Total: o.state.Total}
	var warning string

	if err == nil {
		o.state.Succeeded++
		o.storeFailStreak = 0
		o.state.logf(now, "ok: %s (%s)", label, res.Profile.ExternalID)
		evt.OK = true
		evt.ExternalID = res.Profile.ExternalID
	} else {
		o.state.FailedItems = append(o.state.FailedItems, domain.FailedItem{
			WorkItem: it,
			Error:    err.Error(),
			FailedAt: now.UTC(),
		})
		o.state.logf(now, "failed: %s: %v", label, err)
		evt.Error = err.Error()

		var se *store.StoreError
		if errors.As(err, &se) {
			o.storeFailStreak++
			if o.storeFailStreak >= o.opts.StoreFailureWarningAfter && o.state.Warning == "" {
				warning = fmt.Sprintf("%d consecutive store failures; the profile store may be unavailable", o.storeFailStreak)
				o.state.Warning = warning
				o.state.logf(now, "warning: %s", warning)
			}
		}
	}
	evt.Processed = o.state.ProcessedCount
	o.mu.Unlock()

	if err != nil {
		o.log.Warn("item failed", "job_id", jobID, "name", label, "error", err, "elapsed", time.Since(start).Round(time.Millisecond))
	} else {
		o.log.Info("item stored", "job_id", jobID, "name", label, "external_id", res.Profile.ExternalID, "elapsed", time.Since(start).Round(time.Millisecond))
	}
	o.publish(events.TypeItemProcessed, evt)
	if warning != "" {
		o.log.Error("systemic store failure", "job_id", jobID, "warning", warning)
		o.publish(events.TypeBatchWarning, events.BatchWarning{JobID: jobID, Message: warning})
	}
}

func (o *Orchestrator) safeProcess(ctx context.Context, it domain.WorkItem, strat domain.Strategy) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return o.proc.Process(ctx, it, strat)
}

func (o *Orchestrator) finish(jobID string) {
	o.mu.Lock()
	failed := o.state.clone().FailedItems
	o.mu.Unlock()

	var auditFile string
	if len(failed) > 0 && o.audit != nil {
		path, err := o.audit.WriteFailed(jobID, failed)
		if err != nil {
			o.log.Error("write failed-items audit", "job_id", jobID, "error", err)
		} else {
			auditFile = path
		}
	}

	o.mu.Lock()
	now := o.now()
	s := &o.state
	s.AuditFile = auditFile
	s.IsRunning = false
	s.FinishedAt = &now
	if s.StopRequested {
		s.Phase = PhaseStopped
		s.CurrentLabel = "Stopped"
		s.logf(now, "stopped: processed %d of %d (%d succeeded, %d failed)", s.ProcessedCount, s.Total, s.Succeeded, s.Failed())
	} else {
		s.Phase = PhaseCompleted
		s.CurrentLabel = "Completed"
		s.logf(now, "done: %d succeeded, %d failed", s.Succeeded, s.Failed())
	}
	if auditFile != "" {
		s.logf(now, "failed items written to %s", auditFile)
	}
	evt := events.BatchFinished{
		JobID:     jobID,
		Phase:     string(s.Phase),
		Succeeded: s.Succeeded,
		Failed:    s.Failed(),
		AuditFile: auditFile,
	}
	o.mu.Unlock()

	o.log.Info("batch finished", "job_id", jobID, "phase", evt.Phase, "succeeded", evt.Succeeded, "failed", evt.Failed)
	o.publish(events.TypeBatchFinished, evt)
}

// Stop asks the running job to dispatch nothing further. In-flight items
// finish normally. Stopping an idle orchestrator is a no-op.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.state.IsRunning || o.state.StopRequested {
		return
	}
	o.state.StopRequested = true
	o.state.CurrentLabel = "Stopping"
	o.state.logf(o.now(), "stop requested")
	o.log.Info("batch stop requested", "job_id", o.state.JobID)
}

// Status returns a snapshot that is safe to read while the job runs.
func (o *Orchestrator) Status() JobState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Wait blocks until the current job (if any) finishes or ctx ends.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the job and waits for in-flight items. If ctx expires first,
// in-flight calls are cancelled.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.Stop()
	err := o.Wait(ctx)
	if err != nil {
		o.mu.Lock()
		cancel := o.cancel
		o.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}
	return err
}

func (o *Orchestrator) stopRequested() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.StopRequested
}

func (o *Orchestrator) publish(typ string, data any) {
	if o.events == nil {
		return
	}
	o.events.Publish(events.MakeEvent("", typ, 1, data))
}
