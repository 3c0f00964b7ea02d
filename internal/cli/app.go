package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"alumni-engine/internal/audit"
	"alumni-engine/internal/batch"
	"alumni-engine/internal/collect"
	"alumni-engine/internal/config"
	"alumni-engine/internal/domain"
	"alumni-engine/internal/events"
	"alumni-engine/internal/netx"
	"alumni-engine/internal/resolve"
	"alumni-engine/internal/secrets"
	"alumni-engine/internal/store"
	"alumni-engine/internal/transform"
)

// app holds everything a command needs to process work items.
type app struct {
	cfg config.Config
	log *slog.Logger

	db       *store.DB
	profiles store.ProfileStore
	audit    *audit.Writer
	hub      *events.Hub
	resolver *resolve.Resolver
	browser  *resolve.RodBrowser
	pipeline *batch.Pipeline
	orch     *batch.Orchestrator
}

// secretFunc is swapped in tests.
var secretFunc = secrets.Get

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, hub: events.NewHub()}

	db, err := store.Open(cfg.Store.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Store.SQLitePath, err)
	}
	a.db = db

	a.profiles, err = store.OpenProfiles(ctx, cfg, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open profile store: %w", err)
	}

	a.audit = audit.NewWriter(cfg.Audit.Dir, log)

	limiter := netx.NewHostLimiter(cfg.Discovery.RequestsPerSecond, cfg.Discovery.Burst)
	a.resolver = &resolve.Resolver{
		Search:         resolve.NewDDGSearcher(cfg.Discovery.SearchURL, limiter),
		Cache:          db,
		CacheTTL:       cfg.CacheTTL(),
		Threshold:      cfg.Discovery.Threshold,
		StrictCohort:   cfg.Discovery.StrictCohort,
		InstituteTerms: cfg.Institute.NameVariations,
		Timeout:        cfg.DiscoveryTimeout(),
		Log:            log,
	}
	if cfg.Discovery.Primary.Enabled {
		if err := a.enablePrimary(); err != nil {
			log.Warn("primary discovery unavailable, only fallback search will succeed", "error", err)
		}
	}

	token, err := secretFunc(secrets.AccountCollector)
	if err != nil {
		log.Warn("collector token missing, fetches will fail", "error", err)
	}
	retry := netx.DefaultRetryConfig
	retry.MaxRetries = cfg.Collector.Retries
	fetcher := &collect.Client{
		BaseURL:      cfg.Collector.BaseURL,
		ActorID:      cfg.Collector.ActorID,
		Token:        token,
		IncludeEmail: cfg.Collector.IncludeEmail,
		HTTP:         &http.Client{},
		Limiter:      limiter,
		Retry:        retry,
		Timeout:      cfg.CollectorTimeout(),
		Log:          log,
	}

	a.pipeline = &batch.Pipeline{
		Resolver:    a.resolver,
		Fetcher:     fetcher,
		Transformer: transform.New(cfg),
		Store:       a.profiles,
		Log:         log,
	}
	if cfg.Audit.SaveRaw {
		a.pipeline.Raw = a.audit
	}

	strategy, ok := domain.ParseStrategy(cfg.Discovery.Strategy)
	if !ok {
		strategy = domain.StrategyAuto
	}
	a.orch = batch.NewOrchestrator(a.pipeline, a.audit, a.hub, batch.Options{
		DefaultConcurrency:       cfg.Batch.DefaultConcurrency,
		MaxConcurrency:           cfg.Batch.MaxConcurrency,
		StoreFailureWarningAfter: cfg.Batch.StoreFailureWarningAfter,
		DefaultStrategy:          strategy,
	}, log)

	return a, nil
}

func (a *app) enablePrimary() error {
	p := a.cfg.Discovery.Primary
	key, err := secretFunc(secrets.AccountLLM)
	if err != nil {
		return err
	}
	llm, err := resolve.NewOpenAICompleter(key, p.LLMModel, p.LLMBaseURL)
	if err != nil {
		return err
	}
	a.browser = &resolve.RodBrowser{
		ControlURL: p.ControlURL,
		Headless:   p.Headless,
		NavTimeout: a.cfg.DiscoveryTimeout(),
		Log:        a.log,
	}
	a.resolver.Primary = &resolve.SessionDiscoverer{
		Browser:       a.browser,
		LLM:           llm,
		SearchPageURL: p.SearchPageURL,
		MaxPageChars:  p.MaxPageChars,
	}
	return nil
}

// prune drops expired audit files and cached resolutions.
func (a *app) prune(ctx context.Context) error {
	var errs []error
	n, err := a.audit.Prune(a.cfg.AuditRetention())
	if err != nil {
		errs = append(errs, fmt.Errorf("audit prune: %w", err))
	}
	var m int64
	if ttl := a.cfg.CacheTTL(); ttl > 0 {
		m, err = a.db.PruneResolutions(ctx, ttl)
		if err != nil {
			errs = append(errs, fmt.Errorf("cache prune: %w", err))
		}
	}
	if n > 0 || m > 0 {
		a.log.Info("pruned", "audit_files", n, "cached_resolutions", m)
	}
	return errors.Join(errs...)
}

// shutdown stops the running batch, waiting at most grace for in-flight items.
func (a *app) shutdown(grace time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := a.orch.Shutdown(ctx); err != nil {
		a.log.Warn("batch did not stop in time", "error", err)
	}
}

func (a *app) Close() error {
	var errs []error
	if a.browser != nil {
		errs = append(errs, a.browser.Close())
	}
	if a.profiles != nil && a.profiles != store.ProfileStore(a.db) {
		errs = append(errs, a.profiles.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
