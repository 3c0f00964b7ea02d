package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}
	trimRules := func(rules []Rule) []Rule {
		ys := make([]Rule, 0, len(rules))
		for _, r := range rules {
			r.Tag = strings.TrimSpace(r.Tag)
			r.Any = trimList(r.Any)
			ys = append(ys, r)
		}
		return ys
	}

	out.Institute.NameVariations = trimList(out.Institute.NameVariations)
	out.Institute.RelevantDegrees = trimList(out.Institute.RelevantDegrees)
	out.Institute.Branches = trimRules(out.Institute.Branches)
	out.Skills.Technical = trimRules(out.Skills.Technical)
	out.Skills.Tools = trimRules(out.Skills.Tools)
	out.Store.Driver = strings.ToLower(strings.TrimSpace(out.Store.Driver))
	out.Discovery.Strategy = strings.ToLower(strings.TrimSpace(out.Discovery.Strategy))

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch out.Discovery.Strategy {
	case "primary", "fallback", "auto":
	default:
		res.addErr("discovery.strategy must be primary, fallback or auto (got %q)", out.Discovery.Strategy)
	}
	if out.Discovery.Threshold <= 0 || out.Discovery.Threshold >= 1 {
		res.addErr("discovery.threshold must be between 0 and 1")
	}
	if out.Discovery.TimeoutSeconds <= 0 {
		res.addErr("discovery.timeout_seconds must be > 0")
	}
	if out.Discovery.RequestsPerSecond <= 0 {
		res.addErr("discovery.requests_per_second must be > 0")
	} else if out.Discovery.RequestsPerSecond > 2 {
		res.addWarn("discovery.requests_per_second is high (%.2f); search engines may start blocking.", out.Discovery.RequestsPerSecond)
	}
	if out.Discovery.Burst <= 0 {
		res.addErr("discovery.burst must be > 0")
	}
	if out.Discovery.Primary.Enabled {
		if !strings.Contains(out.Discovery.Primary.SearchPageURL, "%s") {
			res.addErr("discovery.primary.search_page_url must contain %%s for the query")
		}
		if strings.TrimSpace(out.Discovery.Primary.LLMModel) == "" {
			res.addErr("discovery.primary.llm_model is required when discovery.primary.enabled=true")
		}
	} else if out.Discovery.Strategy == "primary" {
		res.addWarn("discovery.strategy is primary but discovery.primary.enabled is false; every item will fail resolution.")
	}

	if strings.TrimSpace(out.Collector.BaseURL) == "" {
		res.addErr("collector.base_url is required")
	}
	if strings.TrimSpace(out.Collector.ActorID) == "" {
		res.addErr("collector.actor_id is required")
	}
	if out.Collector.TimeoutSeconds <= 0 {
		res.addErr("collector.timeout_seconds must be > 0")
	}
	if out.Collector.Retries < 0 {
		res.addErr("collector.retries must be >= 0")
	}

	switch out.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(out.Store.SQLitePath) == "" {
			res.addErr("store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(out.Store.PostgresDSN) == "" {
			res.addErr("store.postgres_dsn is required for the postgres driver")
		}
	default:
		res.addErr("store.driver must be sqlite or postgres (got %q)", out.Store.Driver)
	}

	if strings.TrimSpace(out.Audit.Dir) == "" {
		res.addErr("audit.dir is required")
	}
	if out.Audit.RetentionDays < 0 {
		res.addErr("audit.retention_days must be >= 0 (0 keeps files forever)")
	}

	if out.Batch.MaxConcurrency < 1 {
		res.addErr("batch.max_concurrency must be >= 1")
	}
	if out.Batch.DefaultConcurrency < 1 || out.Batch.DefaultConcurrency > out.Batch.MaxConcurrency {
		res.addErr("batch.default_concurrency must be 1..batch.max_concurrency")
	}
	if out.Batch.StoreFailureWarningAfter < 1 {
		res.addErr("batch.store_failure_warning_after must be >= 1")
	}

	if len(out.Institute.NameVariations) == 0 {
		res.addErr("institute.name_variations must have at least 1 entry")
	}
	if strings.TrimSpace(out.Institute.DefaultBranch) == "" {
		res.addWarn("institute.default_branch is empty; unmatched fields will leave branch unset.")
	}

	checkRules := func(name string, rules []Rule) {
		for i, r := range rules {
			if r.Tag == "" {
				res.addErr("%s[%d].tag is required", name, i)
			}
			if len(r.Any) == 0 {
				res.addErr("%s[%d].any must have at least 1 term", name, i)
			}
		}
	}
	checkRules("institute.branches", out.Institute.Branches)
	checkRules("skills.technical", out.Skills.Technical)
	checkRules("skills.tools", out.Skills.Tools)

	return out, res
}
