package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Rule struct {
	Tag    string   `yaml:"tag" json:"tag"`
	Weight int      `yaml:"weight,omitempty" json:"weight,omitempty"`
	Any    []string `yaml:"any" json:"any"`
}

type Config struct {
	App struct {
		Port     int    `yaml:"port" json:"port"`
		DataDir  string `yaml:"data_dir" json:"data_dir"`
		LogLevel string `yaml:"log_level" json:"log_level"`
		LogFile  string `yaml:"log_file" json:"log_file"`
	} `yaml:"app" json:"app"`

	Discovery struct {
		Strategy          string  `yaml:"strategy" json:"strategy"`
		Threshold         float64 `yaml:"threshold" json:"threshold"`
		StrictCohort      bool    `yaml:"strict_cohort" json:"strict_cohort"`
		TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds"`
		SearchURL         string  `yaml:"search_url" json:"search_url"`
		RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
		Burst             int     `yaml:"burst" json:"burst"`
		CacheTTLHours     int     `yaml:"cache_ttl_hours" json:"cache_ttl_hours"`

		Primary struct {
			Enabled       bool   `yaml:"enabled" json:"enabled"`
			SearchPageURL string `yaml:"search_page_url" json:"search_page_url"`
			ControlURL    string `yaml:"browser_control_url" json:"browser_control_url"`
			Headless      bool   `yaml:"headless" json:"headless"`
			LLMModel      string `yaml:"llm_model" json:"llm_model"`
			LLMBaseURL    string `yaml:"llm_base_url" json:"llm_base_url"`
			MaxPageChars  int    `yaml:"max_page_chars" json:"max_page_chars"`
		} `yaml:"primary" json:"primary"`
	} `yaml:"discovery" json:"discovery"`

	Collector struct {
		BaseURL        string `yaml:"base_url" json:"base_url"`
		ActorID        string `yaml:"actor_id" json:"actor_id"`
		TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
		IncludeEmail   bool   `yaml:"include_email" json:"include_email"`
		Retries        int    `yaml:"retries" json:"retries"`
	} `yaml:"collector" json:"collector"`

	Store struct {
		Driver      string `yaml:"driver" json:"driver"` // sqlite | postgres
		SQLitePath  string `yaml:"sqlite_path" json:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn" json:"postgres_dsn"`
	} `yaml:"store" json:"store"`

	Audit struct {
		Dir           string `yaml:"dir" json:"dir"`
		RetentionDays int    `yaml:"retention_days" json:"retention_days"`
		SaveRaw       bool   `yaml:"save_raw" json:"save_raw"`
	} `yaml:"audit" json:"audit"`

	Batch struct {
		DefaultConcurrency       int `yaml:"default_concurrency" json:"default_concurrency"`
		MaxConcurrency           int `yaml:"max_concurrency" json:"max_concurrency"`
		StoreFailureWarningAfter int `yaml:"store_failure_warning_after" json:"store_failure_warning_after"`
	} `yaml:"batch" json:"batch"`

	Institute struct {
		NameVariations  []string `yaml:"name_variations" json:"name_variations"`
		RelevantDegrees []string `yaml:"relevant_degrees" json:"relevant_degrees"`
		DefaultBranch   string   `yaml:"default_branch" json:"default_branch"`
		Branches        []Rule   `yaml:"branches" json:"branches"`
	} `yaml:"institute" json:"institute"`

	Skills struct {
		Technical []Rule `yaml:"technical" json:"technical"`
		Tools     []Rule `yaml:"tools" json:"tools"`
	} `yaml:"skills" json:"skills"`
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.Discovery.TimeoutSeconds) * time.Second
}

func (c Config) CollectorTimeout() time.Duration {
	return time.Duration(c.Collector.TimeoutSeconds) * time.Second
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Discovery.CacheTTLHours) * time.Hour
}

func (c Config) AuditRetention() time.Duration {
	return time.Duration(c.Audit.RetentionDays) * 24 * time.Hour
}
