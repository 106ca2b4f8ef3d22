package config

import (
	"log"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Tokyo"
	configPathEnv   = "NEWS_CURATOR_CONFIG"
	geminiAPIKeyEnv = "GEMINI_API_KEY"
	geminiModelEnv  = "GEMINI_MODEL"
	dataDirEnv      = "NEWS_CURATOR_DATA_DIR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig   `yaml:"logging"`
	Data     DataConfig      `yaml:"data"`
	Feeds    []FeedConfig    `yaml:"feeds"`
	Quota    QuotaConfig     `yaml:"quota"`
	Gemini   GeneratorConfig `yaml:"gemini"`
	Curation CurationConfig  `yaml:"curation"`
	Filters  FilterConfig    `yaml:"filters"`
	Scoring  ScoringConfig   `yaml:"scoring"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DataConfig describes the flat document store locations.
type DataConfig struct {
	Dir           string `yaml:"dir"`
	CorpusFile    string `yaml:"corpusFile"`
	StatusFile    string `yaml:"statusFile"`
	BlacklistFile string `yaml:"blacklistFile"`
	CacheDB       string `yaml:"cacheDb"`
}

// Validate checks the document store locations.
func (c DataConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.CorpusFile, validation.Required),
		validation.Field(&c.StatusFile, validation.Required),
		validation.Field(&c.BlacklistFile, validation.Required),
	)
}

// FeedConfig describes a single RSS source. StrictKeywords, when present,
// requires every candidate from this source to match at least one of them.
type FeedConfig struct {
	Name           string   `yaml:"name"`
	URL            string   `yaml:"url"`
	StrictKeywords []string `yaml:"strictKeywords"`
}

// QuotaConfig bounds external annotation calls per reset period.
type QuotaConfig struct {
	DailyLimit         int    `yaml:"dailyLimit"`
	ReservedForOthers  int    `yaml:"reservedForOthers"`
	ResetHour          int    `yaml:"resetHour"`
	Timezone           string `yaml:"timezone"`
	location           *time.Location

	reservedSet  bool
	resetHourSet bool
}

// UnmarshalYAML records which optional integer keys the document actually
// carries, so merge can tell an explicit zero from an absent key.
func (q *QuotaConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		DailyLimit        int    `yaml:"dailyLimit"`
		ReservedForOthers *int   `yaml:"reservedForOthers"`
		ResetHour         *int   `yaml:"resetHour"`
		Timezone          string `yaml:"timezone"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	q.DailyLimit = raw.DailyLimit
	q.Timezone = raw.Timezone
	if raw.ReservedForOthers != nil {
		q.ReservedForOthers = *raw.ReservedForOthers
		q.reservedSet = true
	}
	if raw.ResetHour != nil {
		q.ResetHour = *raw.ResetHour
		q.resetHourSet = true
	}
	return nil
}

// Location resolves the quota timezone; the reset boundary is a wall-clock
// instant in this zone, not calendar midnight.
func (q QuotaConfig) Location() *time.Location {
	if q.location != nil {
		return q.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Validate checks quota arithmetic invariants.
func (q QuotaConfig) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.DailyLimit, validation.Required, validation.Min(1)),
		validation.Field(&q.ReservedForOthers, validation.Min(0), validation.Max(q.DailyLimit)),
		validation.Field(&q.ResetHour, validation.Min(0), validation.Max(23)),
	)
}

// GeneratorConfig defines how to contact the annotation provider.
type GeneratorConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"apiKey"`
	RequestDelay   time.Duration `yaml:"requestDelay"`
	BackoffBase    time.Duration `yaml:"backoffBase"`
	MaxAttempts    int           `yaml:"maxAttempts"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// Validate checks the provider settings.
func (g GeneratorConfig) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Endpoint, validation.Required),
		validation.Field(&g.Model, validation.Required),
		validation.Field(&g.MaxAttempts, validation.Min(1), validation.Max(10)),
	)
}

// CurationConfig bounds the persisted corpus and per-run work.
type CurationConfig struct {
	MaxArticles      int     `yaml:"maxArticles"`
	RetentionDays    int     `yaml:"retentionDays"`
	MaxPerDomain     int     `yaml:"maxPerDomain"`
	MaxCategoryShare float64 `yaml:"maxCategoryShare"`
	PerRunRetryQuota int     `yaml:"perRunRetryQuota"`
	FeedEntryCap     int     `yaml:"feedEntryCap"`
	SummaryMinLen    int     `yaml:"summaryMinLen"`
	SummaryMaxLen    int     `yaml:"summaryMaxLen"`
}

// Validate checks the corpus bounds.
func (c CurationConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxArticles, validation.Required, validation.Min(1)),
		validation.Field(&c.RetentionDays, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxPerDomain, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxCategoryShare, validation.Required, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.SummaryMinLen, validation.Min(1)),
		validation.Field(&c.SummaryMaxLen, validation.Min(c.SummaryMinLen)),
	)
}

// KeywordRule is one named predicate of the filter chain. Overrides cancel
// the rejection when any of them appears in the candidate text.
type KeywordRule struct {
	Name      string   `yaml:"name"`
	Keywords  []string `yaml:"keywords"`
	Overrides []string `yaml:"overrides"`
}

// FilterConfig is the single versioned structure holding every keyword list
// the chain evaluates, in evaluation order.
type FilterConfig struct {
	Version             int           `yaml:"version"`
	ExcludedURLPatterns []string      `yaml:"excludedUrlPatterns"`
	PromoKeywords       []string      `yaml:"promoKeywords"`
	StrongExclude       KeywordRule   `yaml:"strongExclude"`
	NicheRules          []KeywordRule `yaml:"nicheRules"`
	CoreKeywords        []string      `yaml:"coreKeywords"`
	ExemptSources       []string      `yaml:"exemptSources"`
}

// ScoringConfig declares the additive relevance tiers.
type ScoringConfig struct {
	HighPriority   []string `yaml:"highPriority"`
	MediumPriority []string `yaml:"mediumPriority"`
	HighWeight     int      `yaml:"highWeight"`
	MediumWeight   int      `yaml:"mediumWeight"`
	CoreWeight     int      `yaml:"coreWeight"`
}

// Validate runs every section validator.
func (c Config) Validate() error {
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if err := c.Quota.Validate(); err != nil {
		return err
	}
	if err := c.Gemini.Validate(); err != nil {
		return err
	}
	return c.Curation.Validate()
}

// Load reads YAML configuration (if present) and applies environment
// overrides on top of compiled-in defaults. An empty path falls back to
// the NEWS_CURATOR_CONFIG environment variable.
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = merge(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Data.Dir = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Quota.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Quota.location = loc
}

func merge(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Data.Dir != "" {
		base.Data.Dir = override.Data.Dir
	}
	if override.Data.CorpusFile != "" {
		base.Data.CorpusFile = override.Data.CorpusFile
	}
	if override.Data.StatusFile != "" {
		base.Data.StatusFile = override.Data.StatusFile
	}
	if override.Data.BlacklistFile != "" {
		base.Data.BlacklistFile = override.Data.BlacklistFile
	}
	if override.Data.CacheDB != "" {
		base.Data.CacheDB = override.Data.CacheDB
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	if override.Quota.DailyLimit > 0 {
		base.Quota.DailyLimit = override.Quota.DailyLimit
	}
	if override.Quota.reservedSet {
		base.Quota.ReservedForOthers = override.Quota.ReservedForOthers
	}
	if override.Quota.resetHourSet {
		base.Quota.ResetHour = override.Quota.ResetHour
	}
	if override.Quota.Timezone != "" {
		base.Quota.Timezone = override.Quota.Timezone
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.RequestDelay > 0 {
		base.Gemini.RequestDelay = override.Gemini.RequestDelay
	}
	if override.Gemini.BackoffBase > 0 {
		base.Gemini.BackoffBase = override.Gemini.BackoffBase
	}
	if override.Gemini.MaxAttempts > 0 {
		base.Gemini.MaxAttempts = override.Gemini.MaxAttempts
	}
	if override.Gemini.RequestTimeout > 0 {
		base.Gemini.RequestTimeout = override.Gemini.RequestTimeout
	}

	if override.Curation.MaxArticles > 0 {
		base.Curation.MaxArticles = override.Curation.MaxArticles
	}
	if override.Curation.RetentionDays > 0 {
		base.Curation.RetentionDays = override.Curation.RetentionDays
	}
	if override.Curation.MaxPerDomain > 0 {
		base.Curation.MaxPerDomain = override.Curation.MaxPerDomain
	}
	if override.Curation.MaxCategoryShare > 0 {
		base.Curation.MaxCategoryShare = override.Curation.MaxCategoryShare
	}
	if override.Curation.PerRunRetryQuota > 0 {
		base.Curation.PerRunRetryQuota = override.Curation.PerRunRetryQuota
	}
	if override.Curation.FeedEntryCap > 0 {
		base.Curation.FeedEntryCap = override.Curation.FeedEntryCap
	}
	if override.Curation.SummaryMinLen > 0 {
		base.Curation.SummaryMinLen = override.Curation.SummaryMinLen
	}
	if override.Curation.SummaryMaxLen > 0 {
		base.Curation.SummaryMaxLen = override.Curation.SummaryMaxLen
	}

	if override.Filters.Version > 0 {
		base.Filters = override.Filters
	}
	if len(override.Scoring.HighPriority) > 0 {
		base.Scoring = override.Scoring
	}

	return base
}
