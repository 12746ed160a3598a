package model

import "time"

// Config holds all runtime settings. Zero values are replaced by
// DefaultConfig when loaded through the CLI.
type Config struct {
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Search       SearchConfig      `yaml:"search" mapstructure:"search"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Sources      SourcesConfig     `yaml:"sources" mapstructure:"sources"`
	Analysis     AnalysisConfig    `yaml:"analysis" mapstructure:"analysis"`
	Authority    AuthorityConfig   `yaml:"authority" mapstructure:"authority"`
	Sectors      []SectorPattern   `yaml:"sectors" mapstructure:"sectors"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
	Log          LogConfig         `yaml:"log" mapstructure:"log"`
}

// HTTPConfig configures outbound requests
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// SearchConfig configures the trusted-domain aggregator
type SearchConfig struct {
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Region     string        `yaml:"region" mapstructure:"region"`
	Domains    []string      `yaml:"domains" mapstructure:"domains"`
	MaxResults int           `yaml:"max_results" mapstructure:"max_results"`
	DelayMin   time.Duration `yaml:"delay_min" mapstructure:"delay_min"`
	DelayMax   time.Duration `yaml:"delay_max" mapstructure:"delay_max"`
	Country    string        `yaml:"country" mapstructure:"country"`
}

// CacheConfig configures the session cache. An empty Path keeps
// everything in memory.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Path    string        `yaml:"path,omitempty" mapstructure:"path"`
}

// RateLimitConfig configures per-host request pacing
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig configures batch workers
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// SourcesConfig configures the indicator API and news feeds
type SourcesConfig struct {
	WorldBankURL string       `yaml:"world_bank_url" mapstructure:"world_bank_url"`
	Country      string       `yaml:"country" mapstructure:"country"`
	Feeds        []FeedConfig `yaml:"feeds" mapstructure:"feeds"`
	Indicators   []Indicator  `yaml:"indicators" mapstructure:"indicators"`
}

// FeedConfig names an RSS feed
type FeedConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	URL  string `yaml:"url" mapstructure:"url"`
}

// AnalysisConfig holds classification thresholds
type AnalysisConfig struct {
	Tolerance       float64 `yaml:"tolerance" mapstructure:"tolerance"`
	MatchThreshold  float64 `yaml:"match_threshold" mapstructure:"match_threshold"`
	PolarityBand    float64 `yaml:"polarity_band" mapstructure:"polarity_band"`
	ProgressBand    float64 `yaml:"progress_band" mapstructure:"progress_band"`
	DefaultWeight   float64 `yaml:"default_weight" mapstructure:"default_weight"`
	SummaryMaxChars int     `yaml:"summary_max_chars" mapstructure:"summary_max_chars"`
	EvidenceLimit   int     `yaml:"evidence_limit" mapstructure:"evidence_limit"`
}

// AuthorityConfig splits the trusted domains into tiers
type AuthorityConfig struct {
	PrimaryDomains   []string `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string `yaml:"secondary_domains" mapstructure:"secondary_domains"`
}

// LLMConfig configures the optional summary provider
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"`
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"-" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout"`
	StrictEvidence bool   `yaml:"strict_evidence" mapstructure:"strict_evidence"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OutputConfig configures rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
	Color         bool `yaml:"color" mapstructure:"color"`
}

// LogConfig configures the structured logger
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// TrustedDomains is the fixed allow-list of publishers queried for evidence
var TrustedDomains = []string{
	"iea.org",
	"rbi.org.in",
	"mospi.gov.in",
	"niti.gov.in",
	"pib.gov.in",
	"un.org",
	"worldbank.org",
	"reuters.com",
	"thehindu.com",
	"economictimes.indiatimes.com",
	"livemint.com",
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Foretell/0.1 (+https://github.com/ppiankov/foretell)",
			MaxBodyBytes:  2_000_000,
			MaxRetries:    3,
			RespectRobots: true,
		},
		Search: SearchConfig{
			Endpoint:   "https://lite.duckduckgo.com/lite/",
			Region:     "in-en",
			Domains:    append([]string(nil), TrustedDomains...),
			MaxResults: 10,
			DelayMin:   1 * time.Second,
			DelayMax:   2 * time.Second,
			Country:    "India",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 1,
			BurstSize:         2,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 2,
		},
		Sources: SourcesConfig{
			WorldBankURL: "https://api.worldbank.org/v2",
			Country:      "IND",
			Feeds:        DefaultFeeds(),
			Indicators:   DefaultIndicators(),
		},
		Analysis: AnalysisConfig{
			Tolerance:       0.15,
			MatchThreshold:  0.5,
			PolarityBand:    0.2,
			ProgressBand:    10,
			DefaultWeight:   0.6,
			SummaryMaxChars: 300,
			EvidenceLimit:   5,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"iea.org", "rbi.org.in", "mospi.gov.in", "niti.gov.in",
				"pib.gov.in", "un.org", "worldbank.org",
			},
			SecondaryDomains: []string{
				"reuters.com", "thehindu.com", "economictimes.indiatimes.com", "livemint.com",
			},
		},
		Sectors: DefaultSectors(),
		LLM: LLMConfig{
			Timeout:        30,
			StrictEvidence: true,
			MaxTokens:      800,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			Color:         true,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Sector returns the named sector pattern, matched case-insensitively
func (c *Config) Sector(name string) (SectorPattern, bool) {
	return FindSector(c.Sectors, name)
}
