package model

import "time"

// Config is the complete claimcheck configuration tree
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Authority AuthorityConfig `yaml:"authority" mapstructure:"authority"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RatePerSecond  float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"` // Per client IP, 0 disables
	Burst          int      `yaml:"burst" mapstructure:"burst"`
}

// LLMConfig configures the provider used for analysis
type LLMConfig struct {
	Provider     string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model        string        `yaml:"model" mapstructure:"model"`
	APIKey       string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL      string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens    int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature  float32       `yaml:"temperature" mapstructure:"temperature"`
	StrictSchema bool          `yaml:"strict_schema" mapstructure:"strict_schema"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// AnalysisConfig bounds the accepted input
type AnalysisConfig struct {
	MaxInputChars int `yaml:"max_input_chars" mapstructure:"max_input_chars"` // 0 disables the limit
}

// SearchConfig configures web-search enrichment of claims
type SearchConfig struct {
	Enabled         bool     `yaml:"enabled" mapstructure:"enabled"`
	APIKey          string   `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL         string   `yaml:"base_url" mapstructure:"base_url"`
	MaxResults      int      `yaml:"max_results" mapstructure:"max_results"`
	Depth           string   `yaml:"depth" mapstructure:"depth"` // basic or advanced
	Workers         int      `yaml:"workers" mapstructure:"workers"`
	RatePerSecond   float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Burst           int      `yaml:"burst" mapstructure:"burst"`
	IncludeDomains  []string `yaml:"include_domains" mapstructure:"include_domains"`
	ValidateSources bool     `yaml:"validate_sources" mapstructure:"validate_sources"`
	ValidateWorkers int      `yaml:"validate_workers" mapstructure:"validate_workers"`
}

// AuthorityConfig lists the domains used to classify source authority
type AuthorityConfig struct {
	PrimaryDomains   []string `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	PathPatterns     []string `yaml:"path_patterns" mapstructure:"path_patterns"` // Regexes marking primary documents
}

// CacheConfig configures the search result cache
type CacheConfig struct {
	Backend       string        `yaml:"backend" mapstructure:"backend"` // memory, disk, layered, redis, none
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir           string        `yaml:"dir" mapstructure:"dir"`
	RedisAddr     string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int           `yaml:"redis_db" mapstructure:"redis_db"`
}

// HTTPConfig configures outbound fetches of caption files and source checks
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`

	// AllowPrivateHosts lets the HTTP API fetch captionsUrl from loopback,
	// private and link-local addresses
	AllowPrivateHosts bool `yaml:"allow_private_hosts" mapstructure:"allow_private_hosts"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// TrustedFactCheckDomains are searched first and classified as primary sources
var TrustedFactCheckDomains = []string{
	"reuters.com",
	"apnews.com",
	"factcheck.org",
	"snopes.com",
	"politifact.com",
	"bbc.com",
	"bbc.co.uk",
	"nytimes.com",
	"washingtonpost.com",
	"npr.org",
	"pbs.org",
	"theguardian.com",
	"nature.com",
	"sciencedirect.com",
	"pubmed.ncbi.nlm.nih.gov",
	"scholar.google.com",
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxBodyBytes:   1 << 20,
			RatePerSecond:  2,
			Burst:          10,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "", // Empty selects the provider default
			Timeout:     60 * time.Second,
			MaxTokens:   4000,
			Temperature: 0.1,
		},
		Analysis: AnalysisConfig{
			MaxInputChars: 50_000,
		},
		Search: SearchConfig{
			Enabled:         false,
			BaseURL:         "https://api.tavily.com",
			MaxResults:      3,
			Depth:           "basic",
			Workers:         4,
			RatePerSecond:   5,
			Burst:           5,
			IncludeDomains:  nil,
			ValidateSources: true,
			ValidateWorkers: 10,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"reuters.com", "apnews.com", "factcheck.org", "snopes.com",
				"politifact.com", "nature.com", "sciencedirect.com",
				"pubmed.ncbi.nlm.nih.gov", "scholar.google.com",
			},
			SecondaryDomains: []string{
				"bbc.com", "bbc.co.uk", "nytimes.com", "washingtonpost.com",
				"npr.org", "pbs.org", "theguardian.com", "wikipedia.org",
				"britannica.com",
			},
			PathPatterns: []string{
				`\.gov(/|$)`,
				`\.edu(/|$)`,
				`/doi/`,
			},
		},
		Cache: CacheConfig{
			Backend:   "memory",
			TTL:       24 * time.Hour,
			Dir:       ".claimcheck-cache",
			RedisAddr: "localhost:6379",
		},
		HTTP: HTTPConfig{
			Timeout:       10 * time.Second,
			UserAgent:     "claimcheck/0.1 (+https://github.com/ppiankov/claimcheck)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
