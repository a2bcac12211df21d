package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
)

const (
	configDirName = ".claimcheck"
	envPrefix     = "CLAIMCHECK"
)

// setupViper registers every default key, so CLAIMCHECK_<SECTION>_<KEY>
// overrides work for all of them, plus the conventional provider variables.
func setupViper(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaultSettings() {
		v.SetDefault(key, value)
	}

	_ = v.BindEnv("llm.api_key", envPrefix+"_LLM_API_KEY")
	_ = v.BindEnv("llm.base_url", envPrefix+"_LLM_BASE_URL")
	_ = v.BindEnv("llm.http_proxy", envPrefix+"_LLM_HTTP_PROXY")
	_ = v.BindEnv("llm.https_proxy", envPrefix+"_LLM_HTTPS_PROXY")
	_ = v.BindEnv("llm.no_proxy", envPrefix+"_LLM_NO_PROXY")
	_ = v.BindEnv("search.api_key", envPrefix+"_SEARCH_API_KEY", "TAVILY_API_KEY")
	_ = v.BindEnv("cache.redis_password", envPrefix+"_CACHE_REDIS_PASSWORD")
}

// defaultSettings flattens model.DefaultConfig into dotted viper keys
func defaultSettings() map[string]interface{} {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil
	}

	flat := make(map[string]interface{})
	var walk func(prefix string, m map[string]interface{})
	walk = func(prefix string, m map[string]interface{}) {
		for k, val := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if nested, ok := val.(map[string]interface{}); ok {
				walk(key, nested)
				continue
			}
			flat[key] = val
		}
	}
	walk("", tree)
	return flat
}

// loadConfig builds the effective configuration from v
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Provider-specific variables fill in what the config leaves empty
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}

	return cfg, nil
}

// requireAPIKey fails when the configured provider needs a key and has none
func requireAPIKey(cfg *model.Config) error {
	if !llm.RequiresAPIKey(cfg.LLM.Provider) || cfg.LLM.APIKey != "" {
		return nil
	}
	envVar := "OPENAI_API_KEY"
	if p := strings.ToLower(cfg.LLM.Provider); p == "anthropic" || p == "claude" {
		envVar = "ANTHROPIC_API_KEY"
	}
	return fmt.Errorf("%s environment variable not set (required by the %s provider)", envVar, cfg.LLM.Provider)
}

// newLogger builds the process logger; it writes to stderr so stdout stays machine-readable
func newLogger(cfg model.LogConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// redacted returns a copy of cfg with secrets masked for display
func redacted(cfg *model.Config) *model.Config {
	out := *cfg
	out.LLM.APIKey = mask(cfg.LLM.APIKey)
	out.Search.APIKey = mask(cfg.Search.APIKey)
	out.Cache.RedisPassword = mask(cfg.Cache.RedisPassword)
	return &out
}

func mask(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 8:
		return "****"
	default:
		return secret[:4] + "****"
	}
}
