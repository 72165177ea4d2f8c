package app

import (
	"os"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables when the
// corresponding variables are set. It runs after the config file is applied
// and before flags, so env sits between the two in precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	// LLM_API_KEY wins over OPENAI_API_KEY when both are present.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	// An explicitly empty LLM_KEY_PREFIX disables the prefix check.
	if v, ok := os.LookupEnv("LLM_KEY_PREFIX"); ok {
		cfg.APIKeyPrefix = strings.TrimSpace(v)
	}

	if v := os.Getenv("BROCHURE_COMPANY"); v != "" {
		cfg.CompanyName = v
	}
	if v := os.Getenv("BROCHURE_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("BROCHURE_STYLE"); v != "" {
		cfg.Style = v
	}
	if v := os.Getenv("BROCHURE_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("EXTRACTOR"); v != "" {
		cfg.Extractor = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	setDuration := func(dst *time.Duration, envKey string) {
		if s := strings.TrimSpace(os.Getenv(envKey)); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	setDuration(&cfg.HTTPTimeout, "HTTP_TIMEOUT")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.UseBrowser, "BROWSER")
	setBool(&cfg.RespectRobots, "ROBOTS")
	setBool(&cfg.AssumeYes, "ASSUME_YES")
	setBool(&cfg.WritePDF, "BROCHURE_PDF")
	setBool(&cfg.WriteSources, "BROCHURE_SOURCES")
	setBool(&cfg.CacheEnabled, "CACHE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}
