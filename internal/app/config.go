package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Config holds runtime configuration for the application.
type Config struct {
	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	// APIKeyPrefix is the required credential prefix. Empty disables the
	// prefix check, which local OpenAI-compatible servers need.
	APIKeyPrefix string

	// Prefilled answers; a non-empty value skips its prompt.
	CompanyName string
	URL         string
	Style       string

	// Fetching
	HTTPTimeout time.Duration
	UseBrowser  bool
	Extractor   string

	// RespectRobots skips sub-pages excluded by robots.txt.
	RespectRobots bool

	// Output
	OutputDir    string
	AssumeYes    bool
	WritePDF     bool
	WriteSources bool

	// Cache
	CacheEnabled     bool
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	Verbose bool
}

const (
	DefaultModel        = "gpt-4"
	DefaultAPIKeyPrefix = "sk-"
	DefaultHTTPTimeout  = 30 * time.Second
	appDirName          = "gobrochure"
)

var (
	// ErrMissingAPIKey reports that no credential was configured.
	ErrMissingAPIKey = errors.New("no API key was found: set OPENAI_API_KEY")
	// ErrInvalidAPIKey reports a credential without the required prefix.
	ErrInvalidAPIKey = errors.New("API key does not have the expected prefix")
)

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() Config {
	return Config{
		LLMModel:     DefaultModel,
		APIKeyPrefix: DefaultAPIKeyPrefix,
		HTTPTimeout:  DefaultHTTPTimeout,
		Extractor:    "heuristic",
		OutputDir:    ".",
		CacheDir:     DefaultCacheDir(),
	}
}

// DefaultCacheDir is $XDG_CACHE_HOME/gobrochure.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, appDirName)
}

// DefaultConfigPath is $XDG_CONFIG_HOME/gobrochure/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appDirName, "config.yaml")
}

// ValidateCredential checks the API key against the configured prefix.
func ValidateCredential(cfg Config) error {
	key := strings.TrimSpace(cfg.LLMAPIKey)
	if key == "" {
		return ErrMissingAPIKey
	}
	if cfg.APIKeyPrefix != "" && !strings.HasPrefix(key, cfg.APIKeyPrefix) {
		return fmt.Errorf("%w %q", ErrInvalidAPIKey, cfg.APIKeyPrefix)
	}
	return nil
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if err := ValidateCredential(cfg); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required (or set LLM_MODEL)")
	}
	if cfg.HTTPTimeout < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Extractor)) {
	case "", "heuristic", "readability":
	default:
		return fmt.Errorf("config: unknown extractor %q (want heuristic or readability)", cfg.Extractor)
	}
	return nil
}
