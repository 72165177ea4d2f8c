package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to the dotted flag names.
type FileConfig struct {
	LLM struct {
		BaseURL   string  `yaml:"base" json:"base"`
		Model     string  `yaml:"model" json:"model"`
		APIKey    string  `yaml:"key" json:"key"`
		KeyPrefix *string `yaml:"keyPrefix" json:"keyPrefix"`
	} `yaml:"llm" json:"llm"`

	Company string `yaml:"company" json:"company"`
	URL     string `yaml:"url" json:"url"`
	Style   string `yaml:"style" json:"style"`

	Fetch struct {
		Timeout   time.Duration `yaml:"timeout" json:"timeout"`
		Browser   bool          `yaml:"browser" json:"browser"`
		Extractor string        `yaml:"extractor" json:"extractor"`
		Robots    bool          `yaml:"robots" json:"robots"`
	} `yaml:"fetch" json:"fetch"`

	Output struct {
		Dir     string `yaml:"dir" json:"dir"`
		Yes     bool   `yaml:"yes" json:"yes"`
		PDF     bool   `yaml:"pdf" json:"pdf"`
		Sources bool   `yaml:"sources" json:"sources"`
	} `yaml:"output" json:"output"`

	Cache struct {
		Enable      bool          `yaml:"enable" json:"enable"`
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// FindConfigFile returns the config file to load. An explicit path must
// exist. Without one, the XDG default is used when present, and "" means no
// file.
func FindConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}
	def := DefaultConfigPath()
	if _, err := os.Stat(def); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config file: %w", err)
	}
	return def, nil
}

// ApplyFileConfig overlays the non-zero values of fc onto cfg. It runs on top
// of DefaultConfig, before env overrides and flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setBool := func(dst *bool, v bool) {
		if v {
			*dst = true
		}
	}

	setString(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setString(&cfg.LLMModel, fc.LLM.Model)
	setString(&cfg.LLMAPIKey, fc.LLM.APIKey)
	if fc.LLM.KeyPrefix != nil {
		cfg.APIKeyPrefix = *fc.LLM.KeyPrefix
	}

	setString(&cfg.CompanyName, fc.Company)
	setString(&cfg.URL, fc.URL)
	setString(&cfg.Style, fc.Style)

	if fc.Fetch.Timeout > 0 {
		cfg.HTTPTimeout = fc.Fetch.Timeout
	}
	setBool(&cfg.UseBrowser, fc.Fetch.Browser)
	setString(&cfg.Extractor, fc.Fetch.Extractor)
	setBool(&cfg.RespectRobots, fc.Fetch.Robots)

	setString(&cfg.OutputDir, fc.Output.Dir)
	setBool(&cfg.AssumeYes, fc.Output.Yes)
	setBool(&cfg.WritePDF, fc.Output.PDF)
	setBool(&cfg.WriteSources, fc.Output.Sources)

	setBool(&cfg.CacheEnabled, fc.Cache.Enable)
	setString(&cfg.CacheDir, fc.Cache.Dir)
	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	setBool(&cfg.CacheClear, fc.Cache.Clear)
	setBool(&cfg.CacheStrictPerms, fc.Cache.StrictPerms)

	setBool(&cfg.Verbose, fc.Verbose)
}
