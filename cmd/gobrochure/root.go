package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/gobrochure/internal/app"
)

type rootOptions struct {
	configPath string
	envFiles   []string
	verbose    bool

	llmBase   string
	llmModel  string
	llmKey    string
	keyPrefix string

	company string
	url     string
	style   string

	timeout   time.Duration
	browser   bool
	extractor string
	robots    bool

	outputDir string
	yes       bool
	pdf       bool
	sources   bool

	cache       bool
	cacheDir    string
	cacheMaxAge time.Duration
	cacheClear  bool
	cacheStrict bool
}

// NewRootCmd creates the gobrochure command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "gobrochure",
		Short: "Generate a company brochure from its website",
		Long: `gobrochure reads a company's landing page, asks the model which linked
pages matter for a brochure, reads those too and has the model write a
professional or humorous brochure in Markdown.

Questions not answered by flags are asked interactively.

Configuration precedence: flags > environment > config file > defaults.
The config file is --config or $XDG_CONFIG_HOME/gobrochure/config.yaml.

Examples:
  # Fully interactive
  gobrochure

  # Non-interactive, saved without asking
  gobrochure --company "Acme Corp" --url https://acme.example --style h --yes

  # Local OpenAI-compatible server without sk- keys
  gobrochure --llm.base http://localhost:8081/v1 --llm.key local --llm.keyPrefix ""`,
		Version:       app.VersionString(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRoot(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Path to YAML or JSON config file")
	f.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "Dotenv files to load before reading the environment")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	f.StringVar(&opts.llmBase, "llm.base", "", "OpenAI-compatible base URL (env LLM_BASE_URL)")
	f.StringVar(&opts.llmModel, "llm.model", app.DefaultModel, "Model name (env LLM_MODEL)")
	f.StringVar(&opts.llmKey, "llm.key", "", "API key (env OPENAI_API_KEY or LLM_API_KEY)")
	f.StringVar(&opts.keyPrefix, "llm.keyPrefix", app.DefaultAPIKeyPrefix, "Required API key prefix; empty disables the check")

	f.StringVar(&opts.company, "company", "", "Company name; skips the prompt")
	f.StringVar(&opts.url, "url", "", "Company website URL; skips the prompt")
	f.StringVar(&opts.style, "style", "", "Brochure style, p (professional) or h (humorous); skips the prompt")

	f.DurationVar(&opts.timeout, "timeout", app.DefaultHTTPTimeout, "Timeout for each page fetch")
	f.BoolVar(&opts.browser, "browser", false, "Render pages in headless Chrome before extracting")
	f.StringVar(&opts.extractor, "extractor", "heuristic", "Text extractor: heuristic or readability")
	f.BoolVar(&opts.robots, "robots", false, "Skip sub-pages excluded by robots.txt and honor its crawl delay")

	f.StringVarP(&opts.outputDir, "output-dir", "o", ".", "Directory for saved brochures")
	f.BoolVarP(&opts.yes, "yes", "y", false, "Save the brochure without asking")
	f.BoolVar(&opts.pdf, "pdf", false, "Also save a PDF copy of the brochure")
	f.BoolVar(&opts.sources, "sources", false, "Also save a Markdown report of the pages used")

	f.BoolVar(&opts.cache, "cache", false, "Cache model responses on disk")
	f.StringVar(&opts.cacheDir, "cache.dir", app.DefaultCacheDir(), "Cache directory")
	f.DurationVar(&opts.cacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this at startup")
	f.BoolVar(&opts.cacheClear, "cache.clear", false, "Clear the cache at startup")
	f.BoolVar(&opts.cacheStrict, "cache.strictPerms", false, "Use 0700/0600 permissions for cache files")

	return cmd
}

func runRoot(cmd *cobra.Command, opts *rootOptions) error {
	setupLogging(cmd.ErrOrStderr(), opts.verbose)

	cfg, err := buildConfig(cmd, opts)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		setupLogging(cmd.ErrOrStderr(), true)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	return a.Run(ctx, app.NewTerminalPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), cmd.OutOrStdout())
}

// buildConfig layers defaults, the config file, the environment and the
// flags the user actually set, in that order.
func buildConfig(cmd *cobra.Command, opts *rootOptions) (app.Config, error) {
	if err := app.LoadEnvFiles(opts.envFiles...); err != nil {
		return app.Config{}, fmt.Errorf("load env files: %w", err)
	}

	cfg := app.DefaultConfig()
	path, err := app.FindConfigFile(opts.configPath)
	if err != nil {
		return app.Config{}, err
	}
	if path != "" {
		fc, err := app.LoadConfigFile(path)
		if err != nil {
			return app.Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
		app.ApplyFileConfig(&cfg, fc)
		log.Debug().Str("path", path).Msg("loaded config file")
	}
	app.ApplyEnvOverrides(&cfg)

	changed := cmd.Flags().Changed
	setString := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	setBool := func(name string, dst *bool, v bool) {
		if changed(name) {
			*dst = v
		}
	}
	setDuration := func(name string, dst *time.Duration, v time.Duration) {
		if changed(name) {
			*dst = v
		}
	}

	setBool("verbose", &cfg.Verbose, opts.verbose)
	setString("llm.base", &cfg.LLMBaseURL, opts.llmBase)
	setString("llm.model", &cfg.LLMModel, opts.llmModel)
	setString("llm.key", &cfg.LLMAPIKey, opts.llmKey)
	setString("llm.keyPrefix", &cfg.APIKeyPrefix, opts.keyPrefix)
	setString("company", &cfg.CompanyName, opts.company)
	setString("url", &cfg.URL, opts.url)
	setString("style", &cfg.Style, opts.style)
	setDuration("timeout", &cfg.HTTPTimeout, opts.timeout)
	setBool("browser", &cfg.UseBrowser, opts.browser)
	setString("extractor", &cfg.Extractor, opts.extractor)
	setBool("robots", &cfg.RespectRobots, opts.robots)
	setString("output-dir", &cfg.OutputDir, opts.outputDir)
	setBool("yes", &cfg.AssumeYes, opts.yes)
	setBool("pdf", &cfg.WritePDF, opts.pdf)
	setBool("sources", &cfg.WriteSources, opts.sources)
	setBool("cache", &cfg.CacheEnabled, opts.cache)
	setString("cache.dir", &cfg.CacheDir, opts.cacheDir)
	setDuration("cache.maxAge", &cfg.CacheMaxAge, opts.cacheMaxAge)
	setBool("cache.clear", &cfg.CacheClear, opts.cacheClear)
	setBool("cache.strictPerms", &cfg.CacheStrictPerms, opts.cacheStrict)

	return cfg, nil
}
