package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gobrochure/internal/aggregate"
	"github.com/hyperifyio/gobrochure/internal/brochure"
	"github.com/hyperifyio/gobrochure/internal/budget"
	"github.com/hyperifyio/gobrochure/internal/cache"
	"github.com/hyperifyio/gobrochure/internal/extract"
	"github.com/hyperifyio/gobrochure/internal/fetch"
	"github.com/hyperifyio/gobrochure/internal/links"
	"github.com/hyperifyio/gobrochure/internal/llm"
	"github.com/hyperifyio/gobrochure/internal/robots"
	"github.com/hyperifyio/gobrochure/internal/website"
)

const (
	// llmTimeout bounds one model call; brochure generation is slower than a
	// page fetch.
	llmTimeout = 2 * time.Minute
	// reservedOutputTokens is kept free for the brochure itself when sizing
	// the prompt against the model context.
	reservedOutputTokens = 1024
)

// Stage names one step of a brochure run.
type Stage int

const (
	StageAwaitInput Stage = iota
	StageFetching
	StageSelectingLinks
	StageAggregating
	StageComposing
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageAwaitInput:
		return "await_input"
	case StageFetching:
		return "fetching"
	case StageSelectingLinks:
		return "selecting_links"
	case StageAggregating:
		return "aggregating"
	case StageComposing:
		return "composing"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Outcome records how a stage finished. Degraded stages still produced a
// usable value; Err says what went wrong.
type Outcome struct {
	Stage    Stage
	Degraded bool
	Err      error
}

// Request is one brochure job.
type Request struct {
	CompanyName string
	URL         string
	Style       brochure.Style
}

// Result carries the brochure and every intermediate value of a run.
type Result struct {
	// RunID tags every log line of the run.
	RunID     string
	Brochure  string
	Landing   website.Page
	Selection links.Selection
	Content   aggregate.Content
	Outcomes  []Outcome
	// PromptTokens estimates the size of the brochure prompt.
	PromptTokens int
}

// Degraded reports whether any stage fell back to a placeholder value.
func (r Result) Degraded() bool {
	for _, o := range r.Outcomes {
		if o.Degraded {
			return true
		}
	}
	return false
}

// Options injects collaborators, mainly for tests. Nil fields are built from
// Config.
type Options struct {
	Client llm.Client
	Getter fetch.Getter
}

// App runs the brochure pipeline for one configuration. Build it with New.
type App struct {
	cfg      Config
	scraper  *website.Scraper
	subPages aggregate.Scraper
	selector *links.Selector
	composer *brochure.Composer
}

// New validates cfg and wires the pipeline. A missing or malformed API key
// is fatal here, before any network work.
func New(_ context.Context, cfg Config, opts Options) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	client := opts.Client
	if client == nil {
		client = llm.NewOpenAIProvider(llm.ProviderConfig{
			APIKey:     cfg.LLMAPIKey,
			BaseURL:    cfg.LLMBaseURL,
			HTTPClient: newHTTPClient(llmTimeout),
		})
	}

	getter := opts.Getter
	if getter == nil {
		if cfg.UseBrowser {
			getter = &fetch.BrowserFetcher{Timeout: cfg.HTTPTimeout}
		} else {
			getter = &fetch.Client{
				HTTPClient:        newHTTPClient(cfg.HTTPTimeout),
				PerRequestTimeout: cfg.HTTPTimeout,
			}
		}
	}

	var rc *cache.ResponseCache
	if cfg.CacheEnabled && cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("count", n).Msg("purged stale cache entries")
			}
		}
		rc = &cache.ResponseCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	a := &App{
		cfg:      cfg,
		scraper:  &website.Scraper{Getter: getter, Extractor: extract.ByName(cfg.Extractor)},
		selector: &links.Selector{Client: client, Model: cfg.LLMModel, Cache: rc},
		composer: &brochure.Composer{Client: client, Model: cfg.LLMModel, Cache: rc},
	}
	a.subPages = a.scraper
	if cfg.RespectRobots {
		robotsGetter := opts.Getter
		if robotsGetter == nil || cfg.UseBrowser {
			robotsGetter = &fetch.Client{HTTPClient: newHTTPClient(cfg.HTTPTimeout)}
		}
		a.subPages = &politeScraper{
			inner:   a.scraper,
			checker: &robots.Checker{Getter: robotsGetter, UserAgent: fetch.DefaultUserAgent},
		}
	}
	log.Debug().Str("model", cfg.LLMModel).Str("base", cfg.LLMBaseURL).Bool("browser", cfg.UseBrowser).Bool("cache", rc != nil).Msg("app ready")
	return a, nil
}

// Generate runs Fetching through Done for req. It never fails outright: each
// stage degrades to a placeholder and the outcomes say which ones did.
func (a *App) Generate(ctx context.Context, req Request) Result {
	res := Result{RunID: uuid.NewString()}
	logger := log.With().Str("run", res.RunID).Logger()
	record := func(stage Stage, err error) {
		o := Outcome{Stage: stage, Degraded: err != nil, Err: err}
		res.Outcomes = append(res.Outcomes, o)
		ev := logger.Info()
		if err != nil {
			ev = logger.Warn().Err(err)
		}
		ev.Str("stage", stage.String()).Bool("degraded", o.Degraded).Msg("stage finished")
	}

	landing, err := a.scraper.Scrape(ctx, req.URL)
	res.Landing = landing
	record(StageFetching, err)

	sel, err := a.selector.Select(ctx, landing.URL, landing.Links)
	res.Selection = sel
	record(StageSelectingLinks, err)

	res.Content = aggregate.Aggregate(ctx, a.subPages, landing, sel)
	var aggErr error
	if len(res.Content.Skipped) > 0 {
		errs := make([]error, 0, len(res.Content.Skipped))
		for _, s := range res.Content.Skipped {
			errs = append(errs, s.Err)
		}
		aggErr = fmt.Errorf("%d of %d sub-pages skipped: %w", len(res.Content.Skipped), len(sel.Links), errors.Join(errs...))
	}
	record(StageAggregating, aggErr)

	res.PromptTokens = budget.EstimatePromptTokens(
		brochure.SystemMessage(req.Style),
		brochure.BuildUserMessage(req.CompanyName, res.Content.Text),
	)
	if budget.RemainingContextWithHeadroom(a.cfg.LLMModel, reservedOutputTokens, res.PromptTokens) == 0 {
		logger.Warn().Str("model", a.cfg.LLMModel).Int("prompt_tokens", res.PromptTokens).Int("context_tokens", budget.ModelContextTokens(a.cfg.LLMModel)).Msg("brochure prompt may not fit the model context")
	}
	text, err := a.composer.Compose(ctx, brochure.Request{
		CompanyName: req.CompanyName,
		Content:     res.Content.Text,
		Style:       req.Style,
	})
	res.Brochure = text
	record(StageComposing, err)

	res.Outcomes = append(res.Outcomes, Outcome{Stage: StageDone})
	return res
}

// normalizeURL prefixes scheme-less input with https:// so "acme.com" works
// at the prompt.
func normalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || strings.Contains(s, "://") {
		return s
	}
	return "https://" + s
}
