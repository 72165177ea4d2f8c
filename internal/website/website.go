// Package website turns a URL into a Page by fetching and extracting it.
package website

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gobrochure/internal/extract"
	"github.com/hyperifyio/gobrochure/internal/fetch"
)

// ErrorTitle is the title of the placeholder Page produced when a URL could
// not be fetched or parsed.
const ErrorTitle = "Error loading page"

// Page is the extracted view of one URL. It is never mutated after Scrape
// returns it.
type Page struct {
	URL   string
	Title string
	Text  string
	Links []string
}

// Contents renders the page the way it is fed to the model.
func (p Page) Contents() string {
	return fmt.Sprintf("Webpage Title:\n%s\nWebpage Contents:\n%s\n\n", p.Title, p.Text)
}

// errorPage is the placeholder for a URL that could not be loaded.
func errorPage(url string) Page {
	return Page{URL: url, Title: ErrorTitle, Links: []string{}}
}

// Scraper combines a fetcher and an extractor.
type Scraper struct {
	Getter    fetch.Getter
	Extractor extract.Extractor
}

// Scrape loads url. It always returns a usable Page: on any fetch or parse
// failure the Page is the error placeholder and err describes the failure,
// so callers can tell a degraded page from a loaded one without relying on
// logs.
func (s *Scraper) Scrape(ctx context.Context, url string) (Page, error) {
	if s == nil || s.Getter == nil {
		return errorPage(url), fmt.Errorf("scrape %s: scraper not configured", url)
	}
	body, _, err := s.Getter.Get(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("fetch failed")
		return errorPage(url), fmt.Errorf("scrape %s: %w", url, err)
	}
	ex := s.Extractor
	if ex == nil {
		ex = extract.HeuristicExtractor{}
	}
	doc, err := ex.Extract(url, body)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("extract failed")
		return errorPage(url), fmt.Errorf("scrape %s: %w", url, err)
	}
	log.Debug().Str("url", url).Str("title", doc.Title).Int("links", len(doc.Links)).Int("chars", len(doc.Text)).Msg("page loaded")
	return Page{URL: url, Title: doc.Title, Text: doc.Text, Links: doc.Links}, nil
}
