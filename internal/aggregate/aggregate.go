// Package aggregate folds the landing page and the selected sub-pages into
// the single content buffer handed to the brochure composer.
package aggregate

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gobrochure/internal/links"
	"github.com/hyperifyio/gobrochure/internal/website"
)

// LandingLabel heads the landing page section. It appears exactly once.
const LandingLabel = "Landing page"

// Scraper loads one page.
type Scraper interface {
	Scrape(ctx context.Context, url string) (website.Page, error)
}

// Section records one page that made it into the buffer.
type Section struct {
	Type  string
	URL   string
	Title string
}

// Skipped records a selected link whose page was left out.
type Skipped struct {
	Link links.Link
	Err  error
}

// Content is the aggregated buffer plus what went into it.
type Content struct {
	Text     string
	Sections []Section
	Skipped  []Skipped
}

// Aggregate builds the content buffer. It starts with the landing page and
// appends one "{type}:" section per selected link, in selection order.
// Relative links are resolved against the landing page URL. A sub-page that
// fails to load is logged and omitted; the remaining links are still
// processed.
func Aggregate(ctx context.Context, s Scraper, landing website.Page, sel links.Selection) Content {
	var b strings.Builder
	b.WriteString(LandingLabel)
	b.WriteString(":\n")
	b.WriteString(landing.Contents())
	out := Content{
		Sections: []Section{{Type: LandingLabel, URL: landing.URL, Title: landing.Title}},
	}

	for _, l := range sel.Links {
		target, err := ResolveURL(landing.URL, l.URL)
		if err != nil {
			log.Warn().Err(err).Str("url", l.URL).Str("type", l.Type).Msg("unusable link; skipping")
			out.Skipped = append(out.Skipped, Skipped{Link: l, Err: err})
			continue
		}
		page, err := s.Scrape(ctx, target)
		if err != nil {
			log.Warn().Err(err).Str("url", target).Str("type", l.Type).Msg("sub-page failed; omitting")
			out.Skipped = append(out.Skipped, Skipped{Link: l, Err: err})
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(sectionLabel(l))
		b.WriteString(":\n")
		b.WriteString(page.Contents())
		out.Sections = append(out.Sections, Section{Type: sectionLabel(l), URL: target, Title: page.Title})
	}
	out.Text = b.String()
	return out
}

func sectionLabel(l links.Link) string {
	if t := strings.TrimSpace(l.Type); t != "" {
		return t
	}
	return "Page"
}

// ResolveURL resolves ref against base. Absolute references are returned as
// given, minus any fragment.
func ResolveURL(base, ref string) (string, error) {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", ref, err)
	}
	if !r.IsAbs() {
		b, err := url.Parse(strings.TrimSpace(base))
		if err != nil || !b.IsAbs() {
			return "", fmt.Errorf("cannot resolve relative link %q without an absolute base", ref)
		}
		r = b.ResolveReference(r)
	}
	r.Fragment = ""
	return r.String(), nil
}
