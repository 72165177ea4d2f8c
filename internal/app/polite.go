package app

import (
	"context"
	"time"

	"github.com/hyperifyio/gobrochure/internal/aggregate"
	"github.com/hyperifyio/gobrochure/internal/robots"
	"github.com/hyperifyio/gobrochure/internal/website"
)

// maxCrawlDelay caps how long a robots.txt Crawl-delay can stall a run.
const maxCrawlDelay = 10 * time.Second

// politeScraper checks robots.txt before each sub-page and spaces requests
// by the site's crawl delay.
type politeScraper struct {
	inner   aggregate.Scraper
	checker *robots.Checker
	last    time.Time
}

func (p *politeScraper) Scrape(ctx context.Context, url string) (website.Page, error) {
	if err := p.checker.Check(ctx, url); err != nil {
		return website.Page{URL: url, Title: website.ErrorTitle, Links: []string{}}, err
	}
	if d := min(p.checker.CrawlDelay(ctx, url), maxCrawlDelay); d > 0 && !p.last.IsZero() {
		if wait := time.Until(p.last.Add(d)); wait > 0 {
			select {
			case <-ctx.Done():
				return website.Page{URL: url, Title: website.ErrorTitle, Links: []string{}}, ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	page, err := p.inner.Scrape(ctx, url)
	p.last = time.Now()
	return page, err
}
