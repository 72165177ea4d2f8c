package robots

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gobrochure/internal/fetch"
)

// ErrDisallowed is returned for URLs the site's robots.txt excludes.
var ErrDisallowed = errors.New("disallowed by robots.txt")

type Rules struct {
	Groups []Group
}

type Group struct {
	Agents     []string
	Allow      []string
	Disallow   []string
	CrawlDelay *time.Duration
}

// disallowAll is used when robots.txt cannot be read for reasons other than
// absence (5xx, 401/403, network failure).
var disallowAll = Rules{Groups: []Group{{Agents: []string{"*"}, Disallow: []string{"/"}}}}

// Checker answers whether a URL may be fetched. It reads robots.txt once per
// origin through Getter and remembers the rules for the lifetime of the
// Checker.
type Checker struct {
	Getter    fetch.Getter
	UserAgent string

	mu    sync.Mutex
	rules map[string]Rules
}

// Check returns nil when rawURL may be fetched, ErrDisallowed when the rules
// exclude it, or a parse error for unusable URLs.
func (c *Checker) Check(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "http") && !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("%w: %q", fetch.ErrUnsupportedScheme, rawURL)
	}
	rules := c.rulesFor(ctx, u)
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if !rules.IsAllowed(c.UserAgent, path) {
		return fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
	}
	return nil
}

// CrawlDelay returns the delay the site asks for between requests, or zero.
func (c *Checker) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return 0
	}
	if d := c.rulesFor(ctx, u).CrawlDelayFor(c.UserAgent); d != nil {
		return *d
	}
	return 0
}

func (c *Checker) rulesFor(ctx context.Context, u *url.URL) Rules {
	origin := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
	c.mu.Lock()
	if c.rules == nil {
		c.rules = make(map[string]Rules)
	}
	if r, ok := c.rules[origin]; ok {
		c.mu.Unlock()
		return r
	}
	c.mu.Unlock()

	rules := c.load(ctx, origin+"/robots.txt")
	c.mu.Lock()
	c.rules[origin] = rules
	c.mu.Unlock()
	return rules
}

func (c *Checker) load(ctx context.Context, robotsURL string) Rules {
	if c.Getter == nil {
		return Rules{}
	}
	body, _, err := c.Getter.Get(ctx, robotsURL)
	if err == nil {
		return Parse(string(body))
	}
	var se *fetch.ErrStatus
	if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 && se.Code != http.StatusUnauthorized && se.Code != http.StatusForbidden {
		log.Debug().Str("url", robotsURL).Int("status", se.Code).Msg("no robots.txt; allowing all")
		return Rules{}
	}
	log.Warn().Err(err).Str("url", robotsURL).Msg("robots.txt unavailable; treating site as disallowed")
	return disallowAll
}

// Parse reads robots.txt text into groups.
func Parse(text string) Rules {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	current := Group{}
	flush := func() {
		if len(current.Agents) == 0 && len(current.Allow) == 0 && len(current.Disallow) == 0 && current.CrawlDelay == nil {
			return
		}
		groups = append(groups, current)
		current = Group{}
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		val := strings.TrimSpace(line[colon+1:])
		switch key {
		case "user-agent", "useragent":
			if len(current.Agents) > 0 && (len(current.Allow) > 0 || len(current.Disallow) > 0 || current.CrawlDelay != nil) {
				flush()
			}
			current.Agents = append(current.Agents, strings.ToLower(val))
		case "allow":
			current.Allow = append(current.Allow, val)
		case "disallow":
			current.Disallow = append(current.Disallow, val)
		case "crawl-delay", "crawldelay":
			if val != "" {
				if d, err := time.ParseDuration(val + "s"); err == nil {
					current.CrawlDelay = &d
				}
			}
		}
	}
	flush()
	return Rules{Groups: groups}
}

// IsAllowed evaluates a path (query included) for userAgent.
//
// The most specific User-agent group wins, with "*" losing to any named
// match. Within that group the longest matching pattern decides, and Allow
// beats Disallow on a tie. No matching directive means allowed.
func (r Rules) IsAllowed(userAgent string, pathWithOptionalQuery string) bool {
	grpIdx := r.selectGroupIndex(userAgent)
	if grpIdx < 0 {
		return true
	}
	grp := r.Groups[grpIdx]

	bestScore := -1
	bestAllow := true
	evaluate := func(patterns []string, isAllow bool) {
		for _, p := range patterns {
			// empty pattern matches nothing
			if p == "" {
				continue
			}
			if patternMatches(p, pathWithOptionalQuery) {
				score := patternSpecificity(p)
				if score > bestScore || (score == bestScore && isAllow && !bestAllow) {
					bestScore = score
					bestAllow = isAllow
				}
			}
		}
	}
	evaluate(grp.Disallow, false)
	evaluate(grp.Allow, true)

	if bestScore == -1 {
		return true
	}
	return bestAllow
}

// CrawlDelayFor returns the crawl delay of the group matching userAgent.
func (r Rules) CrawlDelayFor(userAgent string) *time.Duration {
	grpIdx := r.selectGroupIndex(userAgent)
	if grpIdx < 0 {
		return nil
	}
	return r.Groups[grpIdx].CrawlDelay
}

func (r Rules) selectGroupIndex(userAgent string) int {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	bestIdx := -1
	bestScore := -1
	for i, g := range r.Groups {
		for _, a := range g.Agents {
			token := strings.ToLower(strings.TrimSpace(a))
			if token == "" {
				continue
			}
			var score int
			if token == "*" {
				score = 0
			} else if strings.Contains(ua, token) {
				score = len(token)
			} else {
				continue
			}
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
	}
	return bestIdx
}

// patternMatches supports '*' for any sequence and a trailing '$' anchor.
// Matching is anchored at the start of the path.
func patternMatches(pattern, path string) bool {
	anchorEnd := strings.HasSuffix(pattern, "$")
	p := strings.TrimSuffix(pattern, "$")
	var b strings.Builder
	b.WriteString("^")
	for _, rn := range p {
		if rn == '*' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(rn)))
	}
	if anchorEnd {
		b.WriteString("$")
	}
	return regexp.MustCompile(b.String()).MatchString(path)
}

func patternSpecificity(pattern string) int {
	p := strings.TrimSuffix(pattern, "$")
	return len(strings.ReplaceAll(p, "*", ""))
}
