// Package links asks the model which of a page's links belong in a brochure.
package links

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/gobrochure/internal/cache"
	"github.com/hyperifyio/gobrochure/internal/llm"
)

// Link is one selected URL with its semantic category (About, Careers, ...).
type Link struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Selection is the model-curated subset of a page's links.
type Selection struct {
	Links []Link `json:"links"`
}

// Empty returns a selection with no links that still encodes as
// {"links": []}.
func Empty() Selection {
	return Selection{Links: []Link{}}
}

// Failure classes reported alongside an empty selection.
var (
	ErrNotConfigured = errors.New("link selector not configured")
	ErrModelCall     = errors.New("link selection call failed")
	ErrNoChoices     = errors.New("link selection returned no choices")
	ErrMalformedJSON = errors.New("link selection returned malformed JSON")
)

const systemMessage = `You are provided with a list of links found on a webpage.
You are able to decide which of the links would be most relevant to include in a brochure about the company,
such as links to an About page, a Company page, Careers/Jobs pages or Products pages.
Respond in JSON with a "links" array containing objects with "type" and "url", for example:
{"links": [{"type": "About page", "url": "https://full.url/goes/here/about"}, {"type": "Careers page", "url": "https://another.full.url/careers"}]}
Use full https URLs.`

// Selector calls an OpenAI-compatible endpoint in JSON mode.
type Selector struct {
	Client llm.Client
	Model  string
	Cache  *cache.ResponseCache
}

// Select asks the model to pick brochure-relevant links from links, which
// were found on pageURL. On any failure it returns an empty selection and an
// error wrapping one of the failure classes; the selection is always usable.
func (s *Selector) Select(ctx context.Context, pageURL string, links []string) (Selection, error) {
	if s == nil || s.Client == nil || strings.TrimSpace(s.Model) == "" {
		return Empty(), ErrNotConfigured
	}
	if len(links) == 0 {
		log.Debug().Str("url", pageURL).Msg("page has no links; skipping selection call")
		return Empty(), nil
	}
	user := buildUserMessage(pageURL, links)
	key := cache.KeyFrom(s.Model, systemMessage, user)
	if raw, ok, _ := s.Cache.Get(ctx, key); ok {
		if sel, err := Parse(string(raw)); err == nil {
			log.Debug().Str("stage", "links").Msg("selection served from cache")
			return sel, nil
		}
	}

	log.Debug().Str("stage", "links").Str("model", s.Model).Int("links", len(links)).Int("user_len", len(user)).Msg("selection prompt")
	resp, err := s.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return Empty(), fmt.Errorf("%w: %v", ErrModelCall, err)
	}
	content, ok := llm.FirstContent(resp)
	if !ok {
		return Empty(), ErrNoChoices
	}
	sel, err := Parse(content)
	if err != nil {
		return Empty(), err
	}
	if s.Cache != nil {
		if b, err := json.Marshal(sel); err == nil {
			_ = s.Cache.Save(ctx, key, b)
		}
	}
	return sel, nil
}

// Parse decodes a model response of the shape {"links": [{"type", "url"}]}.
// Entries without a URL are dropped. A response that is not a JSON object
// yields ErrMalformedJSON.
func Parse(content string) (Selection, error) {
	raw := stripCodeFence(strings.TrimSpace(content))
	var sel Selection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return Empty(), fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	out := Empty()
	for _, l := range sel.Links {
		l.URL = strings.TrimSpace(l.URL)
		l.Type = strings.TrimSpace(l.Type)
		if l.URL == "" {
			continue
		}
		out.Links = append(out.Links, l)
	}
	return out, nil
}

// buildUserMessage lists the page's links under a "Links:" header, one per
// line, after the page URL and the exclusion instruction.
func buildUserMessage(pageURL string, links []string) string {
	var sb strings.Builder
	sb.WriteString("Here are links from ")
	sb.WriteString(pageURL)
	sb.WriteString(".\nSelect relevant ones for a company brochure (skip Terms, Privacy, email links).\n")
	sb.WriteString("Links:\n")
	sb.WriteString(strings.Join(links, "\n"))
	return sb.String()
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
