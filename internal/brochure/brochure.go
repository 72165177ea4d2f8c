// Package brochure asks the model to write the brochure from aggregated
// website content.
package brochure

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

// FailureText is returned in place of a brochure when the model call fails.
const FailureText = "Failed to generate brochure."

// Style selects the tone of the brochure.
type Style int

const (
	Professional Style = iota
	Humorous
)

func (s Style) String() string {
	if s == Humorous {
		return "humorous"
	}
	return "professional"
}

// ParseStyle maps the interactive single-character answer to a Style: "h"
// (any case, surrounding space ignored) is humorous, anything else is
// professional. The full words are accepted too.
func ParseStyle(answer string) Style {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "h", "humorous", "humourous", "funny":
		return Humorous
	default:
		return Professional
	}
}

const (
	professionalSystem = "You create company brochures from website content.\nInclude company culture, products, and career opportunities."
	humorousSystem     = "You create funny, entertaining company brochures.\nUse humor while including key information about the company."
)

// SystemMessage returns the instruction used for style.
func SystemMessage(style Style) string {
	if style == Humorous {
		return humorousSystem
	}
	return professionalSystem
}

// Request carries everything the composer needs.
type Request struct {
	CompanyName string
	Content     string
	Style       Style
}

// ErrNoContent indicates the model answered without usable text.
var ErrNoContent = errors.New("model returned no brochure text")

// Composer calls the model once per brochure.
type Composer struct {
	Client llm.Client
	Model  string
	Cache  *cache.ResponseCache
}

// Compose returns the model's brochure text. On any failure it returns
// FailureText together with the error, never an empty string.
func (c *Composer) Compose(ctx context.Context, req Request) (string, error) {
	if c == nil || c.Client == nil || strings.TrimSpace(c.Model) == "" {
		return FailureText, errors.New("composer not configured")
	}
	system := SystemMessage(req.Style)
	user := BuildUserMessage(req.CompanyName, req.Content)
	key := cache.KeyFrom(c.Model, system, user)
	if raw, ok, _ := c.Cache.Get(ctx, key); ok {
		var out struct {
			Markdown string `json:"markdown"`
		}
		if err := json.Unmarshal(raw, &out); err == nil && strings.TrimSpace(out.Markdown) != "" {
			log.Debug().Str("stage", "compose").Msg("brochure served from cache")
			return out.Markdown, nil
		}
	}

	log.Debug().Str("stage", "compose").Str("model", c.Model).Str("style", req.Style.String()).Int("user_len", len(user)).Msg("brochure prompt")
	resp, err := c.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return FailureText, fmt.Errorf("brochure call: %w", err)
	}
	out, ok := llm.FirstContent(resp)
	if !ok || out == "" {
		return FailureText, ErrNoContent
	}
	if c.Cache != nil {
		payload, _ := json.Marshal(map[string]string{"markdown": out})
		_ = c.Cache.Save(ctx, key, payload)
	}
	return out, nil
}

// BuildUserMessage embeds the company name and the aggregated content.
func BuildUserMessage(companyName, content string) string {
	return fmt.Sprintf("Create a brochure for %s using this content:\n%s", companyName, content)
}
