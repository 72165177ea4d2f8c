package brochure

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/gobrochure/internal/cache"
)

type capturingClient struct {
	lastReq openai.ChatCompletionRequest
	content string
	err     error
	calls   int
}

func (c *capturingClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.calls++
	c.lastReq = req
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: c.content},
		}},
	}, nil
}

func TestCompose_ReturnsModelText(t *testing.T) {
	cc := &capturingClient{content: "# Acme Corp\nWe make everything."}
	c := &Composer{Client: cc, Model: "test-model"}
	out, err := c.Compose(context.Background(), Request{CompanyName: "Acme Corp", Content: "Landing page:\nstuff", Style: Professional})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "# Acme Corp\nWe make everything." {
		t.Fatalf("unexpected output %q", out)
	}
	if cc.lastReq.ResponseFormat != nil {
		t.Fatalf("brochure call should be free text")
	}
	user := cc.lastReq.Messages[1].Content
	if user != "Create a brochure for Acme Corp using this content:\nLanding page:\nstuff" {
		t.Fatalf("unexpected user message %q", user)
	}
}

func TestCompose_StyleSelectsSystemMessage(t *testing.T) {
	for _, style := range []Style{Professional, Humorous} {
		cc := &capturingClient{content: "ok"}
		c := &Composer{Client: cc, Model: "test-model"}
		if _, err := c.Compose(context.Background(), Request{CompanyName: "Acme", Content: "x", Style: style}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sys := cc.lastReq.Messages[0]
		if sys.Role != openai.ChatMessageRoleSystem || sys.Content != SystemMessage(style) {
			t.Fatalf("style %v: unexpected system message %+v", style, sys)
		}
	}
	if !strings.Contains(SystemMessage(Humorous), "funny") || strings.Contains(SystemMessage(Professional), "funny") {
		t.Fatalf("system messages should differ by tone")
	}
}

func TestSystemMessage_Wording(t *testing.T) {
	pro := "You create company brochures from website content.\nInclude company culture, products, and career opportunities."
	fun := "You create funny, entertaining company brochures.\nUse humor while including key information about the company."
	if got := SystemMessage(Professional); got != pro {
		t.Fatalf("professional: %q", got)
	}
	if got := SystemMessage(Humorous); got != fun {
		t.Fatalf("humorous: %q", got)
	}
}

func TestCompose_FailureTextOnError(t *testing.T) {
	for _, style := range []Style{Professional, Humorous} {
		c := &Composer{Client: &capturingClient{err: errors.New("boom")}, Model: "test-model"}
		out, err := c.Compose(context.Background(), Request{CompanyName: "Acme", Content: "x", Style: style})
		if err == nil {
			t.Fatalf("expected error to be reported")
		}
		if out != "Failed to generate brochure." {
			t.Fatalf("style %v: got %q", style, out)
		}
	}
}

func TestCompose_EmptyResponse(t *testing.T) {
	c := &Composer{Client: &capturingClient{content: "   "}, Model: "test-model"}
	out, err := c.Compose(context.Background(), Request{CompanyName: "Acme"})
	if !errors.Is(err, ErrNoContent) || out != FailureText {
		t.Fatalf("expected ErrNoContent and failure text, got %q %v", out, err)
	}
}

func TestCompose_NotConfigured(t *testing.T) {
	var c *Composer
	out, err := c.Compose(context.Background(), Request{})
	if err == nil || out != FailureText {
		t.Fatalf("expected failure text, got %q %v", out, err)
	}
}

func TestCompose_UsesCache(t *testing.T) {
	cc := &capturingClient{content: "cached brochure"}
	c := &Composer{Client: cc, Model: "test-model", Cache: &cache.ResponseCache{Dir: t.TempDir()}}
	req := Request{CompanyName: "Acme", Content: "x", Style: Humorous}
	for i := 0; i < 2; i++ {
		out, err := c.Compose(context.Background(), req)
		if err != nil || out != "cached brochure" {
			t.Fatalf("run %d: %q %v", i, out, err)
		}
	}
	if cc.calls != 1 {
		t.Fatalf("expected one model call, got %d", cc.calls)
	}
}

func TestParseStyle(t *testing.T) {
	cases := map[string]Style{"h": Humorous, " H ": Humorous, "humorous": Humorous, "p": Professional, "": Professional, "x": Professional}
	for in, want := range cases {
		if got := ParseStyle(in); got != want {
			t.Fatalf("ParseStyle(%q)=%v, want %v", in, got, want)
		}
	}
}
