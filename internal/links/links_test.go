package links

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/gobrochure/internal/cache"
)

type fakeClient struct {
	content   string
	err       error
	noChoices bool
	calls     int
	lastReq   openai.ChatCompletionRequest
}

func (f *fakeClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	if f.noChoices {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.content},
		}},
	}, nil
}

var pageLinks = []string{"/about", "/careers", "https://x.com/legal/terms", "mailto:hi@x.com"}

func TestSelect_ParsesModelJSON(t *testing.T) {
	fc := &fakeClient{content: `{"links":[{"type":"About","url":"/about"},{"type":"Careers","url":"/careers"}]}`}
	s := &Selector{Client: fc, Model: "test-model"}
	sel, err := s.Select(context.Background(), "https://x.com", pageLinks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sel.Links) != 2 || sel.Links[0] != (Link{Type: "About", URL: "/about"}) || sel.Links[1].Type != "Careers" {
		t.Fatalf("unexpected selection: %+v", sel)
	}
}

func TestSelect_RequestShape(t *testing.T) {
	fc := &fakeClient{content: `{"links":[]}`}
	s := &Selector{Client: fc, Model: "test-model"}
	if _, err := s.Select(context.Background(), "https://x.com", pageLinks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := fc.lastReq
	if req.Model != "test-model" {
		t.Fatalf("model=%q", req.Model)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Fatalf("expected JSON object response format, got %+v", req.ResponseFormat)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem || req.Messages[1].Role != openai.ChatMessageRoleUser {
		t.Fatalf("expected system then user message, got %+v", req.Messages)
	}
	user := req.Messages[1].Content
	if !strings.Contains(user, "https://x.com") {
		t.Fatalf("user message should name the page URL: %q", user)
	}
	if !strings.Contains(user, strings.Join(pageLinks, "\n")) {
		t.Fatalf("user message should list links newline-joined: %q", user)
	}
	for _, w := range []string{"Terms", "Privacy", "email"} {
		if !strings.Contains(user, w) {
			t.Fatalf("user message should exclude %s links: %q", w, user)
		}
	}
}

func TestSelect_UserMessageLayout(t *testing.T) {
	fc := &fakeClient{content: `{"links":[]}`}
	s := &Selector{Client: fc, Model: "test-model"}
	if _, err := s.Select(context.Background(), "https://x.com", pageLinks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Here are links from https://x.com.\n" +
		"Select relevant ones for a company brochure (skip Terms, Privacy, email links).\n" +
		"Links:\n" +
		"/about\n/careers\nhttps://x.com/legal/terms\nmailto:hi@x.com"
	if got := fc.lastReq.Messages[1].Content; got != want {
		t.Fatalf("user message mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestSelect_NonJSONYieldsEmptyLinks(t *testing.T) {
	fc := &fakeClient{content: "Sure! Here are the links you asked for."}
	s := &Selector{Client: fc, Model: "test-model"}
	sel, err := s.Select(context.Background(), "https://x.com", pageLinks)
	if !errors.Is(err, ErrMalformedJSON) {
		t.Fatalf("expected ErrMalformedJSON, got %v", err)
	}
	b, _ := json.Marshal(sel)
	if string(b) != `{"links":[]}` {
		t.Fatalf(`expected {"links":[]}, got %s`, b)
	}
}

func TestSelect_CallErrorYieldsEmptyLinks(t *testing.T) {
	fc := &fakeClient{err: errors.New("rate limited")}
	s := &Selector{Client: fc, Model: "test-model"}
	sel, err := s.Select(context.Background(), "https://x.com", pageLinks)
	if !errors.Is(err, ErrModelCall) {
		t.Fatalf("expected ErrModelCall, got %v", err)
	}
	if sel.Links == nil || len(sel.Links) != 0 {
		t.Fatalf("expected empty non-nil links, got %+v", sel)
	}
}

func TestSelect_NoChoices(t *testing.T) {
	s := &Selector{Client: &fakeClient{noChoices: true}, Model: "test-model"}
	sel, err := s.Select(context.Background(), "https://x.com", pageLinks)
	if !errors.Is(err, ErrNoChoices) || len(sel.Links) != 0 {
		t.Fatalf("expected ErrNoChoices and empty selection, got %v %+v", err, sel)
	}
}

func TestSelect_NotConfigured(t *testing.T) {
	s := &Selector{Model: "test-model"}
	if _, err := s.Select(context.Background(), "https://x.com", pageLinks); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSelect_NoLinksSkipsModel(t *testing.T) {
	fc := &fakeClient{content: `{"links":[{"type":"About","url":"/about"}]}`}
	s := &Selector{Client: fc, Model: "test-model"}
	sel, err := s.Select(context.Background(), "https://x.com", nil)
	if err != nil || len(sel.Links) != 0 {
		t.Fatalf("expected empty selection without error, got %v %+v", err, sel)
	}
	if fc.calls != 0 {
		t.Fatalf("expected no model call, got %d", fc.calls)
	}
}

func TestSelect_UsesCache(t *testing.T) {
	fc := &fakeClient{content: `{"links":[{"type":"About","url":"/about"}]}`}
	s := &Selector{Client: fc, Model: "test-model", Cache: &cache.ResponseCache{Dir: t.TempDir()}}
	for i := 0; i < 2; i++ {
		sel, err := s.Select(context.Background(), "https://x.com", pageLinks)
		if err != nil || len(sel.Links) != 1 {
			t.Fatalf("run %d: unexpected result %v %+v", i, err, sel)
		}
	}
	if fc.calls != 1 {
		t.Fatalf("expected one model call with cache, got %d", fc.calls)
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"fenced", "```json\n{\"links\":[{\"type\":\"About\",\"url\":\"https://x.com/about\"}]}\n```", 1, false},
		{"drops empty url", `{"links":[{"type":"About","url":""},{"type":"Jobs","url":" /jobs "}]}`, 1, false},
		{"missing key", `{"pages":[]}`, 0, false},
		{"array", `[{"type":"About","url":"/about"}]`, 0, true},
		{"empty", ``, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sel, err := Parse(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tc.wantErr)
			}
			if len(sel.Links) != tc.want {
				t.Fatalf("got %d links, want %d", len(sel.Links), tc.want)
			}
		})
	}
}
