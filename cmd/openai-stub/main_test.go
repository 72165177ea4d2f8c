package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newStubClient(t *testing.T) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(newMux("stub-model"))
	t.Cleanup(srv.Close)
	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func TestStub_SelectsBrochureLinks(t *testing.T) {
	c := newStubClient(t)
	resp, err := c.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model: "stub-model",
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are able to decide which of the links would be most relevant to include in a brochure about the company."},
			{Role: openai.ChatMessageRoleUser, Content: "Here are links from https://acme.example.\nSelect relevant ones for a company brochure (skip Terms, Privacy, email links).\nLinks:\n/about\n/privacy\n/careers\n/about\nmailto:hi@acme.example"},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got struct {
		Links []stubLink `json:"links"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &got); err != nil {
		t.Fatalf("stub must answer JSON: %v", err)
	}
	want := []stubLink{{Type: "About page", URL: "/about"}, {Type: "Careers page", URL: "/careers"}}
	if len(got.Links) != len(want) || got.Links[0] != want[0] || got.Links[1] != want[1] {
		t.Fatalf("links=%+v, want %+v", got.Links, want)
	}
}

func TestStub_BrochureTone(t *testing.T) {
	c := newStubClient(t)
	ask := func(system string) string {
		resp, err := c.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
			Model: "stub-model",
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: "Create a brochure for Acme Corp using this content:\nLanding page:\n..."},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return resp.Choices[0].Message.Content
	}
	pro := ask("You create company brochures from website content.")
	if !strings.HasPrefix(pro, "# Acme Corp\n") {
		t.Fatalf("professional brochure should be titled with the company, got %q", pro)
	}
	fun := ask("You create funny, entertaining company brochures.")
	if !strings.Contains(fun, "Rockets") {
		t.Fatalf("humorous brochure expected, got %q", fun)
	}
}

func TestStub_UnknownSystemRejected(t *testing.T) {
	c := newStubClient(t)
	_, err := c.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model:    "stub-model",
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: "something else"}},
	})
	if err == nil {
		t.Fatalf("expected error for unexpected system prompt")
	}
}

func TestCompanyOf(t *testing.T) {
	if got := companyOf("Create a brochure for Big Co using this content:\nx"); got != "Big Co" {
		t.Fatalf("got %q", got)
	}
	if got := companyOf("hello"); got != "Company" {
		t.Fatalf("got %q", got)
	}
}
