package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type stubLink struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

const linksHeader = "Links:"

// linkKinds maps path keywords to the type label the stub reports.
var linkKinds = []struct{ keyword, label string }{
	{"about", "About page"},
	{"company", "Company page"},
	{"career", "Careers page"},
	{"jobs", "Careers page"},
	{"product", "Products page"},
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("openai-stub stopped")
	}
}

// newMux serves the two OpenAI endpoints the brochure generator touches.
// Link selection requests get a JSON pick of the offered links and brochure
// requests get a short Markdown brochure in the requested tone.
func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
		sys, user := "", ""
		if len(req.Messages) > 0 {
			sys = strings.TrimSpace(req.Messages[0].Content)
		}
		if len(req.Messages) >= 2 {
			user = req.Messages[1].Content
		}
		var content string
		switch {
		case strings.Contains(sys, "relevant to include in a brochure"):
			b, _ := json.Marshal(map[string]any{"links": pickLinks(user)})
			content = string(b)
		case strings.Contains(sys, "create funny"):
			content = "# " + companyOf(user) + ": Now With 40% More Rockets\n\nWe put the *fun* in *fundamentally rocket-powered*.\n\n## Careers\nBring snacks."
		case strings.Contains(sys, "create company brochures"):
			content = "# " + companyOf(user) + "\n\nA company committed to its customers.\n\n## Culture\nCollaborative.\n\n## Careers\nWe are hiring."
		default:
			log.Warn().Str("system", sys).Msg("unexpected system prompt")
			http.Error(w, "unexpected system", http.StatusBadRequest)
			return
		}
		log.Debug().Str("model", req.Model).Int("chars", len(content)).Msg("stub reply")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "stub",
			"object":  "chat.completion",
			"model":   model,
			"choices": []map[string]any{{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}}},
		})
	})
	return mux
}

// pickLinks keeps the links below the links header whose text names a
// brochure-worthy page. Links are returned exactly as offered.
func pickLinks(user string) []stubLink {
	out := []stubLink{}
	_, list, ok := strings.Cut(user, linksHeader)
	if !ok {
		return out
	}
	seen := make(map[string]bool)
	for _, line := range strings.Split(list, "\n") {
		l := strings.TrimSpace(line)
		if l == "" || seen[l] {
			continue
		}
		lower := strings.ToLower(l)
		for _, k := range linkKinds {
			if strings.Contains(lower, k.keyword) {
				out = append(out, stubLink{Type: k.label, URL: l})
				seen[l] = true
				break
			}
		}
	}
	return out
}

// companyOf pulls the company name out of "Create a brochure for X using".
func companyOf(user string) string {
	const prefix = "Create a brochure for "
	rest, ok := strings.CutPrefix(user, prefix)
	if !ok {
		return "Company"
	}
	name, _, _ := strings.Cut(rest, " using this content:")
	return strings.TrimSpace(name)
}
