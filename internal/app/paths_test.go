package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBrochureFilename(t *testing.T) {
	cases := map[string]string{
		"Acme Corp":      "acme_corp_brochure.md",
		"HuggingFace":    "huggingface_brochure.md",
		"Big  Space Co":  "big__space_co_brochure.md",
		"Acme/../../etc": "acme_.._.._etc_brochure.md",
	}
	for in, want := range cases {
		if got := BrochureFilename(in); got != want {
			t.Errorf("BrochureFilename(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestSaveBrochure_WritesExactText(t *testing.T) {
	dir := t.TempDir()
	text := "# Acme Corp\n\nWe build rockets.\n"
	path, err := SaveBrochure(dir, "Acme Corp", text)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if path != filepath.Join(dir, "acme_corp_brochure.md") {
		t.Fatalf("unexpected path %q", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != text {
		t.Fatalf("file content %q, want %q", string(b), text)
	}
}

func TestCompanionPath(t *testing.T) {
	got := companionPath(filepath.Join("out", "acme_brochure.md"), "_sources.md")
	if got != filepath.Join("out", "acme_sources.md") {
		t.Fatalf("got %q", got)
	}
}
