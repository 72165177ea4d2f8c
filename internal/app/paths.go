package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const brochureSuffix = "_brochure.md"

// BrochureFilename derives the save file name from the company name: the
// name lowercased with spaces turned into underscores, plus "_brochure.md".
// Path separators are replaced too so the file always lands in the output
// directory.
func BrochureFilename(company string) string {
	name := cases.Lower(language.Und).String(company)
	name = strings.NewReplacer(" ", "_", "/", "_", `\`, "_").Replace(name)
	return name + brochureSuffix
}

// SaveBrochure writes text verbatim to dir/BrochureFilename(company) and
// returns the path written.
func SaveBrochure(dir, company, text string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, BrochureFilename(company))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write brochure: %w", err)
	}
	return path, nil
}

// companionPath swaps the brochure suffix of path for suffix.
func companionPath(path, suffix string) string {
	return strings.TrimSuffix(path, brochureSuffix) + suffix
}
