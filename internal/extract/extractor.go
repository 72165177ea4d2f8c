package extract

import (
	"bytes"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog/log"
)

// Extractor converts raw HTML into a Document. Implementations should be
// deterministic and free of side effects.
type Extractor interface {
	Extract(pageURL string, input []byte) (Document, error)
}

// HeuristicExtractor keeps the whole visible body text.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(_ string, input []byte) (Document, error) {
	return FromHTML(input)
}

// ReadabilityExtractor keeps only the main article text as scored by
// go-readability. Title and links follow the same rules as FromHTML so the
// link selector sees the full navigation of the page.
type ReadabilityExtractor struct{}

func (ReadabilityExtractor) Extract(pageURL string, input []byte) (Document, error) {
	doc, err := FromHTML(input)
	if err != nil {
		return Document{}, err
	}
	u, err := url.Parse(pageURL)
	if err != nil || !hasBodyTag(input) {
		return doc, nil
	}
	article, err := readability.FromReader(bytes.NewReader(input), u)
	if err != nil {
		log.Debug().Err(err).Str("url", pageURL).Msg("readability failed; keeping full body text")
		return doc, nil
	}
	if text := normalizeLines(article.TextContent); strings.TrimSpace(text) != "" {
		doc.Text = text
	}
	return doc, nil
}

// ByName returns the extractor registered under name. Unknown names fall
// back to the heuristic extractor.
func ByName(name string) Extractor {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "readability":
		return ReadabilityExtractor{}
	default:
		return HeuristicExtractor{}
	}
}
