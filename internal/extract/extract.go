package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// NoTitle is the title reported for documents without a <title> element.
const NoTitle = "No title found"

// strippedSelector lists elements removed from the body before text is read.
const strippedSelector = "script, style, img, input"

// Document is the extracted view of one HTML page.
type Document struct {
	Title string
	Text  string
	// Links holds every non-empty anchor href in document order.
	Links []string
}

// FromHTML parses input and extracts the title, the visible body text and
// the outbound links. Body text is one trimmed text node per line with empty
// nodes dropped; script, style, img and input elements never contribute.
// A source without a <body> tag has no text, even though the parser would
// synthesize a body for it.
func FromHTML(input []byte) (Document, error) {
	doc, err := parse(input)
	if err != nil {
		return Document{}, err
	}
	out := Document{
		Title: titleOf(doc),
		Links: linksOf(doc),
	}
	body := doc.Find("body").First()
	if body.Length() > 0 && hasBodyTag(input) {
		body.Find(strippedSelector).Remove()
		out.Text = visibleText(body.Nodes[0])
	}
	return out, nil
}

func parse(input []byte) (*goquery.Document, error) {
	// Scripting disabled so <noscript> children are parsed as markup rather
	// than surfacing as raw text.
	root, err := html.ParseWithOptions(bytes.NewReader(input), html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// hasBodyTag reports whether the source itself contains a <body> start tag.
func hasBodyTag(input []byte) bool {
	z := html.NewTokenizer(bytes.NewReader(input))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "body" {
				return true
			}
		}
	}
}

func titleOf(doc *goquery.Document) string {
	t := doc.Find("title").First()
	if t.Length() == 0 {
		return NoTitle
	}
	return strings.TrimSpace(t.Text())
}

func linksOf(doc *goquery.Document) []string {
	links := make([]string, 0, 32)
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		if h := strings.TrimSpace(href); h != "" {
			links = append(links, h)
		}
	})
	return links
}

func visibleText(n *html.Node) string {
	lines := make([]string, 0, 64)
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			if s := strings.TrimSpace(cur.Data); s != "" {
				lines = append(lines, s)
			}
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(lines, "\n")
}

// normalizeLines trims every line of s and drops the empty ones.
func normalizeLines(s string) string {
	parts := strings.Split(s, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n")
}
