package app

import (
	"fmt"
	"io"
	"os"

	md "github.com/nao1215/markdown"

	"github.com/hyperifyio/gobrochure/internal/aggregate"
	"github.com/hyperifyio/gobrochure/internal/website"
)

// writeSourcesReport lists which pages fed a brochure: the landing page, each
// section that made it into the content, and each selected link that did not.
func writeSourcesReport(w io.Writer, company string, landing website.Page, content aggregate.Content) error {
	doc := md.NewMarkdown(w).
		H1(fmt.Sprintf("Sources for %s brochure", company)).
		PlainText(fmt.Sprintf("Landing page: %s (%s)", landing.URL, landing.Title))

	rows := make([][]string, 0, len(content.Sections))
	for _, s := range content.Sections {
		rows = append(rows, []string{s.Type, s.URL, s.Title})
	}
	doc.H2("Included pages").
		Table(md.TableSet{
			Header: []string{"Type", "URL", "Title"},
			Rows:   rows,
		})

	if len(content.Skipped) > 0 {
		skipped := make([][]string, 0, len(content.Skipped))
		for _, s := range content.Skipped {
			reason := ""
			if s.Err != nil {
				reason = s.Err.Error()
			}
			skipped = append(skipped, []string{s.Link.Type, s.Link.URL, reason})
		}
		doc.H2("Skipped links").
			Table(md.TableSet{
				Header: []string{"Type", "URL", "Reason"},
				Rows:   skipped,
			})
	}
	return doc.Build()
}

func writeSourcesFile(path, company string, landing website.Page, content aggregate.Content) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create sources report: %w", err)
	}
	if err := writeSourcesReport(f, company, landing, content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write sources report: %w", err)
	}
	return f.Close()
}
