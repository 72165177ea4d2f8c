package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kr/text"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gobrochure/internal/brochure"
	"github.com/hyperifyio/gobrochure/internal/links"
)

const (
	promptCompany = "Enter company name: "
	promptURL     = "Enter company website URL: "
	promptStyle   = "Professional or humorous brochure? (p/h): "
	promptSave    = "\nSave to file? (y/n): "
)

// Run is the interactive session: it collects the request through p, runs
// Generate, shows the brochure on out and offers to save it. Configured
// values skip their prompt, and AssumeYes skips the save question.
func (a *App) Run(ctx context.Context, p Prompter, out io.Writer) error {
	fmt.Fprintln(out, "=== Company Brochure Generator ===")

	company, err := a.answer(p, a.cfg.CompanyName, promptCompany)
	if err != nil {
		return fmt.Errorf("read company name: %w", err)
	}
	rawURL, err := a.answer(p, a.cfg.URL, promptURL)
	if err != nil {
		return fmt.Errorf("read website URL: %w", err)
	}
	styleAnswer, err := a.answer(p, a.cfg.Style, promptStyle)
	if err != nil {
		return fmt.Errorf("read brochure style: %w", err)
	}
	req := Request{
		CompanyName: company,
		URL:         normalizeURL(rawURL),
		Style:       brochure.ParseStyle(styleAnswer),
	}
	log.Info().Str("stage", StageAwaitInput.String()).Str("company", req.CompanyName).Str("url", req.URL).Str("style", req.Style.String()).Msg("input received")

	res := a.Generate(ctx, req)

	fmt.Fprintln(out, "\nFound relevant links:")
	fmt.Fprint(out, text.Indent(formatSelection(res.Selection), "  "))
	fmt.Fprint(out, "\n=== Generated Brochure ===\n\n")
	fmt.Fprintln(out, res.Brochure)

	if !a.cfg.AssumeYes {
		reply, err := p.Ask(promptSave)
		if err != nil {
			log.Warn().Err(err).Msg("no answer to save prompt; not saving")
			return nil
		}
		if !strings.EqualFold(strings.TrimSpace(reply), "y") {
			return nil
		}
	}
	return a.save(out, company, res)
}

func (a *App) answer(p Prompter, preset, question string) (string, error) {
	if strings.TrimSpace(preset) != "" {
		return strings.TrimSpace(preset), nil
	}
	return p.Ask(question)
}

func (a *App) save(out io.Writer, company string, res Result) error {
	path, err := SaveBrochure(a.cfg.OutputDir, company, res.Brochure)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Brochure saved to %s\n", path)

	if a.cfg.WritePDF {
		pdfPath := companionPath(path, "_brochure.pdf")
		if err := writeBrochurePDF(res.Brochure, pdfPath); err != nil {
			log.Warn().Err(err).Str("path", pdfPath).Msg("pdf export failed")
		} else {
			fmt.Fprintf(out, "PDF saved to %s\n", pdfPath)
		}
	}
	if a.cfg.WriteSources {
		srcPath := companionPath(path, "_sources.md")
		if err := writeSourcesFile(srcPath, company, res.Landing, res.Content); err != nil {
			log.Warn().Err(err).Str("path", srcPath).Msg("sources report failed")
		} else {
			fmt.Fprintf(out, "Sources saved to %s\n", srcPath)
		}
	}
	return nil
}

// formatSelection renders one "type: url" line per selected link.
func formatSelection(sel links.Selection) string {
	if len(sel.Links) == 0 {
		return "(none)\n"
	}
	var b strings.Builder
	for _, l := range sel.Links {
		fmt.Fprintf(&b, "%s: %s\n", l.Type, l.URL)
	}
	return b.String()
}
