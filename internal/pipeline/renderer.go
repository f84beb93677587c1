package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/openalexbot/internal/doi"
	"github.com/ppiankov/openalexbot/internal/model"
)

// stateOrder fixes the order states appear in summaries
var stateOrder = []model.State{
	model.StateCreated,
	model.StateAssembled,
	model.StateExists,
	model.StateNotFound,
	model.StateSourceMissing,
	model.StateImportable,
	model.StateAssemblingFailed,
	model.StateSubmissionFailed,
}

// Renderer writes run reports to disk
type Renderer struct {
	includeFooter bool
}

func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.RunReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes the report as a Markdown table
func (r *Renderer) RenderMarkdown(report *model.RunReport, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(report)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (r *Renderer) Markdown(report *model.RunReport) string {
	var b strings.Builder

	mode := "upload"
	if report.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(&b, "# OpenAlex import %s\n\n", report.RunID)
	if report.Input != "" {
		fmt.Fprintf(&b, "- Input: `%s`\n", report.Input)
	}
	fmt.Fprintf(&b, "- Mode: %s\n", mode)
	fmt.Fprintf(&b, "- Started: %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(&b, "- Summary: %s\n\n", Summary(report))

	b.WriteString("| DOI | State | Item | Claims | Message |\n")
	b.WriteString("|-----|-------|------|--------|---------|\n")
	for _, o := range report.Outcomes {
		item := ""
		if o.ItemID != "" {
			item = fmt.Sprintf("[%s](%s)", o.ItemID, o.URL)
		}
		fmt.Fprintf(&b, "| [%s](%s) | %s | %s | %d | %s |\n", o.DOI, doi.URL(o.DOI), o.State, item, o.Claims, escapeCell(o.Message))
	}

	var warned []model.Outcome
	for _, o := range report.Outcomes {
		if len(o.Warnings) > 0 {
			warned = append(warned, o)
		}
	}
	if len(warned) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, o := range warned {
			fmt.Fprintf(&b, "### %s\n\n", o.DOI)
			for _, w := range o.Warnings {
				fmt.Fprintf(&b, "- %s\n", w)
			}
			b.WriteString("\n")
		}
	}

	if r.includeFooter {
		b.WriteString("\n---\n_Generated by openalexbot_\n")
	}
	return b.String()
}

// Summary counts outcomes per state, e.g. "3 identifiers: 2 created, 1 exists"
func Summary(report *model.RunReport) string {
	parts := []string{}
	for _, s := range stateOrder {
		if n := report.Count(s); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	head := fmt.Sprintf("%d identifiers", len(report.Outcomes))
	if len(parts) == 0 {
		return head
	}
	return head + ": " + strings.Join(parts, ", ")
}

// FormatOutcome renders the one-line console status of an outcome
func FormatOutcome(o model.Outcome) string {
	mark := "✓"
	switch {
	case o.State.Failed():
		mark = "✗"
	case o.State == model.StateNotFound || o.State == model.StateSourceMissing:
		mark = "-"
	}
	return fmt.Sprintf("%s %s: %s", mark, o.DOI, o.Message)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
