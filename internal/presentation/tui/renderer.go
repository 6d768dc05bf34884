package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// VariantsMarkdown describes the configured variants as a markdown document.
func VariantsMarkdown(variants []domain.Variant) string {
	var b strings.Builder
	b.WriteString("# Wizard variants\n")
	for _, v := range variants {
		fmt.Fprintf(&b, "\n## %s\n\n", v.Name)
		if v.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", v.Description)
		}
		surface := "page"
		if v.Dialog {
			surface = "dialog"
		}
		fmt.Fprintf(&b, "Lead type `%s`, shown as a %s, %d steps.\n\n", v.LeadType, surface, len(v.Steps))
		for i, step := range v.Steps {
			fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, step.Title, "`"+strings.Join(step.Fields, "`, `")+"`")
		}
		if len(v.Preferences) > 0 {
			labels := make([]string, len(v.Preferences))
			for i, seg := range v.Preferences {
				labels[i] = seg.Label
			}
			fmt.Fprintf(&b, "\nPreferences summary: %s\n", strings.Join(labels, " | "))
		}
	}
	return b.String()
}
