package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/weft"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Markdown renders a validation report as a markdown document.
func Markdown(name string, report weft.Report) string {
	var sb strings.Builder

	title := "Flow Report"
	if name != "" {
		title = fmt.Sprintf("Flow Report: %s", name)
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	if report.Valid {
		sb.WriteString("**Valid** ✅\n\n")
	} else {
		sb.WriteString("**Invalid** ❌\n\n")
	}

	writeSection(&sb, "Errors", report.Errors)
	writeSection(&sb, "Warnings", report.Warnings)
	writeSection(&sb, "Fixes applied", report.Fixes)

	if report.Autofixed && !report.Valid {
		sb.WriteString("> Repairs were applied, but errors remain: autofixing is best-effort.\n")
	}
	return sb.String()
}

func writeSection(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("## %s\n\n", heading))
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("- %s\n", item))
	}
	sb.WriteString("\n")
}

// Render pretty-prints markdown for the terminal. When stdout is not a
// TTY, or the terminal reports no color support, the markdown is returned
// unstyled so output stays pipe-friendly.
func Render(markdown string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return markdown
	}
	if termenv.ColorProfile() == termenv.Ascii {
		return markdown
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
