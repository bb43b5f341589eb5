package tui

import (
	"testing"

	"github.com/aretw0/weft"
	"github.com/stretchr/testify/assert"
)

func TestMarkdownValidReport(t *testing.T) {
	out := Markdown("flow.json", weft.Report{Valid: true})

	assert.Contains(t, out, "# Flow Report: flow.json")
	assert.Contains(t, out, "**Valid**")
	assert.NotContains(t, out, "## Errors")
}

func TestMarkdownInvalidReport(t *testing.T) {
	out := Markdown("", weft.Report{
		Valid:     false,
		Errors:    []string{"step \"A\" is not connected to the workflow"},
		Warnings:  []string{"flow has no trigger step"},
		Fixes:     []string{"named unnamed step \"Code\""},
		Autofixed: true,
	})

	assert.Contains(t, out, "# Flow Report\n")
	assert.Contains(t, out, "**Invalid**")
	assert.Contains(t, out, "## Errors")
	assert.Contains(t, out, "- step \"A\" is not connected to the workflow")
	assert.Contains(t, out, "## Warnings")
	assert.Contains(t, out, "## Fixes applied")
	assert.Contains(t, out, "best-effort")
}

func TestRenderFallsBackWithoutTTY(t *testing.T) {
	md := "# Heading\n\nbody\n"
	// Test processes have no TTY on stdout, so Render must pass the
	// markdown through unchanged.
	assert.Equal(t, md, Render(md))
}
