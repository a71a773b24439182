package display

import (
	"fmt"
	"io"
	"strings"
)

// Styler decorates text with a named style. Plain output uses NoStyle.
type Styler func(style, text string) string

// NoStyle returns text unchanged
func NoStyle(_, text string) string {
	return text
}

// statusStyle maps a report status to a style name
func statusStyle(status string) string {
	switch status {
	case "committed", "planned":
		return "Success"
	case "rolled back", "aborted", "skipped":
		return "Warning"
	default:
		return "Error"
	}
}

// Write lays out a report line by line
func Write(w io.Writer, r *Report, style Styler) error {
	var b strings.Builder

	if r.Message != "" {
		b.WriteString(r.Message + "\n\n")
	}

	header := r.Pack
	if header == "" {
		header = "mods"
	}
	fmt.Fprintf(&b, "%s %s\n", style("Header", header), style(statusStyle(r.Status), r.Status))
	if r.ManifestURL != "" {
		fmt.Fprintf(&b, "  %s %s\n", style("Muted", "from"), r.ManifestURL)
	}

	if r.Config != nil && r.Config.Updated {
		fmt.Fprintf(&b, "  %s %d files\n", style("Info", "config updated:"), r.Config.Files)
	}

	if r.DryRun {
		for _, step := range r.Planned {
			line := fmt.Sprintf("  %-14s %s", step.Action, style("FilePath", step.File))
			if step.URL != "" {
				line += " " + style("Muted", step.URL)
			}
			b.WriteString(line + "\n")
		}
		if len(r.Planned) == 0 {
			b.WriteString("  " + style("Muted", "nothing to do") + "\n")
		}
	}

	for _, name := range r.Added {
		fmt.Fprintf(&b, "  %s %s\n", style("Success", "+"), style("FilePath", name))
	}
	for _, name := range r.Removed {
		fmt.Fprintf(&b, "  %s %s\n", style("Warning", "-"), style("FilePath", name))
	}
	for _, name := range r.Kept {
		fmt.Fprintf(&b, "  %s %s %s\n", style("Info", "="), style("FilePath", name), style("Muted", "(kept from backup)"))
	}
	if !r.DryRun && r.Status == "committed" && !r.HasChanges() {
		b.WriteString("  " + style("Muted", "already up to date") + "\n")
	}

	writeItems(&b, style, "Download manually:", r.Manual)
	writeItems(&b, style, "Failed to download:", r.Skipped)

	for _, warning := range r.Warnings {
		fmt.Fprintf(&b, "%s %s\n", style("Warning", "Warning:"), warning)
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "%s %s\n", style("Error", "Error:"), r.Error)
	}

	if !r.DryRun && r.Status == "committed" {
		switch {
		case r.Launched:
			b.WriteString(style("Success", "Game launched") + "\n")
		case !r.Launchable:
			b.WriteString(style("Warning", "Not launching: some mods still have to be downloaded manually") + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeItems(b *strings.Builder, style Styler, title string, items []ManualItem) {
	if len(items) == 0 {
		return
	}
	b.WriteString(style("Bold", title) + "\n")
	for _, item := range items {
		line := fmt.Sprintf("  %s (%s)", item.Name, style("FilePath", item.File))
		if item.URL != "" {
			line += " " + style("Muted", item.URL)
		}
		b.WriteString(line + "\n")
	}
}
