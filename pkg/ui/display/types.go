// Package display holds the renderable view of a sync run and the plain
// text layout shared by the text and terminal renderers.
package display

import (
	"time"
)

// Report is the top-level structure rendered after every sync command.
type Report struct {
	Pack        string `json:"pack"`
	ManifestURL string `json:"manifestUrl,omitempty"`
	// Status is "committed", "rolled back", "rollback failed", "aborted",
	// "skipped" or "planned"
	Status string `json:"status"`
	DryRun bool   `json:"dryRun"`

	Added   []string       `json:"added,omitempty"`
	Removed []string       `json:"removed,omitempty"`
	Kept    []string       `json:"kept,omitempty"`
	Manual  []ManualItem   `json:"manual,omitempty"`
	Skipped []ManualItem   `json:"skipped,omitempty"`
	Planned []PlannedStep  `json:"planned,omitempty"`
	Config  *ConfigSummary `json:"config,omitempty"`

	Launchable bool `json:"launchable"`
	Launched   bool `json:"launched"`

	// Message is an optional line shown before the details
	Message   string    `json:"message,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ManualItem is a file the operator has to place by hand
type ManualItem struct {
	Name string `json:"name"`
	File string `json:"file"`
	URL  string `json:"url,omitempty"`
}

// PlannedStep is one line of a dry-run plan
type PlannedStep struct {
	File   string `json:"file"`
	Action string `json:"action"`
	URL    string `json:"url,omitempty"`
}

// ConfigSummary describes what the config archive step did
type ConfigSummary struct {
	Updated bool `json:"updated"`
	Files   int  `json:"files"`
}

// HasChanges reports whether the run added or removed anything
func (r *Report) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Kept) > 0
}
