package resolver

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/arthur-debert/modsync/pkg/download"
	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/filesystem"
	"github.com/arthur-debert/modsync/pkg/logging"
	"github.com/arthur-debert/modsync/pkg/manifest"
	"github.com/arthur-debert/modsync/pkg/prompt"
)

// ContinueQuestion is asked after a retryable download failure
var ContinueQuestion = prompt.Question{Message: "Continue anyway?", DefaultYes: false}

// Fetcher downloads url into dest
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// EntryResult records what happened to one entry
type EntryResult struct {
	Entry  manifest.ModEntry
	Action Action
	Err    error
}

// Outcome summarises a resolution run
type Outcome struct {
	Launchable bool
	Added      []string
	Removed    []string
	Results    []EntryResult
}

// Manual returns the entries left for manual download
func (o *Outcome) Manual() []manifest.ModEntry {
	return o.entriesWith(ActionManual)
}

// Skipped returns the entries whose download failed and was skipped
func (o *Outcome) Skipped() []manifest.ModEntry {
	return o.entriesWith(ActionFetchSkipped)
}

// MarkPresent records files put in place after resolution. Manual and
// ignore results for them become satisfied and Launchable is recomputed.
func (o *Outcome) MarkPresent(names ...string) {
	present := make(map[string]struct{}, len(names))
	for _, name := range names {
		present[name] = struct{}{}
	}

	o.Launchable = true
	for i, r := range o.Results {
		if _, ok := present[r.Entry.RequiredFilename()]; ok && (r.Action == ActionManual || r.Action == ActionIgnore) {
			o.Results[i].Action = ActionSatisfied
			continue
		}
		if r.Action == ActionManual || r.Action == ActionFetchSkipped {
			o.Launchable = false
		}
	}
}

func (o *Outcome) entriesWith(action Action) []manifest.ModEntry {
	var entries []manifest.ModEntry
	for _, r := range o.Results {
		if r.Action == action {
			entries = append(entries, r.Entry)
		}
	}
	return entries
}

// Resolver applies manifest entries to a mods directory
type Resolver struct {
	fs      afero.Fs
	dir     string
	fetcher Fetcher
	decider prompt.Decider
	logger  zerolog.Logger
}

// New creates a resolver for dir
func New(fsys afero.Fs, dir string, fetcher Fetcher, decider prompt.Decider) *Resolver {
	return &Resolver{
		fs:      fsys,
		dir:     dir,
		fetcher: fetcher,
		decider: decider,
		logger:  logging.GetLogger("resolver"),
	}
}

// Plan reads the directory once and returns what Resolve would do
func (r *Resolver) Plan(entries []manifest.ModEntry) (*Plan, error) {
	present, err := filesystem.ListRegularFiles(r.fs, r.dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot list %s", r.dir)
	}
	return NewPlan(entries, present), nil
}

// Resolve brings the directory in line with entries. A returned error is
// fatal and the caller must roll back; the partial outcome is returned with
// it for reporting.
func (r *Resolver) Resolve(ctx context.Context, entries []manifest.ModEntry) (*Outcome, error) {
	plan, err := r.Plan(entries)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Launchable: true}
	for _, step := range plan.Steps {
		result, err := r.apply(ctx, step)
		outcome.Results = append(outcome.Results, result)
		if err != nil {
			return outcome, err
		}

		switch result.Action {
		case ActionFetch:
			outcome.Added = append(outcome.Added, step.Entry.RequiredFilename())
		case ActionFetchSkipped, ActionManual:
			outcome.Launchable = false
		}
	}

	removed, err := r.prune(entries)
	outcome.Removed = removed
	if err != nil {
		return outcome, err
	}

	return outcome, nil
}

func (r *Resolver) apply(ctx context.Context, step Step) (EntryResult, error) {
	entry := step.Entry
	name := entry.RequiredFilename()
	result := EntryResult{Entry: entry, Action: step.Action}

	switch step.Action {
	case ActionSatisfied:
		r.logger.Debug().Str("file", name).Msg("Already present")

	case ActionIgnore:
		r.logger.Debug().Str("file", name).Msg("Absent but ignored")

	case ActionManual:
		r.logger.Warn().
			Str("mod", entry.Name).
			Str("file", name).
			Str("find_at", entry.RetrievalHint()).
			Msg("Manual download required")

	case ActionFetch:
		r.logger.Info().Str("file", name).Str("url", entry.SourceURL()).Msg("Downloading")

		err := r.fetcher.Fetch(ctx, entry.SourceURL(), filepath.Join(r.dir, name))
		if err == nil {
			break
		}
		result.Err = err

		if !download.IsRetryable(err) {
			r.logger.Error().Err(err).Str("file", name).Msg("Download failed")
			return result, err
		}

		r.logger.Error().Err(err).Str("file", name).Str("url", entry.SourceURL()).Msg("Error downloading")
		if !r.decider.Confirm(ContinueQuestion) {
			return result, err
		}

		r.logger.Warn().Str("file", name).Msg("You need to manually download this file to launch")
		result.Action = ActionFetchSkipped
	}

	return result, nil
}

// prune deletes every regular file whose name no entry mentions. It rescans
// the directory so files written during resolution are covered too.
func (r *Resolver) prune(entries []manifest.ModEntry) ([]string, error) {
	present, err := filesystem.ListRegularFiles(r.fs, r.dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPruneFailed, "cannot list %s", r.dir)
	}

	var removed []string
	for _, name := range staleNames(present, requiredSet(entries)) {
		r.logger.Info().Str("file", name).Msg("Removing outdated file")
		if err := r.fs.Remove(filepath.Join(r.dir, name)); err != nil {
			return removed, errors.Wrapf(err, errors.ErrPruneFailed, "cannot remove %s", name).
				WithDetail("file", name)
		}
		removed = append(removed, name)
	}
	return removed, nil
}
