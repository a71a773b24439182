package core

import (
	"github.com/spf13/afero"

	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/filesystem"
	"github.com/arthur-debert/modsync/pkg/manifest"
	"github.com/arthur-debert/modsync/pkg/resolver"
	"github.com/arthur-debert/modsync/pkg/ui/display"
)

// plan fills report with what a sync would do to modsDir. With overwrite
// every file starts absent, so present ones are fetched again.
func plan(fs afero.Fs, report *display.Report, m *manifest.Manifest, modsDir string, overwrite bool) (*display.Report, error) {
	var present []string
	exists, err := afero.DirExists(fs, modsDir)
	if err != nil {
		return fail(report, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", modsDir))
	}
	if exists {
		present, err = filesystem.ListRegularFiles(fs, modsDir)
		if err != nil {
			return fail(report, errors.Wrapf(err, errors.ErrFileAccess, "cannot list %s", modsDir))
		}
	}

	p := resolver.NewPlan(m.Entries, present)
	if overwrite {
		stale := p.Remove
		p = resolver.NewPlan(m.Entries, nil)
		p.Remove = stale
	}

	report.Status = StatusPlanned
	report.Launchable = true
	for _, step := range p.Steps {
		entry := step.Entry
		switch step.Action {
		case resolver.ActionFetch:
			report.Planned = append(report.Planned, display.PlannedStep{
				File: entry.RequiredFilename(), Action: step.Action.String(), URL: entry.SourceURL(),
			})
		case resolver.ActionManual:
			report.Launchable = false
			report.Planned = append(report.Planned, display.PlannedStep{
				File: entry.RequiredFilename(), Action: step.Action.String(), URL: entry.RetrievalHint(),
			})
		}
	}
	for _, name := range p.Remove {
		report.Planned = append(report.Planned, display.PlannedStep{File: name, Action: "remove"})
	}
	return report, nil
}
