package core

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/afero"

	"github.com/arthur-debert/modsync/pkg/backup"
	"github.com/arthur-debert/modsync/pkg/config"
	"github.com/arthur-debert/modsync/pkg/configarchive"
	"github.com/arthur-debert/modsync/pkg/download"
	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/filesystem"
	"github.com/arthur-debert/modsync/pkg/instance"
	"github.com/arthur-debert/modsync/pkg/launch"
	"github.com/arthur-debert/modsync/pkg/logging"
	"github.com/arthur-debert/modsync/pkg/manifest"
	"github.com/arthur-debert/modsync/pkg/prompt"
	"github.com/arthur-debert/modsync/pkg/resolver"
	"github.com/arthur-debert/modsync/pkg/syncer"
	"github.com/arthur-debert/modsync/pkg/ui/display"
)

// Questions asked by the pipeline
var (
	CreateInstanceQuestion = prompt.Question{Message: "Create new one?", DefaultYes: true}
	UpdateConfigQuestion   = prompt.Question{Message: "Update and possibly overwrite config files?", DefaultYes: true}
	UpdateModsQuestion     = prompt.Question{Message: "Update and definitely overwrite mod files?", DefaultYes: true}
)

// Report statuses beyond the syncer ones
const (
	StatusSkipped = "skipped"
	StatusPlanned = "planned"
)

// SyncOptions defines the options for the Sync command.
type SyncOptions struct {
	// ManifestURL is the full URL of the server's mods.json
	ManifestURL string
	// LauncherDir is the main launcher directory
	LauncherDir string
	// Name overrides the pack name derived from the manifest host
	Name string
	// InstancesDir overrides <LauncherDir>/Instances
	InstancesDir string
	// PackDir overrides <InstancesDir>/<Name>
	PackDir string
	// DryRun reports the plan without changing anything
	DryRun bool
	// NoLaunch skips starting the game
	NoLaunch bool

	Config  config.Config
	Decider prompt.Decider

	// Optional collaborators; nil selects the real implementation
	FileSystem afero.Fs
	HTTPClient *http.Client
	Runner     launch.Runner
}

// Sync runs the whole pipeline. The returned report is never nil, even
// with an error, so the caller can always render it.
func Sync(ctx context.Context, opts SyncOptions) (*display.Report, error) {
	logger := logging.GetLogger("core.sync")
	logger.Info().
		Str("url", opts.ManifestURL).
		Str("launcherDir", opts.LauncherDir).
		Bool("dryRun", opts.DryRun).
		Msg("Starting sync")

	cfg := opts.Config
	fs := opts.FileSystem
	if fs == nil {
		fs = filesystem.NewOS()
	}

	report := &display.Report{
		ManifestURL: opts.ManifestURL,
		Status:      syncer.StatusAborted.String(),
		DryRun:      opts.DryRun,
		Timestamp:   time.Now(),
	}

	// Step 1: locate or create the instance
	layout, err := instance.Locate(instance.LocateOptions{
		ManifestURL:      opts.ManifestURL,
		Name:             opts.Name,
		LauncherDir:      opts.LauncherDir,
		InstancesDir:     opts.InstancesDir,
		PackDir:          opts.PackDir,
		InstancesDirName: cfg.Paths.InstancesDir,
	})
	if err != nil {
		return fail(report, err)
	}
	report.Pack = layout.PackName

	instances := instance.NewManager(fs, cfg.Paths.InstanceFile, cfg.Paths.VanillaInstance)
	exists, err := instances.Exists(layout)
	if err != nil {
		return fail(report, err)
	}
	if exists {
		logger.Info().Str("pack", layout.PackDir).Msg("Found installed instance")
	} else {
		if err := instances.CheckVanilla(layout); err != nil {
			return fail(report, err)
		}
		logger.Info().Str("pack", layout.PackDir).Msg("No installed instance found")

		if opts.DryRun {
			report.Status = StatusPlanned
			report.Message = "No installed instance at " + layout.PackDir +
				"; a sync would create it from " + instances.VanillaDir(layout)
			return report, nil
		}
		if !opts.Decider.Confirm(CreateInstanceQuestion) {
			return fail(report, errors.Newf(errors.ErrAborted,
				"could not find a modded Minecraft instance at %s", layout.PackDir))
		}
		if err := instances.Create(layout); err != nil {
			return fail(report, err)
		}
	}

	// Step 2: local platform version
	localPlatform, err := instances.PlatformVersion(layout)
	if err != nil {
		return fail(report, err)
	}

	// Step 3: manifest
	client := newClient(fs, opts)
	m, err := manifest.Fetch(ctx, client, opts.ManifestURL)
	if err != nil {
		return fail(report, err)
	}
	validator := manifest.NewValidator(cfg.Manifest.SupportedVersions)
	if err := validator.Validate(m, localPlatform); err != nil {
		return fail(report, err)
	}

	modsDir := cfg.ModsPath(layout.PackDir)
	if opts.DryRun {
		return plan(fs, report, m, modsDir, cfg.Sync.Overwrite)
	}

	// Step 4: config archive
	if m.ConfigArchiveURL == "" {
		logger.Debug().Msg("Manifest has no config archive")
	} else if opts.Decider.Confirm(UpdateConfigQuestion) {
		updater := configarchive.NewUpdater(fs, client, configarchive.NewZipArchiver(fs))
		count, err := updater.Update(ctx, m.ConfigArchiveURL, layout.PackDir)
		if err != nil {
			return fail(report, err)
		}
		report.Config = &display.ConfigSummary{Updated: true, Files: count}
	}

	// Step 5: mods
	launchable := true
	if opts.Decider.Confirm(UpdateModsQuestion) {
		policy := backup.PolicyCopy
		if cfg.Sync.Overwrite {
			policy = backup.PolicyOverwrite
		}
		backups := backup.NewManager(fs, modsDir, cfg.BackupPath(layout.PackDir), policy)
		res := resolver.New(fs, modsDir, client, opts.Decider)

		// m was validated above, before the config archive touched anything
		result := syncer.New(nil, backups, res).Run(ctx, m, localPlatform)
		fillOutcome(report, result)
		if result.Err != nil {
			return fail(report, result.Err)
		}
		launchable = result.Launchable()
	} else {
		logger.Info().Msg("Mod update skipped")
		report.Status = StatusSkipped
	}
	report.Launchable = launchable

	// Step 6: launch
	if opts.NoLaunch || cfg.Launch.Disabled {
		logger.Debug().Msg("Launch disabled")
		return report, nil
	}
	if !launchable {
		logger.Warn().Msg("Not launching a pack with missing mods")
		return report, nil
	}

	runner := opts.Runner
	if runner == nil {
		runner = &launch.ExecRunner{}
	}
	launcher := launch.New(runner, launch.Settings{
		Command:     cfg.Launch.Command,
		Java:        cfg.Launch.Java,
		LauncherJar: cfg.Launch.LauncherJar,
	})
	if err := launcher.Launch(ctx, layout.LauncherDir); err != nil {
		return fail(report, err)
	}
	report.Launched = true
	return report, nil
}

func newClient(fs afero.Fs, opts SyncOptions) *download.Client {
	clientOpts := []download.Option{download.WithTimeout(opts.Config.Sync.FetchTimeout)}
	if opts.Config.Sync.UserAgent != "" {
		clientOpts = append(clientOpts, download.WithUserAgent(opts.Config.Sync.UserAgent))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, download.WithHTTPClient(opts.HTTPClient))
	}
	return download.NewClient(fs, clientOpts...)
}

func fail(report *display.Report, err error) (*display.Report, error) {
	report.Error = err.Error()
	report.Launchable = false
	return report, err
}

// fillOutcome copies a syncer result into the report
func fillOutcome(report *display.Report, result syncer.Result) {
	report.Status = result.Status.String()
	report.Warnings = append(report.Warnings, result.Warnings...)
	report.Kept = result.Recovered
	if result.Outcome == nil {
		return
	}

	report.Added = result.Outcome.Added
	report.Removed = result.Outcome.Removed
	for _, entry := range result.Outcome.Manual() {
		report.Manual = append(report.Manual, display.ManualItem{
			Name: entry.Name,
			File: entry.RequiredFilename(),
			URL:  entry.RetrievalHint(),
		})
	}
	for _, entry := range result.Outcome.Skipped() {
		report.Skipped = append(report.Skipped, display.ManualItem{
			Name: entry.Name,
			File: entry.RequiredFilename(),
			URL:  entry.SourceURL(),
		})
	}
}
