package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/modsync/pkg/config"
	"github.com/arthur-debert/modsync/pkg/core"
	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/launch"
	"github.com/arthur-debert/modsync/pkg/logging"
	"github.com/arthur-debert/modsync/pkg/prompt"
	"github.com/arthur-debert/modsync/pkg/ui"
)

type syncOptions struct {
	name        string
	instanceDir string
	packDir     string
	overwrite   bool
	noLaunch    bool
	command     string
	alwaysYes   bool
}

func newSyncCmd(global *globalOptions) *cobra.Command {
	opts := &syncOptions{}

	cmd := &cobra.Command{
		Use:     "sync <url> [dir]",
		Short:   MsgSyncShort,
		Long:    MsgSyncLong,
		Example: MsgSyncExample,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, global, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", MsgFlagName)
	cmd.Flags().StringVarP(&opts.instanceDir, "instancedir", "i", "", MsgFlagInstanceDir)
	cmd.Flags().StringVarP(&opts.packDir, "packdir", "p", "", MsgFlagPackDir)
	cmd.Flags().BoolVarP(&opts.overwrite, "overwrite", "o", false, MsgFlagOverwrite)
	cmd.Flags().BoolVarP(&opts.noLaunch, "nolaunch", "L", false, MsgFlagNoLaunch)
	cmd.Flags().StringVarP(&opts.command, "command", "c", "", MsgFlagCommand)
	cmd.Flags().BoolVarP(&opts.alwaysYes, "alwaysyes", "y", false, MsgFlagAlwaysYes)

	return cmd
}

func runSync(cmd *cobra.Command, global *globalOptions, opts *syncOptions, args []string) error {
	logger := logging.GetLogger("cli.sync")

	format, err := ui.ParseFormat(global.format)
	if err != nil {
		return err
	}
	renderer, err := ui.NewRenderer(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: global.configFile,
		Overrides:  syncOverrides(cmd, opts),
	})
	if err != nil {
		return err
	}

	launcherDir := ""
	if len(args) > 1 {
		launcherDir = args[1]
	} else {
		launcherDir, err = os.Getwd()
		if err != nil {
			return errors.Wrap(err, errors.ErrFileAccess, "failed to get current directory")
		}
	}

	var decider prompt.Decider
	if cfg.Sync.AlwaysYes {
		decider = prompt.NewAlwaysYes(cmd.ErrOrStderr())
	} else {
		decider = prompt.NewConsole(cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	runner := &launch.ExecRunner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}

	logger.Debug().Str("url", args[0]).Str("dir", launcherDir).Msg("Running sync")

	report, syncErr := core.Sync(cmd.Context(), core.SyncOptions{
		ManifestURL:  args[0],
		LauncherDir:  launcherDir,
		Name:         opts.name,
		InstancesDir: opts.instanceDir,
		PackDir:      opts.packDir,
		DryRun:       global.dryRun,
		NoLaunch:     opts.noLaunch,
		Config:       cfg,
		Decider:      decider,
		Runner:       runner,
	})

	if err := renderer.RenderReport(report); err != nil {
		return err
	}
	if syncErr != nil {
		// The report already carries the error text
		return &reportedError{err: syncErr}
	}
	return nil
}

// syncOverrides turns the flags the user actually set into config keys, so
// unset flags leave the file and environment values alone.
func syncOverrides(cmd *cobra.Command, opts *syncOptions) map[string]interface{} {
	overrides := map[string]interface{}{}
	flags := cmd.Flags()
	if flags.Changed("overwrite") {
		overrides["sync.overwrite"] = opts.overwrite
	}
	if flags.Changed("alwaysyes") {
		overrides["sync.always_yes"] = opts.alwaysYes
	}
	if flags.Changed("command") {
		overrides["launch.command"] = opts.command
	}
	return overrides
}
