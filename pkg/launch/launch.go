// Package launch starts the game, or a custom command, once a sync has
// left the pack launchable.
package launch

import (
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/logging"
)

// Command is a process to start
type Command struct {
	Name string
	Args []string
	Dir  string
}

// String renders the command line for logs
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner runs a command to completion
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands as child processes
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts cmd and waits for it
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr
	return c.Run()
}

// Settings select what to launch
type Settings struct {
	// Command, when set, runs through sh -c instead of the launcher
	Command string
	// Java is the java executable
	Java string
	// LauncherJar is relative to the launcher directory
	LauncherJar string
}

// Launcher starts the configured command
type Launcher struct {
	runner   Runner
	settings Settings
	logger   zerolog.Logger
}

// New creates a launcher
func New(runner Runner, settings Settings) *Launcher {
	if settings.Java == "" {
		settings.Java = "java"
	}
	return &Launcher{
		runner:   runner,
		settings: settings,
		logger:   logging.GetLogger("launch"),
	}
}

// CommandFor returns what Launch would run for launcherDir
func (l *Launcher) CommandFor(launcherDir string) Command {
	if l.settings.Command != "" {
		return Command{Name: "sh", Args: []string{"-c", l.settings.Command}, Dir: launcherDir}
	}
	jar := filepath.Join(launcherDir, l.settings.LauncherJar)
	return Command{Name: l.settings.Java, Args: []string{"-jar", jar}, Dir: launcherDir}
}

// Launch runs the command and waits for it to exit
func (l *Launcher) Launch(ctx context.Context, launcherDir string) error {
	cmd := l.CommandFor(launcherDir)
	l.logger.Info().Str("command", cmd.String()).Msg("Launching")

	if err := l.runner.Run(ctx, cmd); err != nil {
		return errors.Wrapf(err, errors.ErrLaunch, "failed to run %s", cmd.String()).
			WithDetail("command", cmd.String())
	}
	return nil
}
