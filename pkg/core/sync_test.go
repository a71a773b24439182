package core_test

import (
	"archive/zip"
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/modsync/pkg/config"
	"github.com/arthur-debert/modsync/pkg/core"
	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/launch"
	"github.com/arthur-debert/modsync/pkg/manifest"
	"github.com/arthur-debert/modsync/pkg/prompt"
	"github.com/arthur-debert/modsync/pkg/testutil"
)

// MockRunner implements launch.Runner for testing
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, cmd launch.Command) error {
	args := m.Called(cmd)
	return args.Error(0)
}

// scriptedDecider answers by question text and records what was asked.
// Unscripted questions take their default.
type scriptedDecider struct {
	answers map[string]bool
	asked   []string
}

func (d *scriptedDecider) Confirm(q prompt.Question) bool {
	d.asked = append(d.asked, q.Message)
	if answer, ok := d.answers[q.Message]; ok {
		return answer
	}
	return q.DefaultYes
}

type pipeline struct {
	fs          afero.Fs
	launcherDir string
	packDir     string
	server      *testutil.ModServer
	decider     *scriptedDecider
	runner      *MockRunner
}

func newPipeline(t *testing.T, files map[string]string) *pipeline {
	t.Helper()
	launcherDir := t.TempDir()
	p := &pipeline{
		fs:          afero.NewOsFs(),
		launcherDir: launcherDir,
		packDir:     filepath.Join(launcherDir, "Instances", "Example"),
		server:      testutil.NewModServer(t, files),
		decider:     &scriptedDecider{answers: map[string]bool{}},
		runner:      &MockRunner{},
	}
	testutil.WriteFiles(t, p.fs, filepath.Join(launcherDir, "Instances", "VanillaMinecraft"), map[string]string{
		"instance.json":  `{"name":"VanillaMinecraft","minecraftVersion":"1.12.2"}`,
		"mods/forge.jar": "forge",
	})
	return p
}

func (p *pipeline) installPack(t *testing.T, mods map[string]string) {
	t.Helper()
	testutil.WriteFiles(t, p.fs, p.packDir, map[string]string{
		"instance.json": `{"name":"Example","pack":"Example","minecraftVersion":"1.12.2"}`,
	})
	testutil.WriteFiles(t, p.fs, filepath.Join(p.packDir, "mods"), mods)
}

func (p *pipeline) options() core.SyncOptions {
	return core.SyncOptions{
		ManifestURL: p.server.ManifestURL(),
		LauncherDir: p.launcherDir,
		Name:        "Example",
		Config:      config.Default(),
		Decider:     p.decider,
		FileSystem:  p.fs,
		Runner:      p.runner,
	}
}

func (p *pipeline) mods(t *testing.T) map[string]string {
	return testutil.DirContents(t, p.fs, filepath.Join(p.packDir, "mods"))
}

func (p *pipeline) publish(t *testing.T, m manifest.Manifest) {
	if m.SchemaVersion == 0 {
		m.SchemaVersion = 1
	}
	if m.PlatformVersion == "" {
		m.PlatformVersion = "1.12.2"
	}
	p.server.SetManifest(t, m)
}

func fetchEntry(server *testutil.ModServer, name string) manifest.ModEntry {
	return manifest.ModEntry{Name: name, Version: manifest.Version{Filename: name, Method: manifest.MethodFetch, URL: server.FileURL(name)}}
}

func configZip(t *testing.T, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.String()
}

func TestSync_NewInstanceFullRun(t *testing.T) {
	p := newPipeline(t, nil)
	p.server = testutil.NewModServer(t, map[string]string{
		"b.jar":      "beta",
		"config.zip": configZip(t, map[string]string{"config/server.cfg": "server"}),
	})
	p.publish(t, manifest.Manifest{
		ConfigArchiveURL: p.server.FileURL("config.zip"),
		Entries:          []manifest.ModEntry{fetchEntry(p.server, "b.jar")},
	})
	p.runner.On("Run", mock.Anything).Return(nil)

	report, err := core.Sync(context.Background(), p.options())
	require.NoError(t, err)

	assert.Equal(t, []string{
		core.CreateInstanceQuestion.Message,
		core.UpdateConfigQuestion.Message,
		core.UpdateModsQuestion.Message,
	}, p.decider.asked)

	assert.Equal(t, "Example", report.Pack)
	assert.Equal(t, "committed", report.Status)
	assert.Equal(t, []string{"b.jar"}, report.Added)
	assert.Equal(t, []string{"forge.jar"}, report.Removed)
	require.NotNil(t, report.Config)
	assert.Equal(t, 1, report.Config.Files)
	assert.True(t, report.Launchable)
	assert.True(t, report.Launched)

	assert.Equal(t, map[string]string{"b.jar": "beta"}, p.mods(t))
	contents := testutil.DirContents(t, p.fs, p.packDir)
	assert.Equal(t, "server", contents["config/server.cfg"])
	assert.Contains(t, contents["instance.json"], `"pack":"Example"`)

	p.runner.AssertCalled(t, "Run", launch.Command{
		Name: "java",
		Args: []string{"-jar", filepath.Join(p.launcherDir, "ATLauncher.jar")},
		Dir:  p.launcherDir,
	})
}

func TestSync_DeclineCreate(t *testing.T) {
	p := newPipeline(t, nil)
	p.publish(t, manifest.Manifest{})
	p.decider.answers[core.CreateInstanceQuestion.Message] = false

	report, err := core.Sync(context.Background(), p.options())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAborted))
	assert.Equal(t, errors.ExitFailure, errors.ExitCode(err))
	assert.NotEmpty(t, report.Error)

	exists, _ := afero.DirExists(p.fs, p.packDir)
	assert.False(t, exists)
}

func TestSync_NoVanilla(t *testing.T) {
	p := newPipeline(t, nil)
	require.NoError(t, p.fs.RemoveAll(filepath.Join(p.launcherDir, "Instances", "VanillaMinecraft")))
	p.publish(t, manifest.Manifest{})

	_, err := core.Sync(context.Background(), p.options())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInstanceNotFound))
	assert.Empty(t, p.decider.asked)
}

func TestSync_IncompatibleManifest(t *testing.T) {
	tests := []struct {
		name     string
		manifest manifest.Manifest
		exit     int
	}{
		{"schema", manifest.Manifest{SchemaVersion: 7}, errors.ExitIncompatibleSchema},
		{"platform", manifest.Manifest{PlatformVersion: "1.16.5"}, errors.ExitIncompatiblePlatform},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, map[string]string{"b.jar": "beta"})
			p.installPack(t, map[string]string{"old.jar": "old"})
			m := tt.manifest
			m.Entries = []manifest.ModEntry{fetchEntry(p.server, "b.jar")}
			p.publish(t, m)

			report, err := core.Sync(context.Background(), p.options())
			require.Error(t, err)
			assert.Equal(t, tt.exit, errors.ExitCode(err))
			assert.Equal(t, "aborted", report.Status)

			assert.Empty(t, p.decider.asked, "nothing is asked before validation passes")
			assert.Empty(t, p.server.Requested())
			assert.Equal(t, map[string]string{"old.jar": "old"}, p.mods(t))
			p.runner.AssertNotCalled(t, "Run", mock.Anything)
		})
	}
}

func TestSync_ManualEntryPreventsLaunch(t *testing.T) {
	p := newPipeline(t, nil)
	p.installPack(t, nil)
	p.publish(t, manifest.Manifest{Entries: []manifest.ModEntry{{
		Name:    "Restricted",
		Website: "https://mods.example.com/restricted",
		Version: manifest.Version{Filename: "restricted.jar", Method: "curse"},
	}}})

	report, err := core.Sync(context.Background(), p.options())
	require.NoError(t, err)

	assert.Equal(t, "committed", report.Status)
	assert.False(t, report.Launchable)
	assert.False(t, report.Launched)
	require.Len(t, report.Manual, 1)
	assert.Equal(t, "restricted.jar", report.Manual[0].File)
	assert.Equal(t, "https://mods.example.com/restricted", report.Manual[0].URL)
	p.runner.AssertNotCalled(t, "Run", mock.Anything)
}

func TestSync_FetchFailureDeclinedRollsBack(t *testing.T) {
	p := newPipeline(t, map[string]string{"a.jar": "alpha"})
	before := map[string]string{"x.jar": "x", "y.jar": "y"}
	p.installPack(t, before)
	p.publish(t, manifest.Manifest{Entries: []manifest.ModEntry{
		fetchEntry(p.server, "a.jar"),
		fetchEntry(p.server, "missing.jar"),
	}})

	report, err := core.Sync(context.Background(), p.options())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRemoteFetch))
	assert.Equal(t, "rolled back", report.Status)
	assert.Contains(t, p.decider.asked, "Continue anyway?")

	assert.Equal(t, before, p.mods(t))
	p.runner.AssertNotCalled(t, "Run", mock.Anything)
}

func TestSync_ModsDeclinedStillLaunches(t *testing.T) {
	p := newPipeline(t, nil)
	p.installPack(t, map[string]string{"old.jar": "old"})
	p.publish(t, manifest.Manifest{Entries: []manifest.ModEntry{fetchEntry(p.server, "b.jar")}})
	p.decider.answers[core.UpdateModsQuestion.Message] = false
	p.runner.On("Run", mock.Anything).Return(nil)

	report, err := core.Sync(context.Background(), p.options())
	require.NoError(t, err)

	assert.Equal(t, core.StatusSkipped, report.Status)
	assert.True(t, report.Launched)
	assert.Equal(t, map[string]string{"old.jar": "old"}, p.mods(t))
	assert.Empty(t, p.server.Requested())
}

func TestSync_NoLaunchAndCustomCommand(t *testing.T) {
	t.Run("no launch", func(t *testing.T) {
		p := newPipeline(t, nil)
		p.installPack(t, nil)
		p.publish(t, manifest.Manifest{})

		opts := p.options()
		opts.NoLaunch = true
		report, err := core.Sync(context.Background(), opts)
		require.NoError(t, err)
		assert.True(t, report.Launchable)
		assert.False(t, report.Launched)
		p.runner.AssertNotCalled(t, "Run", mock.Anything)
	})

	t.Run("custom command", func(t *testing.T) {
		p := newPipeline(t, nil)
		p.installPack(t, nil)
		p.publish(t, manifest.Manifest{})
		p.runner.On("Run", mock.Anything).Return(nil)

		opts := p.options()
		opts.Config.Launch.Command = "nohup ./server.sh &"
		_, err := core.Sync(context.Background(), opts)
		require.NoError(t, err)
		p.runner.AssertCalled(t, "Run", launch.Command{
			Name: "sh",
			Args: []string{"-c", "nohup ./server.sh &"},
			Dir:  p.launcherDir,
		})
	})
}

func TestSync_DryRun(t *testing.T) {
	p := newPipeline(t, map[string]string{"b.jar": "beta"})
	p.installPack(t, map[string]string{"a.jar": "alpha", "stale.jar": "stale"})
	p.publish(t, manifest.Manifest{Entries: []manifest.ModEntry{
		fetchEntry(p.server, "a.jar"),
		fetchEntry(p.server, "b.jar"),
	}})

	opts := p.options()
	opts.DryRun = true
	report, err := core.Sync(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, core.StatusPlanned, report.Status)
	assert.True(t, report.DryRun)
	require.Len(t, report.Planned, 2)
	assert.Equal(t, "b.jar", report.Planned[0].File)
	assert.Equal(t, "fetch", report.Planned[0].Action)
	assert.Equal(t, "stale.jar", report.Planned[1].File)
	assert.Equal(t, "remove", report.Planned[1].Action)

	assert.Empty(t, p.decider.asked)
	assert.Empty(t, p.server.Requested())
	assert.Equal(t, map[string]string{"a.jar": "alpha", "stale.jar": "stale"}, p.mods(t))
	p.runner.AssertNotCalled(t, "Run", mock.Anything)
}

func TestSync_DryRunMissingInstance(t *testing.T) {
	p := newPipeline(t, nil)
	p.publish(t, manifest.Manifest{})

	opts := p.options()
	opts.DryRun = true
	report, err := core.Sync(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, core.StatusPlanned, report.Status)
	assert.Contains(t, report.Message, "VanillaMinecraft")
	exists, _ := afero.DirExists(p.fs, p.packDir)
	assert.False(t, exists)
}

func TestSync_BackupLeftBehindIsReported(t *testing.T) {
	p := newPipeline(t, map[string]string{"b.jar": "beta"})
	p.installPack(t, map[string]string{"a.jar": "alpha"})
	p.publish(t, manifest.Manifest{Entries: []manifest.ModEntry{fetchEntry(p.server, "b.jar")}})

	backupDir := filepath.Join(p.packDir, "mods_unsynced")
	faulty := testutil.NewFaultyFS(p.fs)
	faulty.FailRemoveAll[backupDir] = true

	opts := p.options()
	opts.FileSystem = faulty
	opts.NoLaunch = true

	report, err := core.Sync(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "committed", report.Status)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], backupDir)
	assert.Equal(t, map[string]string{"b.jar": "beta"}, p.mods(t))
}
