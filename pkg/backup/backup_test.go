package backup_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/modsync/pkg/backup"
	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/testutil"
)

var initialMods = map[string]string{
	"a.jar":          "alpha",
	"stale.jar":      "stale",
	"sub/nested.cfg": "nested",
}

func TestBegin_CopyPolicy(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.WriteMods(initialMods)

	tx, err := backup.NewManager(env.FS, env.ModsDir, env.BackupDir, backup.PolicyCopy).Begin()
	require.NoError(t, err)
	assert.Equal(t, backup.StateBackedUp, tx.State())

	// live directory stays in place, backup is an identical copy
	assert.Equal(t, initialMods, env.ModsContents())
	assert.Equal(t, initialMods, testutil.DirContents(t, env.FS, env.BackupDir))
}

func TestBegin_OverwritePolicy(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.WriteMods(initialMods)

	tx, err := backup.NewManager(env.FS, env.ModsDir, env.BackupDir, backup.PolicyOverwrite).Begin()
	require.NoError(t, err)
	assert.Equal(t, backup.StateBackedUp, tx.State())

	assert.Empty(t, env.ModsContents())
	isDir, err := afero.DirExists(env.FS, env.ModsDir)
	require.NoError(t, err)
	assert.True(t, isDir, "an empty live directory replaces the moved one")
	assert.Equal(t, initialMods, testutil.DirContents(t, env.FS, env.BackupDir))
}

func TestBegin_PurgesStaleBackup(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.WriteMods(map[string]string{"a.jar": "alpha"})
	testutil.WriteFiles(t, env.FS, env.BackupDir, map[string]string{"old.jar": "from an earlier run"})

	_, err := backup.NewManager(env.FS, env.ModsDir, env.BackupDir, backup.PolicyCopy).Begin()
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"a.jar": "alpha"}, testutil.DirContents(t, env.FS, env.BackupDir))
}

func TestBegin_CreatesMissingLiveDir(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	require.NoError(t, env.FS.RemoveAll(env.ModsDir))

	tx, err := backup.NewManager(env.FS, env.ModsDir, env.BackupDir, backup.PolicyCopy).Begin()
	require.NoError(t, err)
	assert.Equal(t, backup.StateBackedUp, tx.State())
	assert.True(t, env.BackupExists())
}

func TestBegin_StalePurgeFailure(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	testutil.WriteFiles(t, env.FS, env.BackupDir, map[string]string{"old.jar": "x"})

	faulty := testutil.NewFaultyFS(env.FS)
	faulty.FailRemoveAll[env.BackupDir] = true

	_, err := backup.NewManager(faulty, env.ModsDir, env.BackupDir, backup.PolicyCopy).Begin()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackupCreate))
}

func TestCommit(t *testing.T) {
	for _, policy := range []backup.Policy{backup.PolicyCopy, backup.PolicyOverwrite} {
		t.Run(policy.String(), func(t *testing.T) {
			env := testutil.NewTestEnvironment(t)
			env.WriteMods(initialMods)

			tx, err := backup.NewManager(env.FS, env.ModsDir, env.BackupDir, policy).Begin()
			require.NoError(t, err)

			require.NoError(t, tx.Commit())
			assert.Equal(t, backup.StateCommitted, tx.State())
			assert.False(t, env.BackupExists(), "committed transactions leave no backup")
		})
	}
}

func TestCommit_DiscardFailure(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	faulty := testutil.NewFaultyFS(env.FS)

	tx, err := backup.NewManager(faulty, env.ModsDir, env.BackupDir, backup.PolicyCopy).Begin()
	require.NoError(t, err)

	faulty.FailRemoveAll[env.BackupDir] = true
	err = tx.Commit()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackupDiscard))
	assert.Equal(t, backup.StateCommitted, tx.State())
}

func TestRollback_RestoresByteIdentical(t *testing.T) {
	for _, policy := range []backup.Policy{backup.PolicyCopy, backup.PolicyOverwrite} {
		t.Run(policy.String(), func(t *testing.T) {
			env := testutil.NewTestEnvironment(t)
			env.WriteMods(initialMods)

			tx, err := backup.NewManager(env.FS, env.ModsDir, env.BackupDir, policy).Begin()
			require.NoError(t, err)

			// simulate a half-applied resolution
			env.WriteMods(map[string]string{"b.jar": "partial", "a.jar": "clobbered"})
			require.NoError(t, env.FS.Remove(filepath.Join(env.ModsDir, "stale.jar")))

			require.NoError(t, tx.Rollback(fmt.Errorf("download failed")))
			assert.Equal(t, backup.StateRolledBack, tx.State())
			assert.Equal(t, initialMods, env.ModsContents())
			assert.False(t, env.BackupExists(), "the backup is moved back, not copied")
		})
	}
}

func TestRollback_RenameFallsBackToCopy(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.WriteMods(initialMods)
	faulty := testutil.NewFaultyFS(env.FS)

	tx, err := backup.NewManager(faulty, env.ModsDir, env.BackupDir, backup.PolicyCopy).Begin()
	require.NoError(t, err)

	faulty.FailRename = true
	require.NoError(t, tx.Rollback(fmt.Errorf("boom")))
	assert.Equal(t, initialMods, env.ModsContents())
	assert.False(t, env.BackupExists())
}

func TestRollback_BackupLeftOverIsNotAFailure(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.WriteMods(initialMods)
	faulty := testutil.NewFaultyFS(env.FS)

	tx, err := backup.NewManager(faulty, env.ModsDir, env.BackupDir, backup.PolicyCopy).Begin()
	require.NoError(t, err)
	env.WriteMods(map[string]string{"new.jar": "new"})

	// the copy fallback restores everything but cannot delete the backup
	faulty.FailRename = true
	faulty.FailRemoveAll[env.BackupDir] = true

	require.NoError(t, tx.Rollback(fmt.Errorf("boom")))
	assert.Equal(t, backup.StateRolledBack, tx.State())
	assert.Equal(t, initialMods, env.ModsContents())
	assert.True(t, env.BackupExists())
}

func TestBegin_OverwritePartialMove(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.WriteMods(initialMods)
	faulty := testutil.NewFaultyFS(env.FS)
	faulty.FailRename = true
	faulty.FailRemoveAll[env.ModsDir] = true

	tx, err := backup.NewManager(faulty, env.ModsDir, env.BackupDir, backup.PolicyOverwrite).Begin()
	require.Error(t, err)
	assert.Nil(t, tx)
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackupCreate))
	assert.Equal(t, errors.ExitFailure, errors.ExitCode(err))

	assert.Equal(t, initialMods, env.ModsContents())
	assert.False(t, env.BackupExists())
}

func TestRecover(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.WriteMods(map[string]string{"hand.jar": "by hand", "extra.cfg": "extra", "sub/deep.jar": "deep"})

	tx, err := backup.NewManager(env.FS, env.ModsDir, env.BackupDir, backup.PolicyOverwrite).Begin()
	require.NoError(t, err)
	env.WriteMods(map[string]string{"extra.cfg": "fresh"})

	recovered, err := tx.Recover([]string{"hand.jar", "extra.cfg", "absent.jar", "sub", "../escape.jar", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"hand.jar"}, recovered)

	// present files win; the backup keeps every original
	assert.Equal(t, map[string]string{"hand.jar": "by hand", "extra.cfg": "fresh"}, env.ModsContents())
	assert.Equal(t, map[string]string{"hand.jar": "by hand", "extra.cfg": "extra", "sub/deep.jar": "deep"},
		testutil.DirContents(t, env.FS, env.BackupDir))

	// a rollback after recovery still restores the snapshot exactly
	require.NoError(t, tx.Rollback(fmt.Errorf("boom")))
	assert.Equal(t, map[string]string{"hand.jar": "by hand", "extra.cfg": "extra", "sub/deep.jar": "deep"}, env.ModsContents())
}

func TestRecover_AfterCommit(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	tx, err := backup.NewManager(env.FS, env.ModsDir, env.BackupDir, backup.PolicyOverwrite).Begin()
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	_, err = tx.Recover([]string{"hand.jar"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInternal))
}

func TestRollback_Failure(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.WriteMods(initialMods)
	faulty := testutil.NewFaultyFS(env.FS)

	tx, err := backup.NewManager(faulty, env.ModsDir, env.BackupDir, backup.PolicyCopy).Begin()
	require.NoError(t, err)

	faulty.FailRemoveAll[env.ModsDir] = true
	cause := errors.New(errors.ErrPruneFailed, "cannot remove stale.jar")

	err = tx.Rollback(cause)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRollbackFailed))
	assert.Equal(t, backup.StateRollbackFailed, tx.State())
	assert.Equal(t, cause.Error(), errors.GetErrorDetails(err)["cause"])

	// the backup is still there for manual recovery
	assert.True(t, env.BackupExists())
}

func TestTransaction_TerminalStates(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	tx, err := backup.NewManager(env.FS, env.ModsDir, env.BackupDir, backup.PolicyCopy).Begin()
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.True(t, errors.IsErrorCode(tx.Commit(), errors.ErrInternal))
	assert.True(t, errors.IsErrorCode(tx.Rollback(nil), errors.ErrInternal))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "CLEAN", backup.StateClean.String())
	assert.Equal(t, "BACKED_UP", backup.StateBackedUp.String())
	assert.Equal(t, "COMMITTED", backup.StateCommitted.String())
	assert.Equal(t, "ROLLED_BACK", backup.StateRolledBack.String())
	assert.Equal(t, "ROLLBACK_FAILED", backup.StateRollbackFailed.String())
}
