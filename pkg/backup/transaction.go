package backup

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/filesystem"
)

// Transaction is a snapshot that has not been committed or rolled back yet
type Transaction struct {
	manager *Manager
	state   State
}

// State returns the current transaction state
func (t *Transaction) State() State {
	return t.state
}

// Commit discards the snapshot. The transaction is COMMITTED even when the
// snapshot cannot be deleted; the next Begin purges it.
func (t *Transaction) Commit() error {
	if t.state != StateBackedUp {
		return errors.Newf(errors.ErrInternal, "cannot commit a transaction in state %s", t.state)
	}
	t.state = StateCommitted

	m := t.manager
	if err := m.fs.RemoveAll(m.backupDir); err != nil {
		m.logger.Warn().Err(err).Str("backup", m.backupDir).Msg("Failed to discard backup")
		return errors.Wrapf(err, errors.ErrBackupDiscard, "cannot remove backup %s", m.backupDir)
	}

	m.logger.Debug().Str("backup", m.backupDir).Msg("Backup discarded")
	return nil
}

// Recover copies the named files from the snapshot into the live directory
// when the live directory lacks them, and returns the names copied. Under
// PolicyOverwrite this keeps files the resolver never fetches from being
// discarded with the snapshot on Commit. The snapshot stays complete, so a
// later Rollback is unaffected.
func (t *Transaction) Recover(names []string) ([]string, error) {
	if t.state != StateBackedUp {
		return nil, errors.Newf(errors.ErrInternal, "cannot recover files in state %s", t.state)
	}

	m := t.manager
	var recovered []string
	for _, name := range names {
		if name == "" || filepath.Base(name) != name {
			continue
		}
		src := filepath.Join(m.backupDir, name)
		dst := filepath.Join(m.liveDir, name)

		if present, err := afero.Exists(m.fs, dst); err != nil || present {
			continue
		}
		info, err := m.fs.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		if err := filesystem.CopyFile(m.fs, src, dst); err != nil {
			_ = m.fs.Remove(dst)
			return recovered, errors.Wrapf(err, errors.ErrFileWrite, "cannot recover %s from the backup", name).
				WithDetail("file", name)
		}
		m.logger.Info().Str("file", name).Msg("Kept file carried over from the backup")
		recovered = append(recovered, name)
	}
	return recovered, nil
}

// Rollback replaces the live directory with the snapshot. cause is the
// failure that triggered the rollback and is recorded on a ROLLBACK_FAILED
// error.
func (t *Transaction) Rollback(cause error) error {
	if t.state != StateBackedUp {
		return errors.Newf(errors.ErrInternal, "cannot roll back a transaction in state %s", t.state)
	}

	m := t.manager
	m.logger.Warn().Err(cause).Str("live", m.liveDir).Msg("Rolling back")

	if err := m.fs.RemoveAll(m.liveDir); err != nil {
		t.state = StateRollbackFailed
		return t.rollbackFailed(err, cause, "cannot remove "+m.liveDir)
	}

	if err := filesystem.Move(m.fs, m.backupDir, m.liveDir); err != nil {
		if !errors.IsErrorCode(err, errors.ErrSourceLeftover) {
			t.state = StateRollbackFailed
			return t.rollbackFailed(err, cause, "cannot move "+m.backupDir+" back to "+m.liveDir)
		}
		// live is complete; what is left of the backup is purged next time
		m.logger.Warn().Err(err).Str("backup", m.backupDir).Msg("Backup restored but not removed")
	}

	t.state = StateRolledBack
	m.logger.Info().Str("live", m.liveDir).Msg("Backup replaced")
	return nil
}

func (t *Transaction) rollbackFailed(err, cause error, message string) error {
	m := t.manager
	m.logger.Error().Err(err).
		Str("live", m.liveDir).
		Str("backup", m.backupDir).
		Msg("Rollback failed, manual intervention required")

	wrapped := errors.Wrap(err, errors.ErrRollbackFailed, message).
		WithDetail("backup", m.backupDir).
		WithDetail("live", m.liveDir)
	if cause != nil {
		wrapped.WithDetail("cause", cause.Error())
	}
	return wrapped
}
