package backup

import (
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/filesystem"
	"github.com/arthur-debert/modsync/pkg/logging"
)

// Policy selects how the snapshot is taken
type Policy int

const (
	// PolicyCopy duplicates the live directory; it stays live during resolution.
	PolicyCopy Policy = iota
	// PolicyOverwrite moves the live directory aside and starts from empty.
	PolicyOverwrite
)

// String returns the string representation of the policy
func (p Policy) String() string {
	if p == PolicyOverwrite {
		return "overwrite"
	}
	return "copy"
}

// State is the position of a transaction in its state machine
type State int

const (
	StateClean State = iota
	StateBackedUp
	StateCommitted
	StateRolledBack
	StateRollbackFailed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClean:
		return "CLEAN"
	case StateBackedUp:
		return "BACKED_UP"
	case StateCommitted:
		return "COMMITTED"
	case StateRolledBack:
		return "ROLLED_BACK"
	case StateRollbackFailed:
		return "ROLLBACK_FAILED"
	default:
		return "UNKNOWN"
	}
}

// Manager takes snapshots of a live directory into a fixed backup location
type Manager struct {
	fs        afero.Fs
	liveDir   string
	backupDir string
	policy    Policy
	logger    zerolog.Logger
}

// NewManager creates a backup manager for liveDir
func NewManager(fsys afero.Fs, liveDir, backupDir string, policy Policy) *Manager {
	return &Manager{
		fs:        fsys,
		liveDir:   liveDir,
		backupDir: backupDir,
		policy:    policy,
		logger:    logging.GetLogger("backup"),
	}
}

// LiveDir returns the directory under protection
func (m *Manager) LiveDir() string {
	return m.liveDir
}

// BackupDir returns the snapshot location
func (m *Manager) BackupDir() string {
	return m.backupDir
}

// Policy returns the snapshot policy
func (m *Manager) Policy() Policy {
	return m.policy
}

// Begin purges any stale backup and snapshots the live directory. On error
// the live directory is unchanged and no transaction exists.
func (m *Manager) Begin() (*Transaction, error) {
	done := logging.LogOperationStart(m.logger, "snapshot")
	defer done()

	if err := m.purgeStale(); err != nil {
		return nil, err
	}

	if err := m.fs.MkdirAll(m.liveDir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", m.liveDir)
	}

	switch m.policy {
	case PolicyOverwrite:
		if err := filesystem.Move(m.fs, m.liveDir, m.backupDir); err != nil {
			if errors.IsErrorCode(err, errors.ErrSourceLeftover) {
				return nil, m.undoPartialMove(err)
			}
			return nil, errors.Wrapf(err, errors.ErrBackupCreate, "cannot move %s to %s", m.liveDir, m.backupDir)
		}
		if err := m.fs.MkdirAll(m.liveDir, 0755); err != nil {
			if restoreErr := filesystem.Move(m.fs, m.backupDir, m.liveDir); restoreErr != nil {
				return nil, errors.Wrapf(restoreErr, errors.ErrRollbackFailed,
					"cannot recreate %s (%v) nor move the backup back", m.liveDir, err)
			}
			return nil, errors.Wrapf(err, errors.ErrBackupCreate, "cannot recreate %s", m.liveDir)
		}
	default:
		if err := filesystem.CopyDir(m.fs, m.liveDir, m.backupDir); err != nil {
			_ = m.fs.RemoveAll(m.backupDir)
			return nil, errors.Wrapf(err, errors.ErrBackupCreate, "cannot copy %s to %s", m.liveDir, m.backupDir)
		}
	}

	m.logger.Info().
		Str("policy", m.policy.String()).
		Str("backup", m.backupDir).
		Msg("Mods have been backed up")

	return &Transaction{manager: m, state: StateBackedUp}, nil
}

// undoPartialMove handles a move aside that copied everything but could not
// empty the live directory. The live directory may have lost some files, so
// it is refilled from the complete backup before the backup is dropped.
func (m *Manager) undoPartialMove(moveErr error) error {
	if err := filesystem.CopyDir(m.fs, m.backupDir, m.liveDir); err != nil {
		return errors.Wrapf(err, errors.ErrRollbackFailed,
			"cannot refill %s from %s after a partial move", m.liveDir, m.backupDir).
			WithDetail("backup", m.backupDir).
			WithDetail("live", m.liveDir)
	}
	if err := m.fs.RemoveAll(m.backupDir); err != nil {
		m.logger.Warn().Err(err).Str("backup", m.backupDir).Msg("Failed to discard backup")
	}
	return errors.Wrapf(moveErr, errors.ErrBackupCreate, "cannot move %s aside", m.liveDir)
}

// purgeStale removes a backup left behind by an earlier run. Such a backup
// belongs to a sync that already finished one way or the other.
func (m *Manager) purgeStale() error {
	exists, err := afero.Exists(m.fs, m.backupDir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", m.backupDir)
	}
	if !exists {
		return nil
	}

	m.logger.Info().Str("backup", m.backupDir).Msg("Removing stale backup")
	if err := m.fs.RemoveAll(m.backupDir); err != nil {
		return errors.Wrapf(err, errors.ErrBackupCreate, "cannot remove stale backup %s", m.backupDir)
	}
	return nil
}
