// Package syncer runs one mod synchronisation as a transaction: validate the
// manifest, snapshot the mods directory, resolve, then commit or roll back.
//
// Every run ends in exactly one Status. Validation failures abort before
// anything on disk is touched; any failure after the snapshot restores it.
// Under the overwrite policy, files the manifest names but never fetches
// (manual and ignore entries) are carried over from the snapshot before it
// is discarded.
package syncer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/modsync/pkg/backup"
	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/logging"
	"github.com/arthur-debert/modsync/pkg/manifest"
	"github.com/arthur-debert/modsync/pkg/resolver"
)

// Status is the terminal state of a run
type Status int

const (
	// StatusAborted means the run stopped before the snapshot; nothing changed
	StatusAborted Status = iota
	// StatusCommitted means the mods directory now matches the manifest
	StatusCommitted
	// StatusRolledBack means resolution failed and the snapshot was restored
	StatusRolledBack
	// StatusRollbackFailed means the snapshot could not be restored
	StatusRollbackFailed
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusAborted:
		return "aborted"
	case StatusCommitted:
		return "committed"
	case StatusRolledBack:
		return "rolled back"
	case StatusRollbackFailed:
		return "rollback failed"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of a run. Err is nil only for StatusCommitted.
// Outcome is whatever the resolver reported, possibly partial, and is nil
// when resolution never started. Warnings are problems that did not change
// the Status.
type Result struct {
	Status    Status
	Outcome   *resolver.Outcome
	Recovered []string
	Warnings  []string
	Err       error
}

// Launchable reports whether the game can be started after this run
func (r Result) Launchable() bool {
	return r.Status == StatusCommitted && r.Outcome != nil && r.Outcome.Launchable
}

// Resolver brings a directory in line with manifest entries
type Resolver interface {
	Resolve(ctx context.Context, entries []manifest.ModEntry) (*resolver.Outcome, error)
}

// Syncer drives the transaction
type Syncer struct {
	validator *manifest.Validator
	backups   *backup.Manager
	resolver  Resolver
	logger    zerolog.Logger
}

// New creates a syncer. A nil validator means manifests handed to Run were
// already validated by the caller.
func New(validator *manifest.Validator, backups *backup.Manager, res Resolver) *Syncer {
	return &Syncer{
		validator: validator,
		backups:   backups,
		resolver:  res,
		logger:    logging.GetLogger("syncer"),
	}
}

// Run synchronises the mods directory against m. localPlatform is the
// platform version of the local installation.
func (s *Syncer) Run(ctx context.Context, m *manifest.Manifest, localPlatform string) Result {
	done := logging.LogOperationStart(s.logger, "sync")
	defer done()

	if s.validator != nil {
		if err := s.validator.Validate(m, localPlatform); err != nil {
			s.logger.Error().Err(err).Msg("Manifest rejected")
			return Result{Status: StatusAborted, Err: err}
		}
	}

	tx, err := s.backups.Begin()
	if err != nil {
		s.logger.Error().Err(err).Msg("Backup failed")
		if errors.HasErrorCode(err, errors.ErrRollbackFailed) {
			return Result{Status: StatusRollbackFailed, Err: err}
		}
		return Result{Status: StatusAborted, Err: err}
	}

	outcome, resolveErr := s.resolver.Resolve(ctx, m.Entries)
	if resolveErr != nil {
		if err := tx.Rollback(resolveErr); err != nil {
			return Result{Status: StatusRollbackFailed, Outcome: outcome, Err: err}
		}
		return Result{Status: StatusRolledBack, Outcome: outcome, Err: resolveErr}
	}

	var recovered []string
	if s.backups.Policy() == backup.PolicyOverwrite {
		recovered, err = tx.Recover(keptFilenames(m.Entries))
		if err != nil {
			if rbErr := tx.Rollback(err); rbErr != nil {
				return Result{Status: StatusRollbackFailed, Outcome: outcome, Err: rbErr}
			}
			return Result{Status: StatusRolledBack, Outcome: outcome, Err: err}
		}
		outcome.MarkPresent(recovered...)
	}

	var warnings []string
	if err := tx.Commit(); err != nil {
		// the sync itself succeeded; the next run purges the leftover
		s.logger.Warn().Err(err).Msg("Sync committed but the backup was left behind")
		warnings = append(warnings, "The backup at "+s.backups.BackupDir()+
			" could not be removed: "+err.Error())
	}

	s.logger.Info().
		Int("added", len(outcome.Added)).
		Int("removed", len(outcome.Removed)).
		Bool("launchable", outcome.Launchable).
		Msg("Sync committed")

	return Result{Status: StatusCommitted, Outcome: outcome, Recovered: recovered, Warnings: warnings}
}

// keptFilenames lists the files the resolver leaves to the operator
func keptFilenames(entries []manifest.ModEntry) []string {
	var names []string
	for _, e := range entries {
		switch e.Resolution() {
		case manifest.ResolutionManual, manifest.ResolutionIgnore:
			names = append(names, e.RequiredFilename())
		}
	}
	return names
}
