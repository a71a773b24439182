// Package backup implements the snapshot and rollback side of a sync
// transaction.
//
// A Transaction moves through
//
//	CLEAN -> BACKED_UP -> {COMMITTED, ROLLED_BACK}
//
// Manager.Begin performs CLEAN -> BACKED_UP: it purges any backup left by an
// earlier run and snapshots the live directory, either by copying it (the
// live directory stays in place) or by moving it aside and starting from an
// empty directory. Commit discards the snapshot. Rollback deletes the live
// directory, whatever state it is in, and moves the snapshot back.
//
// A failure inside Rollback leaves the installation undefined and is
// reported with the ROLLBACK_FAILED code so callers can tell it apart from
// an ordinary, restored failure.
//
// Only one transaction may run against a directory at a time; no locking is
// performed.
package backup
