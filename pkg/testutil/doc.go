// Package testutil provides utilities for testing modsync components.
//
// Key components:
//   - TestEnvironment: an isolated pack directory under t.TempDir with
//     helpers to seed and inspect the mods directory
//   - FaultyFS: an afero.Fs wrapper that fails selected operations, used to
//     drive prune and rollback failures
//   - ModServer: an httptest server publishing a manifest and mod files,
//     recording every download request
//
// All test data should be defined inline, not in external files.
package testutil
