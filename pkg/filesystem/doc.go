// Package filesystem provides the filesystem helpers used by modsync.
//
// All helpers operate on an afero.Fs so that the sync transaction can run
// against the real OS filesystem in production and against wrapped or
// fault-injecting filesystems in tests.
package filesystem
