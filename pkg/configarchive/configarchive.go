// Package configarchive updates a pack's configuration files from the zip
// archive the server publishes next to its manifest.
//
// Extraction adds and replaces files but never deletes: configuration the
// operator added locally survives an update.
package configarchive

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/logging"
)

// Fetcher downloads url into dest
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Archiver unpacks an archive into a directory
type Archiver interface {
	// Extract unpacks zipPath over destDir and returns the number of files written
	Extract(zipPath, destDir string) (int, error)
}

// ZipArchiver extracts zip archives through an afero filesystem
type ZipArchiver struct {
	fs afero.Fs
}

// NewZipArchiver creates a zip archiver
func NewZipArchiver(fsys afero.Fs) *ZipArchiver {
	return &ZipArchiver{fs: fsys}
}

// Extract unpacks zipPath over destDir. Entries that would land outside
// destDir are rejected before anything is written.
func (a *ZipArchiver) Extract(zipPath, destDir string) (int, error) {
	file, err := a.fs.Open(zipPath)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrFileAccess, "cannot open %s", zipPath)
	}
	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", zipPath)
	}

	reader, err := zip.NewReader(file, info.Size())
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrArchiveExtract, "%s is not a zip archive", zipPath)
	}

	targets := make([]string, len(reader.File))
	for i, entry := range reader.File {
		target, err := safeJoin(destDir, entry.Name)
		if err != nil {
			return 0, err
		}
		targets[i] = target
	}

	count := 0
	for i, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			if err := a.fs.MkdirAll(targets[i], 0755); err != nil {
				return count, errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", targets[i])
			}
			continue
		}
		if err := a.extractFile(entry, targets[i]); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (a *ZipArchiver) extractFile(entry *zip.File, target string) error {
	if err := a.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", filepath.Dir(target))
	}

	src, err := entry.Open()
	if err != nil {
		return errors.Wrapf(err, errors.ErrArchiveExtract, "cannot read %s", entry.Name)
	}
	defer func() {
		_ = src.Close()
	}()

	mode := entry.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	dst, err := a.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot create %s", target)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return errors.Wrapf(err, errors.ErrArchiveExtract, "cannot extract %s", entry.Name)
	}
	if err := dst.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", target)
	}
	return nil
}

// safeJoin resolves an archive entry name under dir
func safeJoin(dir, name string) (string, error) {
	clean := filepath.FromSlash(name)
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", errors.Newf(errors.ErrArchiveExtract, "archive entry %s is absolute", name).
			WithDetail("entry", name)
	}

	target := filepath.Join(dir, clean)
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf(errors.ErrArchiveExtract, "archive entry %s escapes %s", name, dir).
			WithDetail("entry", name)
	}
	return target, nil
}

// Updater downloads a config archive and extracts it over a pack
type Updater struct {
	fs       afero.Fs
	fetcher  Fetcher
	archiver Archiver
	logger   zerolog.Logger
}

// NewUpdater creates a config updater
func NewUpdater(fsys afero.Fs, fetcher Fetcher, archiver Archiver) *Updater {
	return &Updater{
		fs:       fsys,
		fetcher:  fetcher,
		archiver: archiver,
		logger:   logging.GetLogger("configarchive"),
	}
}

// Update fetches url and extracts it over packDir. The downloaded archive
// is removed afterwards whatever happens.
func (u *Updater) Update(ctx context.Context, url, packDir string) (int, error) {
	if url == "" {
		return 0, errors.New(errors.ErrInvalidInput, "manifest has no config archive url")
	}

	tmp, err := afero.TempFile(u.fs, "", "modsync-config-*.zip")
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrFileWrite, "cannot create temporary archive")
	}
	zipPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		_ = u.fs.Remove(zipPath)
	}()

	u.logger.Info().Str("url", url).Msg("Downloading config archive")
	if err := u.fetcher.Fetch(ctx, url, zipPath); err != nil {
		return 0, err
	}

	count, err := u.archiver.Extract(zipPath, packDir)
	if err != nil {
		return count, err
	}

	u.logger.Info().Int("files", count).Str("pack", packDir).Msg("Config files updated")
	return count, nil
}
