package manifest

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/modsync/pkg/errors"
)

// Method literals as published by the server. Anything else means the file
// must be retrieved by hand.
const (
	MethodIgnore = "ignore"
	MethodFetch  = "wget"
)

// Resolution is how an absent required file is handled.
type Resolution int

const (
	ResolutionManual Resolution = iota
	ResolutionIgnore
	ResolutionFetch
)

// String returns the string representation of the resolution
func (r Resolution) String() string {
	switch r {
	case ResolutionIgnore:
		return "ignore"
	case ResolutionFetch:
		return "fetch"
	default:
		return "manual"
	}
}

// Version describes the concrete file a mod entry resolves to.
type Version struct {
	Filename string `json:"filename"`
	Method   string `json:"method"`
	URL      string `json:"url,omitempty"`
}

// ModEntry is one required file in the manifest.
type ModEntry struct {
	Name    string  `json:"name"`
	Website string  `json:"website,omitempty"`
	Version Version `json:"version"`
}

// RequiredFilename is the name the file must have in the mods directory.
func (e ModEntry) RequiredFilename() string {
	return e.Version.Filename
}

// Resolution classifies the entry's method literal.
func (e ModEntry) Resolution() Resolution {
	switch e.Version.Method {
	case MethodIgnore:
		return ResolutionIgnore
	case MethodFetch:
		return ResolutionFetch
	default:
		return ResolutionManual
	}
}

// SourceURL is the download location for fetch entries.
func (e ModEntry) SourceURL() string {
	return e.Version.URL
}

// RetrievalHint is where an operator should look for a manual download.
func (e ModEntry) RetrievalHint() string {
	if e.Version.URL != "" {
		return e.Version.URL
	}
	return e.Website
}

// Manifest is the parsed mods.json document.
type Manifest struct {
	SchemaVersion    int        `json:"version"`
	PlatformVersion  string     `json:"minecraft"`
	ConfigArchiveURL string     `json:"config,omitempty"`
	Entries          []ModEntry `json:"mods"`
}

// RequiredFilenames returns the set of filenames named by any entry,
// whatever its resolution method.
func (m *Manifest) RequiredFilenames() map[string]struct{} {
	required := make(map[string]struct{}, len(m.Entries))
	for _, entry := range m.Entries {
		required[entry.RequiredFilename()] = struct{}{}
	}
	return required
}

// Parse decodes a manifest and checks that every entry names a plain
// filename and that fetch entries carry a URL. Compatibility is checked
// separately by Validator.
func Parse(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, errors.Wrap(err, errors.ErrManifestParse, "failed to decode manifest")
	}

	for i, entry := range m.Entries {
		filename := entry.RequiredFilename()
		if filename == "" {
			return nil, errors.Newf(errors.ErrManifestParse, "mod %d (%s) has no filename", i, entry.Name)
		}
		if filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) || filename == ".." || filename == "." {
			return nil, errors.Newf(errors.ErrManifestParse, "mod %s has an invalid filename %q", entry.Name, filename).
				WithDetail("file", filename)
		}
		if entry.Resolution() == ResolutionFetch && entry.SourceURL() == "" {
			return nil, errors.Newf(errors.ErrManifestParse, "mod %s uses %s without a url", entry.Name, MethodFetch).
				WithDetail("file", filename)
		}
	}

	return &m, nil
}

// Opener opens a remote resource for reading.
type Opener interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// Fetch downloads and parses the manifest published at url.
func Fetch(ctx context.Context, opener Opener, url string) (*Manifest, error) {
	body, err := opener.Open(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestFetch, "failed to fetch manifest from %s", url)
	}
	defer func() {
		_ = body.Close()
	}()

	return Parse(body)
}
