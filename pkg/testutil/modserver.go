package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// ModServer publishes mod files and a manifest over HTTP for tests.
type ModServer struct {
	*httptest.Server

	mu        sync.Mutex
	files     map[string]string
	manifest  []byte
	requested []string
}

// NewModServer starts a server publishing files at /<name>. Paths that are
// not registered answer 404.
func NewModServer(t *testing.T, files map[string]string) *ModServer {
	t.Helper()

	s := &ModServer{files: make(map[string]string)}
	for name, content := range files {
		s.files[name] = content
	}

	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// FileURL returns the absolute URL of a published name
func (s *ModServer) FileURL(name string) string {
	return s.Server.URL + "/" + name
}

// SetManifest publishes v as JSON at /mods.json
func (s *ModServer) SetManifest(t *testing.T, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	s.mu.Lock()
	s.manifest = data
	s.mu.Unlock()
}

// ManifestURL returns the URL of the published manifest
func (s *ModServer) ManifestURL() string {
	return s.Server.URL + "/mods.json"
}

// Requested returns the file names requested so far, in order, excluding
// the manifest
func (s *ModServer) Requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requested...)
}

func (s *ModServer) serve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")

	s.mu.Lock()
	if name == "mods.json" && s.manifest != nil {
		data := s.manifest
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
		return
	}
	s.requested = append(s.requested, name)
	content, ok := s.files[name]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(content))
}
