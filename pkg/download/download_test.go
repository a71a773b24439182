package download_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/modsync/pkg/download"
	"github.com/arthur-debert/modsync/pkg/errors"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/a.jar", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "modsync/")
		_, _ = w.Write([]byte("alpha-bytes"))
	})
	mux.HandleFunc("/slow.jar", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/truncated.jar", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		_, _ = w.Write([]byte("short"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_Success(t *testing.T) {
	srv := newServer(t)
	fsys := afero.NewOsFs()
	dest := filepath.Join(t.TempDir(), "a.jar")

	client := download.NewClient(fsys)
	require.NoError(t, client.Fetch(context.Background(), srv.URL+"/a.jar", dest))

	content, err := afero.ReadFile(fsys, dest)
	require.NoError(t, err)
	assert.Equal(t, "alpha-bytes", string(content))
}

func TestFetch_TruncatesExisting(t *testing.T) {
	srv := newServer(t)
	fsys := afero.NewOsFs()
	dest := filepath.Join(t.TempDir(), "a.jar")
	require.NoError(t, afero.WriteFile(fsys, dest, []byte("an older and much longer body"), 0644))

	require.NoError(t, download.NewClient(fsys).Fetch(context.Background(), srv.URL+"/a.jar", dest))

	content, err := afero.ReadFile(fsys, dest)
	require.NoError(t, err)
	assert.Equal(t, "alpha-bytes", string(content))
}

func TestFetch_RetryableFailures(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name string
		url  string
		opts []download.Option
	}{
		{name: "not_found", url: srv.URL + "/missing.jar"},
		{name: "timeout", url: srv.URL + "/slow.jar", opts: []download.Option{download.WithTimeout(100 * time.Millisecond)}},
		{name: "truncated_body", url: srv.URL + "/truncated.jar"},
		{name: "bad_url", url: "://nope"},
		{name: "connection_refused", url: "http://127.0.0.1:1/a.jar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewOsFs()
			dest := filepath.Join(t.TempDir(), "x.jar")

			err := download.NewClient(fsys, tt.opts...).Fetch(context.Background(), tt.url, dest)
			require.Error(t, err)
			assert.True(t, download.IsRetryable(err), "got %v", err)

			exists, _ := afero.Exists(fsys, dest)
			assert.False(t, exists, "failed fetch must not leave a file behind")
		})
	}
}

func TestFetch_WriteFailureIsFatal(t *testing.T) {
	srv := newServer(t)
	fsys := afero.NewReadOnlyFs(afero.NewOsFs())
	dest := filepath.Join(t.TempDir(), "a.jar")

	err := download.NewClient(fsys).Fetch(context.Background(), srv.URL+"/a.jar", dest)
	require.Error(t, err)
	assert.False(t, download.IsRetryable(err))
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileWrite))
}

func TestOpen(t *testing.T) {
	srv := newServer(t)

	body, err := download.NewClient(afero.NewMemMapFs(), download.WithUserAgent("modsync/test")).
		Open(context.Background(), srv.URL+"/a.jar")
	require.NoError(t, err)
	defer body.Close()

	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "alpha-bytes", string(content))
}
