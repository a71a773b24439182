// Package download fetches remote resources onto the local filesystem.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/arthur-debert/modsync/internal/version"
	"github.com/arthur-debert/modsync/pkg/errors"
	"github.com/arthur-debert/modsync/pkg/logging"
)

// DefaultTimeout bounds a single fetch, body transfer included.
const DefaultTimeout = 60 * time.Second

// Client streams remote resources to local paths.
type Client struct {
	httpClient *http.Client
	fs         afero.Fs
	timeout    time.Duration
	userAgent  string
	logger     zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-fetch timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a download client writing into fsys
func NewClient(fsys afero.Fs, opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		fs:         fsys,
		timeout:    DefaultTimeout,
		userAgent:  "modsync/" + version.Version,
		logger:     logging.GetLogger("download"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsRetryable reports whether err is a remote failure the operator may
// choose to continue past. Local write failures are never retryable.
func IsRetryable(err error) bool {
	return errors.HasErrorCode(err, errors.ErrRemoteFetch)
}

// Open issues a GET for url and returns the response body. The per-fetch
// timeout keeps running until the body is closed.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	cancel := func() {}
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, errors.Wrapf(err, errors.ErrRemoteFetch, "invalid url %s", url).
			WithDetail("url", url)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, errors.Wrapf(err, errors.ErrRemoteFetch, "request to %s failed", url).
			WithDetail("url", url)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		cancel()
		return nil, errors.Newf(errors.ErrRemoteFetch, "request to %s returned %s", url, resp.Status).
			WithDetail("url", url).
			WithDetail("status", resp.StatusCode)
	}

	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

// Fetch streams url into dest, creating or truncating it. A failed
// transfer removes whatever was written so a truncated file is never
// mistaken for a present one.
func (c *Client) Fetch(ctx context.Context, url, dest string) error {
	c.logger.Debug().Str("url", url).Str("dest", dest).Msg("Fetching")

	body, err := c.Open(ctx, url)
	if err != nil {
		return err
	}
	defer func() {
		_ = body.Close()
	}()

	out, err := c.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot create %s", dest).
			WithDetail("file", dest)
	}

	src := &readTracker{r: body}
	n, copyErr := io.Copy(out, src)
	closeErr := out.Close()

	if copyErr != nil {
		_ = c.fs.Remove(dest)
		if src.err != nil {
			return errors.Wrapf(copyErr, errors.ErrRemoteFetch, "transfer from %s interrupted", url).
				WithDetail("url", url)
		}
		return errors.Wrapf(copyErr, errors.ErrFileWrite, "cannot write %s", dest).
			WithDetail("file", dest)
	}
	if closeErr != nil {
		_ = c.fs.Remove(dest)
		return errors.Wrapf(closeErr, errors.ErrFileWrite, "cannot write %s", dest).
			WithDetail("file", dest)
	}

	c.logger.Debug().Str("dest", dest).Str("size", humanSize(n)).Msg("Fetched")
	return nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// readTracker remembers the first read error so copy failures can be
// attributed to the network side or the disk side.
type readTracker struct {
	r   io.Reader
	err error
}

func (t *readTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
