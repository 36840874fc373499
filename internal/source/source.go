package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"yt-clipper/internal/logging"
	"yt-clipper/internal/resolver"
)

// OpenError indicates the network stream for a format could not be opened.
type OpenError struct {
	Status int // HTTP status, 0 for transport failures
	Err    error
}

func (e *OpenError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("stream open failed: status %d", e.Status)
	}
	return fmt.Sprintf("stream open failed: %v", e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Stream is an open, exclusively-owned byte stream for one format.
// It must be Closed to release the underlying connection; Close is
// idempotent.
type Stream struct {
	io.Reader
	body      io.Closer
	closeOnce sync.Once
}

// Close releases the underlying connection. Safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}

// Opener opens network streams for resolved formats, optionally through
// an outbound proxy.
type Opener struct {
	client *http.Client
}

// New creates an Opener. A nil proxy means direct connections.
func New(proxy *url.URL) *Opener {
	transport := &http.Transport{
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy)
		logging.Info("Stream source: routing through proxy %s", proxy.Host)
	}

	return &Opener{
		client: &http.Client{Transport: transport},
	}
}

// Open requests the format's byte stream, asking the source to begin
// playback at startOffset (coarse seek, applied in milliseconds). Exact
// trimming to the requested start is the transcoder's job.
//
// The returned stream is live and must be closed by the caller's janitor;
// its Close is idempotent.
func (o *Opener) Open(ctx context.Context, format resolver.Format, startOffset float64) (io.ReadCloser, error) {
	streamURL, err := withBeginOffset(format.URL, startOffset)
	if err != nil {
		return nil, &OpenError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, &OpenError{Err: err}
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &OpenError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logging.Warn("failed to close rejected stream body: %v", closeErr)
		}
		return nil, &OpenError{Status: resp.StatusCode}
	}

	logging.Debug("Stream open: format %s at offset %.1fs (%d bytes declared)",
		format.ID, startOffset, resp.ContentLength)

	return &Stream{Reader: resp.Body, body: resp.Body}, nil
}

// withBeginOffset appends the source's begin parameter, in milliseconds.
// A zero offset leaves the URL untouched so the source serves from the
// first byte.
func withBeginOffset(rawURL string, startOffset float64) (string, error) {
	if startOffset <= 0 {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid format URL: %w", err)
	}

	q := u.Query()
	q.Set("begin", fmt.Sprintf("%d", int64(startOffset*1000)))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
