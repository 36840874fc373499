package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support (the source serves webp posters)

	"yt-clipper/internal/logging"
	"yt-clipper/internal/metrics"
)

const (
	// MaxPosterWidth caps the requested output width
	MaxPosterWidth = 1280
	// DefaultPosterWidth is used when the caller does not specify one
	DefaultPosterWidth = 480
	// maxPosterBytes caps the fetched source image size
	maxPosterBytes = 10 << 20 // 10MB
)

// PosterFetcher downloads a video's thumbnail and resizes it for
// embedding next to the clip download link.
type PosterFetcher struct {
	client *http.Client
}

// NewPosterFetcher creates a poster fetcher with its own short-timeout client.
func NewPosterFetcher() *PosterFetcher {
	return &PosterFetcher{
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch downloads thumbnailURL, scales it to the requested width
// (preserving aspect ratio, never upscaling), and returns it encoded as
// JPEG.
func (p *PosterFetcher) Fetch(ctx context.Context, thumbnailURL string, width int) ([]byte, error) {
	if width <= 0 {
		width = DefaultPosterWidth
	}
	if width > MaxPosterWidth {
		width = MaxPosterWidth
	}

	raw, err := p.download(ctx, thumbnailURL)
	if err != nil {
		metrics.PosterRequestsTotal.WithLabelValues("fetch_error").Inc()
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		metrics.PosterRequestsTotal.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("failed to decode thumbnail: %w", err)
	}

	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		metrics.PosterRequestsTotal.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("failed to encode poster: %w", err)
	}

	metrics.PosterRequestsTotal.WithLabelValues("success").Inc()
	logging.Debug("Poster: %s -> %dpx (%d bytes)", thumbnailURL, width, buf.Len())

	return buf.Bytes(), nil
}

func (p *PosterFetcher) download(ctx context.Context, thumbnailURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbnailURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid thumbnail URL: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thumbnail: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("failed to close thumbnail response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("thumbnail fetch returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPosterBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read thumbnail body: %w", err)
	}

	return raw, nil
}
