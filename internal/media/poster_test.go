package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

// pngThumbnail serves a generated source image of the given dimensions.
func pngThumbnail(t *testing.T, width, height int) *httptest.Server {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test thumbnail: %v", err)
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
}

func TestFetchResizesToRequestedWidth(t *testing.T) {
	t.Parallel()

	srv := pngThumbnail(t, 1280, 720)
	defer srv.Close()

	fetcher := NewPosterFetcher()
	data, err := fetcher.Fetch(context.Background(), srv.URL, 320)
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("poster output not decodable: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("poster format = %q, want jpeg", format)
	}
	if got := decoded.Bounds().Dx(); got != 320 {
		t.Errorf("poster width = %d, want 320", got)
	}
	// Aspect ratio preserved: 1280x720 at width 320 is 180 tall
	if got := decoded.Bounds().Dy(); got != 180 {
		t.Errorf("poster height = %d, want 180", got)
	}
}

func TestFetchNeverUpscales(t *testing.T) {
	t.Parallel()

	srv := pngThumbnail(t, 200, 100)
	defer srv.Close()

	fetcher := NewPosterFetcher()
	data, err := fetcher.Fetch(context.Background(), srv.URL, 800)
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("poster output not decodable: %v", err)
	}
	if got := decoded.Bounds().Dx(); got != 200 {
		t.Errorf("poster width = %d, want original 200 (no upscaling)", got)
	}
}

func TestFetchAppliesWidthBounds(t *testing.T) {
	t.Parallel()

	srv := pngThumbnail(t, 2560, 1440)
	defer srv.Close()

	fetcher := NewPosterFetcher()

	// Zero width falls back to the default
	data, err := fetcher.Fetch(context.Background(), srv.URL, 0)
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("poster output not decodable: %v", err)
	}
	if got := decoded.Bounds().Dx(); got != DefaultPosterWidth {
		t.Errorf("default poster width = %d, want %d", got, DefaultPosterWidth)
	}

	// Oversized requests are capped
	data, err = fetcher.Fetch(context.Background(), srv.URL, 99999)
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}
	decoded, _, err = image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("poster output not decodable: %v", err)
	}
	if got := decoded.Bounds().Dx(); got != MaxPosterWidth {
		t.Errorf("capped poster width = %d, want %d", got, MaxPosterWidth)
	}
}

func TestFetchRejectsNonImagePayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer srv.Close()

	fetcher := NewPosterFetcher()
	if _, err := fetcher.Fetch(context.Background(), srv.URL, 480); err == nil {
		t.Error("Fetch() expected error for non-image payload")
	}
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	fetcher := NewPosterFetcher()
	if _, err := fetcher.Fetch(context.Background(), srv.URL, 480); err == nil {
		t.Error("Fetch() expected error for 404 thumbnail")
	}
}
