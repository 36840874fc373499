package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"yt-clipper/internal/resolver"
)

func TestOpenAppliesBeginOffset(t *testing.T) {
	t.Parallel()

	var gotBegin string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBegin = r.URL.Query().Get("begin")
		_, _ = w.Write([]byte("stream-bytes"))
	}))
	defer srv.Close()

	opener := New(nil)
	format := resolver.Format{ID: "22", URL: srv.URL + "/videoplayback?itag=22"}

	stream, err := opener.Open(context.Background(), format, 42.5)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	defer stream.Close()

	if gotBegin != "42500" {
		t.Errorf("begin parameter = %q, want %q", gotBegin, "42500")
	}

	data, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("failed to read stream: %v", err)
	}
	if string(data) != "stream-bytes" {
		t.Errorf("stream content = %q, want %q", data, "stream-bytes")
	}
}

func TestOpenZeroOffsetLeavesURLUntouched(t *testing.T) {
	t.Parallel()

	var sawBegin bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawBegin = r.URL.Query()["begin"]
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	opener := New(nil)
	stream, err := opener.Open(context.Background(), resolver.Format{URL: srv.URL}, 0)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	defer stream.Close()

	if sawBegin {
		t.Error("zero offset should not add a begin parameter")
	}
}

func TestOpenRejectedStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusForbidden)
	}))
	defer srv.Close()

	opener := New(nil)
	_, err := opener.Open(context.Background(), resolver.Format{URL: srv.URL}, 0)
	if err == nil {
		t.Fatal("Open() expected error for 403 response")
	}

	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("Open() error type = %T, want *OpenError", err)
	}
	if openErr.Status != http.StatusForbidden {
		t.Errorf("OpenError.Status = %d, want %d", openErr.Status, http.StatusForbidden)
	}
}

func TestOpenTransportFailure(t *testing.T) {
	t.Parallel()

	opener := New(nil)
	_, err := opener.Open(context.Background(), resolver.Format{URL: "http://127.0.0.1:1/unreachable"}, 0)
	if err == nil {
		t.Fatal("Open() expected error for unreachable host")
	}

	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("Open() error type = %T, want *OpenError", err)
	}
	if openErr.Status != 0 {
		t.Errorf("OpenError.Status = %d, want 0 for transport failure", openErr.Status)
	}
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	opener := New(nil)
	stream, err := opener.Open(context.Background(), resolver.Format{URL: srv.URL}, 0)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("first Close() unexpected error: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("second Close() unexpected error: %v", err)
	}
}

func TestWithBeginOffset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rawURL string
		offset float64
		want   string
	}{
		{
			name:   "zero offset passthrough",
			rawURL: "https://example.com/v?itag=22",
			offset: 0,
			want:   "https://example.com/v?itag=22",
		},
		{
			name:   "negative offset passthrough",
			rawURL: "https://example.com/v",
			offset: -5,
			want:   "https://example.com/v",
		},
		{
			name:   "offset converted to milliseconds",
			rawURL: "https://example.com/v",
			offset: 90,
			want:   "https://example.com/v?begin=90000",
		},
		{
			name:   "fractional offset truncated to whole milliseconds",
			rawURL: "https://example.com/v",
			offset: 1.2345,
			want:   "https://example.com/v?begin=1234",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := withBeginOffset(tt.rawURL, tt.offset)
			if err != nil {
				t.Fatalf("withBeginOffset() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("withBeginOffset() = %q, want %q", got, tt.want)
			}
		})
	}
}
