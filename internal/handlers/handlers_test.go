package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"yt-clipper/internal/clipper"
	"yt-clipper/internal/database"
	"yt-clipper/internal/media"
	"yt-clipper/internal/resolver"
	"yt-clipper/internal/startup"
)

type stubStore struct {
	mu       sync.Mutex
	inserted []database.ClipJob
	finished map[string]string
	jobs     []database.ClipJob
	stats    database.JobStats
	statsErr error
}

func newStubStore() *stubStore {
	return &stubStore{finished: make(map[string]string)}
}

func (s *stubStore) InsertJob(ctx context.Context, job database.ClipJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, job)
	return nil
}

func (s *stubStore) FinishJob(ctx context.Context, id, status, errMsg string, bytesSent int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished[id] = status
	return nil
}

func (s *stubStore) RecentJobs(ctx context.Context, limit int) ([]database.ClipJob, error) {
	return s.jobs, nil
}

func (s *stubStore) Stats(ctx context.Context) (database.JobStats, error) {
	return s.stats, s.statsErr
}

type stubExtractor struct {
	result clipper.Result
	err    error
	body   string
	// setHeadersOnly mimics a delivery that set attachment headers but
	// failed before sending any byte
	setHeadersOnly bool
}

func (s *stubExtractor) Extract(ctx context.Context, req clipper.Request, w http.ResponseWriter) (clipper.Result, error) {
	if s.setHeadersOnly {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename=Clip-0_1700000000.mp4`)
		w.Header().Set("Content-Length", "1048576")
		w.Header().Set("X-Content-Type-Options", "nosniff")
	}
	if s.body != "" {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte(s.body))
	}
	return s.result, s.err
}

type stubResolver struct {
	video *resolver.Video
	err   error
}

func (s *stubResolver) Resolve(ctx context.Context, videoID string) (*resolver.Video, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.video, nil
}

func testHandlers(store *stubStore, clips ClipExtractor, res FormatResolver) *Handlers {
	return New(store, clips, res, media.NewPosterFetcher(), &startup.Config{})
}

func testRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/clip/{videoId}", h.ExtractClip).Methods("GET")
	r.HandleFunc("/api/video-info/{videoId}", h.GetVideoInfo).Methods("GET")
	r.HandleFunc("/api/jobs", h.ListJobs).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	return r
}

func TestExtractClipMissingDuration(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	h := testHandlers(store, &stubExtractor{}, &stubResolver{})
	router := testRouter(h)

	req := httptest.NewRequest("GET", "/api/clip/dQw4w9WgXcQ?start=30", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.inserted) != 0 {
		t.Error("malformed request must not create a job row")
	}
}

func TestExtractClipInvalidParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
	}{
		{"non-numeric start", "/api/clip/dQw4w9WgXcQ?start=abc&duration=10"},
		{"non-numeric duration", "/api/clip/dQw4w9WgXcQ?start=0&duration=xyz"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := testHandlers(newStubStore(), &stubExtractor{}, &stubResolver{})
			rec := httptest.NewRecorder()
			testRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", tt.url, nil))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestExtractClipSuccess(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	extractor := &stubExtractor{
		result: clipper.Result{
			VideoID:   "dQw4w9WgXcQ",
			Status:    clipper.StatusCompleted,
			BytesSent: 18,
		},
		body: "remuxed-clip-bytes",
	}
	h := testHandlers(store, extractor, &stubResolver{})

	req := httptest.NewRequest("GET", "/api/clip/dQw4w9WgXcQ?start=30&duration=60", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "remuxed-clip-bytes" {
		t.Errorf("body = %q, want the clip bytes", rec.Body.String())
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.inserted) != 1 {
		t.Fatalf("inserted %d job rows, want 1", len(store.inserted))
	}
	if store.inserted[0].StartSeconds != 30 || store.inserted[0].DurationSeconds != 60 {
		t.Errorf("recorded window = %v+%v, want 30+60", store.inserted[0].StartSeconds, store.inserted[0].DurationSeconds)
	}
	if got := store.finished[store.inserted[0].ID]; got != clipper.StatusCompleted {
		t.Errorf("finished status = %q, want completed", got)
	}
}

func TestExtractClipErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		result     clipper.Result
		err        error
		wantStatus int
	}{
		{
			name:       "validation error",
			result:     clipper.Result{Status: clipper.StatusValidationError},
			err:        &clipper.ValidationError{Field: "duration", Reason: "must be > 0"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "video not found",
			result:     clipper.Result{Status: clipper.StatusResolveError},
			err:        resolver.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "no muxed format",
			result:     clipper.Result{Status: clipper.StatusResolveError},
			err:        resolver.ErrNoMuxedFormat,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "stream open failure",
			result:     clipper.Result{Status: clipper.StatusStreamError},
			err:        errors.New("stream open failed: status 403"),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "transcode failure",
			result:     clipper.Result{Status: clipper.StatusTranscodeError},
			err:        errors.New("transcode failed"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newStubStore()
			h := testHandlers(store, &stubExtractor{result: tt.result, err: tt.err}, &stubResolver{})

			req := httptest.NewRequest("GET", "/api/clip/dQw4w9WgXcQ?start=0&duration=10", nil)
			rec := httptest.NewRecorder()
			testRouter(h).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var payload map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("error response is not JSON: %v", err)
			}
			if payload["error"] == "" {
				t.Error("error response missing error message")
			}
		})
	}
}

func TestExtractClipFailureAfterBytesSentDoesNotWriteJSON(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	extractor := &stubExtractor{
		result: clipper.Result{Status: clipper.StatusAborted, BytesSent: 1024},
		err:    errors.New("client disconnected"),
		body:   "partial-clip",
	}
	h := testHandlers(store, extractor, &stubResolver{})

	req := httptest.NewRequest("GET", "/api/clip/dQw4w9WgXcQ?start=0&duration=10", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Body.String() != "partial-clip" {
		t.Errorf("body = %q, JSON must not be appended after media bytes", rec.Body.String())
	}
}

func TestExtractClipDeliveryFailureClearsAttachmentHeaders(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	extractor := &stubExtractor{
		result:         clipper.Result{Status: clipper.StatusDeliveryError, BytesSent: 0},
		err:            errors.New("failed to open clip artifact"),
		setHeadersOnly: true,
	}
	h := testHandlers(store, extractor, &stubResolver{})

	req := httptest.NewRequest("GET", "/api/clip/dQw4w9WgXcQ?start=0&duration=10", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "" {
		t.Errorf("Content-Disposition = %q, want cleared for JSON error", got)
	}
	if got := rec.Header().Get("Content-Length"); got == "1048576" {
		t.Errorf("Content-Length = %q, stale media length must not frame the error body", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("error response is not JSON: %v", err)
	}
	if payload["error"] == "" {
		t.Error("error response missing error message")
	}
}

func TestGetVideoInfo(t *testing.T) {
	t.Parallel()

	video := &resolver.Video{
		ID:        "dQw4w9WgXcQ",
		Title:     "Test Video",
		Duration:  212,
		Channel:   "Test Channel",
		Thumbnail: "https://example.com/thumb.jpg",
		Formats: []resolver.Format{
			{ID: "22", URL: "https://example.com/22", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a", Height: 720},
		},
	}
	h := testHandlers(newStubStore(), &stubExtractor{}, &stubResolver{video: video})

	req := httptest.NewRequest("GET", "/api/video-info/dQw4w9WgXcQ", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp VideoInfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Title != "Test Video" {
		t.Errorf("title = %q, want Test Video", resp.Title)
	}
	if resp.Duration != 212 {
		t.Errorf("duration = %v, want 212", resp.Duration)
	}
	if resp.BestFormat == nil || resp.BestFormat.Height != 720 {
		t.Errorf("bestFormat = %+v, want 720p", resp.BestFormat)
	}
}

func TestGetVideoInfoNotFound(t *testing.T) {
	t.Parallel()

	h := testHandlers(newStubStore(), &stubExtractor{}, &stubResolver{err: resolver.ErrNotFound})

	req := httptest.NewRequest("GET", "/api/video-info/dQw4w9WgXcQ", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetVideoInfoInvalidID(t *testing.T) {
	t.Parallel()

	h := testHandlers(newStubStore(), &stubExtractor{}, &stubResolver{})

	req := httptest.NewRequest("GET", "/api/video-info/not-a-valid-video-id", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListJobs(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.jobs = []database.ClipJob{
		{ID: "j1", VideoID: "dQw4w9WgXcQ", Status: "completed"},
		{ID: "j2", VideoID: "dQw4w9WgXcQ", Status: "aborted"},
	}
	h := testHandlers(store, &stubExtractor{}, &stubResolver{})

	req := httptest.NewRequest("GET", "/api/jobs", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp JobsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Count != 2 || len(resp.Jobs) != 2 {
		t.Errorf("count = %d with %d jobs, want 2", resp.Count, len(resp.Jobs))
	}
}

func TestListJobsInvalidLimit(t *testing.T) {
	t.Parallel()

	h := testHandlers(newStubStore(), &stubExtractor{}, &stubResolver{})

	req := httptest.NewRequest("GET", "/api/jobs?limit=banana", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.stats = database.JobStats{TotalJobs: 10, CompletedJobs: 8, FailedJobs: 1}
	h := testHandlers(store, &stubExtractor{}, &stubResolver{})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if resp.Jobs.TotalJobs != 10 {
		t.Errorf("jobs.totalJobs = %d, want 10", resp.Jobs.TotalJobs)
	}
}

func TestReadinessCheckDegraded(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	store.statsErr = errors.New("database is locked")
	h := testHandlers(store, &stubExtractor{}, &stubResolver{})

	req := httptest.NewRequest("GET", "/readyz", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	h := testHandlers(newStubStore(), &stubExtractor{}, &stubResolver{})

	req := httptest.NewRequest("GET", "/version", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info startup.BuildInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if info.GoVersion == "" {
		t.Error("build info missing Go version")
	}
}
