package beautyapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PabloViniegra/how-are-u/internal/constants"
	"github.com/PabloViniegra/how-are-u/internal/progress"
	"github.com/PabloViniegra/how-are-u/internal/upload"
)

const testAPIKey = "test-key"

func instantTimer(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

// setupMockServer creates a mock analysis API. Handlers are keyed by path.
func setupMockServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBlender(progress.NewBlender(progress.WithTimer(instantTimer)))}, opts...)
	c, err := New(server.URL, testAPIKey, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func checkAuth(t *testing.T, r *http.Request) {
	t.Helper()
	if got := r.Header.Get("X-API-Key"); got != testAPIKey {
		t.Errorf("expected X-API-Key %q, got %q", testAPIKey, got)
	}
	if got := r.Header.Get("Authorization"); got != "Bearer "+testAPIKey {
		t.Errorf("expected bearer auth, got %q", got)
	}
}

func feasibleJSON(id string, score float64) []byte {
	data, _ := json.Marshal(Analysis{
		ID:             id,
		Status:         StatusFeasible,
		OverallScore:   Float(score),
		DetailedScores: map[string]float64{"facial_symmetry": 8.2, "skin_quality": 8.8},
		AnalysisDate:   "2024-01-15T10:30:00Z",
	})
	return data
}

func TestNew_InvalidURL(t *testing.T) {
	if _, err := New("", testAPIKey); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := New("not a url", testAPIKey); err == nil {
		t.Error("expected error for URL without scheme")
	}
}

func TestGetAnalysis(t *testing.T) {
	server := setupMockServer(t, map[string]http.HandlerFunc{
		"/api/analysis/123": func(w http.ResponseWriter, r *http.Request) {
			checkAuth(t, r)
			if r.Method != http.MethodGet {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write(feasibleJSON("123", 8.5))
		},
	})

	c := newTestClient(t, server)
	analysis, err := c.GetAnalysis(context.Background(), "123")
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if analysis.ID != "123" || analysis.Score() != 8.5 {
		t.Errorf("unexpected analysis %+v", analysis)
	}
	if !analysis.IsFeasible() {
		t.Error("expected feasible analysis")
	}
}

func TestGetAnalysis_Envelope(t *testing.T) {
	server := setupMockServer(t, map[string]http.HandlerFunc{
		"/api/analysis/abc": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": true, "data": {"id": "abc", "status": "denied", "analysis_date": "2024-01-01T00:00:00Z"}}`))
		},
	})

	c := newTestClient(t, server)
	analysis, err := c.GetAnalysis(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if analysis.ID != "abc" || analysis.Status != StatusDenied {
		t.Errorf("unexpected analysis %+v", analysis)
	}
	if analysis.OverallScore != nil {
		t.Error("expected no score on denied analysis")
	}
}

func TestGetAnalysis_NotFound(t *testing.T) {
	server := setupMockServer(t, map[string]http.HandlerFunc{
		"/api/analysis/999": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)
		},
	})

	c := newTestClient(t, server)
	_, err := c.GetAnalysis(context.Background(), "999")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "HTTP error! status: 404" {
		t.Errorf("unexpected error message %q", err.Error())
	}
	if !IsNotFoundError(err) {
		t.Error("expected IsNotFoundError to be true")
	}
	if StatusCode(err) != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", StatusCode(err))
	}
}

func TestGetAnalysis_EscapesID(t *testing.T) {
	var paths []string
	// No mux: it would clean the path before the handler sees it.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)
	c := newTestClient(t, server)

	for _, id := range []string{"..", ".", "", " "} {
		if _, err := c.GetAnalysis(context.Background(), id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("GetAnalysis(%q): expected ErrInvalidID, got %v", id, err)
		}
		if err := c.DeleteAnalysis(context.Background(), id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("DeleteAnalysis(%q): expected ErrInvalidID, got %v", id, err)
		}
	}
	if len(paths) != 0 {
		t.Errorf("expected no request for invalid ids, got %v", paths)
	}

	_, _ = c.GetAnalysis(context.Background(), "../admin?x=1")
	if len(paths) != 1 || paths[0] != "/api/analysis/..%2Fadmin%3Fx=1" {
		t.Errorf("expected the id to stay one escaped segment, got %v", paths)
	}
}

func TestGetAnalyses(t *testing.T) {
	server := setupMockServer(t, map[string]http.HandlerFunc{
		"/api/analysis/": func(w http.ResponseWriter, r *http.Request) {
			checkAuth(t, r)
			w.Write([]byte(`[{"id":"1","status":"feasible","overall_score":7,"analysis_date":"2024-01-01T00:00:00Z"},{"id":"2","status":"improvable","analysis_date":"2024-01-02T00:00:00Z"}]`))
		},
	})

	c := newTestClient(t, server)
	analyses, err := c.GetAnalyses(context.Background())
	if err != nil {
		t.Fatalf("GetAnalyses failed: %v", err)
	}
	if len(analyses) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(analyses))
	}
	if analyses[1].Status != StatusImprovable {
		t.Errorf("expected improvable, got %s", analyses[1].Status)
	}
}

func TestDeleteAnalysis(t *testing.T) {
	var deleted bool
	server := setupMockServer(t, map[string]http.HandlerFunc{
		"/api/analysis/42": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			deleted = true
			w.WriteHeader(http.StatusNoContent)
		},
	})

	c := newTestClient(t, server)
	if err := c.DeleteAnalysis(context.Background(), "42"); err != nil {
		t.Fatalf("DeleteAnalysis failed: %v", err)
	}
	if !deleted {
		t.Error("expected delete request to reach the server")
	}
}

func TestRequest_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	c := newTestClient(t, server)
	server.Close()

	_, err := c.GetAnalyses(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Network error") {
		t.Errorf("expected message to contain 'Network error', got %q", err.Error())
	}
}

func TestRequest_ParseError(t *testing.T) {
	server := setupMockServer(t, map[string]http.HandlerFunc{
		"/api/analysis/": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>oops</html>"))
		},
	})

	c := newTestClient(t, server)
	_, err := c.GetAnalyses(context.Background())
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestUploadImage_Success(t *testing.T) {
	image := []byte(strings.Repeat("x", 64*1024))

	server := setupMockServer(t, map[string]http.HandlerFunc{
		"/api/analysis/": func(w http.ResponseWriter, r *http.Request) {
			checkAuth(t, r)
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				t.Errorf("expected multipart content type, got %q", r.Header.Get("Content-Type"))
			}
			file, header, err := r.FormFile("file")
			if err != nil {
				t.Errorf("expected 'file' field: %v", err)
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			defer file.Close()
			got, _ := io.ReadAll(file)
			if len(got) != len(image) {
				t.Errorf("expected %d bytes, got %d", len(image), len(got))
			}
			if header.Filename != "face.jpg" {
				t.Errorf("expected filename face.jpg, got %q", header.Filename)
			}
			if header.Header.Get("Content-Type") != constants.MIMEJPEG {
				t.Errorf("expected part content type image/jpeg, got %q", header.Header.Get("Content-Type"))
			}
			w.WriteHeader(http.StatusCreated)
			w.Write(feasibleJSON("new", 7.5))
		},
	})

	c := newTestClient(t, server)

	var mu sync.Mutex
	var events []progress.UploadProgress
	analysis, err := c.UploadImage(context.Background(), upload.NewBytesFile("face.jpg", constants.MIMEJPEG, image), func(p progress.UploadProgress) {
		mu.Lock()
		events = append(events, p)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("UploadImage failed: %v", err)
	}
	if analysis.ID != "new" || analysis.Score() != 7.5 {
		t.Errorf("unexpected analysis %+v", analysis)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) == 0 {
		t.Fatal("expected progress events")
	}
	last := 0
	sawUploadBand := false
	for i, ev := range events {
		if ev.Percentage < last {
			t.Errorf("event %d decreased from %d to %d", i, last, ev.Percentage)
		}
		if ev.Percentage <= constants.UploadProgressCeiling {
			sawUploadBand = true
		}
		last = ev.Percentage
	}
	if !sawUploadBand {
		t.Error("expected transport events in the upload band")
	}
	if events[len(events)-1].Percentage != 100 {
		t.Errorf("expected last event at 100, got %d", events[len(events)-1].Percentage)
	}
	for _, ev := range events[:len(events)-1] {
		if ev.Percentage == 100 {
			t.Error("expected 100 only as the final event")
		}
	}
}

func TestUploadTracker_SkipsUnchangedPercentages(t *testing.T) {
	var events []progress.UploadProgress
	tracker := &uploadTracker{
		onProgress: func(p progress.UploadProgress) { events = append(events, p) },
		last:       -1,
	}

	total := int64(10 * 1024 * 1024)
	for loaded := int64(4096); loaded <= total; loaded += 4096 {
		tracker.transferred(loaded, total)
	}

	if len(events) > constants.UploadProgressCeiling+1 {
		t.Errorf("expected at most one event per percentage, got %d events", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Percentage <= events[i-1].Percentage {
			t.Errorf("event %d repeats or lowers the percentage: %d after %d", i, events[i].Percentage, events[i-1].Percentage)
		}
	}
	if got := events[len(events)-1].Percentage; got != constants.UploadProgressCeiling {
		t.Errorf("expected the transport phase to end at %d, got %d", constants.UploadProgressCeiling, got)
	}
}

func TestUploadImage_WithoutProgress(t *testing.T) {
	server := setupMockServer(t, map[string]http.HandlerFunc{
		"/api/analysis/": func(w http.ResponseWriter, r *http.Request) {
			w.Write(feasibleJSON("p", 6))
		},
	})

	c := newTestClient(t, server)
	analysis, err := c.UploadImage(context.Background(), upload.NewBytesFile("a.png", constants.MIMEPNG, []byte("png")), nil)
	if err != nil {
		t.Fatalf("UploadImage failed: %v", err)
	}
	if analysis.ID != "p" {
		t.Errorf("expected id p, got %q", analysis.ID)
	}
}

func TestUploadImage_HTTPErrors(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusRequestEntityTooLarge, http.StatusInternalServerError} {
		server := setupMockServer(t, map[string]http.HandlerFunc{
			"/api/analysis/": func(w http.ResponseWriter, r *http.Request) {
				io.Copy(io.Discard, r.Body)
				w.WriteHeader(status)
				w.Write([]byte(`{"detail":"nope"}`))
			},
		})

		c := newTestClient(t, server)
		var events []progress.UploadProgress
		_, err := c.UploadImage(context.Background(), upload.NewBytesFile("a.jpg", constants.MIMEJPEG, []byte("jpg")), func(p progress.UploadProgress) {
			events = append(events, p)
		})
		if StatusCode(err) != status {
			t.Errorf("expected status %d, got %v", status, err)
		}
		for _, ev := range events {
			if ev.Percentage == 100 {
				t.Errorf("status %d: failed upload must not report 100%%", status)
			}
		}
	}
}

func TestUploadImage_ParseError(t *testing.T) {
	server := setupMockServer(t, map[string]http.HandlerFunc{
		"/api/analysis/": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		},
	})

	c := newTestClient(t, server)
	_, err := c.UploadImage(context.Background(), upload.NewBytesFile("a.jpg", constants.MIMEJPEG, []byte("jpg")), nil)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Failed to parse response") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestUploadImage_Timeout(t *testing.T) {
	server := setupMockServer(t, map[string]http.HandlerFunc{
		"/api/analysis/": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		},
	})

	c := newTestClient(t, server, WithTimeout(50*time.Millisecond))
	_, err := c.UploadImage(context.Background(), upload.NewBytesFile("a.jpg", constants.MIMEJPEG, []byte("jpg")), nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected message to contain 'timeout', got %q", err.Error())
	}
}

func TestUploadImage_Canceled(t *testing.T) {
	server := setupMockServer(t, map[string]http.HandlerFunc{
		"/api/analysis/": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		},
	})

	c := newTestClient(t, server)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := c.UploadImage(ctx, upload.NewBytesFile("a.jpg", constants.MIMEJPEG, []byte("jpg")), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCaptureResponse(t *testing.T) {
	server := setupMockServer(t, map[string]http.HandlerFunc{
		"/api/analysis/7": func(w http.ResponseWriter, r *http.Request) {
			w.Write(feasibleJSON("7", 9))
		},
	})

	dir := t.TempDir()
	c := newTestClient(t, server, WithCaptureDir(dir))
	if _, err := c.GetAnalysis(context.Background(), "7"); err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 captured response, got %d", len(entries))
	}
	if !strings.HasPrefix(entries[0].Name(), "api_analysis_7_") {
		t.Errorf("unexpected capture file name %q", entries[0].Name())
	}
}

func TestAnalysisDate(t *testing.T) {
	a := Analysis{AnalysisDate: "2024-01-15T10:30:00Z"}
	if a.Date().Year() != 2024 || a.Date().Month() != time.January {
		t.Errorf("unexpected date %v", a.Date())
	}
	b := Analysis{AnalysisDate: "garbage"}
	if !b.Date().IsZero() {
		t.Error("expected zero time for unparseable date")
	}
}
