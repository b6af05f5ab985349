package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PabloViniegra/how-are-u/internal/beautyapi"
	"github.com/PabloViniegra/how-are-u/internal/config"
	"github.com/PabloViniegra/how-are-u/internal/progress"
	"github.com/PabloViniegra/how-are-u/internal/upload"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			URL: "http://localhost:8000",
			Key: "test-key",
		},
		Web: config.WebConfig{
			PublicURL: "https://how-are-u.example.com",
		},
	}
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// setupMockAPIServer creates a mock analysis API for handler tests
func setupMockAPIServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func instantTimer(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

// createAPIClient creates an API client connected to a mock server
func createAPIClient(t *testing.T, server *httptest.Server) *beautyapi.Client {
	t.Helper()
	client, err := beautyapi.New(server.URL, "test-key",
		beautyapi.WithBlender(progress.NewBlender(progress.WithTimer(instantTimer))))
	if err != nil {
		t.Fatalf("failed to create API client: %v", err)
	}
	return client
}

// writeAnalysis writes an analysis wrapped in the API envelope
func writeAnalysis(w http.ResponseWriter, a beautyapi.Analysis) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(beautyapi.Response[beautyapi.Analysis]{Success: true, Data: a})
}

func feasibleAnalysis(id string, score float64) beautyapi.Analysis {
	return beautyapi.Analysis{
		ID:           id,
		Status:       beautyapi.StatusFeasible,
		OverallScore: beautyapi.Float(score),
		DetailedScores: map[string]float64{
			"facial_symmetry": 8.2,
			"skin_quality":    7.8,
		},
		AdditionalScores: map[string]float64{
			"attractiveness": 8.3,
		},
		ScientificExplanation: "Balanced proportions",
		Recommendations:       "Keep hydrated",
		AnalysisDate:          "2024-01-15T10:30:00Z",
	}
}

// multipartRequest builds an upload request with one file part
func multipartRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// mockClient is a configurable analysis client
type mockClient struct {
	uploadFn   func(ctx context.Context, file *upload.File, onProgress func(progress.UploadProgress)) (*beautyapi.Analysis, error)
	getFn      func(ctx context.Context, id string) (*beautyapi.Analysis, error)
	analysesFn func(ctx context.Context) ([]beautyapi.Analysis, error)
}

func (m *mockClient) UploadImage(ctx context.Context, file *upload.File, onProgress func(progress.UploadProgress)) (*beautyapi.Analysis, error) {
	return m.uploadFn(ctx, file, onProgress)
}

func (m *mockClient) GetAnalysis(ctx context.Context, id string) (*beautyapi.Analysis, error) {
	return m.getFn(ctx, id)
}

func (m *mockClient) GetAnalyses(ctx context.Context) ([]beautyapi.Analysis, error) {
	return m.analysesFn(ctx)
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// waitForTerminal waits until the job reaches a terminal status
func waitForTerminal(t *testing.T, job *AnalysisJob) JobView {
	t.Helper()
	waitFor(t, "job to finish", func() bool { return isJobTerminal(job.GetStatus()) })
	return job.View()
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
