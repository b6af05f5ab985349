package beautyapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"

	"github.com/PabloViniegra/how-are-u/internal/constants"
	"github.com/PabloViniegra/how-are-u/internal/progress"
	"github.com/PabloViniegra/how-are-u/internal/upload"
)

// UploadImage posts file for analysis and returns the resulting Analysis.
//
// When onProgress is set it receives the transport progress scaled to 0-70%.
// Once the last byte is sent a simulated analysis phase animates 70-99%
// while the response is awaited; on a successful response a final 100% event
// is emitted before UploadImage returns. Failed uploads stop the animation
// without reaching 100%.
func (c *Client) UploadImage(ctx context.Context, file *upload.File, onProgress func(progress.UploadProgress)) (*Analysis, error) {
	analysis, err := c.uploadImage(ctx, file, onProgress)
	if err != nil {
		slog.Error("image upload failed", "file", file.Name, "error", err)
		return nil, err
	}
	return analysis, nil
}

func (c *Client) uploadImage(ctx context.Context, file *upload.File, onProgress func(progress.UploadProgress)) (*Analysis, error) {
	body, contentType, err := buildMultipart(file)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tracker := &uploadTracker{blender: c.blender, onProgress: onProgress, last: -1}
	reader := &progressReader{
		r:       bytes.NewReader(body),
		total:   int64(len(body)),
		tracker: tracker,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(constants.AnalysisEndpoint), reader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.ContentLength = int64(len(body))

	c.setAuthHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		tracker.stop(false)
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		tracker.stop(false)
		return nil, transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		tracker.stop(false)
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(respBody)}
	}

	decoded, err := decodeResponse[Analysis](respBody)
	if err != nil {
		tracker.stop(false)
		return nil, err
	}

	c.captureResponse(constants.AnalysisEndpoint, respBody)

	tracker.stop(true)
	return &decoded.Data, nil
}

// buildMultipart encodes file as the single "file" field of a multipart form.
func buildMultipart(file *upload.File) ([]byte, string, error) {
	content, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("could not open file: %w", err)
	}
	defer content.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, constants.UploadFieldName, file.Name))
	header.Set("Content-Type", file.Type)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, "", fmt.Errorf("could not copy file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("could not close writer: %w", err)
	}

	return body.Bytes(), writer.FormDataContentType(), nil
}

// uploadTracker orders the progress events of one upload: transport events
// first, then the simulated phase, then at most one final event. Nothing is
// emitted after stop.
type uploadTracker struct {
	blender    *progress.Blender
	onProgress func(progress.UploadProgress)

	mu      sync.Mutex
	stopped bool
	sim     *progress.Simulation
	last    int // last transport percentage, -1 before the first event
}

func (t *uploadTracker) transferred(loaded, total int64) {
	if t.onProgress == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.sim != nil {
		return
	}
	percentage := progress.Scale(loaded, total, constants.UploadProgressCeiling)
	if percentage == t.last {
		return
	}
	t.last = percentage
	t.onProgress(progress.UploadProgress{
		Loaded:     loaded,
		Total:      total,
		Percentage: percentage,
	})
}

func (t *uploadTracker) sent() {
	if t.onProgress == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.sim != nil {
		return
	}
	t.sim = t.blender.Simulate(t.onProgress, constants.UploadProgressCeiling, constants.ProgressComplete, nil)
}

// stop ends the upload's progress stream. With success the animation jumps
// to 100%; a response that arrived before the body was fully sent still
// gets its final event.
func (t *uploadTracker) stop(success bool) {
	if t.onProgress == nil {
		return
	}
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	sim := t.sim
	t.mu.Unlock()

	switch {
	case sim != nil && success:
		sim.Finish()
	case sim != nil:
		sim.Abort()
	case success:
		t.onProgress(progress.UploadProgress{Loaded: 100, Total: 100, Percentage: constants.ProgressComplete})
	}
}

// progressReader reports how much of the request body the transport has read.
type progressReader struct {
	r       io.Reader
	total   int64
	loaded  int64
	tracker *uploadTracker
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.loaded += int64(n)
		p.tracker.transferred(p.loaded, p.total)
	}
	if p.loaded >= p.total || err == io.EOF {
		p.tracker.sent()
	}
	return n, err
}
