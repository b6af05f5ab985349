// Package beautyapi is a client for the remote facial analysis API.
//
// The API is consumed as a black box: images are posted as multipart uploads
// and come back as scored Analysis documents that can later be fetched by id.
// Every request carries the API key both as X-API-Key and as a bearer token.
package beautyapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PabloViniegra/how-are-u/internal/constants"
	"github.com/PabloViniegra/how-are-u/internal/progress"
)

// Client represents a client for the analysis API
type Client struct {
	BaseURL    string
	parsedURL  *url.URL
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
	blender    *progress.Blender
	captureDir string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each request, uploads included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBlender sets the animation used for the post-upload phase.
func WithBlender(b *progress.Blender) Option {
	return func(c *Client) {
		c.blender = b
	}
}

// WithCaptureDir saves every JSON response body into dir.
func WithCaptureDir(dir string) Option {
	return func(c *Client) {
		c.captureDir = dir
	}
}

// New creates a client for the API at rawURL authenticating with apiKey.
func New(rawURL, apiKey string, opts ...Option) (*Client, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("API URL is required")
	}
	parsed, err := url.Parse(strings.TrimSuffix(rawURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: scheme and host are required", rawURL)
	}

	c := &Client{
		BaseURL:    parsed.String(),
		parsedURL:  parsed,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		timeout:    constants.DefaultUploadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.blender == nil {
		c.blender = progress.NewBlender()
	}
	if c.captureDir != "" {
		if err := c.SetCaptureDir(c.captureDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// resolveURL builds a full URL from the base URL and the given path segments.
// A trailing slash on the last segment is kept, the API distinguishes
// "api/analysis/" from "api/analysis".
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// setAuthHeaders attaches the API key to req.
func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// SetCaptureDir enables API response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Client) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}

// captureResponse saves the API response body to a file if capturing is enabled.
func (c *Client) captureResponse(endpoint string, body []byte) {
	if c.captureDir == "" {
		return
	}

	name := strings.Trim(strings.ReplaceAll(endpoint, "/", "_"), "_")
	name = fmt.Sprintf("%s_%s.json", name, time.Now().Format("20060102_150405.000"))
	path := filepath.Join(c.captureDir, name)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err == nil {
		body = pretty.Bytes()
	}

	if err := os.WriteFile(path, body, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to capture response to %s: %v\n", path, err)
	}
}
