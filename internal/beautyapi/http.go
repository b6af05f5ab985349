package beautyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/PabloViniegra/how-are-u/internal/constants"
)

// doRequestJSON performs a JSON request and decodes the response into T.
// Non-2xx responses become *HTTPError, transport failures ErrNetwork or
// ErrTimeout, undecodable bodies ErrParse.
func doRequestJSON[T any](ctx context.Context, c *Client, method, endpoint string, requestBody any) (*Response[T], error) {
	resp, err := doRequest[T](ctx, c, method, endpoint, requestBody)
	if err != nil {
		slog.Error("API request failed", "method", method, "endpoint", endpoint, "error", err)
		return nil, err
	}
	return resp, nil
}

func doRequest[T any](ctx context.Context, c *Client, method, endpoint string, requestBody any) (*Response[T], error) {
	var bodyReader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.resolveURL(endpoint), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	c.setAuthHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	c.captureResponse(endpoint, body)

	return decodeResponse[T](body)
}

// decodeResponse accepts either a bare payload or a {success, data} envelope.
// An empty body decodes to a successful response with zero data.
func decodeResponse[T any](body []byte) (*Response[T], error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return &Response[T]{Success: true}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err == nil {
		_, hasData := probe["data"]
		_, hasSuccess := probe["success"]
		if hasData && hasSuccess {
			var envelope Response[T]
			if err := json.Unmarshal(body, &envelope); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrParse, err)
			}
			return &envelope, nil
		}
	}

	var data T
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &Response[T]{Success: true, Data: data}, nil
}

// transportError classifies a failed exchange. A caller cancellation is
// returned as is so it can be told apart from real failures.
func transportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// GetAnalyses fetches every analysis known to the API.
func (c *Client) GetAnalyses(ctx context.Context) ([]Analysis, error) {
	resp, err := doRequestJSON[[]Analysis](ctx, c, http.MethodGet, constants.AnalysisEndpoint, nil)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// analysisPath returns the endpoint of one analysis. The id is escaped as a
// single path segment.
func analysisPath(id string) (string, error) {
	switch strings.TrimSpace(id) {
	case "", ".", "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return constants.AnalysisItemEndpoint + "/" + url.PathEscape(id), nil
}

// GetAnalysis fetches a single analysis by id.
func (c *Client) GetAnalysis(ctx context.Context, id string) (*Analysis, error) {
	endpoint, err := analysisPath(id)
	if err != nil {
		return nil, err
	}
	resp, err := doRequestJSON[Analysis](ctx, c, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// DeleteAnalysis deletes an analysis by id.
func (c *Client) DeleteAnalysis(ctx context.Context, id string) error {
	endpoint, err := analysisPath(id)
	if err != nil {
		return err
	}
	_, err = doRequestJSON[json.RawMessage](ctx, c, http.MethodDelete, endpoint, nil)
	return err
}
