package beautyapi

import (
	"errors"
	"fmt"
	"strings"
)

// Transport failures. The messages are matched by the user-facing error
// mapping, so they must stay as they are.
var (
	ErrNetwork = errors.New("Network error occurred")   //nolint:staticcheck // matched by message
	ErrTimeout = errors.New("Request timeout")          //nolint:staticcheck // matched by message
	ErrParse   = errors.New("Failed to parse response") //nolint:staticcheck // matched by message
)

// ErrInvalidID is returned for an analysis id that cannot name a single
// resource, such as "" or "..".
var ErrInvalidID = errors.New("invalid analysis id")

// HTTPError is returned when the API answers with a non-2xx status.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// StatusCode returns the HTTP status of err, or 0 if err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// IsNotFoundError returns true if the error indicates a 404 Not Found response.
func IsNotFoundError(err error) bool {
	return StatusCode(err) == 404 || (err != nil && strings.Contains(err.Error(), "status: 404"))
}
