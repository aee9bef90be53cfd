package retry

import "fmt"

// HTTPError represents a non-2xx response from an upstream service.
type HTTPError struct {
	StatusCode int    // HTTP status code
	Body       string // Response body
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: status=%d, body=%s", e.StatusCode, e.Body)
}
