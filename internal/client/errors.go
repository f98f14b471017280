package client

import "fmt"

// TransportError is returned for any network failure or non-success response.
// The cause is preserved opaquely; callers render it, they do not interpret
// error bodies.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: request failed: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: HTTP error %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
