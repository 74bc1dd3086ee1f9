package catalog

import "fmt"

// APIError is returned when the catalog answers with a non-2xx status.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}
