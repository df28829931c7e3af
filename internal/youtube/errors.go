package youtube

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentifier means the input is empty or cannot be read as a
	// channel ID, handle or channel URL.
	ErrInvalidIdentifier = errors.New("invalid channel identifier")
	// ErrResolutionFailed means a handle could not be mapped to a channel ID.
	ErrResolutionFailed = errors.New("channel resolution failed")
	// ErrFetchFailed means a page request failed or returned nothing usable.
	ErrFetchFailed = errors.New("fetch failed")

	errEmptyBody = errors.New("empty response body")
)

// FetchError describes a failed page request. Status is zero when no HTTP
// response was received. Body holds whatever the server sent back, for
// diagnostics.
type FetchError struct {
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("failed to fetch %s: HTTP %d: %v", e.URL, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("failed to fetch %s: HTTP %d", e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("failed to fetch %s", e.URL)
	}
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetchFailed}
	}
	return []error{ErrFetchFailed, e.Err}
}

// StatusCode returns the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}

// ResponseBody returns the error response body carried by err, if any.
func ResponseBody(err error) (string, bool) {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Body != "" {
		return fe.Body, true
	}
	return "", false
}
