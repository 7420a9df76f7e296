package fetcher

import (
	"errors"
	"fmt"
)

// DefaultErrorMessage is used when neither the response body nor the status
// line provide a message.
const DefaultErrorMessage = "Unknown API error"

// APIError is returned for responses whose status is outside 200-399.
// Transport failures are never reported as APIError.
type APIError struct {
	Message string `json:"message"`
	URL     string `json:"url"`
	Status  int    `json:"status"`
	// Data is the decoded JSON body, or the body text for non-JSON responses.
	Data any `json:"data"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s (%s)", e.Status, e.Message, e.URL)
}

// AsAPIError returns the *APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == status
}

// DecodeError is returned by Fetch when a successful body cannot be assigned
// to the requested type.
type DecodeError struct {
	URL         string
	ContentType string
	Target      string
	Err         error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s response from %s into %s: %v", e.ContentType, e.URL, e.Target, e.Err)
	}
	return fmt.Sprintf("decode %s response from %s into %s", e.ContentType, e.URL, e.Target)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
