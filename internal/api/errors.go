package api

import "fmt"

// ConnectionError means the request never produced an HTTP response:
// DNS failure, refused connection, or timeout. The client never retries;
// callers may.
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthenticationError maps HTTP 401: the API key itself was rejected.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// AuthorizationError maps HTTP 403: the key is valid but lacks permission
// for the requested resource.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// APIError maps any other >=400 response. Body holds at most the first
// 500 characters of the response for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}
