package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized covers bad credentials, expired tokens and rejected
	// refresh attempts (upstream 401/403).
	ErrUnauthorized = errors.New("backend: unauthorized")

	// ErrNotFound means the upstream does not know the requested call id.
	ErrNotFound = errors.New("backend: call not found")
)

// statusError maps an unexpected upstream status to an error. Known statuses
// collapse onto the sentinel values so callers can branch with errors.Is.
func statusError(method, path string, status int) error {
	switch status {
	case 401, 403:
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	case 404:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	default:
		return fmt.Errorf("backend: %s %s: unexpected status %d", method, path, status)
	}
}
