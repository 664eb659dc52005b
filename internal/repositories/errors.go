package repositories

import "errors"

var ErrNotFound = errors.New("not found")

// Store failure classes. Callers branch on these with errors.Is;
// ErrUnavailable is the only retryable one.
var (
	ErrUnavailable      = errors.New("store unavailable")
	ErrPermissionDenied = errors.New("store permission denied")
	ErrMalformed        = errors.New("store data malformed")
)
