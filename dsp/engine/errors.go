package engine

import "errors"

var (
	// ErrNoBackend is returned when no backend is registered under a name.
	ErrNoBackend = errors.New("engine: no such backend")

	// ErrBackendUnavailable is returned when a backend is registered but cannot run here.
	ErrBackendUnavailable = errors.New("engine: backend unavailable")

	// ErrInvalidPlan is returned for plan specs the backend cannot build.
	ErrInvalidPlan = errors.New("engine: invalid plan")

	// ErrLengthMismatch is returned when host or device buffers are too small.
	ErrLengthMismatch = errors.New("engine: length mismatch")

	// ErrForeignObject is returned when a buffer or queue from another context is passed in.
	ErrForeignObject = errors.New("engine: object belongs to another context")

	// ErrClosed is returned when a released object is used.
	ErrClosed = errors.New("engine: use of released object")
)
