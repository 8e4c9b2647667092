package store

import "errors"

// Sentinel errors for store operations.
var (
	// ErrInvalidKey is returned when a namespace key fails validation
	// or a raw namespace name cannot be decoded.
	ErrInvalidKey = errors.New("store: invalid namespace key")

	// ErrNoNamespace is returned by Put when the target namespace has
	// not been created.
	ErrNoNamespace = errors.New("store: namespace does not exist")

	// ErrInvalidEntry is returned when an entry has no URL.
	ErrInvalidEntry = errors.New("store: entry URL is required")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: store is closed")
)
