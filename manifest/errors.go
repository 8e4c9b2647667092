package manifest

import (
	"errors"
	"fmt"
)

// Sentinel errors for manifest retrieval and parsing.
var (
	// ErrFetch wraps transport failures and non-success statuses.
	ErrFetch = errors.New("manifest: fetch failed")

	// ErrParse wraps structural parse failures.
	ErrParse = errors.New("manifest: parse failed")

	// ErrMissingVersion indicates no version assignment was found.
	ErrMissingVersion = errors.New("manifest: version statement not found")

	// ErrMissingAssets indicates no asset list literal was found.
	ErrMissingAssets = errors.New("manifest: asset list not found")

	// ErrBadSignature indicates the detached signature did not verify.
	ErrBadSignature = errors.New("manifest: signature verification failed")
)

// FetchError carries transport-level detail about a failed retrieval.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("manifest: fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("manifest: fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrFetch
}

// Is lets errors.Is(err, ErrFetch) match any FetchError.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }
