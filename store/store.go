package store

import (
	"context"
	"net/http"
	"time"
)

// Entry is a cached response snapshot: body bytes plus the headers and
// status observed at capture time. Entries are disposable; a successful
// refresh overwrites the previous snapshot wholesale.
type Entry struct {
	// URL is the normalized absolute request identity.
	URL string

	// Status is the response status code at capture time.
	Status int

	// Header is the response header snapshot.
	Header http.Header

	// Body is the response body.
	Body []byte

	// CapturedAt records when the snapshot was taken.
	CapturedAt time.Time
}

// Clone returns a deep copy of the entry so callers can mutate the
// result without affecting the stored value.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	out := &Entry{
		URL:        e.URL,
		Status:     e.Status,
		Header:     e.Header.Clone(),
		Body:       make([]byte, len(e.Body)),
		CapturedAt: e.CapturedAt,
	}
	copy(out.Body, e.Body)
	return out
}

// Store is the interface to a versioned resource store.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
//   Writes to the same (namespace, URL) follow last-write-wins; no
//   transaction isolation is provided or expected.
// - Context: methods should honor cancellation/deadlines.
// - Errors: Get never errors; it returns (nil, false) on miss or when
//   the namespace is absent. DeleteNamespace is idempotent.
type Store interface {
	// Namespaces lists every decodable namespace key present.
	Namespaces(ctx context.Context) ([]Key, error)

	// EnsureNamespace creates the namespace if it does not exist.
	EnsureNamespace(ctx context.Context, key Key) error

	// DeleteNamespace removes the namespace and all its entries.
	// Deleting an absent namespace is a no-op.
	DeleteNamespace(ctx context.Context, key Key) error

	// Get retrieves the entry stored under the normalized URL.
	Get(ctx context.Context, key Key, url string) (*Entry, bool)

	// Put stores an entry, overwriting any previous snapshot for the
	// same URL. Returns ErrNoNamespace if the namespace was never
	// created.
	Put(ctx context.Context, key Key, entry *Entry) error
}
