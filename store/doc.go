// Package store provides the versioned resource store backing the
// offline cache.
//
// It models namespaces as parsed {prefix, version, role} keys with an
// explicit encode/decode pair, and provides memory and SQLite-backed
// implementations of the Store interface.
package store
