// Package manifest retrieves and parses the remotely published
// manifest that drives pre-caching: an opaque sortable version string
// plus an ordered list of resource paths.
//
// The payload is a small script-like text; the parser extracts the two
// required statements by structural pattern matching and never
// evaluates payload content.
package manifest
