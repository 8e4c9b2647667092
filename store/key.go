package store

import (
	"fmt"
	"strings"
)

// Role distinguishes the two namespace kinds a version owns.
type Role string

const (
	// RoleFundamentals holds the immutable pre-cached manifest assets
	// plus the fixed app-shell documents.
	RoleFundamentals Role = "fundamentals"

	// RolePages holds best-effort runtime captures of fetched responses
	// used for offline fallback.
	RolePages Role = "pages"
)

// roleSep separates the role suffix from the rest of the encoded name.
// It is distinct from the prefix separator so that version strings may
// contain single colons (ISO-8601 timestamps do).
const roleSep = "::"

// Key identifies a versioned namespace.
//
// Keys are compared field-wise on the parsed record, never by encoded
// string prefix, so a version that happens to be a prefix of another
// ("1.0" vs "1.0.1") can never collide.
type Key struct {
	Prefix  string
	Version string
	Role    Role
}

// Validate checks that the key can round-trip through Encode/ParseKey.
func (k Key) Validate() error {
	if k.Prefix == "" || strings.Contains(k.Prefix, ":") {
		return fmt.Errorf("%w: prefix %q", ErrInvalidKey, k.Prefix)
	}
	// A leading or trailing colon would merge with the adjacent
	// separator into "::" and shift the role cut in ParseKey.
	if k.Version == "" || strings.Contains(k.Version, roleSep) ||
		strings.HasPrefix(k.Version, ":") || strings.HasSuffix(k.Version, ":") {
		return fmt.Errorf("%w: version %q", ErrInvalidKey, k.Version)
	}
	if k.Role != RoleFundamentals && k.Role != RolePages {
		return fmt.Errorf("%w: role %q", ErrInvalidKey, k.Role)
	}
	return nil
}

// Encode renders the key in the persisted "<prefix>:<version>::<role>" form.
func (k Key) Encode() string {
	return k.Prefix + ":" + k.Version + roleSep + string(k.Role)
}

// String implements fmt.Stringer.
func (k Key) String() string { return k.Encode() }

// ParseKey decodes a persisted namespace name. It is strict: names that
// do not match the convention return ErrInvalidKey.
func ParseKey(name string) (Key, error) {
	body, role, ok := strings.Cut(name, roleSep)
	if !ok {
		return Key{}, fmt.Errorf("%w: %q has no role suffix", ErrInvalidKey, name)
	}
	prefix, version, ok := strings.Cut(body, ":")
	if !ok {
		return Key{}, fmt.Errorf("%w: %q has no version", ErrInvalidKey, name)
	}
	k := Key{Prefix: prefix, Version: version, Role: Role(role)}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}
