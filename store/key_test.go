package store

import (
	"errors"
	"testing"
)

// TestKey_EncodeParse_RoundTrip verifies the encode/decode pair.
func TestKey_EncodeParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			"fundamentals with timestamp version",
			Key{Prefix: "offline-cache", Version: "2025-01-01T00:00:00Z", Role: RoleFundamentals},
			"offline-cache:2025-01-01T00:00:00Z::fundamentals",
		},
		{
			"pages role",
			Key{Prefix: "offline-cache", Version: "2025-01-02T00:00:00Z", Role: RolePages},
			"offline-cache:2025-01-02T00:00:00Z::pages",
		},
		{
			"plain version",
			Key{Prefix: "app", Version: "1.0", Role: RoleFundamentals},
			"app:1.0::fundamentals",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.key.Encode()
			if got != tt.want {
				t.Fatalf("Encode() = %q, want %q", got, tt.want)
			}
			back, err := ParseKey(got)
			if err != nil {
				t.Fatalf("ParseKey(%q) error: %v", got, err)
			}
			if back != tt.key {
				t.Errorf("ParseKey(%q) = %+v, want %+v", got, back, tt.key)
			}
		})
	}
}

// TestParseKey_Invalid rejects names that don't match the convention.
func TestParseKey_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no role suffix", "offline-cache:2025-01-01T00:00:00Z"},
		{"no version separator", "offline-cache::pages"},
		{"unknown role", "offline-cache:2025-01-01T00:00:00Z::scratch"},
		{"empty", ""},
		{"role only", "::fundamentals"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseKey(tt.raw); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("ParseKey(%q) error = %v, want ErrInvalidKey", tt.raw, err)
			}
		})
	}
}

// TestKey_NoPrefixCollision verifies that a version being a string
// prefix of another never causes encoded names to be conflated once
// parsed.
func TestKey_NoPrefixCollision(t *testing.T) {
	short := Key{Prefix: "app", Version: "1.0", Role: RoleFundamentals}
	long := Key{Prefix: "app", Version: "1.0.1", Role: RoleFundamentals}

	a, err := ParseKey(short.Encode())
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseKey(long.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if a.Version == b.Version {
		t.Fatalf("versions conflated: %q vs %q", a.Version, b.Version)
	}
	if a != short || b != long {
		t.Errorf("round trip changed keys: %+v, %+v", a, b)
	}
}

// TestKey_Validate covers field validation.
func TestKey_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		wantErr bool
	}{
		{"valid", Key{Prefix: "app", Version: "v", Role: RolePages}, false},
		{"empty prefix", Key{Version: "v", Role: RolePages}, true},
		{"colon in prefix", Key{Prefix: "a:b", Version: "v", Role: RolePages}, true},
		{"empty version", Key{Prefix: "app", Role: RolePages}, true},
		{"role separator in version", Key{Prefix: "app", Version: "a::b", Role: RolePages}, true},
		{"leading colon in version", Key{Prefix: "app", Version: ":2025", Role: RolePages}, true},
		{"trailing colon in version", Key{Prefix: "app", Version: "2025:", Role: RolePages}, true},
		{"bad role", Key{Prefix: "app", Version: "v", Role: Role("other")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				back, perr := ParseKey(tt.key.Encode())
				if perr != nil || back != tt.key {
					t.Errorf("Encode/ParseKey round trip: %v, %+v", perr, back)
				}
			}
		})
	}
}
