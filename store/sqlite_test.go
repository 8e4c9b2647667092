package store

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_PutGet(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	key := testKey("2025-01-01T00:00:00Z", RoleFundamentals)

	if err := s.EnsureNamespace(ctx, key); err != nil {
		t.Fatalf("EnsureNamespace: %v", err)
	}

	entry := &Entry{
		URL:    "https://example.com/main.css",
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"text/css"}},
		Body:   []byte("body{margin:0}"),
	}
	if err := s.Put(ctx, key, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := s.Get(ctx, key, entry.URL)
	if !ok {
		t.Fatal("Get: expected hit")
	}
	if got.Status != http.StatusOK || string(got.Body) != "body{margin:0}" {
		t.Errorf("Get = %d %q", got.Status, got.Body)
	}
	if got.Header.Get("Content-Type") != "text/css" {
		t.Errorf("header not preserved: %v", got.Header)
	}
}

func TestSQLite_Put_Overwrites(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	key := testKey("2025-01-01T00:00:00Z", RolePages)
	if err := s.EnsureNamespace(ctx, key); err != nil {
		t.Fatal(err)
	}

	url := "https://example.com/index.html"
	for _, body := range []string{"v1", "v2"} {
		if err := s.Put(ctx, key, &Entry{URL: url, Status: 200, Header: http.Header{}, Body: []byte(body)}); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := s.Get(ctx, key, url)
	if string(got.Body) != "v2" {
		t.Errorf("Body = %q, want v2", got.Body)
	}
}

func TestSQLite_Put_NoNamespace(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	key := testKey("2025-01-01T00:00:00Z", RolePages)

	err := s.Put(ctx, key, &Entry{URL: "https://example.com/a", Header: http.Header{}})
	if !errors.Is(err, ErrNoNamespace) {
		t.Errorf("Put = %v, want ErrNoNamespace", err)
	}
}

func TestSQLite_DeleteNamespace_Cascades(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	key := testKey("2025-01-01T00:00:00Z", RoleFundamentals)

	if err := s.EnsureNamespace(ctx, key); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, key, &Entry{URL: "https://example.com/a", Status: 200, Header: http.Header{}}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteNamespace(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get(ctx, key, "https://example.com/a"); ok {
		t.Error("entry survived namespace deletion")
	}
	// Idempotent.
	if err := s.DeleteNamespace(ctx, key); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestSQLite_Namespaces(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	want := []Key{
		testKey("2025-01-01T00:00:00Z", RoleFundamentals),
		testKey("2025-01-01T00:00:00Z", RolePages),
	}
	for _, k := range want {
		if err := s.EnsureNamespace(ctx, k); err != nil {
			t.Fatal(err)
		}
		// Ensure must be idempotent too.
		if err := s.EnsureNamespace(ctx, k); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Namespaces(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("Namespaces = %v, want %d keys", got, len(want))
	}
}

func TestSQLite_CurrentVersion(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	for _, k := range []Key{
		testKey("2025-01-01T00:00:00Z", RoleFundamentals),
		testKey("2025-01-02T00:00:00Z", RoleFundamentals),
		testKey("2025-01-02T00:00:00Z", RolePages),
	} {
		if err := s.EnsureNamespace(ctx, k); err != nil {
			t.Fatal(err)
		}
	}

	got, found, err := CurrentVersion(ctx, s, "offline-cache")
	if err != nil {
		t.Fatal(err)
	}
	if !found || got != "2025-01-02T00:00:00Z" {
		t.Errorf("CurrentVersion = (%q, %v)", got, found)
	}
}

func TestSQLite_Closed(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	key := testKey("2025-01-01T00:00:00Z", RoleFundamentals)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := s.Namespaces(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Namespaces after Close = %v, want ErrClosed", err)
	}
	if err := s.EnsureNamespace(ctx, key); !errors.Is(err, ErrClosed) {
		t.Errorf("EnsureNamespace after Close = %v, want ErrClosed", err)
	}
	if err := s.DeleteNamespace(ctx, key); !errors.Is(err, ErrClosed) {
		t.Errorf("DeleteNamespace after Close = %v, want ErrClosed", err)
	}
	if err := s.Put(ctx, key, &Entry{URL: "https://example.com/a"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Put after Close = %v, want ErrClosed", err)
	}
	if _, ok := s.Get(ctx, key, "https://example.com/a"); ok {
		t.Error("Get after Close should miss")
	}
}
