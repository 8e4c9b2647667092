package config

import (
	"context"
	"errors"
	"testing"
	"time"
)

const fullDocument = `
prefix: shop
manifest:
  url: https://shop.example/sw-manifest.js
  signature_key: secretref:env:CFG_MANIFEST_KEY
app_shell:
  root_document: /
  offline_document: /offline.html
store:
  driver: sqlite
  path: /var/lib/offlinecache/shop.db
  busy_timeout: 2s
fetch:
  concurrency: 4
  attempts: 3
  delay: 250ms
  timeout: 10s
server:
  listen: ":9000"
  upstream: https://shop.example
telemetry:
  service_name: shop-cache
  logging:
    enabled: true
    level: info
`

func TestParse_FullDocument(t *testing.T) {
	t.Setenv("CFG_MANIFEST_KEY", "k3y")

	cfg, err := Parse(context.Background(), []byte(fullDocument), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Prefix != "shop" {
		t.Errorf("Prefix = %q", cfg.Prefix)
	}
	if cfg.Manifest.SignatureKey != "k3y" {
		t.Errorf("SignatureKey = %q, want resolved secret", cfg.Manifest.SignatureKey)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Store.BusyTimeout.Std() != 2*time.Second {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Fetch.Delay.Std() != 250*time.Millisecond || cfg.Fetch.Attempts != 3 {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	if cfg.Server.Listen != ":9000" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	if cfg.Telemetry.ServiceName != "shop-cache" || !cfg.Telemetry.Logging.Enabled {
		t.Errorf("Telemetry = %+v", cfg.Telemetry)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(context.Background(),
		[]byte("manifest:\n  url: https://app.example/m.js\n"), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Prefix != "offline-cache" {
		t.Errorf("Prefix default = %q", cfg.Prefix)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Errorf("Driver default = %q", cfg.Store.Driver)
	}
	if cfg.Server.Listen != ":8380" {
		t.Errorf("Listen default = %q", cfg.Server.Listen)
	}
	if cfg.Server.ShutdownGrace.Std() != 10*time.Second {
		t.Errorf("ShutdownGrace default = %v", cfg.Server.ShutdownGrace.Std())
	}
	if cfg.Telemetry.ServiceName != "offlinecached" {
		t.Errorf("ServiceName default = %q", cfg.Telemetry.ServiceName)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"empty document", "", ErrMissingManifestURL},
		{
			"prefix with colon",
			"prefix: \"a:b\"\nmanifest:\n  url: https://x/m.js\n",
			ErrInvalidPrefix,
		},
		{
			"unknown driver",
			"manifest:\n  url: https://x/m.js\nstore:\n  driver: redis\n",
			ErrUnknownStoreDriver,
		},
		{
			"sqlite without path",
			"manifest:\n  url: https://x/m.js\nstore:\n  driver: sqlite\n",
			ErrMissingStorePath,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tt.doc), nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse(context.Background(),
		[]byte("manifest:\n  url: https://x/m.js\nbogus: true\n"), nil)
	if err == nil {
		t.Fatal("unknown top-level field must be rejected")
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse(context.Background(),
		[]byte("manifest:\n  url: https://x/m.js\nfetch:\n  timeout: soon\n"), nil)
	if err == nil {
		t.Fatal("unparseable duration must be rejected")
	}
}
