package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for configuration validation.
var (
	ErrMissingManifestURL = errors.New("config: manifest.url is required")
	ErrInvalidPrefix      = errors.New("config: prefix must not contain ':'")
	ErrUnknownStoreDriver = errors.New("config: unknown store driver")
	ErrMissingStorePath   = errors.New("config: store.path is required for the sqlite driver")
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the daemon configuration.
type Config struct {
	// Prefix is the cache namespace prefix. Colons are reserved by the
	// namespace encoding.
	Prefix string `yaml:"prefix"`

	Manifest  ManifestConfig  `yaml:"manifest"`
	AppShell  AppShellConfig  `yaml:"app_shell"`
	Store     StoreConfig     `yaml:"store"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ManifestConfig locates and authenticates the deployment manifest.
type ManifestConfig struct {
	// URL is the manifest's absolute well-known location. Required.
	URL string `yaml:"url"`

	// Root overrides the deployment root assets resolve against.
	// Default: the manifest URL's origin.
	Root string `yaml:"root"`

	// SignatureKey, when set, is the HMAC key for the manifest's
	// detached signature. Supports secretref resolution.
	SignatureKey string `yaml:"signature_key"`
}

// AppShellConfig names the always-cached application shell paths.
type AppShellConfig struct {
	RootDocument    string `yaml:"root_document"`
	OfflineDocument string `yaml:"offline_document"`
	WebManifest     string `yaml:"web_manifest"`
	Icon            string `yaml:"icon"`
}

// StoreConfig selects and configures the resource store.
type StoreConfig struct {
	// Driver is "memory" or "sqlite". Default: "memory".
	Driver string `yaml:"driver"`

	// Path is the database file for the sqlite driver.
	Path string `yaml:"path"`

	// BusyTimeout is the sqlite busy timeout. Default: 5s.
	BusyTimeout Duration `yaml:"busy_timeout"`
}

// FetchConfig tunes resource fetching.
type FetchConfig struct {
	Concurrency int      `yaml:"concurrency"`
	Attempts    int      `yaml:"attempts"`
	Delay       Duration `yaml:"delay"`
	Timeout     Duration `yaml:"timeout"`
}

// ServerConfig configures the hosting HTTP server.
type ServerConfig struct {
	// Listen is the bind address. Default: ":8380".
	Listen string `yaml:"listen"`

	// Upstream is the origin the host proxies non-intercepted requests
	// to. Default: the manifest URL's origin.
	Upstream string `yaml:"upstream"`

	// ShutdownGrace bounds graceful shutdown. Default: 10s.
	ShutdownGrace Duration `yaml:"shutdown_grace"`
}

// TelemetryConfig configures tracing, metrics and logging.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`

	Tracing struct {
		Enabled   bool    `yaml:"enabled"`
		Exporter  string  `yaml:"exporter"`
		SamplePct float64 `yaml:"sample_pct"`
	} `yaml:"tracing"`

	Metrics struct {
		Enabled  bool   `yaml:"enabled"`
		Exporter string `yaml:"exporter"`
	} `yaml:"metrics"`

	Logging struct {
		Enabled bool   `yaml:"enabled"`
		Level   string `yaml:"level"`
	} `yaml:"logging"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "250ms" or "10s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (c *Config) applyDefaults() {
	if c.Prefix == "" {
		c.Prefix = "offline-cache"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}
	if c.Store.BusyTimeout == 0 {
		c.Store.BusyTimeout = Duration(5 * time.Second)
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8380"
	}
	if c.Server.ShutdownGrace == 0 {
		c.Server.ShutdownGrace = Duration(10 * time.Second)
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "offlinecached"
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if strings.Contains(c.Prefix, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, c.Prefix)
	}
	if c.Manifest.URL == "" {
		return ErrMissingManifestURL
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			return ErrMissingStorePath
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreDriver, c.Store.Driver)
	}
	return nil
}
