package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Provider resolves secret references by name.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not log resolved values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// Registry holds the secret providers available to config loading.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a registry with the env provider pre-registered.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	_ = r.Register(envProvider{})
	return r
}

// Register adds a provider. Registering a duplicate name is an error.
func (r *Registry) Register(p Provider) error {
	if p == nil || strings.TrimSpace(p.Name()) == "" {
		return fmt.Errorf("config: invalid provider registration")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name := strings.TrimSpace(p.Name())
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("config: provider %q already registered", name)
	}
	r.providers[name] = p
	return nil
}

// List returns the registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const refPrefix = "secretref:"

// ParseRef splits a value of the form secretref:<provider>:<ref>.
func ParseRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, refPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}

// ResolveValue expands environment variables in value and, when the
// result is a secret reference, resolves it through a provider. A
// reference to an unregistered provider is an error.
func (r *Registry) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnv(value)
	if err != nil {
		return "", err
	}

	provider, ref, ok := ParseRef(expanded)
	if !ok {
		return expanded, nil
	}

	r.mu.RLock()
	p, registered := r.providers[provider]
	r.mu.RUnlock()
	if !registered {
		return "", fmt.Errorf("config: secret provider %q is not registered", provider)
	}

	resolved, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s:%s: %w", provider, ref, err)
	}
	return resolved, nil
}

// envProvider resolves references from the process environment.
type envProvider struct{}

func (envProvider) Name() string { return "env" }

func (envProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("environment variable %q is not set", ref)
	}
	return v, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv expands ${VAR} references in s, erroring on unset
// variables. `$$` emits a literal `$`.
func ExpandEnv(s string) (string, error) {
	const dollarSentinel = "\x00OFFLINECACHE_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok {
			missing[match[1]] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("config: missing required environment variables: %s", strings.Join(keys, ", "))
	}

	s = os.ExpandEnv(s)
	return strings.ReplaceAll(s, dollarSentinel, "$"), nil
}

var _ Provider = envProvider{}
