package config

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("CFG_HOST", "app.example")

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "no vars here", "no vars here", false},
		{"braced", "https://${CFG_HOST}/m.js", "https://app.example/m.js", false},
		{"escaped dollar", "cost is $$5", "cost is $5", false},
		{"missing", "${CFG_DOES_NOT_EXIST}", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandEnv(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		ref      string
		ok       bool
	}{
		{"secretref:env:TOKEN", "env", "TOKEN", true},
		{"secretref:vault:kv/data/app#key", "vault", "kv/data/app#key", true},
		{"plain value", "", "", false},
		{"secretref:env:", "", "", false},
		{"secretref::TOKEN", "", "", false},
	}
	for _, tt := range tests {
		provider, ref, ok := ParseRef(tt.in)
		if ok != tt.ok || provider != tt.provider || ref != tt.ref {
			t.Errorf("ParseRef(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, provider, ref, ok, tt.provider, tt.ref, tt.ok)
		}
	}
}

type staticProvider struct {
	name   string
	values map[string]string
}

func (p staticProvider) Name() string { return p.name }

func (p staticProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := p.values[ref]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestRegistry_ResolveValue(t *testing.T) {
	t.Setenv("CFG_SECRET", "hunter2")

	r := NewRegistry()
	if err := r.Register(staticProvider{name: "static", values: map[string]string{"k": "v"}}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	ctx := context.Background()

	got, err := r.ResolveValue(ctx, "secretref:env:CFG_SECRET")
	if err != nil || got != "hunter2" {
		t.Fatalf("env ref = %q, %v", got, err)
	}

	got, err = r.ResolveValue(ctx, "secretref:static:k")
	if err != nil || got != "v" {
		t.Fatalf("static ref = %q, %v", got, err)
	}

	got, err = r.ResolveValue(ctx, "just a value")
	if err != nil || got != "just a value" {
		t.Fatalf("passthrough = %q, %v", got, err)
	}

	if _, err := r.ResolveValue(ctx, "secretref:vault:whatever"); err == nil {
		t.Fatal("unregistered provider must error")
	}
	if _, err := r.ResolveValue(ctx, "secretref:env:CFG_NOPE"); err == nil {
		t.Fatal("unset env ref must error")
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(staticProvider{name: "env"}); err == nil {
		t.Fatal("duplicate name must error")
	}
	if err := r.Register(nil); err == nil {
		t.Fatal("nil provider must error")
	}
	if got := strings.Join(r.List(), ","); got != "env" {
		t.Fatalf("List = %q", got)
	}
}
