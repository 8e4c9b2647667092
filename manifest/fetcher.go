package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/golang-jwt/jwt/v5"
)

// MaxPayloadSize caps how much of the manifest body is read.
const MaxPayloadSize = 1 << 20

// SignatureHeader is the response header carrying the optional detached
// JWS over the payload digest.
const SignatureHeader = "X-Manifest-Signature"

// Fetcher retrieves and parses the manifest from its well-known
// location, normalizing asset paths against the deployment root.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: transport failures and non-success statuses return a
//   FetchError (matches ErrFetch); malformed payloads match ErrParse.
type Fetcher struct {
	location *url.URL
	root     *url.URL
	client   *http.Client
	keyfunc  jwt.Keyfunc
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client. Default: http.DefaultClient.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithKeyfunc enables verification of the detached signature delivered
// in the SignatureHeader response header. Off by default.
func WithKeyfunc(fn jwt.Keyfunc) FetcherOption {
	return func(f *Fetcher) { f.keyfunc = fn }
}

// NewFetcher creates a fetcher for the manifest at location. Assets are
// normalized against root; when root is nil the manifest location's
// origin is used.
func NewFetcher(location string, root string, opts ...FetcherOption) (*Fetcher, error) {
	loc, err := url.Parse(location)
	if err != nil || !loc.IsAbs() {
		return nil, fmt.Errorf("manifest: invalid location %q", location)
	}

	rootURL := &url.URL{Scheme: loc.Scheme, Host: loc.Host, Path: "/"}
	if root != "" {
		rootURL, err = url.Parse(root)
		if err != nil || !rootURL.IsAbs() {
			return nil, fmt.Errorf("manifest: invalid root %q", root)
		}
	}

	f := &Fetcher{
		location: loc,
		root:     rootURL,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Location returns the manifest's absolute URL.
func (f *Fetcher) Location() string { return f.location.String() }

// Root returns the deployment root assets are resolved against.
func (f *Fetcher) Root() *url.URL { return f.root }

// Fetch retrieves the manifest, verifies its signature when configured,
// parses it, and returns the normalized, deduplicated asset list.
func (f *Fetcher) Fetch(ctx context.Context) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.location.String(), nil)
	if err != nil {
		return nil, &FetchError{URL: f.location.String(), Err: err}
	}
	// The manifest drives update detection; never serve it stale.
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: f.location.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: f.location.String(), Status: resp.StatusCode}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, MaxPayloadSize))
	if err != nil {
		return nil, &FetchError{URL: f.location.String(), Err: err}
	}

	if f.keyfunc != nil {
		if err := verifyDetached(payload, resp.Header.Get(SignatureHeader), f.keyfunc); err != nil {
			return nil, &FetchError{URL: f.location.String(), Err: err}
		}
	}

	m, err := Parse(payload)
	if err != nil {
		return nil, err
	}
	m.Assets = Normalize(f.root, m.Assets)
	return m, nil
}
