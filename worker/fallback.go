package worker

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/jonwraymond/offlinecache/manifest"
)

// offlineDocument is served when a navigation cannot be satisfied from
// the network, the cache, or the app shell.
const offlineDocument = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Offline</title>
<style>
body { font-family: system-ui, sans-serif; margin: 4rem auto; max-width: 32rem; padding: 0 1rem; color: #333; }
h1 { font-size: 1.5rem; }
</style>
</head>
<body>
<h1>You are offline</h1>
<p>This page is not available right now. Check your connection and try again.</p>
</body>
</html>
`

// synthesizedOffline builds the last-resort navigation response.
func synthesizedOffline() *Response {
	body := []byte(offlineDocument)
	h := http.Header{}
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set("Cache-Control", "no-store")
	return &Response{
		Status: http.StatusServiceUnavailable,
		Header: h,
		Body:   body,
		Source: SourceSynthesized,
	}
}

// synthesizedEmpty builds a bodiless response with the given status.
func synthesizedEmpty(status int) *Response {
	h := http.Header{}
	h.Set("Cache-Control", "no-store")
	return &Response{
		Status: status,
		Header: h,
		Source: SourceSynthesized,
	}
}

// manifestNormalize resolves a single path against the origin root.
func manifestNormalize(root *url.URL, p string) string {
	out := manifest.Normalize(root, []string{p})
	if len(out) == 0 {
		return p
	}
	return out[0]
}
