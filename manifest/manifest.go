package manifest

import (
	"net/url"
)

// Manifest describes a published deployment: an opaque sortable version
// string and the ordered list of resource paths it requires.
type Manifest struct {
	Version string
	Assets  []string
}

// Normalize resolves each asset against the deployment root, producing
// absolute URLs, and deduplicates while preserving first occurrence.
// Host-relative ("/a.js") and scope-relative ("a.js", "./a.js") forms
// are both supported. Unparseable entries are dropped.
func Normalize(root *url.URL, assets []string) []string {
	out := make([]string, 0, len(assets))
	seen := make(map[string]struct{}, len(assets))

	for _, raw := range assets {
		if raw == "" {
			continue
		}
		ref, err := url.Parse(raw)
		if err != nil {
			continue
		}
		abs := root.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}
