package store

import "context"

// CurrentVersion resolves the installed version: the lexicographically
// greatest version among fundamentals namespaces with the given prefix.
// Sortable timestamp versions make lexicographic order chronological.
// Returns ("", false, nil) when no fundamentals namespace exists.
//
// Pure read; never mutates the store.
func CurrentVersion(ctx context.Context, s Store, prefix string) (string, bool, error) {
	keys, err := s.Namespaces(ctx)
	if err != nil {
		return "", false, err
	}

	var (
		best  string
		found bool
	)
	for _, key := range keys {
		if key.Prefix != prefix || key.Role != RoleFundamentals {
			continue
		}
		if !found || key.Version > best {
			best = key.Version
			found = true
		}
	}
	return best, found, nil
}
