package worker

import "errors"

// Sentinel errors for worker construction and operation.
var (
	// ErrNilStore indicates no resource store was provided.
	ErrNilStore = errors.New("worker: store is required")

	// ErrMissingManifestURL indicates neither a manifest URL nor a
	// fetcher was configured.
	ErrMissingManifestURL = errors.New("worker: manifest URL is required")
)
