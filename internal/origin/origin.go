// Package origin provides the backing content sources the proxy fetches from:
// an upstream HTTP origin or a local static-asset store.
package origin

import (
	"edgeguard/internal/model"
)

// Fetcher obtains a response from a backing content source. Implementations
// make exactly one backing-source access per call, never retry, and propagate
// failures to the caller unchanged. The returned body stream is owned by the
// caller, who must close it.
type Fetcher interface {
	Fetch(pr *model.ProxyRequest) (*model.OriginResponse, error)
}
