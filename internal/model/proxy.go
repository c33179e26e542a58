// Package model defines shared types for the edge proxy.
package model

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// ProxyRequest represents a client request to be forwarded to the backing
// content source. The proxy treats it as opaque: nothing here is inspected
// or rewritten on the way to the origin.
type ProxyRequest struct {
	Ctx    context.Context
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   io.ReadCloser
}

// OriginResponse represents a response produced by a backing content source.
// The header policy rewriter consumes one and produces a new one; handlers
// stream Body to the client and are responsible for closing it.
//
// Status carries the origin's status line text (e.g. "200 OK") for fetchers
// that have one. net/http derives the reason phrase from StatusCode when the
// response is written back, so Status is informational, but the rewriter
// still preserves it untouched.
type OriginResponse struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       io.ReadCloser
}
