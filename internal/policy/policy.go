// Package policy implements the security header policy overlaid onto HTML
// responses from the backing content source.
package policy

import (
	"net/http"
	"strings"

	"edgeguard/internal/model"
)

// Entry is a single policy header: a name and the fixed value it is set to.
type Entry struct {
	Name  string
	Value string
}

// securityHeaders is the fixed header policy. It is built once at startup,
// applied in order, and never mutated. The headers only change browser
// behavior for rendered documents, which is why application is gated on the
// response being HTML.
var securityHeaders = []Entry{
	{"Content-Security-Policy", "default-src 'self'; img-src 'self' data:; object-src 'none'; frame-ancestors 'none'; base-uri 'self'"},
	{"X-XSS-Protection", "1; mode=block"},
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Cross-Origin-Embedder-Policy", "require-corp"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
	{"Permissions-Policy", "geolocation=(), camera=(), microphone=()"},
}

// Entries returns a copy of the policy in application order.
func Entries() []Entry {
	out := make([]Entry, len(securityHeaders))
	copy(out, securityHeaders)
	return out
}

// Rewriter overlays the security header policy onto eligible responses.
type Rewriter struct {
	entries []Entry
}

// NewRewriter returns a Rewriter carrying the fixed security header policy.
func NewRewriter() *Rewriter {
	return &Rewriter{entries: securityHeaders}
}

// Rewrite returns a response equivalent to resp, with the policy overlaid on
// a copy of its header set when the response is eligible. Status code, status
// text, and body stream are reused untouched; the body is never read, so
// streamed responses keep streaming. Ineligible responses keep their header
// set as-is (same keys, same values).
//
// Policy headers are set, not appended: a header already present under a
// policy name is replaced, never duplicated. Rewriting an already-rewritten
// response is therefore a no-op.
func (r *Rewriter) Rewrite(resp *model.OriginResponse) *model.OriginResponse {
	header := resp.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}

	if r.Applies(resp.Header) {
		for _, e := range r.entries {
			header.Set(e.Name, e.Value)
		}
	}

	return &model.OriginResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     header,
		Body:       resp.Body,
	}
}

// Applies reports whether the policy would be overlaid onto a response with
// the given header set: the Content-Type value must be present and contain
// "text/html". The substring match means parameterized media types such as
// "text/html; charset=utf-8" qualify. An absent Content-Type is simply not
// eligible, never an error.
func (r *Rewriter) Applies(h http.Header) bool {
	return strings.Contains(h.Get("Content-Type"), "text/html")
}
