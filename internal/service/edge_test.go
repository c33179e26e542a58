package service

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"edgeguard/internal/metrics"
	"edgeguard/internal/model"
	"edgeguard/internal/policy"
)

// stubFetcher returns a canned response or error and counts calls.
type stubFetcher struct {
	resp  *model.OriginResponse
	err   error
	calls int
}

func (s *stubFetcher) Fetch(_ *model.ProxyRequest) (*model.OriginResponse, error) {
	s.calls++
	return s.resp, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func htmlResponse() *model.OriginResponse {
	header := make(http.Header)
	header.Set("Content-Type", "text/html; charset=utf-8")
	return &model.OriginResponse{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Header:     header,
		Body:       io.NopCloser(strings.NewReader("<html></html>")),
	}
}

func TestServe_AppliesPolicyToHTML(t *testing.T) {
	fetcher := &stubFetcher{resp: htmlResponse()}
	svc := NewEdgeService(fetcher, policy.NewRewriter(), discardLogger(), nil)

	resp, err := svc.Serve(&model.ProxyRequest{Method: http.MethodGet, Path: "/"})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want exactly 1", fetcher.calls)
	}
	if v := resp.Header.Get("X-Frame-Options"); v != "DENY" {
		t.Errorf("X-Frame-Options = %q, want %q", v, "DENY")
	}
	if v := resp.Header.Get("Content-Security-Policy"); v == "" {
		t.Error("Content-Security-Policy missing on HTML response")
	}
}

func TestServe_PassesThroughNonHTML(t *testing.T) {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	body := io.NopCloser(strings.NewReader(`{"ok":true}`))
	fetcher := &stubFetcher{resp: &model.OriginResponse{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Header:     header,
		Body:       body,
	}}
	svc := NewEdgeService(fetcher, policy.NewRewriter(), discardLogger(), nil)

	resp, err := svc.Serve(&model.ProxyRequest{Method: http.MethodGet, Path: "/api"})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	if v := resp.Header.Get("X-Frame-Options"); v != "" {
		t.Errorf("X-Frame-Options = %q on JSON response, want unset", v)
	}
	if resp.Body != body {
		t.Error("body stream replaced; want pass-through")
	}
}

func TestServe_PropagatesFetchError(t *testing.T) {
	sentinel := errors.New("origin unreachable")
	fetcher := &stubFetcher{err: sentinel}
	svc := NewEdgeService(fetcher, policy.NewRewriter(), discardLogger(), nil)

	_, err := svc.Serve(&model.ProxyRequest{Method: http.MethodGet, Path: "/"})
	if err == nil {
		t.Fatal("Serve() error = nil, want fetch failure")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("Serve() error = %v, want wrapped %v", err, sentinel)
	}
}

func TestServe_CountsRewriteOutcomes(t *testing.T) {
	m := metrics.New()
	fetcher := &stubFetcher{resp: htmlResponse()}
	svc := NewEdgeService(fetcher, policy.NewRewriter(), discardLogger(), m)

	if _, err := svc.Serve(&model.ProxyRequest{Method: http.MethodGet, Path: "/"}); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() != "edgeguard_header_rewrites_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == metrics.RewriteApplied {
					if metric.GetCounter().GetValue() == 1 {
						found = true
					}
				}
			}
		}
	}
	if !found {
		t.Error("expected edgeguard_header_rewrites_total{outcome=\"applied\"} == 1")
	}
}
