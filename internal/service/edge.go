// Package service implements the core fetch-and-rewrite pipeline.
package service

import (
	"fmt"
	"log/slog"

	"edgeguard/internal/metrics"
	"edgeguard/internal/model"
	"edgeguard/internal/origin"
	"edgeguard/internal/policy"
)

// EdgeService forwards requests to the backing content source and overlays
// the security header policy onto eligible responses.
type EdgeService struct {
	fetcher  origin.Fetcher
	rewriter *policy.Rewriter
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewEdgeService creates an EdgeService.
// The metrics parameter is optional; pass nil to disable rewrite metrics.
func NewEdgeService(f origin.Fetcher, r *policy.Rewriter, logger *slog.Logger, m *metrics.Metrics) *EdgeService {
	return &EdgeService{
		fetcher:  f,
		rewriter: r,
		logger:   logger.With("component", "edge_service"),
		metrics:  m,
	}
}

// Serve obtains a response for the request from the backing source and
// returns it with the header policy applied when the response is eligible.
// Exactly one fetch happens per call; fetch failures propagate to the caller
// unchanged apart from wrapping. The caller owns the returned body and must
// close it.
func (s *EdgeService) Serve(pr *model.ProxyRequest) (*model.OriginResponse, error) {
	resp, err := s.fetcher.Fetch(pr)
	if err != nil {
		return nil, fmt.Errorf("fetch origin: %w", err)
	}

	applied := s.rewriter.Applies(resp.Header)
	rewritten := s.rewriter.Rewrite(resp)

	if s.metrics != nil {
		outcome := metrics.RewriteSkipped
		if applied {
			outcome = metrics.RewriteApplied
		}
		s.metrics.RewritesTotal.WithLabelValues(outcome).Inc()
	}

	s.logger.Debug("origin response",
		"path", pr.Path,
		"status", resp.StatusCode,
		"policy_applied", applied,
	)

	return rewritten, nil
}
