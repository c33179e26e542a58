package origin

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"edgeguard/internal/config"
	"edgeguard/internal/metrics"
	"edgeguard/internal/model"
)

// Upstream fetches responses from a remote HTTP origin.
type Upstream struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewUpstream creates an Upstream fetcher with connection pooling.
// The metrics parameter is optional; pass nil to disable fetch metrics.
//
// The client timeout covers the whole exchange including the body; it is
// disabled when upstream.timeout_seconds is 0 so that long streamed responses
// are never cut off mid-body. Cancellation then rests entirely on the
// request context.
func NewUpstream(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*Upstream, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Upstream{
		baseURL: u,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "upstream_fetcher"),
		metrics: m,
	}, nil
}

// Fetch forwards the request to the upstream origin and returns the raw
// response. The method, path, query, headers, and body pass through verbatim;
// only the scheme and host are rewritten onto the configured base URL. The
// caller is responsible for closing the response body. The request context
// controls the lifetime of the exchange: when it is canceled (e.g. the client
// disconnects), the in-flight origin request is canceled too.
func (u *Upstream) Fetch(pr *model.ProxyRequest) (*model.OriginResponse, error) {
	target := u.buildURL(pr.Path, pr.Query)

	req, err := http.NewRequestWithContext(pr.Ctx, pr.Method, target, pr.Body)
	if err != nil {
		return nil, fmt.Errorf("build origin request: %w", err)
	}
	if pr.Header != nil {
		req.Header = pr.Header.Clone()
	}

	u.logger.Debug("origin fetch",
		"method", pr.Method,
		"path", pr.Path,
	)

	start := time.Now()
	resp, err := u.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via OriginResponse
	duration := time.Since(start).Seconds()

	method := metrics.NormalizeMethod(pr.Method)

	if err != nil {
		if u.metrics != nil {
			u.metrics.OriginDuration.WithLabelValues(metrics.SourceUpstream, method).Observe(duration)
		}
		return nil, fmt.Errorf("origin request: %w", err)
	}

	if u.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		u.metrics.OriginDuration.WithLabelValues(metrics.SourceUpstream, method).Observe(duration)
		u.metrics.OriginResponses.WithLabelValues(metrics.SourceUpstream, method, status).Inc()
	}

	return &model.OriginResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// buildURL rebases the request path and query onto the upstream base URL.
func (u *Upstream) buildURL(path string, query url.Values) string {
	target := *u.baseURL
	target.Path = path
	target.RawQuery = query.Encode()
	return target.String()
}
