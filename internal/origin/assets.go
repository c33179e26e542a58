package origin

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"

	"edgeguard/internal/config"
	"edgeguard/internal/metrics"
	"edgeguard/internal/model"
)

// AssetStore serves responses from a local directory of static files.
type AssetStore struct {
	root    string
	index   string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewAssetStore creates an AssetStore rooted at the configured directory.
// The metrics parameter is optional; pass nil to disable fetch metrics.
func NewAssetStore(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*AssetStore, error) {
	root, err := filepath.Abs(cfg.Assets.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve assets dir: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat assets dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("assets dir %s is not a directory", root)
	}

	return &AssetStore{
		root:    root,
		index:   cfg.Assets.IndexFile,
		logger:  logger.With("component", "asset_fetcher"),
		metrics: m,
	}, nil
}

// Fetch resolves the request path inside the asset root and returns the file
// as a response. Misses are responses, not errors: unknown paths yield a 404
// with an empty body and no Content-Type, and methods other than GET or HEAD
// yield a 405. Request paths cannot escape the root; traversal segments are
// contained by securejoin.
func (s *AssetStore) Fetch(pr *model.ProxyRequest) (*model.OriginResponse, error) {
	start := time.Now()
	resp, err := s.fetch(pr)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		method := metrics.NormalizeMethod(pr.Method)
		s.metrics.OriginDuration.WithLabelValues(metrics.SourceAssets, method).Observe(time.Since(start).Seconds())
		s.metrics.OriginResponses.WithLabelValues(metrics.SourceAssets, method, strconv.Itoa(resp.StatusCode)).Inc()
	}
	return resp, nil
}

func (s *AssetStore) fetch(pr *model.ProxyRequest) (*model.OriginResponse, error) {
	if pr.Method != http.MethodGet && pr.Method != http.MethodHead {
		header := make(http.Header)
		header.Set("Allow", "GET, HEAD")
		return &model.OriginResponse{
			StatusCode: http.StatusMethodNotAllowed,
			Status:     statusLine(http.StatusMethodNotAllowed),
			Header:     header,
			Body:       http.NoBody,
		}, nil
	}

	path, err := securejoin.SecureJoin(s.root, pr.Path)
	if err != nil {
		s.logger.Debug("asset path rejected", "path", pr.Path, "err", err)
		return s.notFound(), nil
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.notFound(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat asset: %w", err)
	}

	if info.IsDir() {
		path = filepath.Join(path, s.index)
		info, err = os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return s.notFound(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("stat asset: %w", err)
		}
	}

	header := make(http.Header)
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		header.Set("Content-Type", ct)
	}
	header.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	header.Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))

	resp := &model.OriginResponse{
		StatusCode: http.StatusOK,
		Status:     statusLine(http.StatusOK),
		Header:     header,
	}

	if pr.Method == http.MethodHead {
		resp.Body = http.NoBody
		return resp, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.notFound(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	resp.Body = f
	return resp, nil
}

func (s *AssetStore) notFound() *model.OriginResponse {
	return &model.OriginResponse{
		StatusCode: http.StatusNotFound,
		Status:     statusLine(http.StatusNotFound),
		Header:     make(http.Header),
		Body:       http.NoBody,
	}
}

func statusLine(code int) string {
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}
