package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRegisterRoutes_Wiring(t *testing.T) {
	var upstreamHits atomic.Int64
	us := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		upstreamHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer us.Close()

	proxy := newUpstreamHandler(t, us.URL)
	health := NewHealthHandler(upstreamTestConfig(us.URL), "test")

	e := echo.New()
	RegisterRoutes(e, proxy, health)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantProxy  bool
	}{
		{"GET /healthz", http.MethodGet, "/healthz", http.StatusOK, false},
		{"GET /edge/status", http.MethodGet, "/edge/status", http.StatusOK, false},
		{"GET page goes to proxy", http.MethodGet, "/blog/post.html", http.StatusOK, true},
		{"POST goes to proxy", http.MethodPost, "/submit", http.StatusOK, true},
		{"GET root goes to proxy", http.MethodGet, "/", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := upstreamHits.Load()

			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			forwarded := upstreamHits.Load() > before
			if forwarded != tt.wantProxy {
				t.Errorf("forwarded to origin = %v, want %v", forwarded, tt.wantProxy)
			}
			// Reserved endpoints answer locally, never with the origin body.
			if !tt.wantProxy && strings.Contains(rec.Body.String(), `"ok":true`) {
				t.Errorf("reserved endpoint %s served the origin body", tt.path)
			}
		})
	}
}
