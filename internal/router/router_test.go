package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insecurazon/ins-webserver/internal/handlers"
	"github.com/insecurazon/ins-webserver/internal/models"
	"github.com/insecurazon/ins-webserver/internal/proxy"
	"github.com/insecurazon/ins-webserver/internal/repository"
	"github.com/insecurazon/ins-webserver/internal/service"
	"github.com/insecurazon/ins-webserver/internal/static"
	"github.com/insecurazon/ins-webserver/pkg/logger"
)

type unreachable struct{}

func (unreachable) GetAll(ctx context.Context) ([]models.Product, error) {
	return nil, errors.New("connection refused")
}

func (unreachable) GetCategories(ctx context.Context) ([]models.Category, error) {
	return nil, errors.New("connection refused")
}

type testServer struct {
	handler  http.Handler
	gateway  *atomic.Int64
	lastPath *atomic.Value
	lastXFF  *atomic.Value
}

func defaultGateway(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"from":"gateway"}`)
}

// newTestServer assembles the full handler in front of a counting gateway
// stub. gateway may be nil for a plain JSON answer.
func newTestServer(t *testing.T, gateway http.HandlerFunc, configure ...func(*Options)) *testServer {
	t.Helper()
	log := logger.New("error")

	if gateway == nil {
		gateway = defaultGateway
	}

	hits := &atomic.Int64{}
	lastPath := &atomic.Value{}
	lastXFF := &atomic.Value{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		lastPath.Store(r.URL.Path)
		lastXFF.Store(r.Header.Get("X-Forwarded-For"))
		gateway(w, r)
	}))
	t.Cleanup(upstream.Close)

	p, err := proxy.New(upstream.URL, APIPrefix, time.Second, log)
	require.NoError(t, err)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>spa</html>"), 0o644))

	svc := service.NewProductService(unreachable{}, repository.NewInMemoryProductRepository(), time.Second, log)

	opts := Options{
		Products:       handlers.NewProductHandler(svc, log).Routes(MockPrefixes...),
		Proxy:          p,
		Static:         static.NewServer(root, log),
		Health:         handlers.NewHealthHandler(svc, "test", log),
		AllowedOrigins: []string{"*"},
		Logger:         log,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	return &testServer{handler: New(opts), gateway: hits, lastPath: lastPath, lastXFF: lastXFF}
}

func (s *testServer) do(method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestPathPrefix(t *testing.T) {
	match := PathPrefix("/products", "/api/")

	tests := map[string]bool{
		"/products":       true,
		"/products/":      true,
		"/products/5":     true,
		"/productsale":    false,
		"/api":            true,
		"/api/widgets":    true,
		"/apidocs":        false,
		"/":               false,
		"/about/products": false,
	}

	for path, want := range tests {
		assert.Equal(t, want, match(path), path)
	}
}

func TestDispatcher_FirstMatchWins(t *testing.T) {
	named := func(name string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, name)
		})
	}

	d := NewDispatcher(logger.New("error"),
		Route{Name: "narrow", Match: PathPrefix("/api/products"), Handler: named("narrow")},
		Route{Name: "wide", Match: PathPrefix("/api"), Handler: named("wide")},
	)

	tests := map[string]string{
		"/api/products/1": "narrow",
		"/api/orders":     "wide",
	}
	for path, want := range tests {
		w := httptest.NewRecorder()
		d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Body.String(), path)
	}

	w := httptest.NewRecorder()
	d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ProductsNeverProxied(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/products/5", "/api/products/5", "/mock/products/5"} {
		t.Run(path, func(t *testing.T) {
			w := s.do(http.MethodGet, path)
			require.Equal(t, http.StatusOK, w.Code)

			var product models.Product
			require.NoError(t, json.NewDecoder(w.Body).Decode(&product))
			assert.Equal(t, 5, product.ID)
		})
	}

	for _, path := range []string{"/api/products", "/api/products/categories", "/api/products/nope/deeper"} {
		s.do(http.MethodGet, path)
	}
	w := s.do(http.MethodPost, "/api/products")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	assert.Zero(t, s.gateway.Load(), "product API requests must not reach the gateway")
}

func TestRouter_ProxiesAPI(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodDelete, "/api/widgets/3")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"from":"gateway"}`, w.Body.String())
	assert.Equal(t, int64(1), s.gateway.Load())
	assert.Equal(t, "/widgets/3", s.lastPath.Load())
}

func TestRouter_StaticFallback(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/", "/about", "/cart/checkout"} {
		w := s.do(http.MethodGet, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "<html>spa</html>", w.Body.String(), path)
	}

	w := s.do(http.MethodGet, "/img/missing.png")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, s.gateway.Load())
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var health handlers.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.Equal(t, "test", health.Version)
}

func TestRouter_RequestIDAndCORS(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Origin", "https://shop.example")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/json"))
}

func TestRouter_ProxiedHeadersNotDuplicated(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("X-Request-ID", r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/widgets", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"*"}, w.Result().Header.Values("Access-Control-Allow-Origin"))
	assert.Equal(t, []string{"req-42"}, w.Result().Header.Values("X-Request-ID"))
}

func TestRouter_ForwardedForIsSocketAddress(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/widgets", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "6.6.6.6")
	req.Header.Set("X-Real-IP", "6.6.6.7")
	s.handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "10.0.0.1", s.lastXFF.Load())
}

func TestRouter_ForwardedForTrustedWhenConfigured(t *testing.T) {
	s := newTestServer(t, nil, func(o *Options) { o.TrustProxyHeaders = true })

	req := httptest.NewRequest(http.MethodGet, "/api/widgets", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "6.6.6.6")
	s.handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "6.6.6.6", s.lastXFF.Load())
}

func TestRouter_Preflight(t *testing.T) {
	preflight := func(path string) *http.Request {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "https://shop.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		return req
	}

	t.Run("gateway namespace is forwarded", func(t *testing.T) {
		s := newTestServer(t, nil)

		s.handler.ServeHTTP(httptest.NewRecorder(), preflight("/api/widgets"))

		assert.Equal(t, int64(1), s.gateway.Load())
		assert.Equal(t, "/widgets", s.lastPath.Load())
	})

	t.Run("product namespace answered locally", func(t *testing.T) {
		s := newTestServer(t, nil)

		w := httptest.NewRecorder()
		s.handler.ServeHTTP(w, preflight("/api/products"))

		assert.Zero(t, s.gateway.Load())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}
