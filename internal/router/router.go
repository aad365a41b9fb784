package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/insecurazon/ins-webserver/internal/middleware"
)

// MockPrefixes are the product API namespaces answered locally and never proxied.
var MockPrefixes = []string{"/products", "/api/products", "/mock/products"}

// APIPrefix is the generic API namespace forwarded to the gateway.
const APIPrefix = "/api"

var (
	isMock = PathPrefix(MockPrefixes...)
	isAPI  = PathPrefix(APIPrefix)
)

// proxied reports whether the dispatcher hands path to the gateway.
func proxied(path string) bool {
	return !isMock(path) && isAPI(path)
}

// Options carries the pieces the top-level handler is assembled from.
type Options struct {
	Products       http.Handler
	Proxy          http.Handler
	Static         http.Handler
	Health         http.Handler
	AllowedOrigins []string

	// TrustProxyHeaders lets X-Forwarded-For/X-Real-IP replace the socket
	// address as the client address.
	TrustProxyHeaders bool
	Logger            *slog.Logger
}

// New builds the server's root handler: the middleware stack, the health
// route and the dispatcher. Dispatch order is mock product API, then the
// gateway proxy, then the single-page application.
func New(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.Logger(opts.Logger))
	r.Use(chimiddleware.Recoverer)

	r.Use(corsHandler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"Link", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if opts.Health != nil {
		r.Method(http.MethodGet, "/health", opts.Health)
	}

	dispatcher := NewDispatcher(opts.Logger,
		Route{Name: "products", Match: isMock, Handler: opts.Products},
		Route{Name: "proxy", Match: isAPI, Handler: opts.Proxy},
		Route{Name: "static", Match: Any, Handler: opts.Static},
	)
	r.Handle("/*", dispatcher)

	return r
}

// corsHandler answers preflights locally except under the proxied namespace,
// where the preflight is decorated and then passed on to the gateway.
func corsHandler(opts cors.Options) func(http.Handler) http.Handler {
	local := cors.Handler(opts)
	opts.OptionsPassthrough = true
	passthrough := cors.Handler(opts)

	return func(next http.Handler) http.Handler {
		localNext, passthroughNext := local(next), passthrough(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if proxied(r.URL.Path) {
				passthroughNext.ServeHTTP(w, r)
				return
			}
			localNext.ServeHTTP(w, r)
		})
	}
}
