package router

import (
	"log/slog"
	"net/http"
	"strings"
)

// Route claims the requests whose path satisfies Match.
type Route struct {
	Name    string
	Match   func(path string) bool
	Handler http.Handler
}

// Dispatcher hands each request to the first route that claims it. Routes are
// evaluated strictly in the order given, so precedence is the slice order and
// nothing else.
type Dispatcher struct {
	routes []Route
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over an ordered route list.
func NewDispatcher(logger *slog.Logger, routes ...Route) *Dispatcher {
	return &Dispatcher{
		routes: routes,
		logger: logger,
	}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if route, ok := d.match(r.URL.Path); ok {
		route.Handler.ServeHTTP(w, r)
		return
	}

	d.logger.Debug("no route claimed request", "path", r.URL.Path)
	http.NotFound(w, r)
}

func (d *Dispatcher) match(path string) (Route, bool) {
	for _, route := range d.routes {
		if route.Match(path) {
			return route, true
		}
	}
	return Route{}, false
}

// PathPrefix matches a path equal to one of prefixes or nested below it.
// "/products" claims "/products" and "/products/5" but not "/productsale".
func PathPrefix(prefixes ...string) func(string) bool {
	trimmed := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		trimmed = append(trimmed, strings.TrimRight(p, "/"))
	}

	return func(path string) bool {
		for _, p := range trimmed {
			if path == p || strings.HasPrefix(path, p+"/") {
				return true
			}
		}
		return false
	}
}

// Any matches every path.
func Any(string) bool { return true }
