package static

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const indexDocument = "index.html"

var contentTypes = map[string]string{
	".html": "text/html",
	".js":   "text/javascript",
	".css":  "text/css",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
}

// ContentType returns the MIME type for a file extension (with leading dot,
// any case). ok is false for extensions outside the table.
func ContentType(ext string) (contentType string, ok bool) {
	contentType, ok = contentTypes[strings.ToLower(ext)]
	return contentType, ok
}

// Server serves a built single-page application from a directory. Paths
// without an extension are client-side routes and get the root document.
type Server struct {
	root   string
	logger *slog.Logger
}

// NewServer creates a server for the assets under root.
func NewServer(root string, logger *slog.Logger) *Server {
	return &Server{
		root:   root,
		logger: logger,
	}
}

// ServeHTTP resolves the request path to an asset, falling back to the root
// document for client-side routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requested := resolve(r.URL.Path)

	if f, ok := s.open(requested); ok {
		defer f.Close()
		ext := path.Ext(requested)
		contentType, _ := ContentType(ext)
		s.send(w, f, contentType)
		return
	}

	if requested != indexDocument && wantsDocument(r) {
		if f, ok := s.open(indexDocument); ok {
			defer f.Close()
			s.send(w, f, "text/html")
			return
		}
	}

	s.logger.Debug("static asset not found", "path", r.URL.Path, "resolved", requested)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, "Not Found")
}

// resolve turns a URL path into a slash-separated path relative to the asset
// root. Empty paths and paths whose last segment has no extension map to the
// root document. Cleaning happens against "/" so ".." cannot climb out.
func resolve(urlPath string) string {
	p := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if p == "" || path.Ext(p) == "" {
		return indexDocument
	}
	return p
}

// wantsDocument reports whether a missing asset should be answered with the
// root document. Extensionless paths were already resolved to it; for paths
// with an extension only a browser navigation (one that accepts HTML) gets
// the document, so a missing script or image stays a 404.
func wantsDocument(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// open returns the regular file at rel under the root, if there is one.
func (s *Server) open(rel string) (*os.File, bool) {
	full := filepath.Join(s.root, filepath.FromSlash(rel))

	f, err := os.Open(full)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to open static asset", "path", full, "error", err)
		}
		return nil, false
	}

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		f.Close()
		return nil, false
	}
	return f, true
}

// send streams f to the client. Without a known content type the header is
// suppressed entirely instead of letting net/http sniff one.
func (s *Server) send(w http.ResponseWriter, f *os.File, contentType string) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	} else {
		w.Header()["Content-Type"] = nil
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f); err != nil {
		s.logger.Debug("static asset stream interrupted", "file", f.Name(), "error", err)
	}
}
