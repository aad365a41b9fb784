package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// Headers that describe the inbound connection rather than the request and
// are therefore never copied onto the outbound request.
var skipRequestHeaders = []string{"Host", "Connection", "Content-Length"}

// ErrorResponse is written when no upstream response could be obtained.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Proxy forwards requests under a path prefix to an upstream gateway and
// streams the upstream response back unchanged.
type Proxy struct {
	target *url.URL
	prefix string
	client *http.Client
	logger *slog.Logger
}

// New creates a proxy that strips prefix from incoming paths and appends the
// remainder to gatewayURL. timeout bounds connecting and waiting for response
// headers; the body stream itself is bounded only by the client's connection.
func New(gatewayURL, prefix string, timeout time.Duration, logger *slog.Logger) (*Proxy, error) {
	target, err := url.Parse(gatewayURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid gateway URL %q: scheme and host are required", gatewayURL)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		// Bodies pass through byte-for-byte, so never let the transport
		// negotiate and strip compression on our behalf.
		DisableCompression: true,
	}

	return &Proxy{
		target: target,
		prefix: strings.TrimRight(prefix, "/"),
		client: &http.Client{
			Transport: transport,
			// Redirects belong to the caller.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}, nil
}

// ServeHTTP forwards r upstream.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	target := p.targetURL(r)

	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		p.logger.Error("failed to build upstream request", "target", target, "error", err)
		p.writeTransportError(w)
		return
	}
	outReq.ContentLength = r.ContentLength
	outReq.Header = forwardHeaders(r)

	p.logger.Debug("proxy forward", "method", r.Method, "target", target)

	resp, err := p.client.Do(outReq)
	if err != nil {
		if r.Context().Err() != nil {
			p.logger.Info("client went away before upstream answered", "target", target, "error", err)
		} else {
			p.logger.Error("upstream request failed",
				"method", r.Method,
				"target", target,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
		}
		p.writeTransportError(w)
		return
	}
	defer resp.Body.Close()

	copyResponseHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	n, err := stream(w, resp.Body)
	if err != nil {
		p.logger.Warn("proxy stream interrupted",
			"target", target,
			"status", resp.StatusCode,
			"bytes", n,
			"error", err,
		)
		return
	}

	p.logger.Debug("proxy complete",
		"target", target,
		"status", resp.StatusCode,
		"bytes", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// targetURL strips the mount prefix and appends the rest, query included, to
// the gateway URL.
func (p *Proxy) targetURL(r *http.Request) string {
	rest := strings.TrimPrefix(r.URL.EscapedPath(), p.prefix)

	target := strings.TrimRight(p.target.String(), "/") + rest
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target
}

// forwardHeaders copies every inbound header except the transport-specific
// ones and records the caller's address in X-Forwarded-For.
func forwardHeaders(r *http.Request) http.Header {
	h := r.Header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	for _, name := range skipRequestHeaders {
		h.Del(name)
	}

	if ip := clientIP(r); ip != "" {
		h.Set("X-Forwarded-For", ip)
	}
	return h
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// copyResponseHeaders makes every header upstream sent replace whatever the
// middleware already set under that name, except Content-Length, which no
// longer holds once the body is re-streamed. When upstream answers CORS itself
// the local Access-Control-* headers are dropped so the client sees one policy.
func copyResponseHeaders(dst, src http.Header) {
	if hasCORSHeaders(src) {
		for name := range dst {
			if strings.HasPrefix(name, corsHeaderPrefix) {
				delete(dst, name)
			}
		}
	}

	for name, values := range src {
		name = http.CanonicalHeaderKey(name)
		if name == "Content-Length" {
			continue
		}
		dst[name] = slices.Clone(values)
	}
}

const corsHeaderPrefix = "Access-Control-"

func hasCORSHeaders(h http.Header) bool {
	for name := range h {
		if strings.HasPrefix(http.CanonicalHeaderKey(name), corsHeaderPrefix) {
			return true
		}
	}
	return false
}

// stream copies src to w chunk by chunk, flushing after each write so the
// client sees bytes as soon as upstream sends them. It stops at the first read
// or write error; a cancelled request context surfaces here as a read error.
func stream(w http.ResponseWriter, src io.Reader) (int64, error) {
	rc := http.NewResponseController(w)
	buf := make([]byte, 32*1024)

	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
			if ferr := rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
				return written, ferr
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

func (p *Proxy) writeTransportError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   "Internal Server Error",
		Message: "An error occurred while processing your request",
	}); err != nil {
		p.logger.Debug("failed to write proxy error response", "error", err)
	}
}
