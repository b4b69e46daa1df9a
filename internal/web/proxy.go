package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// Response headers meaningful only for one transport leg. The local layer
// recomputes these; relaying them risks double-encoding or framing mismatches.
var hopByHopHeaders = map[string]struct{}{
	"Content-Encoding":  {},
	"Transfer-Encoding": {},
	"Connection":        {},
	"Keep-Alive":        {},
}

const bodyPreviewLimit = 2048

// handleAPIProxy relays an inbound /api request to the identity API,
// preserving method, headers, query and body. Transport failures become a
// fixed 502 contract; upstream responses pass through verbatim.
func (s *Server) handleAPIProxy(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.forward(w, r)
}

func (s *Server) forward(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimRight(s.cfg.AppInternal, "/") + r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	inBody, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error("failed to read inbound body", "error", err, "path", r.URL.Path)
		s.proxyError(w, err)
		return
	}

	// Decide the body shape once: structured JSON gets an application/json
	// label, but the bytes themselves always pass through unchanged.
	// Re-encoding would lose precision on integers beyond float64 range.
	isJSON := false
	if trimmed := bytes.TrimSpace(inBody); len(trimmed) > 0 && json.Valid(trimmed) {
		isJSON = true
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ProxyTimeout)
	defer cancel()

	out, err := http.NewRequestWithContext(ctx, r.Method, target, bytes.NewReader(inBody))
	if err != nil {
		s.logProxyFailure(target, r, inBody, err)
		s.proxyError(w, err)
		return
	}
	for name, values := range r.Header {
		// The downstream call computes its own Host and framing.
		// Accept-Encoding stays with the transport too: letting it
		// negotiate compression means gzip responses arrive decoded, so
		// stripping Content-Encoding below never orphans a compressed body.
		if strings.EqualFold(name, "Host") ||
			strings.EqualFold(name, "Content-Length") ||
			strings.EqualFold(name, "Accept-Encoding") {
			continue
		}
		for _, v := range values {
			out.Header.Add(name, v)
		}
	}
	if isJSON {
		out.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(out)
	if err != nil {
		s.logProxyFailure(target, r, inBody, err)
		s.proxyError(w, err)
		return
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		if _, hop := hopByHopHeaders[http.CanonicalHeaderKey(name)]; hop {
			continue
		}
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Warn("relaying upstream body failed", "error", err, "target", target)
	}
}

// proxyError reports a transport failure to the client. The summary string is
// all the client sees; diagnostics go to the log only.
func (s *Server) proxyError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message": "internal proxy error",
		"error":   err.Error(),
	})
}

// logProxyFailure emits the postmortem record for an unreachable or failed
// upstream call. Previews are bounded so the log stays readable.
func (s *Server) logProxyFailure(target string, r *http.Request, body []byte, err error) {
	preview := body
	if len(preview) > bodyPreviewLimit {
		preview = preview[:bodyPreviewLimit]
	}
	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}
	s.logger.Error("proxy request failed",
		"target", target,
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"headers", headers,
		"body_preview", string(preview),
		"error", err,
	)
}
