package web

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/kushall1845/Vcube-App/internal/config"
)

func testServer(t *testing.T, upstream string, timeout time.Duration) *Server {
	t.Helper()
	cfg := config.WebConfig{
		Addr:          ":0",
		AppInternal:   upstream,
		ProxyTimeout:  timeout,
		InstituteName: "Test Institute",
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(cfg, log)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return srv
}

type capturedRequest struct {
	method      string
	path        string
	query       string
	body        []byte
	contentType string
	custom      string
	host        string
}

func TestProxyForwardsJSONRequestVerbatim(t *testing.T) {
	var captured capturedRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured = capturedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			query:       r.URL.RawQuery,
			body:        body,
			contentType: r.Header.Get("Content-Type"),
			custom:      r.Header.Get("X-Custom"),
			host:        r.Host,
		}
		w.Header().Set("X-Upstream", "yes")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"upstream":true}`))
	}))
	defer upstream.Close()

	srv := testServer(t, upstream.URL, 2*time.Second)

	req := httptest.NewRequest(http.MethodPost, "/api/login?next=dashboard", strings.NewReader(`{"email":"a@b.com","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Custom", "custom-value")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if captured.method != http.MethodPost {
		t.Fatalf("upstream saw method %q", captured.method)
	}
	if captured.path != "/api/login" {
		t.Fatalf("upstream saw path %q", captured.path)
	}
	if captured.query != "next=dashboard" {
		t.Fatalf("upstream saw query %q", captured.query)
	}
	if captured.custom != "custom-value" {
		t.Fatalf("custom header not relayed: %q", captured.custom)
	}
	if captured.contentType != "application/json" {
		t.Fatalf("unexpected upstream content type: %q", captured.contentType)
	}
	var payload map[string]string
	if err := json.Unmarshal(captured.body, &payload); err != nil {
		t.Fatalf("upstream body is not JSON: %v", err)
	}
	if payload["email"] != "a@b.com" || payload["password"] != "pw" {
		t.Fatalf("upstream body mismatch: %v", payload)
	}

	if rr.Code != http.StatusTeapot {
		t.Fatalf("proxy did not relay upstream status: got %d", rr.Code)
	}
	if rr.Body.String() != `{"upstream":true}` {
		t.Fatalf("proxy did not relay upstream body: %q", rr.Body.String())
	}
	if rr.Header().Get("X-Upstream") != "yes" {
		t.Fatal("upstream header not relayed")
	}
}

func TestProxyForwardsRawBodyUnchanged(t *testing.T) {
	var captured capturedRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured = capturedRequest{
			body:        body,
			contentType: r.Header.Get("Content-Type"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	srv := testServer(t, upstream.URL, 2*time.Second)

	raw := "email=a%40b.com&password=pw"
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if string(captured.body) != raw {
		t.Fatalf("raw body altered: %q", captured.body)
	}
	if captured.contentType != "application/x-www-form-urlencoded" {
		t.Fatalf("raw content type altered: %q", captured.contentType)
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestProxyPreservesLargeIntegerJSONBody(t *testing.T) {
	var captured capturedRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured = capturedRequest{
			body:        body,
			contentType: r.Header.Get("Content-Type"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	srv := testServer(t, upstream.URL, 2*time.Second)

	// 2^53+1 is not representable as float64; a decode/re-encode cycle
	// would silently round it
	body := `{"id":9007199254740993}`
	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if string(captured.body) != body {
		t.Fatalf("JSON body altered in transit: %q", captured.body)
	}
	if captured.contentType != "application/json" {
		t.Fatalf("JSON body not labeled: %q", captured.contentType)
	}
}

func TestProxyDecodesCompressedUpstreamResponses(t *testing.T) {
	payload := `{"status":"ok"}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			_, _ = io.WriteString(w, payload)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = io.WriteString(gz, payload)
		_ = gz.Close()
	}))
	defer upstream.Close()

	srv := testServer(t, upstream.URL, 2*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/get_user", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Encoding") != "" {
		t.Fatal("Content-Encoding relayed to client")
	}
	if rr.Body.String() != payload {
		t.Fatalf("client received undecoded body: %q", rr.Body.String())
	}
}

func TestProxyStripsHopByHopResponseHeaders(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Keep", "kept")
		w.Header().Set("Content-Encoding", "identity")
		w.Header().Set("Keep-Alive", "timeout=5")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer upstream.Close()

	srv := testServer(t, upstream.URL, 2*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Header().Get("X-Keep") != "kept" {
		t.Fatal("application header was dropped")
	}
	for _, name := range []string{"Content-Encoding", "Keep-Alive"} {
		if rr.Header().Get(name) != "" {
			t.Fatalf("hop-by-hop header %s relayed", name)
		}
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("body altered: %q", rr.Body.String())
	}
}

func TestProxyUnreachableUpstreamReturns502(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	srv := testServer(t, upstream.URL, time.Second)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"a@b.com"}`))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("502 body is not JSON: %v", err)
	}
	if payload["message"] != "internal proxy error" {
		t.Fatalf("unexpected message: %q", payload["message"])
	}
	if payload["error"] == "" {
		t.Fatal("502 body missing error summary")
	}
}

func TestProxyTimesOutSlowUpstream(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		upstream.Close()
	}()

	srv := testServer(t, upstream.URL, 50*time.Millisecond)

	start := time.Now()
	req := httptest.NewRequest(http.MethodGet, "/api/get_user", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on timeout, got %d", rr.Code)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("proxy blocked for %v instead of failing fast", elapsed)
	}
}

func TestProxyRejectsUnsupportedMethods(t *testing.T) {
	srv := testServer(t, "http://127.0.0.1:1", time.Second)

	req := httptest.NewRequest(http.MethodHead, "/api/get_user", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestProxyHandlesBareAPIPath(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	srv := testServer(t, upstream.URL, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if gotPath != "/api" {
		t.Fatalf("upstream saw path %q", gotPath)
	}
	if rr.Code != http.StatusNotFound {
		t.Fatalf("upstream status not relayed: %d", rr.Code)
	}
}

func TestPagesRender(t *testing.T) {
	srv := testServer(t, "http://127.0.0.1:1", time.Second)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("index: expected 200, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Test Institute") {
		t.Fatal("dashboard does not render the institute name")
	}

	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown path: expected 404, got %d", rr.Code)
	}
}
