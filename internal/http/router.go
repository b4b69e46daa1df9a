package httpx

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kushall1845/Vcube-App/internal/domain"
	"github.com/kushall1845/Vcube-App/internal/service/auth"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	auth    auth.Service
	limiter RateLimiter

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault = time.Minute
	rateLimitRegister = 5
	rateLimitLogin    = 12
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, limiter RateLimiter) *Router {
	r := &Router{
		mux:     http.NewServeMux(),
		logger:  logger,
		auth:    authSvc,
		limiter: limiter,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/api/health", r.audit(r.handleHealth))
	r.mux.HandleFunc("/api/register", r.audit(r.withRateLimit("/api/register", rateLimitRegister, rateWindowDefault, r.handleRegister)))
	r.mux.HandleFunc("/api/login", r.audit(r.withRateLimit("/api/login", rateLimitLogin, rateWindowDefault, r.handleLogin)))
	r.mux.HandleFunc("/api/change_password", r.audit(r.requireAuth(r.handleChangePassword)))
	r.mux.HandleFunc("/api/get_user", r.audit(r.requireAuth(r.handleGetUser)))
	r.mux.Handle("/metrics", promhttp.Handler())
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Course   string `json:"course"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	err := r.auth.Register(req.Context(), payload.Name, payload.Email, payload.Course, payload.Password)
	switch {
	case err == nil:
		writeMessage(w, http.StatusCreated, "registered successfully")
	case errors.Is(err, auth.ErrMissingFields):
		writeMessage(w, http.StatusBadRequest, "name, email and password are required")
	case errors.Is(err, auth.ErrInvalidEmail):
		writeMessage(w, http.StatusBadRequest, "invalid email format")
	case errors.Is(err, auth.ErrEmailTaken):
		writeMessage(w, http.StatusBadRequest, "user already exists")
	default:
		r.logger.Error("registration failed", "error", err)
		writeErrorDetail(w, http.StatusInternalServerError, "database error", err)
	}
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, signed, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"token": signed,
			"user":  user.Profile(),
		})
	case errors.Is(err, auth.ErrMissingFields):
		writeMessage(w, http.StatusBadRequest, "email and password required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
	default:
		r.logger.Error("login failed", "error", err)
		writeErrorDetail(w, http.StatusInternalServerError, "database error", err)
	}
}

func (r *Router) handleChangePassword(w http.ResponseWriter, req *http.Request, user *domain.User) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	err := r.auth.ChangePassword(req.Context(), user, payload.OldPassword, payload.NewPassword)
	switch {
	case err == nil:
		writeMessage(w, http.StatusOK, "password changed successfully")
	case errors.Is(err, auth.ErrMissingFields):
		writeMessage(w, http.StatusBadRequest, "both old and new password required")
	case errors.Is(err, auth.ErrWrongOldPassword):
		writeMessage(w, http.StatusUnauthorized, "old password incorrect")
	default:
		r.logger.Error("password change failed", "error", err, "user_id", user.ID)
		writeErrorDetail(w, http.StatusInternalServerError, "database error", err)
	}
}

func (r *Router) handleGetUser(w http.ResponseWriter, req *http.Request, user *domain.User) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, user.Profile())
}

// handleHealth is a liveness probe. It succeeds while the process is alive
// regardless of store state.
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
}

// audit logs every request and feeds the request metrics.
func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
		r.recordRequestMetrics(req.Method, req.URL.Path, status, duration)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}
