package web

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"log/slog"

	"github.com/kushall1845/Vcube-App/internal/config"
)

//go:embed templates
var templateFS embed.FS

// Server hosts the public web UI and relays /api calls to the internal
// identity API.
type Server struct {
	cfg       config.WebConfig
	templates *template.Template
	mux       *http.ServeMux
	client    *http.Client
	logger    *slog.Logger
}

// New constructs a configured server ready to serve HTTP traffic.
func New(cfg config.WebConfig, logger *slog.Logger) (*Server, error) {
	if strings.TrimSpace(cfg.AppInternal) == "" {
		return nil, errors.New("APP_INTERNAL must point at the identity API")
	}
	tmplFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	templates, err := template.New("base").ParseFS(tmplFS, "*.html")
	if err != nil {
		return nil, err
	}
	srv := &Server{
		cfg:       cfg,
		templates: templates,
		mux:       http.NewServeMux(),
		client:    &http.Client{},
		logger:    logger,
	}
	srv.registerRoutes()
	return srv, nil
}

// ServeHTTP conforms to http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/dashboard", s.handleDashboard)
	s.mux.HandleFunc("/api", s.handleAPIProxy)
	s.mux.HandleFunc("/api/", s.handleAPIProxy)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, "index", map[string]any{
		"Title": "Welcome",
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, "dashboard", map[string]any{
		"Title":         "Dashboard",
		"InstituteName": s.cfg.InstituteName,
	})
}

func (s *Server) render(w http.ResponseWriter, tpl string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, tpl, data); err != nil {
		s.logger.Error("template render failed", "template", tpl, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
