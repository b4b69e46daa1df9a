package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kushall1845/Vcube-App/internal/domain"
	"github.com/kushall1845/Vcube-App/internal/repository"
	"github.com/kushall1845/Vcube-App/internal/token"
)

// authedHandler receives the resolved user explicitly. Handlers never parse
// tokens themselves.
type authedHandler func(w http.ResponseWriter, req *http.Request, user *domain.User)

// requireAuth validates the bearer token and resolves the user before
// invoking the handler, short-circuiting with a kind-specific 401 otherwise.
func (r *Router) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		raw, err := bearerToken(req.Header.Get("Authorization"))
		if err != nil {
			r.logger.Warn("authorization header invalid", "error", err, "path", req.URL.Path)
			writeMessage(w, http.StatusUnauthorized, "token is missing")
			return
		}
		user, err := r.auth.Authorize(req.Context(), raw)
		if err != nil {
			r.logger.Warn("token validation failed", "error", err, "path", req.URL.Path)
			writeMessage(w, http.StatusUnauthorized, authFailureMessage(err))
			return
		}
		next(w, req, user)
	}
}

// authFailureMessage maps validation failures to client-facing text. None of
// the variants carry detail beyond the summary.
func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "token has expired"
	case errors.Is(err, repository.ErrNotFound):
		return "user not found"
	default:
		return "invalid token"
	}
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", errors.New("empty bearer token")
	}
	return tok, nil
}
