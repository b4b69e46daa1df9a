package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/kushall1845/Vcube-App/internal/config"
	"github.com/kushall1845/Vcube-App/internal/crypto"
	"github.com/kushall1845/Vcube-App/internal/domain"
	"github.com/kushall1845/Vcube-App/internal/repository"
	"github.com/kushall1845/Vcube-App/internal/token"
)

var (
	ErrMissingFields      = errors.New("auth: required fields missing")
	ErrInvalidEmail       = errors.New("auth: invalid email format")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrWrongOldPassword   = errors.New("auth: old password incorrect")
)

var emailShape = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// Service handles identity workflows.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
// The normalized form is the uniqueness and lookup key everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user. Name, email and password are required after
// trimming; the email must be local@domain.tld shaped and not yet taken.
func (s Service) Register(ctx context.Context, name, email, course, password string) error {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	course = strings.TrimSpace(course)
	if name == "" || email == "" || password == "" {
		return ErrMissingFields
	}
	if !emailShape.MatchString(email) {
		return ErrInvalidEmail
	}
	hash, err := crypto.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Course:       course,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return nil
}

// Login authenticates a user and issues a bearer token. An unknown email and
// a wrong password produce the same error so callers cannot tell which field
// was wrong.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", ErrMissingFields
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	signed, err := token.Issue(user.ID, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, signed, nil
}

// ChangePassword verifies the old password and persists a hash of the new
// one. The store update is a single conditional write, so a failed persist
// leaves the previous credential in effect.
func (s Service) ChangePassword(ctx context.Context, user *domain.User, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	if err := crypto.ComparePassword(user.PasswordHash, oldPassword); err != nil {
		return ErrWrongOldPassword
	}
	hash, err := crypto.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.logger.Info("password changed", "user_id", user.ID)
	return nil
}

// Authorize validates a bearer token and resolves the user it references.
// Token failures keep their kind (expired, bad signature, malformed); a user
// that no longer resolves reports repository.ErrNotFound.
func (s Service) Authorize(ctx context.Context, raw string) (*domain.User, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, token.ErrMalformed
	}
	claims, err := token.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return user, nil
}
