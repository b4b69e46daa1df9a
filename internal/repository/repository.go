package repository

import (
	"context"

	"github.com/kushall1845/Vcube-App/internal/domain"
)

// UserRepository persists users. Email lookups expect the caller to have
// normalized the address already; the store compares byte-for-byte.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id string, hash []byte) error
}
