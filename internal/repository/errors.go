package repository

import "errors"

// ErrNotFound indicates an entity was not located.
var ErrNotFound = errors.New("repository: not found")

// ErrDuplicateEmail indicates a user with the same email already exists.
var ErrDuplicateEmail = errors.New("repository: duplicate email")
