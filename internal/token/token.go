package token

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Verification failures are reported as one of these kinds, never conflated:
// the middleware surfaces a kind-specific message for each.
var (
	ErrExpired      = errors.New("token: expired")
	ErrBadSignature = errors.New("token: bad signature")
	ErrMalformed    = errors.New("token: malformed")
)

// Claims defines the JWT payload.
type Claims struct {
	UserID string `json:"id"`
	jwtlib.RegisteredClaims
}

// Issue signs a JWT for the user with the provided secret and ttl.
func Issue(userID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    "vcube",
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// Parse validates the token and extracts its claims. Only HS256 is accepted.
func Parse(token, secret string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}))
	if err != nil {
		return nil, classify(err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return ErrBadSignature
	default:
		return ErrMalformed
	}
}
