package config

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// APIConfig holds runtime configuration for the identity API service.
type APIConfig struct {
	Environment        string
	Debug              bool
	Addr               string
	DatabaseURL        string
	MigrationsDir      string
	JWTSecret          string
	TokenTTL           time.Duration
	BcryptCost         int
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:        GetString("APP_ENV", "development"),
		Debug:              GetBool("APP_DEBUG", false),
		Addr:               GetString("APP_ADDR", ":5001"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://vcube:vcube@db:5432/vcube?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "migrations"),
		JWTSecret:          GetString("SECRET_KEY", "supersecretkey"),
		TokenTTL:           time.Duration(GetInt("TOKEN_TTL_HOURS", 8)) * time.Hour,
		BcryptCost:         GetInt("BCRYPT_COST", bcrypt.DefaultCost),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
