package config

import "time"

// WebConfig holds runtime configuration for the public edge server.
type WebConfig struct {
	Environment   string
	Debug         bool
	Addr          string
	AppInternal   string
	ProxyTimeout  time.Duration
	InstituteName string
}

// LoadWebConfig constructs a WebConfig from environment variables.
func LoadWebConfig() WebConfig {
	return WebConfig{
		Environment:   GetString("APP_ENV", "development"),
		Debug:         GetBool("APP_DEBUG", false),
		Addr:          GetString("WEB_ADDR", ":5000"),
		AppInternal:   GetString("APP_INTERNAL", "http://127.0.0.1:5001"),
		ProxyTimeout:  time.Duration(GetInt("PROXY_TIMEOUT_SECONDS", 10)) * time.Second,
		InstituteName: GetString("INSTITUTE_NAME", "V Cube software solution"),
	}
}
