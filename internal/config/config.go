package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://dignifiedlabs-dev.frontegg.com"
	DefaultAPIURL  = "https://api.frontegg.com"
)

// Config holds everything the service reads from the environment.
type Config struct {
	ClientID      string
	APIKey        string
	BaseURL       string
	APIURL        string
	TenantID      string
	DefaultRoleID string
	ApplicationID string
	OverridesURL  string
	PublicURL     string
	RedisURL      string
	JWKSURL       string
	JWTPublicKey  string
	Port          string
	MetricsUser   string
	MetricsPass   string
	PprofSecret   string
}

// MissingError reports a required environment value that is not set.
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s environment variable is not set", e.Key)
}

// LoadDotEnv reads .env files if present. Missing files are not an error.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			return
		}
	}
	log.Println("No .env file found")
}

// Load builds a Config from the process environment. The JWKS URL defaults
// to the vendor's well-known key set under BaseURL.
func Load() *Config {
	baseURL := trimSlash(getEnv("FRONTEGG_BASE_URL", DefaultBaseURL))
	return &Config{
		ClientID:      os.Getenv("FRONTEGG_CLIENT_ID"),
		APIKey:        os.Getenv("FRONTEGG_API_KEY"),
		BaseURL:       baseURL,
		APIURL:        trimSlash(getEnv("FRONTEGG_API_URL", DefaultAPIURL)),
		TenantID:      os.Getenv("FRONTEGG_TENANT_ID"),
		DefaultRoleID: os.Getenv("FRONTEGG_DEFAULT_ROLE_ID"),
		ApplicationID: os.Getenv("FRONTEGG_APPLICATION_ID"),
		OverridesURL:  os.Getenv("FRONTEGG_OVERRIDES_URL"),
		PublicURL:     trimSlash(getEnv("PUBLIC_URL", "http://localhost:3333")),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWKSURL:       getEnv("FRONTEGG_JWKS_URL", baseURL+"/.well-known/jwks.json"),
		JWTPublicKey:  os.Getenv("FRONTEGG_JWT_PUBLIC_KEY"),
		Port:          getEnv("PORT", "3333"),
		MetricsUser:   os.Getenv("METRICS_USER"),
		MetricsPass:   os.Getenv("METRICS_PASS"),
		PprofSecret:   os.Getenv("PPROF_SECRET"),
	}
}

// Require returns a *MissingError for the first empty key.
func (c *Config) Require(keys ...string) error {
	values := map[string]string{
		"FRONTEGG_CLIENT_ID":       c.ClientID,
		"FRONTEGG_API_KEY":         c.APIKey,
		"FRONTEGG_TENANT_ID":       c.TenantID,
		"FRONTEGG_DEFAULT_ROLE_ID": c.DefaultRoleID,
		"FRONTEGG_APPLICATION_ID":  c.ApplicationID,
		"FRONTEGG_OVERRIDES_URL":   c.OverridesURL,
	}
	for _, k := range keys {
		if values[k] == "" {
			return &MissingError{Key: k}
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func trimSlash(s string) string {
	return strings.TrimRight(s, "/")
}
