package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by [ApplyEnv] and the CLI.
const (
	EnvAPIURL      = "CADENCE_API_URL"
	EnvSessionPath = "CADENCE_SESSION_PATH"
	EnvPersist     = "CADENCE_PERSIST_REFRESH_TOKEN"
	EnvDBPath      = "CADENCE_DB_PATH"
	EnvLogLevel    = "CADENCE_LOG_LEVEL"
	EnvEmail       = "CADENCE_EMAIL"
	EnvPassword    = "CADENCE_PASSWORD"
)

// LoadDotEnv loads variables from the given .env files (default ".env") without overriding variables already set.
// Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	present := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// ApplyEnv overrides configuration values from CADENCE_* environment variables.
func ApplyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvAPIURL); ok && v != "" {
		cfg.API.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvSessionPath); ok && v != "" {
		cfg.Session.Path = v
	}
	if v, ok := os.LookupEnv(EnvPersist); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Session.PersistRefreshToken = b
		}
	}
	if v, ok := os.LookupEnv(EnvDBPath); ok && v != "" {
		cfg.Database.Path = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
}

// EnvCredentials returns the login email and password from the environment.
func EnvCredentials() (email, password string) {
	return os.Getenv(EnvEmail), os.Getenv(EnvPassword)
}
