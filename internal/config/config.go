// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable keys.
const (
	EnvDBPath          = "SHAREBITE_DB"
	EnvAddr            = "SHAREBITE_ADDR"
	EnvAdminUser       = "SHAREBITE_ADMIN_USER"
	EnvLogPath         = "SHAREBITE_LOG"
	EnvShutdownTimeout = "SHAREBITE_SHUTDOWN_TIMEOUT"
	EnvMetrics         = "SHAREBITE_METRICS"
)

// Config holds the server settings. Command-line flags override it.
type Config struct {
	DBPath          string
	Addr            string
	AdminUser       string
	LogPath         string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
}

// Load reads the given .env files, if they exist, and then the environment.
// Variables already set in the environment win over the files. With no
// files, ".env" in the working directory is tried.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	return Config{
		DBPath:          GetEnv(EnvDBPath, "sharebite.sqlite3"),
		Addr:            GetEnv(EnvAddr, ":8080"),
		AdminUser:       GetEnv(EnvAdminUser, "Admin"),
		LogPath:         GetEnv(EnvLogPath, ""),
		ShutdownTimeout: GetDuration(EnvShutdownTimeout, 5*time.Second),
		MetricsEnabled:  GetBool(EnvMetrics, true),
	}, nil
}

// GetEnv returns the value of key, or defaultValue if it is unset.
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetBool returns key parsed as a bool. Unset or unparsable values yield
// defaultValue.
func GetBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetDuration returns key parsed with time.ParseDuration. Unset or
// unparsable values yield defaultValue.
func GetDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
