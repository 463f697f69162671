package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	appVersionVar  = "APP_VERSION"
	baseURLVar     = "BASE_URL"
	logLevelEnvVar = "LOG_LEVEL"
	envEnvVar      = "ENV"

	EnvDevelopment = "DEV"
	EnvProduction  = "PROD"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "3000")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Repo Uploader")
}

func (EnvVars) GetAppVersion() string {
	return GetEnv(appVersionVar, "1.0.0")
}

// GetBaseURL returns the public URL of the service (e.g., "https://uploader.example.com").
// The GitHub OAuth redirect URL is derived from it.
func (EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(GetEnv(baseURLVar, "http://localhost:3000"), "/")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelEnvVar, "info")
}

func (EnvVars) GetEnv() string {
	return strings.ToUpper(GetEnv(envEnvVar, EnvDevelopment))
}

func (e EnvVars) IsProduction() bool {
	return e.GetEnv() == EnvProduction
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt64 reads an integer variable, returning defaultValue when unset or malformed.
func GetEnvInt64(envVar string, defaultValue int64) int64 {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

// GetEnvMillis reads a duration expressed in milliseconds.
func GetEnvMillis(envVar string, defaultValue time.Duration) time.Duration {
	ms := GetEnvInt64(envVar, -1)
	if ms < 0 {
		return defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}
