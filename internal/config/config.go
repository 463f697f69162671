package config

import (
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	GitHubConfig
	SessionConfig
	UploadConfig
	RateLimitConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetAppVersion() string
	GetBaseURL() string
	GetLogLevel() string
	GetEnv() string
	IsProduction() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type mainConfig struct {
	EnvVars
	Cors
	GitHub
	Session
	Upload
	RateLimit
}

// New returns a Config backed by the process environment.
func New() Config {
	return mainConfig{}
}

// Load reads an optional .env file into the environment and returns the Config.
// Variables already set in the environment take precedence over the file.
func Load(filenames ...string) Config {
	_ = godotenv.Load(filenames...)
	return New()
}
