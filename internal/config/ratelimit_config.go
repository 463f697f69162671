package config

import "time"

const (
	rateLimitWindowVar = "RATE_LIMIT_WINDOW_MS"
	rateLimitMaxVar    = "RATE_LIMIT_MAX_REQUESTS"
	uploadLimitMaxVar  = "RATE_LIMIT_UPLOAD_MAX"
)

type RateLimitConfig interface {
	GetRateLimitWindow() time.Duration
	GetRateLimitMaxRequests() int
	GetUploadRateLimitMax() int
}

type RateLimit struct{}

var _ RateLimitConfig = RateLimit{}

func (RateLimit) GetRateLimitWindow() time.Duration {
	return GetEnvMillis(rateLimitWindowVar, time.Minute)
}

func (RateLimit) GetRateLimitMaxRequests() int {
	return int(GetEnvInt64(rateLimitMaxVar, 100))
}

func (RateLimit) GetUploadRateLimitMax() int {
	return int(GetEnvInt64(uploadLimitMaxVar, 10))
}
