package common

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserTier  = "X-User-Tier"
	HeaderRequestID = "X-Request-ID"

	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRateLimitPolicy    = "X-RateLimit-Policy"

	HealthPath = "/health"
	PingPath   = "/__/ping"
)
