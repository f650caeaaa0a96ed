package auditlogs

const (
	EventTypeRateLimitBlocked = "rate_limit.blocked"
	EventTypeDegradedMode     = "rate_limit.degraded"
	EventTypeCleanupFailed    = "rate_limit.cleanup_failed"
)

const (
	CategoryRunTimeSecurity = "runtime_security"
)

const (
	StatusBlocked  = "blocked"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

const (
	TargetTypeRateLimitKey = "rate_limit_key"
	TargetTypeCounterStore = "counter_store"
)
