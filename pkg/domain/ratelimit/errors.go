package ratelimit

import "errors"

var (
	ErrInvalidPolicy      = errors.New("ratelimit: invalid policy")
	ErrInvalidWindow      = errors.New("ratelimit: window must be positive")
	ErrInvalidMaxRequests = errors.New("ratelimit: max requests must be positive")
	ErrInvalidCapacity    = errors.New("ratelimit: bucket capacity must be at least 1")
	ErrInvalidRefillRate  = errors.New("ratelimit: refill rate must be positive")
	ErrUnknownAlgorithm   = errors.New("ratelimit: unknown algorithm")
	ErrStoreUnavailable   = errors.New("ratelimit: shared store unavailable")
)
