package common

type contextKey string

const (
	CallerIDContextKey   contextKey = "caller_id"
	CallerTierContextKey contextKey = "caller_tier"
	AdmissionResultKey   contextKey = "admission_result"
)
