package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: 8081
  upstream_url: http://backend:3000
  secret_key: s3cret
rate_limit:
  trusted_proxies: ["10.0.0.0/8"]
  default:
    algorithm: sliding
    window: 30s
    max_requests: 50
  endpoints:
    - pattern: /api/v1/auth/login
      methods: [POST]
      name: login
      window: 1m
      max_requests: 5
      key_strategy: ip
    - pattern: /api/v1/stream/*
      algorithm: token-bucket
      max_requests: 20
      window: 10s
      adaptive: true
      skip_failed_requests: true
  tiers:
    free: 1
    pro: 5
  distributed:
    enabled: true
    timeout: 25ms
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, "http://backend:3000", cfg.Server.UpstreamURL)
	assert.Equal(t, []string{"/health", "/__/ping"}, cfg.Server.ExemptPaths)

	rl := cfg.RateLimit
	assert.True(t, rl.Enabled)
	assert.Equal(t, []string{"10.0.0.0/8"}, rl.TrustedProxies)
	assert.Equal(t, ratelimit.AlgorithmSlidingWindow, rl.Default.Algorithm)
	assert.Equal(t, 30*time.Second, rl.Default.Window)
	require.Len(t, rl.Endpoints, 2)
	assert.Equal(t, ratelimit.AlgorithmTokenBucket, rl.Endpoints[1].Algorithm)
	assert.Equal(t, 5.0, rl.Tiers["pro"])
	assert.Equal(t, time.Minute, rl.Cleanup.Interval)
	assert.Equal(t, time.Hour, rl.Cleanup.BucketRetention)
	assert.True(t, rl.Distributed.Enabled)
	assert.Equal(t, 25*time.Millisecond, rl.Distributed.Timeout)
	assert.Equal(t, "gate:", rl.Distributed.KeyPrefix)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9001")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_CLEANUP_INTERVAL", "15s")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 15*time.Second, cfg.RateLimit.Cleanup.Interval)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100, cfg.RateLimit.Default.MaxRequests)
	assert.Equal(t, 50*time.Millisecond, cfg.RateLimit.Distributed.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "unknown algorithm",
			body: "rate_limit:\n  default:\n    algorithm: leaky\n",
		},
		{
			name: "zero window",
			body: "rate_limit:\n  default:\n    window: 0s\n",
		},
		{
			name: "endpoint without pattern",
			body: "rate_limit:\n  endpoints:\n    - max_requests: 1\n      window: 1s\n",
		},
		{
			name: "bad key strategy",
			body: "rate_limit:\n  default:\n    key_strategy: cookie\n",
		},
		{
			name: "relative upstream",
			body: "server:\n  upstream_url: backend\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestPolicyTable(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	table, err := cfg.RateLimit.PolicyTable()
	require.NoError(t, err)

	assert.Equal(t, "default", table.Default.Name)
	assert.Equal(t, ratelimit.AlgorithmSlidingWindow, table.Default.Algorithm())
	assert.Equal(t, ratelimit.KeyByIP, table.Default.KeyStrategy)

	require.Len(t, table.Rules, 2)
	login := table.Rules[0]
	assert.Equal(t, "login", login.Policy.Name)
	assert.Equal(t, []string{"POST"}, login.Methods)
	assert.Equal(t, 5, login.Policy.Limit.MaxRequests())

	stream := table.Rules[1]
	assert.Equal(t, "/api/v1/stream/*", stream.Policy.Name)
	assert.True(t, stream.Policy.Adaptive)
	assert.True(t, stream.Policy.SkipFailedRequests)
	bucket, ok := stream.Policy.Limit.(ratelimit.TokenBucketLimit)
	require.True(t, ok)
	assert.Equal(t, 20.0, bucket.Capacity)
	assert.InDelta(t, 2.0, bucket.RefillRate, 1e-9)
}
