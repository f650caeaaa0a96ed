package dependency_container

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/config"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/auditlogs"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/cache"
	"github.com/go-redis/redismock/v8"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefaults(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	return cfg
}

func descriptor() ratelimit.Descriptor {
	return ratelimit.Descriptor{
		Method:     http.MethodGet,
		Path:       "/api/v1/items",
		RemoteAddr: "192.0.2.10:51000",
	}
}

func TestNewContainer_LocalOnly(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Server.SecretKey = "secret"
	logger, _ := test.NewNullLogger()

	c, err := NewContainer(ContainerDI{Cfg: cfg, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })

	assert.Nil(t, c.Cache)
	assert.NotNil(t, c.JWTManager)
	assert.Len(t, c.MiddlewareTransport.Handlers(), 5)

	res := c.AdmissionService.Check(context.Background(), descriptor())
	assert.True(t, res.Enforced)
	assert.False(t, res.Decision.Blocked)
	assert.Equal(t, "default", res.Policy.Name)
	assert.Equal(t, 99, res.Decision.Remaining)
	assert.Equal(t, 1, c.Store.Len().Windows)
}

func TestNewContainer_SharedStoreFallsBackLocally(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.RateLimit.Distributed.Enabled = true
	logger, _ := test.NewNullLogger()
	db, mock := redismock.NewClientMock()
	mock.ExpectPing().SetVal("PONG")

	c, err := NewContainer(ContainerDI{Cfg: cfg, Logger: logger, Cache: cache.NewClientFrom(db)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	res := c.AdmissionService.Check(context.Background(), descriptor())
	assert.True(t, res.Enforced)
	assert.False(t, res.Decision.Blocked)
	assert.True(t, res.Decision.Degraded)
	assert.Equal(t, 1, c.Store.Len().Windows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewContainer_UnreachableStoreDegrades(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.RateLimit.Distributed.Enabled = true
	cfg.RateLimit.Distributed.Timeout = 200 * time.Millisecond
	cfg.Redis.Host = "127.0.0.1"
	cfg.Redis.Port = 1
	logger, hook := test.NewNullLogger()

	c, err := NewContainer(ContainerDI{Cfg: cfg, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NotNil(t, c.Cache)

	var startup []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Data["event_type"] == auditlogs.EventTypeDegradedMode && e.Data["target_type"] == auditlogs.TargetTypeCounterStore {
			startup = append(startup, e)
		}
	}
	assert.Len(t, startup, 1)

	res := c.AdmissionService.Check(context.Background(), descriptor())
	assert.True(t, res.Enforced)
	assert.False(t, res.Decision.Blocked)
	assert.True(t, res.Decision.Degraded)
	assert.Equal(t, 1, c.Store.Len().Windows)
}

func TestNewContainer_InvalidTrustedProxies(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.RateLimit.TrustedProxies = []string{"not-a-cidr"}
	logger, _ := test.NewNullLogger()

	_, err := NewContainer(ContainerDI{Cfg: cfg, Logger: logger})
	assert.Error(t, err)
}
