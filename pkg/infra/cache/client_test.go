package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_UnreachableAddressStillBuilds(t *testing.T) {
	logger, hook := test.NewNullLogger()

	c := NewClient(Config{Host: "127.0.0.1", Port: 1, PoolSize: 4}, logger)
	require.NotNil(t, c)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, "127.0.0.1:1", c.RedisClient().Options().Addr)
	assert.Equal(t, 4, c.RedisClient().Options().PoolSize)
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, "redis client configured", hook.LastEntry().Message)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, c.Ping(ctx))
}

func TestClient_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewClientFrom(db)

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, c.Ping(context.Background()))

	mock.ExpectPing().SetErr(errors.New("down"))
	assert.EqualError(t, c.Ping(context.Background()), "down")

	assert.Same(t, db, c.RedisClient())
	assert.NoError(t, mock.ExpectationsWereMet())
}
