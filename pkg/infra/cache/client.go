package cache

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

//go:generate mockery --name=Client --dir=. --output=./mocks --filename=client_mock.go --case=underscore --with-expecter
type Client interface {
	RedisClient() *redis.Client
	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TLS      bool
	PoolSize int
}

type client struct {
	redisClient *redis.Client
}

// NewClient builds the shared counter store client. go-redis dials lazily, so
// an unreachable address is not an error here; callers check reachability
// with Ping and decide how to degrade.
func NewClient(config Config, logger *logrus.Logger) Client {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	}
	if config.PoolSize > 0 {
		options.PoolSize = config.PoolSize
	}
	if config.TLS {
		options.TLSConfig = &tls.Config{
			InsecureSkipVerify: true, // #nosec G402
		}
	}

	logger.WithFields(logrus.Fields{
		"host": config.Host,
		"port": config.Port,
		"db":   config.DB,
	}).Info("redis client configured")

	return &client{redisClient: redis.NewClient(options)}
}

// NewClientFrom wraps an existing redis client, e.g. one backed by redismock.
func NewClientFrom(redisClient *redis.Client) Client {
	return &client{redisClient: redisClient}
}

func (c *client) RedisClient() *redis.Client {
	return c.redisClient
}

func (c *client) Ping(ctx context.Context) error {
	return c.redisClient.Ping(ctx).Err()
}

func (c *client) Close() error {
	return c.redisClient.Close()
}
