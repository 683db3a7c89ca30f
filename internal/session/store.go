package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store persists session states.
type Store interface {
	// Get returns the state for key, or nil if there is none.
	Get(ctx context.Context, key string) (*State, error)

	// Create stores a new state with Version 1. It returns ErrExists when
	// the key is taken.
	Create(ctx context.Context, s *State) error

	// Update replaces a stored state if s.Version matches the stored
	// version, then increments s.Version. It returns ErrVersionConflict on
	// mismatch and ErrNotFound if the key is gone.
	Update(ctx context.Context, s *State) error

	// Delete removes the state for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Keys lists every stored session key.
	Keys(ctx context.Context) ([]string, error)

	// Close releases the store's resources.
	Close() error
}

// StoreType names a session store driver.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

const (
	defaultRedisTTL    = 24 * time.Hour
	defaultRedisPrefix = "mathibot:session:"
)

// StoreOption configures NewStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	redisTTL    time.Duration
	redisPrefix string
	now         func() time.Time
	logger      *zap.Logger
}

// WithRedisClient sets the client used by the Redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL sets the expiry of Redis keys, refreshed on every access.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

// WithKeyPrefix sets the Redis key namespace.
func WithKeyPrefix(prefix string) StoreOption {
	return func(c *storeConfig) {
		c.redisPrefix = prefix
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) {
		c.now = now
	}
}

// WithLogger sets the logger for driver warnings.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// NewStore creates a session store of the given type. The Redis driver
// requires WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	switch storeType {
	case StoreTypeMemory, "":
		return newMemoryStore(cfg.now), nil

	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		ttl := cfg.redisTTL
		if ttl <= 0 {
			ttl = defaultRedisTTL
		}
		prefix := cfg.redisPrefix
		if prefix == "" {
			prefix = defaultRedisPrefix
		}
		return &redisStore{client: cfg.redisClient, ttl: ttl, prefix: prefix, now: cfg.now, logger: cfg.logger}, nil

	default:
		return nil, ErrInvalidStoreType
	}
}
