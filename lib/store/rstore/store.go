package rstore

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvcache/lib/db"
	"github.com/ValentinKolb/kvcache/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/redis/go-redis/v9"
	"io"
	"net"
	"strings"
	"time"
)

var (
	log = logger.GetLogger("store")

	// compareAndDelete returns -1 if the key is missing, 1 if it was deleted and 0 if it holds another value
	compareAndDelete = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
	return -1
end
if v == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)
)

// storeImpl is a store.IStore backed by a Redis server.
// Every operation runs with its own timeout (Config.OpTimeout).
type storeImpl struct {
	client  *redis.Client
	config  Config
	timeout time.Duration
}

// NewRedisStore connects to the Redis server described by config.
// The connection is verified with a PING, an unreachable server is reported as store.RetCUnreachable.
func NewRedisStore(config Config) (store.IStore, error) {
	config = config.withDefaults()

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.OpTimeout,
		WriteTimeout: config.OpTimeout,
		MaxRetries:   config.MaxRetries,
	})

	s := &storeImpl{
		client:  client,
		config:  config,
		timeout: config.OpTimeout,
	}

	ctx, cancel := s.ctx()
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, s.convert("ping", err)
	}

	log.Infof("connected to redis at %s (db %d)", config.Addr, config.DB)
	return s, nil
}

// ctx creates the context for a single operation
func (s *storeImpl) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// convert maps an error of the redis client onto a *store.Error
func (s *storeImpl) convert(op string, err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	switch {
	case errors.Is(err, redis.ErrClosed),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.EOF),
		errors.As(err, &netErr):
		log.Warningf("%s: redis at %s unreachable: %v", op, s.config.Addr, err)
		return store.Errorf(store.RetCUnreachable, "%s: %v", op, err)
	case strings.HasPrefix(err.Error(), "WRONGTYPE"):
		return store.Errorf(store.RetCWrongType, "%s: %v", op, err)
	case strings.HasPrefix(err.Error(), "ERR value is not an integer"),
		strings.HasPrefix(err.Error(), "ERR increment or decrement would overflow"):
		return store.Errorf(store.RetCInvalidOperation, "%s: %v", op, err)
	default:
		return store.Errorf(store.RetCInternalError, "%s: %v", op, err)
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.convert("set", s.client.Set(ctx, key, value, 0).Err())
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.convert("get", err)
	}
	return val, true, nil
}

func (s *storeImpl) Incr(key string) (int64, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	n, err := s.client.Incr(ctx, key).Result()
	return n, s.convert("incr", err)
}

func (s *storeImpl) RPush(key string, value []byte) (int64, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	n, err := s.client.RPush(ctx, key, value).Result()
	return n, s.convert("rpush", err)
}

func (s *storeImpl) LRange(key string, start, stop int64) ([][]byte, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	items, err := s.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, s.convert("lrange", err)
	}

	values := make([][]byte, len(items))
	for i, item := range items {
		values[i] = []byte(item)
	}
	return values, nil
}

func (s *storeImpl) FlushDB() error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.convert("flushdb", s.client.FlushDB(ctx).Err())
}

func (s *storeImpl) SetNX(key string, value []byte, ttl time.Duration) (bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	return ok, s.convert("setnx", err)
}

func (s *storeImpl) Delete(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.convert("del", s.client.Del(ctx, key).Err())
}

// CompareAndDelete implements store.ICompareAndDelete with a Lua script
func (s *storeImpl) CompareAndDelete(key string, expected []byte) (bool, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	n, err := compareAndDelete.Run(ctx, s.client, []string{key}, expected).Int()
	if err != nil {
		return false, false, s.convert("compare-and-delete", err)
	}
	return n == 1, n >= 0, nil
}

// GetDBInfo reports the number of keys of the selected database. The size is not available.
func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	n, err := s.client.DBSize(ctx).Result()
	if err != nil {
		return db.DatabaseInfo{}, s.convert("dbsize", err)
	}
	return db.DatabaseInfo{
		Keys:   int(n),
		DbType: "redis",
		SupportedFeatures: []db.Feature{
			db.FeatureSet, db.FeatureGet, db.FeatureSetNX, db.FeatureDelete,
			db.FeatureIncr, db.FeatureRPush, db.FeatureLRange, db.FeatureFlush,
		},
		Metadata: fmt.Sprintf("redis://%s/%d", s.config.Addr, s.config.DB),
	}, nil
}

// Close closes the connection pool
func (s *storeImpl) Close() error {
	return s.client.Close()
}
