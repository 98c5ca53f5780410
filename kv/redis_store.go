package kv

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisStoreOptions struct {
	// host:port 地址
	Endpoint string `cfg:"endpoint"`

	// 集群节点地址列表，Endpoint 为空时使用
	Endpoints []string `cfg:"endpoints"`

	Username string `cfg:"username"`
	Password string `cfg:"password"`
	DB       int    `cfg:"db" def:"0"`

	// 所有键的公共前缀
	KeyPrefix string `cfg:"keyPrefix"`

	// json 或 msgpack
	Serializer string `cfg:"serializer" def:"msgpack"`

	// Set 未指定过期时间时使用，0 表示不过期
	DefaultTTL time.Duration `cfg:"defaultTTL" def:"0"`

	MaxRetries   int           `cfg:"maxRetries" def:"3"`
	DialTimeout  time.Duration `cfg:"dialTimeout" def:"5s"`
	ReadTimeout  time.Duration `cfg:"readTimeout" def:"3s"`
	WriteTimeout time.Duration `cfg:"writeTimeout" def:"3s"`
	PoolSize     int           `cfg:"poolSize" def:"100"`
}

type RedisStore[V any] struct {
	client     redis.UniversalClient
	serializer Serializer[V]
	keyPrefix  string
	defaultTTL time.Duration
}

func NewRedisStoreWithOptions[V any](options *RedisStoreOptions) (*RedisStore[V], error) {
	if options == nil {
		return nil, errors.New("redis store options is nil")
	}
	serializer, err := NewSerializer[V](options.Serializer)
	if err != nil {
		return nil, err
	}

	var client redis.UniversalClient
	if options.Endpoint != "" {
		client = redis.NewClient(&redis.Options{
			Addr:         options.Endpoint,
			Username:     options.Username,
			Password:     options.Password,
			DB:           options.DB,
			MaxRetries:   options.MaxRetries,
			DialTimeout:  options.DialTimeout,
			ReadTimeout:  options.ReadTimeout,
			WriteTimeout: options.WriteTimeout,
			PoolSize:     options.PoolSize,
		})
	} else if len(options.Endpoints) > 0 {
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        options.Endpoints,
			Username:     options.Username,
			Password:     options.Password,
			MaxRetries:   options.MaxRetries,
			DialTimeout:  options.DialTimeout,
			ReadTimeout:  options.ReadTimeout,
			WriteTimeout: options.WriteTimeout,
			PoolSize:     options.PoolSize,
		})
	} else {
		return nil, errors.Errorf("Endpoint or Endpoints must be set")
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, errors.WithMessage(err, "redis.client.Ping failed")
	}

	return &RedisStore[V]{
		client:     client,
		serializer: serializer,
		keyPrefix:  options.KeyPrefix,
		defaultTTL: options.DefaultTTL,
	}, nil
}

func (s *RedisStore[V]) key(key string) string {
	return s.keyPrefix + key
}

func (s *RedisStore[V]) Set(ctx context.Context, key string, value V, opts ...SetOption) error {
	options := newSetOptions(opts)
	data, err := s.serializer.Serialize(value)
	if err != nil {
		return errors.Wrap(err, "serialize value failed")
	}

	ttl := options.Expiration
	if ttl == 0 {
		ttl = s.defaultTTL
	}

	if options.IfNotExist {
		ok, err := s.client.SetNX(ctx, s.key(key), data, ttl).Result()
		if err != nil {
			return errors.Wrap(err, "redis.SetNX failed")
		}
		if !ok {
			return ErrConditionFailed
		}
		return nil
	}

	if err := s.client.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis.Set failed")
	}
	return nil
}

func (s *RedisStore[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrKeyNotFound
	}
	if err != nil {
		return zero, errors.Wrap(err, "redis.Get failed")
	}
	value, err := s.serializer.Deserialize(data)
	if err != nil {
		return zero, errors.Wrap(err, "deserialize value failed")
	}
	return value, nil
}

func (s *RedisStore[V]) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return errors.Wrap(err, "redis.Del failed")
	}
	return nil
}

// BatchGet 使用 MGET，集群模式下要求所有键在同一个 slot
func (s *RedisStore[V]) BatchGet(ctx context.Context, keys []string) ([]V, []error, error) {
	values := make([]V, len(keys))
	errs := make([]error, len(keys))
	if len(keys) == 0 {
		return values, errs, nil
	}

	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = s.key(key)
	}
	results, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, nil, errors.Wrap(err, "redis.MGet failed")
	}

	for i, result := range results {
		if result == nil {
			errs[i] = ErrKeyNotFound
			continue
		}
		str, ok := result.(string)
		if !ok {
			errs[i] = errors.Errorf("unexpected redis value type %T", result)
			continue
		}
		if values[i], err = s.serializer.Deserialize([]byte(str)); err != nil {
			errs[i] = errors.Wrap(err, "deserialize value failed")
		}
	}
	return values, errs, nil
}

func (s *RedisStore[V]) Close() error {
	return s.client.Close()
}
