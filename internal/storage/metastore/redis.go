package metastore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// scanBatch — подсказка размера страницы для SCAN.
const scanBatch = 500

// RedisStore — хранилище метаданных в Redis.
// Ключ записи — prefix+cid, значение — сериализованная запись (строка).
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore создаёт клиент Redis и возвращает хранилище.
func NewRedisStore(addr, password string, db int, prefix string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreWithClient(rdb, prefix)
}

// NewRedisStoreWithClient оборачивает готовый клиент (кластер, sentinel, тесты).
func NewRedisStoreWithClient(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Put выполняет SET без TTL.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// Get выполняет GET; redis.Nil превращается в ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return value, nil
}

// Keys обходит пространство ключей курсором SCAN MATCH prefix*.
// SCAN может вернуть ключ повторно, поэтому результат дедуплицируется.
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string

	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		key := strings.TrimPrefix(iter.Val(), s.prefix)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis SCAN: %w", err)
	}
	return keys, nil
}

// Ping проверяет соединение с Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close закрывает клиент.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var (
	_ Store  = (*RedisStore)(nil)
	_ Pinger = (*RedisStore)(nil)
)
