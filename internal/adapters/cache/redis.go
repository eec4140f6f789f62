package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/averel/dayloop/internal/offline"
)

func NewRedisClient(host, port, password string, dbIndex int) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           dbIndex,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return rdb, nil
}

const bucketIndexKey = "offline:buckets"

var _ offline.BucketStore = (*RedisBucketStore)(nil)

// RedisBucketStore keeps offline cache buckets in Redis, one JSON value
// per entry plus a set indexing the live bucket names.
type RedisBucketStore struct {
	rdb *redis.Client
}

func NewRedisBucketStore(rdb *redis.Client) *RedisBucketStore {
	return &RedisBucketStore{rdb: rdb}
}

func entryKey(bucket, url string) string {
	return fmt.Sprintf("offline:%s:%s", bucket, url)
}

func (s *RedisBucketStore) Put(ctx context.Context, bucket, url string, resp *offline.CachedResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, entryKey(bucket, url), data, 0)
	pipe.SAdd(ctx, bucketIndexKey, bucket)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisBucketStore) Get(ctx context.Context, bucket, url string) (*offline.CachedResponse, error) {
	val, err := s.rdb.Get(ctx, entryKey(bucket, url)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, offline.ErrCacheMiss
		}
		return nil, err
	}

	var resp offline.CachedResponse
	if err := json.Unmarshal(val, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *RedisBucketStore) Buckets(ctx context.Context) ([]string, error) {
	return s.rdb.SMembers(ctx, bucketIndexKey).Result()
}

func (s *RedisBucketStore) DeleteBucket(ctx context.Context, name string) error {
	pattern := entryKey(name, "*")

	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	return s.rdb.SRem(ctx, bucketIndexKey, name).Err()
}
