package offline

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

var ErrCacheMiss = errors.New("offline cache: entry not found")

// CachedResponse is one stored request→response entry. The body is a
// fully materialized byte slice: a live response body can be consumed
// exactly once, so it is duplicated into here before anyone reads it.
type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
}

// BucketStore holds named, versioned cache buckets of URL-keyed entries.
// Exactly one bucket is current at a time; the others are stale and
// eligible for deletion.
type BucketStore interface {
	// Put stores an entry in the named bucket, creating the bucket if
	// absent.
	Put(ctx context.Context, bucket, url string, resp *CachedResponse) error

	// Get returns the entry for the exact URL, or ErrCacheMiss.
	Get(ctx context.Context, bucket, url string) (*CachedResponse, error)

	// Buckets enumerates all existing bucket names.
	Buckets(ctx context.Context) ([]string, error)

	// DeleteBucket removes a bucket and all its entries.
	DeleteBucket(ctx context.Context, name string) error
}

// MemoryBucketStore is the in-process BucketStore used by tests and by
// deployments running without Redis.
type MemoryBucketStore struct {
	buckets map[string]map[string]*CachedResponse

	mu sync.RWMutex
}

func NewMemoryBucketStore() *MemoryBucketStore {
	return &MemoryBucketStore{
		buckets: make(map[string]map[string]*CachedResponse),
	}
}

func (s *MemoryBucketStore) Put(ctx context.Context, bucket, url string, resp *CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.buckets[bucket]
	if !ok {
		entries = make(map[string]*CachedResponse)
		s.buckets[bucket] = entries
	}
	entries[url] = resp
	return nil
}

func (s *MemoryBucketStore) Get(ctx context.Context, bucket, url string) (*CachedResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp, ok := s.buckets[bucket][url]
	if !ok {
		return nil, ErrCacheMiss
	}
	return resp, nil
}

func (s *MemoryBucketStore) Buckets(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	return names, nil
}

func (s *MemoryBucketStore) DeleteBucket(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.buckets, name)
	return nil
}
