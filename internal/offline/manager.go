package offline

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

const bucketPrefix = "dayloop-static-"

// Fetcher performs upstream requests. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Manager owns the cache bucket lifecycle: install populates the bucket
// of the current version, activate prunes every stale bucket and claims
// the gateway for the new version.
type Manager struct {
	store    BucketStore
	upstream Fetcher
	origin   string
	version  string
	manifest []string

	active atomic.Value // string: the bucket the gateway serves from
}

func NewManager(store BucketStore, upstream Fetcher, origin, version string, manifest []string) *Manager {
	m := &Manager{
		store:    store,
		upstream: upstream,
		origin:   strings.TrimSuffix(origin, "/"),
		version:  version,
		manifest: manifest,
	}
	m.active.Store("")
	return m
}

// BucketName is the versioned name of the current bucket.
func (m *Manager) BucketName() string {
	return bucketPrefix + m.version
}

// ActiveBucket is the bucket the gateway currently serves fallbacks from.
// Empty until the first install or activation of this version.
func (m *Manager) ActiveBucket() string {
	return m.active.Load().(string)
}

// Install populates the versioned bucket with every manifest URL.
// All-or-nothing: every asset is fetched into memory before anything is
// written, and any single failure aborts the whole install with no
// partial population. On success the version is promoted immediately,
// without waiting for in-flight clients of the previous version.
func (m *Manager) Install(ctx context.Context) error {
	fetched := make(map[string]*CachedResponse, len(m.manifest))

	for _, url := range m.manifest {
		resp, err := m.fetchAsset(ctx, url)
		if err != nil {
			return fmt.Errorf("install aborted at %s: %w", url, err)
		}
		fetched[url] = resp
	}

	bucket := m.BucketName()
	for url, resp := range fetched {
		if err := m.store.Put(ctx, bucket, url, resp); err != nil {
			return fmt.Errorf("install failed writing %s: %w", url, err)
		}
	}

	log.Printf("Offline cache installed: bucket %s, %d assets", bucket, len(fetched))

	m.active.Store(bucket)
	return nil
}

// Activate deletes every bucket that is not the current version, then
// claims the gateway. Deletions run concurrently and are best-effort: a
// failed deletion never blocks the remaining ones or the claim, but all
// attempts finish before the claim happens.
func (m *Manager) Activate(ctx context.Context) error {
	names, err := m.store.Buckets(ctx)
	if err != nil {
		return fmt.Errorf("activate failed listing buckets: %w", err)
	}

	current := m.BucketName()

	var wg sync.WaitGroup
	for _, name := range names {
		if name == current {
			continue
		}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := m.store.DeleteBucket(ctx, name); err != nil {
				log.Printf("Offline cache: failed to delete stale bucket %s: %v", name, err)
			}
		}(name)
	}
	wg.Wait()

	m.active.Store(current)
	log.Printf("Offline cache activated: bucket %s is current", current)
	return nil
}

// fetchAsset retrieves one manifest URL, resolving relative entries
// against the upstream origin, and materializes the body.
func (m *Manager) fetchAsset(ctx context.Context, url string) (*CachedResponse, error) {
	target := url
	if strings.HasPrefix(url, "/") {
		target = m.origin + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.upstream.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &CachedResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}
