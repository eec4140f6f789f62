package offline

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
)

// Gateway intercepts application requests with a network-first strategy:
// the live network response always wins; the cache bucket only answers
// when the network fails. Freshness over speed, the opposite of
// cache-first.
type Gateway struct {
	manager  *Manager
	store    BucketStore
	upstream Fetcher
	origin   string
}

func NewGateway(manager *Manager, store BucketStore, upstream Fetcher, origin string) *Gateway {
	return &Gateway{
		manager:  manager,
		store:    store,
		upstream: upstream,
		origin:   strings.TrimSuffix(origin, "/"),
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.URL.RequestURI()

	status, header, body, err := g.forward(r)
	if err == nil {
		if status == http.StatusOK {
			// Write-through is asynchronous and never delays the response.
			// The body bytes are already duplicated; the request context is
			// about to die with the response, so the write gets its own.
			clone := &CachedResponse{StatusCode: status, Header: header.Clone(), Body: body}
			bucket := g.manager.ActiveBucket()
			go func() {
				if err := g.store.Put(context.Background(), bucket, key, clone); err != nil {
					log.Printf("Offline cache: write-through failed for %s: %v", key, err)
				}
			}()
		}
		writeResponse(w, status, header, body)
		return
	}

	// Network failure of any kind: fall back, always producing a response.
	bucket := g.manager.ActiveBucket()

	if cached, cacheErr := g.store.Get(r.Context(), bucket, key); cacheErr == nil {
		writeCached(w, cached)
		return
	}

	if isNavigation(r) {
		if page, cacheErr := g.store.Get(r.Context(), bucket, OfflinePage); cacheErr == nil {
			writeCached(w, page)
			return
		}
	}

	w.WriteHeader(http.StatusServiceUnavailable)
}

// forward replays the request against the upstream origin and fully
// reads the body, since it can be consumed exactly once but may be needed
// by both the client and the cache.
func (g *Gateway) forward(r *http.Request) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(r.Context(), r.Method, g.origin+r.URL.RequestURI(), r.Body)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header = r.Header.Clone()

	resp, err := g.upstream.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// A body truncated mid-transfer counts as a network failure.
		return 0, nil, nil, err
	}

	return resp.StatusCode, resp.Header, body, nil
}

// isNavigation reports whether the request is a page navigation, which is
// entitled to the offline fallback page instead of a bare 503.
func isNavigation(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeResponse(w http.ResponseWriter, status int, header http.Header, body []byte) {
	for k, vals := range header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(status)
	if len(body) > 0 {
		w.Write(body)
	}
}

func writeCached(w http.ResponseWriter, resp *CachedResponse) {
	writeResponse(w, resp.StatusCode, resp.Header, resp.Body)
}
