package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const remoteDoc = `{
  "catalog_version": 9,
  "models": [
    {"id": "m1", "display_name": "M1", "family": "f", "variants": [
      {"id": "tier_b", "tier": "b", "artifacts": [
        {"repo": "hf://o/n", "path": "a.bin", "category": "checkpoints"}
      ]}
    ]}
  ]
}`

func testProvider(t *testing.T, endpoint string) *Provider {
	t.Helper()
	return New(endpoint, t.TempDir(), zerolog.Nop())
}

func TestLoadBundledFallback(t *testing.T) {
	p := testProvider(t, "")
	cat, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Models) == 0 {
		t.Fatalf("bundled catalog has no models")
	}
	if p.Snapshot() != cat {
		t.Fatalf("snapshot should hold the loaded catalog")
	}
}

func TestLoadRemotePersistsCacheAndETag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v9"`)
		w.Write([]byte(remoteDoc))
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)
	cat, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cat.CatalogVersion != 9 {
		t.Fatalf("version = %d", cat.CatalogVersion)
	}
	if _, err := os.Stat(filepath.Join(p.cacheDir, cachedCatalogFile)); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}
	etag, err := os.ReadFile(filepath.Join(p.cacheDir, cachedETagFile))
	if err != nil || string(etag) != `"v9"` {
		t.Fatalf("etag sidecar = %q, err=%v", etag, err)
	}
}

func TestLoadNotModifiedUsesCache(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.Header().Set("ETag", `"v9"`)
			w.Write([]byte(remoteDoc))
			return
		}
		if r.Header.Get("If-None-Match") != `"v9"` {
			t.Errorf("missing If-None-Match, got %q", r.Header.Get("If-None-Match"))
		}
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)
	if _, err := p.Load(context.Background()); err != nil {
		t.Fatalf("first load: %v", err)
	}

	// second provider over the same cache dir simulates a restart
	p2 := New(srv.URL, p.cacheDir, zerolog.Nop())
	cat, err := p2.Load(context.Background())
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if cat.CatalogVersion != 9 {
		t.Fatalf("cache round trip lost the catalog: version = %d", cat.CatalogVersion)
	}
	if n := atomic.LoadInt32(&requests); n != 2 {
		t.Fatalf("expected 2 requests, got %d", n)
	}
}

func TestLoadMalformedRemoteFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)
	cat, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("load should fall back to bundled, got %v", err)
	}
	if len(cat.Models) == 0 {
		t.Fatalf("expected bundled models")
	}
}

func TestConcurrentLoadSharesOneFetch(t *testing.T) {
	var requests int32
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		<-gate
		w.Write([]byte(remoteDoc))
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Load(context.Background()); err != nil {
				t.Errorf("load: %v", err)
			}
		}()
	}
	// allow goroutines to pile up on the shared call before releasing
	time.Sleep(100 * time.Millisecond)
	close(gate)
	wg.Wait()
	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Fatalf("expected a single remote request, got %d", n)
	}
}

func TestRefreshReportsChange(t *testing.T) {
	var etagHit int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v9"` {
			atomic.AddInt32(&etagHit, 1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v9"`)
		w.Write([]byte(remoteDoc))
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)
	changed, err := p.Refresh(context.Background())
	if err != nil || !changed {
		t.Fatalf("first refresh: changed=%v err=%v", changed, err)
	}
	changed, err = p.Refresh(context.Background())
	if err != nil || changed {
		t.Fatalf("second refresh: changed=%v err=%v", changed, err)
	}
	if atomic.LoadInt32(&etagHit) != 1 {
		t.Fatalf("conditional request not issued")
	}
}

func TestRefreshWithoutEndpointIsNoop(t *testing.T) {
	p := testProvider(t, "")
	changed, err := p.Refresh(context.Background())
	if err != nil || changed {
		t.Fatalf("changed=%v err=%v", changed, err)
	}
}

func TestIsUnavailable(t *testing.T) {
	if !IsUnavailable(ErrUnavailable("x")) {
		t.Fatalf("predicate failed")
	}
	if IsUnavailable(context.Canceled) {
		t.Fatalf("false positive")
	}
}
