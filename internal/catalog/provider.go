// Package catalog loads and refreshes the tiered model catalog.
//
// Sources are tried in order: a locally cached copy from a previous
// successful remote fetch (validated with a conditional request when an
// endpoint is configured), a fresh remote GET, and finally the bundled
// document compiled into the binary. The in-memory catalog is replaced
// wholesale on refresh; readers always see a complete snapshot.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "embed"

	"github.com/rs/zerolog"

	"arcticd/internal/common/fsutil"
	"arcticd/pkg/types"
)

//go:embed data/catalog.json
var bundledCatalog []byte

const (
	cachedCatalogFile = "catalog.json"
	cachedETagFile    = "catalog.etag"
)

// Provider serves immutable catalog snapshots and performs conditional
// remote refreshes. Concurrent Load calls share a single in-flight fetch.
type Provider struct {
	endpoint string
	cacheDir string
	client   *http.Client
	log      zerolog.Logger

	mu      sync.Mutex
	call    *loadCall
	catalog *types.Catalog
}

type loadCall struct {
	done chan struct{}
	cat  *types.Catalog
	err  error
}

// New builds a Provider. An empty endpoint disables remote refresh
// entirely (cache/bundled only).
func New(endpoint, cacheDir string, log zerolog.Logger) *Provider {
	return &Provider{
		endpoint: strings.TrimSpace(endpoint),
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.With().Str("component", "catalog").Logger(),
	}
}

// Snapshot returns the current catalog, or nil before the first Load.
func (p *Provider) Snapshot() *types.Catalog {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.catalog
}

// Load resolves a catalog snapshot. Concurrent callers await the same
// in-progress load instead of issuing duplicate network requests.
func (p *Provider) Load(ctx context.Context) (*types.Catalog, error) {
	p.mu.Lock()
	if c := p.call; c != nil {
		p.mu.Unlock()
		select {
		case <-c.done:
			return c.cat, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c := &loadCall{done: make(chan struct{})}
	p.call = c
	p.mu.Unlock()

	cat, err := p.load(ctx)

	p.mu.Lock()
	p.call = nil
	if err == nil {
		p.catalog = cat
	}
	p.mu.Unlock()

	c.cat, c.err = cat, err
	close(c.done)
	return cat, err
}

// Refresh forces a remote fetch and reports whether the catalog changed.
// With no endpoint configured it is a no-op.
func (p *Provider) Refresh(ctx context.Context) (bool, error) {
	if p.endpoint == "" {
		p.log.Info().Msg("no remote catalog endpoint configured")
		return false, nil
	}
	cat, changed, err := p.fetchRemote(ctx)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	p.mu.Lock()
	p.catalog = cat
	p.mu.Unlock()
	return true, nil
}

func (p *Provider) load(ctx context.Context) (*types.Catalog, error) {
	if p.endpoint != "" {
		cat, changed, err := p.fetchRemote(ctx)
		switch {
		case err == nil && changed:
			return cat, nil
		case err == nil: // 304: cache is still valid
			if cached, cerr := p.loadCached(); cerr == nil {
				return cached, nil
			}
		default:
			p.log.Warn().Err(err).Msg("remote catalog fetch failed, falling back")
		}
	}

	if cached, err := p.loadCached(); err == nil {
		p.log.Info().Msg("loaded catalog from local cache")
		return cached, nil
	}

	cat, err := parse(bundledCatalog)
	if err != nil {
		return nil, ErrUnavailable(fmt.Sprintf("bundled catalog invalid: %v", err))
	}
	p.log.Info().
		Int("models", len(cat.Models)).
		Int("loras", len(cat.Loras)).
		Msg("using bundled catalog")
	return cat, nil
}

// fetchRemote issues a conditional GET. changed=false with a nil error
// means HTTP 304 and the cache remains authoritative.
func (p *Provider) fetchRemote(ctx context.Context) (cat *types.Catalog, changed bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build catalog request: %w", err)
	}
	if etag := p.cachedETag(); etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetch catalog from %s: %w", p.endpoint, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		p.log.Debug().Msg("remote catalog not modified (304)")
		return nil, false, nil
	case http.StatusOK:
	default:
		return nil, false, fmt.Errorf("catalog endpoint returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read catalog body: %w", err)
	}
	if cat, err = parse(body); err != nil {
		return nil, false, fmt.Errorf("parse remote catalog: %w", err)
	}

	p.persist(body, resp.Header.Get("ETag"))
	p.log.Info().
		Uint32("version", cat.CatalogVersion).
		Int("models", len(cat.Models)).
		Msg("catalog updated from remote")
	return cat, true, nil
}

func (p *Provider) loadCached() (*types.Catalog, error) {
	b, err := os.ReadFile(filepath.Join(p.cacheDir, cachedCatalogFile))
	if err != nil {
		return nil, err
	}
	cat, err := parse(b)
	if err != nil {
		p.log.Warn().Err(err).Msg("cached catalog is corrupt")
		return nil, err
	}
	return cat, nil
}

// persist writes the catalog body and ETag sidecar to the cache dir.
// Failures are logged only; caching is best-effort.
func (p *Provider) persist(body []byte, etag string) {
	if p.cacheDir == "" {
		return
	}
	if err := fsutil.EnsureDir(p.cacheDir); err != nil {
		p.log.Warn().Err(err).Msg("cannot create catalog cache dir")
		return
	}
	if err := os.WriteFile(filepath.Join(p.cacheDir, cachedCatalogFile), body, 0o644); err != nil {
		p.log.Warn().Err(err).Msg("cannot persist catalog cache")
		return
	}
	if etag != "" {
		_ = os.WriteFile(filepath.Join(p.cacheDir, cachedETagFile), []byte(etag), 0o644)
	}
}

func (p *Provider) cachedETag() string {
	if p.cacheDir == "" {
		return ""
	}
	b, err := os.ReadFile(filepath.Join(p.cacheDir, cachedETagFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func parse(b []byte) (*types.Catalog, error) {
	var cat types.Catalog
	if err := json.Unmarshal(b, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

