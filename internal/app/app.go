// Package app wires the catalog, resolver, download engine, LoRA host
// client, and updater into one facade. The HTTP API and the CLI both
// drive this type; neither reaches into the components directly.
package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"arcticd/internal/catalog"
	"arcticd/internal/engine"
	"arcticd/internal/lorahost"
	"arcticd/internal/registry"
	"arcticd/internal/resolver"
	"arcticd/internal/sysinfo"
	"arcticd/internal/updater"
	"arcticd/pkg/types"
)

// Config is everything App needs from the settings layer.
type Config struct {
	InstallRoot       string
	CacheDir          string
	CatalogEndpoint   string
	LoraHostBaseURL   string
	LoraHostToken     string
	UpdateManifestURL string
	Workers           int
	Version           string
	// Extra sink receiving engine events besides the broadcaster; nil is fine.
	Sink   types.EventSink
	Logger zerolog.Logger
}

// App is the application core shared by the daemon and the CLI.
type App struct {
	provider *catalog.Provider
	res      *resolver.Resolver
	eng      *engine.Engine
	host     *lorahost.Client
	upd      *updater.Updater
	events   *engine.Broadcaster

	root    string
	token   string
	ramTier types.RamTier
	started time.Time
	log     zerolog.Logger
}

// New assembles an App. RAM tier detection runs once at construction.
func New(cfg Config) *App {
	log := cfg.Logger
	events := engine.NewBroadcaster()
	sink := types.EventSink(events)
	if cfg.Sink != nil {
		sink = engine.FanoutSink{events, cfg.Sink}
	}
	base := cfg.LoraHostBaseURL
	if base == "" {
		base = lorahost.DefaultBaseURL
	}
	a := &App{
		provider: catalog.New(cfg.CatalogEndpoint, cfg.CacheDir, log),
		res:      resolver.New(cfg.InstallRoot),
		eng: engine.New(engine.Config{
			Workers: cfg.Workers,
			Client:  &http.Client{}, // no timeout: model files take a while
			Sink:    sink,
			Logger:  log,
		}),
		host:    lorahost.New(base, log),
		upd:     updater.New(cfg.UpdateManifestURL, cfg.CacheDir, cfg.Version, log),
		events:  events,
		root:    cfg.InstallRoot,
		token:   cfg.LoraHostToken,
		ramTier: sysinfo.DetectRamTier(),
		started: time.Now(),
		log:     log.With().Str("component", "app").Logger(),
	}
	a.log.Info().Str("ram_tier", string(a.ramTier)).Msg("host memory tier detected")
	return a
}

// Catalog returns the loaded catalog, loading it on first use.
func (a *App) Catalog(ctx context.Context) (*types.Catalog, error) {
	return a.provider.Load(ctx)
}

// RefreshCatalog forces a remote re-fetch. Returns whether the catalog
// content changed.
func (a *App) RefreshCatalog(ctx context.Context) (bool, error) {
	return a.provider.Refresh(ctx)
}

// RamTier is the tier detected at startup.
func (a *App) RamTier() types.RamTier { return a.ramTier }

// Subscribe attaches a live event consumer. The cancel func releases it.
func (a *App) Subscribe() (<-chan types.TransferEvent, func()) {
	return a.events.Subscribe()
}

// Status reports engine and catalog state for display.
func (a *App) Status() types.StatusResponse {
	active, kind, transfers, completed := a.eng.Status()
	resp := types.StatusResponse{
		Active:        active,
		BatchKind:     string(kind),
		Transfers:     transfers,
		Completed:     completed,
		RamTier:       string(a.ramTier),
		UptimeSeconds: int64(time.Since(a.started).Seconds()),
	}
	if cat := a.provider.Snapshot(); cat != nil {
		resp.CatalogVersion = cat.CatalogVersion
		resp.ModelCount = len(cat.Models)
		resp.LoraCount = len(cat.Loras)
	}
	return resp
}

// Resolve expands a model/variant selection into download-ready
// artifacts without starting anything.
func (a *App) Resolve(ctx context.Context, req types.ResolveRequest) (types.ResolveResponse, error) {
	cat, err := a.provider.Load(ctx)
	if err != nil {
		return types.ResolveResponse{}, err
	}
	tier, err := a.effectiveRamTier(req.RamTier)
	if err != nil {
		return types.ResolveResponse{}, err
	}
	artifacts, err := a.res.Resolve(cat, req.ModelID, req.VariantID, tier)
	if err != nil {
		return types.ResolveResponse{}, err
	}
	return types.ResolveResponse{Artifacts: artifacts, RamTier: string(tier)}, nil
}

// StartModelDownload resolves the selection and hands the artifact list
// to the engine. Returns the batch handle; the download continues in the
// background.
func (a *App) StartModelDownload(ctx context.Context, req types.ResolveRequest) (*engine.Batch, error) {
	resolved, err := a.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	a.log.Info().
		Str("model", req.ModelID).
		Str("variant", req.VariantID).
		Int("artifacts", len(resolved.Artifacts)).
		Msg("starting model download")
	return a.eng.EnqueueBatch(context.WithoutCancel(ctx), types.BatchModel, resolved.Artifacts)
}

// StartLoraDownload fetches one LoRA file from the host.
func (a *App) StartLoraDownload(ctx context.Context, req types.LoraDownloadRequest) (*engine.Batch, error) {
	cat, err := a.provider.Load(ctx)
	if err != nil {
		return nil, err
	}
	resolved, err := a.res.ResolveLora(cat, req.LoraID)
	if err != nil {
		return nil, err
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		token = a.token
	}
	spec := a.host.DownloadSpec(resolved, token)
	a.log.Info().Str("lora", req.LoraID).Str("dest", spec.DestPath).Msg("starting lora download")
	return a.eng.EnqueueBatch(context.WithoutCancel(ctx), types.BatchLora, []types.ResolvedArtifact{spec})
}

// CancelDownloads aborts the running batch, if any.
func (a *App) CancelDownloads() bool { return a.eng.Cancel() }

// Installed lists the files already present under the install root.
func (a *App) Installed() ([]registry.InstalledFile, error) {
	return registry.ScanInstalled(a.root)
}

// LoraMetadata fetches host-side metadata for one catalog LoRA.
func (a *App) LoraMetadata(ctx context.Context, loraID string) (types.LoraMetadata, error) {
	cat, err := a.provider.Load(ctx)
	if err != nil {
		return types.LoraMetadata{}, err
	}
	l := cat.FindLora(loraID)
	if l == nil {
		return types.LoraMetadata{}, resolver.ErrUnknownLora(loraID)
	}
	return a.host.Metadata(ctx, *l, a.token)
}

// CheckUpdate consults the release manifest.
func (a *App) CheckUpdate(ctx context.Context) (types.UpdateCheckResponse, error) {
	av, err := a.upd.Check(ctx)
	if err != nil {
		return types.UpdateCheckResponse{}, err
	}
	if av == nil {
		return types.UpdateCheckResponse{Available: false}, nil
	}
	return types.UpdateCheckResponse{Available: true, Version: av.Version, Notes: av.Notes}, nil
}

// DownloadUpdate checks the manifest and, when a newer version exists,
// downloads and verifies the package. Returns its path, or "" when
// already up to date.
func (a *App) DownloadUpdate(ctx context.Context) (string, error) {
	av, err := a.upd.Check(ctx)
	if err != nil {
		return "", err
	}
	if av == nil {
		return "", nil
	}
	return a.upd.Download(ctx, a.eng, *av)
}

func (a *App) effectiveRamTier(s string) (types.RamTier, error) {
	if strings.TrimSpace(s) == "" {
		return a.ramTier, nil
	}
	return types.ParseRamTier(s)
}
