package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"arcticd/internal/app"
	"arcticd/internal/common/fsutil"
	"arcticd/internal/config"
	"arcticd/internal/httpapi"
)

// version is stamped at build time via -ldflags.
var version = "0.0.0-dev"

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	// Flags with environment variable defaults
	addr := flag.String("addr", envOr("ARCTICD_ADDR", "127.0.0.1:8765"), "HTTP listen address")
	configPath := flag.String("config", envOr("ARCTICD_CONFIG", ""), "Optional settings file (.yaml/.json/.toml)")
	installRoot := flag.String("install-root", envOr("ARCTICD_INSTALL_ROOT", "~/arctic"), "Root directory for downloaded files")
	cacheDir := flag.String("cache-dir", envOr("ARCTICD_CACHE_DIR", "~/.cache/arcticd"), "Cache directory for the catalog and update packages")
	catalogEndpoint := flag.String("catalog-endpoint", envOr("ARCTICD_CATALOG_ENDPOINT", ""), "Remote catalog URL (empty disables remote refresh)")
	loraToken := flag.String("lora-token", envOr("ARCTICD_LORA_TOKEN", ""), "API token for the LoRA host")
	workers := flag.Int("workers", envOrInt("ARCTICD_WORKERS", 0), "Concurrent downloads per batch (0=default)")
	updateManifest := flag.String("update-manifest", envOr("ARCTICD_UPDATE_MANIFEST", ""), "Release manifest URL (empty disables update checks)")
	logLevel := flag.String("log-level", envOr("ARCTICD_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	corsOrigins := flag.String("cors-origins", envOr("ARCTICD_CORS_ORIGINS", ""), "Comma-separated allowed CORS origins (empty disables CORS)")
	flag.Parse()

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()

	settings := config.Settings{
		Addr:              *addr,
		InstallRoot:       *installRoot,
		CacheDir:          *cacheDir,
		CatalogEndpoint:   *catalogEndpoint,
		LoraHostToken:     *loraToken,
		UpdateManifestURL: *updateManifest,
	}
	// Explicitly-set flags win over the file; defaults do not.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config file")
		}
		settings = mergeSettings(fileCfg, settings, set)
	}
	if set["workers"] || settings.ConcurrentDownloads == 0 {
		settings.ConcurrentDownloads = *workers
	}

	root, err := fsutil.ExpandHome(settings.InstallRoot)
	if err != nil {
		log.Fatal().Err(err).Msg("bad install root")
	}
	cache, err := fsutil.ExpandHome(settings.CacheDir)
	if err != nil {
		log.Fatal().Err(err).Msg("bad cache dir")
	}

	a := app.New(app.Config{
		InstallRoot:       root,
		CacheDir:          cache,
		CatalogEndpoint:   settings.CatalogEndpoint,
		LoraHostToken:     settings.LoraHostToken,
		UpdateManifestURL: settings.UpdateManifestURL,
		Workers:           settings.ConcurrentDownloads,
		Version:           version,
		Logger:            log,
	})

	baseCtx, stopBase := context.WithCancel(context.Background())
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetLogger(log)
	if *corsOrigins != "" {
		httpapi.SetCORSOptions(true,
			splitCSV(*corsOrigins),
			[]string{"GET", "POST", "OPTIONS"},
			[]string{"Content-Type", "X-Log-Level"},
		)
	}

	mux := httpapi.NewMux(a)
	srv := &http.Server{Addr: settings.Addr, Handler: mux}

	go func() {
		log.Info().Str("addr", settings.Addr).Str("install_root", root).Str("version", version).Msg("arcticd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	stopBase()
	a.CancelDownloads()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
}

// mergeSettings starts from the file and overlays values whose flag the
// user set on the command line. File omissions fall back to flag defaults.
func mergeSettings(file, flags config.Settings, set map[string]bool) config.Settings {
	out := file
	if set["addr"] || out.Addr == "" {
		out.Addr = flags.Addr
	}
	if set["install-root"] || out.InstallRoot == "" {
		out.InstallRoot = flags.InstallRoot
	}
	if set["cache-dir"] || out.CacheDir == "" {
		out.CacheDir = flags.CacheDir
	}
	if set["catalog-endpoint"] || out.CatalogEndpoint == "" {
		out.CatalogEndpoint = flags.CatalogEndpoint
	}
	if set["lora-token"] || out.LoraHostToken == "" {
		out.LoraHostToken = flags.LoraHostToken
	}
	if set["update-manifest"] || out.UpdateManifestURL == "" {
		out.UpdateManifestURL = flags.UpdateManifestURL
	}
	return out
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
