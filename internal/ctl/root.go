// Package ctl implements the arcticctl command tree. It drives the
// application core directly, without a running daemon.
package ctl

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"arcticd/internal/app"
	"arcticd/internal/common/fsutil"
)

// Config carries persistent-flag values into the actions.
type Config struct {
	InstallRoot     string
	CacheDir        string
	CatalogEndpoint string
	Token           string
	UpdateManifest  string
	LogLvl          string
	Version         string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DefaultConfig resolves defaults from the environment.
func DefaultConfig(version string) *Config {
	return &Config{
		InstallRoot:     envOr("ARCTICD_INSTALL_ROOT", "~/arctic"),
		CacheDir:        envOr("ARCTICD_CACHE_DIR", "~/.cache/arcticd"),
		CatalogEndpoint: envOr("ARCTICD_CATALOG_ENDPOINT", ""),
		Token:           envOr("ARCTICD_LORA_TOKEN", ""),
		UpdateManifest:  envOr("ARCTICD_UPDATE_MANIFEST", ""),
		LogLvl:          envOr("ARCTICD_LOG_LEVEL", "warn"),
		Version:         version,
	}
}

// newApp builds the application core for one command invocation.
func (cfg *Config) newApp(workers int) (*app.App, error) {
	root, err := fsutil.ExpandHome(cfg.InstallRoot)
	if err != nil {
		return nil, fmt.Errorf("bad install root: %w", err)
	}
	cache, err := fsutil.ExpandHome(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("bad cache dir: %w", err)
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLvl)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	log := zerolog.New(zerolog.NewConsoleWriter()).Level(lvl).With().Timestamp().Logger()
	return app.New(app.Config{
		InstallRoot:       root,
		CacheDir:          cache,
		CatalogEndpoint:   cfg.CatalogEndpoint,
		LoraHostToken:     cfg.Token,
		UpdateManifestURL: cfg.UpdateManifest,
		Workers:           workers,
		Version:           cfg.Version,
		Sink:              newBarSink(),
		Logger:            log,
	}), nil
}

// BuildRootCmd constructs the Cobra command tree wired to the actions.
func BuildRootCmd(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "arcticctl",
		Short:         "Catalog browsing and downloads from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfg.InstallRoot, "install-root", cfg.InstallRoot, "Root directory for downloaded files")
	pf.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "Cache directory for the catalog")
	pf.StringVar(&cfg.CatalogEndpoint, "catalog-endpoint", cfg.CatalogEndpoint, "Remote catalog URL")
	pf.StringVar(&cfg.Token, "token", cfg.Token, "API token for the LoRA host")
	pf.StringVar(&cfg.UpdateManifest, "update-manifest", cfg.UpdateManifest, "Release manifest URL")
	pf.StringVar(&cfg.LogLvl, "log-level", cfg.LogLvl, "Log level: debug|info|warn|error")

	// models group
	modelsCmd := &cobra.Command{Use: "models", Short: "Catalog model queries"}
	modelsList := &cobra.Command{Use: "list", Short: "List master models", Example: "  arcticctl models list", RunE: func(cmd *cobra.Command, args []string) error {
		return fnModelsList(cmd, cfg)
	}}
	modelsVariants := &cobra.Command{Use: "variants <model-id>", Short: "List variants of a model", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return fnModelVariants(cmd, cfg, args[0])
	}}
	modelsInstalled := &cobra.Command{Use: "installed", Short: "List files present under the install root", RunE: func(cmd *cobra.Command, args []string) error {
		return fnInstalled(cmd, cfg)
	}}
	modelsCmd.AddCommand(modelsList, modelsVariants, modelsInstalled)
	root.AddCommand(modelsCmd)

	// loras group
	lorasCmd := &cobra.Command{Use: "loras", Short: "Catalog LoRA queries"}
	lorasList := &cobra.Command{Use: "list", Short: "List LoRA entries grouped by family", RunE: func(cmd *cobra.Command, args []string) error {
		return fnLorasList(cmd, cfg)
	}}
	lorasInfo := &cobra.Command{Use: "info <lora-id>", Short: "Fetch host-side metadata for a LoRA", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return fnLoraInfo(cmd, cfg, args[0])
	}}
	lorasCmd.AddCommand(lorasList, lorasInfo)
	root.AddCommand(lorasCmd)

	// resolve
	var resolveRAM string
	resolveCmd := &cobra.Command{Use: "resolve <model-id> <variant-id>", Short: "Show the artifacts a selection downloads", Args: cobra.ExactArgs(2), RunE: func(cmd *cobra.Command, args []string) error {
		return fnResolve(cmd, cfg, args[0], args[1], resolveRAM)
	}}
	resolveCmd.Flags().StringVar(&resolveRAM, "ram-tier", "", "Override the detected RAM tier (a|b|c)")
	root.AddCommand(resolveCmd)

	// pull group
	pullCmd := &cobra.Command{Use: "pull", Short: "Download models and LoRAs", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("pull requires a subcommand: model|lora")
	}}
	var pullRAM string
	pullModel := &cobra.Command{Use: "model <model-id> <variant-id>", Short: "Download a model variant", Example: "  arcticctl pull model sdxl-base tier_b", Args: cobra.ExactArgs(2), RunE: func(cmd *cobra.Command, args []string) error {
		return fnPullModel(cmd, cfg, args[0], args[1], pullRAM)
	}}
	pullModel.Flags().StringVar(&pullRAM, "ram-tier", "", "Override the detected RAM tier (a|b|c)")
	pullLora := &cobra.Command{Use: "lora <lora-id>", Short: "Download a LoRA file", Example: "  arcticctl pull lora detail-tweaker-xl", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return fnPullLora(cmd, cfg, args[0])
	}}
	pullCmd.AddCommand(pullModel, pullLora)
	root.AddCommand(pullCmd)

	// catalog group
	catalogCmd := &cobra.Command{Use: "catalog", Short: "Catalog maintenance"}
	catalogRefresh := &cobra.Command{Use: "refresh", Short: "Force a remote catalog re-fetch", RunE: func(cmd *cobra.Command, args []string) error {
		return fnCatalogRefresh(cmd, cfg)
	}}
	catalogCmd.AddCommand(catalogRefresh)
	root.AddCommand(catalogCmd)

	// update group
	updateCmd := &cobra.Command{Use: "update", Short: "Application updates"}
	updateCheck := &cobra.Command{Use: "check", Short: "Check the release manifest", RunE: func(cmd *cobra.Command, args []string) error {
		return fnUpdateCheck(cmd, cfg)
	}}
	updateDownload := &cobra.Command{Use: "download", Short: "Download and verify the newest package", RunE: func(cmd *cobra.Command, args []string) error {
		return fnUpdateDownload(cmd, cfg)
	}}
	updateCmd.AddCommand(updateCheck, updateDownload)
	root.AddCommand(updateCmd)

	// ram
	ramCmd := &cobra.Command{Use: "ram", Short: "Show the detected memory tier", RunE: func(cmd *cobra.Command, args []string) error {
		return fnRamTier(cmd)
	}}
	root.AddCommand(ramCmd)

	return root
}

// Main runs the command tree and exits non-zero on error. Ctrl+C cancels
// the command context, which aborts a running pull.
func Main(version string) {
	cfg := DefaultConfig(version)
	root := BuildRootCmd(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
