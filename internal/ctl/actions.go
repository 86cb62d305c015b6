package ctl

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"arcticd/internal/app"
	"arcticd/internal/engine"
	"arcticd/internal/sysinfo"
	"arcticd/pkg/types"
)

func fnModelsList(cmd *cobra.Command, cfg *Config) error {
	a, err := cfg.newApp(1)
	if err != nil {
		return err
	}
	cat, err := a.Catalog(cmd.Context())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFAMILY\tVARIANTS")
	for _, m := range cat.Models {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", m.ID, m.DisplayName, m.Family, len(m.Variants))
	}
	return tw.Flush()
}

func fnModelVariants(cmd *cobra.Command, cfg *Config, modelID string) error {
	a, err := cfg.newApp(1)
	if err != nil {
		return err
	}
	cat, err := a.Catalog(cmd.Context())
	if err != nil {
		return err
	}
	m := cat.FindModel(modelID)
	if m == nil {
		return fmt.Errorf("unknown model: %s", modelID)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIER\tSUMMARY\tARTIFACTS")
	for _, v := range m.Variants {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", v.ID, v.Tier.Label(), v.Summary(), len(v.Artifacts))
	}
	return tw.Flush()
}

func fnInstalled(cmd *cobra.Command, cfg *Config) error {
	a, err := cfg.newApp(1)
	if err != nil {
		return err
	}
	files, err := a.Installed()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing installed yet")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tFILE\tSIZE")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Category, f.RelPath, formatBytes(f.SizeBytes))
	}
	return tw.Flush()
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func fnLorasList(cmd *cobra.Command, cfg *Config) error {
	a, err := cfg.newApp(1)
	if err != nil {
		return err
	}
	cat, err := a.Catalog(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, family := range cat.LoraFamilies() {
		fmt.Fprintln(out, family+":")
		for _, l := range cat.Loras {
			if l.Family == family {
				fmt.Fprintf(out, "  %s\t%s\n", l.ID, l.DisplayName)
			}
		}
	}
	return nil
}

func fnLoraInfo(cmd *cobra.Command, cfg *Config, loraID string) error {
	a, err := cfg.newApp(1)
	if err != nil {
		return err
	}
	meta, err := a.LoraMetadata(cmd.Context(), loraID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Creator:   %s\n", meta.Creator)
	fmt.Fprintf(out, "Strength:  %s\n", meta.Strength)
	if len(meta.Triggers) > 0 {
		fmt.Fprintf(out, "Triggers:  %v\n", meta.Triggers)
	}
	if meta.PreviewURL != "" {
		fmt.Fprintf(out, "Preview:   %s (%s)\n", meta.PreviewURL, meta.PreviewKind)
	}
	if meta.Description != "" {
		fmt.Fprintf(out, "\n%s\n", meta.Description)
	}
	return nil
}

func fnResolve(cmd *cobra.Command, cfg *Config, modelID, variantID, ramTier string) error {
	a, err := cfg.newApp(1)
	if err != nil {
		return err
	}
	resp, err := a.Resolve(cmd.Context(), types.ResolveRequest{ModelID: modelID, VariantID: variantID, RamTier: ramTier})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "RAM tier %s, %d artifact(s):\n", resp.RamTier, len(resp.Artifacts))
	for _, art := range resp.Artifacts {
		fmt.Fprintf(out, "  %s\n    from %s\n    to   %s\n", art.Name, art.SourceURL, art.DestPath)
	}
	return nil
}

func fnPullModel(cmd *cobra.Command, cfg *Config, modelID, variantID, ramTier string) error {
	a, err := cfg.newApp(1)
	if err != nil {
		return err
	}
	batch, err := a.StartModelDownload(cmd.Context(), types.ResolveRequest{ModelID: modelID, VariantID: variantID, RamTier: ramTier})
	if err != nil {
		return err
	}
	return waitBatch(cmd, a, batch)
}

func fnPullLora(cmd *cobra.Command, cfg *Config, loraID string) error {
	a, err := cfg.newApp(1)
	if err != nil {
		return err
	}
	batch, err := a.StartLoraDownload(cmd.Context(), types.LoraDownloadRequest{LoraID: loraID, Token: cfg.Token})
	if err != nil {
		return err
	}
	return waitBatch(cmd, a, batch)
}

// waitBatch blocks until the batch ends, cancelling it if the command's
// context is interrupted first.
func waitBatch(cmd *cobra.Command, a *app.App, batch *engine.Batch) error {
	ctx := cmd.Context()
	go func() {
		select {
		case <-ctx.Done():
			a.CancelDownloads()
		case <-batch.Done():
		}
	}()
	outcome, err := batch.Wait(context.Background())
	if err != nil {
		return err
	}
	switch outcome {
	case types.PhaseBatchFinished:
		return nil
	case types.PhaseBatchCancelled:
		return fmt.Errorf("download cancelled")
	default:
		for _, r := range batch.Results() {
			if r.Err != nil {
				return fmt.Errorf("%s: %w", r.Name, r.Err)
			}
		}
		return fmt.Errorf("download failed")
	}
}

func fnCatalogRefresh(cmd *cobra.Command, cfg *Config) error {
	a, err := cfg.newApp(1)
	if err != nil {
		return err
	}
	changed, err := a.RefreshCatalog(cmd.Context())
	if err != nil {
		return err
	}
	if changed {
		fmt.Fprintln(cmd.OutOrStdout(), "catalog updated")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "catalog unchanged")
	}
	return nil
}

func fnUpdateCheck(cmd *cobra.Command, cfg *Config) error {
	a, err := cfg.newApp(1)
	if err != nil {
		return err
	}
	resp, err := a.CheckUpdate(cmd.Context())
	if err != nil {
		return err
	}
	if !resp.Available {
		fmt.Fprintln(cmd.OutOrStdout(), "up to date")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "update available: %s\n", resp.Version)
	if resp.Notes != "" {
		fmt.Fprintln(cmd.OutOrStdout(), resp.Notes)
	}
	return nil
}

func fnUpdateDownload(cmd *cobra.Command, cfg *Config) error {
	a, err := cfg.newApp(1)
	if err != nil {
		return err
	}
	path, err := a.DownloadUpdate(cmd.Context())
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "up to date")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "package verified: %s\n", path)
	return nil
}

func fnRamTier(cmd *cobra.Command) error {
	gb, err := sysinfo.TotalRAMGB()
	if err != nil {
		return fmt.Errorf("memory detection failed: %w", err)
	}
	tier := types.RamTierFromGigabytes(gb)
	fmt.Fprintf(cmd.OutOrStdout(), "%.0f GB installed, %s\n", gb, tier.Label())
	return nil
}
