// Package resolver turns a catalog selection plus a hardware tier into
// the ordered, concrete list of files to download.
package resolver

import (
	"path/filepath"

	"arcticd/internal/common/fsutil"
	"arcticd/pkg/types"
)

// Resolver computes destination paths under one install root.
type Resolver struct {
	root string
}

// New creates a Resolver rooted at the tool's install directory
// (the directory that contains the "models" tree).
func New(installRoot string) *Resolver {
	return &Resolver{root: installRoot}
}

// Resolve returns the artifacts to download for the given model/variant
// selection, in catalog declaration order: every "always" group of the
// model first, then the variant's own artifacts. Artifacts whose
// ram_tier_min exceeds ramTier are silently dropped; that is the intended
// lower-memory behavior, not an error. The order is part of the contract:
// it fixes download and progress-reporting order.
func (r *Resolver) Resolve(cat *types.Catalog, modelID, variantID string, ramTier types.RamTier) ([]types.ResolvedArtifact, error) {
	model := cat.FindModel(modelID)
	if model == nil {
		return nil, ErrUnknownModel(modelID)
	}
	variant := model.FindVariant(variantID)
	if variant == nil {
		return nil, ErrUnknownVariant(modelID, variantID)
	}

	var candidates []types.Artifact
	for _, group := range model.Always {
		candidates = append(candidates, group.Artifacts...)
	}
	candidates = append(candidates, variant.Artifacts...)

	out := make([]types.ResolvedArtifact, 0, len(candidates))
	for _, a := range candidates {
		if a.RamTierMin != nil && !ramTier.AtLeast(*a.RamTierMin) {
			continue
		}
		resolved, err := r.resolveArtifact(a, modelID)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

func (r *Resolver) resolveArtifact(a types.Artifact, modelID string) (types.ResolvedArtifact, error) {
	url := a.DirectURL
	if url == "" {
		var err error
		url, err = BuildDownloadURL(a.Repo, a.Path)
		if err != nil {
			return types.ResolvedArtifact{}, err
		}
	}
	name := a.FileName()
	destDir := filepath.Join(r.root, "models", a.Category, modelID)
	return types.ResolvedArtifact{
		Name:      name,
		SourceURL: url,
		Category:  a.Category,
		DestDir:   destDir,
		DestPath:  filepath.Join(destDir, name),
		SizeBytes: a.SizeBytes,
		SHA256:    a.SHA256,
	}, nil
}

// ResolveLora returns the destination for a LoRA. The family name is
// slugified into the subfolder; LoRAs carry no tier gating.
func (r *Resolver) ResolveLora(cat *types.Catalog, loraID string) (types.ResolvedLora, error) {
	lora := cat.FindLora(loraID)
	if lora == nil {
		return types.ResolvedLora{}, ErrUnknownLora(loraID)
	}
	slug := fsutil.Slugify(lora.Family)
	if slug == "" {
		slug = "misc"
	}
	destDir := filepath.Join(r.root, "models", "loras", slug)
	return types.ResolvedLora{
		Lora:     *lora,
		DestDir:  destDir,
		DestPath: filepath.Join(destDir, LoraFileName(*lora)),
	}, nil
}

// LoraFileName derives the on-disk file name for a LoRA entry.
func LoraFileName(l types.Lora) string {
	return fsutil.Slugify(l.ID) + ".safetensors"
}
