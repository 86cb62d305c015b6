package types

import "strings"

// Catalog is the root document describing every downloadable entity.
// A Catalog is an immutable snapshot: the provider replaces the whole
// value on refresh and never mutates one in place.
type Catalog struct {
	// Catalog schema/content revision, bumped by the curation tool.
	// example: 7
	CatalogVersion uint32 `json:"catalog_version" example:"7"`
	// Master models with their hardware-tier variants.
	Models []Model `json:"models"`
	// LoRA entries, downloaded on explicit user action only.
	Loras []Lora `json:"loras,omitempty"`
}

// FindModel returns the model with the given id, or nil.
func (c *Catalog) FindModel(id string) *Model {
	for i := range c.Models {
		if c.Models[i].ID == id {
			return &c.Models[i]
		}
	}
	return nil
}

// FindLora returns the LoRA with the given id, or nil.
func (c *Catalog) FindLora(id string) *Lora {
	for i := range c.Loras {
		if c.Loras[i].ID == id {
			return &c.Loras[i]
		}
	}
	return nil
}

// LoraFamilies returns the distinct LoRA family names, sorted.
func (c *Catalog) LoraFamilies() []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range c.Loras {
		if l.Family == "" || seen[l.Family] {
			continue
		}
		seen[l.Family] = true
		out = append(out, l.Family)
	}
	// insertion sort; the list is tiny
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Model is a master model (a checkpoint family) with tiered variants.
type Model struct {
	// example: sdxl-base
	ID string `json:"id" example:"sdxl-base"`
	// example: SDXL Base
	DisplayName string `json:"display_name" example:"SDXL Base"`
	// Grouping key shared by related models.
	// example: sdxl
	Family string `json:"family" example:"sdxl"`
	// Named artifact groups that ship regardless of the selected tier.
	Always []AlwaysGroup `json:"always,omitempty"`
	// Hardware-tier-specific expressions of this model.
	Variants []Variant `json:"variants"`
}

// FindVariant returns the variant with the given id, or nil.
func (m *Model) FindVariant(id string) *Variant {
	for i := range m.Variants {
		if m.Variants[i].ID == id {
			return &m.Variants[i]
		}
	}
	return nil
}

// VariantsForTier returns the variants declared for exactly the given
// VRAM tier, in declaration order. Matching is by strict equality, not
// ordinal "at most"; see DESIGN.md.
func (m *Model) VariantsForTier(tier VramTier) []Variant {
	var out []Variant
	for _, v := range m.Variants {
		if v.Tier == tier {
			out = append(out, v)
		}
	}
	return out
}

// Selectable reports whether the model can be offered at all.
// A model without variants is excluded from selection.
func (m *Model) Selectable() bool { return len(m.Variants) > 0 }

// AlwaysGroup is a named, ordered list of artifacts a model always needs.
type AlwaysGroup struct {
	// example: encoders
	Name      string     `json:"name" example:"encoders"`
	Artifacts []Artifact `json:"artifacts"`
}

// Variant is one hardware-tier-specific expression of a model.
type Variant struct {
	// example: tier_a
	ID string `json:"id" example:"tier_a"`
	// Required VRAM tier (s is the most capable).
	// example: a
	Tier VramTier `json:"tier" example:"a"`
	// example: 12B
	ModelSize string `json:"model_size,omitempty" example:"12B"`
	// example: fp8_e4m3fn
	Quantization string `json:"quantization,omitempty" example:"fp8_e4m3fn"`
	// Free-text curator note shown next to the variant.
	Note string `json:"note,omitempty"`
	// Artifacts specific to this variant; the parent model's always
	// groups complete the download set.
	Artifacts []Artifact `json:"artifacts"`
}

// Summary joins the descriptive fields for display.
func (v *Variant) Summary() string {
	parts := make([]string, 0, 3)
	if v.ModelSize != "" {
		parts = append(parts, v.ModelSize)
	}
	if v.Quantization != "" {
		parts = append(parts, v.Quantization)
	}
	if v.Note != "" {
		parts = append(parts, v.Note)
	}
	if len(parts) == 0 {
		return strings.ToUpper(string(v.Tier))
	}
	return strings.Join(parts, " / ")
}

// Artifact is a single remote file reference.
type Artifact struct {
	// Source repository. Supported forms: "hf://owner/name[@rev]", a
	// huggingface blob page URL, or a plain https base URL.
	// example: hf://stabilityai/sdxl-base
	Repo string `json:"repo" example:"hf://stabilityai/sdxl-base"`
	// Path within the repository.
	// example: unet/unet-fp8.gguf
	Path string `json:"path" example:"unet/unet-fp8.gguf"`
	// Destination category, used verbatim as the subfolder name under
	// {install_root}/models (checkpoints, vae, clip, upscale_models, ...).
	// example: checkpoints
	Category string `json:"category" example:"checkpoints"`
	// Minimum RAM tier required; artifacts gated above the user's tier
	// are silently skipped at resolution time.
	RamTierMin *RamTier `json:"ram_tier_min,omitempty"`
	// Declared size for progress percentages; nil means indeterminate.
	SizeBytes *int64 `json:"size_bytes,omitempty"`
	// Optional hex sha256, verified while streaming a fresh download.
	SHA256 string `json:"sha256,omitempty"`
	// Optional fully-resolved URL that bypasses repo/path construction.
	DirectURL string `json:"direct_url,omitempty"`
}

// FileName returns the base name of the artifact's remote path.
func (a *Artifact) FileName() string {
	if i := strings.LastIndexByte(a.Path, '/'); i >= 0 {
		return a.Path[i+1:]
	}
	return a.Path
}

// Lora is a LoRA catalog entry. LoRAs carry no tier gating; they are
// fetched only on explicit user action.
type Lora struct {
	// example: detail-tweaker-xl
	ID string `json:"id" example:"detail-tweaker-xl"`
	// example: Detail Tweaker XL
	DisplayName string `json:"display_name" example:"Detail Tweaker XL"`
	// Family drives the destination subfolder slug.
	// example: SDXL Style
	Family string `json:"family,omitempty" example:"SDXL Style"`
	// Host-specific identifier used for metadata and download resolution.
	// example: 135867
	HostRef string `json:"host_ref" example:"135867"`
}
