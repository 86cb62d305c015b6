package resolver

import (
	"path/filepath"
	"testing"

	"arcticd/pkg/types"
)

func i64(n int64) *int64 { return &n }
func rt(t types.RamTier) *types.RamTier { return &t }

func testCatalog() *types.Catalog {
	return &types.Catalog{
		CatalogVersion: 1,
		Models: []types.Model{
			{
				ID: "sdxl-base", DisplayName: "SDXL Base", Family: "sdxl",
				Always: []types.AlwaysGroup{
					{Name: "vae", Artifacts: []types.Artifact{
						{Repo: "hf://stabilityai/sdxl-vae", Path: "sdxl_vae.safetensors", Category: "vae", SizeBytes: i64(334)},
					}},
				},
				Variants: []types.Variant{
					{ID: "tier_s", Tier: types.VramTierS, Artifacts: []types.Artifact{
						{Repo: "hf://stabilityai/sdxl-base@refs-pr-1", Path: "unet/sdxl-fp16.safetensors", Category: "checkpoints"},
					}},
					{ID: "tier_b", Tier: types.VramTierB, Artifacts: []types.Artifact{
						{Repo: "hf://stabilityai/sdxl-base", Path: "unet/sdxl-fp8.safetensors", Category: "checkpoints"},
						{Repo: "hf://comfyanonymous/clip", Path: "clip_l.safetensors", Category: "clip", RamTierMin: rt(types.RamTierB)},
					}},
					{ID: "tier_direct", Tier: types.VramTierC, Artifacts: []types.Artifact{
						{Repo: "hf://ignored/repo", Path: "x.bin", Category: "checkpoints", DirectURL: "https://mirror.example/x.bin"},
					}},
				},
			},
		},
		Loras: []types.Lora{
			{ID: "detail-tweaker-xl", DisplayName: "Detail Tweaker XL", Family: "Detail & Sharpness", HostRef: "135867"},
			{ID: "orphan-lora", DisplayName: "Orphan", HostRef: "99"},
		},
	}
}

func TestResolveOrderAndPaths(t *testing.T) {
	r := New("/root/arctic")
	got, err := r.Resolve(testCatalog(), "sdxl-base", "tier_b", types.RamTierA)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 artifacts, got %d", len(got))
	}
	// always group first, then variant artifacts, in declaration order
	if got[0].Name != "sdxl_vae.safetensors" || got[1].Name != "sdxl-fp8.safetensors" || got[2].Name != "clip_l.safetensors" {
		t.Fatalf("unexpected order: %s, %s, %s", got[0].Name, got[1].Name, got[2].Name)
	}
	wantDest := filepath.Join("/root/arctic", "models", "vae", "sdxl-base", "sdxl_vae.safetensors")
	if got[0].DestPath != wantDest {
		t.Fatalf("dest = %q, want %q", got[0].DestPath, wantDest)
	}
	if got[0].SizeBytes == nil || *got[0].SizeBytes != 334 {
		t.Fatalf("size not carried through")
	}
	if got[1].SourceURL != "https://huggingface.co/stabilityai/sdxl-base/resolve/main/unet/sdxl-fp8.safetensors?download=1" {
		t.Fatalf("url = %q", got[1].SourceURL)
	}
}

func TestResolveRamGate(t *testing.T) {
	r := New("/root/arctic")
	// tier B exactly meets the clip artifact's minimum
	got, err := r.Resolve(testCatalog(), "sdxl-base", "tier_b", types.RamTierB)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("tier b should keep the gated artifact, got %d", len(got))
	}
	// tier C drops it silently
	got, err = r.Resolve(testCatalog(), "sdxl-base", "tier_b", types.RamTierC)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("tier c should drop the gated artifact, got %d", len(got))
	}
	for _, a := range got {
		if a.Name == "clip_l.safetensors" {
			t.Fatalf("gated artifact leaked through")
		}
	}
}

func TestResolveDirectURLWins(t *testing.T) {
	r := New("/r")
	got, err := r.Resolve(testCatalog(), "sdxl-base", "tier_direct", types.RamTierC)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got[0].SourceURL != "https://mirror.example/x.bin" {
		t.Fatalf("direct_url not honored: %q", got[0].SourceURL)
	}
}

func TestResolveUnknownIDs(t *testing.T) {
	r := New("/r")
	if _, err := r.Resolve(testCatalog(), "nope", "tier_b", types.RamTierA); !IsUnknownModel(err) {
		t.Fatalf("expected unknown model, got %v", err)
	}
	if _, err := r.Resolve(testCatalog(), "sdxl-base", "tier_x", types.RamTierA); !IsUnknownVariant(err) {
		t.Fatalf("expected unknown variant, got %v", err)
	}
	if _, err := r.ResolveLora(testCatalog(), "nope"); !IsUnknownLora(err) {
		t.Fatalf("expected unknown lora, got %v", err)
	}
}

func TestResolveLoraPaths(t *testing.T) {
	r := New("/root/arctic")
	got, err := r.ResolveLora(testCatalog(), "detail-tweaker-xl")
	if err != nil {
		t.Fatalf("resolve lora: %v", err)
	}
	wantDir := filepath.Join("/root/arctic", "models", "loras", "detail_sharpness")
	if got.DestDir != wantDir {
		t.Fatalf("dest dir = %q, want %q", got.DestDir, wantDir)
	}
	if filepath.Base(got.DestPath) != "detail_tweaker_xl.safetensors" {
		t.Fatalf("file name = %q", filepath.Base(got.DestPath))
	}
	// family-less entries land under misc
	got, err = r.ResolveLora(testCatalog(), "orphan-lora")
	if err != nil {
		t.Fatalf("resolve lora: %v", err)
	}
	if filepath.Base(got.DestDir) != "misc" {
		t.Fatalf("dest dir = %q", got.DestDir)
	}
}
