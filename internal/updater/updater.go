// Package updater checks a release manifest and downloads a verified
// application package. Applying the package (replacing the binary) is the
// shell's job; this core only implements the verify-then-hand-over part.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"arcticd/internal/engine"
	"arcticd/pkg/types"
)

// Manifest is the published update document.
type Manifest struct {
	Version     string `json:"version"`
	DownloadURL string `json:"download_url"`
	SHA256      string `json:"sha256"`
	Notes       string `json:"notes,omitempty"`
}

// Available describes an update newer than the running version.
type Available struct {
	Version     string
	DownloadURL string
	SHA256      string
	Notes       string
}

// Updater fetches manifests and downloads packages through the engine's
// fetch path, reusing its progress/cancellation contract.
type Updater struct {
	client      *http.Client
	manifestURL string
	cacheDir    string
	current     string
	log         zerolog.Logger
}

// New builds an Updater for the given manifest URL and running version.
func New(manifestURL, cacheDir, currentVersion string, log zerolog.Logger) *Updater {
	return &Updater{
		client:      &http.Client{Timeout: 30 * time.Second},
		manifestURL: manifestURL,
		cacheDir:    cacheDir,
		current:     currentVersion,
		log:         log.With().Str("component", "updater").Logger(),
	}
}

// Check fetches the manifest and returns a non-nil Available only when
// it advertises a version newer than the running one.
func (u *Updater) Check(ctx context.Context) (*Available, error) {
	if u.manifestURL == "" {
		return nil, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.manifestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build manifest request: %w", err)
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch update manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("manifest endpoint returned %s", resp.Status)
	}

	var m Manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("parse update manifest: %w", err)
	}
	if m.DownloadURL == "" || m.SHA256 == "" {
		return nil, fmt.Errorf("update manifest is missing download_url or sha256")
	}

	if CompareVersions(m.Version, u.current) <= 0 {
		u.log.Info().Str("current", u.current).Str("manifest", m.Version).Msg("no update available")
		return nil, nil
	}
	return &Available{
		Version:     strings.TrimSpace(m.Version),
		DownloadURL: m.DownloadURL,
		SHA256:      strings.ToLower(strings.TrimSpace(m.SHA256)),
		Notes:       m.Notes,
	}, nil
}

// Download fetches the package into the update cache through the engine,
// which verifies the manifest's sha256 while streaming. Returns the path
// of the verified package. A stale copy at the destination is removed
// first so the engine's skip-existing shortcut cannot bypass
// verification of a new release.
func (u *Updater) Download(ctx context.Context, e *engine.Engine, av Available) (string, error) {
	dir := filepath.Join(u.cacheDir, "updates")
	name := packageFileName(av.DownloadURL, av.Version)
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); err == nil {
		_ = os.Remove(dest)
	}

	batch, err := e.EnqueueBatch(ctx, types.BatchUpdate, []types.ResolvedArtifact{{
		Name:      name,
		SourceURL: av.DownloadURL,
		Category:  "updates",
		DestDir:   dir,
		DestPath:  dest,
		SHA256:    av.SHA256,
	}})
	if err != nil {
		return "", err
	}
	outcome, err := batch.Wait(ctx)
	if err != nil {
		return "", err
	}
	if outcome != types.PhaseBatchFinished {
		for _, r := range batch.Results() {
			if r.Err != nil {
				return "", fmt.Errorf("update download failed: %w", r.Err)
			}
		}
		return "", fmt.Errorf("update download did not finish (%s)", outcome)
	}
	u.log.Info().Str("version", av.Version).Str("package", dest).Msg("update package verified")
	return dest, nil
}

// CompareVersions compares dotted numeric versions (a leading "v" and a
// pre-release suffix are tolerated). Returns -1, 0, or 1.
func CompareVersions(a, b string) int {
	pa, pb := versionParts(a), versionParts(b)
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var na, nb int
		if i < len(pa) {
			na = pa[i]
		}
		if i < len(pb) {
			nb = pb[i]
		}
		if na != nb {
			if na < nb {
				return -1
			}
			return 1
		}
	}
	return 0
}

func versionParts(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	fields := strings.Split(v, ".")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			n = 0
		}
		out = append(out, n)
	}
	return out
}

func packageFileName(url, version string) string {
	base := path.Base(url)
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	if base == "" || base == "." || base == "/" {
		base = "arcticd-" + version + ".bin"
	}
	return base
}
