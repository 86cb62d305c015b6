// Package registry scans the install root for files that have already
// been downloaded, so the UI can mark catalog entries as present without
// re-resolving anything.
package registry

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"arcticd/internal/common/fsutil"
)

// InstalledFile is one file found under {root}/models.
type InstalledFile struct {
	// Category subfolder (checkpoints, vae, loras, ...).
	Category string `json:"category"`
	// Path relative to the category folder, slash-separated.
	RelPath string `json:"rel_path"`
	// Absolute path on disk.
	Path string `json:"path"`
	// File size in bytes.
	SizeBytes int64 `json:"size_bytes"`
}

// temporary downloads and metadata files are not installed artifacts
func ignored(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".part") || strings.HasPrefix(name, ".")
}

// ScanInstalled walks {installRoot}/models and reports every regular
// file, grouped by its category subfolder. A missing models directory is
// an empty result, not an error.
func ScanInstalled(installRoot string) ([]InstalledFile, error) {
	root, err := fsutil.ExpandHome(installRoot)
	if err != nil {
		return nil, err
	}
	modelsDir := filepath.Join(root, "models")
	if _, err := os.Stat(modelsDir); err != nil {
		return nil, nil
	}

	var out []InstalledFile
	err = filepath.WalkDir(modelsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || ignored(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(modelsDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		category, sub, ok := strings.Cut(rel, "/")
		if !ok {
			// stray file directly under models/; categorize as-is
			category, sub = "", rel
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, InstalledFile{
			Category:  category,
			RelPath:   sub,
			Path:      path,
			SizeBytes: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IsInstalled reports whether the exact destination path exists.
func IsInstalled(destPath string) bool {
	return fsutil.PathExists(destPath)
}
