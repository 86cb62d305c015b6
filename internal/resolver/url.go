package resolver

import (
	"fmt"
	"strings"
)

// BuildDownloadURL turns a catalog repo/path pair into a concrete URL.
// Supported repo forms:
//
//	hf://owner/name[@rev]     -> huggingface resolve URL (rev defaults to main)
//	https://.../blob/rev/file -> the equivalent resolve URL (path ignored)
//	https://host/base         -> {base}/resolve/main/{path}
func BuildDownloadURL(repo, path string) (string, error) {
	if rest, ok := strings.CutPrefix(repo, "hf://"); ok {
		repoPath := rest
		revision := "main"
		if at := strings.IndexByte(rest, '@'); at >= 0 {
			repoPath, revision = rest[:at], rest[at+1:]
		}
		if repoPath == "" {
			return "", fmt.Errorf("invalid hugging face repo %q", repo)
		}
		return fmt.Sprintf("https://huggingface.co/%s/resolve/%s/%s?download=1", repoPath, revision, path), nil
	}

	if i := strings.Index(repo, "/blob/"); i >= 0 {
		base := strings.TrimPrefix(repo[:i], "https://huggingface.co/")
		remainder := repo[i+len("/blob/"):]
		revision, filePath, ok := strings.Cut(remainder, "/")
		if !ok {
			return "", fmt.Errorf("missing file path in %q", repo)
		}
		return fmt.Sprintf("https://huggingface.co/%s/resolve/%s/%s?download=1", base, revision, filePath), nil
	}

	if strings.HasPrefix(repo, "https://") {
		return fmt.Sprintf("%s/resolve/main/%s?download=1", repo, path), nil
	}

	return "", fmt.Errorf("unsupported repository scheme in %q", repo)
}
