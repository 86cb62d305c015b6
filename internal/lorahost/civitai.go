// Package lorahost resolves LoRA metadata and authenticated download
// URLs from a Civitai-compatible content host. A missing token degrades
// gracefully: public entries still resolve, protected ones surface a
// distinct unauthorized error.
package lorahost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"arcticd/pkg/types"
)

const DefaultBaseURL = "https://civitai.com"

// Client talks to the host's model-version API.
type Client struct {
	base string
	http *http.Client
	log  zerolog.Logger
}

// New builds a Client. baseURL defaults to the public Civitai host.
func New(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log.With().Str("component", "lorahost").Logger(),
	}
}

// modelVersion mirrors the subset of the host's model-version document
// the app consumes.
type modelVersion struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	TrainedWords []string `json:"trainedWords"`
	Creator      struct {
		Username string `json:"username"`
		URL      string `json:"url"`
	} `json:"creator"`
	Settings struct {
		Strength *float64 `json:"strength"`
	} `json:"settings"`
	Images []struct {
		URL  string `json:"url"`
		Type string `json:"type"`
	} `json:"images"`
}

// Metadata fetches the host document for the LoRA's host_ref. An
// optional token is attached as a bearer credential. 401/403 map to the
// unauthorized variant, 404 to not-found, everything else to transient.
func (c *Client) Metadata(ctx context.Context, lora types.Lora, token string) (types.LoraMetadata, error) {
	url := c.base + "/api/v1/model-versions/" + lora.HostRef
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.LoraMetadata{}, transientError{msg: fmt.Sprintf("build metadata request: %v", err)}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return types.LoraMetadata{}, transientError{msg: fmt.Sprintf("fetch metadata for %s: %v", lora.HostRef, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.log.Debug().Str("lora", lora.ID).Int("status", resp.StatusCode).Msg("host requires a token")
		return types.LoraMetadata{}, unauthorizedError{ref: lora.HostRef}
	case resp.StatusCode == http.StatusNotFound:
		return types.LoraMetadata{}, notFoundError{ref: lora.HostRef}
	case resp.StatusCode != http.StatusOK:
		return types.LoraMetadata{}, transientError{msg: fmt.Sprintf("host returned %s for %s", resp.Status, lora.HostRef)}
	}

	var mv modelVersion
	if err := json.NewDecoder(resp.Body).Decode(&mv); err != nil {
		return types.LoraMetadata{}, transientError{msg: fmt.Sprintf("parse metadata for %s: %v", lora.HostRef, err)}
	}

	md := types.LoraMetadata{
		Creator:     mv.Creator.Username,
		CreatorURL:  mv.Creator.URL,
		Strength:    "Not provided",
		Triggers:    mv.TrainedWords,
		Description: StripHTML(mv.Description),
		PreviewKind: "none",
	}
	if md.Creator == "" {
		md.Creator = "Unknown creator"
	}
	if mv.Settings.Strength != nil {
		md.Strength = fmt.Sprintf("%.2f", *mv.Settings.Strength)
	}
	if md.Description == "" {
		md.Description = "No description available."
	}
	for _, img := range mv.Images {
		if img.URL == "" {
			continue
		}
		md.PreviewURL = img.URL
		if img.Type == "video" || IsVideoURL(img.URL) {
			md.PreviewKind = "video"
		} else {
			md.PreviewKind = "image"
		}
		break
	}
	return md, nil
}

// DownloadSpec returns the engine item for the LoRA's authenticated
// fetch. A 401/403 during the transfer surfaces the same unauthorized
// signal through the engine's Failed event.
func (c *Client) DownloadSpec(resolved types.ResolvedLora, token string) types.ResolvedArtifact {
	return types.ResolvedArtifact{
		Name:       filepath.Base(resolved.DestPath),
		SourceURL:  c.base + "/api/download/models/" + resolved.Lora.HostRef,
		AuthBearer: token,
		Category:   "loras",
		DestDir:    resolved.DestDir,
		DestPath:   resolved.DestPath,
	}
}

// IsVideoURL classifies a preview URL by extension, tolerating query
// strings.
func IsVideoURL(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range []string{".mp4", ".webm", ".mov"} {
		if strings.HasSuffix(lower, ext) || strings.Contains(lower, ext+"?") {
			return true
		}
	}
	return false
}

// StripHTML reduces host-provided rich text to plain text.
func StripHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
