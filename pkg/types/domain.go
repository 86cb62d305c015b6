package types

// ResolvedArtifact is an artifact paired with its concrete source URL and
// destination path, ready for the download engine.
type ResolvedArtifact struct {
	// Artifact file name (base name of the remote path).
	Name string `json:"name"`
	// Fully-resolved download URL.
	SourceURL string `json:"source_url"`
	// Bearer credential attached to the fetch; never serialized.
	AuthBearer string `json:"-"`
	// Destination category subfolder.
	Category string `json:"category"`
	// Destination directory and final file path.
	DestDir  string `json:"dest_dir"`
	DestPath string `json:"dest_path"`
	// Declared size; nil means indeterminate progress.
	SizeBytes *int64 `json:"size_bytes,omitempty"`
	// Optional hex sha256 verified while streaming.
	SHA256 string `json:"-"`
}

// ResolvedLora is a LoRA paired with its destination path.
type ResolvedLora struct {
	Lora     Lora   `json:"lora"`
	DestDir  string `json:"dest_dir"`
	DestPath string `json:"dest_path"`
}

// LoraMetadata is the metadata the LoRA host returns for an entry.
type LoraMetadata struct {
	// example: arcticlatent
	Creator    string `json:"creator" example:"arcticlatent"`
	CreatorURL string `json:"creator_url,omitempty"`
	// Recommended strength, or "Not provided".
	// example: 0.80
	Strength string   `json:"strength" example:"0.80"`
	Triggers []string `json:"triggers,omitempty"`
	// Plain-text description with markup stripped.
	Description string `json:"description"`
	PreviewURL  string `json:"preview_url,omitempty"`
	// One of "image", "video", "none".
	// example: image
	PreviewKind string `json:"preview_kind" example:"image"`
}
