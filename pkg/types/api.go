package types

// ResolveRequest is the payload for POST /v1/resolve and /v1/downloads.
type ResolveRequest struct {
	// Master model id from the catalog.
	// example: sdxl-base
	ModelID string `json:"model_id" example:"sdxl-base"`
	// Variant id within the model.
	// example: tier_a
	VariantID string `json:"variant_id" example:"tier_a"`
	// RAM tier letter; empty means "use the detected tier".
	// example: b
	RamTier string `json:"ram_tier,omitempty" example:"b"`
}

// ResolveResponse lists the artifacts a variant selection resolves to.
type ResolveResponse struct {
	Artifacts []ResolvedArtifact `json:"artifacts"`
	// RAM tier the gate was applied with.
	// example: b
	RamTier string `json:"ram_tier" example:"b"`
}

// LoraDownloadRequest is the payload for POST /v1/downloads/lora.
type LoraDownloadRequest struct {
	// example: detail-tweaker-xl
	LoraID string `json:"lora_id" example:"detail-tweaker-xl"`
	// Optional bearer token for the LoRA host; overrides the configured one.
	Token string `json:"token,omitempty"`
}

// TransferStatus summarizes one in-flight or completed transfer.
type TransferStatus struct {
	// Transfer key: {kind}/{index}/{artifact}.
	// example: model/0/vae.safetensors
	Key string `json:"key" example:"model/0/vae.safetensors"`
	// example: progress
	Phase Phase `json:"phase" example:"progress"`
	// example: vae.safetensors
	Artifact string `json:"artifact" example:"vae.safetensors"`
	// Bytes received so far.
	// example: 1048576
	Received int64 `json:"received" example:"1048576"`
	// Declared or reported size; nil means indeterminate.
	Size *int64 `json:"size,omitempty"`
	// Destination folder once known.
	Folder string `json:"folder,omitempty"`
}

// StatusResponse is returned by GET /v1/status.
type StatusResponse struct {
	// Whether a batch is currently running.
	// example: true
	Active bool `json:"active" example:"true"`
	// Kind of the running batch, if any.
	// example: model
	BatchKind string `json:"batch_kind,omitempty" example:"model"`
	// Transfers of the running batch that have not reached a terminal phase.
	Transfers []TransferStatus `json:"transfers,omitempty"`
	// Bounded history of finished transfers, newest first.
	Completed []TransferStatus `json:"completed,omitempty"`
	// Catalog revision currently served.
	// example: 7
	CatalogVersion uint32 `json:"catalog_version" example:"7"`
	// Counts for quick display.
	// example: 12
	ModelCount int `json:"model_count" example:"12"`
	// example: 30
	LoraCount int `json:"lora_count" example:"30"`
	// Detected RAM tier letter, empty when detection failed.
	// example: a
	RamTier string `json:"ram_tier,omitempty" example:"a"`
	// Uptime of the daemon in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
}

// UpdateCheckResponse is returned by GET /v1/update/check.
type UpdateCheckResponse struct {
	// example: true
	Available bool `json:"available" example:"true"`
	// example: 1.4.0
	Version string `json:"version,omitempty" example:"1.4.0"`
	Notes   string `json:"notes,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: model not found: sdxl-basey
	Error string `json:"error" example:"model not found: sdxl-basey"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}
