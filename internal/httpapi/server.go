package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arcticd/internal/catalog"
	"arcticd/internal/engine"
	"arcticd/internal/lorahost"
	"arcticd/internal/registry"
	"arcticd/internal/resolver"
	"arcticd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Catalog(ctx context.Context) (*types.Catalog, error)
	RefreshCatalog(ctx context.Context) (bool, error)
	Status() types.StatusResponse
	Resolve(ctx context.Context, req types.ResolveRequest) (types.ResolveResponse, error)
	StartModelDownload(ctx context.Context, req types.ResolveRequest) (*engine.Batch, error)
	StartLoraDownload(ctx context.Context, req types.LoraDownloadRequest) (*engine.Batch, error)
	CancelDownloads() bool
	LoraMetadata(ctx context.Context, loraID string) (types.LoraMetadata, error)
	CheckUpdate(ctx context.Context) (types.UpdateCheckResponse, error)
	Installed() ([]registry.InstalledFile, error)
	Subscribe() (<-chan types.TransferEvent, func())
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", handleCatalog(svc))
		r.Post("/catalog/refresh", handleCatalogRefresh(svc))
		r.Get("/models", handleModels(svc))
		r.Get("/loras", handleLoras(svc))
		r.Get("/loras/{id}/metadata", handleLoraMetadata(svc))
		r.Get("/installed", handleInstalled(svc))
		r.Get("/status", handleStatus(svc))
		r.Post("/resolve", handleResolve(svc))
		r.Post("/downloads", handleModelDownload(svc))
		r.Post("/downloads/lora", handleLoraDownload(svc))
		r.Post("/downloads/cancel", handleCancel(svc))
		r.Get("/update/check", handleUpdateCheck(svc))
		r.Get("/events", handleEvents(svc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// handleCatalog godoc
// @Summary Full catalog
// @Produce json
// @Success 200 {object} types.Catalog
// @Failure 503 {object} types.ErrorResponse
// @Router /v1/catalog [get]
func handleCatalog(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := svc.Catalog(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, cat)
	}
}

// handleCatalogRefresh godoc
// @Summary Force a remote catalog re-fetch
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 503 {object} types.ErrorResponse
// @Router /v1/catalog/refresh [post]
func handleCatalogRefresh(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		changed, err := svc.RefreshCatalog(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]bool{"changed": changed})
	}
}

func handleModels(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := svc.Catalog(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]any{"models": cat.Models})
	}
}

func handleLoras(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := svc.Catalog(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]any{"loras": cat.Loras})
	}
}

// handleLoraMetadata godoc
// @Summary Host-side metadata for one LoRA
// @Produce json
// @Param id path string true "LoRA id"
// @Success 200 {object} types.LoraMetadata
// @Failure 404 {object} types.ErrorResponse
// @Router /v1/loras/{id}/metadata [get]
func handleLoraMetadata(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		joined, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		meta, err := svc.LoraMetadata(joined, chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, meta)
	}
}

// handleInstalled godoc
// @Summary Files already present under the install root
// @Produce json
// @Success 200 {object} map[string][]registry.InstalledFile
// @Router /v1/installed [get]
func handleInstalled(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := svc.Installed()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if files == nil {
			files = []registry.InstalledFile{}
		}
		writeJSON(w, map[string][]registry.InstalledFile{"files": files})
	}
}

// handleStatus godoc
// @Summary Engine and catalog status
// @Produce json
// @Success 200 {object} types.StatusResponse
// @Router /v1/status [get]
func handleStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	}
}

// handleResolve godoc
// @Summary Resolve a variant selection into artifacts
// @Accept json
// @Produce json
// @Param request body types.ResolveRequest true "selection"
// @Success 200 {object} types.ResolveResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /v1/resolve [post]
func handleResolve(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ResolveRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.ModelID) == "" || strings.TrimSpace(req.VariantID) == "" {
			writeJSONError(w, http.StatusBadRequest, "model_id and variant_id are required")
			return
		}
		resp, err := svc.Resolve(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, resp)
	}
}

// handleModelDownload godoc
// @Summary Start downloading a model variant
// @Accept json
// @Produce json
// @Param request body types.ResolveRequest true "selection"
// @Success 202 {object} map[string]string
// @Failure 409 {object} types.ErrorResponse
// @Router /v1/downloads [post]
func handleModelDownload(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ResolveRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.ModelID) == "" || strings.TrimSpace(req.VariantID) == "" {
			writeJSONError(w, http.StatusBadRequest, "model_id and variant_id are required")
			return
		}
		if _, err := svc.StartModelDownload(r.Context(), req); err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "started"})
	}
}

// handleLoraDownload godoc
// @Summary Start downloading a LoRA
// @Accept json
// @Produce json
// @Param request body types.LoraDownloadRequest true "selection"
// @Success 202 {object} map[string]string
// @Failure 409 {object} types.ErrorResponse
// @Router /v1/downloads/lora [post]
func handleLoraDownload(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LoraDownloadRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.LoraID) == "" {
			writeJSONError(w, http.StatusBadRequest, "lora_id is required")
			return
		}
		if _, err := svc.StartLoraDownload(r.Context(), req); err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "started"})
	}
}

// handleCancel godoc
// @Summary Cancel the running download batch
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /v1/downloads/cancel [post]
func handleCancel(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]bool{"cancelled": svc.CancelDownloads()})
	}
}

// handleUpdateCheck godoc
// @Summary Check the release manifest for a newer version
// @Produce json
// @Success 200 {object} types.UpdateCheckResponse
// @Router /v1/update/check [get]
func handleUpdateCheck(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		joined, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		resp, err := svc.CheckUpdate(joined)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, resp)
	}
}

// handleEvents streams transfer events as NDJSON until the client
// disconnects or the server shuts down.
//
// handleEvents godoc
// @Summary Live transfer event stream (NDJSON)
// @Produce json
// @Success 200 {object} types.TransferEvent
// @Router /v1/events [get]
func handleEvents(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		events, unsubscribe := svc.Subscribe()
		defer unsubscribe()

		joined, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()

		enc := json.NewEncoder(w)
		lvl := requestLogLevel(r)
		keepalive := time.NewTicker(15 * time.Second)
		defer keepalive.Stop()
		for {
			select {
			case <-joined.Done():
				return
			case <-keepalive.C:
				// Blank line keeps idle proxies from dropping the stream.
				if _, err := w.Write([]byte("\n")); err != nil {
					return
				}
				flusher.Flush()
			case ev := <-events:
				if lvl >= LevelDebug {
					logEventLine(ev)
				}
				if err := enc.Encode(ev); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		// MaxBytesReader errors land here too; 400 avoids leaking size details
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// writeServiceError maps well-known component errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case resolver.IsUnknownModel(err), resolver.IsUnknownVariant(err), resolver.IsUnknownLora(err), lorahost.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case engine.IsBusy(err):
		writeJSONError(w, http.StatusConflict, err.Error())
	case engine.IsUnauthorized(err), lorahost.IsUnauthorized(err):
		writeJSONError(w, http.StatusUnauthorized, err.Error())
	case catalog.IsUnavailable(err):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	case lorahost.IsTransient(err):
		writeJSONError(w, http.StatusBadGateway, err.Error())
	default:
		if he, ok := err.(HTTPError); ok {
			writeJSONError(w, he.StatusCode(), he.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
