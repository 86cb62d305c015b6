package httpapi

import (
	"log"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"arcticd/pkg/types"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// logEventLine traces one streamed transfer event at debug level.
func logEventLine(ev types.TransferEvent) {
	if zlog != nil {
		zlog.Debug().
			Str("phase", string(ev.Phase)).
			Str("artifact", ev.Artifact).
			Int64("received", ev.Received).
			Msg("event stream")
		return
	}
	log.Printf("event> phase=%s artifact=%s received=%d", ev.Phase, ev.Artifact, ev.Received)
}

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("ARCTICD_LOG_LEVEL"))

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}
