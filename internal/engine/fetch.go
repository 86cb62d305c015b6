package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"time"

	"arcticd/internal/common/fsutil"
	"arcticd/pkg/types"
)

type fetchOutcome struct {
	received int64
	size     *int64
	skipped  bool
}

// fetch streams one artifact to {dest}.part and renames it into place.
// A destination that already exists is skipped without a network request;
// this is a bare existence check, not a checksum-verified dedup, so
// re-downloading requires deleting the file first.
func (e *Engine) fetch(ctx context.Context, kind types.BatchKind, index int, item types.ResolvedArtifact) (fetchOutcome, error) {
	if fsutil.PathExists(item.DestPath) {
		e.log.Debug().Str("path", item.DestPath).Msg("destination exists, skipping")
		return fetchOutcome{skipped: true, size: item.SizeBytes}, nil
	}

	if err := fsutil.EnsureDir(item.DestDir); err != nil {
		return fetchOutcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.SourceURL, nil)
	if err != nil {
		return fetchOutcome{}, fmt.Errorf("build request for %s: %w", item.SourceURL, err)
	}
	if item.AuthBearer != "" {
		req.Header.Set("Authorization", "Bearer "+item.AuthBearer)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fetchOutcome{}, cancelledError{}
		}
		return fetchOutcome{}, fmt.Errorf("request failed for %s: %w", item.SourceURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fetchOutcome{}, ErrUnauthorized(item.SourceURL)
	case resp.StatusCode >= 400:
		return fetchOutcome{}, fmt.Errorf("unexpected status %s downloading %s", resp.Status, item.SourceURL)
	}

	size := item.SizeBytes
	if resp.ContentLength > 0 {
		n := resp.ContentLength
		size = &n
	}

	tmp := item.DestPath + ".part"
	received, err := e.stream(ctx, kind, index, item, resp.Body, tmp, size)
	if err != nil {
		_ = os.Remove(tmp)
		return fetchOutcome{}, err
	}

	if err := os.Rename(tmp, item.DestPath); err != nil {
		_ = os.Remove(tmp)
		return fetchOutcome{}, fmt.Errorf("move %s into place: %w", tmp, err)
	}
	return fetchOutcome{received: received, size: size}, nil
}

// stream copies body to tmp, emitting coalesced Progress events and
// polling cancellation at chunk boundaries. When the artifact declares a
// sha256, the digest is computed while streaming and verified at the end.
func (e *Engine) stream(ctx context.Context, kind types.BatchKind, index int, item types.ResolvedArtifact, body io.Reader, tmp string, size *int64) (int64, error) {
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create temporary file %s: %w", tmp, err)
	}

	var hasher hash.Hash
	if item.SHA256 != "" {
		hasher = sha256.New()
	}

	var received int64
	lastEmit := time.Time{}
	buf := make([]byte, 32*1024)
	for {
		if ctx.Err() != nil {
			f.Close()
			return received, cancelledError{}
		}
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				f.Close()
				return received, fmt.Errorf("write %s: %w", tmp, werr)
			}
			if hasher != nil {
				hasher.Write(buf[:n])
			}
			received += int64(n)
			bytesReceivedTotal.Add(float64(n))
			if time.Since(lastEmit) >= progressInterval {
				lastEmit = time.Now()
				e.emit(types.TransferEvent{
					Kind: kind, Phase: types.PhaseProgress,
					Artifact: item.Name, Index: index,
					Received: received, Size: size,
				})
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			f.Close()
			if ctx.Err() != nil || errors.Is(rerr, context.Canceled) {
				return received, cancelledError{}
			}
			return received, fmt.Errorf("stream %s: %w", item.SourceURL, rerr)
		}
	}

	if err := f.Close(); err != nil {
		return received, fmt.Errorf("flush %s: %w", tmp, err)
	}

	if hasher != nil {
		if got := hex.EncodeToString(hasher.Sum(nil)); got != item.SHA256 {
			return received, fmt.Errorf("checksum mismatch for %s (expected %s, got %s)", item.Name, item.SHA256, got)
		}
	}
	return received, nil
}
