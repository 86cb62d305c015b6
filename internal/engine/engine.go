// Package engine executes batches of remote-file fetches with bounded
// concurrency, coalesced progress reporting, and cooperative
// cancellation. One batch may be active engine-wide at a time.
package engine

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"arcticd/pkg/types"
)

const (
	defaultWorkers   = 2
	maxWorkers       = 4
	completedHistory = 32
)

// Config configures a new Engine. Zero values pick defaults.
type Config struct {
	// Concurrent transfers within one batch, clamped to [1,4].
	Workers int
	// HTTP client used for all fetches.
	Client *http.Client
	// Sink receiving transfer events; nil means drop.
	Sink types.EventSink
	// Logger for transfer diagnostics.
	Logger zerolog.Logger
}

// Engine runs download batches. The busy flag and the cancel func are the
// only mutable shared state; both live behind mu because EnqueueBatch,
// Cancel, and worker completions race.
type Engine struct {
	client  *http.Client
	workers int
	sink    types.EventSink
	log     zerolog.Logger

	mu        sync.Mutex
	active    bool
	kind      types.BatchKind
	cancel    context.CancelFunc
	transfers map[string]*types.TransferStatus
	completed []types.TransferStatus
}

// New constructs an Engine from cfg.
func New(cfg Config) *Engine {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 0} // transfers may legitimately run for hours
	}
	sink := cfg.Sink
	if sink == nil {
		sink = types.NopSink{}
	}
	return &Engine{
		client:    client,
		workers:   workers,
		sink:      sink,
		log:       cfg.Logger.With().Str("component", "engine").Logger(),
		transfers: map[string]*types.TransferStatus{},
	}
}

// ItemResult is the per-artifact outcome of a batch.
type ItemResult struct {
	Index   int
	Name    string
	Dest    string
	Skipped bool
	Err     error
}

// Batch is a handle to one running or finished batch.
type Batch struct {
	Kind types.BatchKind

	done    chan struct{}
	results []ItemResult
	outcome types.Phase
}

// Done is closed when every item reached a terminal state.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Wait blocks until the batch finishes or ctx expires and returns the
// terminal batch phase.
func (b *Batch) Wait(ctx context.Context) (types.Phase, error) {
	select {
	case <-b.done:
		return b.outcome, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Results returns the per-item outcomes. Valid only after Done.
func (b *Batch) Results() []ItemResult { return b.results }

// Active reports whether a batch is currently running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Status snapshots the active transfer set and the completed history for
// display. Completed is newest first.
func (e *Engine) Status() (active bool, kind types.BatchKind, transfers, completed []types.TransferStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.transfers {
		transfers = append(transfers, *t)
	}
	completed = make([]types.TransferStatus, len(e.completed))
	copy(completed, e.completed)
	return e.active, e.kind, transfers, completed
}

// Cancel signals the running batch to stop. Workers abort their current
// stream at the next chunk boundary; partially-written temporary files
// are removed. Returns false when no batch is active.
func (e *Engine) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active || e.cancel == nil {
		return false
	}
	e.cancel()
	return true
}

// EnqueueBatch starts downloading items in declaration order. Fails with
// a busy error while another batch is active. Per-item failures are
// delivered as Failed events and do not abort the rest of the batch.
func (e *Engine) EnqueueBatch(ctx context.Context, kind types.BatchKind, items []types.ResolvedArtifact) (*Batch, error) {
	e.mu.Lock()
	if e.active {
		current := string(e.kind)
		e.mu.Unlock()
		return nil, busyError{kind: current}
	}
	batchCtx, cancel := context.WithCancel(ctx)
	e.active = true
	e.kind = kind
	e.cancel = cancel
	e.transfers = map[string]*types.TransferStatus{}
	e.mu.Unlock()
	batchActive.Set(1)

	b := &Batch{Kind: kind, done: make(chan struct{})}
	go e.run(batchCtx, cancel, kind, items, b)
	return b, nil
}

type job struct {
	index int
	item  types.ResolvedArtifact
}

func (e *Engine) run(ctx context.Context, cancel context.CancelFunc, kind types.BatchKind, items []types.ResolvedArtifact, b *Batch) {
	defer cancel()
	total := len(items)
	results := make([]ItemResult, total)

	jobs := make(chan job) // unbuffered: Started stays close to actual start
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = e.process(ctx, kind, j, total)
			}
		}()
	}

	// Single dispatcher goroutine so Started events keep declaration
	// order even with concurrent workers.
dispatch:
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		e.emit(types.TransferEvent{
			Kind: kind, Phase: types.PhaseStarted,
			Artifact: item.Name, Index: i, Total: total,
			Size: item.SizeBytes,
		})
		select {
		case jobs <- job{index: i, item: item}:
		case <-ctx.Done():
			// Started already went out for this item; close it off.
			e.emit(types.TransferEvent{
				Kind: kind, Phase: types.PhaseCancelled,
				Artifact: item.Name, Index: i, Message: "cancelled",
			})
			results[i] = ItemResult{Index: i, Name: item.Name, Err: cancelledError{}}
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	succeeded, failed := 0, 0
	for _, r := range results {
		switch {
		case r.Name == "" && r.Err == nil: // never dispatched
		case r.Err == nil:
			succeeded++
		default:
			failed++
		}
	}

	outcome := types.PhaseBatchFailed
	message := "all downloads failed"
	switch {
	case ctx.Err() != nil:
		outcome = types.PhaseBatchCancelled
		message = "download batch cancelled"
	case succeeded > 0:
		outcome = types.PhaseBatchFinished
		message = "download batch completed"
	}

	e.mu.Lock()
	e.active = false
	e.cancel = nil
	e.transfers = map[string]*types.TransferStatus{}
	e.mu.Unlock()
	batchActive.Set(0)

	e.log.Info().
		Str("kind", string(kind)).
		Int("succeeded", succeeded).
		Int("failed", failed).
		Str("outcome", string(outcome)).
		Msg("batch done")
	e.emit(types.TransferEvent{Kind: kind, Phase: outcome, Total: total, Message: message})

	b.results = results
	b.outcome = outcome
	close(b.done)
}

func (e *Engine) process(ctx context.Context, kind types.BatchKind, j job, total int) ItemResult {
	res := ItemResult{Index: j.index, Name: j.item.Name, Dest: j.item.DestPath}

	if ctx.Err() != nil {
		res.Err = cancelledError{}
		e.emit(types.TransferEvent{
			Kind: kind, Phase: types.PhaseCancelled,
			Artifact: j.item.Name, Index: j.index, Message: "cancelled",
		})
		transfersTotal.WithLabelValues(string(kind), "cancelled").Inc()
		return res
	}

	outcome, err := e.fetch(ctx, kind, j.index, j.item)
	switch {
	case err == nil:
		res.Skipped = outcome.skipped
		e.emit(types.TransferEvent{
			Kind: kind, Phase: types.PhaseFinished,
			Artifact: j.item.Name, Index: j.index, Total: total,
			Received: outcome.received, Size: outcome.size,
			Folder: j.item.DestDir,
		})
		transfersTotal.WithLabelValues(string(kind), "finished").Inc()
	case IsCancelled(err) || ctx.Err() != nil:
		res.Err = cancelledError{}
		e.emit(types.TransferEvent{
			Kind: kind, Phase: types.PhaseCancelled,
			Artifact: j.item.Name, Index: j.index, Message: "cancelled",
		})
		transfersTotal.WithLabelValues(string(kind), "cancelled").Inc()
	default:
		res.Err = err
		e.log.Warn().Err(err).Str("artifact", j.item.Name).Msg("transfer failed")
		e.emit(types.TransferEvent{
			Kind: kind, Phase: types.PhaseFailed,
			Artifact: j.item.Name, Index: j.index, Message: err.Error(),
		})
		transfersTotal.WithLabelValues(string(kind), "failed").Inc()
	}
	return res
}

// emit updates the transfer bookkeeping and forwards the event to the
// sink. Sinks must not block (see types.EventSink).
func (e *Engine) emit(ev types.TransferEvent) {
	e.mu.Lock()
	key := ev.Key()
	switch {
	case ev.Phase == types.PhaseStarted:
		e.transfers[key] = &types.TransferStatus{
			Key: key, Phase: ev.Phase, Artifact: ev.Artifact, Size: ev.Size,
		}
	case ev.Phase == types.PhaseProgress:
		if t := e.transfers[key]; t != nil {
			t.Phase = ev.Phase
			t.Received = ev.Received
			t.Size = ev.Size
		}
	case ev.Phase.Terminal():
		delete(e.transfers, key)
		// Only Finished transfers enter the user-facing history.
		if ev.Phase == types.PhaseFinished {
			done := types.TransferStatus{
				Key: key, Phase: ev.Phase, Artifact: ev.Artifact,
				Received: ev.Received, Size: ev.Size, Folder: ev.Folder,
			}
			e.completed = append([]types.TransferStatus{done}, e.completed...)
			if len(e.completed) > completedHistory {
				e.completed = e.completed[:completedHistory]
			}
		}
	}
	e.mu.Unlock()
	e.sink.OnEvent(ev)
}

// progressInterval bounds how often Progress events are emitted per
// transfer so chunk-rate streams do not flood the sink.
var progressInterval = 150 * time.Millisecond
