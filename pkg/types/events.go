package types

import "fmt"

// Phase is the lifecycle phase of a transfer or batch event.
type Phase string

const (
	PhaseStarted        Phase = "started"
	PhaseProgress       Phase = "progress"
	PhaseFinished       Phase = "finished"
	PhaseFailed         Phase = "failed"
	PhaseCancelled      Phase = "cancelled"
	PhaseBatchFinished  Phase = "batch_finished"
	PhaseBatchFailed    Phase = "batch_failed"
	PhaseBatchCancelled Phase = "batch_cancelled"
)

// Terminal reports whether the phase ends an individual transfer.
func (p Phase) Terminal() bool {
	return p == PhaseFinished || p == PhaseFailed || p == PhaseCancelled
}

// BatchKind labels what a batch is downloading.
type BatchKind string

const (
	BatchModel  BatchKind = "model"
	BatchLora   BatchKind = "lora"
	BatchUpdate BatchKind = "update"
)

// TransferEvent is the closed event union producers emit to an EventSink.
// Completion events may arrive out of order across concurrent workers;
// consumers must track transfers by Key, not by arrival position.
type TransferEvent struct {
	Kind  BatchKind `json:"kind"`
	Phase Phase     `json:"phase"`
	// Artifact file name; empty on batch-level events.
	Artifact string `json:"artifact,omitempty"`
	// Position in the batch, 0-based.
	Index int `json:"index"`
	// Batch size; set on Started and batch-level events.
	Total int `json:"total,omitempty"`
	// Bytes received so far.
	Received int64 `json:"received,omitempty"`
	// Declared or reported size; nil means indeterminate.
	Size *int64 `json:"size,omitempty"`
	// Resolved destination folder; set on Finished.
	Folder string `json:"folder,omitempty"`
	// Human-readable detail; set on Failed and batch-level events.
	Message string `json:"message,omitempty"`
}

// Key identifies the transfer this event belongs to across phases.
func (e TransferEvent) Key() string {
	return fmt.Sprintf("%s/%d/%s", e.Kind, e.Index, e.Artifact)
}

// EventSink receives transfer events. Implementations must be fast and
// must not block: producers deliver synchronously and apply no
// backpressure, so a slow consumer has to buffer or coalesce on its own.
type EventSink interface {
	OnEvent(TransferEvent)
}

// NopSink drops all events.
type NopSink struct{}

func (NopSink) OnEvent(TransferEvent) {}
