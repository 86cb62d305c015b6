package ctl

import (
	"sync"

	"github.com/schollz/progressbar/v3"

	"arcticd/pkg/types"
)

// barSink renders engine events as terminal progress bars. Pulls run with
// a single worker so at most one bar is live at a time.
type barSink struct {
	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

func newBarSink() *barSink {
	return &barSink{bars: map[string]*progressbar.ProgressBar{}}
}

func (s *barSink) OnEvent(ev types.TransferEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ev.Key()
	switch ev.Phase {
	case types.PhaseStarted:
		size := int64(-1)
		if ev.Size != nil {
			size = *ev.Size
		}
		s.bars[key] = progressbar.DefaultBytes(size, ev.Artifact)
	case types.PhaseProgress:
		if bar, ok := s.bars[key]; ok {
			_ = bar.Set64(ev.Received)
		}
	case types.PhaseFinished, types.PhaseFailed, types.PhaseCancelled:
		if bar, ok := s.bars[key]; ok {
			if ev.Phase == types.PhaseFinished {
				_ = bar.Finish()
			} else {
				_ = bar.Exit()
			}
			delete(s.bars, key)
		}
	}
}
