package linkverify

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/promptkit/internal/ledger"
	"git.home.luguber.info/inful/promptkit/internal/logfields"
	"git.home.luguber.info/inful/promptkit/internal/metrics"
)

// writer owns every ledger write of a run. Outcomes are merged with the
// record loaded at the start of the run and upserted one at a time.
type writer struct {
	ctx      context.Context
	store    ledger.Store
	prev     map[string]*ledger.Outcome
	recorder metrics.Recorder

	in     chan ledger.Outcome
	done   chan struct{}
	merged map[string]ledger.Outcome
	err    error
}

func startWriter(ctx context.Context, store ledger.Store, prev map[string]*ledger.Outcome, recorder metrics.Recorder, size int) *writer {
	w := &writer{
		// Writes finish even when the run is canceled.
		ctx:      context.WithoutCancel(ctx),
		store:    store,
		prev:     prev,
		recorder: recorder,
		in:       make(chan ledger.Outcome, max(1, size)),
		done:     make(chan struct{}),
		merged:   make(map[string]ledger.Outcome, size),
	}
	go w.loop()
	return w
}

func (w *writer) loop() {
	defer close(w.done)
	for o := range w.in {
		m := ledger.Merge(w.prev[o.URL], o)
		if err := w.store.Upsert(w.ctx, m); err != nil {
			w.recorder.IncLedgerWrite(false)
			slog.Error("Failed to write ledger outcome", logfields.URL(o.URL), logfields.Error(err))
			if w.err == nil {
				w.err = err
			}
			continue
		}
		w.recorder.IncLedgerWrite(true)
		w.merged[o.URL] = m
	}
}

func (w *writer) write(o ledger.Outcome) {
	w.in <- o
}

// close waits for pending writes and returns the merged records.
func (w *writer) close() (map[string]ledger.Outcome, error) {
	close(w.in)
	<-w.done
	return w.merged, w.err
}
