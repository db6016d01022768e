package ledger

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps outcomes in process memory. It is used for dry runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	outcomes map[string]Outcome
	runs     []Run
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{outcomes: make(map[string]Outcome)}
}

func (m *MemoryStore) Get(_ context.Context, url string) (*Outcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.outcomes[url]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *MemoryStore) Upsert(_ context.Context, o Outcome) error {
	if o.URL == "" {
		return errEmptyURL()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[o.URL] = normalize(o)
	return nil
}

func (m *MemoryStore) List(_ context.Context, statuses ...Status) ([]Outcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Outcome, 0, len(m.outcomes))
	for _, o := range m.outcomes {
		if len(statuses) > 0 && !slices.Contains(statuses, o.Status) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out, nil
}

func (m *MemoryStore) Prune(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for url, o := range m.outcomes {
		if o.Status == StatusValid && o.LastCheckedAt.Before(olderThan) {
			delete(m.outcomes, url)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) RecordRun(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.StartedAt = truncate(run.StartedAt)
	run.FinishedAt = truncate(run.FinishedAt)
	m.runs = append(m.runs, run)
	return nil
}

func (m *MemoryStore) Runs(context.Context) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.runs), nil
}

func (m *MemoryStore) Close() error { return nil }
