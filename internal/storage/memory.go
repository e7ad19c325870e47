package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/parleylab/parley/internal/core"
)

// Memory is an in-memory store for tests and runs without persistence.
type Memory struct {
	mu      sync.RWMutex
	results map[string]*core.Result
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{results: make(map[string]*core.Result)}
}

func (m *Memory) Initialize(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) SaveNegotiation(ctx context.Context, result *core.Result) error {
	if result.ID == "" {
		return fmt.Errorf("result has no ID")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *result
	m.results[result.ID] = &cp
	return nil
}

func (m *Memory) GetNegotiation(ctx context.Context, id string) (*core.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	if !ok {
		return nil, fmt.Errorf("negotiation not found: %s", id)
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) ListNegotiations(ctx context.Context, filter Filter, limit int) ([]*core.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*core.Result
	for _, r := range m.results {
		if filter.Scenario != "" && r.Scenario != filter.Scenario {
			continue
		}
		if filter.PersonaA != "" && r.PersonaA != filter.PersonaA {
			continue
		}
		if filter.PersonaB != "" && r.PersonaB != filter.PersonaB {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Statistics(ctx context.Context) (*Statistics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Statistics{TotalNegotiations: len(m.results)}
	if stats.TotalNegotiations == 0 {
		return stats, nil
	}
	var rounds int
	for _, r := range m.results {
		if r.AgreementReached {
			stats.AgreementsReached++
		}
		rounds += r.RoundsUsed
	}
	stats.AgreementRate = float64(stats.AgreementsReached) / float64(stats.TotalNegotiations)
	stats.AvgRoundsUsed = float64(rounds) / float64(stats.TotalNegotiations)
	return stats, nil
}
