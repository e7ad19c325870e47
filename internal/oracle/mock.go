package oracle

import (
	"context"
	"fmt"
	"sync"
)

// Scripted is a test oracle that replays canned responses in order.
// When a FailAt index is reached the call returns an error instead.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	calls     int
	FailAt    map[int]error
	// Requests records every request for assertions.
	Requests []Request
}

// NewScripted creates a scripted oracle with the given responses.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses, FailAt: make(map[int]error)}
}

func (s *Scripted) Name() string { return "scripted" }

func (s *Scripted) Available() bool { return true }

func (s *Scripted) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	s.Requests = append(s.Requests, req)

	if err, ok := s.FailAt[idx]; ok {
		return "", err
	}
	if idx >= len(s.responses) {
		return "", fmt.Errorf("scripted oracle exhausted after %d responses", len(s.responses))
	}
	return s.responses[idx], nil
}

// Calls returns the number of Complete invocations so far.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
