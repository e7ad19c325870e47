// Package oracle abstracts the LLM backends that drive agents and the judge.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Schema is a JSON schema for structured output requests.
type Schema struct {
	Name       string
	Definition json.RawMessage
}

// Request is a single completion request.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	// Schema, when set, asks the backend for strict JSON output matching
	// the schema. Backends without structured output support may ignore it.
	Schema *Schema
}

// Oracle generates completions.
type Oracle interface {
	// Name returns the backend identifier.
	Name() string
	// Available reports whether the backend is usable (credentials set).
	Available() bool
	// Complete generates a completion for the request.
	Complete(ctx context.Context, req Request) (string, error)
}

// Registry manages available oracle backends.
type Registry struct {
	mu      sync.RWMutex
	oracles map[string]Oracle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{oracles: make(map[string]Oracle)}
}

// Register adds an oracle to the registry.
func (r *Registry) Register(o Oracle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.oracles[o.Name()] = o
}

// Get returns an oracle by name.
func (r *Registry) Get(name string) (Oracle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.oracles[name]
	if !ok {
		return nil, fmt.Errorf("oracle not found: %s", name)
	}
	return o, nil
}

// List returns the names of all registered oracles.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.oracles))
	for name := range r.oracles {
		names = append(names, name)
	}
	return names
}
