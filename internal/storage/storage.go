// Package storage persists negotiation results.
//
// Three backends: MongoDB for deployments, SQLite for local archives,
// and an in-memory store for tests and throwaway runs. Persistence is
// advisory; callers treat save failures as non-fatal.
package storage

import (
	"context"

	"github.com/parleylab/parley/internal/core"
)

// Filter narrows ListNegotiations results. Zero fields match everything.
type Filter struct {
	Scenario string
	PersonaA string
	PersonaB string
}

// Statistics summarizes the stored negotiation corpus.
type Statistics struct {
	TotalNegotiations int     `json:"total_negotiations"`
	AgreementsReached int     `json:"agreements_reached"`
	AgreementRate     float64 `json:"agreement_rate"`
	AvgRoundsUsed     float64 `json:"avg_rounds_used"`
}

// Storage is the persistence interface for negotiation results.
type Storage interface {
	// Initialize prepares the backend (creates schema, verifies connectivity).
	Initialize(ctx context.Context) error
	// Close releases backend resources.
	Close() error
	// SaveNegotiation stores a result, replacing any result with the same ID.
	SaveNegotiation(ctx context.Context, result *core.Result) error
	// GetNegotiation retrieves a result by ID.
	GetNegotiation(ctx context.Context, id string) (*core.Result, error)
	// ListNegotiations returns results matching the filter, newest first,
	// capped at limit (0 means no cap).
	ListNegotiations(ctx context.Context, filter Filter, limit int) ([]*core.Result, error)
	// Statistics aggregates over the stored results.
	Statistics(ctx context.Context) (*Statistics, error)
}
