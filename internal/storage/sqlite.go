package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/parleylab/parley/internal/core"
)

// SQLite stores results in a local SQLite database. The full result is
// kept as a JSON blob next to a few queryable columns.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite creates a SQLite store at the given path.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

func (s *SQLite) Initialize(ctx context.Context) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	schema := `
	CREATE TABLE IF NOT EXISTS negotiations (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		persona_a TEXT NOT NULL,
		persona_b TEXT NOT NULL,
		status TEXT NOT NULL,
		agreement_reached INTEGER NOT NULL,
		rounds_used INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		result_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_negotiations_scenario ON negotiations(scenario);
	CREATE INDEX IF NOT EXISTS idx_negotiations_created_at ON negotiations(created_at);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) SaveNegotiation(ctx context.Context, result *core.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO negotiations
		(id, scenario, persona_a, persona_b, status, agreement_reached, rounds_used, created_at, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.Scenario, result.PersonaA, result.PersonaB,
		string(result.Status), boolToInt(result.AgreementReached),
		result.RoundsUsed, result.CreatedAt, string(data))
	if err != nil {
		return fmt.Errorf("failed to save negotiation: %w", err)
	}
	return nil
}

func (s *SQLite) GetNegotiation(ctx context.Context, id string) (*core.Result, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT result_json FROM negotiations WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("negotiation not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get negotiation: %w", err)
	}

	var result core.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

func (s *SQLite) ListNegotiations(ctx context.Context, filter Filter, limit int) ([]*core.Result, error) {
	query := `SELECT result_json FROM negotiations WHERE 1=1`
	var args []any
	if filter.Scenario != "" {
		query += ` AND scenario = ?`
		args = append(args, filter.Scenario)
	}
	if filter.PersonaA != "" {
		query += ` AND persona_a = ?`
		args = append(args, filter.PersonaA)
	}
	if filter.PersonaB != "" {
		query += ` AND persona_b = ?`
		args = append(args, filter.PersonaB)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list negotiations: %w", err)
	}
	defer rows.Close()

	var results []*core.Result
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var result core.Result
		if err := json.Unmarshal([]byte(data), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		results = append(results, &result)
	}
	return results, rows.Err()
}

func (s *SQLite) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(agreement_reached), 0),
		       COALESCE(AVG(rounds_used), 0)
		FROM negotiations`).Scan(&stats.TotalNegotiations, &stats.AgreementsReached, &stats.AvgRoundsUsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	if stats.TotalNegotiations > 0 {
		stats.AgreementRate = float64(stats.AgreementsReached) / float64(stats.TotalNegotiations)
	}
	return stats, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
