// Package store persists catalog rows and claims in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/jaminalder/tictactoe-atlas/internal/catalog"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS states (
		canonical_id TEXT PRIMARY KEY,
		decimal_id   INTEGER NOT NULL,
		turn_count   INTEGER NOT NULL,
		is_terminal  INTEGER NOT NULL,
		rarity       INTEGER NOT NULL,
		data         TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS states_turn_count ON states (turn_count);`,
	`CREATE TABLE IF NOT EXISTS claims (
		state_id   TEXT PRIMARY KEY,
		claim_id   TEXT NOT NULL UNIQUE,
		owner      TEXT NOT NULL,
		claimed_at TIMESTAMP NOT NULL
	);`,
}

// Store is a SQLite database holding the catalog and its claims.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path in WAL mode and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// SeedStates upserts rows in one transaction and returns how many were
// written.
func (s *Store) SeedStates(ctx context.Context, rows []catalog.Row) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO states (canonical_id, decimal_id, turn_count, is_terminal, rarity, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (canonical_id) DO UPDATE SET
			decimal_id = excluded.decimal_id,
			turn_count = excluded.turn_count,
			is_terminal = excluded.is_terminal,
			rarity = excluded.rarity,
			data = excluded.data`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", r.CanonicalID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.CanonicalID, r.DecimalID, r.TurnCount, r.IsTerminal, r.Rarity, string(data)); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", r.CanonicalID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// StateRow loads one row by canonical id.
func (s *Store) StateRow(ctx context.Context, id string) (catalog.Row, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM states WHERE canonical_id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Row{}, false, nil
	}
	if err != nil {
		return catalog.Row{}, false, err
	}
	var r catalog.Row
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return catalog.Row{}, false, fmt.Errorf("decode %s: %w", id, err)
	}
	return r, true, nil
}

// Rows loads every row ordered by decimal id.
func (s *Store) Rows(ctx context.Context) ([]catalog.Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM states ORDER BY decimal_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Row
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r catalog.Row
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountStates is the number of stored rows.
func (s *Store) CountStates(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM states`).Scan(&n)
	return n, err
}

// GetClaim returns the claim on a canonical state, if any.
func (s *Store) GetClaim(ctx context.Context, stateID string) (catalog.Claim, bool, error) {
	c := catalog.Claim{StateID: stateID}
	err := s.db.QueryRowContext(ctx,
		`SELECT claim_id, owner, claimed_at FROM claims WHERE state_id = ?`, stateID,
	).Scan(&c.ID, &c.Owner, &c.ClaimedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Claim{}, false, nil
	}
	if err != nil {
		return catalog.Claim{}, false, err
	}
	return c, true, nil
}

// PutClaim records c. A second claim on the same state fails with
// catalog.ErrAlreadyClaimed.
func (s *Store) PutClaim(ctx context.Context, c catalog.Claim) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO claims (state_id, claim_id, owner, claimed_at) VALUES (?, ?, ?, ?)`,
		c.StateID, c.ID, c.Owner, c.ClaimedAt.UTC(),
	)
	if isConstraint(err) {
		return fmt.Errorf("%w: %s", catalog.ErrAlreadyClaimed, c.StateID)
	}
	return err
}

// ListClaims returns every claim, oldest first.
func (s *Store) ListClaims(ctx context.Context) ([]catalog.Claim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT claim_id, state_id, owner, claimed_at FROM claims ORDER BY claimed_at, state_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Claim
	for rows.Next() {
		var c catalog.Claim
		if err := rows.Scan(&c.ID, &c.StateID, &c.Owner, &c.ClaimedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func isConstraint(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		se.ExtendedCode == sqlite3.ErrConstraintUnique
}
