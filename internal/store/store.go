// Package store persists the deck collection in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/marbeck/flashdeck/internal/apperr"
	"github.com/marbeck/flashdeck/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS decks (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	cards      TEXT NOT NULL DEFAULT '[]',
	position   INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_decks_position ON decks(position);
`

// DB wraps the decks database.
type DB struct {
	conn *sqlx.DB
}

type deckRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Cards     string    `db:"cards"`
	Position  int       `db:"position"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sqlx.Connect("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	// SQLite allows a single writer.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// List returns every deck ordered by store position.
func (db *DB) List(ctx context.Context) ([]models.Deck, error) {
	var rows []deckRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT id, name, cards, position, updated_at FROM decks ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list decks: %w", err)
	}
	out := make([]models.Deck, 0, len(rows))
	for _, r := range rows {
		d, err := r.toDeck()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Get returns one deck by id, or apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, id string) (models.Deck, error) {
	var r deckRow
	err := db.conn.GetContext(ctx, &r,
		`SELECT id, name, cards, position, updated_at FROM decks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Deck{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Deck{}, fmt.Errorf("store: get deck %s: %w", id, err)
	}
	return r.toDeck()
}

// Put inserts or replaces a deck. New decks are appended after the
// highest existing position; replaced decks keep theirs.
func (db *DB) Put(ctx context.Context, d models.Deck) error {
	cards, err := json.Marshal(d.Cards)
	if err != nil {
		return fmt.Errorf("store: marshal cards: %w", err)
	}
	updated := d.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO decks (id, name, cards, position, updated_at)
		VALUES (?, ?, ?,
			COALESCE(
				(SELECT position FROM decks WHERE id = ?),
				(SELECT COALESCE(MAX(position), 0) + 1 FROM decks)),
			?)
		ON CONFLICT(id) DO UPDATE SET
			name       = excluded.name,
			cards      = excluded.cards,
			updated_at = excluded.updated_at
	`, d.ID, d.Name, string(cards), d.ID, updated)
	if err != nil {
		return fmt.Errorf("store: put deck %s: %w", d.ID, err)
	}
	return nil
}

// Delete removes a deck by id, or returns apperr.ErrNotFound.
func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete deck %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete deck %s: %w", id, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Count returns the number of stored decks.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM decks`); err != nil {
		return 0, fmt.Errorf("store: count decks: %w", err)
	}
	return n, nil
}

func (r deckRow) toDeck() (models.Deck, error) {
	var cards []models.Card
	if err := json.Unmarshal([]byte(r.Cards), &cards); err != nil {
		return models.Deck{}, fmt.Errorf("store: decode cards for %s: %w", r.ID, err)
	}
	if cards == nil {
		cards = []models.Card{}
	}
	return models.Deck{
		ID:        r.ID,
		Name:      r.Name,
		Cards:     cards,
		UpdatedAt: r.UpdatedAt,
	}, nil
}
