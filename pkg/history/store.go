// Package history keeps a SQLite record of finished games.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chriscow/wordguess/pkg/game"
)

// Entry is one stored game.
type Entry struct {
	ID string
	game.Report
}

// Store wraps the SQLite history database.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open creates or opens the database at path.
func Open(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path must not be empty")
	}
	if log == nil {
		log = slog.Default()
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS games (
    id TEXT PRIMARY KEY,
    target TEXT NOT NULL,
    words TEXT NOT NULL,
    outcome TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS guesses (
    game_id TEXT NOT NULL,
    round INTEGER NOT NULL,
    attempts INTEGER NOT NULL,
    transcription TEXT NOT NULL,
    error TEXT NOT NULL,
    correct INTEGER NOT NULL,
    PRIMARY KEY(game_id, round),
    FOREIGN KEY(game_id) REFERENCES games(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_games_started ON games(started_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a finished game and returns its generated ID.
func (s *Store) Record(ctx context.Context, r game.Report) (id string, err error) {
	id = uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO games(id, target, words, outcome, error, started_at, finished_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		id, r.Target, strings.Join(r.Words, ","), string(r.Outcome), r.Error,
		r.StartedAt.UnixMilli(), r.FinishedAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("insert game: %w", err)
	}

	for _, g := range r.Guesses {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO guesses(game_id, round, attempts, transcription, error, correct)
			 VALUES(?, ?, ?, ?, ?, ?)`,
			id, g.Round, g.Attempts, g.Transcription, g.Error, g.Correct)
		if err != nil {
			return "", fmt.Errorf("insert guess %d: %w", g.Round, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}

	s.log.Debug("game recorded",
		slog.String("id", id),
		slog.String("outcome", string(r.Outcome)),
		slog.Int("guesses", len(r.Guesses)))
	return id, nil
}

// Recent returns up to limit games, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target, words, outcome, error, started_at, finished_at
		 FROM games ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			words, outcome    string
			started, finished int64
		)
		if err := rows.Scan(&e.ID, &e.Target, &words, &outcome, &e.Error, &started, &finished); err != nil {
			return nil, err
		}
		if words != "" {
			e.Words = strings.Split(words, ",")
		}
		e.Outcome = game.Outcome(outcome)
		e.StartedAt = time.UnixMilli(started)
		e.FinishedAt = time.UnixMilli(finished)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		guesses, err := s.guesses(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Guesses = guesses
	}
	return entries, nil
}

func (s *Store) guesses(ctx context.Context, gameID string) ([]game.Guess, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT round, attempts, transcription, error, correct
		 FROM guesses WHERE game_id = ? ORDER BY round ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Guess
	for rows.Next() {
		var g game.Guess
		if err := rows.Scan(&g.Round, &g.Attempts, &g.Transcription, &g.Error, &g.Correct); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Prune keeps the newest keep games and deletes the rest.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, errors.New("keep must not be negative")
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM games WHERE id NOT IN (
		    SELECT id FROM games ORDER BY started_at DESC, rowid DESC LIMIT ?
		 )`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
