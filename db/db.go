// Package db indexes recorded games and their segmentation outcomes in a
// local SQLite file, so fetch and segmentation runs can resume without
// redoing work.
package db

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with thread-safe operations.
type DB struct {
	conn *sql.DB
	mu   sync.Mutex
}

// Game is one fetched recorded game.
type Game struct {
	ID          string
	Events      int
	FilePath    string
	FetchedAt   time.Time
	IsSegmented bool
}

// Segmentation is the recorded outcome of segmenting one game.
type Segmentation struct {
	GameID      string
	Examples    int
	Sets        int
	Status      string // "ok" or "integrity_error"
	Error       string
	SegmentedAt time.Time
}

const (
	StatusOK             = "ok"
	StatusIntegrityError = "integrity_error"
)

// New opens the database and initializes the schema.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) initSchema() error {
	schema := `
	-- Fetched recorded games, keyed by engine game ID.
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		events INTEGER,                 -- event count in the recorded log
		file_path TEXT,                 -- local JSON document path
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		is_segmented BOOLEAN DEFAULT 0
	);

	-- Segmentation outcomes, one row per processed game.
	CREATE TABLE IF NOT EXISTS segmentations (
		game_id TEXT PRIMARY KEY,
		examples INTEGER,
		sets INTEGER,
		status TEXT,                    -- 'ok' or 'integrity_error'
		error TEXT,
		segmented_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(game_id) REFERENCES games(id)
	);

	CREATE INDEX IF NOT EXISTS idx_games_is_segmented ON games(is_segmented);
	CREATE INDEX IF NOT EXISTS idx_segmentations_status ON segmentations(status);
	`

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// GameExists checks whether a game has already been fetched.
func (db *DB) GameExists(gameID string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var exists int
	err := db.conn.QueryRow("SELECT 1 FROM games WHERE id = ?", gameID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertGame records a fetched game.
func (db *DB) InsertGame(g Game) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(
		"INSERT OR IGNORE INTO games (id, events, file_path) VALUES (?, ?, ?)",
		g.ID, g.Events, g.FilePath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

// GetUnsegmentedGames returns fetched games not yet segmented.
func (db *DB) GetUnsegmentedGames(limit int) ([]Game, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query(
		"SELECT id, events, file_path, fetched_at, is_segmented FROM games WHERE is_segmented = 0 LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.ID, &g.Events, &g.FilePath, &g.FetchedAt, &g.IsSegmented); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// RecordSegmentation stores one segmentation outcome and flags the game as
// segmented, in a single transaction.
func (db *DB) RecordSegmentation(s Segmentation) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO segmentations (game_id, examples, sets, status, error)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(game_id) DO UPDATE SET
		   examples = excluded.examples,
		   sets = excluded.sets,
		   status = excluded.status,
		   error = excluded.error,
		   segmented_at = CURRENT_TIMESTAMP`,
		s.GameID, s.Examples, s.Sets, s.Status, s.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert segmentation: %w", err)
	}

	if _, err := tx.Exec("UPDATE games SET is_segmented = 1 WHERE id = ?", s.GameID); err != nil {
		return fmt.Errorf("failed to flag game: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Stats returns counts over the index.
func (db *DB) Stats() (totalGames, segmentedGames, totalExamples int64, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	err = db.conn.QueryRow("SELECT COUNT(*) FROM games").Scan(&totalGames)
	if err != nil {
		return
	}
	err = db.conn.QueryRow("SELECT COUNT(*) FROM games WHERE is_segmented = 1").Scan(&segmentedGames)
	if err != nil {
		return
	}
	err = db.conn.QueryRow("SELECT COALESCE(SUM(examples), 0) FROM segmentations WHERE status = ?", StatusOK).Scan(&totalExamples)
	return
}

// GetAllGameIDs returns every fetched game ID.
func (db *DB) GetAllGameIDs() (map[string]bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query("SELECT id FROM games")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
