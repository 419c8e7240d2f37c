package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
)

// Store is the SQLite-backed generation history. It remembers which topics
// were generated recently so the topic generator can avoid repeating keyword
// combinations and categories across batches.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the history database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "bloggen.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	topicsTable := `
	CREATE TABLE IF NOT EXISTS topic_history (
		slug TEXT PRIMARY KEY,
		title TEXT,
		category TEXT,
		signature TEXT,
		created_at DATETIME
	);`

	if _, err := s.db.Exec(topicsTable); err != nil {
		return fmt.Errorf("failed to create topic_history table: %w", err)
	}

	indexStmt := `CREATE INDEX IF NOT EXISTS idx_topic_history_created ON topic_history (created_at);`
	if _, err := s.db.Exec(indexStmt); err != nil {
		return fmt.Errorf("failed to create topic_history index: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordTopic stores a generated topic's identity and keyword signature.
func (s *Store) RecordTopic(topic *core.Topic, signature string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO topic_history (slug, title, category, signature, created_at) VALUES (?, ?, ?, ?, ?)`,
		topic.Slug, topic.Title, topic.Category, signature, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record topic %s: %w", topic.Slug, err)
	}
	return nil
}

// RecentSignatures returns the keyword signatures recorded within the window.
func (s *Store) RecentSignatures(window time.Duration) (map[string]bool, error) {
	cutoff := time.Now().UTC().Add(-window)
	rows, err := s.db.Query(`SELECT signature FROM topic_history WHERE created_at >= ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent signatures: %w", err)
	}
	defer rows.Close()

	signatures := make(map[string]bool)
	for rows.Next() {
		var sig string
		if err := rows.Scan(&sig); err != nil {
			return nil, fmt.Errorf("failed to scan signature: %w", err)
		}
		signatures[sig] = true
	}
	return signatures, rows.Err()
}

// RecentCategories returns the categories of the n most recent topics,
// newest first.
func (s *Store) RecentCategories(n int) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT category FROM topic_history ORDER BY created_at DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var cat string
		if err := rows.Scan(&cat); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

// Prune removes history entries older than the retention period.
func (s *Store) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	result, err := s.db.Exec(`DELETE FROM topic_history WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune topic history: %w", err)
	}
	return result.RowsAffected()
}
