package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore keeps documents as BLOBs in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	dbPath string
}

var _ service.BlobStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at dbPath and applies pending migrations.
func NewSQLiteStore(ctx context.Context, dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite serializes writers and :memory: is per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: dbPath, logger: common.OrDefault(logger)}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put stores data under a fresh ID and returns the ID as the locator.
func (s *SQLiteStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateName(name); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, content, size) VALUES (?, ?, ?, ?)`,
		id, name, data, len(data))
	if err != nil {
		return "", fmt.Errorf("failed to store document %s: %w", name, err)
	}
	return id, nil
}

// Get returns the document with the given ID. A locator that is not an ID is
// looked up as a name, newest first.
func (s *SQLiteStore) Get(ctx context.Context, locator string) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(locator, "locator"); err != nil {
		return nil, err
	}

	var content []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM documents WHERE id = ? OR name = ? ORDER BY (id = ?) DESC, rowid DESC LIMIT 1`,
		locator, locator, locator).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", locator, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", locator, err)
	}
	if content == nil {
		content = []byte{}
	}
	return content, nil
}

// Count returns the number of stored documents.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}
