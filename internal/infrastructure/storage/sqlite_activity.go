package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/domain/repository"
)

type sqliteActivityRepository struct {
	db *sqlx.DB
}

// NewSQLiteActivityRepository SQLite-backed activity log
func NewSQLiteActivityRepository(dbPath string) (repository.ActivityRepository, error) {
	if dbPath == "" {
		return nil, errors.New("activity db path is empty")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create activity db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases alive between queries
	db.SetMaxOpenConns(1)

	if err := createActivitySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteActivityRepository{db: db}, nil
}

func createActivitySchema(db *sqlx.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS activity (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	action TEXT NOT NULL,
	details TEXT,
	ts TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_ts ON activity (ts);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create activity schema: %w", err)
	}
	return nil
}

// LogAction appends one action
func (s *sqliteActivityRepository) LogAction(ctx context.Context, action entity.Activity) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO activity (id, session_id, action, details, ts) VALUES (:id, :session_id, :action, :details, :ts)`,
		action)
	if err != nil {
		return fmt.Errorf("log activity %s: %w", action.Action, err)
	}
	return nil
}

// Recent newest actions first
func (s *sqliteActivityRepository) Recent(ctx context.Context, limit int) ([]entity.Activity, error) {
	query := `SELECT id, session_id, action, details, ts FROM activity ORDER BY ts DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var actions []entity.Activity
	if err := s.db.SelectContext(ctx, &actions, query, args...); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return actions, nil
}

// Close closes the database
func (s *sqliteActivityRepository) Close() error {
	return s.db.Close()
}
