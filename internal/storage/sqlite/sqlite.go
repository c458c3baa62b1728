// Package sqlite implements the storage repositories (spec.md §4.8) on top
// of database/sql, mattn/go-sqlite3 and Masterminds/squirrel.
package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// DB wraps a sqlite connection shared by every repository. WAL mode gives
// the single-writer-many-readers model spec.md §5 assumes.
type DB struct {
	conn    *sql.DB
	builder sq.StatementBuilderType
	logger  *zap.Logger
}

// Open opens (creating if absent) the sqlite database at path and applies
// every embedded migration idempotently.
func Open(path string, logger *zap.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	conn.SetMaxOpenConns(1) // sqlite permits one writer; serialize through one connection

	db := &DB{conn: conn, builder: sq.StatementBuilder.PlaceholderFormat(sq.Question), logger: logger}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) Close() error { return db.conn.Close() }

func (db *DB) migrate() error {
	if _, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		var already int
		row := db.conn.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, name)
		if err := row.Scan(&already); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if already > 0 {
			continue
		}

		contents, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(contents)); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES (?)`, name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
		db.logger.Info("applied migration", zap.String("name", name))
	}
	return nil
}
