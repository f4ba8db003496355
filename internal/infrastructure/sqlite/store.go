package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

// Config — настройки локального файла кэша.
type Config struct {
	Path string `envconfig:"FILE" default:"acacalc-cache.db"`
}

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

var _ ports.IKeyValueStore = (*Store)(nil)

// Store — ports.IKeyValueStore в файле SQLite. Переживает перезапуск процесса (CLI).
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open открывает (или создаёт) базу по пути и применяет схему. Повторный вызов безопасен.
func Open(ctx context.Context, cfg *Config, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	// один писатель, иначе SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		schema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite init %q: %w", stmt, err)
		}
	}
	return &Store{db: db, log: log}, nil
}

// Close закрывает базу.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get возвращает значение по ключу.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		s.log.Debug("sqlite get failed", "key", key, "error", err)
		return "", false, err
	}
	return v, true, nil
}

// Set вставляет или заменяет значение.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	if err != nil {
		s.log.Debug("sqlite set failed", "key", key, "error", err)
		return err
	}
	return nil
}

// Delete удаляет ключ.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		s.log.Debug("sqlite delete failed", "key", key, "error", err)
		return err
	}
	return nil
}
