package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore — хранилище метаданных в локальном файле SQLite (modernc, без cgo).
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite открывает (или создаёт) базу SQLite и применяет миграции.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия sqlite %s: %w", path, err)
	}
	// SQLite сериализует запись; один коннект исключает SQLITE_BUSY между своими же запросами.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ошибка открытия sqlite %s: %w", path, err)
	}

	if err := MigrateSQLite(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("SQLite хранилище открыто", slog.String("path", path))
	return &SQLiteStore{db: db}, nil
}

// sqliteDSN добавляет pragma-параметры драйвера modernc к пути базы.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Put — upsert всей записи.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	const query = `
		INSERT INTO catalog_records (key, value, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("sqlite upsert %s: %w", key, err)
	}
	return nil
}

// Get возвращает значение по ключу.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM catalog_records WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sqlite select %s: %w", key, err)
	}
	return value, nil
}

// Keys возвращает все ключи таблицы.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM catalog_records ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("sqlite select keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("sqlite чтение ключа: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Scan возвращает все записи одним запросом.
func (s *SQLiteStore) Scan(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM catalog_records ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("sqlite select records: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("sqlite чтение записи: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Ping проверяет доступность базы.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close закрывает базу.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var (
	_ Store   = (*SQLiteStore)(nil)
	_ Scanner = (*SQLiteStore)(nil)
	_ Pinger  = (*SQLiteStore)(nil)
)
