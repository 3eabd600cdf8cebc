package metastore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore — хранилище метаданных в таблице catalog_records.
// Все запросы — чистый SQL через pgx, без ORM.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres создаёт пул подключений к PostgreSQL и проверяет доступность ping-ом.
func ConnectPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула подключений: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка подключения к PostgreSQL: %w", err)
	}

	logger.Info("Подключение к PostgreSQL установлено",
		slog.String("host", poolCfg.ConnConfig.Host),
		slog.Int("port", int(poolCfg.ConnConfig.Port)),
		slog.String("database", poolCfg.ConnConfig.Database),
	)
	return pool, nil
}

// NewPostgresStore создаёт хранилище поверх готового пула.
// Схема должна быть применена заранее (MigratePostgres).
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool возвращает пул подключений (для dephealth pgcheck).
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Put — upsert всей записи.
func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	const query = `
		INSERT INTO catalog_records (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("postgres upsert %s: %w", key, err)
	}
	return nil
}

// Get возвращает значение по ключу.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM catalog_records WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres select %s: %w", key, err)
	}
	return value, nil
}

// Keys возвращает все ключи таблицы.
func (s *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key FROM catalog_records ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("postgres select keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres чтение ключей: %w", err)
	}
	return keys, nil
}

// Scan возвращает все записи одним запросом.
func (s *PostgresStore) Scan(ctx context.Context) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM catalog_records ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("postgres select records: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("postgres чтение записи: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres чтение записей: %w", err)
	}
	return entries, nil
}

// Ping проверяет подключение к PostgreSQL.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close закрывает пул подключений.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var (
	_ Store   = (*PostgresStore)(nil)
	_ Scanner = (*PostgresStore)(nil)
	_ Pinger  = (*PostgresStore)(nil)
)
