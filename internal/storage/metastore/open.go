package metastore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bigkaa/goartstore/pin-catalog/internal/config"
)

// Open создаёт хранилище метаданных, выбранное в конфигурации (PC_STORE_BACKEND).
// Для postgres применяются миграции, для sqlite — внутри OpenSQLite.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	logger = logger.With(slog.String("component", "metastore"))

	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		logger.Warn("Используется in-memory хранилище: каталог не переживёт рестарт")
		return NewMemoryStore(), nil

	case config.StoreBackendRedis:
		store := NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.StoreKeyPrefix)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ошибка подключения к Redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("Подключение к Redis установлено", slog.String("addr", cfg.RedisAddr))
		return store, nil

	case config.StoreBackendPostgres:
		if err := MigratePostgres(cfg.MigrateURL(), logger); err != nil {
			return nil, err
		}
		pool, err := ConnectPostgres(ctx, cfg.DatabaseDSN(), logger)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(pool), nil

	case config.StoreBackendSQLite:
		return OpenSQLite(cfg.SQLitePath, logger)

	case config.StoreBackendS3:
		store, err := NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.StoreKeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("S3 хранилище настроено",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("endpoint", cfg.S3Endpoint),
		)
		return store, nil

	default:
		return nil, fmt.Errorf("неизвестный бэкенд хранилища %q", cfg.StoreBackend)
	}
}
