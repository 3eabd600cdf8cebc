// Точка входа pin-catalog — сервиса загрузки файлов в IPFS через сервис
// закрепления и каталога загруженного контента.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/goartstore/pin-catalog/internal/api/handlers"
	"github.com/bigkaa/goartstore/pin-catalog/internal/api/middleware"
	"github.com/bigkaa/goartstore/pin-catalog/internal/config"
	"github.com/bigkaa/goartstore/pin-catalog/internal/pinning"
	"github.com/bigkaa/goartstore/pin-catalog/internal/server"
	"github.com/bigkaa/goartstore/pin-catalog/internal/service"
	"github.com/bigkaa/goartstore/pin-catalog/internal/storage/metastore"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("pin-catalog запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("pin_backend", cfg.PinBackend),
		slog.String("store_backend", cfg.StoreBackend),
		slog.String("gateway_domain", cfg.GatewayDomain),
	)

	ctx := context.Background()

	// --- Инициализация компонентов ---

	// 1. Хранилище метаданных
	store, err := metastore.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища метаданных", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Клиент сервиса закрепления
	pinner := newPinner(cfg, logger)

	// 3. Сервисы
	uploadSvc := service.NewUploadService(cfg, pinner, store, logger)
	catalogSvc := service.NewCatalogService(cfg, store, logger)

	// 4. topologymetrics — мониторинг зависимостей
	var pgDB *sql.DB
	pgConnURL := ""
	if pgStore, ok := store.(*metastore.PostgresStore); ok {
		pgDB = stdlib.OpenDBFromPool(pgStore.Pool())
		pgConnURL = cfg.DatabaseDSN()
	}

	pinName, pinURL := pinDependency(cfg)
	var deps handlers.DependencyHealth
	dephealthSvc, dephealthErr := service.NewDephealthService(
		cfg.ServiceID,
		pinName,
		pinURL,
		cfg.DephealthPinHealthPath,
		pgDB,
		pgConnURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			deps = dephealthSvc
			logger.Info("topologymetrics запущен",
				slog.String("pinning", pinURL),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 5. Handlers
	var storePinger handlers.StorePinger
	if p, ok := store.(metastore.Pinger); ok {
		storePinger = p
	}
	apiHandler := handlers.NewAPIHandler(
		handlers.NewUploadHandler(uploadSvc, cfg.MaxFileSize, logger),
		handlers.NewCatalogHandler(catalogSvc, logger),
		handlers.NewHealthHandler(storePinger, deps),
	)

	// 6. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, server.Routes(apiHandler),
		middleware.RequestID(logger),
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Graceful shutdown ---
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	if pgDB != nil {
		_ = pgDB.Close()
	}
	if closer, ok := store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("Ошибка закрытия хранилища", slog.String("error", err.Error()))
		}
	}

	logger.Info("pin-catalog остановлен")
}

// newPinner создаёт клиент выбранного бэкенда закрепления.
// Для http-бэкенда предупреждает об истёкшем JWT-токене.
func newPinner(cfg *config.Config, logger *slog.Logger) pinning.Client {
	if cfg.PinBackend == config.PinBackendKubo {
		logger.Info("Бэкенд закрепления: узел Kubo", slog.String("api", cfg.KuboAPIURL))
		return pinning.NewKuboClient(cfg.KuboAPIURL, cfg.PinTimeout, logger)
	}

	info := pinning.InspectToken(cfg.PinToken)
	if info.IsJWT {
		attrs := []any{slog.String("issuer", info.Issuer)}
		if info.ExpiresAt != nil {
			attrs = append(attrs, slog.Time("expires_at", *info.ExpiresAt))
		}
		if info.Expired(time.Now()) {
			logger.Warn("Токен сервиса закрепления истёк, загрузки будут отклонены", attrs...)
		} else {
			logger.Info("Токен сервиса закрепления — JWT", attrs...)
		}
	}

	logger.Info("Бэкенд закрепления: HTTP", slog.String("endpoint", cfg.PinEndpoint))
	return pinning.NewHTTPClient(cfg.PinEndpoint, cfg.PinToken, cfg.PinTimeout, logger)
}

// pinDependency возвращает имя и адрес зависимости закрепления для topologymetrics.
func pinDependency(cfg *config.Config) (name, url string) {
	if cfg.PinBackend == config.PinBackendKubo {
		return "kubo", cfg.KuboAPIURL
	}
	return "pinning-service", cfg.PinEndpoint
}
