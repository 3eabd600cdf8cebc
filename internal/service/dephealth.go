// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// pin-catalog мониторит:
//   - сервис закрепления (HTTP API) или узел Kubo — HTTP checker (critical)
//   - PostgreSQL — SQL checker через существующий pgxpool, только для бэкенда postgres
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // регистрация HTTP checker factory
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// DephealthGroup — группа в метриках topologymetrics.
const DephealthGroup = "pin-catalog"

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	deps   []string
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Метрики регистрируются в глобальном Prometheus registry.
//
// Параметры:
//   - serviceID — имя вершины графа (PC_SERVICE_ID)
//   - pinName — имя зависимости закрепления ("pinning-service" или "kubo")
//   - pinURL — адрес сервиса закрепления; схема http:// добавляется, если не указана
//   - pinHealthPath — путь HTTP-проверки на хосте сервиса закрепления
//   - db — *sql.DB из pgxpool через stdlib.OpenDBFromPool(); nil — без PostgreSQL
//   - pgConnURL — URL PostgreSQL (только для лейблов)
func NewDephealthService(
	serviceID string,
	pinName string,
	pinURL string,
	pinHealthPath string,
	db *sql.DB,
	pgConnURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, pinName, pinURL, pinHealthPath, db, pgConnURL, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	serviceID string,
	pinName string,
	pinURL string,
	pinHealthPath string,
	db *sql.DB,
	pgConnURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, pinName, pinURL, pinHealthPath, db, pgConnURL, checkInterval,
		logger, dephealth.WithRegisterer(registerer))
}

func newDephealthService(
	serviceID string,
	pinName string,
	pinURL string,
	pinHealthPath string,
	db *sql.DB,
	pgConnURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	pinURL = withScheme(pinURL)

	pinDepOpts := []dephealth.DependencyOption{
		dephealth.FromURL(pinURL),
		dephealth.WithHTTPHealthPath(pinHealthPath),
		dephealth.CheckInterval(checkInterval),
		dephealth.Critical(true),
	}
	if parsed, err := url.Parse(pinURL); err == nil && parsed.Scheme == "https" {
		pinDepOpts = append(pinDepOpts, dephealth.WithHTTPTLSSkipVerify(false))
	}

	opts := make([]dephealth.Option, 0, 3+len(extraOpts))
	opts = append(opts,
		dephealth.WithLogger(logger),
		dephealth.HTTP(pinName, pinDepOpts...),
	)
	deps := []string{pinName}

	if db != nil {
		opts = append(opts, dephealth.AddDependency("postgresql", dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(db)),
			dephealth.FromURL(pgConnURL),
			dephealth.CheckInterval(checkInterval),
			dephealth.Critical(true),
		))
		deps = append(deps, "postgresql")
	}
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, DephealthGroup, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		deps:   deps,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен",
		slog.String("dependencies", strings.Join(ds.deps, ",")),
	)
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — "имя:хост:порт", значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}

// withScheme добавляет http:// к адресу вида host:port (PC_KUBO_API_URL).
func withScheme(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	return "http://" + raw
}
