// catalog.go — чтение каталога: все записи хранилища, новые сверху.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/goartstore/pin-catalog/internal/api/middleware"
	"github.com/bigkaa/goartstore/pin-catalog/internal/config"
	"github.com/bigkaa/goartstore/pin-catalog/internal/domain/model"
	"github.com/bigkaa/goartstore/pin-catalog/internal/storage/metastore"
)

// Причины пропуска записи (лейбл reason метрики pc_catalog_skipped_total).
const (
	skipMissing = "missing"
	skipCorrupt = "corrupt"
	skipError   = "error"
)

// CatalogService — построение каталога.
type CatalogService struct {
	store         metastore.Store
	gatewayDomain string
	concurrency   int
	logger        *slog.Logger
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(cfg *config.Config, store metastore.Store, logger *slog.Logger) *CatalogService {
	concurrency := cfg.CatalogFetchConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &CatalogService{
		store:         store,
		gatewayDomain: cfg.GatewayDomain,
		concurrency:   concurrency,
		logger:        logger.With(slog.String("component", "catalog_service")),
	}
}

// ListAll возвращает все записи каталога, отсортированные по времени
// загрузки по убыванию. Пустое хранилище — пустой (не nil) срез.
//
// Отсутствующие и повреждённые записи пропускаются с предупреждением.
// Ошибкой завершается только перечисление ключей (или Scan).
func (s *CatalogService) ListAll(ctx context.Context) ([]model.CatalogRecord, error) {
	logger := requestLogger(ctx, s.logger)

	var records []model.CatalogRecord
	if scanner, ok := s.store.(metastore.Scanner); ok {
		entries, err := scanner.Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("сканирование хранилища: %w", err)
		}
		records = make([]model.CatalogRecord, 0, len(entries))
		for _, e := range entries {
			if rec := s.decode(logger, e.Key, e.Value); rec != nil {
				records = append(records, *rec)
			}
		}
	} else {
		keys, err := s.store.Keys(ctx)
		if err != nil {
			return nil, fmt.Errorf("перечисление ключей: %w", err)
		}
		records, err = s.fetch(ctx, logger, keys)
		if err != nil {
			return nil, err
		}
	}

	// Стабильная сортировка: при равных временах сохраняется порядок чтения
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UploadedAtMillis > records[j].UploadedAtMillis
	})

	middleware.CatalogRecords.Set(float64(len(records)))
	return records, nil
}

// fetch читает записи по ключам параллельно (не более concurrency запросов),
// сохраняя порядок ключей в результате.
func (s *CatalogService) fetch(ctx context.Context, logger *slog.Logger, keys []string) ([]model.CatalogRecord, error) {
	results := make([]*model.CatalogRecord, len(keys))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			data, err := s.store.Get(ctx, key)
			if err != nil {
				if errors.Is(err, metastore.ErrNotFound) {
					s.skip(logger, key, skipMissing, err)
				} else {
					s.skip(logger, key, skipError, err)
				}
				return nil
			}
			results[i] = s.decode(logger, key, data)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("чтение каталога прервано: %w", err)
	}

	records := make([]model.CatalogRecord, 0, len(keys))
	for _, rec := range results {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, nil
}

// decode разбирает значение; повреждённая запись пропускается (nil).
func (s *CatalogService) decode(logger *slog.Logger, key string, data []byte) *model.CatalogRecord {
	rec, err := model.DecodeRecord(key, data, s.gatewayDomain)
	if err != nil {
		s.skip(logger, key, skipCorrupt, err)
		return nil
	}
	return rec
}

func (s *CatalogService) skip(logger *slog.Logger, key, reason string, err error) {
	middleware.CatalogSkippedTotal.WithLabelValues(reason).Inc()
	logger.Warn("Запись каталога пропущена",
		slog.String("key", key),
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	)
}
