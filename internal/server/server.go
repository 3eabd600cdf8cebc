// Пакет server — HTTP-сервер pin-catalog с graceful shutdown.
// Маршруты заданы статической таблицей Routes; любой другой запрос,
// включая известный путь с другим методом, получает 404.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goartstore/pin-catalog/internal/api/errors"
	"github.com/bigkaa/goartstore/pin-catalog/internal/config"
)

// API — обработчики всех маршрутов сервиса.
type API interface {
	Upload(w http.ResponseWriter, r *http.Request)
	ListImages(w http.ResponseWriter, r *http.Request)
	HealthLive(w http.ResponseWriter, r *http.Request)
	HealthReady(w http.ResponseWriter, r *http.Request)
	GetMetrics(w http.ResponseWriter, r *http.Request)
}

// Route — элемент таблицы маршрутов.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Routes возвращает таблицу маршрутов сервиса.
func Routes(api API) []Route {
	return []Route{
		{http.MethodPost, "/upload", api.Upload},
		{http.MethodGet, "/images", api.ListImages},
		{http.MethodGet, "/health/live", api.HealthLive},
		{http.MethodGet, "/health/ready", api.HealthReady},
		{http.MethodGet, "/metrics", api.GetMetrics},
	}
}

// Server — HTTP-сервер pin-catalog.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// NewRouter собирает chi-роутер из таблицы маршрутов.
// middlewares добавляются в порядке переданного среза.
func NewRouter(routes []Route, middlewares ...func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()

	for _, mw := range middlewares {
		router.Use(mw)
	}

	for _, rt := range routes {
		router.Method(rt.Method, rt.Pattern, rt.Handler)
	}

	router.NotFound(notFound)
	router.MethodNotAllowed(notFound)

	return router
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, routes []Route, middlewares ...func(http.Handler) http.Handler) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(routes, middlewares...),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// notFound — ответ на любой запрос вне таблицы маршрутов.
func notFound(w http.ResponseWriter, r *http.Request) {
	apierrors.NotFound(w, fmt.Sprintf("Маршрут %s %s не найден", r.Method, r.URL.Path))
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
