// Пакет config — загрузка и валидация конфигурации pin-catalog
// из переменных окружения (префикс PC_).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Бэкенды закрепления контента.
const (
	PinBackendHTTP = "http"
	PinBackendKubo = "kubo"
)

// Бэкенды хранилища метаданных.
const (
	StoreBackendMemory   = "memory"
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
	StoreBackendSQLite   = "sqlite"
	StoreBackendS3       = "s3"
)

// Config содержит все параметры конфигурации pin-catalog.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Имя вершины графа зависимостей (topologymetrics)
	ServiceID string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// Домен IPFS-шлюза для шаблона https://{cid}.{domain}
	GatewayDomain string
	// Максимальный размер загружаемого файла в байтах
	MaxFileSize int64

	// Бэкенд закрепления: http или kubo
	PinBackend string
	// URL сервиса закрепления (POST сырого тела)
	PinEndpoint string
	// Токен авторизации сервиса закрепления
	PinToken string
	// Таймаут HTTP-клиента сервиса закрепления
	PinTimeout time.Duration
	// Адрес HTTP RPC API узла kubo
	KuboAPIURL string

	// Бэкенд хранилища метаданных
	StoreBackend string
	// Префикс ключей (redis, s3)
	StoreKeyPrefix string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// Путь к файлу SQLite
	SQLitePath string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	// Число параллельных чтений записей при построении каталога
	CatalogFetchConcurrency int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration

	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Путь health-проверки на хосте сервиса закрепления
	DephealthPinHealthPath string
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// PC_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("PC_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("PC_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PC_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.ServiceID = getEnvDefault("PC_SERVICE_ID", "pin-catalog")

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("PC_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("PC_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("PC_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("PC_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	cfg.GatewayDomain = getEnvDefault("PC_GATEWAY_DOMAIN", "ipfs.w3s.link")
	if strings.Contains(cfg.GatewayDomain, "://") {
		return nil, fmt.Errorf("PC_GATEWAY_DOMAIN: ожидается домен без схемы, получено %q", cfg.GatewayDomain)
	}

	// PC_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 100 MB)
	cfg.MaxFileSize, err = getEnvInt64("PC_MAX_FILE_SIZE", 100<<20)
	if err != nil {
		return nil, fmt.Errorf("PC_MAX_FILE_SIZE: %w", err)
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("PC_MAX_FILE_SIZE: значение должно быть положительным")
	}

	if err := cfg.loadPinning(); err != nil {
		return nil, err
	}
	if err := cfg.loadStore(); err != nil {
		return nil, err
	}

	cfg.CatalogFetchConcurrency, err = getEnvInt("PC_CATALOG_FETCH_CONCURRENCY", 8)
	if err != nil {
		return nil, fmt.Errorf("PC_CATALOG_FETCH_CONCURRENCY: %w", err)
	}
	if cfg.CatalogFetchConcurrency < 1 {
		return nil, fmt.Errorf("PC_CATALOG_FETCH_CONCURRENCY: значение должно быть >= 1")
	}

	if cfg.HTTPReadTimeout, err = getEnvDuration("PC_HTTP_READ_TIMEOUT", 30*time.Second); err != nil {
		return nil, fmt.Errorf("PC_HTTP_READ_TIMEOUT: %w", err)
	}
	if cfg.HTTPWriteTimeout, err = getEnvDuration("PC_HTTP_WRITE_TIMEOUT", 120*time.Second); err != nil {
		return nil, fmt.Errorf("PC_HTTP_WRITE_TIMEOUT: %w", err)
	}
	if cfg.HTTPIdleTimeout, err = getEnvDuration("PC_HTTP_IDLE_TIMEOUT", 120*time.Second); err != nil {
		return nil, fmt.Errorf("PC_HTTP_IDLE_TIMEOUT: %w", err)
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("PC_SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return nil, fmt.Errorf("PC_SHUTDOWN_TIMEOUT: %w", err)
	}

	if cfg.DephealthCheckInterval, err = getEnvDuration("PC_DEPHEALTH_CHECK_INTERVAL", 15*time.Second); err != nil {
		return nil, fmt.Errorf("PC_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}
	cfg.DephealthPinHealthPath = getEnvDefault("PC_DEPHEALTH_PIN_HEALTH_PATH", "/")

	return cfg, nil
}

// loadPinning читает параметры сервиса закрепления.
func (cfg *Config) loadPinning() error {
	var err error

	cfg.PinBackend = getEnvDefault("PC_PIN_BACKEND", PinBackendHTTP)
	switch cfg.PinBackend {
	case PinBackendHTTP:
		cfg.PinEndpoint = getEnvDefault("PC_PIN_ENDPOINT", "https://api.nft.storage/upload")
		// PC_PIN_TOKEN — обязателен для http-бэкенда
		cfg.PinToken, err = getEnvRequired("PC_PIN_TOKEN")
		if err != nil {
			return err
		}
	case PinBackendKubo:
		cfg.KuboAPIURL = getEnvDefault("PC_KUBO_API_URL", "localhost:5001")
	default:
		return fmt.Errorf("PC_PIN_BACKEND: недопустимое значение %q, допустимые: http, kubo", cfg.PinBackend)
	}

	cfg.PinTimeout, err = getEnvDuration("PC_PIN_TIMEOUT", 120*time.Second)
	if err != nil {
		return fmt.Errorf("PC_PIN_TIMEOUT: %w", err)
	}
	return nil
}

// loadStore читает параметры выбранного бэкенда хранилища метаданных.
func (cfg *Config) loadStore() error {
	var err error

	cfg.StoreBackend = getEnvDefault("PC_STORE_BACKEND", StoreBackendMemory)
	cfg.StoreKeyPrefix = getEnvDefault("PC_STORE_KEY_PREFIX", "catalog/")

	switch cfg.StoreBackend {
	case StoreBackendMemory:
	case StoreBackendRedis:
		cfg.RedisAddr = getEnvDefault("PC_REDIS_ADDR", "localhost:6379")
		cfg.RedisPassword = getEnvDefault("PC_REDIS_PASSWORD", "")
		cfg.RedisDB, err = getEnvInt("PC_REDIS_DB", 0)
		if err != nil {
			return fmt.Errorf("PC_REDIS_DB: %w", err)
		}
	case StoreBackendPostgres:
		cfg.DBHost = getEnvDefault("PC_DB_HOST", "localhost")
		cfg.DBPort, err = getEnvInt("PC_DB_PORT", 5432)
		if err != nil {
			return fmt.Errorf("PC_DB_PORT: %w", err)
		}
		cfg.DBName = getEnvDefault("PC_DB_NAME", "pincatalog")
		cfg.DBUser = getEnvDefault("PC_DB_USER", "pincatalog")
		cfg.DBPassword = getEnvDefault("PC_DB_PASSWORD", "")
		cfg.DBSSLMode = getEnvDefault("PC_DB_SSL_MODE", "disable")
	case StoreBackendSQLite:
		cfg.SQLitePath = getEnvDefault("PC_SQLITE_PATH", "pin-catalog.db")
	case StoreBackendS3:
		cfg.S3Bucket, err = getEnvRequired("PC_S3_BUCKET")
		if err != nil {
			return err
		}
		cfg.S3Region = getEnvDefault("PC_S3_REGION", "us-east-1")
		cfg.S3Endpoint = getEnvDefault("PC_S3_ENDPOINT", "")
		cfg.S3AccessKey = getEnvDefault("PC_S3_ACCESS_KEY", "")
		cfg.S3SecretKey = getEnvDefault("PC_S3_SECRET_KEY", "")
	default:
		return fmt.Errorf("PC_STORE_BACKEND: недопустимое значение %q, допустимые: memory, redis, postgres, sqlite, s3",
			cfg.StoreBackend)
	}
	return nil
}

// DatabaseDSN возвращает DSN PostgreSQL для pgxpool.
func (cfg *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode,
	)
}

// MigrateURL возвращает URL PostgreSQL для golang-migrate (схема pgx5://).
func (cfg *Config) MigrateURL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 6h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
