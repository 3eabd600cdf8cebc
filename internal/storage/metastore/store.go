// Пакет metastore — хранилище метаданных каталога: ключ (CID) → сериализованная запись.
//
// Контракт минимальный: Put, Get, Keys. Запись по ключу всегда целиком
// (без read-modify-write), поэтому конкурентные записи одного ключа
// разрешаются по правилу «последний писатель побеждает».
//
// Бэкенды: memory, redis, postgres, sqlite, s3 (см. Open).
package metastore

import (
	"context"
	"errors"
)

// ErrNotFound — ключ отсутствует в хранилище.
var ErrNotFound = errors.New("ключ не найден")

// Store — хранилище метаданных.
type Store interface {
	// Put записывает значение по ключу, перезаписывая существующее.
	Put(ctx context.Context, key string, value []byte) error
	// Get возвращает значение по ключу или ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Keys перечисляет все текущие ключи (порядок не гарантируется).
	Keys(ctx context.Context) ([]string, error)
}

// Entry — пара ключ/значение, возвращаемая Scanner.
type Entry struct {
	Key   string
	Value []byte
}

// Scanner — опциональная возможность бэкенда вернуть все записи
// одним проходом вместо Keys + Get по каждому ключу.
type Scanner interface {
	Scan(ctx context.Context) ([]Entry, error)
}

// Pinger — опциональная проверка доступности бэкенда (readiness).
type Pinger interface {
	Ping(ctx context.Context) error
}
