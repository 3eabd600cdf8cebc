package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	apierrors "github.com/bigkaa/goartstore/pin-catalog/internal/api/errors"
	"github.com/bigkaa/goartstore/pin-catalog/internal/config"
	"github.com/bigkaa/goartstore/pin-catalog/internal/domain/model"
	"github.com/bigkaa/goartstore/pin-catalog/internal/pinning"
	"github.com/bigkaa/goartstore/pin-catalog/internal/storage/metastore"
)

const testGateway = "ipfs.w3s.link"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func testConfig() *config.Config {
	return &config.Config{
		GatewayDomain:           testGateway,
		MaxFileSize:             1 << 20,
		PinBackend:              config.PinBackendHTTP,
		CatalogFetchConcurrency: 4,
	}
}

// fakePinner — сервис закрепления с заданным ответом и счётчиком вызовов.
type fakePinner struct {
	mu       sync.Mutex
	cid      string
	err      error
	calls    int
	lastMime string
}

func (p *fakePinner) Pin(_ context.Context, _ []byte, mimeType string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastMime = mimeType
	return p.cid, p.err
}

// countingStore оборачивает Store, считает Put и может отказывать в записи.
type countingStore struct {
	metastore.Store
	mu     sync.Mutex
	puts   int
	putErr error
}

func (s *countingStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.puts++
	s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	return s.Store.Put(ctx, key, value)
}

// fixedClock возвращает часы, выдающие заданные моменты по очереди.
func fixedClock(millis ...int64) func() time.Time {
	var mu sync.Mutex
	i := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := time.UnixMilli(millis[i%len(millis)])
		i++
		return t
	}
}

func newUploadService(pinner pinning.Client, store metastore.Store) *UploadService {
	return NewUploadService(testConfig(), pinner, store, testLogger())
}

func TestSubmit_Success(t *testing.T) {
	pinner := &fakePinner{cid: "bafy123"}
	store := &countingStore{Store: metastore.NewMemoryStore()}
	svc := newUploadService(pinner, store)
	svc.clock = fixedClock(1700000000123)

	rec, uerr := svc.Submit(context.Background(), UploadParams{
		Payload:  make([]byte, 2048),
		FileName: "cat.png",
		MimeType: "image/png",
		Size:     2048,
	})
	if uerr != nil {
		t.Fatalf("Submit: %v", uerr)
	}

	want := model.CatalogRecord{
		ContentID:        "bafy123",
		FileName:         "cat.png",
		UploadedAtMillis: 1700000000123,
		SizeBytes:        2048,
		MimeType:         "image/png",
		ResourceURL:      "https://bafy123.ipfs.w3s.link",
	}
	if *rec != want {
		t.Errorf("запись = %+v, ожидалось %+v", *rec, want)
	}

	// Запись сохранена под ключом CID
	data, err := store.Get(context.Background(), "bafy123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	stored, err := model.DecodeRecord("bafy123", data, testGateway)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if *stored != want {
		t.Errorf("сохранённая запись = %+v, ожидалось %+v", *stored, want)
	}
}

func TestSubmit_EmptyNameAndMimeStoredAsIs(t *testing.T) {
	pinner := &fakePinner{cid: "bafyDefaults"}
	svc := newUploadService(pinner, metastore.NewMemoryStore())

	rec, uerr := svc.Submit(context.Background(), UploadParams{
		Payload: []byte("hello"),
		Size:    -1,
	})
	if uerr != nil {
		t.Fatalf("Submit: %v", uerr)
	}
	if rec.FileName != "" {
		t.Errorf("FileName = %q, ожидалась пустая строка", rec.FileName)
	}
	if rec.SizeBytes != 5 {
		t.Errorf("SizeBytes = %d, ожидалась фактическая длина 5", rec.SizeBytes)
	}
	if rec.MimeType != "" {
		t.Errorf("MimeType = %q, ожидалась пустая строка", rec.MimeType)
	}
	// запасной тип только в запросе к сервису закрепления
	if pinner.lastMime != model.DefaultMimeType {
		t.Errorf("в сервис закрепления передан mime %q", pinner.lastMime)
	}
}

func TestSubmit_DeclaredValuesRoundTrip(t *testing.T) {
	pinner := &fakePinner{cid: "bafyText"}
	store := metastore.NewMemoryStore()
	svc := newUploadService(pinner, store)
	catalog := NewCatalogService(testConfig(), store, testLogger())

	rec, uerr := svc.Submit(context.Background(), UploadParams{
		Payload:  []byte("x"),
		FileName: "",
		MimeType: "text/plain; charset=utf-8",
	})
	if uerr != nil {
		t.Fatalf("Submit: %v", uerr)
	}
	if rec.MimeType != "text/plain; charset=utf-8" {
		t.Errorf("MimeType = %q, ожидалось заявленное значение", rec.MimeType)
	}
	if pinner.lastMime != "text/plain; charset=utf-8" {
		t.Errorf("в сервис закрепления передан mime %q", pinner.lastMime)
	}

	records, err := catalog.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("записей %d, ожидалась 1", len(records))
	}
	if records[0].MimeType != "text/plain; charset=utf-8" || records[0].FileName != "" {
		t.Errorf("сохранено mime=%q name=%q", records[0].MimeType, records[0].FileName)
	}
}

func TestSubmit_NoFile(t *testing.T) {
	for _, payload := range [][]byte{nil, {}} {
		pinner := &fakePinner{cid: "bafy123"}
		store := &countingStore{Store: metastore.NewMemoryStore()}
		svc := newUploadService(pinner, store)

		rec, uerr := svc.Submit(context.Background(), UploadParams{Payload: payload, FileName: "x"})
		if rec != nil {
			t.Error("запись не должна возвращаться")
		}
		if uerr == nil || uerr.Kind != KindInput {
			t.Fatalf("ожидалась ошибка ввода, получено %v", uerr)
		}
		if uerr.StatusCode != http.StatusBadRequest || uerr.Code != apierrors.CodeValidationError {
			t.Errorf("StatusCode=%d Code=%s", uerr.StatusCode, uerr.Code)
		}
		if pinner.calls != 0 || store.puts != 0 {
			t.Errorf("вызовов pin=%d put=%d, ожидалось 0", pinner.calls, store.puts)
		}
	}
}

func TestSubmit_TooLarge(t *testing.T) {
	pinner := &fakePinner{cid: "bafy123"}
	store := &countingStore{Store: metastore.NewMemoryStore()}
	svc := newUploadService(pinner, store)
	svc.maxFileSize = 10

	_, uerr := svc.Submit(context.Background(), UploadParams{Payload: make([]byte, 11)})
	if uerr == nil || uerr.Kind != KindInput {
		t.Fatalf("ожидалась ошибка ввода, получено %v", uerr)
	}
	if uerr.StatusCode != http.StatusRequestEntityTooLarge || uerr.Code != apierrors.CodeFileTooLarge {
		t.Errorf("StatusCode=%d Code=%s", uerr.StatusCode, uerr.Code)
	}
	if pinner.calls != 0 || store.puts != 0 {
		t.Errorf("вызовов pin=%d put=%d, ожидалось 0", pinner.calls, store.puts)
	}
}

func TestSubmit_PinRejected(t *testing.T) {
	pinner := &fakePinner{err: &pinning.Error{
		Kind:       pinning.KindRejected,
		StatusCode: http.StatusUnauthorized,
		Message:    "invalid API key",
	}}
	store := &countingStore{Store: metastore.NewMemoryStore()}
	svc := newUploadService(pinner, store)

	_, uerr := svc.Submit(context.Background(), UploadParams{Payload: []byte("x"), FileName: "x"})
	if uerr == nil || uerr.Kind != KindPin {
		t.Fatalf("ожидалась ошибка закрепления, получено %v", uerr)
	}
	if uerr.StatusCode != http.StatusInternalServerError || uerr.Code != apierrors.CodePinFailed {
		t.Errorf("StatusCode=%d Code=%s", uerr.StatusCode, uerr.Code)
	}
	if !strings.Contains(uerr.Message, "invalid API key") {
		t.Errorf("сообщение сервиса потеряно: %q", uerr.Message)
	}
	if store.puts != 0 {
		t.Errorf("put вызван %d раз, ожидалось 0", store.puts)
	}
	if pinning.KindOf(uerr) != pinning.KindRejected {
		t.Error("UploadError должна оборачивать *pinning.Error")
	}
}

func TestSubmit_PinForeignError(t *testing.T) {
	pinner := &fakePinner{err: errors.New("boom")}
	svc := newUploadService(pinner, metastore.NewMemoryStore())

	_, uerr := svc.Submit(context.Background(), UploadParams{Payload: []byte("x")})
	if uerr == nil || uerr.Kind != KindPin {
		t.Fatalf("ожидалась ошибка закрепления, получено %v", uerr)
	}
	if uerr.Message != "boom" {
		t.Errorf("Message = %q", uerr.Message)
	}
}

func TestSubmit_PersistFailure(t *testing.T) {
	pinner := &fakePinner{cid: "bafyPinned"}
	store := &countingStore{Store: metastore.NewMemoryStore(), putErr: errors.New("disk full")}
	svc := newUploadService(pinner, store)

	_, uerr := svc.Submit(context.Background(), UploadParams{Payload: []byte("x"), FileName: "x"})
	if uerr == nil || uerr.Kind != KindPersist {
		t.Fatalf("ожидалась ошибка сохранения, получено %v", uerr)
	}
	if uerr.CID != "bafyPinned" {
		t.Errorf("CID = %q, ожидался bafyPinned", uerr.CID)
	}
	if uerr.Code != apierrors.CodePersistFailed || uerr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode=%d Code=%s", uerr.StatusCode, uerr.Code)
	}
	if pinner.calls != 1 {
		t.Errorf("pin вызван %d раз, ожидался 1 (без повторов)", pinner.calls)
	}
	if store.puts != 1 {
		t.Errorf("put вызван %d раз, ожидался 1 (без повторов)", store.puts)
	}
}

func TestSubmit_ReuploadOverwrites(t *testing.T) {
	pinner := &fakePinner{cid: "bafySame"}
	store := metastore.NewMemoryStore()
	svc := newUploadService(pinner, store)
	svc.clock = fixedClock(100, 200)

	for i := 0; i < 2; i++ {
		if _, uerr := svc.Submit(context.Background(), UploadParams{Payload: []byte("same"), FileName: "a"}); uerr != nil {
			t.Fatalf("Submit #%d: %v", i, uerr)
		}
	}

	if store.Count() != 1 {
		t.Fatalf("ожидалась 1 запись, получено %d", store.Count())
	}
	data, _ := store.Get(context.Background(), "bafySame")
	rec, err := model.DecodeRecord("bafySame", data, testGateway)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if rec.UploadedAtMillis != 200 {
		t.Errorf("UploadedAtMillis = %d, ожидалось 200 (последний писатель)", rec.UploadedAtMillis)
	}
}
