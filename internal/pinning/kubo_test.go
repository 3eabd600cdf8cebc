package pinning

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestKuboClient_Pin_Success(t *testing.T) {
	var gotPin, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/add" {
			http.NotFound(w, r)
			return
		}
		gotPin = r.URL.Query().Get("pin")
		gotVersion = r.URL.Query().Get("cid-version")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Name":"` + testCIDv1 + `","Hash":"` + testCIDv1 + `","Size":"12"}` + "\n"))
	}))
	defer srv.Close()

	client := NewKuboClient(srv.URL, 5*time.Second, testLogger())
	cid, err := client.Pin(context.Background(), []byte("hello"), "text/plain")
	if err != nil {
		t.Fatalf("Pin: %v", err)
	}
	if cid != testCIDv1 {
		t.Errorf("cid = %q, ожидался %q", cid, testCIDv1)
	}
	if gotPin != "true" {
		t.Errorf("pin = %q, ожидалось true", gotPin)
	}
	if gotVersion != "1" {
		t.Errorf("cid-version = %q, ожидалось 1", gotVersion)
	}
}

func TestKuboClient_Pin_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"Message":"pin failed: datastore full","Code":0,"Type":"error"}`))
	}))
	defer srv.Close()

	client := NewKuboClient(srv.URL, 5*time.Second, testLogger())
	_, err := client.Pin(context.Background(), []byte("hello"), "")

	if KindOf(err) != KindRejected {
		t.Fatalf("ожидался отказ, получено %v", err)
	}
	if pinErr := err.(*Error); pinErr.Message != "pin failed: datastore full" {
		t.Errorf("Message = %q", pinErr.Message)
	}
}

func TestKuboClient_Pin_MalformedHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Name":"x","Hash":"not-a-cid","Size":"1"}`))
	}))
	defer srv.Close()

	client := NewKuboClient(srv.URL, 5*time.Second, testLogger())
	_, err := client.Pin(context.Background(), []byte("hello"), "")

	if KindOf(err) != KindMalformed {
		t.Errorf("ожидалась ошибка формата, получено %v", err)
	}
}

func TestKuboClient_Pin_Transport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewKuboClient(url, time.Second, testLogger())
	_, err := client.Pin(context.Background(), []byte("hello"), "")

	if KindOf(err) != KindTransport {
		t.Errorf("ожидалась транспортная ошибка, получено %v", err)
	}
}

func TestKuboClient_Pin_CanceledBeforeSend(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewKuboClient(srv.URL, time.Second, testLogger())
	_, err := client.Pin(ctx, []byte("hello"), "")

	if KindOf(err) != KindTransport {
		t.Errorf("ожидалась транспортная ошибка, получено %v", err)
	}
	if called {
		t.Error("запрос не должен отправляться при отменённом контексте")
	}
}
