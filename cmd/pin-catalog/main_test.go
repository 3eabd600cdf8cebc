package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/bigkaa/goartstore/pin-catalog/internal/config"
	"github.com/bigkaa/goartstore/pin-catalog/internal/pinning"
)

func TestPinDependency(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantURL  string
	}{
		{
			name:     "http",
			cfg:      config.Config{PinBackend: config.PinBackendHTTP, PinEndpoint: "https://api.nft.storage/upload"},
			wantName: "pinning-service",
			wantURL:  "https://api.nft.storage/upload",
		},
		{
			name:     "kubo",
			cfg:      config.Config{PinBackend: config.PinBackendKubo, KuboAPIURL: "localhost:5001"},
			wantName: "kubo",
			wantURL:  "localhost:5001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, url := pinDependency(&tt.cfg)
			if name != tt.wantName || url != tt.wantURL {
				t.Errorf("pinDependency = (%q, %q), want (%q, %q)", name, url, tt.wantName, tt.wantURL)
			}
		})
	}
}

func TestNewPinner_Backend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	httpPinner := newPinner(&config.Config{PinBackend: config.PinBackendHTTP, PinToken: "key"}, logger)
	if _, ok := httpPinner.(*pinning.HTTPClient); !ok {
		t.Errorf("ожидался *pinning.HTTPClient, получен %T", httpPinner)
	}

	kuboPinner := newPinner(&config.Config{PinBackend: config.PinBackendKubo, KuboAPIURL: "localhost:5001"}, logger)
	if _, ok := kuboPinner.(*pinning.KuboClient); !ok {
		t.Errorf("ожидался *pinning.KuboClient, получен %T", kuboPinner)
	}
}
