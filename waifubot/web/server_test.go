package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ellavondegurechaff/waifubot/waifubot/trade"
)

type staticStats trade.RegistryStats

func (s staticStats) Stats() trade.RegistryStats { return trade.RegistryStats(s) }

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantBody   string
	}{
		{name: "no database", db: nil, wantStatus: http.StatusOK, wantBody: `"healthy"`},
		{name: "database up", db: pingFunc(func(context.Context) error { return nil }), wantStatus: http.StatusOK, wantBody: `"database":"ok"`},
		{name: "database down", db: pingFunc(func(context.Context) error { return errors.New("connection refused") }), wantStatus: http.StatusServiceUnavailable, wantBody: "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(staticStats{}, tt.db, "v1", "abc")

			resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body %s missing %s", body, tt.wantBody)
			}
		})
	}
}

func TestServer_TradeStats(t *testing.T) {
	s := New(staticStats{ActiveTrades: 2, PendingInvites: 1, PendingGifts: 5}, nil, "v1", "abc")

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/trades/stats", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var got trade.RegistryStats
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := trade.RegistryStats{ActiveTrades: 2, PendingInvites: 1, PendingGifts: 5}
	if got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}
}

func TestServer_Metrics(t *testing.T) {
	s := New(staticStats{}, nil, "v1", "abc")

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "go_goroutines") {
		t.Errorf("metrics output missing runtime collectors")
	}
}

func TestServer_NotFound(t *testing.T) {
	s := New(staticStats{}, nil, "v1", "abc")

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
