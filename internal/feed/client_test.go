package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmeshcher/lot-auction/internal/model"
)

func TestFetchLots_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/lots" {
			t.Fatalf("path = %s, want /api/lots", r.URL.Path)
		}

		resp := []model.LotSpec{{
			Name:      "Pat Cummins",
			Role:      "Bowler",
			Country:   "Australia",
			BasePrice: 1_900_000,
			Stats:     model.Stats{Matches: 88},
		}}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	lots, code, retry, err := client.FetchLots(ctx)
	if err != nil {
		t.Fatalf("FetchLots error: %v", err)
	}
	if code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", code, http.StatusOK)
	}
	if retry != 0 {
		t.Fatalf("retryAfter = %v, want 0", retry)
	}
	if len(lots) != 1 || lots[0].Name != "Pat Cummins" || lots[0].BasePrice != 1_900_000 {
		t.Fatalf("unexpected lots: %+v", lots)
	}
}

func TestFetchLots_TooManyRequests(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	lots, code, retry, err := client.FetchLots(context.Background())
	if err != nil {
		t.Fatalf("FetchLots error: %v", err)
	}
	if lots != nil {
		t.Fatalf("expected nil lots for 429, got %+v", lots)
	}
	if code != http.StatusTooManyRequests {
		t.Fatalf("status code = %d, want %d", code, http.StatusTooManyRequests)
	}
	if retry < 5*time.Second {
		t.Fatalf("retryAfter = %v, want at least 5s", retry)
	}
}

func TestFetchLots_UnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, code, _, err := NewClient(ts.URL).FetchLots(context.Background())
	if err == nil {
		t.Fatalf("expected error for 500")
	}
	if code != http.StatusInternalServerError {
		t.Fatalf("status code = %d, want %d", code, http.StatusInternalServerError)
	}
}

func TestFetchLots_NotConfigured(t *testing.T) {
	var c *Client
	if _, _, _, err := c.FetchLots(context.Background()); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
