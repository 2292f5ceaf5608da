package kalshi

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/prediction-data/internal/model"
	"github.com/rickgao/prediction-data/internal/source"
)

func testClient() *source.Client {
	return source.NewClient(
		source.WithTimeout(5*time.Second),
		source.WithRetryPolicy(source.RetryPolicy{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			Multiplier:   2,
			MaxDelay:     5 * time.Millisecond,
		}),
	)
}

func newTestAdapter(serverURL string) *Adapter {
	return New(Config{
		BaseURL:      serverURL,
		SeriesTicker: "KXNBAMVP",
		Status:       "open",
	}, testClient(), nil)
}

func TestFetch_Normalization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("series_ticker"); got != "KXNBAMVP" {
			t.Errorf("series_ticker = %q, want %q", got, "KXNBAMVP")
		}
		if got := r.URL.Query().Get("status"); got != "open" {
			t.Errorf("status = %q, want %q", got, "open")
		}
		w.Write([]byte(`{"markets": [
			{"ticker": "KXNBAMVP-SGIL", "title": "NBA MVP?", "yes_sub_title": "Shai Gilgeous-Alexander",
			 "yes_ask": 60, "yes_bid": 40, "volume": 120, "liquidity": 5000}
		]}`))
	}))
	defer server.Close()

	snaps, err := newTestAdapter(server.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("len(snaps) = %d, want 1", len(snaps))
	}

	s := snaps[0]
	if s.Source != model.SourceKalshi {
		t.Errorf("Source = %q, want %q", s.Source, model.SourceKalshi)
	}
	if s.MarketID != "KXNBAMVP-SGIL" {
		t.Errorf("MarketID = %q, want %q", s.MarketID, "KXNBAMVP-SGIL")
	}
	if s.Title != "NBA MVP?" {
		t.Errorf("Title = %q, want %q", s.Title, "NBA MVP?")
	}
	if s.Outcome != "Shai Gilgeous-Alexander" {
		t.Errorf("Outcome = %q, want %q", s.Outcome, "Shai Gilgeous-Alexander")
	}
	if s.Price != 0.5 {
		t.Errorf("Price = %v, want 0.5", s.Price)
	}
	if s.Volume != 120.0 {
		t.Errorf("Volume = %v, want 120.0", s.Volume)
	}
	if !s.Timestamp.IsZero() {
		t.Errorf("Timestamp = %v, want zero (set at persistence)", s.Timestamp)
	}
}

func TestNormalize_QuoteDefaults(t *testing.T) {
	intp := func(v int) *int { return &v }

	tests := []struct {
		name      string
		ask, bid  *int
		wantPrice float64
	}{
		{name: "both present", ask: intp(60), bid: intp(40), wantPrice: 0.5},
		{name: "missing ask defaults to 100", ask: nil, bid: intp(40), wantPrice: 0.7},
		{name: "missing bid defaults to 0", ask: intp(60), bid: nil, wantPrice: 0.3},
		{name: "both missing", ask: nil, bid: nil, wantPrice: 0.5},
		{name: "zero bid is kept", ask: intp(10), bid: intp(0), wantPrice: 0.05},
		{name: "extremes", ask: intp(100), bid: intp(100), wantPrice: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := normalize(apiMarket{Ticker: "T", YesAsk: tt.ask, YesBid: tt.bid})
			if math.Abs(s.Price-tt.wantPrice) > 1e-9 {
				t.Errorf("Price = %v, want %v", s.Price, tt.wantPrice)
			}
			if s.Price < 0 || s.Price > 1 {
				t.Errorf("Price = %v, outside [0,1]", s.Price)
			}
		})
	}
}

func TestFetch_SkipsMarketsWithoutTicker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"markets": [
			{"title": "No ticker", "yes_ask": 50, "yes_bid": 50},
			{"ticker": "OK-1", "title": "Valid", "yes_ask": 50, "yes_bid": 50}
		]}`))
	}))
	defer server.Close()

	snaps, err := newTestAdapter(server.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("len(snaps) = %d, want 1", len(snaps))
	}
	if snaps[0].MarketID != "OK-1" {
		t.Errorf("MarketID = %q, want %q", snaps[0].MarketID, "OK-1")
	}
}

func TestFetch_NotFoundYieldsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	snaps, err := newTestAdapter(server.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error for 404: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("len(snaps) = %d, want 0", len(snaps))
	}
}

func TestFetch_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"markets": [{"ticker": "OK-1", "yes_ask": 50, "yes_bid": 50}]}`))
	}))
	defer server.Close()

	snaps, err := newTestAdapter(server.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(snaps) != 1 {
		t.Errorf("len(snaps) = %d, want 1", len(snaps))
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestFetch_ExhaustedRetriesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := newTestAdapter(server.URL).Fetch(context.Background()); err == nil {
		t.Fatal("Fetch succeeded, want error after exhausted retries")
	}
}
