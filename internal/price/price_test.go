package price

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"solexplorer/internal/cache"
)

type mockSource struct {
	mu    sync.Mutex
	calls int
	err   error
	price float64
}

func (m *mockSource) CoinInfo(ctx context.Context, id string) (CoinInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return CoinInfo{}, m.err
	}
	return CoinInfo{Price: m.price}, nil
}

func (m *mockSource) set(price float64, err error) {
	m.mu.Lock()
	m.price, m.err = price, err
	m.mu.Unlock()
}

func TestClient_CoinInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/solana" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"id":"solana","market_data":{
			"current_price":{"usd":142.5},"total_volume":{"usd":2000000},"market_cap":{"usd":65000000000},
			"price_change_percentage_24h":-1.25,"market_cap_rank":5},
			"last_updated":"2024-05-01T12:00:00.000Z"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	info, err := c.CoinInfo(context.Background(), "solana")
	if err != nil {
		t.Fatalf("CoinInfo: %v", err)
	}
	if info.Price != 142.5 || info.Volume24h != 2000000 || info.MarketCap != 65000000000 ||
		info.PriceChangePercentage24h != -1.25 || info.MarketCapRank != 5 {
		t.Errorf("info = %+v", info)
	}
	if want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC); !info.LastUpdated.Equal(want) {
		t.Errorf("LastUpdated = %v, want %v", info.LastUpdated, want)
	}

	if _, err := c.CoinInfo(context.Background(), "unknown"); err == nil {
		t.Error("expected error for HTTP 404")
	}
}

func TestPoller_RefreshKeepsPreviousEntry(t *testing.T) {
	src := &mockSource{price: 100}
	p := NewPoller(src, DefaultAPIURL, time.Minute, zerolog.Nop())
	defer p.Close()

	var statuses []cache.FetchStatus
	p.Cache().Watch(func(ch cache.Change[CoinInfo]) {
		statuses = append(statuses, ch.Entry.Status)
	})

	p.Fetch(context.Background(), "solana", false)
	src.set(110, nil)
	p.Fetch(context.Background(), "solana", true)

	want := []cache.FetchStatus{cache.Fetching, cache.Fetched, cache.Fetched}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("statuses[%d] = %s, want %s", i, statuses[i], want[i])
		}
	}

	entry, _ := p.Read("solana")
	if entry.Data.Price != 110 {
		t.Errorf("price = %v, want 110", entry.Data.Price)
	}
}

func TestPoller_FailureMarksEntry(t *testing.T) {
	src := &mockSource{err: errors.New("429 too many requests")}
	p := NewPoller(src, DefaultAPIURL, time.Minute, zerolog.Nop())
	defer p.Close()

	p.Fetch(context.Background(), "solana", false)

	entry, ok := p.Read("solana")
	if !ok || entry.Status != cache.FetchFailed || entry.Data != nil {
		t.Errorf("entry = %+v, %v", entry, ok)
	}
}

func TestPoller_Run(t *testing.T) {
	src := &mockSource{price: 1}
	p := NewPoller(src, DefaultAPIURL, 10*time.Millisecond, zerolog.Nop())
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, "solana")
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		src.mu.Lock()
		calls := src.calls
		src.mu.Unlock()
		if calls >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("only %d fetches before deadline", calls)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done

	if entry, _ := p.Read("solana"); entry.Status != cache.Fetched {
		t.Errorf("status = %s, want fetched", entry.Status)
	}
}
