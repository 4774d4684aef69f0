package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"trading-backend/internal/models"
	"trading-backend/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingProvider errors on every call, simulating an unreachable upstream.
type failingProvider struct{}

func (failingProvider) ReferencePrice(context.Context, string) (float64, error) {
	return 0, errors.New("connection refused")
}

func (failingProvider) PriceHistory(context.Context, string) ([]float64, error) {
	return nil, errors.New("connection refused")
}

// slowProvider blocks until the context is cancelled.
type slowProvider struct{}

func (slowProvider) ReferencePrice(ctx context.Context, _ string) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (slowProvider) PriceHistory(ctx context.Context, _ string) ([]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSimulatorDeterministicHistory(t *testing.T) {
	ctx := context.Background()
	a := NewSimulator(DefaultUniverse(), 120)
	b := NewSimulator(DefaultUniverse(), 120)

	ha, err := a.PriceHistory(ctx, "NSE:SCOM")
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	hb, _ := b.PriceHistory(ctx, "NSE:SCOM")

	if len(ha) != 120 {
		t.Fatalf("history length = %d, want 120", len(ha))
	}
	for i := range ha {
		if ha[i] != hb[i] {
			t.Fatalf("histories diverge at %d: %v vs %v", i, ha[i], hb[i])
		}
	}
	for _, c := range ha {
		if c <= 0 {
			t.Fatalf("non-positive close %v", c)
		}
	}
}

func TestSimulatorUnknownSymbol(t *testing.T) {
	sim := NewSimulator(DefaultUniverse(), 120)

	if _, err := sim.ReferencePrice(context.Background(), "NSE:NOPE"); !errors.Is(err, models.ErrUnknownSymbol) {
		t.Errorf("ReferencePrice err = %v, want ErrUnknownSymbol", err)
	}
	if _, err := sim.PriceHistory(context.Background(), "NSE:NOPE"); !errors.Is(err, models.ErrUnknownSymbol) {
		t.Errorf("PriceHistory err = %v, want ErrUnknownSymbol", err)
	}
}

func TestQuoteSparkline(t *testing.T) {
	svc := NewMarketDataService(NewSimulator(DefaultUniverse(), 120), nil, time.Second, discardLogger())

	quote, err := svc.Quote(context.Background(), "NSE:KCB")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.Symbol != "NSE:KCB" {
		t.Errorf("symbol = %q", quote.Symbol)
	}
	if len(quote.Sparkline) <= 5 {
		t.Errorf("sparkline length = %d, want > 5", len(quote.Sparkline))
	}
	if len(quote.Sparkline) > sparklineLen {
		t.Errorf("sparkline length = %d, want <= %d", len(quote.Sparkline), sparklineLen)
	}
	if quote.Price <= 0 {
		t.Errorf("price = %v, want > 0", quote.Price)
	}
}

func TestReferencePriceTimeout(t *testing.T) {
	svc := NewMarketDataService(slowProvider{}, nil, 20*time.Millisecond, discardLogger())

	_, err := svc.ReferencePrice(context.Background(), "NSE:SCOM")
	var unavailable *models.MarketDataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want MarketDataUnavailableError", err)
	}
}

func TestHistoryCacheFallback(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "candles.db")
	cache, err := store.NewCandleStore(dbPath)
	if err != nil {
		t.Fatalf("NewCandleStore: %v", err)
	}
	defer cache.Close()

	// First service fetches from a healthy provider and fills the cache.
	healthy := NewMarketDataService(NewSimulator(DefaultUniverse(), 120), cache, time.Second, discardLogger())
	want, err := healthy.History(ctx, "NSE:EQTY")
	if err != nil {
		t.Fatalf("History (healthy): %v", err)
	}

	// Second service has a dead provider but the same cache.
	degraded := NewMarketDataService(failingProvider{}, cache, time.Second, discardLogger())
	got, err := degraded.History(ctx, "NSE:EQTY")
	if err != nil {
		t.Fatalf("History (cache fallback): %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("cached history length = %d, want %d", len(got), len(want))
	}

	// Uncached symbol with a dead provider surfaces the unavailability.
	_, err = degraded.History(ctx, "NSE:SCOM")
	var unavailable *models.MarketDataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want MarketDataUnavailableError", err)
	}
}

func TestWarmUpPopulatesCache(t *testing.T) {
	ctx := context.Background()
	cache, err := store.NewCandleStore(filepath.Join(t.TempDir(), "candles.db"))
	if err != nil {
		t.Fatalf("NewCandleStore: %v", err)
	}
	defer cache.Close()

	svc := NewMarketDataService(NewSimulator(DefaultUniverse(), 120), cache, time.Second, discardLogger())
	if err := svc.WarmUp(ctx, []string{"NSE:SCOM", "NSE:KCB", "NSE:NOPE"}); err != nil {
		t.Fatalf("WarmUp: %v", err)
	}

	symbols, err := cache.Symbols(ctx)
	if err != nil {
		t.Fatalf("Symbols: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("cached symbols = %v, want the 2 known ones", symbols)
	}
}

func TestHTTPProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		if symbol != "NSE:SCOM" {
			http.NotFound(w, r)
			return
		}
		switch r.URL.Path {
		case "/quote":
			w.Write([]byte(`{"symbol":"NSE:SCOM","price":"27.45"}`))
		case "/history":
			w.Write([]byte(`{"symbol":"NSE:SCOM","closes":[26.9,27.1,27.45]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "test-key", time.Second)
	ctx := context.Background()

	price, err := p.ReferencePrice(ctx, "NSE:SCOM")
	if err != nil {
		t.Fatalf("ReferencePrice: %v", err)
	}
	if price != 27.45 {
		t.Errorf("price = %v, want 27.45", price)
	}

	closes, err := p.PriceHistory(ctx, "NSE:SCOM")
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(closes) != 3 || closes[2] != 27.45 {
		t.Errorf("closes = %v", closes)
	}

	if _, err := p.ReferencePrice(ctx, "NSE:NOPE"); !errors.Is(err, models.ErrUnknownSymbol) {
		t.Errorf("unknown symbol err = %v, want ErrUnknownSymbol", err)
	}
}
