package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"trading-backend/internal/models"
	"trading-backend/internal/store"
)

// Provider supplies reference prices and close-price history for symbols.
// Implementations return an error wrapping models.ErrUnknownSymbol for
// symbols outside their universe.
type Provider interface {
	ReferencePrice(ctx context.Context, symbol string) (float64, error)
	PriceHistory(ctx context.Context, symbol string) ([]float64, error)
}

const sparklineLen = 20

// ---------------------------------------------------------------------------
// Simulator provider
// ---------------------------------------------------------------------------

// Simulator is a deterministic market-data provider over a fixed universe.
// Each symbol's history is a seeded random walk, so indicator results are
// reproducible across runs. The reference price drifts from the last close.
type Simulator struct {
	mu        sync.Mutex
	histories map[string][]float64
	last      map[string]float64
	rng       *rand.Rand
}

// DefaultUniverse returns base prices for the NSE symbols the simulator
// quotes out of the box.
func DefaultUniverse() map[string]float64 {
	return map[string]float64{
		"NSE:SCOM": 27.45,
		"NSE:KCB":  38.10,
		"NSE:EQTY": 44.25,
		"NSE:EABL": 152.00,
		"NSE:COOP": 15.80,
		"NSE:BAMB": 54.50,
	}
}

// NewSimulator builds a simulator over the given base prices with historyLen
// closes per symbol.
func NewSimulator(universe map[string]float64, historyLen int) *Simulator {
	s := &Simulator{
		histories: make(map[string][]float64, len(universe)),
		last:      make(map[string]float64, len(universe)),
		rng:       rand.New(rand.NewSource(1)),
	}
	for symbol, base := range universe {
		h := fnv.New64a()
		h.Write([]byte(symbol))
		rng := rand.New(rand.NewSource(int64(h.Sum64())))

		closes := make([]float64, historyLen)
		price := base
		for i := range closes {
			// Daily move within roughly ±1.5%.
			price *= 1 + (rng.Float64()*3-1.5)/100
			closes[i] = price
		}
		s.histories[symbol] = closes
		if historyLen > 0 {
			s.last[symbol] = closes[historyLen-1]
		} else {
			s.last[symbol] = base
		}
	}
	return s
}

// ReferencePrice returns the drifting current price for a known symbol.
func (s *Simulator) ReferencePrice(_ context.Context, symbol string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, ok := s.last[symbol]
	if !ok {
		return 0, &models.UnknownSymbolError{Symbol: symbol}
	}
	price *= 1 + (s.rng.Float64()*1-0.5)/100
	s.last[symbol] = price
	return price, nil
}

// PriceHistory returns a copy of the symbol's close series, oldest first.
func (s *Simulator) PriceHistory(_ context.Context, symbol string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	closes, ok := s.histories[symbol]
	if !ok {
		return nil, &models.UnknownSymbolError{Symbol: symbol}
	}
	out := make([]float64, len(closes))
	copy(out, closes)
	return out, nil
}

// ---------------------------------------------------------------------------
// HTTP provider
// ---------------------------------------------------------------------------

// HTTPProvider fetches quotes and history from an external market-data API.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider creates a provider against the given API base URL. The
// client timeout is a transport-level bound; the service applies the
// per-call quote timeout on top.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type quoteResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type historyResponse struct {
	Symbol string    `json:"symbol"`
	Closes []float64 `json:"closes"`
}

// ReferencePrice fetches the current quote for the symbol.
func (p *HTTPProvider) ReferencePrice(ctx context.Context, symbol string) (float64, error) {
	var qr quoteResponse
	if err := p.get(ctx, "/quote", symbol, &qr); err != nil {
		return 0, err
	}
	if qr.Price == "" {
		return 0, &models.UnknownSymbolError{Symbol: symbol}
	}
	price, err := strconv.ParseFloat(qr.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", qr.Price, err)
	}
	return price, nil
}

// PriceHistory fetches the daily close series for the symbol, oldest first.
func (p *HTTPProvider) PriceHistory(ctx context.Context, symbol string) ([]float64, error) {
	var hr historyResponse
	if err := p.get(ctx, "/history", symbol, &hr); err != nil {
		return nil, err
	}
	if len(hr.Closes) == 0 {
		return nil, &models.UnknownSymbolError{Symbol: symbol}
	}
	return hr.Closes, nil
}

func (p *HTTPProvider) get(ctx context.Context, path, symbol string, out any) error {
	u := fmt.Sprintf("%s%s?symbol=%s&apikey=%s",
		p.baseURL, path, url.QueryEscape(symbol), url.QueryEscape(p.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("market data request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &models.UnknownSymbolError{Symbol: symbol}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("market data status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read market data response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse market data response: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// MarketDataService fronts a Provider with a bounded per-call timeout and an
// optional SQLite candle cache used as a read-through fallback when the
// provider is unreachable. Failed provider calls are never retried; the
// error surfaces to the caller synchronously.
type MarketDataService struct {
	provider Provider
	cache    *store.CandleStore
	timeout  time.Duration
	logger   *slog.Logger
}

// NewMarketDataService wires the service. cache may be nil.
func NewMarketDataService(provider Provider, cache *store.CandleStore, timeout time.Duration, logger *slog.Logger) *MarketDataService {
	return &MarketDataService{
		provider: provider,
		cache:    cache,
		timeout:  timeout,
		logger:   logger,
	}
}

// ReferencePrice returns the current price under the configured timeout.
// Unknown symbols pass through; any other failure becomes a
// MarketDataUnavailableError.
func (s *MarketDataService) ReferencePrice(ctx context.Context, symbol string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	price, err := s.provider.ReferencePrice(ctx, symbol)
	if err != nil {
		if errors.Is(err, models.ErrUnknownSymbol) {
			return 0, err
		}
		return 0, &models.MarketDataUnavailableError{Symbol: symbol, Err: err}
	}
	return price, nil
}

// History returns the close series for a symbol, oldest first. Successful
// fetches refresh the cache; on provider failure the cached series is served
// if present.
func (s *MarketDataService) History(ctx context.Context, symbol string) ([]float64, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	closes, err := s.provider.PriceHistory(fetchCtx, symbol)
	if err == nil {
		if s.cache != nil {
			if cerr := s.cache.ReplaceSeries(ctx, symbol, closes); cerr != nil {
				s.logger.Warn("candle cache write failed", "symbol", symbol, "err", cerr)
			}
		}
		return closes, nil
	}

	if errors.Is(err, models.ErrUnknownSymbol) {
		return nil, err
	}

	if s.cache != nil {
		cached, cerr := s.cache.ReadSeries(ctx, symbol)
		if cerr == nil && len(cached) > 0 {
			s.logger.Warn("serving cached history", "symbol", symbol, "err", err)
			return cached, nil
		}
	}
	return nil, &models.MarketDataUnavailableError{Symbol: symbol, Err: err}
}

// Quote returns the current price with a close-price sparkline.
func (s *MarketDataService) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	price, err := s.ReferencePrice(ctx, symbol)
	if err != nil {
		return models.Quote{}, err
	}
	closes, err := s.History(ctx, symbol)
	if err != nil {
		return models.Quote{}, err
	}

	spark := closes
	if len(spark) > sparklineLen {
		spark = spark[len(spark)-sparklineLen:]
	}

	return models.Quote{
		Symbol:    symbol,
		Price:     price,
		Sparkline: spark,
		Timestamp: time.Now(),
	}, nil
}

// WarmUp prefetches history for the given symbols concurrently, populating
// the cache before the server starts taking traffic. Individual symbol
// failures are logged and skipped.
func (s *MarketDataService) WarmUp(ctx context.Context, symbols []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			if _, err := s.History(gctx, symbol); err != nil {
				s.logger.Warn("warm-up fetch failed", "symbol", symbol, "err", err)
			}
			return nil
		})
	}
	return g.Wait()
}
