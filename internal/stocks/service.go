package stocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"bookrag/internal/domain"
)

// maxSummaryTickers bounds how many cached series feed the textual summary.
const maxSummaryTickers = 8

// CacheService serves price histories from the cache, falling back to the
// provider and upserting what it fetched.
type CacheService struct {
	provider HistoryProvider
	store    domain.StockStore
}

// NewCacheService assembles the cache-or-fetch flow.
func NewCacheService(provider HistoryProvider, store domain.StockStore) *CacheService {
	return &CacheService{provider: provider, store: store}
}

// History returns the series for ticker, preferring the cache unless force
// is set. The second return value reports whether the cache served it.
func (s *CacheService) History(ctx context.Context, ticker string, force bool) (*domain.StockHistory, bool, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, false, errors.New("missing ticker")
	}

	if !force {
		cached, err := s.store.GetHistory(ctx, ticker)
		if err == nil && hasData(cached.Data) {
			return cached, true, nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
	}

	series, err := s.provider.History(ctx, ticker)
	if err != nil {
		return nil, false, err
	}
	data, err := json.Marshal(series.Bars)
	if err != nil {
		return nil, false, err
	}
	h := domain.StockHistory{
		Ticker:    ticker,
		StartDate: series.StartDate,
		EndDate:   series.EndDate,
		Data:      data,
	}
	if err := s.store.UpsertHistory(ctx, h); err != nil {
		return nil, false, err
	}
	return &h, false, nil
}

// Summary builds a short textual digest of the most recently updated cached
// tickers: last close plus an approximate 7-day change. It is fed to the
// generation prompt as stock context.
func (s *CacheService) Summary(ctx context.Context) (string, error) {
	histories, err := s.store.ListHistories(ctx)
	if err != nil {
		return "", err
	}
	if len(histories) == 0 {
		return "No cached stock history available.", nil
	}
	if len(histories) > maxSummaryTickers {
		histories = histories[:maxSummaryTickers]
	}

	parts := make([]string, 0, len(histories))
	for _, h := range histories {
		parts = append(parts, summarizeOne(h))
	}
	return strings.Join(parts, "\n"), nil
}

func summarizeOne(h domain.StockHistory) string {
	var bars []Bar
	if err := json.Unmarshal(h.Data, &bars); err != nil || len(bars) == 0 {
		return fmt.Sprintf("%s: no data", h.Ticker)
	}
	last := bars[len(bars)-1]
	line := fmt.Sprintf("%s: %g on %s", h.Ticker, last.Close, last.Date)

	// ~7 trading days back
	idx := len(bars) - 8
	if idx < 0 {
		idx = 0
	}
	prev := bars[idx]
	if prev.Close != 0 && idx != len(bars)-1 {
		pct := (last.Close - prev.Close) / prev.Close * 100
		line += fmt.Sprintf(" (%.2f%% vs ~7d ago)", pct)
	}
	return line
}

func hasData(data json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(data))
	return trimmed != "" && trimmed != "null" && trimmed != "[]"
}
