// Package stocks proxies and caches daily stock-market time series.
package stocks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Bar is one daily price sample.
type Bar struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adjClose"`
	Volume   int64   `json:"volume"`
}

// Series is a full daily history for one ticker.
type Series struct {
	Ticker    string `json:"ticker"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Bars      []Bar  `json:"bars"`
}

// HistoryProvider fetches a ticker's full daily history from an external
// market-data source.
type HistoryProvider interface {
	History(ctx context.Context, ticker string) (*Series, error)
}

// YahooClient fetches daily series from the Yahoo Finance chart API.
type YahooClient struct {
	baseURL string
	client  *http.Client
}

// NewYahooClient creates a provider client. An empty baseURL uses the public
// endpoint.
func NewYahooClient(baseURL string, timeout time.Duration) *YahooClient {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &YahooClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches the ticker's daily bars from its first trade to today.
func (c *YahooClient) History(ctx context.Context, ticker string) (*Series, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=max&events=history",
		c.baseURL, url.PathEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	// the chart endpoint rejects Go's default user agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; bookrag/1.0)")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching history for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out chartResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decoding chart response: %w", err)
	}
	if out.Chart.Error != nil {
		return nil, fmt.Errorf("provider error for %s: %s", ticker, out.Chart.Error.Description)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching history for %s: %s", ticker, resp.Status)
	}
	if len(out.Chart.Result) == 0 {
		return nil, fmt.Errorf("no history returned for %s", ticker)
	}

	result := out.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data returned for %s", ticker)
	}
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	series := &Series{Ticker: strings.ToUpper(ticker)}
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := Bar{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bar.AdjClose = bar.Close
		if i < len(adj) && adj[i] != nil {
			bar.AdjClose = *adj[i]
		}
		series.Bars = append(series.Bars, bar)
	}
	if len(series.Bars) == 0 {
		return nil, fmt.Errorf("no usable bars returned for %s", ticker)
	}
	series.StartDate = series.Bars[0].Date
	series.EndDate = series.Bars[len(series.Bars)-1].Date
	return series, nil
}
