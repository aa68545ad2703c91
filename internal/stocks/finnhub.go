package stocks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"bookrag/internal/domain"
)

// FinnhubClient proxies symbol search to the Finnhub REST API.
type FinnhubClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewFinnhubClient creates a search client. The API key is read from the
// named env var; an empty key only fails once a search is attempted.
func NewFinnhubClient(baseURL, apiKeyEnv string, timeout time.Duration) *FinnhubClient {
	if baseURL == "" {
		baseURL = "https://finnhub.io/api/v1"
	}
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &FinnhubClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  os.Getenv(apiKeyEnv),
		client:  &http.Client{Timeout: timeout},
	}
}

// Search looks up instruments matching q and returns the provider payload
// verbatim.
func (c *FinnhubClient) Search(ctx context.Context, q string) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: finnhub key", domain.ErrNotConfigured)
	}
	endpoint := fmt.Sprintf("%s/search?q=%s&token=%s", c.baseURL, url.QueryEscape(q), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching symbols: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("searching symbols: %s", resp.Status)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(payload), nil
}
