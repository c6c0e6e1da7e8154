package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"livechart/internal/series"
)

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 512

type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetHistory fetches the daily bar history of symbol.
func (c *RESTClient) GetHistory(ctx context.Context, symbol string) (*series.RawSeries, error) {
	var out series.RawSeries
	if err := c.get(ctx, "/history", url.Values{"symbol": {symbol}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAnalytics fetches the series computed by strategy for symbol.
func (c *RESTClient) GetAnalytics(ctx context.Context, strategy, symbol string) (*series.DerivedSeries, error) {
	var out series.DerivedSeries
	path := "/analytics/" + url.PathEscape(strategy)
	if err := c.get(ctx, path, url.Values{"symbol": {symbol}}, &out); err != nil {
		return nil, err
	}
	if out.Strategy == "" {
		out.Strategy = strategy
	}
	if out.Symbol == "" {
		out.Symbol = symbol
	}
	return &out, nil
}

// GetSymbols fetches the symbol catalog.
func (c *RESTClient) GetSymbols(ctx context.Context) ([]LabeledItem, error) {
	var out []LabeledItem
	if err := c.get(ctx, "/symbols", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStrategies fetches the strategy catalog.
func (c *RESTClient) GetStrategies(ctx context.Context) ([]LabeledItem, error) {
	var out []LabeledItem
	if err := c.get(ctx, "/strategies", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RESTClient) get(ctx context.Context, path string, query url.Values, out any) error {
	op := "GET " + path
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	// Execute the HTTP request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	// Check HTTP status code
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if series.IsParseError(err) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w", op, &series.ParseError{What: "response body", Err: err})
	}
	return nil
}
