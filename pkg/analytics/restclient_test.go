package analytics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"livechart/internal/series"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "AAPL" {
			http.Error(w, `{"detail":"unknown symbol"}`, http.StatusNotFound)
			return
		}
		w.Write([]byte(`[
			{"Date":"2024-05-31","Open":190,"High":192,"Low":189,"Close":191,"Adj Close":190.8,"Volume":1000},
			{"Date":"2024-06-01","Open":191,"High":193,"Low":190,"Close":192.5,"Adj Close":192.3,"Volume":1200}
		]`))
	})
	mux.HandleFunc("/analytics/sma", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"` + r.URL.Query().Get("symbol") + `","strategy":"sma","timestamp":"2024-06-01T20:00:00Z",
			"result":{"dates":["2024-06-01"],"prices":[192.5],"sma":[189],"upper_band":[191],"lower_band":[187],"signal":["buy"]}}`))
	})
	mux.HandleFunc("/analytics/broken", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"AAPL","strategy":"broken","result":{"dates":["2024-06-01"],"sma":[1,2]}}`))
	})
	mux.HandleFunc("/symbols", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"label":"Apple","value":"AAPL"},{"label":"Microsoft","value":"MSFT"}]`))
	})
	mux.HandleFunc("/strategies", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"label":"Simple moving average","value":"sma"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// go test -v --run TestGetHistory
func TestGetHistory(t *testing.T) {
	srv := newTestServer(t)
	client := NewRESTClient(srv.URL+"/", 5*time.Second)

	got, err := client.GetHistory(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetHistory returned error: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("expected 2 bars, got %d", got.Len())
	}
	last, _ := got.Last()
	if last.Date != "2024-06-01" || last.AdjClose != 192.3 || last.Volume != 1200 {
		t.Errorf("unexpected last bar: %+v", last)
	}
}

// go test -v --run TestGetHistoryStatusError
func TestGetHistoryStatusError(t *testing.T) {
	srv := newTestServer(t)
	client := NewRESTClient(srv.URL, 5*time.Second)

	_, err := client.GetHistory(context.Background(), "NOPE")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", te.StatusCode)
	}
}

// go test -v --run TestGetHistoryUnreachable
func TestGetHistoryUnreachable(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL
	srv.Close()

	_, err := NewRESTClient(url, time.Second).GetHistory(context.Background(), "AAPL")
	var te *TransportError
	if !errors.As(err, &te) || te.StatusCode != 0 {
		t.Fatalf("expected transport failure, got %v", err)
	}
}

// go test -v --run TestGetAnalytics
func TestGetAnalytics(t *testing.T) {
	srv := newTestServer(t)
	client := NewRESTClient(srv.URL, 5*time.Second)

	got, err := client.GetAnalytics(context.Background(), "sma", "MSFT")
	if err != nil {
		t.Fatalf("GetAnalytics returned error: %v", err)
	}
	if got.Symbol != "MSFT" || got.Strategy != "sma" || got.Len() != 1 {
		t.Fatalf("unexpected series: %+v", got)
	}
	p, _ := got.Last()
	if v, _ := p.Value("price"); v != 192.5 || p.Signal != "buy" {
		t.Errorf("unexpected point: %+v", p)
	}

	_, err = client.GetAnalytics(context.Background(), "broken", "AAPL")
	if !series.IsParseError(err) {
		t.Errorf("expected ParseError for ragged columns, got %v", err)
	}
}

// go test -v --run TestGetCatalog
func TestGetCatalog(t *testing.T) {
	srv := newTestServer(t)
	client := NewRESTClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	symbols, err := client.GetSymbols(ctx)
	if err != nil {
		t.Fatalf("GetSymbols: %v", err)
	}
	if len(symbols) != 2 || symbols[1] != (LabeledItem{Label: "Microsoft", Value: "MSFT"}) {
		t.Errorf("unexpected symbols: %+v", symbols)
	}

	strategies, err := client.GetStrategies(ctx)
	if err != nil {
		t.Fatalf("GetStrategies: %v", err)
	}
	if len(strategies) != 1 || strategies[0].Value != "sma" {
		t.Errorf("unexpected strategies: %+v", strategies)
	}
}
