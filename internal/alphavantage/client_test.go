package alphavantage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func moversJSON(count int) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"ticker": "T%d", "price": "10.%d", "change_amount": "1.0", "change_percentage": "10.0%%", "volume": "1000"}`, i, i)
	}
	return b.String()
}

func TestFetchTrimsBuckets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("function") != "TOP_GAINERS_LOSERS" {
			t.Errorf("function = %s", r.URL.Query().Get("function"))
		}
		if r.URL.Query().Get("apikey") != "demo" {
			t.Errorf("missing apikey")
		}
		fmt.Fprintf(w, `{
			"last_updated": "2025-01-08 16:15:59 US/Eastern",
			"top_gainers": [%s],
			"top_losers": [%s],
			"most_actively_traded": [%s]
		}`, moversJSON(20), moversJSON(3), moversJSON(20))
	}))
	defer server.Close()

	client := NewClient("demo", WithBaseURL(server.URL))

	snapshot, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(snapshot.TopGainers) != 5 {
		t.Errorf("TopGainers = %d entries, want 5", len(snapshot.TopGainers))
	}
	if len(snapshot.TopLosers) != 3 {
		t.Errorf("TopLosers = %d entries, want 3", len(snapshot.TopLosers))
	}
	if len(snapshot.MostActivelyTraded) != 5 {
		t.Errorf("MostActivelyTraded = %d entries, want 5", len(snapshot.MostActivelyTraded))
	}
	if snapshot.TopGainers[0].Ticker != "T0" {
		t.Errorf("TopGainers[0].Ticker = %s", snapshot.TopGainers[0].Ticker)
	}
	if snapshot.LastUpdated.IsZero() {
		t.Error("LastUpdated not set")
	}
}

func TestFetchThrottled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Rate limiting arrives as a 200 with an Information field
		w.Write([]byte(`{"Information": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`))
	}))
	defer server.Close()

	client := NewClient("demo", WithBaseURL(server.URL))

	if _, err := client.Fetch(context.Background()); err == nil {
		t.Error("expected throttle error")
	}
}
