package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newFakeNewsAPI(t *testing.T, articles string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(everythingPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apiKey") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","articles":%s}`, articles)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchScoresAndSorts(t *testing.T) {
	articles := `[
		{"source":{"name":"Reuters"},"title":"RELIANCE quarterly results beat estimates","description":"Profit surge on revenue growth","url":"https://example.com/1","publishedAt":"2026-08-20T10:00:00Z"},
		{"source":{"name":"Some Blog"},"title":"Markets open flat","description":"Nothing much happened","url":"https://example.com/2","publishedAt":"2026-08-21T10:00:00Z"},
		{"source":{"name":"Bloomberg"},"title":"Oil prices slip","description":"Crude decline weighs on energy loss","url":"https://example.com/3","publishedAt":"2026-08-22T10:00:00Z"}
	]`
	srv := newFakeNewsAPI(t, articles)
	client := NewClient("test-key", WithBaseURL(srv.URL))

	items, err := client.Fetch(context.Background(), "RELIANCE.NS")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	// The blog article scores 0 and is dropped.
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	top := items[0]
	// Reuters (+2) + symbol in title (+3) + quarterly, results, profit,
	// revenue keywords (+4) puts the first article well past the high bar.
	if top.Impact != "high" {
		t.Errorf("expected high impact, got %s", top.Impact)
	}
	if top.Sentiment != "positive" {
		t.Errorf("expected positive sentiment, got %s", top.Sentiment)
	}
	if top.Date != "2026-08-20" {
		t.Errorf("expected formatted date, got %s", top.Date)
	}

	// Bloomberg (+2) with no keywords lands at medium.
	if items[1].Impact != "medium" {
		t.Errorf("expected medium impact, got %s", items[1].Impact)
	}
	if items[1].Sentiment != "negative" {
		t.Errorf("expected negative sentiment, got %s", items[1].Sentiment)
	}
}

func TestFetchCapsAtFive(t *testing.T) {
	articles := "["
	for i := 0; i < 8; i++ {
		if i > 0 {
			articles += ","
		}
		articles += fmt.Sprintf(`{"source":{"name":"Reuters"},"title":"TCS earnings update %d","description":"results","url":"https://example.com/%d","publishedAt":"2026-08-1%dT10:00:00Z"}`, i, i, i)
	}
	articles += "]"
	srv := newFakeNewsAPI(t, articles)
	client := NewClient("test-key", WithBaseURL(srv.URL))

	items, err := client.Fetch(context.Background(), "TCS")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 5 {
		t.Errorf("expected cap of 5 items, got %d", len(items))
	}
}

func TestFetchUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	if _, err := client.Fetch(context.Background(), "INFY"); err == nil {
		t.Fatal("expected error on upstream failure")
	}
}

func TestSentiment(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"profit surge on growth", "positive"},
		{"crash and decline drag shares down", "negative"},
		{"shares rise then fall", "neutral"},
		{"board meeting scheduled", "neutral"},
	}
	for _, tt := range tests {
		if got := sentiment(tt.text); got != tt.want {
			t.Errorf("sentiment(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestLoadAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	if err := os.WriteFile(path, []byte("WIPRO: Wipro Limited\nTCS.NS: Tata Consultancy\n"), 0o644); err != nil {
		t.Fatalf("failed to write alias file: %v", err)
	}

	aliases, err := LoadAliases(path)
	if err != nil {
		t.Fatalf("LoadAliases failed: %v", err)
	}
	if aliases["WIPRO"] != "Wipro Limited" {
		t.Errorf("expected file alias, got %q", aliases["WIPRO"])
	}
	if aliases["TCS"] != "Tata Consultancy" {
		t.Errorf("expected suffix-stripped override, got %q", aliases["TCS"])
	}
	if aliases["RELIANCE"] != "Reliance Industries" {
		t.Errorf("expected default alias preserved, got %q", aliases["RELIANCE"])
	}
}

func TestCleanSymbol(t *testing.T) {
	tests := []struct{ in, want string }{
		{"reliance.ns", "RELIANCE"},
		{"TCS.NSE", "TCS"},
		{"INFY", "INFY"},
	}
	for _, tt := range tests {
		if got := cleanSymbol(tt.in); got != tt.want {
			t.Errorf("cleanSymbol(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
