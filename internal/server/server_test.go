package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stockpulse/internal/config"
	"stockpulse/internal/database"
	"stockpulse/internal/market"
	"stockpulse/internal/migrations"
	"stockpulse/internal/news"
)

type fakeFetcher struct {
	candles []market.Candle
	err     error
}

func (f *fakeFetcher) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]market.Candle, error) {
	return f.candles, f.err
}

type fakeNews struct {
	items []news.Item
	err   error
}

func (f *fakeNews) Fetch(ctx context.Context, symbol string) ([]news.Item, error) {
	return f.items, f.err
}

type fakeQueue struct {
	enqueued []string
}

func (f *fakeQueue) Enqueue(jobID string) {
	f.enqueued = append(f.enqueued, jobID)
}

func testCandles(n int) []market.Candle {
	base := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	candles := make([]market.Candle, 0, n)
	for i := 0; i < n; i++ {
		price := 100 + float64(i)
		candles = append(candles, market.Candle{
			Date:   base.AddDate(0, 0, i),
			Symbol: "RELIANCE",
			Open:   price,
			High:   price + 5,
			Low:    price - 5,
			Close:  price + 2,
		})
	}
	return candles
}

type testEnv struct {
	server  *Server
	fetcher *fakeFetcher
	news    *fakeNews
	queue   *fakeQueue
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	if err := database.Initialize(dbPath); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() {
		database.Close() //nolint:errcheck // Test cleanup
	})
	if err := migrations.Run(database.GetDB()); err != nil {
		t.Fatalf("migrations.Run() error = %v", err)
	}

	cfg := &config.Config{
		Profile:                config.LocalProfile,
		Host:                   "127.0.0.1",
		Port:                   8000,
		Workers:                4,
		JWTSecret:              "test-secret",
		JWTIssuer:              "stockpulse-test",
		AccessTokenExpireSecs:  3600,
		RefreshTokenExpireSecs: 86400,
	}

	env := &testEnv{
		fetcher: &fakeFetcher{candles: testCandles(6)},
		news:    &fakeNews{},
		queue:   &fakeQueue{},
	}
	env.server = New(cfg, Options{
		Fetcher:     env.fetcher,
		NewsClient:  env.news,
		ReportQueue: env.queue,
		MailEnabled: true,
	})
	t.Cleanup(func() { env.server.historyCache.Stop() })
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func (e *testEnv) registerAndLogin(t *testing.T, email string) tokenResponse {
	t.Helper()

	creds := fmt.Sprintf(`{"email":%q,"password":"correct horse"}`, email)
	if w := e.do(t, http.MethodPost, "/auth/register", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", w.Code, w.Body.String())
	}
	w := e.do(t, http.MethodPost, "/auth/access-token", "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", w.Code, w.Body.String())
	}
	var pair tokenResponse
	decodeBody(t, w, &pair)
	return pair
}

func TestRegisterValidation(t *testing.T) {
	env := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMsg  string
	}{
		{"valid", `{"email":"a@example.com","password":"long enough"}`, http.StatusCreated, ""},
		{"duplicate email", `{"email":"a@example.com","password":"long enough"}`, http.StatusBadRequest, msgEmailTaken},
		{"missing email", `{"password":"long enough"}`, http.StatusBadRequest, "valid email"},
		{"short password", `{"email":"b@example.com","password":"short"}`, http.StatusBadRequest, "at least 8"},
		{"bad body", `{`, http.StatusBadRequest, msgInvalidRequestBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/auth/register", "", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("got %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantMsg != "" && !strings.Contains(w.Body.String(), tt.wantMsg) {
				t.Errorf("body %q missing %q", w.Body.String(), tt.wantMsg)
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestServer(t)
	env.registerAndLogin(t, "trader@example.com")

	w := env.do(t, http.MethodPost, "/auth/access-token", "", `{"email":"trader@example.com","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: got %d, want 401", w.Code)
	}

	// Unknown accounts get the same message as wrong passwords.
	w = env.do(t, http.MethodPost, "/auth/access-token", "", `{"email":"ghost@example.com","password":"whatever"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unknown email: got %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), msgIncorrectCredentials) {
		t.Errorf("expected %q in body %q", msgIncorrectCredentials, w.Body.String())
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	env := newTestServer(t)
	env.registerAndLogin(t, "trader@example.com")

	if _, err := database.GetDB().Exec("UPDATE users SET is_active = 0 WHERE email = ?", "trader@example.com"); err != nil {
		t.Fatalf("failed to deactivate user: %v", err)
	}

	// Correct password, disabled account: the caller learns the account
	// state, not a generic credentials error.
	w := env.do(t, http.MethodPost, "/auth/access-token", "", `{"email":"trader@example.com","password":"correct horse"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("inactive login: got %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), msgInactiveUser) {
		t.Errorf("expected %q in body %q", msgInactiveUser, w.Body.String())
	}

	// The address stays reserved, so re-registration is refused too.
	w = env.do(t, http.MethodPost, "/auth/register", "", `{"email":"trader@example.com","password":"another pass"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("re-register inactive email: got %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), msgEmailTaken) {
		t.Errorf("expected %q in body %q", msgEmailTaken, w.Body.String())
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	env := newTestServer(t)
	pair := env.registerAndLogin(t, "trader@example.com")

	body := fmt.Sprintf(`{"refresh_token":%q}`, pair.RefreshToken)
	w := env.do(t, http.MethodPost, "/auth/refresh-token", "", body)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh returned %d: %s", w.Code, w.Body.String())
	}
	var next tokenResponse
	decodeBody(t, w, &next)
	if next.RefreshToken == pair.RefreshToken {
		t.Error("expected a new refresh token")
	}

	// Refresh tokens are single use.
	w = env.do(t, http.MethodPost, "/auth/refresh-token", "", body)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("reused refresh token: got %d, want 401", w.Code)
	}
}

func TestCurrentUser(t *testing.T) {
	env := newTestServer(t)
	pair := env.registerAndLogin(t, "trader@example.com")

	if w := env.do(t, http.MethodGet, "/users/me", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/users/me", "not-a-token", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: got %d, want 401", w.Code)
	}

	w := env.do(t, http.MethodGet, "/users/me", pair.AccessToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	var user userResponse
	decodeBody(t, w, &user)
	if user.Email != "trader@example.com" {
		t.Errorf("unexpected email %s", user.Email)
	}
}

func TestDeleteAccount(t *testing.T) {
	env := newTestServer(t)
	pair := env.registerAndLogin(t, "trader@example.com")

	if w := env.do(t, http.MethodDelete, "/users/me", pair.AccessToken, ""); w.Code != http.StatusOK {
		t.Fatalf("delete returned %d: %s", w.Code, w.Body.String())
	}

	// The token no longer resolves to a user.
	if w := env.do(t, http.MethodGet, "/users/me", pair.AccessToken, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("deleted account token: got %d, want 401", w.Code)
	}
}

func TestResetPassword(t *testing.T) {
	env := newTestServer(t)
	pair := env.registerAndLogin(t, "trader@example.com")

	w := env.do(t, http.MethodPost, "/users/reset-password", pair.AccessToken, `{"new_password":"even better pass"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("reset returned %d: %s", w.Code, w.Body.String())
	}

	if w := env.do(t, http.MethodPost, "/auth/access-token", "", `{"email":"trader@example.com","password":"correct horse"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("old password: got %d, want 401", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/auth/access-token", "", `{"email":"trader@example.com","password":"even better pass"}`); w.Code != http.StatusOK {
		t.Errorf("new password: got %d, want 200", w.Code)
	}
}

func TestStockHistory(t *testing.T) {
	env := newTestServer(t)
	pair := env.registerAndLogin(t, "trader@example.com")

	w := env.do(t, http.MethodGet, "/stocks/reliance?period=D", pair.AccessToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Symbol string            `json:"symbol"`
		Count  int               `json:"count"`
		Data   []json.RawMessage `json:"data"`
	}
	decodeBody(t, w, &resp)
	if resp.Symbol != "RELIANCE" {
		t.Errorf("expected uppercased symbol, got %s", resp.Symbol)
	}
	if resp.Count != 6 || len(resp.Data) != 6 {
		t.Errorf("expected 6 candles, got count=%d len=%d", resp.Count, len(resp.Data))
	}

	if w := env.do(t, http.MethodGet, "/stocks/reliance?period=X", pair.AccessToken, ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad period: got %d, want 400", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/stocks/reliance?start_date=01-09-2026&end_date=01-08-2026", pair.AccessToken, ""); w.Code != http.StatusBadRequest {
		t.Errorf("reversed range: got %d, want 400", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/stocks/reliance?start_date=2026-09-01", pair.AccessToken, ""); w.Code != http.StatusBadRequest {
		t.Errorf("wrong date layout: got %d, want 400", w.Code)
	}
}

func TestStockHistoryUpstreamErrors(t *testing.T) {
	env := newTestServer(t)
	pair := env.registerAndLogin(t, "trader@example.com")

	env.fetcher.candles = nil
	if w := env.do(t, http.MethodGet, "/stocks/UNLISTED", pair.AccessToken, ""); w.Code != http.StatusNotFound {
		t.Errorf("empty history: got %d, want 404", w.Code)
	}

	env.fetcher.err = fmt.Errorf("exchange down")
	if w := env.do(t, http.MethodGet, "/stocks/OTHERSYM", pair.AccessToken, ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("fetch error: got %d, want 503", w.Code)
	}
}

func TestTechnicalAnalysis(t *testing.T) {
	env := newTestServer(t)
	pair := env.registerAndLogin(t, "trader@example.com")

	w := env.do(t, http.MethodGet, "/analysis/technical/RELIANCE?period=D", pair.AccessToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Interpretation struct {
			Scenario string `json:"scenario"`
		} `json:"interpretation"`
		Rows []json.RawMessage `json:"rows"`
	}
	decodeBody(t, w, &resp)
	if resp.Interpretation.Scenario == "" {
		t.Error("expected an interpretation scenario")
	}
	if len(resp.Rows) != 6 {
		t.Errorf("expected 6 rows, got %d", len(resp.Rows))
	}
}

func TestChartPlot(t *testing.T) {
	env := newTestServer(t)
	pair := env.registerAndLogin(t, "trader@example.com")

	w := env.do(t, http.MethodGet, "/charts/plot/RELIANCE", pair.AccessToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("unexpected content type %s", ct)
	}
	if !strings.Contains(w.Body.String(), "<svg") {
		t.Error("expected SVG body")
	}
}

func TestNewsEndpoint(t *testing.T) {
	env := newTestServer(t)
	pair := env.registerAndLogin(t, "trader@example.com")

	env.news.items = []news.Item{{Headline: "RELIANCE results", Impact: "high", Sentiment: "positive"}}
	w := env.do(t, http.MethodGet, "/news/RELIANCE", pair.AccessToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "RELIANCE results") {
		t.Error("expected headline in response")
	}

	// A cached symbol keeps serving even when the upstream starts failing.
	env.news.err = fmt.Errorf("rate limited")
	if w := env.do(t, http.MethodGet, "/news/RELIANCE", pair.AccessToken, ""); w.Code != http.StatusOK {
		t.Errorf("cached news: got %d, want 200", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/news/TCS", pair.AccessToken, ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("news error: got %d, want 503", w.Code)
	}
}

func TestSendAnalysisQueuesJob(t *testing.T) {
	env := newTestServer(t)
	pair := env.registerAndLogin(t, "trader@example.com")

	w := env.do(t, http.MethodPost, "/reports/send-analysis", pair.AccessToken,
		`{"symbol":"reliance","period":"W"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		JobID string `json:"job_id"`
	}
	decodeBody(t, w, &resp)
	if len(env.queue.enqueued) != 1 || env.queue.enqueued[0] != resp.JobID {
		t.Errorf("expected job %s enqueued, got %v", resp.JobID, env.queue.enqueued)
	}

	job, err := database.GetReportJob(resp.JobID)
	if err != nil {
		t.Fatalf("GetReportJob() error = %v", err)
	}
	if job.Symbol != "RELIANCE" || job.Recipient != "trader@example.com" {
		t.Errorf("unexpected job %+v", job)
	}

	// Status endpoint reflects the stored job.
	w = env.do(t, http.MethodGet, "/reports/status/"+resp.JobID, pair.AccessToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status returned %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), database.StatusPending) {
		t.Errorf("expected pending status in %s", w.Body.String())
	}

	// Missing jobs and other users' jobs both read as not found.
	if w := env.do(t, http.MethodGet, "/reports/status/no-such-job", pair.AccessToken, ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown job: got %d, want 404", w.Code)
	}
	other := env.registerAndLogin(t, "other@example.com")
	if w := env.do(t, http.MethodGet, "/reports/status/"+resp.JobID, other.AccessToken, ""); w.Code != http.StatusNotFound {
		t.Errorf("foreign job: got %d, want 404", w.Code)
	}
}

func TestSendAnalysisWithMailDisabled(t *testing.T) {
	env := newTestServer(t)
	pair := env.registerAndLogin(t, "trader@example.com")

	env.server.mailEnabled = false
	w := env.do(t, http.MethodPost, "/reports/send-analysis", pair.AccessToken, `{"symbol":"TCS","period":"D"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("got %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), msgEmailDisabled) {
		t.Errorf("expected %q in %s", msgEmailDisabled, w.Body.String())
	}
}

func TestTrustedHostRejection(t *testing.T) {
	env := newTestServer(t)
	env.server.config.AllowedHosts = []string{"api.stockpulse.example"}

	w := env.do(t, http.MethodGet, "http://evil.example/healthz", "", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", w.Code)
	}

	w = env.do(t, http.MethodGet, "http://api.stockpulse.example/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("got %d, want 200", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestServer(t)
	env.server.config.CORSOrigins = []string{"https://app.stockpulse.example"}

	req := httptest.NewRequest(http.MethodOptions, "/stocks/RELIANCE", nil)
	req.Header.Set("Origin", "https://app.stockpulse.example")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("got %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.stockpulse.example" {
		t.Errorf("unexpected allow-origin %q", got)
	}

	// Unknown origins get no CORS headers.
	req = httptest.NewRequest(http.MethodOptions, "/stocks/RELIANCE", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	w = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("expected no allow-origin for unknown origin")
	}
}

func TestPublicEndpoints(t *testing.T) {
	env := newTestServer(t)

	w := env.do(t, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("healthz returned %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/version", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("version returned %d", w.Code)
	}
}

func TestSystemVitalsEndpoint(t *testing.T) {
	env := newTestServer(t)
	pair := env.registerAndLogin(t, "trader@example.com")

	if err := database.StoreSystemVital(12.5, 44.0, 61.2); err != nil {
		t.Fatalf("StoreSystemVital() error = %v", err)
	}

	w := env.do(t, http.MethodGet, "/api/system-vitals", pair.AccessToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Current struct {
			CPUPercent float64 `json:"cpu_percent"`
		} `json:"current"`
	}
	decodeBody(t, w, &resp)
	if resp.Current.CPUPercent != 12.5 {
		t.Errorf("unexpected cpu percent %v", resp.Current.CPUPercent)
	}
}
