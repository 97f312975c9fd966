package server

import (
	"context"
	"net/http"
	"time"

	"stockpulse/internal/cache"
	"stockpulse/internal/config"
	"stockpulse/internal/logging"
	"stockpulse/internal/market"
	"stockpulse/internal/news"
)

// historyCacheTTL keeps exchange responses warm long enough to absorb
// repeated chart and analysis calls for the same range.
const historyCacheTTL = 5 * time.Minute

// newsCacheTTL is longer because headlines change slowly and the upstream
// API is rate limited.
const newsCacheTTL = 15 * time.Minute

// HistoryFetcher supplies historical candles for a symbol.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]market.Candle, error)
}

// NewsFetcher supplies scored headlines for a symbol.
type NewsFetcher interface {
	Fetch(ctx context.Context, symbol string) ([]news.Item, error)
}

// ReportQueue accepts report job IDs for background processing.
type ReportQueue interface {
	Enqueue(jobID string)
}

// Server represents the HTTP API server.
type Server struct {
	config       *config.Config
	fetcher      HistoryFetcher
	newsClient   NewsFetcher
	reportQueue  ReportQueue
	mailEnabled  bool
	historyCache *cache.Cache[[]market.Candle]
	newsCache    *cache.Cache[[]news.Item]
	httpServer   *http.Server
}

// Options carries the collaborators the server needs.
type Options struct {
	Fetcher     HistoryFetcher
	NewsClient  NewsFetcher
	ReportQueue ReportQueue
	MailEnabled bool
}

// New creates a new server instance.
func New(cfg *config.Config, opts Options) *Server {
	return &Server{
		config:       cfg,
		fetcher:      opts.Fetcher,
		newsClient:   opts.NewsClient,
		reportQueue:  opts.ReportQueue,
		mailEnabled:  opts.MailEnabled,
		historyCache: cache.New[[]market.Candle](historyCacheTTL),
		newsCache:    cache.New[[]news.Item](newsCacheTTL),
	}
}

// Handler builds the route table wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/auth/register", s.handleRegister)
	mux.HandleFunc("/auth/access-token", s.handleAccessToken)
	mux.HandleFunc("/auth/refresh-token", s.handleRefreshToken)

	// Protected routes
	mux.HandleFunc("/users/me", s.AuthRequiredMiddleware(s.handleCurrentUser))
	mux.HandleFunc("/users/reset-password", s.AuthRequiredMiddleware(s.handleResetPassword))
	mux.HandleFunc("/stocks/", s.AuthRequiredMiddleware(s.handleStockHistory))
	mux.HandleFunc("/analysis/technical/", s.AuthRequiredMiddleware(s.handleTechnicalAnalysis))
	mux.HandleFunc("/charts/plot/", s.AuthRequiredMiddleware(s.handleChartPlot))
	mux.HandleFunc("/news/", s.AuthRequiredMiddleware(s.handleNews))
	mux.HandleFunc("/reports/send-analysis", s.AuthRequiredMiddleware(s.handleSendAnalysis))
	mux.HandleFunc("/reports/status/", s.AuthRequiredMiddleware(s.handleReportStatus))
	mux.HandleFunc("/api/system-vitals", s.AuthRequiredMiddleware(s.handleSystemVitals))

	var handler http.Handler = mux
	handler = s.MemoryMonitorMiddleware(handler)
	handler = s.CORSMiddleware(handler)
	handler = s.TrustedHostMiddleware(handler)
	return handler
}

// Start begins listening on addr. It blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Printf("Starting server on %s", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the listener and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.historyCache.Stop()
	s.newsCache.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
