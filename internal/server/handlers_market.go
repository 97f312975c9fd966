package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"stockpulse/internal/analysis"
	"stockpulse/internal/charts"
	"stockpulse/internal/logging"
	"stockpulse/internal/market"
)

const (
	// queryDateLayout matches the DD-MM-YYYY format the exchange uses
	queryDateLayout = "02-01-2006"

	// defaultLookbackDays is the history window when the client does not
	// pass an explicit range
	defaultLookbackDays = 90
)

// symbolFromPath extracts the trailing symbol from a route like
// /stocks/{symbol}.
func symbolFromPath(prefix, path string) (string, error) {
	symbol := strings.TrimPrefix(path, prefix)
	symbol = strings.Trim(symbol, "/")
	if symbol == "" || strings.Contains(symbol, "/") {
		return "", fmt.Errorf("missing symbol in path")
	}
	return strings.ToUpper(symbol), nil
}

// parseDateRange reads start_date and end_date query parameters, falling
// back to the last 90 days.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	start := now.AddDate(0, 0, -defaultLookbackDays)
	end := now

	if v := r.URL.Query().Get("start_date"); v != "" {
		parsed, err := time.Parse(queryDateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date %q, expected DD-MM-YYYY", v)
		}
		start = parsed
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		parsed, err := time.Parse(queryDateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date %q, expected DD-MM-YYYY", v)
		}
		end = parsed
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date is before start_date")
	}
	return start, end, nil
}

// fetchHistory serves candles from the cache or the exchange.
func (s *Server) fetchHistory(r *http.Request, symbol string, start, end time.Time) ([]market.Candle, error) {
	key := fmt.Sprintf("%s|%s|%s", symbol, start.Format(queryDateLayout), end.Format(queryDateLayout))
	if candles, ok := s.historyCache.Get(key); ok {
		return candles, nil
	}

	candles, err := s.fetcher.FetchHistory(r.Context(), symbol, start, end)
	if err != nil {
		return nil, err
	}
	s.historyCache.Set(key, candles)
	return candles, nil
}

// handleStockHistory returns resampled OHLC history for a symbol.
func (s *Server) handleStockHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	symbol, err := symbolFromPath("/stocks/", r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	period, err := analysis.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	candles, err := s.fetchHistory(r, symbol, start, end)
	if err != nil {
		logging.Error("History fetch for %s failed: %v", symbol, err)
		writeError(w, http.StatusServiceUnavailable, msgUpstreamUnavailable)
		return
	}
	if len(candles) == 0 {
		writeError(w, http.StatusNotFound, msgSymbolNotFound)
		return
	}

	resampled := analysis.Resample(candles, period)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"period": period.Name(),
		"count":  len(resampled),
		"data":   resampled,
	})
}

// handleTechnicalAnalysis returns candles with projected levels and the
// closing price interpretation for the latest row.
func (s *Server) handleTechnicalAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	symbol, err := symbolFromPath("/analysis/technical/", r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	period, err := analysis.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	candles, err := s.fetchHistory(r, symbol, start, end)
	if err != nil {
		logging.Error("History fetch for %s failed: %v", symbol, err)
		writeError(w, http.StatusServiceUnavailable, msgUpstreamUnavailable)
		return
	}
	if len(candles) == 0 {
		writeError(w, http.StatusNotFound, msgSymbolNotFound)
		return
	}

	rows := analysis.CalculateLevels(analysis.Resample(candles, period))
	last := rows[len(rows)-1]

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":         symbol,
		"period":         period.Name(),
		"rows":           rows,
		"interpretation": analysis.Interpret(last.Close, last.Levels),
		"level_guide":    analysis.LevelDescriptions,
	})
}

// handleChartPlot renders the candlestick chart as SVG.
func (s *Server) handleChartPlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	symbol, err := symbolFromPath("/charts/plot/", r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	period, err := analysis.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	candles, err := s.fetchHistory(r, symbol, start, end)
	if err != nil {
		logging.Error("History fetch for %s failed: %v", symbol, err)
		writeError(w, http.StatusServiceUnavailable, msgUpstreamUnavailable)
		return
	}
	if len(candles) == 0 {
		writeError(w, http.StatusNotFound, msgSymbolNotFound)
		return
	}

	rows := analysis.CalculateLevels(analysis.Resample(candles, period))
	title := fmt.Sprintf("%s %s", symbol, period.Name())

	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := w.Write([]byte(charts.Render(rows, title, charts.DefaultOptions()))); err != nil {
		logging.Error("Failed to write chart response: %v", err)
	}
}
