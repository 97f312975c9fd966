package server

import (
	"net"
	"net/http"
	"strings"

	"stockpulse/internal/database"
	"stockpulse/internal/logging"
	"stockpulse/internal/system"
)

// memoryGrowthThresholdMB triggers a log line when a single request grows
// the process footprint by more than this much.
const memoryGrowthThresholdMB = 50.0

// AuthRequiredMiddleware verifies the bearer token and loads the user into
// the request context.
func (s *Server) AuthRequiredMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			writeError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		userID, err := s.parseAccessToken(strings.TrimPrefix(header, prefix))
		if err != nil {
			writeError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		user, err := database.GetUserByID(userID)
		if err != nil {
			if database.IsNotFound(err) {
				writeError(w, http.StatusUnauthorized, msgInvalidToken)
			} else {
				writeError(w, http.StatusInternalServerError, "Database error")
			}
			return
		}

		next(w, r.WithContext(setUserContext(r.Context(), user)))
	}
}

// TrustedHostMiddleware rejects requests whose Host header is not in the
// configured allow list. An empty list allows any host.
func (s *Server) TrustedHostMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.config.AllowedHosts) > 0 && !s.hostAllowed(r.Host) {
			writeError(w, http.StatusBadRequest, "Invalid host header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) hostAllowed(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	for _, allowed := range s.config.AllowedHosts {
		if allowed == "*" || strings.EqualFold(allowed, host) {
			return true
		}
	}
	return false
}

// CORSMiddleware answers preflight requests and sets the allow-origin
// header for configured origins.
func (s *Server) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.config.CORSOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// MemoryMonitorMiddleware logs requests that grow the process RSS past the
// threshold, which is how runaway handlers get spotted.
func (s *Server) MemoryMonitorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		before, err := system.ProcessRSSMB()
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r)

		after, err := system.ProcessRSSMB()
		if err != nil {
			return
		}
		if growth := after - before; growth > memoryGrowthThresholdMB {
			logging.Warning("Request %s %s grew memory by %.1f MB (%.1f -> %.1f)",
				r.Method, r.URL.Path, growth, before, after)
		}
	})
}
