package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"dineadmin/internal/auth"
	"dineadmin/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.uptime).String(),
	})
}

// handleReady checks that the store answers a cheap read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if _, err := s.admin.Settings(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["cache"] = map[string]any{
		"monthly_entries": s.monthly.Size(),
		"yearly_entries":  s.yearly.Size(),
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
	}
	checks["live"] = map[string]any{
		"subscribers": s.hub.Subscribers(),
	}

	NewJSONResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	exports := atomic.LoadInt64(&s.metrics.exports)
	invalidations := atomic.LoadInt64(&s.metrics.invalidations)
	liveClients := atomic.LoadInt64(&s.metrics.liveClients)
	uptime := time.Since(s.metrics.uptime)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP report_exports_total Spreadsheet exports served\n")
	fmt.Fprintf(w, "# TYPE report_exports_total counter\n")
	fmt.Fprintf(w, "report_exports_total %d\n\n", exports)

	fmt.Fprintf(w, "# HELP report_cache_invalidations_total Order changes that dropped the report caches\n")
	fmt.Fprintf(w, "# TYPE report_cache_invalidations_total counter\n")
	fmt.Fprintf(w, "report_cache_invalidations_total %d\n\n", invalidations)

	fmt.Fprintf(w, "# HELP cache_entries Current cache entries\n")
	fmt.Fprintf(w, "# TYPE cache_entries gauge\n")
	fmt.Fprintf(w, "cache_entries{type=\"monthly\"} %d\n", s.monthly.Size())
	fmt.Fprintf(w, "cache_entries{type=\"yearly\"} %d\n\n", s.yearly.Size())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", s.limiter.Limited())

	fmt.Fprintf(w, "# HELP live_clients Connected live update clients\n")
	fmt.Fprintf(w, "# TYPE live_clients gauge\n")
	fmt.Fprintf(w, "live_clients %d\n\n", liveClients)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, log.OpLogin, err)
		return
	}
	email, password := p.Get("email"), p.GetSecret("password")
	if email == "" || password == "" {
		BadRequestError("email and password are required").Write(w)
		return
	}

	sess, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, r, log.OpLogin, err)
		return
	}
	auth.SetCookie(w, r, sess, s.sessionTTL)
	writeJSON(w, sessionView{Name: sess.Name, Email: sess.Email, Role: string(sess.Role)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := auth.SessionFromContext(r.Context()); ok {
		s.auth.Logout(sess.ID)
	}
	auth.ClearCookie(w, r)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	writeJSON(w, sessionView{Name: sess.Name, Email: sess.Email, Role: string(sess.Role)})
}
