package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"dineadmin/internal/auth"
	"dineadmin/internal/cache"
	"dineadmin/internal/log"
	"dineadmin/internal/middleware/ratelimit"
	"dineadmin/internal/middleware/security"
	"dineadmin/internal/middleware/trace"
	"dineadmin/internal/realtime"
	"dineadmin/internal/report"
	"dineadmin/internal/services"
)

const (
	maxListedOrders     = 500
	reportCacheEntries  = 64
	cacheCleanupEvery   = 10 * time.Minute
	defaultReportTTL    = 5 * time.Minute
	defaultSessionTTL   = 12 * time.Hour
	readyCheckTimeout   = 5 * time.Second
	reportRequestBudget = 30 * time.Second
)

// Deps are the collaborators the API serves from.
type Deps struct {
	Reports *report.Service
	Admin   *services.AdminService
	Auth    *auth.Service
	Hub     *realtime.Hub
	// ClientIP resolves the caller address. Defaults to an IPExtractor
	// trusting only private proxy ranges.
	ClientIP       func(*http.Request) string
	Logger         *log.Logger
	SessionTTL     time.Duration
	ReportCacheTTL time.Duration
	RateLimit      ratelimit.Config
	// Now is the clock for "today" and default report periods.
	Now func() time.Time
}

type Server struct {
	http.Server
	reports  *report.Service
	admin    *services.AdminService
	auth     *auth.Service
	hub      *realtime.Hub
	clientIP func(*http.Request) string
	logger   *log.Logger
	now      func() time.Time

	sessionTTL time.Duration

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	caches  *cache.Manager
	monthly *cache.Loader[report.PeriodReport]
	yearly  *cache.Loader[report.PeriodReport]

	metrics appMetrics

	stopCh       chan struct{}
	watchDone    chan struct{}
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime        time.Time
	exports       int64
	invalidations int64
	liveClients   int64
}

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ClientIP == nil {
		ips, _ := security.NewIPExtractor()
		deps.ClientIP = ips.ClientIP
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = defaultSessionTTL
	}
	if deps.ReportCacheTTL <= 0 {
		deps.ReportCacheTTL = defaultReportTTL
	}

	s := &Server{
		reports:    deps.Reports,
		admin:      deps.Admin,
		auth:       deps.Auth,
		hub:        deps.Hub,
		clientIP:   deps.ClientIP,
		logger:     logger,
		now:        deps.Now,
		sessionTTL: deps.SessionTTL,
		limiter:    ratelimit.NewLimiter(deps.RateLimit, logger),
		tracer:     trace.NewMiddleware(deps.ClientIP, logger),
		caches:     cache.NewManager(logger),
		monthly:    cache.NewLoader[report.PeriodReport](reportCacheEntries, deps.ReportCacheTTL),
		yearly:     cache.NewLoader[report.PeriodReport](reportCacheEntries, deps.ReportCacheTTL),
		metrics:    appMetrics{uptime: time.Now()},
		stopCh:     make(chan struct{}),
		watchDone:  make(chan struct{}),
	}

	s.caches.Register(s.monthly)
	s.caches.Register(s.yearly)
	if s.auth != nil {
		s.caches.Register(s.auth.Sessions())
	}
	s.caches.StartCleanup(cacheCleanupEvery)

	events, cancel := s.hub.Subscribe()
	go s.watchChanges(events, cancel)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /login", s.handleLogin)
	mux.Handle("POST /logout", s.auth.Middleware(http.HandlerFunc(s.handleLogout)))

	api := http.NewServeMux()
	api.HandleFunc("GET /api/me", s.handleMe)
	api.HandleFunc("GET /api/dashboard", s.handleDashboard)
	api.HandleFunc("GET /api/daily", s.handleDaily)
	api.HandleFunc("GET /api/orders", s.handleOrders)
	api.HandleFunc("GET /api/orders/{id}", s.handleOrderDetail)
	api.HandleFunc("GET /api/customers", s.handleCustomers)
	api.HandleFunc("GET /api/reports/monthly", s.handleMonthly)
	api.HandleFunc("GET /api/reports/yearly", s.handleYearly)
	api.HandleFunc("GET /api/reports/monthly/export", s.handleMonthlyExport)
	api.HandleFunc("GET /api/reports/yearly/export", s.handleYearlyExport)
	api.HandleFunc("GET /api/waiters", s.handleWaiters)
	api.HandleFunc("GET /api/menu", s.handleMenu)
	api.HandleFunc("POST /api/menu", s.handleSaveMenuItem)
	api.HandleFunc("GET /api/settings", s.handleSettings)
	api.HandleFunc("POST /api/settings", s.handleSaveSettings)
	mux.Handle("/api/", s.auth.Middleware(security.NoStore(api)))
	mux.Handle("GET /live", s.auth.Middleware(http.HandlerFunc(s.handleLive)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.clientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})

	return s.tracer.Middleware(headers.Middleware(limit(mux)))
}

// watchChanges drops cached period reports whenever orders change. A resync
// event after a change feed reconnect counts as an orders change.
func (s *Server) watchChanges(events <-chan realtime.Event, cancel func()) {
	defer close(s.watchDone)
	defer cancel()
	for {
		select {
		case <-s.stopCh:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !ev.Touches(realtime.TableOrders) {
				continue
			}
			s.monthly.Invalidate()
			s.yearly.Invalidate()
			atomic.AddInt64(&s.metrics.invalidations, 1)
			s.logger.Debug("Report caches invalidated",
				log.FieldTable, ev.Table,
				log.FieldEventOp, ev.Op,
				log.FieldOrderID, ev.ID)
		}
	}
}

// Shutdown gracefully shuts down the server and its background routines.
// Live connections are closed as well since http.Server does not track
// hijacked connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCh)
		<-s.watchDone
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) monthlyReport(ctx context.Context, year, month int) (report.PeriodReport, error) {
	key := periodKey(year, month)
	return s.monthly.Get(key, func() (report.PeriodReport, error) {
		// detached so one cancelled caller does not fail the shared load
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportRequestBudget)
		defer cancel()
		return s.reports.Monthly(ctx, year, month)
	})
}

func (s *Server) yearlyReport(ctx context.Context, year int) (report.PeriodReport, error) {
	key := periodKey(year, 0)
	return s.yearly.Get(key, func() (report.PeriodReport, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportRequestBudget)
		defer cancel()
		return s.reports.Yearly(ctx, year)
	})
}

func periodKey(year, month int) string {
	if month == 0 {
		return fmt.Sprintf("%04d", year)
	}
	return fmt.Sprintf("%04d-%02d", year, month)
}
