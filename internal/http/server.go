// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"

	"github.com/gin-gonic/gin"
)

// Options tunes a Server. Zero values select the defaults.
type Options struct {
	// CacheSize and CacheTTL bound the month summary cache.
	CacheSize int
	CacheTTL  time.Duration
	// RateLimit is the number of writes per minute allowed per client IP.
	RateLimit int
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
	// Mode is the gin mode; release when empty.
	Mode   string
	Logger *log.Logger
	// Now supplies the default month for summaries.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.CacheSize <= 0 {
		o.CacheSize = 100
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 60
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 64 << 10
	}
	if o.Mode == "" {
		o.Mode = gin.ReleaseMode
	}
	if o.Logger == nil {
		o.Logger = log.New(log.DefaultConfig())
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Server struct {
	http.Server
	svc         *services.LedgerService
	summaries   *cache.LRUCache[core.MonthSummary]
	caches      *cache.Manager
	rateLimiter *rateLimiter
	logger      *log.Logger
	now         func() time.Time

	// summaryMu guards summaryGen and orders Set against Purge.
	summaryMu  sync.Mutex
	summaryGen uint64

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server. Background
// cleanup starts immediately and stops on Shutdown.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	opts = opts.withDefaults()
	gin.SetMode(opts.Mode)

	s := &Server{
		svc:         svc,
		summaries:   cache.NewLRUCache[core.MonthSummary](opts.CacheSize, opts.CacheTTL),
		caches:      cache.NewManager(),
		rateLimiter: newRateLimiter(opts.RateLimit, time.Minute),
		logger:      opts.Logger.WithComponent(log.ComponentHTTP),
		now:         opts.Now,
	}

	s.caches.Register(s.summaries)
	s.caches.StartCleanup(10 * time.Minute)
	go s.rateLimiter.startCleanup(5 * time.Minute)

	svc.OnRecord(func(core.Entry) {
		s.invalidateSummaries()
	})

	engine := gin.New()
	if err := engine.SetTrustedProxies(trustedProxies); err != nil {
		s.logger.Warn("Failed to set trusted proxies", log.FieldError, err)
	}
	engine.Use(gin.Recovery(), requestID(), securityHeaders(), requestLogger(s.logger))

	engine.GET("/healthz", handleHealth)

	api := engine.Group("/api")
	api.Use(rateLimit(s.rateLimiter, s.logger), maxBody(opts.MaxBodyBytes))
	api.GET("/entries", s.handleListEntries)
	api.POST("/entries", s.handleCreateEntry)
	api.GET("/totals", s.handleTotals)
	api.GET("/summary", s.handleSummary)
	api.GET("/export.xlsx", s.handleExport)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// monthSummary serves from the cache when possible.
func (s *Server) monthSummary(p MonthParams) (core.MonthSummary, error) {
	if sum, ok := s.summaries.Get(p.Key()); ok {
		return sum, nil
	}
	gen := s.summaryGeneration()
	sum, err := s.svc.MonthSummary(p.Year, p.Month)
	if err != nil {
		return core.MonthSummary{}, err
	}
	s.cacheSummary(p.Key(), sum, gen)
	return sum, nil
}

func (s *Server) summaryGeneration() uint64 {
	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()
	return s.summaryGen
}

// cacheSummary stores sum unless an entry was recorded after gen was read.
func (s *Server) cacheSummary(key string, sum core.MonthSummary, gen uint64) bool {
	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()
	if gen != s.summaryGen {
		return false
	}
	s.summaries.Set(key, sum)
	return true
}

func (s *Server) invalidateSummaries() {
	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()
	s.summaryGen++
	s.summaries.Purge()
}
