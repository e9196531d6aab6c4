// Package http serves the ledger's JSON API: transaction, category and
// statement mutations plus the pivot report.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tally/internal/cache"
	applog "tally/internal/log"
	"tally/internal/pivot"
	"tally/internal/services"
)

// Options tunes the server's pivot cache.
type Options struct {
	PivotCacheSize int
	PivotCacheTTL  time.Duration
}

func defaultOptions() Options {
	return Options{
		PivotCacheSize: 32,
		PivotCacheTTL:  5 * time.Minute,
	}
}

type Server struct {
	http.Server
	ledger      *services.LedgerService
	reports     *services.ReportService
	recurring   *services.RecurringProcessor
	rateLimiter *rateLimiter

	// pivotCache keeps decoded reports so hot windows skip the snapshot
	// store entirely. Any mutation clears it.
	pivotCache *cache.LRUCache[pivot.Data]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, ledger *services.LedgerService, reports *services.ReportService, recurring *services.RecurringProcessor, opts *Options) *Server {
	o := defaultOptions()
	if opts != nil {
		o = *opts
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:           ledger,
		reports:          reports,
		recurring:        recurring,
		rateLimiter:      newRateLimiter(),
		pivotCache:       cache.NewLRUCache[pivot.Data](o.PivotCacheSize, o.PivotCacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/pivot", s.withMiddleware(s.handlePivot))

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransactions))
	mux.HandleFunc("POST /api/transactions/import", s.withMiddleware(s.handleImportTransactions))
	mux.HandleFunc("POST /api/transactions/update", s.withMiddleware(s.handleUpdateTransactions))
	mux.HandleFunc("POST /api/transactions/delete", s.withMiddleware(s.handleDeleteTransactions))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.withMiddleware(s.handlePatchTransaction))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("POST /api/categories/reorder", s.withMiddleware(s.handleReorderCategories))
	mux.HandleFunc("PATCH /api/categories/{id}", s.withMiddleware(s.handlePatchCategory))

	mux.HandleFunc("GET /api/recurring", s.withMiddleware(s.handleListRecurringSeries))
	mux.HandleFunc("POST /api/recurring", s.withMiddleware(s.handleCreateRecurringSeries))

	mux.HandleFunc("GET /api/statements", s.withMiddleware(s.handleListStatements))
	mux.HandleFunc("POST /api/statements", s.withMiddleware(s.handleCreateStatement))
	mux.HandleFunc("PATCH /api/statements/{id}", s.withMiddleware(s.handlePatchStatement))
	mux.HandleFunc("DELETE /api/statements/{id}", s.withMiddleware(s.handleDeleteStatement))

	return s
}

// startCacheCleanup runs periodic cleanup for the pivot cache.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.pivotCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		reqLogger := applog.FromContext(ctx).WithComponent(applog.ComponentHTTP).With(applog.FieldRequestID, requestID)
		ctx = applog.WithLogger(ctx, reqLogger)
		r = r.WithContext(ctx)

		reqLogger.InfoContext(ctx, "Request started",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		// Rate limit mutations only, reads are cache-backed.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		reqLogger.InfoContext(ctx, "Request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidatePivotCache drops all cached reports. Called after every
// mutation; the persisted snapshot layer has its own exact staleness
// tracking.
func (s *Server) invalidatePivotCache() {
	s.pivotCache.Clear()
}
