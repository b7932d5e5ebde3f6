// Package http serves the operations dashboard: server-side rendered pages
// with htmx partials for the interactive bits.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"pacaprints/internal/cache"
	"pacaprints/internal/services"
	appweb "pacaprints/web"
)

// Deps are the services the server renders from.
type Deps struct {
	Orders      *services.OrderService
	Inventory   *services.InventoryService
	Purchases   *services.PurchaseService
	Bookkeeping *services.BookkeepingService
	Finance     *services.FinanceService
	Catalog     *services.CatalogService
}

type Server struct {
	http.Server
	templates *template.Template
	deps      Deps

	rateLimiter *rateLimiter

	// Finance aggregates are recomputed on every mutation, so cache them
	// per tax year between writes.
	overviewCache *cache.LRUCache[services.Overview]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		deps:             deps,
		rateLimiter:      newRateLimiter(),
		overviewCache:    cache.NewLRUCache[services.Overview](20, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("/orders", s.withSecurityHeaders(s.handleOrders))
	mux.HandleFunc("/orders/flag", s.withSecurityHeaders(s.handleOrderFlag))
	mux.HandleFunc("/orders/produce", s.withSecurityHeaders(s.handleOrderProduce))
	mux.HandleFunc("/inventory", s.withSecurityHeaders(s.handleInventory))
	mux.HandleFunc("/inventory/batches", s.withSecurityHeaders(s.handleAddBatch))
	mux.HandleFunc("/inventory/reorder-level", s.withSecurityHeaders(s.handleReorderLevel))
	mux.HandleFunc("/purchases", s.withSecurityHeaders(s.handlePurchases))
	mux.HandleFunc("/purchases/receive", s.withSecurityHeaders(s.handleReceivePurchase))
	mux.HandleFunc("/recipes", s.withSecurityHeaders(s.handleRecipes))
	mux.HandleFunc("/recipes/lines", s.withSecurityHeaders(s.handleRecipeLine))
	mux.HandleFunc("/expenses", s.withSecurityHeaders(s.handleExpenses))
	mux.HandleFunc("/mileage", s.withSecurityHeaders(s.handleMileage))
	mux.HandleFunc("/finance", s.withSecurityHeaders(s.handleFinance))
	mux.HandleFunc("/settings", s.withSecurityHeaders(s.handleSettings))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.overviewCache.CleanExpired(); n > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", n)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and the HTTP server.
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

// invalidateFinance drops cached aggregates after any write that can move
// the numbers.
func (s *Server) invalidateFinance() {
	s.overviewCache.Purge()
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging to a handler.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

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
