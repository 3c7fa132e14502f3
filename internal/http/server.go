// Package http exposes the JSON API: transactions, bank accounts, categories,
// lenders, recurring templates, and the analytics read endpoints.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

const txnCacheTTL = 30 * time.Second

// Server wraps http.Server with the service layer, a per-user transaction
// cache for the analytics endpoints, and an in-memory rate limiter.
type Server struct {
	http.Server

	transactions *services.TransactionService
	accounts     *services.AccountService
	categories   *services.CategoryService
	recurring    *services.RecurringProcessor

	txnCache     *cache.LRUCache[[]core.Transaction]
	cacheManager *cache.Manager
	limiter      *rateLimiter
	structured   *applog.StructuredLogger
	shutdownOnce sync.Once
}

func NewServer(addr string, transactions *services.TransactionService, accounts *services.AccountService, categories *services.CategoryService, recurring *services.RecurringProcessor) *Server {
	s := &Server{
		transactions: transactions,
		accounts:     accounts,
		categories:   categories,
		recurring:    recurring,
		txnCache:     cache.NewLRUCache[[]core.Transaction](512, txnCacheTTL),
		cacheManager: cache.NewManager(),
		limiter:      newRateLimiter(),
		structured:   httpLog,
	}
	s.cacheManager.Register(s.txnCache)
	s.cacheManager.StartCleanup(5 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /users/{uid}/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /users/{uid}/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /users/{uid}/transactions/recent", s.handleRecentTransactions)
	mux.HandleFunc("DELETE /users/{uid}/transactions/{type}/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /users/{uid}/business-transactions", s.handleListBusinessTransactions)

	mux.HandleFunc("GET /users/{uid}/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /users/{uid}/accounts", s.handleAddAccount)
	mux.HandleFunc("DELETE /users/{uid}/accounts/{name}", s.handleRemoveAccount)

	mux.HandleFunc("GET /users/{uid}/categories", s.handleListCategories)
	mux.HandleFunc("POST /users/{uid}/categories", s.handleAddCategory)
	mux.HandleFunc("DELETE /users/{uid}/categories/{name}", s.handleDeleteCategory)
	mux.HandleFunc("GET /users/{uid}/lenders", s.handleListLenders)
	mux.HandleFunc("POST /users/{uid}/lenders", s.handleAddLender)
	mux.HandleFunc("DELETE /users/{uid}/lenders/{name}", s.handleDeleteLender)

	mux.HandleFunc("GET /users/{uid}/recurring", s.handleListRecurring)
	mux.HandleFunc("POST /users/{uid}/recurring/{id}/status", s.handleSetRecurringStatus)

	mux.HandleFunc("GET /users/{uid}/analytics/summary", s.handleAnalyticsSummary)
	mux.HandleFunc("GET /users/{uid}/analytics/categories", s.handleCategoryBreakdown)
	mux.HandleFunc("GET /users/{uid}/loans", s.handleListLoans)
	mux.HandleFunc("GET /users/{uid}/loans/{lender}", s.handleLoanTransactions)

	s.Server.Addr = addr
	s.Server.Handler = s.withSecurityHeaders(mux)
	s.Server.ReadHeaderTimeout = 5 * time.Second
	s.Server.ReadTimeout = 10 * time.Second
	s.Server.WriteTimeout = 15 * time.Second
	s.Server.IdleTimeout = 60 * time.Second
	return s
}

// Shutdown stops the background goroutines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		s.cacheManager.Stop()
	})
	return s.Server.Shutdown(ctx)
}

// withSecurityHeaders adds request IDs, structured request logging, rate
// limiting for mutating methods, and standard security headers.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := applog.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			if !s.limiter.allow(clientIP) {
				slog.WarnContext(ctx, "Rate limit exceeded",
					applog.FieldComponent, applog.ComponentRateLimit,
					applog.FieldClientIP, clientIP,
					applog.FieldPath, r.URL.Path,
				)
				w.Header().Set("Retry-After", "60")
				writeError(w, r, http.StatusTooManyRequests, fmt.Errorf("rate limit exceeded"))
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("X-Request-ID", requestID)

		s.structured.LogHTTPStart(ctx, r, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// extractClientIP returns the client address, honoring proxy headers.
func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// allTransactions returns the user's combined income and expense list,
// served from the cache when fresh.
func (s *Server) allTransactions(ctx context.Context, uid string) ([]core.Transaction, error) {
	if txns, ok := s.txnCache.Get(uid); ok {
		result := make([]core.Transaction, len(txns))
		copy(result, txns)
		return result, nil
	}

	income, expense, err := s.transactions.ListTransactions(ctx, uid)
	if err != nil {
		return nil, err
	}
	txns := make([]core.Transaction, 0, len(income)+len(expense))
	txns = append(txns, income...)
	txns = append(txns, expense...)
	s.txnCache.Set(uid, txns)

	result := make([]core.Transaction, len(txns))
	copy(result, txns)
	return result, nil
}

func (s *Server) invalidateTransactions(uid string) {
	s.txnCache.Delete(uid)
}
