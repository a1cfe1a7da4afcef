// Package http serves the JSON API: statement upload, analysis reports,
// health scores, recommendations and the business profile.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"pesalens/internal/cache"
	"pesalens/internal/core"
	"pesalens/internal/middleware/trace"
	"pesalens/internal/services"
	"pesalens/internal/statement"
	"pesalens/internal/storage"
)

// StatementLister reads stored statement metadata for the listing endpoint.
type StatementLister interface {
	ListStatements(ctx context.Context, limit int) ([]storage.Statement, error)
}

type Server struct {
	http.Server

	service    *services.AnalyzerService
	statements StatementLister

	tracer        *trace.Middleware
	limiter       *ipLimiter
	rateLimitHits atomic.Int64

	// Reports are cached per statement and period; a profile update clears
	// the whole cache since classification depends on owner keywords.
	reportCache  *cache.LRUCache[services.Report]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, service *services.AnalyzerService, statements StatementLister) *Server {
	mux := http.NewServeMux()

	s := &Server{
		service:      service,
		statements:   statements,
		tracer:       trace.NewMiddleware(extractClientIP),
		limiter:      newIPLimiter(60, time.Minute),
		reportCache:  cache.NewLRUCache[services.Report](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.Server = http.Server{
		Addr:    addr,
		Handler: s.tracer.Middleware(mux),
	}

	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/statements", s.withSecurity(s.handleIngestStatement))
	mux.HandleFunc("GET /api/statements", s.withSecurity(s.handleListStatements))
	mux.HandleFunc("GET /api/statements/{id}/analysis", s.withSecurity(s.handleAnalysis))
	mux.HandleFunc("GET /api/statements/{id}/score", s.withSecurity(s.handleScore))
	mux.HandleFunc("GET /api/statements/{id}/recommendations", s.withSecurity(s.handleRecommendations))
	mux.HandleFunc("GET /api/profile", s.withSecurity(s.handleGetProfile))
	mux.HandleFunc("PUT /api/profile", s.withSecurity(s.handleUpdateProfile))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.limiter != nil {
			s.limiter.close()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurity adds security headers and per-IP rate limiting on mutating
// requests. Request tracing and logging happen one layer out.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			clientIP := extractClientIP(r)
			if !s.limiter.allow(clientIP) {
				s.rateLimitHits.Add(1)
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type metricsResponse struct {
	TotalRequests       int64 `json:"totalRequests"`
	AverageResponseTime int64 `json:"averageResponseTimeMicros"`
	RateLimitHits       int64 `json:"rateLimitHits"`
	CachedReports       int   `json:"cachedReports"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	writeJSON(w, http.StatusOK, metricsResponse{
		TotalRequests:       m.TotalRequests,
		AverageResponseTime: m.AverageResponseTime,
		RateLimitHits:       s.rateLimitHits.Load(),
		CachedReports:       s.reportCache.Size(),
	})
}

type ingestRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type ingestResponse struct {
	ID           int64 `json:"id"`
	Transactions int   `json:"transactions"`
}

func (s *Server) handleIngestStatement(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2<<20)

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		req.Name = "statement"
	}

	id, count, err := s.service.IngestStatement(r.Context(), req.Name, req.Text)
	if err != nil {
		if errors.Is(err, statement.ErrNoTransactions) {
			writeError(w, http.StatusUnprocessableEntity, "no transactions recognized in statement text")
			return
		}
		slog.ErrorContext(r.Context(), "Statement ingestion failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store statement")
		return
	}

	writeJSON(w, http.StatusCreated, ingestResponse{ID: id, Transactions: count})
}

type statementSummary struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Transactions int       `json:"transactions"`
	CreatedAt    time.Time `json:"createdAt"`
	Analyzed     bool      `json:"analyzed"`
}

func (s *Server) handleListStatements(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	statements, err := s.statements.ListStatements(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Statement listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list statements")
		return
	}

	out := make([]statementSummary, 0, len(statements))
	for _, st := range statements {
		out = append(out, statementSummary{
			ID:           st.ID,
			Name:         st.Name,
			Transactions: st.TxnCount,
			CreatedAt:    st.CreatedAt,
			Analyzed:     st.AnalyzedAt.Valid,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// getReport serves a cached report when fresh, otherwise runs a full
// analysis pass.
func (s *Server) getReport(r *http.Request) (services.Report, int, string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return services.Report{}, http.StatusBadRequest, "invalid statement id"
	}

	period := core.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = core.PeriodAll
	}
	if !period.IsValid() {
		return services.Report{}, http.StatusBadRequest, "invalid period (use all, 7, 30 or 90)"
	}

	key := strconv.FormatInt(id, 10) + ":" + string(period)
	if report, found := s.reportCache.Get(key); found {
		slog.DebugContext(r.Context(), "Report cache hit", "statement_id", id, "period", period)
		return report, http.StatusOK, ""
	}

	report, err := s.service.Analyze(r.Context(), id, period)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return services.Report{}, http.StatusNotFound, "statement not found"
		}
		slog.ErrorContext(r.Context(), "Analysis failed", "error", err, "statement_id", id, "period", period)
		return services.Report{}, http.StatusInternalServerError, "analysis failed"
	}

	s.reportCache.Set(key, report)
	return report, http.StatusOK, ""
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	report, status, msg := s.getReport(r)
	if msg != "" {
		writeError(w, status, msg)
		return
	}
	writeJSON(w, status, report)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	report, status, msg := s.getReport(r)
	if msg != "" {
		writeError(w, status, msg)
		return
	}
	writeJSON(w, status, report.Score)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	report, status, msg := s.getReport(r)
	if msg != "" {
		writeError(w, status, msg)
		return
	}
	writeJSON(w, status, report.Recommendations)
}

type profilePayload struct {
	BusinessType       core.BusinessType `json:"businessType"`
	OwnerKeywords      []string          `json:"ownerKeywords"`
	RevenueTargetCents int64             `json:"revenueTargetCents"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.service.Profile(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Profile load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, profilePayload{
		BusinessType:       profile.BusinessType,
		OwnerKeywords:      profile.OwnerKeywords,
		RevenueTargetCents: profile.RevenueTarget.Cents,
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)

	var req profilePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.BusinessType.IsValid() {
		writeError(w, http.StatusUnprocessableEntity, "unknown business type")
		return
	}

	err := s.service.UpdateProfile(r.Context(), storage.Profile{
		BusinessType:  req.BusinessType,
		OwnerKeywords: req.OwnerKeywords,
		RevenueTarget: core.Money{Cents: req.RevenueTargetCents},
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Profile update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	// Owner keywords feed classification, so every cached report is stale.
	s.reportCache.Clear()

	writeJSON(w, http.StatusOK, req)
}
