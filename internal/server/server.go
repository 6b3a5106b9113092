// Package server provides the HTTP REST API for the alignment checker.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/alignment-checker/internal/config"
	"github.com/jonathan/alignment-checker/internal/db"
	"github.com/jonathan/alignment-checker/internal/llm"
	"github.com/jonathan/alignment-checker/internal/profile"
	"github.com/jonathan/alignment-checker/internal/reference"
	"github.com/jonathan/alignment-checker/internal/server/middleware"
	"github.com/jonathan/alignment-checker/internal/server/ratelimit"
	"github.com/jonathan/alignment-checker/internal/types"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// Analyzer is the completion-backed analysis composed with the heuristic score
type Analyzer interface {
	Analyze(ctx context.Context, text string, profile *types.StyleProfile, referenceContext string) (*types.LLMAnalysis, error)
	Rewrite(ctx context.Context, text string, profile *types.StyleProfile, referenceContext string) (string, error)
}

// Dependencies are the collaborators a Server is built from.
// Analyzer, Tokens and RateLimiter are optional.
type Dependencies struct {
	Profiles    *profile.Registry
	Documents   reference.Store
	Assembler   *reference.Assembler
	Analyzer    Analyzer
	Tokens      middleware.TokenValidator
	RateLimiter *ratelimit.Limiter
	Logger      *zap.Logger

	MinChars       int
	MaxContextDocs int
	AllowedOrigins []string
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	validate   *validator.Validate

	profiles    *profile.Registry
	documents   reference.Store
	assembler   *reference.Assembler
	analyzer    Analyzer
	tokens      middleware.TokenValidator
	rateLimiter *ratelimit.Limiter

	minChars       int
	maxContextDocs int
	allowedOrigins map[string]bool
	allowAnyOrigin bool

	closers []func()
}

// New creates a server from configuration, connecting to every configured backend.
// The reference corpus comes from Postgres when a database URL is set, otherwise from
// the corpus file, otherwise it is empty.
func New(ctx context.Context, cfg *config.ServerConfig, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var store profile.Store
	var documents reference.Store
	switch {
	case cfg.DatabaseURL != "":
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, database.Close)
		store, documents = database, database
		logger.Info("reference corpus backed by postgres")
	case cfg.CorpusPath != "":
		fileSource, err := reference.NewFileSource(cfg.CorpusPath, logger.Named("corpus"))
		if err != nil {
			return nil, fmt.Errorf("failed to load corpus: %w", err)
		}
		if cfg.WatchCorpus {
			if err := fileSource.Watch(ctx); err != nil {
				return nil, err
			}
			closers = append(closers, func() { _ = fileSource.Close() })
		}
		documents = fileSource
		logger.Info("reference corpus loaded from file",
			zap.String("path", cfg.CorpusPath), zap.Int("documents", fileSource.Len()))
	default:
		documents = reference.NewMemorySource(nil)
		logger.Warn("no reference corpus configured, context assembly will be empty")
	}

	registry, err := profile.LoadRegistry(ctx, cfg.ProfilesPath, store)
	if err != nil {
		closeAll()
		return nil, err
	}
	logger.Info("style profiles loaded", zap.Strings("profiles", registry.Names()))

	var analyzer Analyzer
	if cfg.GeminiAPIKey != "" {
		llmConfig := llm.DefaultConfig()
		llmConfig.Timeout = cfg.LLMTimeout
		client, err := llm.NewClient(ctx, llmConfig, cfg.GeminiAPIKey)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		analyzer = llm.NewAnalyzer(client, llmConfig)
	} else {
		logger.Warn("GEMINI_API_KEY not set, LLM analysis and rewrite are disabled")
	}

	var tokens middleware.TokenValidator
	if cfg.Auth.Disabled {
		logger.Warn("authentication is disabled")
	} else {
		tokens = NewTokenVerifier(cfg.Auth).AsTokenValidator()
	}

	limiter := ratelimit.NewLimiter(ratelimit.LoadConfig())
	closers = append(closers, limiter.Stop)

	s := NewWithDependencies(Dependencies{
		Profiles:       registry,
		Documents:      documents,
		Assembler:      reference.NewAssembler(documents, reference.WithMaxDocs(cfg.MaxContextDocs), reference.WithLogger(logger.Named("context"))),
		Analyzer:       analyzer,
		Tokens:         tokens,
		RateLimiter:    limiter,
		Logger:         logger,
		MinChars:       cfg.MinChars,
		MaxContextDocs: cfg.MaxContextDocs,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	s.closers = closers

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Long enough for a streamed analysis under the LLM timeout
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// NewWithDependencies creates a server from already constructed collaborators
func NewWithDependencies(deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	assembler := deps.Assembler
	if assembler == nil {
		assembler = reference.NewAssembler(deps.Documents, reference.WithLogger(logger))
	}
	maxDocs := deps.MaxContextDocs
	if maxDocs <= 0 {
		maxDocs = reference.DefaultMaxDocs
	}

	s := &Server{
		logger:         logger,
		validate:       validator.New(),
		profiles:       deps.Profiles,
		documents:      deps.Documents,
		assembler:      assembler,
		analyzer:       deps.Analyzer,
		tokens:         deps.Tokens,
		rateLimiter:    deps.RateLimiter,
		minChars:       deps.MinChars,
		maxContextDocs: maxDocs,
		allowedOrigins: make(map[string]bool),
	}
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	for _, origin := range origins {
		if origin == "*" {
			s.allowAnyOrigin = true
		}
		s.allowedOrigins[origin] = true
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /analyze/full", s.handleAnalyzeFull)
	mux.HandleFunc("POST /analyze/stream", s.handleAnalyzeStream)
	mux.HandleFunc("POST /rewrite", s.handleRewrite)

	mux.HandleFunc("GET /context", s.handleContext)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)

	mux.HandleFunc("GET /profiles", s.handleListProfiles)
	mux.HandleFunc("GET /profiles/{name}", s.handleGetProfile)

	var h http.Handler = mux
	if s.tokens != nil {
		h = middleware.AuthMiddleware(s.tokens, "/health")(h)
	}
	h = s.withRateLimit(s.withLogging(s.withCORS(h)))
	return middleware.RequestID(h)
}

// Start serves until ctx is cancelled, then shuts down gracefully and releases backends
func (s *Server) Start(ctx context.Context) error {
	if s.httpServer == nil {
		return fmt.Errorf("server was not created with New")
	}
	defer s.Close()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Close releases the backends opened by New
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case s.allowAnyOrigin:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && s.allowedOrigins[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Flush keeps SSE working through the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		ctx, authenticatedUser := middleware.TrackUser(r.Context())
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		}
		if userID := authenticatedUser(); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		s.logger.Info("request completed", fields...)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.rateLimiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second).Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("path", r.URL.Path),
		zap.String("client", s.extractClientID(r)),
		zap.Int("limit", info.Limit))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// failure maps err to a status, logs server-side failures and writes the error body
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		userID, _ := middleware.GetUserID(r)
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("user_id", userID),
			zap.Error(err))
	}
	s.errorResponse(w, status, publicMessage(err))
}

// decodeRequest reads a JSON body into dst and validates it.
// On failure it writes a 400 response and returns false.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			s.errorResponse(w, http.StatusBadRequest, "request body is required")
		default:
			s.errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		}
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.failure(w, r, extractValidationErrors(err))
		return false
	}
	return true
}
