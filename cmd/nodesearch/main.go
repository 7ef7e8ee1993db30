package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nodesearch/internal/config"
	logpkg "github.com/kailas-cloud/nodesearch/internal/logger"
	"github.com/kailas-cloud/nodesearch/internal/metrics"
	"github.com/kailas-cloud/nodesearch/internal/repository/graph/seed"
	"github.com/kailas-cloud/nodesearch/internal/repository/nodefactory"
	chiTransport "github.com/kailas-cloud/nodesearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/nodesearch/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/nodesearch/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/nodesearch/internal/usecase/search"
	useruc "github.com/kailas-cloud/nodesearch/internal/usecase/user"
	"github.com/kailas-cloud/nodesearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting nodesearch API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("graph_driver", cfg.Graph.Driver),
		zap.String("index_backend", cfg.Index.Backend),
	)

	ctx := logpkg.ContextWithLogger(context.Background(), logger)

	graph, err := openGraph(cfg.Graph)
	if err != nil {
		logger.Fatal("Failed to open graph store", zap.Error(err))
	}
	defer func() { _ = graph.Close() }()

	if cfg.Graph.SeedFile != "" {
		stats, err := seed.LoadFile(ctx, cfg.Graph.SeedFile, graph)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn("Seed file not found, starting empty", zap.String("path", cfg.Graph.SeedFile))
		case err != nil:
			logger.Fatal("Failed to load seed file", zap.Error(err))
		default:
			logger.Info("Graph seeded", zap.Int("nodes", stats.Nodes), zap.Int("edges", stats.Edges))
		}
	}

	idx, err := openIndex(ctx, cfg.Index, logger)
	if err != nil {
		logger.Fatal("Failed to open index", zap.Error(err))
	}
	defer idx.close()

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterSearchMetrics()

	// Use case services
	indexingSvc := indexinguc.New(graph, idx).WithMaxBatchSize(cfg.Index.MaxBatchSize)
	if cfg.Index.ReindexOnStart || cfg.Index.Backend == config.IndexMemory {
		if _, err := indexingSvc.Rebuild(ctx); err != nil {
			logger.Fatal("Failed to rebuild index", zap.Error(err))
		}
	}

	searchSvc := searchuc.New(idx, nodefactory.New(graph), graph,
		searchuc.WithBackend(cfg.Index.Backend),
		searchuc.WithMaxDepth(cfg.Search.MaxDepth),
		searchuc.WithUnionBooleanOr(cfg.Search.UnionBooleanOr),
		searchuc.WithCaseInsensitiveSort(cfg.Search.CaseInsensitiveSort),
		searchuc.WithLogger(logger),
	)
	userSvc := useruc.New(graph)
	healthSvc := healthuc.New(graph, idx)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, userSvc, indexingSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
				Code:    chiTransport.ErrorCodeBadRequest,
				Message: err.Error(),
			})
		},
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := checkpointGraph(shutdownCtx, graph); err != nil {
		logger.Error("Error checkpointing graph store", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
