package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nodesearch/internal/config"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	memIndex "github.com/kailas-cloud/nodesearch/internal/repository/index/memory"
	chiTransport "github.com/kailas-cloud/nodesearch/internal/transport/chi"
)

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/search", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp chiTransport.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != chiTransport.ErrorCodeInternalError {
		t.Errorf("code = %s", resp.Code)
	}
}

func TestWideEventMiddleware_SetsRequestID(t *testing.T) {
	h := chiMiddleware.RequestID(wideEventMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestOpenGraph(t *testing.T) {
	ctx := context.Background()
	drivers := []config.GraphConfig{
		{Driver: config.GraphMemory},
		{Driver: config.GraphSQLite, Path: filepath.Join(t.TempDir(), "data", "graph.db")},
	}
	for _, cfg := range drivers {
		t.Run(cfg.Driver, func(t *testing.T) {
			g, err := openGraph(cfg)
			if err != nil {
				t.Fatalf("openGraph: %v", err)
			}
			defer func() { _ = g.Close() }()

			if err := g.Put(ctx, &node.Node{ID: "a", Name: "alpha"}); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := g.Ping(ctx); err != nil {
				t.Errorf("ping: %v", err)
			}
			if err := checkpointGraph(ctx, g); err != nil {
				t.Fatalf("checkpoint: %v", err)
			}
			if cfg.Driver == config.GraphSQLite {
				fi, err := os.Stat(cfg.Path + "-wal")
				if err == nil && fi.Size() != 0 {
					t.Errorf("wal holds %d bytes after checkpoint", fi.Size())
				}
			}
		})
	}
}

func TestOpenIndex_Memory(t *testing.T) {
	ctx := context.Background()
	idx, err := openIndex(ctx, config.IndexConfig{Backend: config.IndexMemory}, zap.NewNop())
	if err != nil {
		t.Fatalf("openIndex: %v", err)
	}
	defer idx.close()

	if err := idx.Put(ctx, &node.Node{ID: "a", Name: "alpha"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := idx.PutMany(ctx, []*node.Node{{ID: "b"}, {ID: "c"}}); err != nil {
		t.Fatalf("put many: %v", err)
	}
	if mem, ok := idx.executor.(*memIndex.Index); !ok || mem.Len() != 3 {
		t.Errorf("executor = %T, want memory index with 3 nodes", idx.executor)
	}
	if err := idx.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if mem := idx.executor.(*memIndex.Index); mem.Len() != 0 {
		t.Errorf("reset left %d nodes", mem.Len())
	}
	if err := idx.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}
