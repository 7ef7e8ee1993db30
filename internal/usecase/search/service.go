package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/nodesearch/internal/domain"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/attribute"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/operator"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/request"
	"github.com/kailas-cloud/nodesearch/internal/logger"
	"github.com/kailas-cloud/nodesearch/internal/metrics"
)

// DefaultMaxDepth bounds the subtree walk when no textual criterion exists.
const DefaultMaxDepth = 999

// Service runs structured searches over the node graph.
type Service struct {
	index   IndexExecutor
	nodes   NodeFactory
	subtree SubtreeLister

	backend         string
	maxDepth        int
	unionOr         bool
	caseInsensitive bool
	logger          *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMaxDepth sets the subtree depth guard. Non-positive values keep the default.
func WithMaxDepth(depth int) Option {
	return func(s *Service) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithUnionBooleanOr makes OR-tagged boolean attributes union their matches
// into the result. By default they are evaluated and then ignored.
func WithUnionBooleanOr(enabled bool) Option {
	return func(s *Service) { s.unionOr = enabled }
}

// WithCaseInsensitiveSort folds case when ordering by name.
func WithCaseInsensitiveSort(enabled bool) Option {
	return func(s *Service) { s.caseInsensitive = enabled }
}

// WithBackend names the index backend in metrics.
func WithBackend(name string) Option {
	return func(s *Service) { s.backend = name }
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a search service. idx may be nil when only subtree searches are expected.
func New(idx IndexExecutor, nodes NodeFactory, subtree SubtreeLister, opts ...Option) *Service {
	s := &Service{
		index:    idx,
		nodes:    nodes,
		subtree:  subtree,
		backend:  "unknown",
		maxDepth: DefaultMaxDepth,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Explain compiles attributes without running the search.
func (s *Service) Explain(attrs []attribute.Attribute) Plan {
	return Compile(attrs)
}

// Search compiles the request, retrieves candidates from the index or the
// top node's subtree, applies the boolean post-filter and sorts the result.
// It never fails: collaborator errors are logged and yield an empty list.
func (s *Service) Search(ctx context.Context, req request.Request) []*node.Node {
	nodes, _ := s.SearchPlan(ctx, req)
	return nodes
}

// SearchPlan is Search that also returns the compiled plan.
func (s *Service) SearchPlan(ctx context.Context, req request.Request) ([]*node.Node, Plan) {
	log := logger.FromContextOr(ctx, s.logger)

	start := time.Now()
	plan := Compile(req.Attributes())
	observeStage(metrics.StageCompile, start)

	for _, sk := range plan.Skipped {
		log.Warn("search attribute skipped", zap.String("path", sk.Path), zap.String("reason", sk.Reason))
	}
	if !s.unionOr {
		for _, b := range plan.Booleans {
			if b.Operator() == operator.Or {
				log.Warn("boolean OR attribute is evaluated but not combined", zap.String("key", b.Key()))
			}
		}
	}
	log.Debug("search compiled",
		zap.String("query", plan.Text),
		zap.Stringer("structured", plan.Query),
		zap.Int("booleans", len(plan.Booleans)),
	)

	start = time.Now()
	candidates, source, err := s.retrieve(ctx, req, plan)
	observeStage(metrics.StageRetrieve, start)
	if err != nil {
		log.Error("search retrieval failed", zap.String("source", source), zap.Error(err))
		metrics.SearchTotal.WithLabelValues(source, metrics.StatusError).Inc()
		return []*node.Node{}, plan
	}

	start = time.Now()
	result := postFilter(candidates, plan.Booleans, s.unionOr)
	observeStage(metrics.StagePostFilter, start)

	start = time.Now()
	sortNodes(result, s.caseInsensitive)
	observeStage(metrics.StageSort, start)

	metrics.SearchTotal.WithLabelValues(source, metrics.StatusOK).Inc()
	metrics.SearchResults.Observe(float64(len(result)))
	log.Debug("search done",
		zap.String("source", source),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(result)),
	)
	if result == nil {
		result = []*node.Node{}
	}
	return result, plan
}

// retrieve picks the candidate source: the index when the plan has text,
// the top node's subtree otherwise, and nothing when neither applies.
func (s *Service) retrieve(
	ctx context.Context, req request.Request, plan Plan,
) ([]*node.Node, string, error) {
	vis := req.Visibility()

	if !plan.HasText() {
		if req.TopNodeID() == "" {
			return nil, metrics.SourceNone, nil
		}
		if s.subtree == nil {
			return nil, metrics.SourceSubtree, fmt.Errorf("subtree listing: %w", domain.ErrGraphUnavailable)
		}
		seq := s.subtree.Descendants(ctx, req.TopNodeID(), s.maxDepth)
		nodes, err := s.nodes.FromSeq(ctx, seq, vis)
		if err != nil {
			return nil, metrics.SourceSubtree, fmt.Errorf("materialize subtree of %s: %w", req.TopNodeID(), err)
		}
		return nodes, metrics.SourceSubtree, nil
	}

	if s.index == nil {
		return nil, metrics.SourceIndex, fmt.Errorf("execute query: %w", domain.ErrIndexUnavailable)
	}
	hits, err := s.index.Execute(ctx, plan.Text, plan.Query)
	if err != nil {
		metrics.IndexErrorsTotal.WithLabelValues(s.backend).Inc()
		return nil, metrics.SourceIndex, fmt.Errorf("execute query: %w", err)
	}
	nodes, err := s.nodes.FromHits(ctx, hits, vis)
	if err != nil {
		return nil, metrics.SourceIndex, fmt.Errorf("materialize hits: %w", err)
	}
	return nodes, metrics.SourceIndex, nil
}

func observeStage(stage string, start time.Time) {
	metrics.SearchStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Descendants lists the visible subtree below topID in natural order. Unlike
// Search it reports failures, so callers can tell a missing top node from an
// empty subtree. A non-positive maxDepth uses the service depth guard.
func (s *Service) Descendants(
	ctx context.Context, topID string, vis node.Visibility, maxDepth int,
) ([]*node.Node, error) {
	if s.subtree == nil {
		return nil, fmt.Errorf("subtree listing: %w", domain.ErrGraphUnavailable)
	}
	if maxDepth <= 0 {
		maxDepth = s.maxDepth
	}
	nodes, err := s.nodes.FromSeq(ctx, s.subtree.Descendants(ctx, topID, maxDepth), vis)
	if err != nil {
		return nil, fmt.Errorf("list descendants of %s: %w", topID, err)
	}
	sortNodes(nodes, s.caseInsensitive)
	if nodes == nil {
		nodes = []*node.Node{}
	}
	return nodes, nil
}
