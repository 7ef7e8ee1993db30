package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nodesearch/internal/domain"
	"github.com/kailas-cloud/nodesearch/internal/domain/node"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/attribute"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/operator"
	"github.com/kailas-cloud/nodesearch/internal/domain/search/request"
	domuser "github.com/kailas-cloud/nodesearch/internal/domain/user"
	healthuc "github.com/kailas-cloud/nodesearch/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/nodesearch/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/nodesearch/internal/usecase/search"
	useruc "github.com/kailas-cloud/nodesearch/internal/usecase/user"
	"github.com/kailas-cloud/nodesearch/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	search        *searchuc.Service
	users         *useruc.Service
	indexing      *indexinguc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	users *useruc.Service,
	indexing *indexinguc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		users:    users,
		indexing: indexing,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidAttribute, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidNode, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrUserNotFound, http.StatusNotFound, ErrorCodeUserNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNodeNotFound),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, ErrorCodeIndexUnavailable),
		sentinelHandler(domain.ErrGraphUnavailable, http.StatusServiceUnavailable, ErrorCodeGraphUnavailable),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, ErrorCodeNotImplemented),
	}
	return s
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	attrs, err := attributesFromDTO(req.Attributes, "attributes")
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	u, err := s.resolveUser(r, req.User)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	sreq, err := request.New(u, req.TopNode, req.IncludeDeleted, req.PublicOnly, attrs)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	nodes, plan := s.search.SearchPlan(r.Context(), sreq)

	resp := SearchResponse{Items: nodesToDTO(nodes)}
	if req.Explain {
		info := &ExplainInfo{Query: plan.Text, Structured: plan.Query.String()}
		for _, sk := range plan.Skipped {
			info.Skipped = append(info.Skipped, sk.Path+": "+sk.Reason)
		}
		resp.Explain = info
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetUser handles GET /users/{name}.
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request, name string, params GetUserParams) {
	var (
		u   *domuser.User
		err error
	)
	if params.Root != nil && *params.Root != "" {
		u, err = s.users.FindByNameUnder(r.Context(), name, *params.Root)
	} else {
		u, err = s.users.FindByName(r.Context(), name)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, User{ID: u.ID, Name: u.Name, Superuser: u.Superuser})
}

// ListDescendants handles GET /nodes/{id}/descendants.
func (s *Server) ListDescendants(w http.ResponseWriter, r *http.Request, id string, params ListDescendantsParams) {
	depth := derefInt(params.MaxDepth)
	if depth < 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "max_depth must not be negative")
		return
	}

	vis := node.Visibility{
		IncludeDeleted: derefBool(params.IncludeDeleted),
		PublicOnly:     derefBool(params.PublicOnly),
	}
	if params.User != nil && *params.User != "" {
		u, err := s.resolveUser(r, *params.User)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		vis.User = u
	}

	nodes, err := s.search.Descendants(r.Context(), id, vis, depth)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NodeListResponse{Items: nodesToDTO(nodes)})
}

// PutNode handles PUT /nodes/{id}.
func (s *Server) PutNode(w http.ResponseWriter, r *http.Request, id string, params PutNodeParams) {
	var req PutNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	n := nodeFromPut(id, req)
	parent := ""
	if params.Parent != nil {
		parent = *params.Parent
	}
	if err := s.indexing.Put(r.Context(), n, parent); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nodeToDTO(n))
}

// BatchPutNodes handles POST /nodes/batch.
func (s *Server) BatchPutNodes(w http.ResponseWriter, r *http.Request) {
	var req BatchPutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	items := make([]indexinguc.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = indexinguc.Item{Node: nodeFromPut(it.ID, it.PutNodeRequest), ParentID: it.Parent}
	}

	results := s.indexing.PutBatch(r.Context(), items)

	resp := BatchResponse{Items: make([]BatchResultItem, len(results))}
	for i, res := range results {
		resp.Items[i] = batchResultToDTO(res)
	}
	writeJSON(w, http.StatusOK, resp)
}

// RebuildIndex handles POST /index/rebuild.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	n, err := s.indexing.Rebuild(r.Context())
	if err != nil {
		s.handleDomainError(w, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, RebuildResponse{Indexed: n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.String(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// resolveUser turns a user node ID into a principal. Blank means anonymous.
func (s *Server) resolveUser(r *http.Request, id string) (*domuser.User, error) {
	if id == "" {
		return nil, nil
	}
	u, err := s.users.Get(r.Context(), id)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return u, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	var attrErr *domain.AttributeError
	if errors.As(err, &attrErr) {
		return attrErr.Error()
	}
	sentinels := []error{
		domain.ErrInvalidAttribute,
		domain.ErrInvalidNode,
		domain.ErrUserNotFound,
		domain.ErrNotFound,
		domain.ErrIndexUnavailable,
		domain.ErrGraphUnavailable,
		domain.ErrNotImplemented,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

// attributesFromDTO decodes wire attributes. path locates errors in the request.
func attributesFromDTO(in []Attribute, path string) ([]attribute.Attribute, error) {
	out := make([]attribute.Attribute, 0, len(in))
	for i, a := range in {
		at := fmt.Sprintf("%s[%d]", path, i)

		op, err := operator.Parse(a.Operator)
		if err != nil {
			return nil, domain.NewAttributeError(at, err.Error())
		}

		switch strings.ToLower(strings.TrimSpace(a.Type)) {
		case "", AttributeTypeTextual:
			v, err := textValue(a.Value)
			if err != nil {
				return nil, domain.NewAttributeError(at, err.Error())
			}
			out = append(out, attribute.NewTextual(a.Key, v, op))
		case AttributeTypeBoolean:
			v, err := boolValue(a.Value)
			if err != nil {
				return nil, domain.NewAttributeError(at, err.Error())
			}
			out = append(out, attribute.NewBoolean(a.Key, v, op))
		case AttributeTypeGroup:
			children, err := attributesFromDTO(a.Children, at+".children")
			if err != nil {
				return nil, err
			}
			out = append(out, attribute.NewGroup(op, children...))
		default:
			return nil, domain.NewAttributeError(at, fmt.Sprintf("unknown attribute type %q", a.Type))
		}
	}
	return out, nil
}

func textValue(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.New("textual value must be a string")
	}
	return s, nil
}

func boolValue(raw json.RawMessage) (*bool, error) {
	if isNull(raw) {
		return nil, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, errors.New("boolean value must be true, false or null")
	}
	return &b, nil
}

func isNull(raw json.RawMessage) bool {
	v := strings.TrimSpace(string(raw))
	return v == "" || v == "null"
}

func nodeFromPut(id string, req PutNodeRequest) *node.Node {
	n := &node.Node{
		ID:         id,
		Type:       req.Type,
		Name:       req.Name,
		OwnerID:    req.Owner,
		Readers:    req.Readers,
		Public:     req.Public,
		Deleted:    req.Deleted,
		Properties: req.Properties,
	}
	if req.CreatedAt != nil {
		n.CreatedAt = req.CreatedAt.UTC()
	}
	return n
}

func nodeToDTO(n *node.Node) Node {
	return Node{
		ID:         n.ID,
		Type:       n.Type,
		Name:       n.Name,
		Owner:      n.OwnerID,
		Readers:    n.Readers,
		Public:     n.Public,
		Deleted:    n.Deleted,
		CreatedAt:  n.CreatedAt,
		Properties: n.Properties,
	}
}

func nodesToDTO(ns []*node.Node) []Node {
	out := make([]Node, len(ns))
	for i, n := range ns {
		out[i] = nodeToDTO(n)
	}
	return out
}

func batchResultToDTO(r indexinguc.Result) BatchResultItem {
	item := BatchResultItem{ID: r.ID, Status: BatchStatusOK}
	if r.Err != nil {
		item.Status = BatchStatusError
		item.Error = &ErrorResponse{
			Code:    batchErrorCode(r.Err),
			Message: safeDomainMessage(r.Err),
		}
	}
	return item
}

func batchErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrInvalidNode):
		return ErrorCodeValidationFailed
	case errors.Is(err, domain.ErrNotFound):
		return ErrorCodeNodeNotFound
	case errors.Is(err, domain.ErrIndexUnavailable):
		return ErrorCodeIndexUnavailable
	case errors.Is(err, domain.ErrGraphUnavailable):
		return ErrorCodeGraphUnavailable
	default:
		return ErrorCodeInternalError
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefBool(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}
