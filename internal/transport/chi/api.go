package chi

import (
	"encoding/json"
	"time"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNodeNotFound     ErrorCode = "node_not_found"
	ErrorCodeUserNotFound     ErrorCode = "user_not_found"
	ErrorCodeIndexUnavailable ErrorCode = "index_unavailable"
	ErrorCodeGraphUnavailable ErrorCode = "graph_unavailable"
	ErrorCodeNotImplemented   ErrorCode = "not_implemented"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Attribute types accepted in SearchRequest.Attributes.
const (
	AttributeTypeTextual = "textual"
	AttributeTypeBoolean = "boolean"
	AttributeTypeGroup   = "group"
)

// Attribute is one search criterion. Value is a string for textual
// attributes and a bool (or null) for boolean ones.
type Attribute struct {
	Type     string          `json:"type"`
	Key      string          `json:"key,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
	Operator string          `json:"operator,omitempty"`
	Children []Attribute     `json:"children,omitempty"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	User           string      `json:"user,omitempty"`
	TopNode        string      `json:"top_node,omitempty"`
	IncludeDeleted bool        `json:"include_deleted,omitempty"`
	PublicOnly     bool        `json:"public_only,omitempty"`
	Explain        bool        `json:"explain,omitempty"`
	Attributes     []Attribute `json:"attributes"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Items   []Node       `json:"items"`
	Explain *ExplainInfo `json:"explain,omitempty"`
}

// ExplainInfo describes the compiled query.
type ExplainInfo struct {
	Query      string   `json:"query"`
	Structured string   `json:"structured"`
	Skipped    []string `json:"skipped,omitempty"`
}

// Node is the wire form of a graph node.
type Node struct {
	ID         string         `json:"id"`
	Type       string         `json:"type,omitempty"`
	Name       string         `json:"name"`
	Owner      string         `json:"owner,omitempty"`
	Readers    []string       `json:"readers,omitempty"`
	Public     bool           `json:"public"`
	Deleted    bool           `json:"deleted"`
	CreatedAt  time.Time      `json:"created_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// NodeListResponse wraps a node listing.
type NodeListResponse struct {
	Items []Node `json:"items"`
}

// User is the wire form of a user principal.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Superuser bool   `json:"superuser"`
}

// PutNodeRequest is the body of PUT /nodes/{id}.
type PutNodeRequest struct {
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Owner      string         `json:"owner,omitempty"`
	Readers    []string       `json:"readers,omitempty"`
	Public     bool           `json:"public,omitempty"`
	Deleted    bool           `json:"deleted,omitempty"`
	CreatedAt  *time.Time     `json:"created_at,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// BatchPutItem is one node of POST /nodes/batch.
type BatchPutItem struct {
	ID     string `json:"id"`
	Parent string `json:"parent,omitempty"`
	PutNodeRequest
}

// BatchPutRequest is the body of POST /nodes/batch.
type BatchPutRequest struct {
	Items []BatchPutItem `json:"items"`
}

// Batch item statuses.
const (
	BatchStatusOK    = "ok"
	BatchStatusError = "error"
)

// BatchResultItem reports the outcome of one batch item.
type BatchResultItem struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// BatchResponse is the body of a batch write.
type BatchResponse struct {
	Items []BatchResultItem `json:"items"`
}

// RebuildResponse is the body of POST /index/rebuild.
type RebuildResponse struct {
	Indexed int `json:"indexed"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

// GetUserParams are the query parameters of GET /users/{name}.
type GetUserParams struct {
	Root *string `form:"root,omitempty" json:"root,omitempty"`
}

// ListDescendantsParams are the query parameters of GET /nodes/{id}/descendants.
type ListDescendantsParams struct {
	MaxDepth       *int    `form:"max_depth,omitempty" json:"max_depth,omitempty"`
	User           *string `form:"user,omitempty" json:"user,omitempty"`
	IncludeDeleted *bool   `form:"include_deleted,omitempty" json:"include_deleted,omitempty"`
	PublicOnly     *bool   `form:"public_only,omitempty" json:"public_only,omitempty"`
}

// PutNodeParams are the query parameters of PUT /nodes/{id}.
type PutNodeParams struct {
	Parent *string `form:"parent,omitempty" json:"parent,omitempty"`
}
