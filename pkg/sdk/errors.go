package nodesearch

import "github.com/kailas-cloud/nodesearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrUserNotFound     = domain.ErrUserNotFound
	ErrInvalidNode      = domain.ErrInvalidNode
	ErrInvalidAttribute = domain.ErrInvalidAttribute
	ErrIndexUnavailable = domain.ErrIndexUnavailable
	ErrGraphUnavailable = domain.ErrGraphUnavailable
)
