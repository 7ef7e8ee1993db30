package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing node.
	ErrNotFound = errors.New("not found")
	// ErrUserNotFound signals a missing user principal.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidNode signals a node that cannot be stored.
	ErrInvalidNode = errors.New("invalid node")
	// ErrInvalidAttribute signals a search attribute that cannot be decoded.
	ErrInvalidAttribute = errors.New("invalid search attribute")
	// ErrIndexUnavailable signals that the full-text index cannot be queried.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrGraphUnavailable signals that the graph store cannot be read.
	ErrGraphUnavailable = errors.New("graph unavailable")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)

// AttributeError wraps ErrInvalidAttribute with the position of the offending attribute.
type AttributeError struct {
	Path   string
	Reason string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("%s at %s: %s", ErrInvalidAttribute.Error(), e.Path, e.Reason)
}

func (e *AttributeError) Unwrap() error { return ErrInvalidAttribute }

// NewAttributeError creates an attribute validation error.
func NewAttributeError(path, reason string) error {
	return &AttributeError{Path: path, Reason: reason}
}
