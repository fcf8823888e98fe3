// Package service defines the backend-agnostic types and interface for task operations.
package service

import (
	"context"
	"errors"
)

// Service defines the interface for task backend operations.
// All remote API calls go through this interface.
// Nothing outside the backend package speaks HTTP to the to-do service.
type Service interface {
	// GetItem fetches an item together with its ancestor chain.
	// A nil result with a nil error means the service returned nothing.
	GetItem(ctx context.Context, itemID string) (*ItemWithAncestors, error)

	// Sync submits a batch of commands to be executed together.
	// The response body is discarded.
	Sync(ctx context.Context, commands []Command) error
}

// Errors a backend maps its failures onto.
var (
	// ErrTimeout is returned when a call exceeds the API timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrUnauthorized is returned when the API rejects the token.
	ErrUnauthorized = errors.New("token rejected (run: followup login)")

	// ErrNotFound is returned for unknown items.
	ErrNotFound = errors.New("not found")
)
