// Package service holds the operations behind the HTTP API. Each one
// resolves the caller's session Store, talks to the oracle or storage
// outside the store lock, and dispatches the outcome as session actions.
package service

import (
	"context"
	"errors"

	"github.com/vbonduro/dishout/internal/session"
)

var (
	ErrNotRestaurant = errors.New("restaurant account required")
	ErrNotLoggedIn   = errors.New("login required")
	ErrEmptyMessage  = errors.New("message is empty")
	ErrMissingURL    = errors.New("website url is required")
	ErrEmptyImage    = errors.New("image is empty")
)

// sessionSource is the subset of session.Registry the services require.
type sessionSource interface {
	Get(ctx context.Context, clientID string) *session.Store
}
