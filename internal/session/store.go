// Package session persists the workflow's plan state between one-shot CLI
// invocations: a plan generated in one run must still be there when the user
// confirms and applies it in the next. The state is the Go analogue of the
// browser view's local state and is bounded by a TTL so a stale plan is
// discarded rather than applied.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/bloglens/adbudget/internal/models"
)

// ErrNotFound indicates no session state exists for the key (or it expired).
var ErrNotFound = errors.New("session not found")

// State is the persisted slice of workflow state.
type State struct {
	SelectedStrategy string                   `json:"selected_strategy"`
	Plan             *models.ReallocationPlan `json:"plan,omitempty"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// Store persists workflow session state with a TTL.
type Store interface {
	Save(ctx context.Context, key string, st *State) error
	Load(ctx context.Context, key string) (*State, error)
	Clear(ctx context.Context, key string) error
}
