// Package store persists bet records and per-account hash indices.
//
// Lifecycle rules: a record is created Unclaimed exactly once, promoted to
// Claimed exactly once, and never deleted or demoted. Indices are
// append-only, written once at submission. Callers serialize operations
// per hash; implementations only need to uphold the create-once guard.
package store

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// State of a bet hash. Absence of a record is StateNone.
type State uint8

const (
	StateNone State = iota
	StateUnclaimed
	StateClaimed
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "NONE"
	case StateUnclaimed:
		return "UNCLAIMED"
	case StateClaimed:
		return "CLAIMED"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrExists is returned by PutUnclaimed when the hash already has a record.
	ErrExists = errors.New("store: bet record already exists")
	// ErrNotUnclaimed is returned by MarkClaimed unless the record is Unclaimed.
	ErrNotUnclaimed = errors.New("store: bet record is not unclaimed")
)

// Store is the injected persistence boundary for the settlement engine.
type Store interface {
	State(ctx context.Context, hash common.Hash) (State, error)
	PutUnclaimed(ctx context.Context, hash common.Hash) error
	MarkClaimed(ctx context.Context, hash common.Hash) error

	AppendSubject(ctx context.Context, subject common.Address, hash common.Hash) error
	BySubject(ctx context.Context, subject common.Address) ([]common.Hash, error)
}
