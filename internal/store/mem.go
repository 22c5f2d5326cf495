package store

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Mem is the in-process Store, used in dev mode and tests.
type Mem struct {
	mu       sync.Mutex
	states   map[common.Hash]State
	subjects map[common.Address][]common.Hash
}

func NewMem() *Mem {
	return &Mem{
		states:   make(map[common.Hash]State),
		subjects: make(map[common.Address][]common.Hash),
	}
}

func (m *Mem) State(_ context.Context, hash common.Hash) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[hash], nil
}

func (m *Mem) PutUnclaimed(_ context.Context, hash common.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states[hash] != StateNone {
		return ErrExists
	}
	m.states[hash] = StateUnclaimed
	return nil
}

func (m *Mem) MarkClaimed(_ context.Context, hash common.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states[hash] != StateUnclaimed {
		return ErrNotUnclaimed
	}
	m.states[hash] = StateClaimed
	return nil
}

func (m *Mem) AppendSubject(_ context.Context, subject common.Address, hash common.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects[subject] = append(m.subjects[subject], hash)
	return nil
}

func (m *Mem) BySubject(_ context.Context, subject common.Address) ([]common.Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]common.Hash, len(m.subjects[subject]))
	copy(out, m.subjects[subject])
	return out, nil
}
