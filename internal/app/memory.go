package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/jaminalder/tictactoe-atlas/internal/catalog"
)

// MemoryStore is a ClaimStore kept in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	claims map[string]catalog.Claim
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{claims: make(map[string]catalog.Claim)}
}

func (m *MemoryStore) GetClaim(_ context.Context, stateID string) (catalog.Claim, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[stateID]
	return c, ok, nil
}

func (m *MemoryStore) PutClaim(_ context.Context, c catalog.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.claims[c.StateID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyClaimed, c.StateID)
	}
	m.claims[c.StateID] = c
	return nil
}

// ListClaims returns claims oldest first, ties broken by state id.
func (m *MemoryStore) ListClaims(_ context.Context) ([]catalog.Claim, error) {
	m.mu.Lock()
	out := make([]catalog.Claim, 0, len(m.claims))
	for _, c := range m.claims {
		out = append(out, c)
	}
	m.mu.Unlock()
	slices.SortFunc(out, func(a, b catalog.Claim) int {
		if c := a.ClaimedAt.Compare(b.ClaimedAt); c != 0 {
			return c
		}
		return strings.Compare(a.StateID, b.StateID)
	})
	return out, nil
}
