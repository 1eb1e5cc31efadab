package lexicon

import (
	"context"
	"sort"

	"github.com/nathoo/kanjicrawl/types"
)

// Compile-time interface checks.
var (
	_ Gateway       = (*Memory)(nil)
	_ SurfaceLookup = (*Memory)(nil)
)

// Memory is an in-memory store. It is read-only after construction and
// safe for concurrent use.
type Memory struct {
	byTier    map[int][]types.VocabEntry
	bySurface map[string][]types.VocabEntry
	size      int
}

// NewMemory prepares entries (see [Prepare]), drops unusable and duplicate
// ones, and indexes the rest by tier and surface.
func NewMemory(entries []types.VocabEntry) *Memory {
	m := &Memory{
		byTier:    map[int][]types.VocabEntry{},
		bySurface: map[string][]types.VocabEntry{},
	}
	ids := map[string]bool{}
	for _, raw := range entries {
		e, ok := Prepare(raw)
		if !ok || ids[e.ID] {
			continue
		}
		ids[e.ID] = true
		m.byTier[e.Tier] = append(m.byTier[e.Tier], e)
		m.bySurface[e.Surface] = append(m.bySurface[e.Surface], e)
		m.size++
	}
	for tier := range m.byTier {
		sortEntries(m.byTier[tier])
	}
	return m
}

// Lookup returns a copy of the tier's pool.
func (m *Memory) Lookup(_ context.Context, tier int) ([]types.VocabEntry, error) {
	pool := m.byTier[tier]
	out := make([]types.VocabEntry, len(pool))
	copy(out, pool)
	return out, nil
}

// LookupSurface returns every entry with the given surface form.
func (m *Memory) LookupSurface(_ context.Context, surface string) ([]types.VocabEntry, error) {
	pool := m.bySurface[surface]
	out := make([]types.VocabEntry, len(pool))
	copy(out, pool)
	return out, nil
}

// Tiers returns the non-empty tiers in ascending order.
func (m *Memory) Tiers() []int {
	tiers := make([]int, 0, len(m.byTier))
	for t := range m.byTier {
		tiers = append(tiers, t)
	}
	sort.Ints(tiers)
	return tiers
}

// Len returns the number of stored entries.
func (m *Memory) Len() int { return m.size }
