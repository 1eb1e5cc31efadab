// Package difficulty decides which vocabulary the player faces: the tiers
// unlocked at a level, the tier an enemy spawns with, and which word of a
// tier to ask next.
//
// Word selection is a weighted draw over the tier's pool. Words never seen
// weigh 1. A word just presented weighs Floor, recovering toward 1 with a
// half-life of HalfLife questions:
//
//	w = Floor + (1-Floor) * (1 - 2^(-elapsed/HalfLife))
//
// Each past miss multiplies the weight by (1 + WeakBonus) so weak words come
// back sooner. The weight of a seen word is strictly increasing in elapsed
// and never below Floor, so no word is excluded for good.
package difficulty

import (
	"context"
	"fmt"
	"math"

	"github.com/nathoo/kanjicrawl/engine/rng"
	"github.com/nathoo/kanjicrawl/lexicon"
	"github.com/nathoo/kanjicrawl/types"
)

// weightScale converts float weights to the integer weights the RNG draws
// from. A weight of Floor=0.05 becomes 50.
const weightScale = 1000

// Params configure the model.
type Params struct {
	Unlocks     []int   // Unlocks[t-1] is the level at which tier t unlocks
	TierWeights [][]int // TierWeights[max-1] are spawn weights for tiers 1..max
	Floor       float64 // weight of a word presented this very question, in (0, 1]
	HalfLife    float64 // questions for a seen word to recover half its weight
	WeakBonus   float64 // weight multiplier per recorded miss
}

// FromBalance extracts the model parameters from a balance table.
func FromBalance(b types.Balance) Params {
	unlocks := make([]int, len(b.Tiers))
	for i, t := range b.Tiers {
		unlocks[i] = t.UnlockLevel
	}
	return Params{
		Unlocks:     unlocks,
		TierWeights: b.TierWeights,
		Floor:       b.DecayFloor,
		HalfLife:    b.DecayHalfLife,
		WeakBonus:   b.WeakBonus,
	}
}

// Model is the difficulty model. It holds no mutable state; the history
// and generator are passed in by the caller.
type Model struct {
	p  Params
	gw lexicon.Gateway
}

// New returns a model drawing vocabulary from gw.
func New(p Params, gw lexicon.Gateway) *Model {
	if p.Floor <= 0 || p.Floor > 1 {
		p.Floor = 0.05
	}
	if p.HalfLife <= 0 {
		p.HalfLife = 6
	}
	if p.WeakBonus < 0 {
		p.WeakBonus = 0
	}
	if len(p.Unlocks) == 0 {
		p.Unlocks = []int{1}
	}
	return &Model{p: p, gw: gw}
}

// TierForLevel returns the highest tier unlocked at level. It is a
// non-decreasing step function and is at least 1.
func (m *Model) TierForLevel(level int) int {
	tier := 1
	for i, at := range m.p.Unlocks {
		if level >= at && i+1 > tier {
			tier = i + 1
		}
	}
	return tier
}

// EnemyTier rolls the tier of a newly spawned enemy for a player of the
// given level. Without configured weights every unlocked tier is equally
// likely.
func (m *Model) EnemyTier(level int, r *rng.RNG) int {
	maxTier := m.TierForLevel(level)
	if maxTier == 1 {
		return 1
	}
	var weights []int
	if maxTier-1 < len(m.p.TierWeights) {
		weights = m.p.TierWeights[maxTier-1]
	}
	if len(weights) != maxTier || !positive(weights) {
		weights = make([]int, maxTier)
		for i := range weights {
			weights[i] = 1
		}
	}
	return r.WeightedSelect(weights) + 1
}

// SelectWord draws a word of the given tier, falling back to lower tiers
// when the pool is empty. A gateway error counts as an empty pool. It
// returns an error wrapping types.ErrNoVocabulary when every tier from tier
// down to 1 is empty, or ctx's error if it is done.
func (m *Model) SelectWord(ctx context.Context, tier int, seen *types.SeenHistory, r *rng.RNG) (types.VocabEntry, int, error) {
	var lastErr error
	for t := tier; t >= 1; t-- {
		if err := ctx.Err(); err != nil {
			return types.VocabEntry{}, 0, err
		}
		pool, err := m.gw.Lookup(ctx, t)
		if err != nil {
			lastErr = err
			continue
		}
		if len(pool) == 0 {
			continue
		}
		weights := make([]int, len(pool))
		for i, e := range pool {
			weights[i] = scaled(m.Weight(seen, e.ID))
		}
		return pool[r.WeightedSelect(weights)], t, nil
	}
	if lastErr != nil {
		return types.VocabEntry{}, 0, fmt.Errorf("tier %d: %w (last lookup error: %v)", tier, types.ErrNoVocabulary, lastErr)
	}
	return types.VocabEntry{}, 0, fmt.Errorf("tier %d: %w", tier, types.ErrNoVocabulary)
}

// Weight returns the selection weight of the entry with the given ID.
func (m *Model) Weight(seen *types.SeenHistory, id string) float64 {
	if seen == nil {
		return 1
	}
	rec, ok := seen.Entries[id]
	if !ok {
		return 1
	}
	elapsed := float64(seen.Clock - rec.LastSeen)
	if elapsed < 0 {
		elapsed = 0
	}
	w := m.p.Floor + (1-m.p.Floor)*(1-math.Exp2(-elapsed/m.p.HalfLife))
	return w * (1 + m.p.WeakBonus*float64(rec.Misses))
}

// RecordSeen advances the history clock and stamps e as presented now.
func RecordSeen(seen *types.SeenHistory, e types.VocabEntry) {
	if seen.Entries == nil {
		seen.Entries = map[string]types.SeenRecord{}
	}
	seen.Clock++
	rec := seen.Entries[e.ID]
	rec.LastSeen = seen.Clock
	rec.Times++
	seen.Entries[e.ID] = rec
}

// RecordMiss notes an incorrect answer for e.
func RecordMiss(seen *types.SeenHistory, e types.VocabEntry) {
	if seen.Entries == nil {
		seen.Entries = map[string]types.SeenRecord{}
	}
	rec := seen.Entries[e.ID]
	rec.Misses++
	seen.Entries[e.ID] = rec
}

func scaled(w float64) int {
	n := int(math.Round(w * weightScale))
	if n < 1 {
		n = 1
	}
	return n
}

func positive(ws []int) bool {
	for _, w := range ws {
		if w <= 0 {
			return false
		}
	}
	return true
}
