// Package rng provides the single seeded generator a run draws all of its
// randomness from: map layout, enemy movement, damage variance and word
// sampling.
package rng

import "math/rand"

// countingSource counts every step taken on the underlying source, so the
// exact generator state can be reproduced from (seed, position).
type countingSource struct {
	src rand.Source64
	n   int64
}

func (c *countingSource) Int63() int64 {
	c.n++
	return c.src.Int63()
}

func (c *countingSource) Uint64() uint64 {
	c.n++
	return c.src.Uint64()
}

func (c *countingSource) Seed(seed int64) {
	c.src.Seed(seed)
	c.n = 0
}

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position counts source steps, enabling save/restore.
type RNG struct {
	seed int64
	cs   *countingSource
	src  *rand.Rand
}

// New creates a new deterministic RNG from a seed.
func New(seed int64) *RNG {
	cs := &countingSource{src: rand.NewSource(seed).(rand.Source64)}
	return &RNG{
		seed: seed,
		cs:   cs,
		src:  rand.New(cs),
	}
}

// Intn returns a random integer in [0, n). n must be positive.
func (r *RNG) Intn(n int) int {
	return r.src.Intn(n)
}

// Int63 returns a non-negative random int64, used to derive child seeds.
func (r *RNG) Int63() int64 {
	return r.src.Int63()
}

// Roll returns a random integer in [1, sides].
func (r *RNG) Roll(sides int) int {
	return r.src.Intn(sides) + 1
}

// Shuffle permutes n elements through swap.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	r.src.Shuffle(n, swap)
}

// WeightedSelect returns an index chosen by weighted random selection.
// weights must be non-empty with all positive values.
func (r *RNG) WeightedSelect(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	roll := r.src.Intn(total)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// Seed returns the seed the generator was created from.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of source steps taken since creation.
func (r *RNG) Position() int64 {
	return r.cs.n
}

// Restore creates an RNG and advances it to the given position.
// This reproduces the exact RNG state for save/load.
func Restore(seed int64, position int64) *RNG {
	r := New(seed)
	for i := int64(0); i < position; i++ {
		r.cs.src.Int63()
	}
	r.cs.n = position
	return r
}
