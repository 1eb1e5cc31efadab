// Package dungeon generates floor layouts.
//
// A layout is carved by a random walk from the map centre, so the carved
// floor is always a single connected component. Entities are then placed on
// distinct floor tiles: the spawn first, enemies at least SpawnDistance
// steps away from it, pickups on what remains and the exit on the remaining
// tile farthest from the spawn. The same Params always produce the same
// Layout.
package dungeon

import (
	"fmt"

	"github.com/nathoo/kanjicrawl/engine/rng"
	"github.com/nathoo/kanjicrawl/engine/state"
	"github.com/nathoo/kanjicrawl/types"
)

// MinSize is the smallest width or height accepted: a one-tile wall border
// around a 3×3 interior.
const MinSize = 5

// Params are the generation inputs.
type Params struct {
	Width         int
	Height        int
	Seed          int64
	Enemies       int
	Items         int
	SpawnDistance int     // minimum path distance between spawn and any enemy
	Exit          bool    // place an exit tile
	FloorFraction float64 // share of the interior to carve; 0 carves the minimum
	PotionChance  int     // percent of pickups that are potions
}

// Item is a pickup placement.
type Item struct {
	Pos  types.Position
	Kind types.Tile
}

// Layout is a generated floor. Pickups and the exit are also written into
// Map; enemy positions are not.
type Layout struct {
	Map     types.Map
	Spawn   types.Position
	Enemies []types.Position
	Items   []Item
	Exit    types.Position
	HasExit bool
}

// Generate builds a layout from p. It returns a *types.GenerationError when
// the constraints cannot be met; the caller decides how to relax them.
func Generate(p Params) (*Layout, error) {
	fail := func(format string, args ...any) error {
		return &types.GenerationError{
			Width: p.Width, Height: p.Height,
			Enemies: p.Enemies, Items: p.Items,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	if p.Width < MinSize || p.Height < MinSize {
		return nil, fail("map must be at least %dx%d", MinSize, MinSize)
	}
	if p.Enemies < 0 || p.Items < 0 {
		return nil, fail("negative entity count")
	}
	interior := (p.Width - 2) * (p.Height - 2)
	need := 1 + p.Enemies + p.Items
	if p.Exit {
		need++
	}
	if need > interior {
		return nil, fail("%d entities do not fit in %d interior tiles", need, interior)
	}

	r := rng.New(p.Seed)
	m, floors := carve(p, r, need, interior)
	if len(floors) < need {
		return nil, fail("carved %d floor tiles, need %d", len(floors), need)
	}

	l := &Layout{Map: m}
	l.Spawn = floors[r.Intn(len(floors))]
	dist := state.Distances(m, l.Spawn)

	var far []types.Position
	for _, f := range floors {
		if f != l.Spawn && dist[f] >= p.SpawnDistance {
			far = append(far, f)
		}
	}
	if len(far) < p.Enemies {
		return nil, fail("only %d tiles at distance %d from spawn, need %d", len(far), p.SpawnDistance, p.Enemies)
	}
	r.Shuffle(len(far), func(i, j int) { far[i], far[j] = far[j], far[i] })
	l.Enemies = append([]types.Position{}, far[:p.Enemies]...)

	used := map[types.Position]bool{l.Spawn: true}
	for _, e := range l.Enemies {
		used[e] = true
	}
	var free []types.Position
	for _, f := range floors {
		if !used[f] {
			free = append(free, f)
		}
	}
	r.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	l.Items = make([]Item, 0, p.Items)
	for _, pos := range free[:p.Items] {
		kind := types.TileHerb
		if r.Intn(100) < p.PotionChance {
			kind = types.TilePotion
		}
		state.SetTile(&l.Map, pos, kind)
		l.Items = append(l.Items, Item{Pos: pos, Kind: kind})
		used[pos] = true
	}

	if p.Exit {
		best := -1
		for _, f := range floors {
			if !used[f] && dist[f] > best {
				best = dist[f]
				l.Exit = f
			}
		}
		state.SetTile(&l.Map, l.Exit, types.TileExit)
		l.HasExit = true
	}
	return l, nil
}

// carve runs the walk and returns the map with the carved floor tiles in
// row-major order.
func carve(p Params, r *rng.RNG, need, interior int) (types.Map, []types.Position) {
	target := int(p.FloorFraction * float64(interior))
	if target < need {
		target = need
	}
	if target > interior {
		target = interior
	}

	m := state.NewMap(p.Width, p.Height)
	pos := types.Position{Row: p.Height / 2, Col: p.Width / 2}
	state.SetTile(&m, pos, types.TileFloor)
	carved := 1

	limit := p.Width * p.Height * 64
	for step := 0; carved < target && step < limit; step++ {
		d := state.Directions[r.Intn(len(state.Directions))]
		pos.Row = clamp(pos.Row+d.Row, 1, p.Height-2)
		pos.Col = clamp(pos.Col+d.Col, 1, p.Width-2)
		if state.TileAt(m, pos) != types.TileFloor {
			state.SetTile(&m, pos, types.TileFloor)
			carved++
		}
	}

	floors := make([]types.Position, 0, carved)
	for i, t := range m.Tiles {
		if t == types.TileFloor {
			floors = append(floors, types.Position{Row: i / m.Width, Col: i % m.Width})
		}
	}
	return m, floors
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
