package state

import "github.com/nathoo/kanjicrawl/types"

// NewMap returns a w×h map filled with walls.
func NewMap(w, h int) types.Map {
	tiles := make([]types.Tile, w*h)
	for i := range tiles {
		tiles[i] = types.TileWall
	}
	return types.Map{Width: w, Height: h, Tiles: tiles}
}

// CloneMap returns a deep copy of m.
func CloneMap(m types.Map) types.Map {
	out := m
	out.Tiles = append([]types.Tile(nil), m.Tiles...)
	return out
}

// InBounds reports whether p lies on the map.
func InBounds(m types.Map, p types.Position) bool {
	return p.Row >= 0 && p.Row < m.Height && p.Col >= 0 && p.Col < m.Width
}

// TileAt returns the tile at p; positions off the map read as TileEmpty.
func TileAt(m types.Map, p types.Position) types.Tile {
	if !InBounds(m, p) {
		return types.TileEmpty
	}
	return m.Tiles[p.Row*m.Width+p.Col]
}

// SetTile writes t at p. Positions off the map are ignored.
func SetTile(m *types.Map, p types.Position, t types.Tile) {
	if InBounds(*m, p) {
		m.Tiles[p.Row*m.Width+p.Col] = t
	}
}

// Walkable reports whether an actor may stand on t. Pickups and the exit
// are floor with something on it.
func Walkable(t types.Tile) bool {
	switch t {
	case types.TileFloor, types.TileExit, types.TileHerb, types.TilePotion:
		return true
	}
	return false
}

// Neighbours returns the in-bounds orthogonal neighbours of p in the fixed
// order up, down, left, right.
func Neighbours(m types.Map, p types.Position) []types.Position {
	out := make([]types.Position, 0, 4)
	for _, d := range Directions {
		n := types.Position{Row: p.Row + d.Row, Col: p.Col + d.Col}
		if InBounds(m, n) {
			out = append(out, n)
		}
	}
	return out
}

// Directions are the unit offsets up, down, left, right.
var Directions = [4]types.Position{
	{Row: -1, Col: 0},
	{Row: 1, Col: 0},
	{Row: 0, Col: -1},
	{Row: 0, Col: 1},
}

// Reachable flood-fills walkable tiles from start and returns the set
// visited. A non-walkable start yields an empty set.
func Reachable(m types.Map, start types.Position) map[types.Position]bool {
	seen := map[types.Position]bool{}
	if !Walkable(TileAt(m, start)) {
		return seen
	}
	queue := []types.Position{start}
	seen[start] = true
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range Neighbours(m, p) {
			if !seen[n] && Walkable(TileAt(m, n)) {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}

// Distances returns the BFS step distance from start to every reachable
// walkable tile.
func Distances(m types.Map, start types.Position) map[types.Position]int {
	dist := map[types.Position]int{}
	if !Walkable(TileAt(m, start)) {
		return dist
	}
	queue := []types.Position{start}
	dist[start] = 0
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range Neighbours(m, p) {
			if _, ok := dist[n]; !ok && Walkable(TileAt(m, n)) {
				dist[n] = dist[p] + 1
				queue = append(queue, n)
			}
		}
	}
	return dist
}

// Connected reports whether every walkable tile is reachable from start.
func Connected(m types.Map, start types.Position) bool {
	reach := Reachable(m, start)
	if len(reach) == 0 {
		return false
	}
	for i, t := range m.Tiles {
		if Walkable(t) && !reach[types.Position{Row: i / m.Width, Col: i % m.Width}] {
			return false
		}
	}
	return true
}

// CountTiles returns how many tiles satisfy keep.
func CountTiles(m types.Map, keep func(types.Tile) bool) int {
	n := 0
	for _, t := range m.Tiles {
		if keep(t) {
			n++
		}
	}
	return n
}
