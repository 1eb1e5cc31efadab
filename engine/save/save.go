// Package save implements JSON serialization and deserialization of game state.
//
// A save holds everything needed to resume a run exactly: the map as glyph
// rows, every entity, the active encounter, the review history and the RNG
// seed and position. Encoding is deterministic, so equal states produce
// equal bytes.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nathoo/kanjicrawl/engine/state"
	"github.com/nathoo/kanjicrawl/types"
)

// FormatVersion is bumped whenever the layout of SaveData changes.
const FormatVersion = 1

// DefaultSlot is the slot used when none is named.
const DefaultSlot = "quicksave"

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Format      int               `json:"format"`
	Game        string            `json:"game"`
	Turn        int               `json:"turn"`
	Floor       int               `json:"floor"`
	Phase       types.Phase       `json:"phase"`
	EndReason   string            `json:"end_reason,omitempty"`
	Map         []string          `json:"map"`
	Player      types.Player      `json:"player"`
	Enemies     []types.Enemy     `json:"enemies"`
	Encounter   *types.Encounter  `json:"encounter,omitempty"`
	Seen        types.SeenHistory `json:"seen"`
	NextEnemyID int               `json:"next_enemy_id"`
	RNGSeed     int64             `json:"rng_seed"`
	RNGPosition int64             `json:"rng_position"`
}

var glyphs = map[types.Tile]byte{
	types.TileEmpty:  ' ',
	types.TileWall:   '#',
	types.TileFloor:  '.',
	types.TileExit:   '>',
	types.TileHerb:   '!',
	types.TilePotion: '+',
}

// Glyph returns the save-file character for a tile.
func Glyph(t types.Tile) byte {
	if g, ok := glyphs[t]; ok {
		return g
	}
	return '?'
}

// EncodeMap renders m as one string per row.
func EncodeMap(m types.Map) []string {
	rows := make([]string, m.Height)
	buf := make([]byte, m.Width)
	for r := 0; r < m.Height; r++ {
		for c := 0; c < m.Width; c++ {
			buf[c] = Glyph(m.Tiles[r*m.Width+c])
		}
		rows[r] = string(buf)
	}
	return rows
}

// DecodeMap parses rows produced by EncodeMap.
func DecodeMap(rows []string) (types.Map, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return types.Map{}, errors.New("empty map")
	}
	byGlyph := make(map[byte]types.Tile, len(glyphs))
	for t, g := range glyphs {
		byGlyph[g] = t
	}
	m := state.NewMap(len(rows[0]), len(rows))
	for r, row := range rows {
		if len(row) != m.Width {
			return types.Map{}, fmt.Errorf("map row %d has width %d, want %d", r, len(row), m.Width)
		}
		for c := 0; c < len(row); c++ {
			t, ok := byGlyph[row[c]]
			if !ok {
				return types.Map{}, fmt.Errorf("map row %d col %d: unknown glyph %q", r, c, row[c])
			}
			m.Tiles[r*m.Width+c] = t
		}
	}
	return m, nil
}

// Save serializes game state to JSON bytes. game names the content the run
// was played with.
func Save(s *types.GameState, game string) ([]byte, error) {
	seen := s.Seen
	if seen.Entries == nil {
		seen.Entries = map[string]types.SeenRecord{}
	}
	enemies := s.Enemies
	if enemies == nil {
		enemies = []types.Enemy{}
	}
	data := SaveData{
		Format:      FormatVersion,
		Game:        game,
		Turn:        s.Turn,
		Floor:       s.Floor,
		Phase:       s.Phase,
		EndReason:   s.EndReason,
		Map:         EncodeMap(s.Map),
		Player:      s.Player,
		Enemies:     enemies,
		Encounter:   s.Encounter,
		Seen:        seen,
		NextEnemyID: s.NextEnemyID,
		RNGSeed:     s.RNGSeed,
		RNGPosition: s.RNGPosition,
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes and validates a save. Any failure is reported as a
// *types.CorruptSaveError.
func Load(data []byte) (*types.GameState, *SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, nil, &types.CorruptSaveError{Err: err}
	}
	if sd.Format != FormatVersion {
		return nil, nil, &types.CorruptSaveError{Err: fmt.Errorf("format %d, want %d", sd.Format, FormatVersion)}
	}
	m, err := DecodeMap(sd.Map)
	if err != nil {
		return nil, nil, &types.CorruptSaveError{Err: err}
	}
	if sd.Phase > types.PhaseGameOver {
		return nil, nil, &types.CorruptSaveError{Err: fmt.Errorf("unknown phase %d", sd.Phase)}
	}
	if sd.Turn < 0 || sd.Floor < 1 || sd.NextEnemyID < 0 || sd.RNGPosition < 0 || sd.Seen.Clock < 0 {
		return nil, nil, &types.CorruptSaveError{Err: errors.New("counters out of range")}
	}

	if sd.Enemies == nil {
		sd.Enemies = []types.Enemy{}
	}
	if sd.Seen.Entries == nil {
		sd.Seen.Entries = map[string]types.SeenRecord{}
	}
	s := &types.GameState{
		Map:         m,
		Player:      sd.Player,
		Enemies:     sd.Enemies,
		Encounter:   sd.Encounter,
		Seen:        sd.Seen,
		Phase:       sd.Phase,
		EndReason:   sd.EndReason,
		Turn:        sd.Turn,
		Floor:       sd.Floor,
		NextEnemyID: sd.NextEnemyID,
		RNGSeed:     sd.RNGSeed,
		RNGPosition: sd.RNGPosition,
	}
	if err := state.Check(s); err != nil {
		return nil, nil, &types.CorruptSaveError{Err: err}
	}
	return s, &sd, nil
}

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// SlotPath returns the file for a named slot in dir. An empty name selects
// DefaultSlot; names outside [A-Za-z0-9_-] are rejected.
func SlotPath(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSlot
	}
	if !slotPattern.MatchString(name) {
		return "", fmt.Errorf("invalid save name %q", name)
	}
	return filepath.Join(dir, name+".json"), nil
}

// WriteSlot writes data to the named slot, replacing it atomically.
func WriteSlot(dir, name string, data []byte) (string, error) {
	path, err := SlotPath(dir, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// ReadSlot reads the named slot.
func ReadSlot(dir, name string) ([]byte, error) {
	path, err := SlotPath(dir, name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
