package engine

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/nathoo/kanjicrawl/engine/save"
	"github.com/nathoo/kanjicrawl/engine/state"
	"github.com/nathoo/kanjicrawl/types"
)

// Snapshot returns a read-only view of the current state. The view shares
// nothing with the state.
func (e *Engine) Snapshot() types.View {
	s := e.State
	levelXP, nextXP := e.rules.Progress(s.Player)
	v := types.View{
		Phase:       s.Phase,
		EndReason:   s.EndReason,
		Turn:        s.Turn,
		Floor:       s.Floor,
		Map:         state.CloneMap(s.Map),
		Player:      s.Player,
		Enemies:     append([]types.Enemy(nil), s.Enemies...),
		MaxTier:     e.model.TierForLevel(s.Player.Level),
		LevelXP:     levelXP,
		NextLevelXP: nextXP,
	}
	switch {
	case s.Encounter != nil:
		ev := e.encounterView(s.Encounter)
		v.Encounter = &ev
	case e.concluded != nil:
		ev := *e.concluded
		v.Encounter = &ev
	}
	return v
}

// encounterView projects an encounter. The answer and gloss are only
// revealed once the question has been resolved.
func (e *Engine) encounterView(enc *types.Encounter) types.EncounterView {
	v := types.EncounterView{
		EnemyID:     enc.EnemyID,
		State:       enc.State,
		Result:      enc.Result,
		Conclusion:  enc.Conclusion,
		Round:       enc.Round,
		Surface:     enc.Word.Surface,
		Input:       enc.Input,
		DamageDealt: enc.DamageDealt,
		DamageTaken: enc.DamageTaken,
		NearMiss:    enc.NearMiss,
	}
	if en, ok := state.Enemy(e.State, enc.EnemyID); ok {
		v.EnemyName = en.Name
		v.EnemyTier = en.Tier
		v.EnemyHP = en.HP
		v.EnemyMaxHP = en.MaxHP
	}
	if enc.Result != types.OutcomeNone {
		v.Gloss = enc.Word.Gloss
		v.Readings = append([]string(nil), enc.Word.Readings...)
	}
	return v
}

// EnemyGlyph is the map character of an enemy: the first letter of its
// name, lower-cased.
func EnemyGlyph(en types.Enemy) rune {
	r, _ := utf8.DecodeRuneInString(en.Name)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return 'e'
	}
	return unicode.ToLower(r)
}

// MapRows renders a view's map as text rows with '@' for the player and
// EnemyGlyph for enemies. Both front ends draw from it.
func MapRows(v types.View) []string {
	m := v.Map
	grid := make([][]rune, m.Height)
	for r := range grid {
		grid[r] = make([]rune, m.Width)
		for c := range grid[r] {
			grid[r][c] = rune(save.Glyph(m.Tiles[r*m.Width+c]))
		}
	}
	put := func(p types.Position, ch rune) {
		if state.InBounds(m, p) {
			grid[p.Row][p.Col] = ch
		}
	}
	for _, en := range v.Enemies {
		put(en.Pos, EnemyGlyph(en))
	}
	put(v.Player.Pos, '@')

	rows := make([]string, m.Height)
	for r := range grid {
		rows[r] = string(grid[r])
	}
	return rows
}

// DebugLines dumps the parts of the state a player may want to inspect.
func (e *Engine) DebugLines() []string {
	s := e.State
	p := s.Player
	lines := []string{
		fmt.Sprintf("Turn: %d  Floor: %d  Phase: %s", s.Turn, s.Floor, s.Phase),
		fmt.Sprintf("Player: (%d,%d) HP %d/%d  Lv %d  XP %d  Atk %d  Potions %d  Streak %d",
			p.Pos.Row, p.Pos.Col, p.HP, p.MaxHP, p.Level, p.XP, p.Attack, p.Potions, p.Streak),
		fmt.Sprintf("Enemies: %d  Max tier: %d  Words seen: %d", len(s.Enemies),
			e.model.TierForLevel(p.Level), len(s.Seen.Entries)),
		fmt.Sprintf("RNG: seed %d position %d", s.RNGSeed, e.RNG.Position()),
	}
	if enc := s.Encounter; enc != nil {
		lines = append(lines, fmt.Sprintf("Encounter: %s round %d (%d right, %d wrong)",
			enc.EnemyID, enc.Round, enc.Correct, enc.Incorrect))
	}
	return lines
}
