// Package loader loads Lua game content (balance, difficulty tiers and
// vocabulary) into Go structs. The Lua VM is discarded after loading; no Lua
// runs during play.
package loader

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/kanjicrawl/engine/state"
	"github.com/nathoo/kanjicrawl/types"
)

// rawTier holds a Tier table before compilation.
type rawTier struct {
	tier  int
	table *lua.LTable
}

// rawWord holds one vocabulary definition before compilation.
type rawWord struct {
	surface  string
	readings []string
	gloss    string
	tier     int
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getNumber returns a numeric field and whether it was set.
func getNumber(tbl *lua.LTable, key string) (float64, bool) {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return float64(n), true
	}
	return 0, false
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	n, _ := getNumber(tbl, key)
	return int(n)
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}

// setInt overwrites *dst with the field when it is present.
func setInt(tbl *lua.LTable, key string, dst *int) {
	if tbl == nil {
		return
	}
	if n, ok := getNumber(tbl, key); ok {
		*dst = int(n)
	}
}

func setFloat(tbl *lua.LTable, key string, dst *float64) {
	if tbl == nil {
		return
	}
	if n, ok := getNumber(tbl, key); ok {
		*dst = n
	}
}

// compile converts the collected Lua data into Content. Balance fields the
// content leaves out keep their defaults.
func compile(coll *collector) (*Content, error) {
	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	c := &Content{
		Info:    compileInfo(coll.game),
		Balance: compileBalance(coll.game),
	}

	if len(coll.tiers) > 0 {
		tiers, err := compileTiers(coll.tiers)
		if err != nil {
			return nil, err
		}
		c.Balance.Tiers = tiers
		// Content-defined tiers drop the default weights unless the
		// content supplies its own.
		if getTable(coll.game, "tier_weights") == nil {
			c.Balance.TierWeights = nil
		}
	}

	for _, w := range coll.words {
		c.Words = append(c.Words, types.VocabEntry{
			Surface:  w.surface,
			Readings: w.readings,
			Gloss:    w.gloss,
			Tier:     w.tier,
		})
	}
	return c, nil
}

func compileInfo(tbl *lua.LTable) types.GameInfo {
	return types.GameInfo{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Intro:   getString(tbl, "intro"),
	}
}

func compileBalance(tbl *lua.LTable) types.Balance {
	b := state.DefaultBalance()

	m := getTable(tbl, "map")
	setInt(m, "width", &b.MapWidth)
	setInt(m, "height", &b.MapHeight)
	setInt(m, "enemies", &b.EnemyCount)
	setInt(m, "items", &b.ItemCount)
	setInt(m, "spawn_distance", &b.SpawnDistance)
	setFloat(m, "floor_fraction", &b.FloorFraction)
	setInt(m, "potion_chance", &b.PotionChance)
	setInt(m, "aggro_radius", &b.AggroRadius)

	p := getTable(tbl, "player")
	setInt(p, "hp", &b.PlayerHP)
	setInt(p, "attack", &b.PlayerAttack)
	setInt(p, "hp_per_level", &b.HPPerLevel)
	setInt(p, "attack_per_level", &b.AttackPerLevel)

	cb := getTable(tbl, "combat")
	setInt(cb, "variance", &b.DamageVariance)
	setInt(cb, "herb_heal", &b.HerbHeal)
	setInt(cb, "potion_heal", &b.PotionHeal)

	pr := getTable(tbl, "progression")
	setInt(pr, "xp_base", &b.XPBase)
	setFloat(pr, "xp_growth", &b.XPGrowth)
	setInt(pr, "max_level", &b.MaxLevel)

	rv := getTable(tbl, "review")
	setFloat(rv, "floor", &b.DecayFloor)
	setFloat(rv, "half_life", &b.DecayHalfLife)
	setFloat(rv, "weak_bonus", &b.WeakBonus)

	if tw := getTable(tbl, "tier_weights"); tw != nil {
		b.TierWeights = compileWeights(tw)
	}
	return b
}

// compileWeights reads a list of integer lists.
func compileWeights(tbl *lua.LTable) [][]int {
	out := make([][]int, 0, tbl.MaxN())
	for i := 1; i <= tbl.MaxN(); i++ {
		row, _ := tbl.RawGetInt(i).(*lua.LTable)
		var ws []int
		if row != nil {
			for j := 1; j <= row.MaxN(); j++ {
				n, _ := row.RawGetInt(j).(lua.LNumber)
				ws = append(ws, int(n))
			}
		}
		out = append(out, ws)
	}
	return out
}

// compileTiers orders tier definitions by tier number. Gaps and duplicates
// are left for validate to report.
func compileTiers(raws []rawTier) ([]types.TierDef, error) {
	sorted := append([]rawTier(nil), raws...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].tier < sorted[j].tier })

	defaults := state.DefaultBalance().Tiers
	tiers := make([]types.TierDef, 0, len(sorted))
	for _, raw := range sorted {
		td := types.TierDef{Tier: raw.tier, UnlockLevel: 1}
		if raw.tier >= 1 && raw.tier <= len(defaults) {
			td = defaults[raw.tier-1]
		}
		setInt(raw.table, "unlock_level", &td.UnlockLevel)
		if en := getTable(raw.table, "enemy"); en != nil {
			if name := getString(en, "name"); name != "" {
				td.Enemy.Name = name
			}
			setInt(en, "hp", &td.Enemy.HP)
			setInt(en, "attack", &td.Enemy.Attack)
			setInt(en, "xp", &td.Enemy.Reward)
		} else if raw.tier > len(defaults) {
			return nil, fmt.Errorf("tier %d needs an enemy = { ... } table", raw.tier)
		}
		tiers = append(tiers, td)
	}
	return tiers, nil
}

// sortedLuaFiles returns .lua files with game.lua first and the rest sorted
// alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
