package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the content constructors as globals:
//
//	Game { title = "...", map = {...}, player = {...}, ... }
//	Tier(2) { unlock_level = 3, enemy = { name = "Goblin", hp = 8, attack = 5, xp = 20 } }
//	Word "水" { reading = "みず", gloss = "water", tier = 1 }
//	Words { tier = 1, { "火", "ひ", "fire" }, { "今日", { "きょう", "こんにち" }, "today" } }
func registerAPI(L *lua.LState, coll *collector) {
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Tier(n) { ... }: curried, Tier(n) returns a function that takes a table.
	L.SetGlobal("Tier", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.tiers = append(coll.tiers, rawTier{tier: n, table: tbl})
			return 0
		}))
		return 1
	}))

	// Word "surface" { ... }: curried.
	L.SetGlobal("Word", L.NewFunction(func(L *lua.LState) int {
		surface := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.words = append(coll.words, rawWord{
				surface:  surface,
				readings: readingsOf(tbl.RawGetString("readings"), tbl.RawGetString("reading")),
				gloss:    getString(tbl, "gloss"),
				tier:     getInt(tbl, "tier"),
			})
			return 0
		}))
		return 1
	}))

	// Words { tier = n, { surface, reading(s), gloss }, ... }
	L.SetGlobal("Words", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		tier := getInt(tbl, "tier")
		for i := 1; i <= tbl.MaxN(); i++ {
			row, ok := tbl.RawGetInt(i).(*lua.LTable)
			if !ok {
				L.ArgError(1, "Words entries must be { surface, reading, gloss } tables")
				return 0
			}
			surface, _ := row.RawGetInt(1).(lua.LString)
			gloss, _ := row.RawGetInt(3).(lua.LString)
			coll.words = append(coll.words, rawWord{
				surface:  string(surface),
				readings: readingsOf(row.RawGetInt(2), lua.LNil),
				gloss:    string(gloss),
				tier:     tier,
			})
		}
		return 0
	}))
}

// readingsOf accepts a list of readings, a single reading, or both.
func readingsOf(list, single lua.LValue) []string {
	var out []string
	switch v := list.(type) {
	case lua.LString:
		out = append(out, string(v))
	case *lua.LTable:
		for i := 1; i <= v.MaxN(); i++ {
			if s, ok := v.RawGetInt(i).(lua.LString); ok {
				out = append(out, string(s))
			}
		}
	}
	if s, ok := single.(lua.LString); ok {
		out = append(out, string(s))
	}
	return out
}
