package engine

import (
	"github.com/nathoo/kanjicrawl/engine/events"
	"github.com/nathoo/kanjicrawl/engine/rng"
	"github.com/nathoo/kanjicrawl/engine/state"
	"github.com/nathoo/kanjicrawl/types"
)

// combatant is what an encounter needs from either side.
type combatant interface {
	attack() int
	takeDamage(n int) int
	alive() bool
}

// actor is a combatant that also acts on its own during the enemy phase.
type actor interface {
	combatant
	act(e *Engine, st *step)
}

type playerActor struct{ p *types.Player }

func (a playerActor) attack() int          { return a.p.Attack + a.p.Streak }
func (a playerActor) takeDamage(n int) int { return state.Damage(&a.p.Vitals, n) }
func (a playerActor) alive() bool          { return state.Alive(a.p.Vitals) }

type enemyActor struct{ e *types.Enemy }

func (a enemyActor) attack() int          { return a.e.Attack }
func (a enemyActor) takeDamage(n int) int { return state.Damage(&a.e.Vitals, n) }
func (a enemyActor) alive() bool          { return state.Alive(a.e.Vitals) }

// act moves the enemy one step: toward the player when within the aggro
// radius, otherwise a random step or a pause. Enemies walk on bare floor
// only and never onto another entity.
func (a enemyActor) act(e *Engine, st *step) {
	s := e.State
	en := a.e
	var to types.Position
	moved := false

	if state.Manhattan(en.Pos, s.Player.Pos) <= e.Balance.AggroRadius {
		cur := state.Manhattan(en.Pos, s.Player.Pos)
		for _, d := range state.Directions {
			n := types.Position{Row: en.Pos.Row + d.Row, Col: en.Pos.Col + d.Col}
			if state.Manhattan(n, s.Player.Pos) < cur && e.enemyCanEnter(n) {
				to, moved = n, true
				break
			}
		}
	} else if k := e.RNG.Intn(len(state.Directions) + 1); k < len(state.Directions) {
		d := state.Directions[k]
		n := types.Position{Row: en.Pos.Row + d.Row, Col: en.Pos.Col + d.Col}
		if e.enemyCanEnter(n) {
			to, moved = n, true
		}
	}

	if moved {
		en.Pos = to
		st.emit(events.EnemyMoved, "enemy", en.ID, "row", to.Row, "col", to.Col)
	}
}

var (
	_ actor     = enemyActor{}
	_ combatant = playerActor{}
)

func (e *Engine) enemyCanEnter(p types.Position) bool {
	return state.TileAt(e.State.Map, p) == types.TileFloor && !state.Occupied(e.State, p)
}

// enemyTurn lets every enemy not bound to an encounter act, in ID order.
func (e *Engine) enemyTurn(st *step) {
	for i := range e.State.Enemies {
		en := &e.State.Enemies[i]
		if en.Engaged || !state.Alive(en.Vitals) {
			continue
		}
		var a actor = enemyActor{en}
		a.act(e, st)
	}
}

// strike deals attacker's damage to defender and returns the amount taken.
func strike(attacker, defender combatant, variance int, r *rng.RNG) int {
	return defender.takeDamage(DamageCalc(attacker.attack(), variance, r))
}
