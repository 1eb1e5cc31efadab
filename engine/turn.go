package engine

import (
	"context"
	"errors"

	"github.com/nathoo/kanjicrawl/engine/events"
	"github.com/nathoo/kanjicrawl/engine/state"
	"github.com/nathoo/kanjicrawl/types"
)

// moveOffsets maps movement actions to grid offsets.
var moveOffsets = map[types.ActionKind]types.Position{
	types.ActionMoveUp:    {Row: -1},
	types.ActionMoveDown:  {Row: 1},
	types.ActionMoveLeft:  {Col: -1},
	types.ActionMoveRight: {Col: 1},
}

func (e *Engine) stepPlayerTurn(ctx context.Context, a types.Action, st *step) error {
	switch a.Kind {
	case types.ActionMoveUp, types.ActionMoveDown, types.ActionMoveLeft, types.ActionMoveRight:
		return e.attemptMove(ctx, moveOffsets[a.Kind], st)
	case types.ActionWait:
		st.say("You wait.")
		e.endPlayerTurn(st)
		return nil
	case types.ActionUsePotion:
		if err := e.usePotion(st); err != nil {
			return err
		}
		e.endPlayerTurn(st)
		return nil
	case types.ActionQuit:
		e.quit(st)
		return nil
	case types.ActionSubmitText, types.ActionConfirm, types.ActionFlee:
		return invalid(st, "There is nothing to answer. Move into an enemy to fight it.")
	default:
		return invalid(st, "Nothing happens.")
	}
}

// attemptMove resolves one step of the player. Walls and the map edge block
// without using the turn. Stepping into an enemy starts an encounter
// instead of moving. Pickups are consumed on arrival and the exit leads to
// the next floor.
func (e *Engine) attemptMove(ctx context.Context, d types.Position, st *step) error {
	s := e.State
	from := s.Player.Pos
	to := types.Position{Row: from.Row + d.Row, Col: from.Col + d.Col}

	tile := state.TileAt(s.Map, to)
	if !state.Walkable(tile) {
		st.move = types.MoveBlocked
		st.emit(events.MoveBlocked, "row", to.Row, "col", to.Col)
		st.say("The way is blocked.")
		return nil
	}

	if idx := state.EnemyAt(s, to); idx >= 0 {
		err := e.initiate(ctx, idx, st)
		switch {
		case err == nil:
			st.move = types.MoveEngaged
			return nil
		case errors.Is(err, types.ErrNoVocabulary):
			st.move = types.MoveSkipped
			en := s.Enemies[idx]
			st.emit(events.EncounterSkipped, "enemy", en.ID, "reason", "no vocabulary")
			st.say("The %s has nothing to ask you (no vocabulary available). The encounter is skipped.", en.Name)
			e.log.Warn("encounter skipped", "enemy", en.ID, "tier", en.Tier, "err", err)
			e.endPlayerTurn(st)
			return nil
		default:
			return err
		}
	}

	s.Player.Pos = to
	st.move = types.MoveMoved
	st.emit(events.PlayerMoved, "row", to.Row, "col", to.Col)

	switch tile {
	case types.TileHerb:
		healed := state.Heal(&s.Player.Vitals, e.Balance.HerbHeal)
		state.SetTile(&s.Map, to, types.TileFloor)
		st.move = types.MovePickedUp
		st.emit(events.ItemPicked, "kind", "herb", "healed", healed)
		st.say("You eat a healing herb and recover %d HP.", healed)
	case types.TilePotion:
		s.Player.Potions++
		state.SetTile(&s.Map, to, types.TileFloor)
		st.move = types.MovePickedUp
		st.emit(events.ItemPicked, "kind", "potion", "potions", s.Player.Potions)
		st.say("You pick up a potion.")
	case types.TileExit:
		if err := e.descend(ctx, st); err != nil {
			return err
		}
		st.move = types.MoveDescended
		s.Turn++
		return nil
	}

	e.endPlayerTurn(st)
	return nil
}

// endPlayerTurn runs the enemy phase and closes the turn.
func (e *Engine) endPlayerTurn(st *step) {
	s := e.State
	s.Phase = types.PhaseEnemyTurn
	e.enemyTurn(st)
	s.Phase = types.PhasePlayerTurn
	s.Turn++
}
