package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/nathoo/kanjicrawl/engine/dungeon"
	"github.com/nathoo/kanjicrawl/engine/events"
	"github.com/nathoo/kanjicrawl/engine/state"
	"github.com/nathoo/kanjicrawl/types"
)

// maxGenerationAttempts bounds the relax-and-retry loop.
const maxGenerationAttempts = 64

// floorParams returns the generation parameters for a new floor.
func (e *Engine) floorParams(seed int64) dungeon.Params {
	b := e.Balance
	return dungeon.Params{
		Width:         b.MapWidth,
		Height:        b.MapHeight,
		Seed:          seed,
		Enemies:       b.EnemyCount,
		Items:         b.ItemCount,
		SpawnDistance: b.SpawnDistance,
		Exit:          true,
		FloorFraction: b.FloorFraction,
		PotionChance:  b.PotionChance,
	}
}

// relax loosens one constraint: spawn distance first, then pickups, then
// enemies (never below one). ok is false when nothing is left to give.
func relax(p dungeon.Params) (dungeon.Params, bool) {
	switch {
	case p.SpawnDistance > 1:
		p.SpawnDistance--
	case p.Items > 0:
		p.Items--
	case p.Enemies > 1:
		p.Enemies--
	default:
		return p, false
	}
	return p, true
}

// generate runs the generator, retrying with relaxed parameters on a
// GenerationError. Each retry uses the next seed so the sequence is
// deterministic.
func (e *Engine) generate(p dungeon.Params) (*dungeon.Layout, []types.Event, error) {
	var evs []types.Event
	for attempt := 1; ; attempt++ {
		l, err := dungeon.Generate(p)
		if err == nil {
			return l, evs, nil
		}
		var ge *types.GenerationError
		if !errors.As(err, &ge) {
			return nil, evs, err
		}
		next, ok := relax(p)
		if !ok || attempt >= maxGenerationAttempts {
			return nil, evs, fmt.Errorf("generate floor after %d attempts: %w", attempt, err)
		}
		e.log.Warn("map generation failed; relaxing", "attempt", attempt, "reason", ge.Reason,
			"spawn_distance", next.SpawnDistance, "items", next.Items, "enemies", next.Enemies)
		evs = append(evs, events.New(events.GenerationRetry, "attempt", attempt, "reason", ge.Reason))
		p = next
		p.Seed++
	}
}

// newFloor replaces the map and enemies with a freshly generated floor and
// puts the player on its spawn. The state is untouched on error.
func (e *Engine) newFloor(ctx context.Context) ([]types.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l, evs, err := e.generate(e.floorParams(e.RNG.Int63()))
	if err != nil {
		return evs, err
	}

	s := e.State
	s.Map = l.Map
	s.Player.Pos = l.Spawn
	s.Encounter = nil
	s.Enemies = make([]types.Enemy, 0, len(l.Enemies))
	for _, pos := range l.Enemies {
		s.Enemies = append(s.Enemies, e.spawnEnemy(pos))
	}
	return evs, nil
}

// spawnEnemy creates an enemy whose tier is rolled for the player's level.
func (e *Engine) spawnEnemy(pos types.Position) types.Enemy {
	tier := e.model.EnemyTier(e.State.Player.Level, e.RNG)
	def := state.TierDef(e.Balance, tier).Enemy
	e.State.NextEnemyID++
	name := def.Name
	if name == "" {
		name = "Monster"
	}
	hp := def.HP
	if hp < 1 {
		hp = 1
	}
	return types.Enemy{
		ID:     fmt.Sprintf("e%d", e.State.NextEnemyID),
		Name:   name,
		Tier:   tier,
		Pos:    pos,
		Vitals: types.Vitals{HP: hp, MaxHP: hp},
		Attack: def.Attack,
		Reward: def.Reward,
	}
}

// descend moves the player to a new floor. Player stats carry over.
func (e *Engine) descend(ctx context.Context, st *step) error {
	evs, err := e.newFloor(ctx)
	st.evs = append(st.evs, evs...)
	if err != nil {
		return err
	}
	e.State.Floor++
	st.emit(events.FloorDescended, "floor", e.State.Floor)
	st.say("You descend to floor %d.", e.State.Floor)
	e.log.Info("descended", "floor", e.State.Floor, "enemies", len(e.State.Enemies))
	return nil
}
