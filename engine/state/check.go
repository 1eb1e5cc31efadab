package state

import (
	"errors"
	"fmt"

	"github.com/nathoo/kanjicrawl/types"
)

// Check verifies the structural invariants of a game state: map shape,
// entity placement, HP ranges, encounter binding and floor connectivity.
// Every violation found is reported, joined into one error.
func Check(s *types.GameState) error {
	var errs []error
	m := s.Map

	if m.Width < 1 || m.Height < 1 || len(m.Tiles) != m.Width*m.Height {
		return fmt.Errorf("map is %dx%d with %d tiles", m.Width, m.Height, len(m.Tiles))
	}
	for i, t := range m.Tiles {
		if t > types.TilePotion {
			errs = append(errs, fmt.Errorf("tile %d has unknown kind %d", i, t))
		}
	}

	p := s.Player
	if !Walkable(TileAt(m, p.Pos)) {
		errs = append(errs, fmt.Errorf("player at %v is not on floor", p.Pos))
	}
	if err := checkVitals("player", p.Vitals); err != nil {
		errs = append(errs, err)
	}
	if p.Level < 1 || p.XP < 0 || p.Potions < 0 || p.Streak < 0 {
		errs = append(errs, fmt.Errorf("player stats out of range (level=%d xp=%d potions=%d streak=%d)",
			p.Level, p.XP, p.Potions, p.Streak))
	}

	ids := map[string]bool{}
	taken := map[types.Position]string{p.Pos: "player"}
	engaged := 0
	for _, e := range s.Enemies {
		if e.ID == "" || ids[e.ID] {
			errs = append(errs, fmt.Errorf("enemy ID %q is empty or duplicated", e.ID))
		}
		ids[e.ID] = true
		if !Walkable(TileAt(m, e.Pos)) {
			errs = append(errs, fmt.Errorf("enemy %s at %v is not on floor", e.ID, e.Pos))
		}
		if other, ok := taken[e.Pos]; ok {
			errs = append(errs, fmt.Errorf("enemy %s overlaps %s at %v", e.ID, other, e.Pos))
		}
		taken[e.Pos] = e.ID
		if err := checkVitals("enemy "+e.ID, e.Vitals); err != nil {
			errs = append(errs, err)
		}
		if e.HP == 0 {
			errs = append(errs, fmt.Errorf("enemy %s is dead but still on the map", e.ID))
		}
		if e.Engaged {
			engaged++
		}
	}

	switch enc := s.Encounter; {
	case enc == nil && engaged > 0:
		errs = append(errs, errors.New("enemy engaged without an encounter"))
	case enc != nil:
		e, ok := Enemy(s, enc.EnemyID)
		if !ok || !e.Engaged || engaged != 1 {
			errs = append(errs, fmt.Errorf("encounter bound to %q does not match exactly one engaged enemy", enc.EnemyID))
		}
		switch enc.State {
		case types.EncounterConcluded:
			errs = append(errs, errors.New("concluded encounter left in state"))
		case types.EncounterInitiated:
			// Initiated only exists inside the step that asks the first question.
			errs = append(errs, errors.New("encounter has no question yet"))
		}
		if s.Phase != types.PhaseEncounter {
			errs = append(errs, errors.New("encounter present outside the encounter phase"))
		}
	}
	if s.Phase == types.PhaseEncounter && s.Encounter == nil {
		errs = append(errs, errors.New("encounter phase without an encounter"))
	}

	if Walkable(TileAt(m, p.Pos)) && !Connected(m, p.Pos) {
		errs = append(errs, errors.New("floor is not connected to the player"))
	}
	return errors.Join(errs...)
}

func checkVitals(who string, v types.Vitals) error {
	if v.MaxHP < 1 || v.HP < 0 || v.HP > v.MaxHP {
		return fmt.Errorf("%s hp %d/%d out of range", who, v.HP, v.MaxHP)
	}
	return nil
}
