// Package engine provides the Step() orchestrator that owns the game state
// and turns one player action into one deterministic transition.
//
// The engine is synchronous and single-writer: every mutation happens inside
// Step, and all randomness is drawn from the one generator it owns. Given the
// same seed, balance, vocabulary and action sequence, two engines reach
// byte-identical saves.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nathoo/kanjicrawl/engine/difficulty"
	"github.com/nathoo/kanjicrawl/engine/events"
	"github.com/nathoo/kanjicrawl/engine/progression"
	"github.com/nathoo/kanjicrawl/engine/rng"
	"github.com/nathoo/kanjicrawl/engine/save"
	"github.com/nathoo/kanjicrawl/engine/state"
	"github.com/nathoo/kanjicrawl/lexicon"
	"github.com/nathoo/kanjicrawl/types"
)

// Options configure a new or restored engine.
type Options struct {
	Seed    int64
	Balance types.Balance
	Info    types.GameInfo
	Lexicon lexicon.Gateway
	Logger  *slog.Logger // defaults to slog.Default()
	Bus     *events.Bus  // optional; receives every step's events
}

// Engine holds the balance, the lexicon and the mutable state.
type Engine struct {
	State   *types.GameState
	Balance types.Balance
	Info    types.GameInfo
	RNG     *rng.RNG

	model *difficulty.Model
	rules progression.Rules
	log   *slog.Logger
	bus   *events.Bus

	// concluded is the view of an encounter that ended during the current
	// step; the state no longer holds it.
	concluded *types.EncounterView
}

// New starts a run: it seeds the generator and generates the first floor.
// It fails only when no relaxation of the map constraints can be satisfied.
func New(ctx context.Context, opts Options) (*Engine, error) {
	e := newEngine(opts)
	e.State = state.NewState(e.Balance, opts.Seed)
	e.RNG = rng.New(opts.Seed)

	evs, err := e.newFloor(ctx)
	if err != nil {
		return nil, err
	}
	e.State.RNGPosition = e.RNG.Position()
	e.bus.Dispatch(evs)
	e.log.Info("run started", "seed", opts.Seed, "map", fmt.Sprintf("%dx%d", e.State.Map.Width, e.State.Map.Height),
		"enemies", len(e.State.Enemies))
	return e, nil
}

// Restore resumes a run from a loaded state, reproducing the generator
// position exactly.
func Restore(s *types.GameState, opts Options) (*Engine, error) {
	if err := state.Check(s); err != nil {
		return nil, &types.CorruptSaveError{Err: err}
	}
	e := newEngine(opts)
	e.State = s
	e.RNG = rng.Restore(s.RNGSeed, s.RNGPosition)
	e.log.Info("run restored", "seed", s.RNGSeed, "turn", s.Turn, "floor", s.Floor)
	return e, nil
}

func newEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gw := opts.Lexicon
	if gw == nil {
		gw = lexicon.NewMemory(nil)
	}
	return &Engine{
		Balance: opts.Balance,
		Info:    opts.Info,
		model:   difficulty.New(difficulty.FromBalance(opts.Balance), gw),
		rules:   progression.FromBalance(opts.Balance),
		log:     logger,
		bus:     opts.Bus,
	}
}

// Save serializes the current state.
func (e *Engine) Save() ([]byte, error) {
	e.State.RNGPosition = e.RNG.Position()
	return save.Save(e.State, e.Info.Title)
}

// Load replaces the running state with a saved one, keeping the balance,
// lexicon and observers. On error the current run is left as it was.
func (e *Engine) Load(data []byte) (*save.SaveData, error) {
	s, sd, err := save.Load(data)
	if err != nil {
		return nil, err
	}
	e.State = s
	e.RNG = rng.Restore(s.RNGSeed, s.RNGPosition)
	e.concluded = nil
	e.log.Info("run loaded", "game", sd.Game, "turn", s.Turn, "floor", s.Floor)
	return sd, nil
}

// Model returns the difficulty model the engine draws words with.
func (e *Engine) Model() *difficulty.Model { return e.model }

// Rules returns the progression rules.
func (e *Engine) Rules() progression.Rules { return e.rules }

// step accumulates the outcome of one action.
type step struct {
	out  []string
	evs  []types.Event
	move types.MoveOutcome
}

func (st *step) say(format string, args ...any) {
	st.out = append(st.out, fmt.Sprintf(format, args...))
}

func (st *step) emit(typ string, kv ...any) {
	st.evs = append(st.evs, events.New(typ, kv...))
}

// Step applies one action and returns the resulting view. An action that is
// illegal in the current phase leaves the state untouched and reports
// types.ErrInvalidAction in Result.Err.
func (e *Engine) Step(ctx context.Context, a types.Action) types.Result {
	e.concluded = nil
	st := &step{}

	var err error
	switch e.State.Phase {
	case types.PhaseGameOver:
		err = e.stepGameOver(a, st)
	case types.PhaseEncounter:
		err = e.stepEncounter(ctx, a, st)
	default:
		err = e.stepPlayerTurn(ctx, a, st)
	}
	if errors.Is(err, types.ErrInvalidAction) {
		e.log.Debug("invalid action", "kind", a.Kind, "phase", e.State.Phase)
	}

	e.State.RNGPosition = e.RNG.Position()
	e.bus.Dispatch(st.evs)
	return types.Result{
		View:   e.Snapshot(),
		Move:   st.move,
		Output: st.out,
		Events: st.evs,
		Err:    err,
	}
}

func (e *Engine) stepGameOver(a types.Action, st *step) error {
	if a.Kind == types.ActionQuit {
		return nil
	}
	st.say("The run is over. Start a new game or load a save.")
	return types.ErrInvalidAction
}

// invalid records the standard refusal for an action illegal in this phase.
func invalid(st *step, msg string) error {
	st.say("%s", msg)
	return types.ErrInvalidAction
}

// quit ends the run, releasing any engaged enemy so no encounter dangles.
func (e *Engine) quit(st *step) {
	if enc := e.State.Encounter; enc != nil {
		if en, ok := state.Enemy(e.State, enc.EnemyID); ok {
			en.Engaged = false
		}
		e.State.Encounter = nil
	}
	e.State.Phase = types.PhaseGameOver
	e.State.EndReason = "quit"
	st.emit(events.GameQuit, "turn", e.State.Turn)
	st.say("You leave the dungeon.")
	e.log.Info("run quit", "turn", e.State.Turn, "floor", e.State.Floor, "level", e.State.Player.Level)
}

// usePotion drinks one potion. It is legal on the player's turn and during
// an encounter; it does not consume the encounter round.
func (e *Engine) usePotion(st *step) error {
	p := &e.State.Player
	if p.Potions <= 0 {
		return invalid(st, "You have no potions.")
	}
	if p.HP >= p.MaxHP {
		return invalid(st, "You are already at full health.")
	}
	healed := state.Heal(&p.Vitals, e.Balance.PotionHeal)
	p.Potions--
	st.emit(events.PotionUsed, "healed", healed, "left", p.Potions)
	st.say("You drink a potion and recover %d HP.", healed)
	return nil
}
