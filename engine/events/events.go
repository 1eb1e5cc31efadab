// Package events names the transitions the engine reports and dispatches
// them to observers. Dispatch is a single pass: observers see the events
// of one step and cannot emit more.
package events

import "github.com/nathoo/kanjicrawl/types"

// Event types.
const (
	PlayerMoved      = "player_moved"
	MoveBlocked      = "move_blocked"
	ItemPicked       = "item_picked"
	PotionUsed       = "potion_used"
	EnemyMoved       = "enemy_moved"
	EncounterStarted = "encounter_started"
	QuestionAsked    = "question_asked"
	AnswerCorrect    = "answer_correct"
	AnswerIncorrect  = "answer_incorrect"
	EnemyDefeated    = "enemy_defeated"
	PlayerDefeated   = "player_defeated"
	EncounterFled    = "encounter_fled"
	EncounterSkipped = "encounter_skipped"
	VocabFallback    = "vocab_fallback"
	LevelUp          = "level_up"
	FloorCleared     = "floor_cleared"
	FloorDescended   = "floor_descended"
	GenerationRetry  = "generation_retry"
	GameQuit         = "game_quit"
)

// New builds an event from alternating key/value pairs. A trailing key
// without a value is dropped.
func New(typ string, kv ...any) types.Event {
	ev := types.Event{Type: typ, Data: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			ev.Data[k] = kv[i+1]
		}
	}
	return ev
}

// Handler observes one event.
type Handler func(types.Event)

// Bus routes events to handlers registered per type. The zero value is
// ready to use. A Bus is not safe for concurrent registration and dispatch;
// register observers before the run starts.
type Bus struct {
	byType map[string][]Handler
	all    []Handler
}

// On registers h for events of the given type.
func (b *Bus) On(typ string, h Handler) {
	if b.byType == nil {
		b.byType = map[string][]Handler{}
	}
	b.byType[typ] = append(b.byType[typ], h)
}

// OnAny registers h for every event.
func (b *Bus) OnAny(h Handler) {
	b.all = append(b.all, h)
}

// Dispatch delivers each event, in order, to the handlers for its type in
// registration order, then to the catch-all handlers. A nil Bus drops
// everything.
func (b *Bus) Dispatch(evs []types.Event) {
	if b == nil {
		return
	}
	for _, ev := range evs {
		for _, h := range b.byType[ev.Type] {
			h(ev)
		}
		for _, h := range b.all {
			h(ev)
		}
	}
}

// Count returns how many events in evs have the given type.
func Count(evs []types.Event, typ string) int {
	n := 0
	for _, ev := range evs {
		if ev.Type == typ {
			n++
		}
	}
	return n
}
