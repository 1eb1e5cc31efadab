package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/nathoo/kanjicrawl/engine/difficulty"
	"github.com/nathoo/kanjicrawl/engine/events"
	"github.com/nathoo/kanjicrawl/engine/rng"
	"github.com/nathoo/kanjicrawl/engine/state"
	"github.com/nathoo/kanjicrawl/kana"
	"github.com/nathoo/kanjicrawl/types"
)

// nearMissThreshold is the Jaro-Winkler similarity above which a wrong
// answer is reported as close.
const nearMissThreshold = 0.8

// DamageCalc computes damage: attack + roll(1dVariance) - 1, at least 1.
// A variance of 1 or less makes damage fixed and draws nothing from rng.
func DamageCalc(attack, variance int, r *rng.RNG) int {
	dmg := attack
	if variance > 1 {
		dmg += r.Roll(variance) - 1
	}
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// CheckAnswer reports whether input matches one of the accepted readings
// after normalisation, and returns the normalised input. Ambiguous romaji
// is returned in the form that matched.
func CheckAnswer(input string, readings []string) (bool, string) {
	forms := kana.NormalizeAll(input)
	for _, norm := range forms {
		for _, r := range readings {
			if kana.Equivalent(norm, r) {
				return true, norm
			}
		}
	}
	return false, forms[0]
}

// similarity returns the best Jaro-Winkler score of input against readings.
func similarity(input string, readings []string) float64 {
	best := 0.0
	for _, r := range readings {
		if s := matchr.JaroWinkler(kana.Key(input), kana.Key(r), false); s > best {
			best = s
		}
	}
	return best
}

func (e *Engine) stepEncounter(ctx context.Context, a types.Action, st *step) error {
	enc := e.State.Encounter
	switch a.Kind {
	case types.ActionSubmitText:
		if enc.State != types.EncounterAwaiting {
			return invalid(st, "Press Enter to face the next question.")
		}
		return e.submitAnswer(ctx, a.Text, st)
	case types.ActionConfirm:
		if enc.State != types.EncounterResolved {
			return invalid(st, "Type the reading of the word first.")
		}
		return e.nextRound(ctx, st)
	case types.ActionFlee:
		e.flee(st)
		return nil
	case types.ActionUsePotion:
		return e.usePotion(st)
	case types.ActionQuit:
		e.quit(st)
		return nil
	default:
		return invalid(st, "You are in a fight! Answer, flee or drink a potion.")
	}
}

// initiate binds the enemy at idx to the player and asks the first
// question. Nothing is changed when no word can be selected.
func (e *Engine) initiate(ctx context.Context, idx int, st *step) error {
	s := e.State
	en := &s.Enemies[idx]

	word, err := e.pickWord(ctx, en, st)
	if err != nil {
		return err
	}

	en.Engaged = true
	s.Player.Streak = 0
	s.Encounter = &types.Encounter{EnemyID: en.ID, State: types.EncounterInitiated}
	s.Phase = types.PhaseEncounter
	st.emit(events.EncounterStarted, "enemy", en.ID, "name", en.Name, "tier", en.Tier)
	st.say("A %s (tier %d) blocks your way!", en.Name, en.Tier)
	e.log.Debug("encounter started", "enemy", en.ID, "tier", en.Tier)

	e.ask(word, st)
	return nil
}

// pickWord selects the next word for en without touching the state.
func (e *Engine) pickWord(ctx context.Context, en *types.Enemy, st *step) (types.VocabEntry, error) {
	word, tier, err := e.model.SelectWord(ctx, en.Tier, &e.State.Seen, e.RNG)
	if err != nil {
		return types.VocabEntry{}, err
	}
	if tier != en.Tier {
		st.emit(events.VocabFallback, "want", en.Tier, "got", tier)
		e.log.Warn("vocabulary fallback", "enemy", en.ID, "want_tier", en.Tier, "got_tier", tier)
	}
	return word, nil
}

// ask presents word as the encounter's next question.
func (e *Engine) ask(word types.VocabEntry, st *step) {
	enc := e.State.Encounter
	difficulty.RecordSeen(&e.State.Seen, word)
	enc.Word = word
	enc.Round++
	enc.State = types.EncounterAwaiting
	enc.Result = types.OutcomeNone
	enc.Input = ""
	enc.DamageDealt, enc.DamageTaken = 0, 0
	enc.NearMiss = false
	st.emit(events.QuestionAsked, "word", word.ID, "tier", word.Tier, "round", enc.Round)
	st.say("Read: %s", word.Surface)
}

// submitAnswer resolves the current question.
func (e *Engine) submitAnswer(ctx context.Context, raw string, st *step) error {
	s := e.State
	enc := s.Encounter
	en, ok := state.Enemy(s, enc.EnemyID)
	if !ok {
		return errors.New("encounter bound to a missing enemy")
	}

	correct, norm := CheckAnswer(raw, enc.Word.Readings)
	if norm == "" {
		return invalid(st, "Type a reading in kana or romaji.")
	}

	player := playerActor{&s.Player}
	enemy := enemyActor{en}
	enc.Input = norm
	enc.State = types.EncounterResolved

	if correct {
		dmg := strike(player, enemy, e.Balance.DamageVariance, e.RNG)
		s.Player.Streak++
		enc.Correct++
		enc.Result = types.OutcomeCorrect
		enc.DamageDealt = dmg
		st.emit(events.AnswerCorrect, "word", enc.Word.ID, "damage", dmg, "streak", s.Player.Streak)
		st.say("Correct! %s is read %s (%s). You hit the %s for %d.",
			enc.Word.Surface, strings.Join(enc.Word.Readings, " / "), enc.Word.Gloss, en.Name, dmg)
	} else {
		dmg := strike(enemy, player, e.Balance.DamageVariance, e.RNG)
		s.Player.Streak = 0
		difficulty.RecordMiss(&s.Seen, enc.Word)
		enc.Incorrect++
		enc.Result = types.OutcomeIncorrect
		enc.DamageTaken = dmg
		enc.NearMiss = similarity(norm, enc.Word.Readings) >= nearMissThreshold
		st.emit(events.AnswerIncorrect, "word", enc.Word.ID, "damage", dmg, "near_miss", enc.NearMiss)
		if enc.NearMiss {
			st.say("So close!")
		}
		st.say("Wrong. %s is read %s (%s). The %s hits you for %d.",
			enc.Word.Surface, strings.Join(enc.Word.Readings, " / "), enc.Word.Gloss, en.Name, dmg)
	}

	switch {
	case !enemy.alive():
		e.victory(en, st)
	case !player.alive():
		e.defeat(st)
	}
	return nil
}

// nextRound asks a new question of the same enemy. If no word is available
// the encounter ends as skipped.
func (e *Engine) nextRound(ctx context.Context, st *step) error {
	s := e.State
	en, ok := state.Enemy(s, s.Encounter.EnemyID)
	if !ok {
		return errors.New("encounter bound to a missing enemy")
	}
	word, err := e.pickWord(ctx, en, st)
	if errors.Is(err, types.ErrNoVocabulary) {
		st.emit(events.EncounterSkipped, "enemy", en.ID, "reason", "no vocabulary")
		st.say("The %s has run out of questions and wanders off.", en.Name)
		e.log.Warn("encounter skipped mid-fight", "enemy", en.ID, "err", err)
		e.conclude(en, types.OutcomeSkipped)
		e.endPlayerTurn(st)
		return nil
	}
	if err != nil {
		return err
	}
	s.Encounter.State = types.EncounterInitiated
	e.ask(word, st)
	return nil
}

// flee abandons the encounter without damage on either side.
func (e *Engine) flee(st *step) {
	s := e.State
	en, _ := state.Enemy(s, s.Encounter.EnemyID)
	name := "enemy"
	if en != nil {
		name = en.Name
	}
	st.emit(events.EncounterFled, "enemy", s.Encounter.EnemyID)
	st.say("You flee from the %s.", name)
	s.Player.Streak = 0
	e.conclude(en, types.OutcomeFled)
	e.endPlayerTurn(st)
}

func (e *Engine) victory(en *types.Enemy, st *step) {
	s := e.State
	st.emit(events.EnemyDefeated, "enemy", en.ID, "tier", en.Tier, "xp", en.Reward)
	st.say("The %s is defeated! +%d XP.", en.Name, en.Reward)

	id, reward := en.ID, en.Reward
	e.conclude(en, types.OutcomeVictory)
	state.RemoveEnemy(s, id)

	up := e.rules.GrantExperience(&s.Player, reward)
	if up.Levels() > 0 {
		st.emit(events.LevelUp, "from", up.From, "to", up.To)
		st.say("Level up! You are now level %d (max HP +%d, attack +%d).", up.To, up.HPGained, up.AtkGained)
		if newTier := e.model.TierForLevel(up.To); newTier > e.model.TierForLevel(up.From) {
			st.say("Harder words await: tier %d unlocked.", newTier)
		}
		e.log.Info("level up", "from", up.From, "to", up.To)
	}
	if len(s.Enemies) == 0 {
		st.emit(events.FloorCleared, "floor", s.Floor)
		st.say("The floor is clear. The way down is open.")
	}
	e.endPlayerTurn(st)
}

func (e *Engine) defeat(st *step) {
	s := e.State
	en, _ := state.Enemy(s, s.Encounter.EnemyID)
	st.emit(events.PlayerDefeated, "enemy", s.Encounter.EnemyID, "floor", s.Floor, "level", s.Player.Level)
	st.say("You collapse. The run is over.")
	e.conclude(en, types.OutcomeDefeat)
	s.Phase = types.PhaseGameOver
	s.EndReason = "defeat"
	e.log.Info("run lost", "turn", s.Turn, "floor", s.Floor, "level", s.Player.Level)
}

// conclude ends the encounter: the enemy is released and the final view is
// kept for this step's result.
func (e *Engine) conclude(en *types.Enemy, outcome types.Outcome) {
	s := e.State
	enc := s.Encounter
	enc.State = types.EncounterConcluded
	enc.Conclusion = outcome
	v := e.encounterView(enc)
	e.concluded = &v
	if en != nil {
		en.Engaged = false
	}
	s.Encounter = nil
	s.Phase = types.PhasePlayerTurn
}
