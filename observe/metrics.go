// Package observe records gameplay metrics through the OpenTelemetry
// Metrics API. Instruments are fed from the engine's event bus, so the
// engine itself never imports OTel.
//
// Tests and the end-of-run summary read the instruments back through a
// [sdkmetric.ManualReader]; see [Session].
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nathoo/kanjicrawl/engine/events"
	"github.com/nathoo/kanjicrawl/types"
)

// meterName is the instrumentation scope name used for all kanjicrawl metrics.
const meterName = "github.com/nathoo/kanjicrawl"

// Metric names.
const (
	nameQuestions   = "kanjicrawl.questions"
	nameAnswers     = "kanjicrawl.answers"
	nameEncounters  = "kanjicrawl.encounters"
	nameLevelUps    = "kanjicrawl.level_ups"
	nameFloors      = "kanjicrawl.floors"
	nameFallbacks   = "kanjicrawl.vocab_fallbacks"
	nameRetries     = "kanjicrawl.generation_retries"
	nameStreak      = "kanjicrawl.streak"
	nameDamageDealt = "kanjicrawl.damage"
)

// Attribute values.
const (
	ResultCorrect   = "correct"
	ResultIncorrect = "incorrect"

	OutcomeVictory = "victory"
	OutcomeDefeat  = "defeat"
	OutcomeFled    = "fled"
	OutcomeSkipped = "skipped"
)

// Metrics holds the metric instruments for one process.
type Metrics struct {
	// Questions counts questions asked. Attribute: tier.
	Questions metric.Int64Counter

	// Answers counts submitted answers. Attributes: result, near_miss.
	Answers metric.Int64Counter

	// Encounters counts finished encounters. Attribute: outcome.
	Encounters metric.Int64Counter

	LevelUps          metric.Int64Counter
	Floors            metric.Int64Counter
	VocabFallbacks    metric.Int64Counter
	GenerationRetries metric.Int64Counter

	// Streak records the streak reached on each correct answer.
	Streak metric.Int64Histogram

	// Damage records damage per hit. Attribute: target (enemy or player).
	Damage metric.Int64Histogram
}

var streakBuckets = []float64{1, 2, 3, 5, 8, 13, 21}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Questions, err = m.Int64Counter(nameQuestions,
		metric.WithDescription("Questions asked, by word tier."),
	); err != nil {
		return nil, err
	}
	if met.Answers, err = m.Int64Counter(nameAnswers,
		metric.WithDescription("Answers submitted, by result."),
	); err != nil {
		return nil, err
	}
	if met.Encounters, err = m.Int64Counter(nameEncounters,
		metric.WithDescription("Finished encounters, by outcome."),
	); err != nil {
		return nil, err
	}
	if met.LevelUps, err = m.Int64Counter(nameLevelUps,
		metric.WithDescription("Player level increases."),
	); err != nil {
		return nil, err
	}
	if met.Floors, err = m.Int64Counter(nameFloors,
		metric.WithDescription("Floors descended."),
	); err != nil {
		return nil, err
	}
	if met.VocabFallbacks, err = m.Int64Counter(nameFallbacks,
		metric.WithDescription("Questions drawn from a lower tier than the enemy's."),
	); err != nil {
		return nil, err
	}
	if met.GenerationRetries, err = m.Int64Counter(nameRetries,
		metric.WithDescription("Map generation attempts that had to relax constraints."),
	); err != nil {
		return nil, err
	}
	if met.Streak, err = m.Int64Histogram(nameStreak,
		metric.WithDescription("Correct-answer streak at each correct answer."),
		metric.WithExplicitBucketBoundaries(streakBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Damage, err = m.Int64Histogram(nameDamageDealt,
		metric.WithDescription("Damage per hit, by target."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// Attach subscribes the instruments to bus. Every measurement is recorded
// with ctx.
func (m *Metrics) Attach(ctx context.Context, bus *events.Bus) {
	bus.On(events.QuestionAsked, func(ev types.Event) {
		m.Questions.Add(ctx, 1, metric.WithAttributes(attribute.Int("tier", intData(ev, "tier"))))
	})
	bus.On(events.AnswerCorrect, func(ev types.Event) {
		m.Answers.Add(ctx, 1, metric.WithAttributes(
			attribute.String("result", ResultCorrect),
			attribute.Bool("near_miss", false),
		))
		m.Streak.Record(ctx, int64(intData(ev, "streak")))
		m.Damage.Record(ctx, int64(intData(ev, "damage")), metric.WithAttributes(attribute.String("target", "enemy")))
	})
	bus.On(events.AnswerIncorrect, func(ev types.Event) {
		near, _ := ev.Data["near_miss"].(bool)
		m.Answers.Add(ctx, 1, metric.WithAttributes(
			attribute.String("result", ResultIncorrect),
			attribute.Bool("near_miss", near),
		))
		m.Damage.Record(ctx, int64(intData(ev, "damage")), metric.WithAttributes(attribute.String("target", "player")))
	})

	outcome := func(o string) events.Handler {
		return func(types.Event) {
			m.Encounters.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", o)))
		}
	}
	bus.On(events.EnemyDefeated, outcome(OutcomeVictory))
	bus.On(events.PlayerDefeated, outcome(OutcomeDefeat))
	bus.On(events.EncounterFled, outcome(OutcomeFled))
	bus.On(events.EncounterSkipped, outcome(OutcomeSkipped))

	bus.On(events.LevelUp, func(ev types.Event) {
		// A single victory can cross several levels.
		if n := intData(ev, "to") - intData(ev, "from"); n > 0 {
			m.LevelUps.Add(ctx, int64(n))
		}
	})
	bus.On(events.FloorDescended, func(types.Event) { m.Floors.Add(ctx, 1) })
	bus.On(events.VocabFallback, func(types.Event) { m.VocabFallbacks.Add(ctx, 1) })
	bus.On(events.GenerationRetry, func(types.Event) { m.GenerationRetries.Add(ctx, 1) })
}

func intData(ev types.Event, key string) int {
	switch v := ev.Data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
