package observe

import (
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/nathoo/kanjicrawl/engine/events"
	"github.com/nathoo/kanjicrawl/types"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader and
// attached to a fresh bus.
func newTestMetrics(t *testing.T) (*events.Bus, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	bus := &events.Bus{}
	m.Attach(context.Background(), bus)
	return bus, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func dispatch(bus *events.Bus, evs ...types.Event) { bus.Dispatch(evs) }

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()
	if m, err := NewMetrics(mp); err != nil || m == nil {
		t.Fatalf("NewMetrics = %v, %v", m, err)
	}
}

func TestQuestionsByTier(t *testing.T) {
	bus, reader := newTestMetrics(t)
	dispatch(bus,
		events.New(events.QuestionAsked, "word", "水", "tier", 1),
		events.New(events.QuestionAsked, "word", "山", "tier", 1),
		events.New(events.QuestionAsked, "word", "学校", "tier", 2),
	)

	m := findMetric(collect(t, reader), nameQuestions)
	if m == nil {
		t.Fatal("questions metric not found")
	}
	sum := m.Data.(metricdata.Sum[int64])
	byTier := map[int64]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("tier"))
		byTier[v.AsInt64()] = dp.Value
	}
	if byTier[1] != 2 || byTier[2] != 1 {
		t.Errorf("questions by tier = %v", byTier)
	}
}

func TestAnswersAndDamage(t *testing.T) {
	bus, reader := newTestMetrics(t)
	dispatch(bus,
		events.New(events.AnswerCorrect, "word", "水", "damage", 3, "streak", 1),
		events.New(events.AnswerIncorrect, "word", "水", "damage", 4, "near_miss", true),
		events.New(events.AnswerIncorrect, "word", "水", "damage", 2, "near_miss", false),
	)
	rm := collect(t, reader)

	answers := findMetric(rm, nameAnswers)
	if answers == nil {
		t.Fatal("answers metric not found")
	}
	if got := total(*answers, "result", ResultCorrect); got != 1 {
		t.Errorf("correct = %d", got)
	}
	if got := total(*answers, "result", ResultIncorrect); got != 2 {
		t.Errorf("incorrect = %d", got)
	}
	if got := totalBool(*answers, "near_miss"); got != 1 {
		t.Errorf("near misses = %d", got)
	}

	dmg := findMetric(rm, nameDamageDealt)
	if dmg == nil {
		t.Fatal("damage metric not found")
	}
	h := dmg.Data.(metricdata.Histogram[int64])
	var hits, points int64
	for _, dp := range h.DataPoints {
		hits += int64(dp.Count)
		points += dp.Sum
	}
	if hits != 3 || points != 9 {
		t.Errorf("damage hits=%d sum=%d, want 3 and 9", hits, points)
	}
}

func TestEncounterOutcomes(t *testing.T) {
	bus, reader := newTestMetrics(t)
	dispatch(bus,
		events.New(events.EnemyDefeated, "enemy", "e1"),
		events.New(events.EnemyDefeated, "enemy", "e2"),
		events.New(events.EncounterFled, "enemy", "e3"),
		events.New(events.EncounterSkipped, "enemy", "e4", "reason", "no vocabulary"),
		events.New(events.PlayerDefeated, "enemy", "e5"),
		// Unrelated events are ignored.
		events.New(events.PlayerMoved, "row", 1, "col", 1),
	)
	m := findMetric(collect(t, reader), nameEncounters)
	if m == nil {
		t.Fatal("encounters metric not found")
	}
	for outcome, want := range map[string]int64{
		OutcomeVictory: 2, OutcomeFled: 1, OutcomeSkipped: 1, OutcomeDefeat: 1,
	} {
		if got := total(*m, "outcome", outcome); got != want {
			t.Errorf("%s = %d, want %d", outcome, got, want)
		}
	}
}

func TestLevelUpCountsEveryLevel(t *testing.T) {
	bus, reader := newTestMetrics(t)
	dispatch(bus,
		events.New(events.LevelUp, "from", 1, "to", 3),
		events.New(events.LevelUp, "from", 3, "to", 4),
	)
	m := findMetric(collect(t, reader), nameLevelUps)
	if m == nil {
		t.Fatal("level-up metric not found")
	}
	if got := total(*m, "", ""); got != 3 {
		t.Errorf("level ups = %d, want 3", got)
	}
}

func TestIntData(t *testing.T) {
	tests := []struct {
		v    any
		want int
	}{
		{7, 7},
		{int64(8), 8},
		{9.0, 9},
		{"10", 0},
		{nil, 0},
	}
	for _, tt := range tests {
		ev := types.Event{Data: map[string]any{"n": tt.v}}
		if got := intData(ev, "n"); got != tt.want {
			t.Errorf("intData(%v) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestSessionSummary(t *testing.T) {
	ctx := context.Background()
	bus := &events.Bus{}
	s, err := NewSession(ctx, bus)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Shutdown(ctx) })

	dispatch(bus,
		events.New(events.QuestionAsked, "tier", 1),
		events.New(events.AnswerCorrect, "damage", 2, "streak", 1),
		events.New(events.QuestionAsked, "tier", 1),
		events.New(events.AnswerCorrect, "damage", 3, "streak", 2),
		events.New(events.EnemyDefeated, "enemy", "e1"),
		events.New(events.LevelUp, "from", 1, "to", 2),
		events.New(events.QuestionAsked, "tier", 2),
		events.New(events.VocabFallback, "want", 2, "got", 1),
		events.New(events.AnswerIncorrect, "damage", 5, "near_miss", true),
		events.New(events.EncounterFled, "enemy", "e2"),
		events.New(events.FloorDescended, "floor", 2),
	)

	sum, err := s.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := Summary{
		Questions: 3, Correct: 2, Incorrect: 1, NearMisses: 1,
		Victories: 1, Fled: 1, LevelUps: 1, Floors: 1, Fallbacks: 1, BestStreak: 2,
	}
	if sum != want {
		t.Errorf("Summary = %+v\nwant      %+v", sum, want)
	}
	if a := sum.Accuracy(); a < 0.66 || a > 0.67 {
		t.Errorf("Accuracy = %g", a)
	}
	out := sum.String()
	for _, part := range []string{"Questions: 3", "accuracy 67%", "1 won, 1 fled", "best streak: 2"} {
		if !strings.Contains(out, part) {
			t.Errorf("String() missing %q:\n%s", part, out)
		}
	}
}

func TestSummaryEmpty(t *testing.T) {
	var s Summary
	if s.Accuracy() != 0 {
		t.Error("empty accuracy should be 0")
	}
	if strings.Contains(s.String(), "accuracy") {
		t.Errorf("empty summary should not report accuracy:\n%s", s.String())
	}
}
