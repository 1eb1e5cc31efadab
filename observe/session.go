package observe

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/nathoo/kanjicrawl/engine/events"
)

// Session owns a private meter provider whose readings back the
// end-of-run summary.
type Session struct {
	Metrics *Metrics

	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// NewSession creates a meter provider with a manual reader and subscribes
// its instruments to bus. Call Shutdown when the run ends.
func NewSession(ctx context.Context, bus *events.Bus) (*Session, error) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("observe: creating instruments: %w", err)
	}
	m.Attach(ctx, bus)
	return &Session{Metrics: m, reader: reader, provider: mp}, nil
}

// Shutdown flushes and stops the meter provider.
func (s *Session) Shutdown(ctx context.Context) error {
	return s.provider.Shutdown(ctx)
}

// Summary is a snapshot of one run's counters.
type Summary struct {
	Questions  int64
	Correct    int64
	Incorrect  int64
	NearMisses int64
	Victories  int64
	Defeats    int64
	Fled       int64
	Skipped    int64
	LevelUps   int64
	Floors     int64
	Fallbacks  int64
	BestStreak int64
}

// Accuracy returns the fraction of answers that were correct, or 0 when
// nothing was answered.
func (s Summary) Accuracy() float64 {
	n := s.Correct + s.Incorrect
	if n == 0 {
		return 0
	}
	return float64(s.Correct) / float64(n)
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Questions: %d (correct %d, incorrect %d, near misses %d", s.Questions, s.Correct, s.Incorrect, s.NearMisses)
	if s.Correct+s.Incorrect > 0 {
		fmt.Fprintf(&b, ", accuracy %.0f%%", 100*s.Accuracy())
	}
	b.WriteString(")\n")
	fmt.Fprintf(&b, "Encounters: %d won, %d fled, %d skipped, %d lost\n", s.Victories, s.Fled, s.Skipped, s.Defeats)
	fmt.Fprintf(&b, "Levels gained: %d, floors descended: %d, best streak: %d", s.LevelUps, s.Floors, s.BestStreak)
	return b.String()
}

// Summary collects the current readings.
func (s *Session) Summary(ctx context.Context) (Summary, error) {
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return Summary{}, fmt.Errorf("observe: collecting metrics: %w", err)
	}

	var sum Summary
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case nameQuestions:
				sum.Questions = total(m, "", "")
			case nameAnswers:
				sum.Correct = total(m, "result", ResultCorrect)
				sum.Incorrect = total(m, "result", ResultIncorrect)
				sum.NearMisses = totalBool(m, "near_miss")
			case nameEncounters:
				sum.Victories = total(m, "outcome", OutcomeVictory)
				sum.Defeats = total(m, "outcome", OutcomeDefeat)
				sum.Fled = total(m, "outcome", OutcomeFled)
				sum.Skipped = total(m, "outcome", OutcomeSkipped)
			case nameLevelUps:
				sum.LevelUps = total(m, "", "")
			case nameFloors:
				sum.Floors = total(m, "", "")
			case nameFallbacks:
				sum.Fallbacks = total(m, "", "")
			case nameStreak:
				if h, ok := m.Data.(metricdata.Histogram[int64]); ok {
					for _, dp := range h.DataPoints {
						if v, ok := dp.Max.Value(); ok && v > sum.BestStreak {
							sum.BestStreak = v
						}
					}
				}
			}
		}
	}
	return sum, nil
}

// total sums the data points of an int64 counter whose attribute key has
// value want. An empty key matches every point.
func total(m metricdata.Metrics, key, want string) int64 {
	s, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return 0
	}
	var n int64
	for _, dp := range s.DataPoints {
		if key != "" {
			v, ok := dp.Attributes.Value(attribute.Key(key))
			if !ok || v.AsString() != want {
				continue
			}
		}
		n += dp.Value
	}
	return n
}

func totalBool(m metricdata.Metrics, key string) int64 {
	s, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return 0
	}
	var n int64
	for _, dp := range s.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsBool() {
			n += dp.Value
		}
	}
	return n
}
