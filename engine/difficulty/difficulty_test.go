package difficulty

import (
	"context"
	"errors"
	"testing"

	"github.com/nathoo/kanjicrawl/engine/rng"
	"github.com/nathoo/kanjicrawl/engine/state"
	"github.com/nathoo/kanjicrawl/lexicon"
	"github.com/nathoo/kanjicrawl/types"
)

func testModel(entries ...types.VocabEntry) *Model {
	return New(FromBalance(state.DefaultBalance()), lexicon.NewMemory(entries))
}

func word(surface, reading string, tier int) types.VocabEntry {
	return types.VocabEntry{Surface: surface, Readings: []string{reading}, Gloss: surface, Tier: tier}
}

func TestTierForLevel(t *testing.T) {
	m := testModel()
	tests := []struct{ level, want int }{
		{1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {20, 3},
	}
	for _, tt := range tests {
		if got := m.TierForLevel(tt.level); got != tt.want {
			t.Errorf("TierForLevel(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
	prev := 0
	for level := 1; level <= 30; level++ {
		got := m.TierForLevel(level)
		if got < prev {
			t.Fatalf("tier decreased at level %d: %d -> %d", level, prev, got)
		}
		prev = got
	}
}

func TestEnemyTierRespectsUnlocks(t *testing.T) {
	m := testModel()
	r := rng.New(1)
	counts := map[int]int{}
	for i := 0; i < 2000; i++ {
		if tier := m.EnemyTier(1, r); tier != 1 {
			t.Fatalf("level 1 rolled tier %d", tier)
		}
		counts[m.EnemyTier(5, r)]++
	}
	if counts[1] <= counts[2] || counts[2] <= counts[3] || counts[3] == 0 {
		t.Errorf("level 5 tier counts = %v, want 1 > 2 > 3 > 0", counts)
	}
}

func TestEnemyTierWithoutWeights(t *testing.T) {
	m := New(Params{Unlocks: []int{1, 1}}, lexicon.NewMemory(nil))
	r := rng.New(2)
	seen := map[int]bool{}
	for i := 0; i < 100; i++ {
		seen[m.EnemyTier(1, r)] = true
	}
	if !seen[1] || !seen[2] {
		t.Errorf("uniform fallback only produced %v", seen)
	}
}

func TestWeightDecay(t *testing.T) {
	m := testModel()
	seen := &types.SeenHistory{Entries: map[string]types.SeenRecord{}}
	x := types.VocabEntry{ID: "x"}

	if got := m.Weight(seen, "x"); got != 1 {
		t.Errorf("unseen weight = %v, want 1", got)
	}
	RecordSeen(seen, x)
	if got := m.Weight(seen, "x"); got != 0.05 {
		t.Errorf("weight right after presentation = %v, want floor 0.05", got)
	}

	prev := m.Weight(seen, "x")
	for i := 0; i < 40; i++ {
		seen.Clock++
		w := m.Weight(seen, "x")
		if w <= prev {
			t.Fatalf("weight not increasing at elapsed %d: %v -> %v", i+1, prev, w)
		}
		if w >= 1 {
			t.Fatalf("seen weight reached %v", w)
		}
		prev = w
	}

	RecordMiss(seen, x)
	if got, base := m.Weight(seen, "x"), prev; got <= base {
		t.Errorf("miss did not raise weight: %v <= %v", got, base)
	}
}

func TestRecordSeen(t *testing.T) {
	var seen types.SeenHistory
	e := types.VocabEntry{ID: "水/みず"}
	RecordSeen(&seen, e)
	RecordSeen(&seen, types.VocabEntry{ID: "火/ひ"})
	RecordSeen(&seen, e)
	rec := seen.Entries[e.ID]
	if seen.Clock != 3 || rec.LastSeen != 3 || rec.Times != 2 {
		t.Errorf("clock=%d record=%+v", seen.Clock, rec)
	}
}

// A word that was just asked must lose most draws against a fresh one.
func TestSelectWordAvoidsJustSeen(t *testing.T) {
	m := testModel(word("水", "みず", 1), word("火", "ひ", 1))
	ctx := context.Background()
	pool, _ := lexicon.NewMemory([]types.VocabEntry{word("水", "みず", 1)}).Lookup(ctx, 1)
	x := pool[0]

	for seed := int64(0); seed < 20; seed++ {
		seen := &types.SeenHistory{Entries: map[string]types.SeenRecord{}}
		RecordSeen(seen, x)
		r := rng.New(seed)

		picks := map[string]int{}
		for i := 0; i < 10; i++ {
			e, tier, err := m.SelectWord(ctx, 1, seen, r)
			if err != nil {
				t.Fatal(err)
			}
			if tier != 1 {
				t.Fatalf("tier = %d", tier)
			}
			picks[e.ID]++
		}
		if picks["火/ひ"] <= picks[x.ID] {
			t.Errorf("seed %d: other=%d just-seen=%d", seed, picks["火/ひ"], picks[x.ID])
		}
	}
}

func TestSelectWordNeverExcludes(t *testing.T) {
	m := testModel(word("水", "みず", 1), word("火", "ひ", 1))
	ctx := context.Background()
	seen := &types.SeenHistory{Entries: map[string]types.SeenRecord{}}
	r := rng.New(9)
	picks := map[string]int{}
	for i := 0; i < 400; i++ {
		e, _, err := m.SelectWord(ctx, 1, seen, r)
		if err != nil {
			t.Fatal(err)
		}
		RecordSeen(seen, e)
		picks[e.ID]++
	}
	if picks["水/みず"] < 100 || picks["火/ひ"] < 100 {
		t.Errorf("alternation too lopsided: %v", picks)
	}
}

func TestSelectWordFallsBack(t *testing.T) {
	m := testModel(word("水", "みず", 1))
	e, tier, err := m.SelectWord(context.Background(), 3, &types.SeenHistory{}, rng.New(1))
	if err != nil {
		t.Fatal(err)
	}
	if tier != 1 || e.Surface != "水" {
		t.Errorf("fallback picked %q from tier %d", e.Surface, tier)
	}
}

type failingGateway struct{ fail map[int]bool }

func (f failingGateway) Lookup(_ context.Context, tier int) ([]types.VocabEntry, error) {
	if f.fail[tier] {
		return nil, errors.New("store unavailable")
	}
	if tier == 1 {
		return []types.VocabEntry{{ID: "a", Surface: "a", Readings: []string{"あ"}, Tier: 1}}, nil
	}
	return nil, nil
}

func TestSelectWordGatewayErrorFallsBack(t *testing.T) {
	m := New(Params{}, failingGateway{fail: map[int]bool{2: true}})
	e, tier, err := m.SelectWord(context.Background(), 2, &types.SeenHistory{}, rng.New(1))
	if err != nil || tier != 1 || e.ID != "a" {
		t.Errorf("got %+v tier %d err %v", e, tier, err)
	}
}

func TestSelectWordNoVocabulary(t *testing.T) {
	m := testModel()
	_, _, err := m.SelectWord(context.Background(), 3, &types.SeenHistory{}, rng.New(1))
	if !errors.Is(err, types.ErrNoVocabulary) {
		t.Errorf("err = %v, want ErrNoVocabulary", err)
	}

	m = New(Params{}, failingGateway{fail: map[int]bool{1: true}})
	_, _, err = m.SelectWord(context.Background(), 1, &types.SeenHistory{}, rng.New(1))
	if !errors.Is(err, types.ErrNoVocabulary) {
		t.Errorf("all-failing gateway: err = %v, want ErrNoVocabulary", err)
	}
}

func TestSelectWordCancelled(t *testing.T) {
	m := testModel(word("水", "みず", 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := m.SelectWord(ctx, 1, &types.SeenHistory{}, rng.New(1))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSelectWordDeterministic(t *testing.T) {
	m := testModel(word("水", "みず", 1), word("火", "ひ", 1), word("木", "き", 1), word("金", "かね", 1))
	run := func() []string {
		seen := &types.SeenHistory{}
		r := rng.New(77)
		var out []string
		for i := 0; i < 25; i++ {
			e, _, _ := m.SelectWord(context.Background(), 1, seen, r)
			RecordSeen(seen, e)
			out = append(out, e.ID)
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("draw %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}
