package progression

import (
	"math"
	"testing"

	"github.com/nathoo/kanjicrawl/engine/state"
	"github.com/nathoo/kanjicrawl/types"
)

func testRules() Rules { return FromBalance(state.DefaultBalance()) }

func freshPlayer(r Rules) types.Player {
	return types.Player{
		Vitals: types.Vitals{HP: r.BaseHP, MaxHP: r.BaseHP},
		Attack: r.BaseAttack,
		Level:  1,
	}
}

func TestStepCost(t *testing.T) {
	c := testRules().Curve
	tests := []struct{ level, want int }{
		{1, 50}, {2, 75}, {3, 112}, {4, 168}, {5, 253},
	}
	for _, tt := range tests {
		if got := c.StepCost(tt.level); got != tt.want {
			t.Errorf("StepCost(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
	if got := (Curve{Base: 0, Growth: 1}).StepCost(1); got != 1 {
		t.Errorf("zero base step cost = %d, want 1", got)
	}
}

func TestStepCostClampsUncappedCurve(t *testing.T) {
	c := Curve{Base: 50, Growth: 1.5}
	for _, level := range []int{100, 1_000, 1_000_000} {
		if got := c.StepCost(level); got != math.MaxInt32 {
			t.Errorf("StepCost(%d) = %d, want %d", level, got, math.MaxInt32)
		}
	}
	prev := 0
	for l := 1; l <= 200; l++ {
		cost := c.StepCost(l)
		if cost < prev {
			t.Fatalf("StepCost(%d) = %d dropped below StepCost(%d) = %d", l, cost, l-1, prev)
		}
		prev = cost
	}
	if c.Threshold(200) <= c.Threshold(199) {
		t.Errorf("Threshold(200) = %d not above Threshold(199) = %d", c.Threshold(200), c.Threshold(199))
	}

	xp := 3 * math.MaxInt32
	level := c.LevelFor(xp)
	if level <= 1 || c.Threshold(level) > xp || c.Threshold(level+1) <= xp {
		t.Errorf("LevelFor(%d) = %d, thresholds %d..%d", xp, level, c.Threshold(level), c.Threshold(level+1))
	}
}

func TestThresholdsStrictlyIncrease(t *testing.T) {
	c := testRules().Curve
	if c.Threshold(1) != 0 {
		t.Errorf("Threshold(1) = %d", c.Threshold(1))
	}
	for l := 2; l <= 20; l++ {
		if c.Threshold(l) <= c.Threshold(l-1) {
			t.Fatalf("Threshold(%d)=%d not above Threshold(%d)=%d", l, c.Threshold(l), l-1, c.Threshold(l-1))
		}
	}
}

func TestLevelFor(t *testing.T) {
	c := testRules().Curve
	tests := []struct{ xp, want int }{
		{0, 1}, {49, 1}, {50, 2}, {124, 2}, {125, 3}, {236, 3}, {237, 4},
	}
	for _, tt := range tests {
		if got := c.LevelFor(tt.xp); got != tt.want {
			t.Errorf("LevelFor(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
	capped := Curve{Base: 1, Growth: 1, MaxLevel: 5}
	if got := capped.LevelFor(1_000_000); got != 5 {
		t.Errorf("capped LevelFor = %d, want 5", got)
	}
}

func TestGrantExperienceSingleLevel(t *testing.T) {
	r := testRules()
	p := freshPlayer(r)
	p.HP = 20

	up := r.GrantExperience(&p, 10)
	if up.Levels() != 0 || p.XP != 10 || p.Level != 1 {
		t.Fatalf("after 10xp: %+v, level %d", up, p.Level)
	}

	up = r.GrantExperience(&p, 40)
	if up.From != 1 || up.To != 2 || up.HPGained != 5 || up.AtkGained != 1 {
		t.Errorf("level up = %+v", up)
	}
	if p.Level != 2 || p.MaxHP != 35 || p.HP != 25 || p.Attack != 3 {
		t.Errorf("player = %+v", p)
	}
}

func TestGrantExperienceMultipleLevels(t *testing.T) {
	r := testRules()
	p := freshPlayer(r)
	up := r.GrantExperience(&p, 300)
	if up.Levels() != 3 || p.Level != 4 {
		t.Errorf("300xp -> %+v, level %d", up, p.Level)
	}
	if p.MaxHP != 45 || p.HP != 45 || p.Attack != 5 {
		t.Errorf("player = %+v", p)
	}
}

// Splitting a grant at a threshold boundary must match one combined grant.
func TestGrantExperienceSplitMatchesCombined(t *testing.T) {
	r := testRules()
	cases := []struct{ first, second int }{
		{50, 0},
		{50, 75},
		{25, 25},
		{49, 1},
		{125, 112},
		{0, 237},
	}
	for _, tc := range cases {
		split := freshPlayer(r)
		r.GrantExperience(&split, tc.first)
		r.GrantExperience(&split, tc.second)

		combined := freshPlayer(r)
		r.GrantExperience(&combined, tc.first+tc.second)

		if split != combined {
			t.Errorf("%d+%d: split %+v != combined %+v", tc.first, tc.second, split, combined)
		}
	}
}

func TestGrantExperienceRepeatedBoundaryIsIdempotent(t *testing.T) {
	r := testRules()
	p := freshPlayer(r)
	r.GrantExperience(&p, 50)
	before := p
	r.GrantExperience(&p, 0)
	r.GrantExperience(&p, -10)
	if p != before {
		t.Errorf("zero/negative grants changed the player: %+v -> %+v", before, p)
	}
}

func TestProgress(t *testing.T) {
	r := testRules()
	p := freshPlayer(r)
	r.GrantExperience(&p, 60)
	lo, hi := r.Progress(p)
	if lo != 50 || hi != 125 {
		t.Errorf("Progress = %d..%d, want 50..125", lo, hi)
	}

	r.Curve.MaxLevel = 2
	lo, hi = r.Progress(p)
	if lo != hi {
		t.Errorf("at cap Progress = %d..%d, want equal", lo, hi)
	}
}
