package loader

import (
	"testing"

	"github.com/nathoo/kanjicrawl/engine/state"
	"github.com/nathoo/kanjicrawl/types"
)

// validContent returns minimal valid content for testing.
func validContent() *Content {
	return &Content{
		Info:    types.GameInfo{Title: "Test"},
		Balance: state.DefaultBalance(),
		Words: []types.VocabEntry{
			{Surface: "水", Readings: []string{"みず"}, Gloss: "water", Tier: 1},
			{Surface: "学校", Readings: []string{"がっこう"}, Gloss: "school", Tier: 2},
			{Surface: "図書館", Readings: []string{"toshokan"}, Gloss: "library", Tier: 3},
		},
	}
}

func TestValidate_ValidContent(t *testing.T) {
	c := validContent()
	if err := validate(c); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(c.Warnings) != 0 {
		t.Errorf("Warnings = %v", c.Warnings)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Content)
		want   string
	}{
		{"empty title", func(c *Content) { c.Info.Title = "" }, "title is required"},
		{"tiny map", func(c *Content) { c.Balance.MapHeight = 4 }, "smaller than"},
		{"no enemies", func(c *Content) { c.Balance.EnemyCount = 0 }, "map.enemies"},
		{"floor fraction", func(c *Content) { c.Balance.FloorFraction = 1.5 }, "floor_fraction"},
		{"potion chance", func(c *Content) { c.Balance.PotionChance = 101 }, "potion_chance"},
		{"player hp", func(c *Content) { c.Balance.PlayerHP = 0 }, "player stats"},
		{"growth", func(c *Content) { c.Balance.XPGrowth = 0.5 }, "xp_growth"},
		{"decay floor", func(c *Content) { c.Balance.DecayFloor = 0 }, "review.floor"},
		{"half life", func(c *Content) { c.Balance.DecayHalfLife = 0 }, "half_life"},
		{"no tiers", func(c *Content) { c.Balance.Tiers = nil }, "at least one tier"},
		{"tier gap", func(c *Content) { c.Balance.Tiers[1].Tier = 5 }, "without gaps"},
		{"unlock order", func(c *Content) { c.Balance.Tiers[2].UnlockLevel = 2 }, "unlocks at level 2"},
		{"tier 1 locked", func(c *Content) {
			for i := range c.Balance.Tiers {
				c.Balance.Tiers[i].UnlockLevel += 1
			}
		}, "tier 1 must be unlocked"},
		{"dead archetype", func(c *Content) { c.Balance.Tiers[0].Enemy.HP = 0 }, "hp >= 1"},
		{"weights rows", func(c *Content) { c.Balance.TierWeights = [][]int{{1}} }, "tier_weights has 1 rows"},
		{"weights width", func(c *Content) { c.Balance.TierWeights[1] = []int{1} }, "row 2 has 1 weights"},
		{"weights zero", func(c *Content) { c.Balance.TierWeights[2] = []int{0, 0, 0} }, "sums to zero"},
		{"weights negative", func(c *Content) { c.Balance.TierWeights[1] = []int{5, -1} }, "negative weight"},
		{"empty surface", func(c *Content) { c.Words[0].Surface = " " }, "empty surface"},
		{"no reading", func(c *Content) { c.Words[0].Readings = nil }, "has no reading"},
		{"bad reading", func(c *Content) { c.Words[0].Readings = []string{"水"} }, "not kana or romaji"},
		{"tier range", func(c *Content) { c.Words[0].Tier = 4 }, "has tier 4"},
		{"duplicate", func(c *Content) {
			c.Words = append(c.Words, types.VocabEntry{Surface: "水", Readings: []string{"mizu"}, Tier: 1})
		}, "duplicate word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validContent()
			tt.mutate(c)
			err := validate(c)
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			assertContains(t, ve.Errors, tt.want)
		})
	}
}

func TestValidate_NilWeightsAllowed(t *testing.T) {
	c := validContent()
	c.Balance.TierWeights = nil
	if err := validate(c); err != nil {
		t.Fatal(err)
	}
}

func TestValidate_Warnings(t *testing.T) {
	c := validContent()
	c.Words = c.Words[:1]
	c.Words[0].Gloss = ""
	if err := validate(c); err != nil {
		t.Fatal(err)
	}
	assertContains(t, c.Warnings, "no gloss")
	assertContains(t, c.Warnings, "tier 2 has no words")
	assertContains(t, c.Warnings, "tier 3 has no words")
}

func TestValidationError_Message(t *testing.T) {
	ve := &ValidationError{Errors: []string{"a", "b"}}
	if got := ve.Error(); got != "validation failed with 2 error(s):\n  a\n  b" {
		t.Errorf("Error() = %q", got)
	}
}
