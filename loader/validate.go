package loader

import (
	"fmt"
	"strings"

	"github.com/nathoo/kanjicrawl/engine/dungeon"
	"github.com/nathoo/kanjicrawl/kana"
	"github.com/nathoo/kanjicrawl/lexicon"
	"github.com/nathoo/kanjicrawl/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// validate checks compiled content for consistency. Warnings alone do not
// fail the load; they are kept on the content.
func validate(c *Content) error {
	ve := &ValidationError{}

	if c.Info.Title == "" {
		ve.errorf("Game.title is required")
	}
	validateBalance(c.Balance, ve)
	validateTiers(c.Balance, ve)
	validateWords(c, ve)

	if len(ve.Errors) > 0 {
		return ve
	}
	c.Warnings = ve.Warnings
	return nil
}

func validateBalance(b types.Balance, ve *ValidationError) {
	if b.MapWidth < dungeon.MinSize || b.MapHeight < dungeon.MinSize {
		ve.errorf("map %dx%d is smaller than %dx%d", b.MapWidth, b.MapHeight, dungeon.MinSize, dungeon.MinSize)
	}
	if b.EnemyCount < 1 {
		ve.errorf("map.enemies must be at least 1, got %d", b.EnemyCount)
	}
	if b.ItemCount < 0 || b.SpawnDistance < 0 || b.AggroRadius < 0 {
		ve.errorf("map.items, map.spawn_distance and map.aggro_radius must not be negative")
	}
	if b.FloorFraction <= 0 || b.FloorFraction > 1 {
		ve.errorf("map.floor_fraction must be in (0, 1], got %g", b.FloorFraction)
	}
	if b.PotionChance < 0 || b.PotionChance > 100 {
		ve.errorf("map.potion_chance must be a percentage, got %d", b.PotionChance)
	}
	if b.PlayerHP < 1 || b.PlayerAttack < 0 || b.HPPerLevel < 0 || b.AttackPerLevel < 0 {
		ve.errorf("player stats must be positive (hp=%d attack=%d)", b.PlayerHP, b.PlayerAttack)
	}
	if b.DamageVariance < 0 || b.HerbHeal < 0 || b.PotionHeal < 0 {
		ve.errorf("combat values must not be negative")
	}
	if b.XPBase < 1 || b.XPGrowth < 1 || b.MaxLevel < 1 {
		ve.errorf("progression needs xp_base >= 1, xp_growth >= 1 and max_level >= 1")
	}
	if b.DecayFloor <= 0 || b.DecayFloor > 1 {
		ve.errorf("review.floor must be in (0, 1], got %g", b.DecayFloor)
	}
	if b.DecayHalfLife <= 0 || b.WeakBonus < 0 {
		ve.errorf("review.half_life must be positive and review.weak_bonus not negative")
	}
}

func validateTiers(b types.Balance, ve *ValidationError) {
	if len(b.Tiers) == 0 {
		ve.errorf("at least one tier is required")
		return
	}
	prevUnlock := 0
	for i, td := range b.Tiers {
		if td.Tier != i+1 {
			ve.errorf("tiers must be numbered 1..%d without gaps or duplicates, found tier %d at position %d",
				len(b.Tiers), td.Tier, i+1)
		}
		if td.UnlockLevel < prevUnlock {
			ve.errorf("tier %d unlocks at level %d, before tier %d", td.Tier, td.UnlockLevel, i)
		}
		prevUnlock = td.UnlockLevel
		if td.Enemy.HP < 1 || td.Enemy.Attack < 0 || td.Enemy.Reward < 0 {
			ve.errorf("tier %d enemy needs hp >= 1 and non-negative attack and xp", td.Tier)
		}
	}
	if b.Tiers[0].UnlockLevel > 1 {
		ve.errorf("tier 1 must be unlocked at level 1, got %d", b.Tiers[0].UnlockLevel)
	}

	if b.TierWeights == nil {
		return
	}
	if len(b.TierWeights) != len(b.Tiers) {
		ve.errorf("tier_weights has %d rows, want one per tier (%d)", len(b.TierWeights), len(b.Tiers))
		return
	}
	for i, row := range b.TierWeights {
		if len(row) != i+1 {
			ve.errorf("tier_weights row %d has %d weights, want %d", i+1, len(row), i+1)
			continue
		}
		sum := 0
		for _, w := range row {
			if w < 0 {
				ve.errorf("tier_weights row %d has a negative weight", i+1)
			}
			sum += w
		}
		if sum <= 0 {
			ve.errorf("tier_weights row %d sums to zero", i+1)
		}
	}
}

func validateWords(c *Content, ve *ValidationError) {
	maxTier := len(c.Balance.Tiers)
	ids := map[string]bool{}
	perTier := make([]int, maxTier+1)

	for i, w := range c.Words {
		where := fmt.Sprintf("word %d (%q)", i+1, w.Surface)
		if strings.TrimSpace(w.Surface) == "" {
			ve.errorf("word %d has an empty surface", i+1)
			continue
		}
		if len(w.Readings) == 0 {
			ve.errorf("%s has no reading", where)
			continue
		}
		for _, r := range w.Readings {
			if n := kana.Normalize(r); n == "" || !kana.IsKana(n) {
				ve.errorf("%s reading %q is not kana or romaji", where, r)
			}
		}
		if w.Tier < 0 || w.Tier > maxTier {
			ve.errorf("%s has tier %d, want 1..%d (or omit it)", where, w.Tier, maxTier)
			continue
		}
		if w.Gloss == "" {
			ve.warnf("%s has no gloss", where)
		}

		e, ok := lexicon.Prepare(w)
		if !ok {
			continue
		}
		if ids[e.ID] {
			ve.errorf("duplicate word %q", e.ID)
		}
		ids[e.ID] = true
		if e.Tier <= maxTier {
			perTier[e.Tier]++
		}
	}

	for t := 1; t <= maxTier; t++ {
		if perTier[t] == 0 {
			ve.warnf("tier %d has no words; its enemies will ask easier ones", t)
		}
	}
}
