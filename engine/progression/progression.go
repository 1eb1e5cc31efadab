// Package progression turns experience into levels.
//
// The level is a pure function of total experience, and a player's max HP
// and attack are pure functions of the level. Granting experience therefore
// never applies the same threshold twice: splitting a grant into parts
// yields the same player as granting the sum at once.
package progression

import (
	"math"

	"github.com/nathoo/kanjicrawl/types"
)

// Curve is the experience curve. Going from level L to L+1 costs
// int(Base * Growth^(L-1)), at least 1 and at most math.MaxInt32.
type Curve struct {
	Base     int
	Growth   float64
	MaxLevel int // 0 means uncapped
}

// maxStepCost bounds a single step so deep levels on an uncapped curve
// stay representable.
const maxStepCost = math.MaxInt32

// StepCost returns the experience needed to go from level to level+1,
// clamped to [1, maxStepCost].
func (c Curve) StepCost(level int) int {
	if level < 1 {
		level = 1
	}
	cost := float64(c.Base) * math.Pow(c.Growth, float64(level-1))
	switch {
	case !(cost < maxStepCost): // also +Inf and NaN
		return maxStepCost
	case cost < 1:
		return 1
	}
	return int(cost)
}

// Threshold returns the total experience at which level is reached.
// Threshold(1) is 0 and the sequence is strictly increasing.
func (c Curve) Threshold(level int) int {
	total := 0
	for l := 1; l < level; l++ {
		total += c.StepCost(l)
	}
	return total
}

// LevelFor returns the level reached with xp total experience.
func (c Curve) LevelFor(xp int) int {
	level, total := 1, 0
	for c.MaxLevel <= 0 || level < c.MaxLevel {
		total += c.StepCost(level)
		if xp < total {
			break
		}
		level++
	}
	return level
}

// Rules combine the curve with the per-level stat growth.
type Rules struct {
	Curve          Curve
	BaseHP         int
	HPPerLevel     int
	BaseAttack     int
	AttackPerLevel int
}

// FromBalance extracts the progression rules from a balance table.
func FromBalance(b types.Balance) Rules {
	return Rules{
		Curve:          Curve{Base: b.XPBase, Growth: b.XPGrowth, MaxLevel: b.MaxLevel},
		BaseHP:         b.PlayerHP,
		HPPerLevel:     b.HPPerLevel,
		BaseAttack:     b.PlayerAttack,
		AttackPerLevel: b.AttackPerLevel,
	}
}

// MaxHP returns the max HP of a player at level.
func (r Rules) MaxHP(level int) int { return r.BaseHP + r.HPPerLevel*(level-1) }

// Attack returns the attack stat of a player at level.
func (r Rules) Attack(level int) int { return r.BaseAttack + r.AttackPerLevel*(level-1) }

// LevelUp describes the effect of one grant.
type LevelUp struct {
	From, To  int
	HPGained  int // added to both max and current HP
	AtkGained int
}

// Levels returns how many levels were gained.
func (l LevelUp) Levels() int { return l.To - l.From }

// GrantExperience adds amount to the player's experience and applies any
// levels crossed. Current HP rises by the same amount as max HP. Negative
// amounts are ignored.
func (r Rules) GrantExperience(p *types.Player, amount int) LevelUp {
	if amount > 0 {
		p.XP += amount
	}
	up := LevelUp{From: p.Level, To: p.Level}
	level := r.Curve.LevelFor(p.XP)
	if level <= p.Level {
		return up
	}

	maxHP, atk := r.MaxHP(level), r.Attack(level)
	up.To = level
	up.HPGained = maxHP - r.MaxHP(p.Level)
	up.AtkGained = atk - r.Attack(p.Level)

	p.Level = level
	p.MaxHP = maxHP
	p.HP += up.HPGained
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	p.Attack = atk
	return up
}

// Progress returns the experience at which the player's current level
// started and the total needed for the next one. At the level cap both are
// the current level's threshold.
func (r Rules) Progress(p types.Player) (levelXP, nextXP int) {
	levelXP = r.Curve.Threshold(p.Level)
	if r.Curve.MaxLevel > 0 && p.Level >= r.Curve.MaxLevel {
		return levelXP, levelXP
	}
	return levelXP, levelXP + r.Curve.StepCost(p.Level)
}
