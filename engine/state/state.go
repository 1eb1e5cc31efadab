// Package state builds the game state and provides the lookups and
// invariant checks the rest of the engine shares.
package state

import (
	"github.com/nathoo/kanjicrawl/types"
)

// DefaultBalance returns the balance a run uses for any field content
// leaves unset.
func DefaultBalance() types.Balance {
	return types.Balance{
		MapWidth:      40,
		MapHeight:     18,
		EnemyCount:    8,
		ItemCount:     5,
		SpawnDistance: 5,
		FloorFraction: 0.35,
		PotionChance:  20,
		AggroRadius:   6,

		PlayerHP:       30,
		PlayerAttack:   2,
		HPPerLevel:     5,
		AttackPerLevel: 1,

		DamageVariance: 2,
		HerbHeal:       10,
		PotionHeal:     15,

		XPBase:   50,
		XPGrowth: 1.5,
		MaxLevel: 20,

		DecayFloor:    0.05,
		DecayHalfLife: 6,
		WeakBonus:     0.5,

		Tiers: []types.TierDef{
			{Tier: 1, UnlockLevel: 1, Enemy: types.EnemyDef{Name: "Slime", HP: 5, Attack: 3, Reward: 10}},
			{Tier: 2, UnlockLevel: 3, Enemy: types.EnemyDef{Name: "Goblin", HP: 8, Attack: 5, Reward: 20}},
			{Tier: 3, UnlockLevel: 5, Enemy: types.EnemyDef{Name: "Oni", HP: 11, Attack: 7, Reward: 30}},
		},
		TierWeights: [][]int{{100}, {85, 15}, {75, 20, 5}},
	}
}

// NewState creates a fresh game state with a level 1 player and an empty
// map. The caller places the player and populates the floor.
func NewState(b types.Balance, seed int64) *types.GameState {
	return &types.GameState{
		Player: types.Player{
			Vitals: types.Vitals{HP: b.PlayerHP, MaxHP: b.PlayerHP},
			Attack: b.PlayerAttack,
			Level:  1,
		},
		Enemies: []types.Enemy{},
		Seen:    types.SeenHistory{Entries: map[string]types.SeenRecord{}},
		Phase:   types.PhasePlayerTurn,
		Floor:   1,
		RNGSeed: seed,
	}
}

// Enemy looks up a live enemy by ID.
func Enemy(s *types.GameState, id string) (*types.Enemy, bool) {
	if i := EnemyIndex(s, id); i >= 0 {
		return &s.Enemies[i], true
	}
	return nil, false
}

// EnemyIndex returns the index of the enemy with the given ID, or -1.
func EnemyIndex(s *types.GameState, id string) int {
	for i := range s.Enemies {
		if s.Enemies[i].ID == id {
			return i
		}
	}
	return -1
}

// EnemyAt returns the index of the enemy standing on p, or -1.
func EnemyAt(s *types.GameState, p types.Position) int {
	for i := range s.Enemies {
		if s.Enemies[i].Pos == p {
			return i
		}
	}
	return -1
}

// RemoveEnemy deletes an enemy, preserving the order of the rest.
func RemoveEnemy(s *types.GameState, id string) bool {
	i := EnemyIndex(s, id)
	if i < 0 {
		return false
	}
	s.Enemies = append(s.Enemies[:i], s.Enemies[i+1:]...)
	return true
}

// Occupied reports whether the player or any enemy stands on p.
func Occupied(s *types.GameState, p types.Position) bool {
	return s.Player.Pos == p || EnemyAt(s, p) >= 0
}

// Damage lowers v.HP by n, never below zero, and returns the amount taken.
func Damage(v *types.Vitals, n int) int {
	if n <= 0 {
		return 0
	}
	if n > v.HP {
		n = v.HP
	}
	v.HP -= n
	return n
}

// Heal raises v.HP by n, never above MaxHP, and returns the amount healed.
func Heal(v *types.Vitals, n int) int {
	if n <= 0 {
		return 0
	}
	if room := v.MaxHP - v.HP; n > room {
		n = room
	}
	v.HP += n
	return n
}

// Alive reports whether v has hit points left.
func Alive(v types.Vitals) bool { return v.HP > 0 }

// Manhattan returns the grid distance between a and b.
func Manhattan(a, b types.Position) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// TierDef returns the definition of tier t, clamped to the defined range.
func TierDef(b types.Balance, t int) types.TierDef {
	if len(b.Tiers) == 0 {
		return types.TierDef{Tier: 1, UnlockLevel: 1}
	}
	if t < 1 {
		t = 1
	}
	if t > len(b.Tiers) {
		t = len(b.Tiers)
	}
	return b.Tiers[t-1]
}
