// Package types defines the shared data structures for the kanjicrawl engine.
// This package contains only type definitions and the shared error values, with
// no game logic.
package types

// Position is a map coordinate. Row grows downward, Col grows rightward.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Tile is the content of a single map cell.
type Tile uint8

const (
	TileEmpty  Tile = iota // outside the map; never passable
	TileWall               // solid rock
	TileFloor              // walkable ground
	TileExit               // stairs to the next floor
	TileHerb               // pickup: heals on contact
	TilePotion             // pickup: one potion into the inventory
)

// Map is a fixed-size grid of tiles stored row-major.
type Map struct {
	Width  int
	Height int
	Tiles  []Tile
}

// Vitals is the hit-point record shared by every combatant.
type Vitals struct {
	HP    int `json:"hp"`
	MaxHP int `json:"max_hp"`
}

// Player holds the player's runtime state.
type Player struct {
	Pos     Position `json:"pos"`
	Vitals           // embedded: hp / max_hp
	Attack  int      `json:"attack"`
	Level   int      `json:"level"`
	XP      int      `json:"xp"`
	Potions int      `json:"potions"`
	Streak  int      `json:"streak"`
}

// Enemy is one monster on the current floor.
type Enemy struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Tier    int      `json:"tier"`
	Pos     Position `json:"pos"`
	Vitals
	Attack  int  `json:"attack"`
	Reward  int  `json:"reward"`  // experience granted on defeat
	Engaged bool `json:"engaged"` // true while bound to the active encounter
}

// VocabEntry is one dictionary word. Entries are immutable once fetched;
// Readings are kept in hiragana, in the order the dictionary lists them.
type VocabEntry struct {
	ID       string   `json:"id"`
	Surface  string   `json:"surface"`
	Readings []string `json:"readings"`
	Gloss    string   `json:"gloss"`
	Tier     int      `json:"tier"`
}

// SeenRecord tracks how recently and how well a word was tested.
type SeenRecord struct {
	LastSeen int64 `json:"last_seen"` // SeenHistory.Clock value at last presentation
	Times    int   `json:"times"`
	Misses   int   `json:"misses"`
}

// SeenHistory maps VocabEntry IDs to their exposure record. Clock advances
// by one for every question presented.
type SeenHistory struct {
	Clock   int64                 `json:"clock"`
	Entries map[string]SeenRecord `json:"entries"`
}

// EncounterState is the position of an encounter in its state machine.
type EncounterState uint8

const (
	EncounterInitiated EncounterState = iota
	EncounterAwaiting
	EncounterResolved
	EncounterConcluded
)

// Outcome classifies a resolution (Correct/Incorrect) or a conclusion
// (Victory/Defeat/Fled/Skipped).
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeCorrect
	OutcomeIncorrect
	OutcomeVictory
	OutcomeDefeat
	OutcomeFled
	OutcomeSkipped
)

// Encounter binds one enemy to the player for a run of question rounds.
type Encounter struct {
	EnemyID     string         `json:"enemy_id"`
	State       EncounterState `json:"state"`
	Word        VocabEntry     `json:"word"`
	Round       int            `json:"round"`
	Correct     int            `json:"correct"`
	Incorrect   int            `json:"incorrect"`
	Result      Outcome        `json:"result"`     // last resolution
	Conclusion  Outcome        `json:"conclusion"` // set once concluded
	Input       string         `json:"input"`      // last normalised answer
	DamageDealt int            `json:"damage_dealt"`
	DamageTaken int            `json:"damage_taken"`
	NearMiss    bool           `json:"near_miss"`
}

// Phase is the turn controller state.
type Phase uint8

const (
	PhasePlayerTurn Phase = iota
	PhaseEnemyTurn
	PhaseEncounter
	PhaseGameOver
)

var phaseNames = [...]string{"player_turn", "enemy_turn", "encounter", "game_over"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// GameState is the complete mutable game state.
type GameState struct {
	Map         Map
	Player      Player
	Enemies     []Enemy // ordered by ID of creation
	Encounter   *Encounter
	Seen        SeenHistory
	Phase       Phase
	EndReason   string // "defeat" or "quit" once Phase is PhaseGameOver
	Turn        int
	Floor       int
	NextEnemyID int
	RNGSeed     int64
	RNGPosition int64
}

// EnemyDef is the archetype enemies of a tier are spawned from.
type EnemyDef struct {
	Name   string
	HP     int
	Attack int
	Reward int
}

// TierDef describes one difficulty tier.
type TierDef struct {
	Tier        int
	UnlockLevel int
	Enemy       EnemyDef
}

// Balance holds every tunable number of a run.
type Balance struct {
	MapWidth      int
	MapHeight     int
	EnemyCount    int
	ItemCount     int
	SpawnDistance int
	FloorFraction float64
	PotionChance  int // percent of pickups that are potions
	AggroRadius   int

	PlayerHP       int
	PlayerAttack   int
	HPPerLevel     int
	AttackPerLevel int

	DamageVariance int // damage = stat + roll(1dVariance) - 1
	HerbHeal       int
	PotionHeal     int

	XPBase   int
	XPGrowth float64
	MaxLevel int

	DecayFloor    float64
	DecayHalfLife float64
	WeakBonus     float64

	Tiers       []TierDef // indexed by tier-1
	TierWeights [][]int   // TierWeights[maxTier-1] = spawn weights of tiers 1..maxTier
}

// GameInfo holds content metadata.
type GameInfo struct {
	Title   string
	Author  string
	Version string
	Intro   string
}

// ActionKind enumerates the discrete inputs the engine accepts.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionMoveUp
	ActionMoveDown
	ActionMoveLeft
	ActionMoveRight
	ActionSubmitText
	ActionConfirm
	ActionQuit
	ActionFlee
	ActionUsePotion
	ActionWait
)

// Action is one player input. Text is used by ActionSubmitText only.
type Action struct {
	Kind ActionKind
	Text string
}

// MoveOutcome reports what an attempted move did.
type MoveOutcome uint8

const (
	MoveNone MoveOutcome = iota
	MoveBlocked
	MoveMoved
	MovePickedUp
	MoveEngaged
	MoveSkipped // bumped an enemy but no vocabulary was available
	MoveDescended
)

// Event is emitted for every observable transition.
type Event struct {
	Type string
	Data map[string]any
}

// EncounterView is the read-only projection of an encounter.
type EncounterView struct {
	EnemyID     string
	EnemyName   string
	EnemyTier   int
	EnemyHP     int
	EnemyMaxHP  int
	State       EncounterState
	Result      Outcome
	Conclusion  Outcome
	Round       int
	Surface     string
	Gloss       string   // revealed after resolution
	Readings    []string // revealed after resolution
	Input       string
	DamageDealt int
	DamageTaken int
	NearMiss    bool
}

// View is the snapshot handed to front ends after every transition.
type View struct {
	Phase       Phase
	EndReason   string
	Turn        int
	Floor       int
	Map         Map // copy
	Player      Player
	Enemies     []Enemy // copy
	Encounter   *EncounterView
	MaxTier     int
	LevelXP     int // cumulative xp at which the current level started
	NextLevelXP int // cumulative xp needed for the next level
}

// Result is the output of a single engine step.
type Result struct {
	View   View
	Move   MoveOutcome
	Output []string
	Events []Event
	Err    error
}
