package state

const (
	ResultStrongHit = "STRONG_HIT"
	ResultWeakHit   = "WEAK_HIT"
	ResultMiss      = "MISS"
)

const (
	PositionControlled = "controlled"
	PositionRisky      = "risky"
	PositionDesperate  = "desperate"

	EffectLimited  = "limited"
	EffectStandard = "standard"
	EffectGreat    = "great"
)

// RollResult is the outcome of one action roll: 2d6 plus a stat capped
// at 10, against two d10 challenge dice. Match is a narrative-weight
// signal only; it has no mechanical effect.
type RollResult struct {
	Stat        string `json:"stat"`
	StatValue   int    `json:"stat_value"`
	ActionDie1  int    `json:"action_die_1"`
	ActionDie2  int    `json:"action_die_2"`
	ActionScore int    `json:"action_score"`
	Challenge1  int    `json:"challenge_1"`
	Challenge2  int    `json:"challenge_2"`
	Result      string `json:"result"`
	Match       bool   `json:"match"`
}

// MoveContext is the classifier's mechanical framing for one action.
type MoveContext struct {
	Move             string `json:"move"`
	Stat             string `json:"stat"`
	Position         string `json:"position"`
	Effect           string `json:"effect"`
	TargetID         string `json:"target_npc,omitempty"`
	Intent           string `json:"intent,omitempty"`
	Approach         string `json:"approach,omitempty"`
	DramaticQuestion string `json:"dramatic_question,omitempty"`
	LocationChange   string `json:"location_change,omitempty"`
	TimeProgression  string `json:"time_progression,omitempty"`
}

// Consequence is one player-visible mechanical outcome line, consumed
// by clients as part of the roll display.
type Consequence struct {
	Kind   string `json:"kind"` // track, momentum, bond, clock, disposition
	Target string `json:"target,omitempty"`
	Delta  int    `json:"delta,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// BurnOffer is stashed on the state when a failed roll could be
// upgraded by burning momentum. The snapshot allows an exact
// restore-then-reapply if the player takes the offer.
type BurnOffer struct {
	UpgradeTo   string      `json:"upgrade_to"`
	Roll        RollResult  `json:"roll"`
	Move        MoveContext `json:"move"`
	PlayerInput string      `json:"player_input"`
	Snapshot    Snapshot    `json:"snapshot"`
}
