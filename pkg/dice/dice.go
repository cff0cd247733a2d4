package dice

import (
	"math/rand/v2"

	"github.com/averyhale/saga-engine/pkg/state"
)

// Roller is the dice source. Tests supply a scripted implementation.
type Roller interface {
	D6() int
	D10() int
	IntN(n int) int
	Float64() float64
}

type randRoller struct{}

// NewRoller returns the production dice source.
func NewRoller() Roller {
	return randRoller{}
}

func (randRoller) D6() int          { return rand.IntN(6) + 1 }
func (randRoller) D10() int         { return rand.IntN(10) + 1 }
func (randRoller) IntN(n int) int   { return rand.IntN(n) }
func (randRoller) Float64() float64 { return rand.Float64() }

// RollAction performs one action roll: 2d6 plus the stat, capped at 10,
// against two d10 challenge dice. Strong hit beats both challenges,
// weak hit beats exactly one, miss beats neither. Equal challenge dice
// set the match flag regardless of the result.
func RollAction(r Roller, statName string, statValue int) state.RollResult {
	d1, d2 := r.D6(), r.D6()
	score := d1 + d2 + statValue
	if score > 10 {
		score = 10
	}
	c1, c2 := r.D10(), r.D10()

	beaten := 0
	if score > c1 {
		beaten++
	}
	if score > c2 {
		beaten++
	}
	result := state.ResultMiss
	switch beaten {
	case 1:
		result = state.ResultWeakHit
	case 2:
		result = state.ResultStrongHit
	}

	return state.RollResult{
		Stat:        statName,
		StatValue:   statValue,
		ActionDie1:  d1,
		ActionDie2:  d2,
		ActionScore: score,
		Challenge1:  c1,
		Challenge2:  c2,
		Result:      result,
		Match:       c1 == c2,
	}
}

// CanBurnMomentum reports the best upgrade purchasable by burning all
// momentum: momentum must be positive and strictly beat every challenge
// die the action score did not.
func CanBurnMomentum(momentum int, roll state.RollResult) (string, bool) {
	if momentum <= 0 || roll.Result == state.ResultStrongHit {
		return "", false
	}

	beatsC1 := momentum > roll.Challenge1
	beatsC2 := momentum > roll.Challenge2

	if roll.Result == state.ResultWeakHit {
		// One die is already beaten; momentum must beat the other.
		unbeaten := roll.Challenge1
		if roll.ActionScore > roll.Challenge1 {
			unbeaten = roll.Challenge2
		}
		if momentum > unbeaten {
			return state.ResultStrongHit, true
		}
		return "", false
	}

	if beatsC1 && beatsC2 {
		return state.ResultStrongHit, true
	}
	if beatsC1 || beatsC2 {
		return state.ResultWeakHit, true
	}
	return "", false
}

// UpdateChaos applies the post-narration chaos adjustment: misses raise
// tension, strong hits release it.
func UpdateChaos(gs *state.GameState, result string) {
	switch result {
	case state.ResultMiss:
		gs.AdjustChaos(1)
	case state.ResultStrongHit:
		gs.AdjustChaos(-1)
	}
}
