package dice

import (
	"fmt"

	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/state"
)

// ApplyConsequences mutates the game state per the deterministic
// (result, move category, position) table and returns the visible
// consequence lines plus any clock events fired. Crisis and game-over
// are recomputed afterwards.
func ApplyConsequences(gs *state.GameState, roll state.RollResult, mv state.MoveContext) ([]state.Consequence, []state.ClockEvent) {
	var out []state.Consequence
	var events []state.ClockEvent

	move := LookupMove(mv.Move)
	desperate := mv.Position == state.PositionDesperate
	controlled := mv.Position == state.PositionControlled

	track := func(name string, delta int) {
		if delta == 0 {
			return
		}
		gs.AdjustTrack(name, delta)
		out = append(out, state.Consequence{Kind: "track", Target: name, Delta: delta})
	}
	momentum := func(delta int) {
		gs.AdjustMomentum(delta)
		out = append(out, state.Consequence{Kind: "momentum", Delta: delta})
	}

	switch roll.Result {
	case state.ResultMiss:
		switch {
		case move.Name == "endure_harm":
			if desperate {
				track("health", -2)
			} else {
				track("health", -1)
			}
		case move.Name == "endure_stress":
			if desperate {
				track("spirit", -2)
			} else {
				track("spirit", -1)
			}
		case move.Category == CategoryCombat:
			switch {
			case desperate:
				track("health", -3)
			case controlled:
				track("health", -1)
			default:
				track("health", -2)
			}
		case move.Category == CategorySocial:
			if target := gs.NPCs.Find(mv.TargetID); target != nil && target.Bond > 0 {
				target.Bond--
				out = append(out, state.Consequence{Kind: "bond", Target: target.ID, Delta: -1})
			}
			if desperate {
				track("spirit", -2)
			} else {
				track("spirit", -1)
			}
		default:
			track("supply", -1)
			switch {
			case desperate:
				track("health", -2)
			case controlled:
				// A controlled miss costs resources, not blood.
			default:
				track("health", -1)
			}
		}

		if desperate {
			momentum(-3)
		} else {
			momentum(-2)
		}

		if c := gs.FirstOpenThreatClock(); c != nil {
			ticks := 1
			if desperate {
				ticks = 2
			}
			if ev := c.Advance(ticks); ev != nil {
				events = append(events, *ev)
			}
			out = append(out, state.Consequence{
				Kind:   "clock",
				Target: c.ID,
				Delta:  ticks,
				Detail: fmt.Sprintf("%s advances to %d/%d", c.Name, c.Filled, c.Segments),
			})
		}

	case state.ResultWeakHit:
		momentum(1)
		if relationshipMoves[move.Name] {
			if target := gs.NPCs.Find(mv.TargetID); target != nil && target.Bond < npc.MaxBond {
				target.Bond++
				out = append(out, state.Consequence{Kind: "bond", Target: target.ID, Delta: 1})
			}
		}

	case state.ResultStrongHit:
		if mv.Effect == state.EffectGreat {
			momentum(3)
		} else {
			momentum(2)
		}
		if dispositionMoves[move.Name] {
			if target := gs.NPCs.Find(mv.TargetID); target != nil {
				if target.Bond < npc.MaxBond {
					target.Bond++
					out = append(out, state.Consequence{Kind: "bond", Target: target.ID, Delta: 1})
				}
				if next := npc.AdvanceDisposition(target.Disposition); next != target.Disposition {
					target.Disposition = next
					out = append(out, state.Consequence{Kind: "disposition", Target: target.ID, Detail: next})
				}
			}
		}
	}

	gs.RecomputeCrisis()
	return out, events
}
