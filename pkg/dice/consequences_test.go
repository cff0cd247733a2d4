package dice

import (
	"testing"

	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/state"
)

func testState() *state.GameState {
	return state.NewGameState("Tester", state.DefaultStats())
}

func missRoll() state.RollResult {
	return state.RollResult{Result: state.ResultMiss}
}

func findConsequence(out []state.Consequence, kind, target string) *state.Consequence {
	for i := range out {
		if out[i].Kind == kind && out[i].Target == target {
			return &out[i]
		}
	}
	return nil
}

func TestApplyConsequences_MissCombat(t *testing.T) {
	tests := []struct {
		name         string
		position     string
		wantHealth   int
		wantMomentum int
	}{
		{"risky", state.PositionRisky, 3, 0},
		{"controlled", state.PositionControlled, 4, 0},
		{"desperate", state.PositionDesperate, 2, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := testState()
			out, _ := ApplyConsequences(gs, missRoll(), state.MoveContext{
				Move:     "strike",
				Position: tt.position,
			})

			if gs.Health != tt.wantHealth {
				t.Errorf("health = %d, want %d", gs.Health, tt.wantHealth)
			}
			if gs.Momentum != tt.wantMomentum {
				t.Errorf("momentum = %d, want %d", gs.Momentum, tt.wantMomentum)
			}
			if findConsequence(out, "track", "health") == nil {
				t.Error("missing health consequence line")
			}
			if findConsequence(out, "momentum", "") == nil {
				t.Error("missing momentum consequence line")
			}
		})
	}
}

func TestApplyConsequences_MissSocialErodesBond(t *testing.T) {
	gs := testState()
	gs.NPCs["mara"] = npc.New("mara", "Mara")
	gs.NPCs["mara"].Bond = 2

	out, _ := ApplyConsequences(gs, missRoll(), state.MoveContext{
		Move:     "compel",
		Position: state.PositionRisky,
		TargetID: "mara",
	})

	if gs.NPCs["mara"].Bond != 1 {
		t.Errorf("bond = %d, want 1", gs.NPCs["mara"].Bond)
	}
	if gs.Spirit != 4 {
		t.Errorf("spirit = %d, want 4", gs.Spirit)
	}
	if findConsequence(out, "bond", "mara") == nil {
		t.Error("missing bond consequence line")
	}
}

func TestApplyConsequences_MissSocialBondFloor(t *testing.T) {
	gs := testState()
	gs.NPCs["mara"] = npc.New("mara", "Mara")
	gs.NPCs["mara"].Bond = 0

	out, _ := ApplyConsequences(gs, missRoll(), state.MoveContext{
		Move:     "compel",
		Position: state.PositionRisky,
		TargetID: "mara",
	})

	if gs.NPCs["mara"].Bond != 0 {
		t.Errorf("bond went negative: %d", gs.NPCs["mara"].Bond)
	}
	if findConsequence(out, "bond", "mara") != nil {
		t.Error("bond line emitted at floor")
	}
}

func TestApplyConsequences_MissGeneric(t *testing.T) {
	t.Run("risky costs supply and health", func(t *testing.T) {
		gs := testState()
		ApplyConsequences(gs, missRoll(), state.MoveContext{
			Move:     "face_danger",
			Position: state.PositionRisky,
		})
		if gs.Supply != 4 || gs.Health != 4 {
			t.Errorf("supply/health = %d/%d, want 4/4", gs.Supply, gs.Health)
		}
	})

	t.Run("controlled costs supply only", func(t *testing.T) {
		gs := testState()
		ApplyConsequences(gs, missRoll(), state.MoveContext{
			Move:     "face_danger",
			Position: state.PositionControlled,
		})
		if gs.Supply != 4 || gs.Health != 5 {
			t.Errorf("supply/health = %d/%d, want 4/5", gs.Supply, gs.Health)
		}
	})
}

func TestApplyConsequences_MissEndure(t *testing.T) {
	gs := testState()
	ApplyConsequences(gs, missRoll(), state.MoveContext{
		Move:     "endure_harm",
		Position: state.PositionDesperate,
	})
	if gs.Health != 3 {
		t.Errorf("health = %d, want 3", gs.Health)
	}

	gs = testState()
	ApplyConsequences(gs, missRoll(), state.MoveContext{
		Move:     "endure_stress",
		Position: state.PositionRisky,
	})
	if gs.Spirit != 4 {
		t.Errorf("spirit = %d, want 4", gs.Spirit)
	}
}

func TestApplyConsequences_MissAdvancesThreatClock(t *testing.T) {
	gs := testState()
	gs.Clocks["doom"] = &state.Clock{
		ID: "doom", Name: "The Flood Rises", Type: state.ClockTypeThreat,
		Segments: 4, Filled: 2, Trigger: "the levee breaks",
	}

	out, events := ApplyConsequences(gs, missRoll(), state.MoveContext{
		Move:     "face_danger",
		Position: state.PositionDesperate,
	})

	if gs.Clocks["doom"].Filled != 4 {
		t.Errorf("clock filled = %d, want 4 (desperate ticks twice)", gs.Clocks["doom"].Filled)
	}
	if len(events) != 1 || events[0].Trigger != "the levee breaks" {
		t.Fatalf("events = %+v, want one completion event", events)
	}
	if findConsequence(out, "clock", "doom") == nil {
		t.Error("missing clock consequence line")
	}
}

func TestApplyConsequences_WeakHit(t *testing.T) {
	gs := testState()
	gs.NPCs["finn"] = npc.New("finn", "Finn")

	out, _ := ApplyConsequences(gs, state.RollResult{Result: state.ResultWeakHit}, state.MoveContext{
		Move:     "make_connection",
		Position: state.PositionRisky,
		TargetID: "finn",
	})

	if gs.Momentum != state.MomentumStart+1 {
		t.Errorf("momentum = %d, want %d", gs.Momentum, state.MomentumStart+1)
	}
	if gs.NPCs["finn"].Bond != 1 {
		t.Errorf("bond = %d, want 1", gs.NPCs["finn"].Bond)
	}
	if findConsequence(out, "bond", "finn") == nil {
		t.Error("missing bond consequence line")
	}
}

func TestApplyConsequences_StrongHit(t *testing.T) {
	t.Run("standard effect", func(t *testing.T) {
		gs := testState()
		ApplyConsequences(gs, state.RollResult{Result: state.ResultStrongHit}, state.MoveContext{
			Move:     "face_danger",
			Position: state.PositionRisky,
			Effect:   state.EffectStandard,
		})
		if gs.Momentum != state.MomentumStart+2 {
			t.Errorf("momentum = %d, want %d", gs.Momentum, state.MomentumStart+2)
		}
	})

	t.Run("great effect", func(t *testing.T) {
		gs := testState()
		ApplyConsequences(gs, state.RollResult{Result: state.ResultStrongHit}, state.MoveContext{
			Move:     "face_danger",
			Position: state.PositionRisky,
			Effect:   state.EffectGreat,
		})
		if gs.Momentum != state.MomentumStart+3 {
			t.Errorf("momentum = %d, want %d", gs.Momentum, state.MomentumStart+3)
		}
	})

	t.Run("relationship move lifts bond and disposition", func(t *testing.T) {
		gs := testState()
		n := npc.New("finn", "Finn")
		n.Disposition = npc.DispositionNeutral
		gs.NPCs["finn"] = n

		out, _ := ApplyConsequences(gs, state.RollResult{Result: state.ResultStrongHit}, state.MoveContext{
			Move:     "make_connection",
			Position: state.PositionRisky,
			Effect:   state.EffectStandard,
			TargetID: "finn",
		})

		if n.Bond != 1 {
			t.Errorf("bond = %d, want 1", n.Bond)
		}
		if n.Disposition != npc.DispositionFriendly {
			t.Errorf("disposition = %q, want friendly", n.Disposition)
		}
		if findConsequence(out, "disposition", "finn") == nil {
			t.Error("missing disposition consequence line")
		}
	})
}

func TestApplyConsequences_GameOverIsSticky(t *testing.T) {
	gs := testState()
	gs.Health = 1
	gs.Spirit = 0

	ApplyConsequences(gs, missRoll(), state.MoveContext{
		Move:     "strike",
		Position: state.PositionRisky,
	})

	if !gs.CrisisMode || !gs.GameOver {
		t.Fatalf("crisis/gameover = %v/%v, want true/true", gs.CrisisMode, gs.GameOver)
	}

	// Recovery on one track does not clear game over.
	gs.Health = 3
	gs.RecomputeCrisis()
	if !gs.GameOver {
		t.Error("game over cleared by track recovery")
	}
}
