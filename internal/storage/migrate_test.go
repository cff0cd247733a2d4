package storage

import (
	"testing"

	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/state"
)

func TestMigrate_InitializesNilCollections(t *testing.T) {
	gs := &state.GameState{}
	Migrate(gs)

	if gs.NPCs == nil || gs.Clocks == nil {
		t.Error("roster or clocks left nil")
	}
	if gs.LocationHistory == nil || gs.SessionLog == nil || gs.NarrationHistory == nil ||
		gs.IntensityHistory == nil || gs.CampaignHistory == nil {
		t.Error("history slices left nil")
	}
}

func TestMigrate_NPCUpgrades(t *testing.T) {
	legacy := &npc.NPC{
		ID:          "mara_voss",
		Name:        "Mara Voss",
		Disposition: "coldly formal",
		Status:      "inactive",
		Memory: []npc.Memory{
			{Event: "met the player"},
		},
	}
	legacy.NeedsReflection = true

	gs := &state.GameState{NPCs: npc.Roster{"mara_voss": legacy}}
	Migrate(gs)

	if legacy.Disposition != npc.DispositionNeutral {
		t.Errorf("disposition = %q, want normalized neutral", legacy.Disposition)
	}
	if legacy.Status != npc.StatusBackground {
		t.Errorf("status = %q, legacy inactive should map to background", legacy.Status)
	}
	if legacy.Aliases == nil {
		t.Error("aliases left nil")
	}
	if !legacy.Introduced {
		t.Error("NPC with memories should be marked introduced")
	}
	if legacy.Memory[0].Type != npc.MemoryObservation {
		t.Errorf("memory type = %q", legacy.Memory[0].Type)
	}
	if legacy.Memory[0].Importance != 3 {
		t.Errorf("memory importance = %d, want 3 default", legacy.Memory[0].Importance)
	}
	if legacy.NeedsReflection {
		t.Error("reflection flag must not survive a load")
	}
}

func TestMigrate_UnknownStatusBecomesActive(t *testing.T) {
	n := &npc.NPC{ID: "fen", Name: "Fen", Status: "???"}
	gs := &state.GameState{NPCs: npc.Roster{"fen": n}}
	Migrate(gs)
	if n.Status != npc.StatusActive {
		t.Errorf("status = %q", n.Status)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	gs := state.NewGameState("Rook", state.Stats{Edge: 1, Heart: 2, Iron: 2, Shadow: 1, Wits: 1})
	n := npc.New("mara_voss", "Mara Voss")
	n.Disposition = npc.DispositionFriendly
	n.AddObservation(1, "met the player", "curious")
	gs.NPCs["mara_voss"] = n

	Migrate(gs)
	imp := n.Memory[0].Importance
	Migrate(gs)

	if n.Disposition != npc.DispositionFriendly {
		t.Errorf("disposition changed: %q", n.Disposition)
	}
	if n.Memory[0].Importance != imp {
		t.Errorf("importance changed across migrations: %d != %d", n.Memory[0].Importance, imp)
	}
}
