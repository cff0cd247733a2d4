package parser

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/state"
)

func testParser() *Parser {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testState(scene int) *state.GameState {
	gs := state.NewGameState("Rook", state.Stats{Edge: 1, Heart: 2, Iron: 2, Shadow: 1, Wits: 1})
	gs.SceneCount = scene
	return gs
}

func TestParse_GameDataTagReplacesOnSceneOne(t *testing.T) {
	gs := testState(1)
	gs.NPCs["leftover"] = npc.New("leftover", "Leftover")

	raw := `<game_data>
{
  "npcs": [{"name": "Mara Voss", "disposition": "wary", "description": "harbor pilot"}],
  "clocks": [{"name": "The Flood", "segments": 6, "trigger": "the levee breaks"}],
  "location": "the_drowned_quay",
  "time_of_day": "dusk",
  "scene_context": "Rain is coming in sideways."
}
</game_data>
Mara Voss waves you over from the pier.`

	res := testParser().Parse(gs, raw)

	if res.Prose != "Mara Voss waves you over from the pier." {
		t.Errorf("prose = %q", res.Prose)
	}
	if _, ok := gs.NPCs["leftover"]; ok {
		t.Error("scene-one payload did not replace the roster")
	}
	mara := gs.NPCs["mara_voss"]
	if mara == nil {
		t.Fatal("Mara Voss not installed")
	}
	if mara.Disposition != npc.DispositionDistrustful {
		t.Errorf("disposition = %q, want normalized distrustful", mara.Disposition)
	}
	if !mara.Introduced {
		t.Error("opening-payload NPC not marked introduced")
	}
	clock := gs.Clocks["the_flood"]
	if clock == nil || clock.Segments != 6 || clock.Trigger != "the levee breaks" {
		t.Errorf("clock = %+v", clock)
	}
	if gs.Location != "the drowned quay" {
		t.Errorf("location = %q", gs.Location)
	}
	if gs.TimeOfDay != "dusk" {
		t.Errorf("time of day = %q", gs.TimeOfDay)
	}
	if gs.SceneContext != "Rain is coming in sideways." {
		t.Errorf("scene context = %q", gs.SceneContext)
	}
	if len(res.NewNPCIDs) != 1 || res.NewNPCIDs[0] != "mara_voss" {
		t.Errorf("new NPC ids = %v", res.NewNPCIDs)
	}
}

func TestParse_GameDataMidChapterOnlyMerges(t *testing.T) {
	gs := testState(7)
	mara := npc.New("mara_voss", "Mara Voss")
	mara.Bond = 3
	gs.NPCs["mara_voss"] = mara
	gs.Clocks["the_flood"] = &state.Clock{ID: "the_flood", Name: "The Flood", Segments: 6, Filled: 4}

	raw := `<game_data>{"npcs": [{"name": "Mara Voss", "description": "soaked through"}], "clocks": [{"name": "The Flood", "filled": 0}]}</game_data>
The storm does not let up.`

	testParser().Parse(gs, raw)

	if gs.NPCs["mara_voss"] != mara {
		t.Fatal("established NPC was replaced")
	}
	if mara.Bond != 3 {
		t.Errorf("bond = %d, merge should not reset it", mara.Bond)
	}
	if mara.Description != "soaked through" {
		t.Errorf("description = %q, payload fields should still land", mara.Description)
	}
	if gs.Clocks["the_flood"].Filled != 4 {
		t.Errorf("clock fill = %d, hallucinated payload reset it", gs.Clocks["the_flood"].Filled)
	}
}

func TestParse_UntaggedGameData(t *testing.T) {
	gs := testState(1)
	raw := `{"npcs": [{"name": "Brother Callum", "disposition": "friendly"}], "location": "chapel"}

The chapel doors hang open.`

	res := testParser().Parse(gs, raw)

	if gs.NPCs["brother_callum"] == nil {
		t.Fatal("untagged payload not applied")
	}
	if gs.Location != "chapel" {
		t.Errorf("location = %q", gs.Location)
	}
	if res.Prose != "The chapel doors hang open." {
		t.Errorf("prose = %q", res.Prose)
	}
}

func TestParse_RenameTag(t *testing.T) {
	gs := testState(5)
	gs.NPCs["the_stranger"] = npc.New("the_stranger", "The Stranger")

	raw := `<npc_rename>{"npc_id": "the_stranger", "new_name": "Kellan Marsh"}</npc_rename>
"My name is Kellan," the stranger says at last.`

	testParser().Parse(gs, raw)

	n := gs.NPCs["the_stranger"]
	if n.Name != "Kellan Marsh" {
		t.Errorf("name = %q", n.Name)
	}
	found := false
	for _, a := range n.Aliases {
		if a == "The Stranger" {
			found = true
		}
	}
	if !found {
		t.Errorf("old name not kept as alias: %v", n.Aliases)
	}
}

func TestParse_NewNPCFuzzyMergesWithRoster(t *testing.T) {
	gs := testState(6)
	mara := npc.New("mara_voss", "Mara Voss")
	mara.Bond = 2
	gs.NPCs["mara_voss"] = mara

	raw := `<new_npcs>[{"name": "Captain Voss", "agenda": "keep her crew alive"}]</new_npcs>
The captain squares her shoulders.`

	res := testParser().Parse(gs, raw)

	if len(gs.NPCs) != 1 {
		t.Fatalf("roster grew to %d, declared NPC should have merged", len(gs.NPCs))
	}
	if mara.Agenda != "keep her crew alive" {
		t.Errorf("agenda = %q", mara.Agenda)
	}
	if len(res.NewNPCIDs) != 0 {
		t.Errorf("merge reported as new NPC: %v", res.NewNPCIDs)
	}
}

func TestParse_MemoryUpdates(t *testing.T) {
	gs := testState(4)
	gs.NPCs["mara_voss"] = npc.New("mara_voss", "Mara Voss")

	raw := `<memory_updates>[
{"npc_id": "mara_voss", "event": "the player pulled her from the water", "emotional_weight": "grateful"},
{"npc_id": "world", "event": "the storm worsened"},
{"npc_id": "Rook", "event": "self reference"},
{"npc_id": "Old Fen", "event": "watched the rescue from the shore"}
]</memory_updates>
The rescue leaves everyone shaking.`

	res := testParser().Parse(gs, raw)

	if res.MemoryUpdates != 2 {
		t.Errorf("memory updates = %d, want 2 (world and player refs skipped)", res.MemoryUpdates)
	}
	if len(gs.NPCs["mara_voss"].Memory) != 1 {
		t.Errorf("mara memories = %d", len(gs.NPCs["mara_voss"].Memory))
	}
	stub := gs.NPCs.Find("Old Fen")
	if stub == nil {
		t.Fatal("unknown memory ref did not create a stub")
	}
	if len(res.NewNPCIDs) != 1 || res.NewNPCIDs[0] != stub.ID {
		t.Errorf("new NPC ids = %v", res.NewNPCIDs)
	}
}

func TestParse_SceneContextForms(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		gs := testState(3)
		testParser().Parse(gs, "<scene_context>A narrow stairwell, lit by one candle.</scene_context>\nYou climb.")
		if gs.SceneContext != "A narrow stairwell, lit by one candle." {
			t.Errorf("scene context = %q", gs.SceneContext)
		}
	})

	t.Run("json object with location", func(t *testing.T) {
		gs := testState(3)
		testParser().Parse(gs, `<scene_context>{"scene_context": "The vault is colder than it should be.", "location": "bank vault"}</scene_context>
You step inside.`)
		if gs.SceneContext != "The vault is colder than it should be." {
			t.Errorf("scene context = %q", gs.SceneContext)
		}
		if gs.Location != "bank vault" {
			t.Errorf("location = %q", gs.Location)
		}
	})
}

func TestParse_UnknownPairedTagsStripped(t *testing.T) {
	gs := testState(3)
	res := testParser().Parse(gs, "<thinking>planning the scene</thinking>The door opens onto an empty hallway.")
	if res.Prose != "The door opens onto an empty hallway." {
		t.Errorf("prose = %q", res.Prose)
	}
}

func TestParse_BracketLabels(t *testing.T) {
	gs := testState(3)
	raw := `The bell tower looms overhead.
[scene_context] Wind screams through the open belfry.
[memory_updates]
[{"npc_id": "mara_voss", "event": "climbed the tower with the player"}]`
	gs.NPCs["mara_voss"] = npc.New("mara_voss", "Mara Voss")

	res := testParser().Parse(gs, raw)

	if res.Prose != "The bell tower looms overhead." {
		t.Errorf("prose = %q", res.Prose)
	}
	if gs.SceneContext != "Wind screams through the open belfry." {
		t.Errorf("scene context = %q", gs.SceneContext)
	}
	if res.MemoryUpdates != 1 {
		t.Errorf("memory updates = %d", res.MemoryUpdates)
	}
}

func TestParse_CodeFences(t *testing.T) {
	gs := testState(4)
	gs.NPCs["mara_voss"] = npc.New("mara_voss", "Mara Voss")

	raw := "The tide turns.\n```json\n{\"npc_id\": \"mara_voss\", \"event\": \"saw the tide turn\"}\n```"
	res := testParser().Parse(gs, raw)

	if res.Prose != "The tide turns." {
		t.Errorf("prose = %q", res.Prose)
	}
	if res.MemoryUpdates != 1 {
		t.Errorf("memory updates = %d", res.MemoryUpdates)
	}
}

func TestParse_BareMemoryArray(t *testing.T) {
	gs := testState(4)
	gs.NPCs["mara_voss"] = npc.New("mara_voss", "Mara Voss")

	raw := `She nods once.

[{"npc_id": "mara_voss", "event": "reached an understanding", "emotional_weight": "impressed"}]`
	res := testParser().Parse(gs, raw)

	if res.Prose != "She nods once." {
		t.Errorf("prose = %q", res.Prose)
	}
	if res.MemoryUpdates != 1 {
		t.Errorf("memory updates = %d", res.MemoryUpdates)
	}
}

func TestParse_MarkdownLabels(t *testing.T) {
	gs := testState(3)
	raw := `The market empties as the rain starts.

**Scene Context:** Stalls abandoned mid-transaction, canvas flapping.`
	res := testParser().Parse(gs, raw)

	if res.Prose != "The market empties as the rain starts." {
		t.Errorf("prose = %q", res.Prose)
	}
	if gs.SceneContext != "Stalls abandoned mid-transaction, canvas flapping." {
		t.Errorf("scene context = %q", gs.SceneContext)
	}
}

func TestParse_TrailingSweep(t *testing.T) {
	gs := testState(3)
	raw := "The lantern gutters and dies.\n\n{\"mood\": \"ominous\"}"
	res := testParser().Parse(gs, raw)
	if res.Prose != "The lantern gutters and dies." {
		t.Errorf("prose = %q", res.Prose)
	}
}

func TestParse_PipeBlocksRemoved(t *testing.T) {
	gs := testState(3)
	raw := "**[Health 4 | Spirit 5 | Momentum +2]**\nYou catch your breath at the top of the ridge."
	res := testParser().Parse(gs, raw)
	if res.Prose != "You catch your breath at the top of the ridge." {
		t.Errorf("prose = %q", res.Prose)
	}
}

func TestParse_NuclearSalvage(t *testing.T) {
	gs := testState(4)
	gs.NPCs["mara_voss"] = npc.New("mara_voss", "Mara Voss")

	// Trailing comma keeps the fragment out of the strict-JSON layers.
	raw := `She hands you the ledger without a word.
{"npc_id": "mara_voss", "event": "handed over the ledger",}
More narration that should not survive the cut.`
	res := testParser().Parse(gs, raw)

	if res.Prose != "She hands you the ledger without a word." {
		t.Errorf("prose = %q", res.Prose)
	}
	if res.MemoryUpdates != 1 {
		t.Errorf("memory updates = %d, repairable fragment should be salvaged", res.MemoryUpdates)
	}
}

func TestParse_AllMetadataFallsBackToPlaceholder(t *testing.T) {
	gs := testState(1)
	raw := `<game_data>{"npcs": [{"name": "Mara Voss"}]}</game_data>`
	res := testParser().Parse(gs, raw)

	if res.Prose != PlaceholderProse {
		t.Errorf("prose = %q, want placeholder", res.Prose)
	}
	if gs.NPCs["mara_voss"] == nil {
		t.Error("metadata should still be applied")
	}
}

func TestParse_FallbackProseFromRaw(t *testing.T) {
	gs := testState(3)
	// The only line is swept as technical, so the fallback re-scans the
	// raw input for a prose paragraph.
	raw := `{"broken": "json without a close

The hallway stretches further than the building should allow.`
	res := testParser().Parse(gs, raw)
	if res.Prose != "The hallway stretches further than the building should allow." {
		t.Errorf("prose = %q", res.Prose)
	}
}

func TestParse_MarksIntroducedNPCs(t *testing.T) {
	gs := testState(5)
	gs.NPCs["mara_voss"] = npc.New("mara_voss", "Mara Voss")
	gs.NPCs["old_fen"] = npc.New("old_fen", "Old Fen")

	testParser().Parse(gs, "Mara Voss steps out of the fog.")

	if !gs.NPCs["mara_voss"].Introduced {
		t.Error("named NPC not marked introduced")
	}
	if gs.NPCs["old_fen"].Introduced {
		t.Error("unnamed NPC marked introduced")
	}
}

func TestParse_CosmeticCleanup(t *testing.T) {
	gs := testState(3)
	raw := "First paragraph.\n\n---\n\n\n\nSecond paragraph.\n**"
	res := testParser().Parse(gs, raw)
	if strings.Contains(res.Prose, "---") || strings.Contains(res.Prose, "\n\n\n") {
		t.Errorf("cleanup left artifacts: %q", res.Prose)
	}
	if strings.HasSuffix(res.Prose, "**") {
		t.Errorf("orphan emphasis survived: %q", res.Prose)
	}
}
