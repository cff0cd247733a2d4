package npc

import (
	"fmt"
	"testing"
)

func TestIDFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Mara Voss", "mara_voss"},
		{"  The Gray-Cloaked Man  ", "the_gray_cloaked_man"},
		{"O'Brien", "o_brien"},
		{"!!!", "npc"},
		{"Señora Ruiz", "señora_ruiz"},
	}
	for _, tt := range tests {
		if got := IDFromName(tt.name); got != tt.want {
			t.Errorf("IDFromName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRoster_Find(t *testing.T) {
	r := Roster{}
	mara := New("mara_voss", "Mara Voss")
	mara.Aliases = []string{"The Ferrywoman"}
	r["mara_voss"] = mara
	r["finn"] = New("finn", "Finn")

	tests := []struct {
		name string
		ref  string
		want *NPC
	}{
		{"exact id", "mara_voss", mara},
		{"exact name case-insensitive", "mara voss", mara},
		{"exact alias", "the ferrywoman", mara},
		{"partial name", "Mara", mara},
		{"partial alias", "ferry", mara},
		{"short ref no fuzzy", "Ma", nil},
		{"empty", "", nil},
		{"unknown", "Captain Hale", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Find(tt.ref); got != tt.want {
				t.Errorf("Find(%q) = %v, want %v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestRoster_FuzzyMatchExisting(t *testing.T) {
	r := Roster{}
	mara := New("mara_voss", "Mara Voss")
	mara.Aliases = []string{"The Ferrywoman"}
	r["mara_voss"] = mara
	r["finn"] = New("finn", "Finn")

	tests := []struct {
		name    string
		newName string
		want    *NPC
	}{
		{"exact alias", "the ferrywoman", mara},
		{"surname only", "Voss", mara},
		{"full name with title", "Captain Mara Voss", mara},
		{"genuinely new", "Brother Aldous", nil},
		{"too short", "Vo", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.FuzzyMatchExisting(tt.newName); got != tt.want {
				t.Errorf("FuzzyMatchExisting(%q) = %v, want %v", tt.newName, got, tt.want)
			}
		})
	}
}

func TestNPC_Merge(t *testing.T) {
	n := New("stranger", "The Stranger")
	n.Status = StatusBackground

	n.Merge("Mara Voss")

	if n.Name != "Mara Voss" {
		t.Errorf("name = %q, want Mara Voss", n.Name)
	}
	found := false
	for _, a := range n.Aliases {
		if a == "The Stranger" {
			found = true
		}
	}
	if !found {
		t.Error("old name not kept as alias")
	}
	if n.Status != StatusActive {
		t.Error("identity reveal should reactivate a background NPC")
	}

	// Same-name merge is a no-op.
	aliases := len(n.Aliases)
	n.Merge("mara voss")
	if len(n.Aliases) != aliases {
		t.Error("same-name merge changed aliases")
	}
}

func TestRoster_CreateStub(t *testing.T) {
	r := Roster{}
	n := r.CreateStub("Brother Aldous")
	if n.ID != "brother_aldous" {
		t.Errorf("id = %q", n.ID)
	}
	if n.Status != StatusActive {
		t.Errorf("status = %q, want active", n.Status)
	}

	// A second stub for the same name returns the existing NPC.
	again := r.CreateStub("Brother Aldous")
	if again != n {
		t.Error("duplicate stub created")
	}
	if len(r) != 1 {
		t.Errorf("roster size = %d, want 1", len(r))
	}
}

func TestRoster_RetireDistant(t *testing.T) {
	r := Roster{}
	currentScene := 20

	// Old, bond-less NPCs are the first out the door.
	for i := 0; i < MaxActiveNPCs; i++ {
		id := fmt.Sprintf("old%02d", i)
		n := New(id, fmt.Sprintf("Old %d", i))
		n.AddObservation(1, "was around at the start", "neutral")
		r[id] = n
	}
	bonded := New("bonded", "Bonded Friend")
	bonded.Bond = 4
	bonded.AddObservation(2, "stood by the player", "grateful")
	r["bonded"] = bonded

	fresh := New("fresh", "Fresh Face")
	r["fresh"] = fresh // no memories: protected

	demoted := r.RetireDistant(currentScene)
	if len(demoted) != 2 {
		t.Fatalf("demoted %d NPCs, want 2", len(demoted))
	}
	for _, n := range demoted {
		if n == bonded || n == fresh {
			t.Errorf("protected NPC %s was demoted", n.ID)
		}
		if n.Status != StatusBackground {
			t.Errorf("demoted NPC %s still %s", n.ID, n.Status)
		}
	}

	// Under the cap nothing moves.
	if again := r.RetireDistant(currentScene); again != nil {
		t.Errorf("second pass demoted %d more", len(again))
	}
}

func TestNPC_CollapseMemories(t *testing.T) {
	n := New("mara", "Mara")
	n.AddObservation(1, "small talk by the fire", "neutral")
	n.AddObservation(2, "the player saved her life", "grateful")
	n.AddObservation(3, "shared a meal", "neutral")
	n.AddObservation(4, "revealed her secret past", "devoted")
	n.AddObservation(5, "watched the rain", "neutral")
	n.AddObservation(6, "argued about the route", "angry")

	n.CollapseMemories(3)

	if len(n.Memory) != 3 {
		t.Fatalf("memory = %d entries, want 3", len(n.Memory))
	}
	// The life-saving and secret-reveal memories outrank small talk.
	events := map[string]bool{}
	for _, m := range n.Memory {
		events[m.Event] = true
	}
	if !events["the player saved her life"] || !events["revealed her secret past"] {
		t.Errorf("high-importance memories lost: %v", events)
	}
	// Chronological order after collapse.
	for i := 1; i < len(n.Memory); i++ {
		if sceneOf(n.Memory[i-1]) > sceneOf(n.Memory[i]) {
			t.Error("collapsed memories out of order")
		}
	}
}

func TestRoster_FlaggedForReflection(t *testing.T) {
	r := Roster{}
	r["b"] = New("b", "Beta")
	r["a"] = New("a", "Alpha")
	r["c"] = New("c", "Gamma")
	r["a"].NeedsReflection = true
	r["c"].NeedsReflection = true

	got := r.FlaggedForReflection()
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("FlaggedForReflection() = %v, want [a c]", got)
	}
}
