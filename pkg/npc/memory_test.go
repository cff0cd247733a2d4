package npc

import (
	"fmt"
	"testing"
)

func TestScoreImportance(t *testing.T) {
	tests := []struct {
		name   string
		event  string
		weight string
		want   int
	}{
		{"unknown weight defaults", "passed in the hallway", "", 3},
		{"neutral weight", "passed in the hallway", "neutral", 2},
		{"weight mapped", "a kind word", "grateful", 6},
		{"life-or-death boost", "the player saved her from the flood", "neutral", 7},
		{"secret boost", "the player revealed the truth", "curious", 5},
		{"weight outranks boost", "gave a small gift", "transformed", 10},
		{"boost outranks weight", "watched him be killed", "amused", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreImportance(tt.event, tt.weight); got != tt.want {
				t.Errorf("ScoreImportance(%q, %q) = %d, want %d", tt.event, tt.weight, got, tt.want)
			}
		})
	}
}

func TestAddObservation_ReflectionThreshold(t *testing.T) {
	n := New("mara", "Mara")

	// Three transformative events cross the threshold of 30.
	n.AddObservation(1, "witnessed the ritual", "transformed")
	n.AddObservation(2, "was remade by the light", "reborn")
	if n.NeedsReflection {
		t.Fatal("flagged too early at accum", n.ImportanceAccum)
	}
	n.AddObservation(3, "gave her sworn oath to the cause", "transformed")
	if !n.NeedsReflection {
		t.Fatalf("not flagged at accum %d", n.ImportanceAccum)
	}
}

func TestAddReflection_ClearsBookkeeping(t *testing.T) {
	n := New("mara", "Mara")
	n.ImportanceAccum = 42
	n.NeedsReflection = true

	n.AddReflection("the player is the family she never had", 9)

	if n.NeedsReflection || n.ImportanceAccum != 0 {
		t.Errorf("bookkeeping not cleared: flag=%v accum=%d", n.NeedsReflection, n.ImportanceAccum)
	}
	if n.LastReflectionScene != 9 {
		t.Errorf("LastReflectionScene = %d, want 9", n.LastReflectionScene)
	}

	last := n.Memory[len(n.Memory)-1]
	if last.Type != MemoryReflection || last.Scene != nil || last.Importance != 8 {
		t.Errorf("reflection entry = %+v", last)
	}
}

func TestConsolidate_Caps(t *testing.T) {
	n := New("mara", "Mara")
	for i := 0; i < 30; i++ {
		n.AddObservation(i+1, fmt.Sprintf("event number %d", i), "neutral")
	}
	for i := 0; i < 10; i++ {
		n.AddReflection(fmt.Sprintf("insight number %d", i), 30)
	}

	if len(n.Memory) > MaxMemoryEntries {
		t.Errorf("memory = %d entries, cap is %d", len(n.Memory), MaxMemoryEntries)
	}

	reflections, observations := 0, 0
	for _, m := range n.Memory {
		if m.Type == MemoryReflection {
			reflections++
		} else {
			observations++
		}
	}
	if reflections > MaxReflections {
		t.Errorf("reflections = %d, cap is %d", reflections, MaxReflections)
	}
	if observations > MaxObservations {
		t.Errorf("observations = %d, cap is %d", observations, MaxObservations)
	}

	// Newest reflections survive.
	found := false
	for _, m := range n.Memory {
		if m.Event == "insight number 9" {
			found = true
		}
	}
	if !found {
		t.Error("newest reflection was dropped")
	}
}

func TestConsolidate_KeepsImportantOldObservations(t *testing.T) {
	n := New("mara", "Mara")
	n.AddObservation(1, "the player saved her life in the riptide", "sacrificial")
	for i := 0; i < 35; i++ {
		n.AddObservation(i+5, fmt.Sprintf("ordinary moment %d", i), "neutral")
	}

	for _, m := range n.Memory {
		if m.Event == "the player saved her life in the riptide" {
			return
		}
	}
	t.Error("pivotal old memory lost to recency pressure")
}

func TestRetrieveMemories(t *testing.T) {
	n := New("mara", "Mara")

	if got := n.RetrieveMemories("anything", 3, 10); got != nil {
		t.Errorf("empty memory returned %v", got)
	}

	n.AddObservation(1, "the broken lighthouse nearly killed her", "neutral")
	n.AddObservation(8, "argued at the dock", "neutral")
	n.AddObservation(9, "shared bread", "neutral")

	// Fewer memories than requested: everything comes back.
	if got := n.RetrieveMemories("", 5, 10); len(got) != 3 {
		t.Errorf("got %d memories, want all 3", len(got))
	}

	// Context about the lighthouse pulls the old memory over recency.
	n.AddObservation(10, "bought supplies", "neutral")
	got := n.RetrieveMemories("climbing the broken lighthouse again", 2, 10)
	if len(got) != 2 {
		t.Fatalf("got %d memories, want 2", len(got))
	}
	foundLighthouse := false
	for _, m := range got {
		if m.Event == "the broken lighthouse nearly killed her" {
			foundLighthouse = true
		}
	}
	if !foundLighthouse {
		t.Errorf("relevance did not surface the lighthouse memory: %+v", got)
	}
}

func TestRetrieveMemories_ReflectionGuaranteed(t *testing.T) {
	n := New("mara", "Mara")
	for i := 0; i < 10; i++ {
		n.AddObservation(i+1, fmt.Sprintf("recent event %d", i), "impressed")
	}
	n.AddReflection("the player reminds her of her brother", 5)
	// Push the reflection far down the recency order.
	for i := 0; i < 5; i++ {
		n.AddObservation(i+20, fmt.Sprintf("newer event %d", i), "impressed")
	}

	got := n.RetrieveMemories("", 3, 30)
	if len(got) != 3 {
		t.Fatalf("got %d memories, want 3", len(got))
	}
	for _, m := range got {
		if m.Type == MemoryReflection {
			return
		}
	}
	t.Error("no reflection in the retrieved set")
}
