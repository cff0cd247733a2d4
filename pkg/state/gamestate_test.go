package state

import (
	"strings"
	"testing"
)

func TestStats_Validate(t *testing.T) {
	tests := []struct {
		name    string
		stats   Stats
		wantErr bool
	}{
		{"default allocation", DefaultStats(), false},
		{"valid alternative", Stats{Edge: 3, Heart: 1, Iron: 1, Shadow: 1, Wits: 1}, false},
		{"sum too low", Stats{Edge: 1, Heart: 1, Iron: 1, Shadow: 1, Wits: 1}, true},
		{"sum too high", Stats{Edge: 2, Heart: 2, Iron: 2, Shadow: 1, Wits: 2}, true},
		{"stat above cap", Stats{Edge: 4, Heart: 1, Iron: 1, Shadow: 0, Wits: 1}, true},
		{"negative stat", Stats{Edge: -1, Heart: 3, Iron: 2, Shadow: 1, Wits: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stats.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStats_Get(t *testing.T) {
	s := Stats{Edge: 0, Heart: 3, Iron: 2, Shadow: 1, Wits: 1}
	if got := s.Get("heart"); got != 3 {
		t.Errorf("Get(heart) = %d, want 3", got)
	}
	if got := s.Get("edge"); got != 0 {
		t.Errorf("Get(edge) = %d, want 0", got)
	}
	// Unknown names roll a flat 1 rather than nothing.
	if got := s.Get("luck"); got != 1 {
		t.Errorf("Get(luck) = %d, want 1", got)
	}
}

func TestNewGameState_Defaults(t *testing.T) {
	gs := NewGameState("Ash", DefaultStats())

	if gs.Health != TrackMax || gs.Spirit != TrackMax || gs.Supply != TrackMax {
		t.Errorf("tracks = %d/%d/%d, want all %d", gs.Health, gs.Spirit, gs.Supply, TrackMax)
	}
	if gs.Momentum != MomentumStart {
		t.Errorf("momentum = %d, want %d", gs.Momentum, MomentumStart)
	}
	if gs.ChaosFactor != ChaosStart {
		t.Errorf("chaos = %d, want %d", gs.ChaosFactor, ChaosStart)
	}
	if gs.SceneCount != 1 || gs.Chapter != 1 {
		t.Errorf("scene/chapter = %d/%d, want 1/1", gs.SceneCount, gs.Chapter)
	}
	if gs.NPCs == nil || gs.Clocks == nil {
		t.Error("collections not initialized")
	}
}

func TestAdjustClamps(t *testing.T) {
	gs := NewGameState("Ash", DefaultStats())

	gs.AdjustTrack("health", -10)
	if gs.Health != 0 {
		t.Errorf("health = %d, want clamped 0", gs.Health)
	}
	gs.AdjustTrack("health", 99)
	if gs.Health != TrackMax {
		t.Errorf("health = %d, want clamped %d", gs.Health, TrackMax)
	}
	gs.AdjustTrack("luck", 1) // unknown track is a no-op

	gs.AdjustMomentum(-100)
	if gs.Momentum != MomentumMin {
		t.Errorf("momentum = %d, want %d", gs.Momentum, MomentumMin)
	}
	gs.AdjustMomentum(100)
	if gs.Momentum != MomentumMax {
		t.Errorf("momentum = %d, want %d", gs.Momentum, MomentumMax)
	}

	gs.AdjustChaos(100)
	if gs.ChaosFactor != ChaosMax {
		t.Errorf("chaos = %d, want %d", gs.ChaosFactor, ChaosMax)
	}
	gs.AdjustChaos(-100)
	if gs.ChaosFactor != ChaosMin {
		t.Errorf("chaos = %d, want %d", gs.ChaosFactor, ChaosMin)
	}
}

func TestRecomputeCrisis(t *testing.T) {
	gs := NewGameState("Ash", DefaultStats())

	gs.Health = 0
	gs.RecomputeCrisis()
	if !gs.CrisisMode || gs.GameOver {
		t.Errorf("one empty track: crisis/gameover = %v/%v, want true/false", gs.CrisisMode, gs.GameOver)
	}

	gs.Health = 2
	gs.RecomputeCrisis()
	if gs.CrisisMode {
		t.Error("crisis persisted after recovery")
	}

	gs.Health, gs.Spirit = 0, 0
	gs.RecomputeCrisis()
	if !gs.GameOver {
		t.Error("both tracks empty should end the game")
	}
}

func TestRecordNarration_Window(t *testing.T) {
	gs := NewGameState("Ash", DefaultStats())

	for i := 0; i < MaxNarrationHistory+3; i++ {
		gs.RecordNarration("input", "narration")
	}
	if len(gs.NarrationHistory) != MaxNarrationHistory {
		t.Errorf("history length = %d, want %d", len(gs.NarrationHistory), MaxNarrationHistory)
	}

	long := strings.Repeat("x", MaxNarrationChars+500)
	gs.RecordNarration("input", long)
	last := gs.NarrationHistory[len(gs.NarrationHistory)-1]
	if len(last.Narration) != MaxNarrationChars {
		t.Errorf("narration length = %d, want truncated to %d", len(last.Narration), MaxNarrationChars)
	}
}

func TestReplaceLastNarration(t *testing.T) {
	gs := NewGameState("Ash", DefaultStats())

	// Empty history falls back to append.
	gs.ReplaceLastNarration("in", "first")
	if len(gs.NarrationHistory) != 1 {
		t.Fatalf("history length = %d, want 1", len(gs.NarrationHistory))
	}

	gs.RecordNarration("in2", "second")
	gs.ReplaceLastNarration("in2", "rewritten")
	if len(gs.NarrationHistory) != 2 {
		t.Fatalf("replace grew the history: %d", len(gs.NarrationHistory))
	}
	if gs.NarrationHistory[1].Narration != "rewritten" {
		t.Errorf("last narration = %q, want rewritten", gs.NarrationHistory[1].Narration)
	}
}

func TestSessionLog(t *testing.T) {
	gs := NewGameState("Ash", DefaultStats())

	for i := 0; i < MaxSessionLog+5; i++ {
		gs.SceneCount = i + 1
		gs.RecordSceneSummary("scene summary")
	}
	if len(gs.SessionLog) != MaxSessionLog {
		t.Errorf("session log length = %d, want %d", len(gs.SessionLog), MaxSessionLog)
	}

	gs.ReplaceLastSceneSummary("rewritten")
	if gs.SessionLog[len(gs.SessionLog)-1].Summary != "rewritten" {
		t.Error("replace did not touch the newest entry")
	}

	recent := gs.RecentSummaries(3)
	if len(recent) != 3 {
		t.Fatalf("RecentSummaries(3) returned %d entries", len(recent))
	}
	if recent[2].Summary != "rewritten" {
		t.Error("RecentSummaries should end with the newest entry")
	}
	if gs.RecentSummaries(0) != nil {
		t.Error("RecentSummaries(0) should be nil")
	}
}

func TestSetLocation(t *testing.T) {
	gs := NewGameState("Ash", DefaultStats())

	gs.SetLocation("the_old_mill")
	if gs.Location != "the old mill" {
		t.Errorf("location = %q, want underscores normalized", gs.Location)
	}
	if len(gs.LocationHistory) != 0 {
		t.Error("first location should not push history")
	}

	gs.SetLocation("The Old Mill") // case-insensitive same place
	if len(gs.LocationHistory) != 0 {
		t.Error("same-location move pushed history")
	}

	gs.SetLocation("riverbank")
	if gs.Location != "riverbank" || len(gs.LocationHistory) != 1 {
		t.Errorf("location/history = %q/%d, want riverbank/1", gs.Location, len(gs.LocationHistory))
	}

	for i := 0; i < MaxLocationHistory+3; i++ {
		gs.SetLocation(strings.Repeat("a", i+1))
	}
	if len(gs.LocationHistory) != MaxLocationHistory {
		t.Errorf("history length = %d, want %d", len(gs.LocationHistory), MaxLocationHistory)
	}
}

func TestTimeOfDay(t *testing.T) {
	gs := NewGameState("Ash", DefaultStats())

	// Time does not move until the narrator establishes it.
	gs.AdvanceTime("long")
	if gs.TimeOfDay != "" {
		t.Errorf("time advanced before being set: %q", gs.TimeOfDay)
	}

	gs.SetTimeOfDay("Early Morning")
	if gs.TimeOfDay != "early_morning" {
		t.Errorf("time = %q, want early_morning", gs.TimeOfDay)
	}

	gs.SetTimeOfDay("teatime") // outside the enum
	if gs.TimeOfDay != "early_morning" {
		t.Errorf("unknown phase overwrote time: %q", gs.TimeOfDay)
	}

	gs.AdvanceTime("short")
	if gs.TimeOfDay != "early_morning" {
		t.Errorf("short progression moved time: %q", gs.TimeOfDay)
	}

	gs.AdvanceTime("moderate")
	if gs.TimeOfDay != "morning" {
		t.Errorf("time = %q, want morning", gs.TimeOfDay)
	}

	gs.AdvanceTime("long")
	if gs.TimeOfDay != "afternoon" {
		t.Errorf("time = %q, want afternoon", gs.TimeOfDay)
	}

	// Wrap past deep night into a new day.
	gs.SetTimeOfDay("deep_night")
	gs.AdvanceTime("moderate")
	if gs.TimeOfDay != "early_morning" {
		t.Errorf("time = %q, want wrap to early_morning", gs.TimeOfDay)
	}
}

func TestPacingHint(t *testing.T) {
	tests := []struct {
		name    string
		history []string
		want    string
	}{
		{"empty", nil, PacingNeutral},
		{"mixed", []string{IntensityAction, IntensityBreather, IntensityAction}, PacingNeutral},
		{"three straight intense", []string{IntensityAction, IntensityInterrupt, IntensityAction}, PacingBreather},
		{"two straight breathers", []string{IntensityAction, IntensityBreather, IntensityBreather}, PacingPush},
		{"single breather", []string{IntensityAction, IntensityAction, IntensityBreather}, PacingNeutral},
		{"old intensity outside the window", []string{
			IntensityAction, IntensityAction, IntensityAction,
			IntensityBreather, IntensityBreather, IntensityBreather, IntensityAction,
		}, PacingNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := NewGameState("Ash", DefaultStats())
			gs.IntensityHistory = tt.history
			if got := gs.PacingHint(); got != tt.want {
				t.Errorf("PacingHint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecordIntensity_Window(t *testing.T) {
	gs := NewGameState("Ash", DefaultStats())
	for i := 0; i < MaxIntensityHistory+4; i++ {
		gs.RecordIntensity(IntensityAction)
	}
	if len(gs.IntensityHistory) != MaxIntensityHistory {
		t.Errorf("intensity history = %d, want %d", len(gs.IntensityHistory), MaxIntensityHistory)
	}
}
