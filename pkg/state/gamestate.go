package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/averyhale/saga-engine/pkg/chat"
	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/story"
)

const (
	StatTargetSum = 7

	TrackMax      = 5
	MomentumMin   = -6
	MomentumMax   = 10
	MomentumStart = 2
	ChaosMin      = 3
	ChaosMax      = 9
	ChaosStart    = 5

	MaxNarrationHistory = 6
	MaxNarrationChars   = 1500
	MaxSessionLog       = 50
	MaxLocationHistory  = 5
	MaxIntensityHistory = 10
)

// Stats are the five character attributes. Each is 0-3 and the set sums
// to StatTargetSum at creation.
type Stats struct {
	Edge   int `json:"edge"`
	Heart  int `json:"heart"`
	Iron   int `json:"iron"`
	Shadow int `json:"shadow"`
	Wits   int `json:"wits"`
}

// DefaultStats is the allocation used when the player skips point-buy.
func DefaultStats() Stats {
	return Stats{Edge: 1, Heart: 2, Iron: 1, Shadow: 1, Wits: 2}
}

// Get returns the named stat value, or 1 for an unknown name so a
// misclassified move still rolls something sane.
func (s Stats) Get(name string) int {
	switch name {
	case "edge":
		return s.Edge
	case "heart":
		return s.Heart
	case "iron":
		return s.Iron
	case "shadow":
		return s.Shadow
	case "wits":
		return s.Wits
	}
	return 1
}

// Validate enforces the point-buy rules.
func (s Stats) Validate() error {
	for name, v := range map[string]int{"edge": s.Edge, "heart": s.Heart, "iron": s.Iron, "shadow": s.Shadow, "wits": s.Wits} {
		if v < 0 || v > 3 {
			return fmt.Errorf("stat %s must be 0-3, got %d", name, v)
		}
	}
	if sum := s.Edge + s.Heart + s.Iron + s.Shadow + s.Wits; sum != StatTargetSum {
		return fmt.Errorf("stats must sum to %d, got %d", StatTargetSum, sum)
	}
	return nil
}

// SessionLogEntry is one scene's one-line summary. The director pass may
// attach a richer summary after the fact.
type SessionLogEntry struct {
	Scene       int    `json:"scene"`
	Summary     string `json:"summary"`
	RichSummary string `json:"rich_summary,omitempty"`
}

// NarrationEntry pairs the player's words with the narration they
// produced, replayed as conversational context for style continuity.
type NarrationEntry struct {
	PlayerInput string `json:"player_input"`
	Narration   string `json:"narration"`
}

// ChapterRecord summarizes a completed chapter in campaign history.
type ChapterRecord struct {
	Chapter           int      `json:"chapter"`
	Title             string   `json:"title"`
	Summary           string   `json:"summary"`
	UnresolvedThreads []string `json:"unresolved_threads,omitempty"`
	CharacterGrowth   string   `json:"character_growth,omitempty"`
}

// DirectorGuidance caches the last strategic pass output. It is
// overwritten wholesale each pass and consumed by the next prompt build.
type DirectorGuidance struct {
	NarratorGuidance string            `json:"narrator_guidance,omitempty"`
	NPCGuidance      map[string]string `json:"npc_guidance,omitempty"`
	Pacing           string            `json:"pacing,omitempty"`
	ArcNotes         string            `json:"arc_notes,omitempty"`
}

// GameState is the complete persistent state of one save slot.
type GameState struct {
	ID         uuid.UUID `json:"id"`
	PlayerName string    `json:"player_name"`
	WorldID    string    `json:"world_id,omitempty"`
	WorldIntro string    `json:"world_intro,omitempty"`

	Stats    Stats `json:"stats"`
	Health   int   `json:"health"`
	Spirit   int   `json:"spirit"`
	Supply   int   `json:"supply"`
	Momentum int   `json:"momentum"`

	ChaosFactor int  `json:"chaos_factor"`
	CrisisMode  bool `json:"crisis_mode"`
	GameOver    bool `json:"game_over"`

	Location        string   `json:"location,omitempty"`
	LocationHistory []string `json:"location_history"`
	TimeOfDay       string   `json:"time_of_day"`

	SceneCount   int    `json:"scene_count"`
	SceneContext string `json:"scene_context,omitempty"`

	NPCs   npc.Roster        `json:"npcs"`
	Clocks map[string]*Clock `json:"clocks"`

	SessionLog       []SessionLogEntry `json:"session_log"`
	NarrationHistory []NarrationEntry  `json:"narration_history"`
	IntensityHistory []string          `json:"intensity_history"`

	Blueprint       *story.Blueprint `json:"story_blueprint,omitempty"`
	CampaignHistory []ChapterRecord  `json:"campaign_history"`
	Chapter         int              `json:"chapter"`

	Wishes      string `json:"wishes,omitempty"`
	Lines       string `json:"lines,omitempty"`
	Backstory   string `json:"backstory,omitempty"`
	KidFriendly bool   `json:"kid_friendly"`

	Guidance    *DirectorGuidance      `json:"director_guidance,omitempty"`
	PendingBurn *BurnOffer             `json:"pending_burn,omitempty"`
	Transcript  []chat.TranscriptEntry `json:"chat_messages"`
	SavedAt     time.Time              `json:"saved_at,omitempty"`
}

// NewGameState initializes a fresh chapter-one state.
func NewGameState(playerName string, stats Stats) *GameState {
	return &GameState{
		ID:               uuid.New(),
		PlayerName:       playerName,
		Stats:            stats,
		Health:           TrackMax,
		Spirit:           TrackMax,
		Supply:           TrackMax,
		Momentum:         MomentumStart,
		ChaosFactor:      ChaosStart,
		SceneCount:       1,
		Chapter:          1,
		NPCs:             npc.Roster{},
		Clocks:           map[string]*Clock{},
		LocationHistory:  []string{},
		SessionLog:       []SessionLogEntry{},
		NarrationHistory: []NarrationEntry{},
		IntensityHistory: []string{},
		CampaignHistory:  []ChapterRecord{},
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AdjustTrack applies a delta to the named track, clamped to [0, TrackMax].
func (gs *GameState) AdjustTrack(track string, delta int) {
	switch track {
	case "health":
		gs.Health = clamp(gs.Health+delta, 0, TrackMax)
	case "spirit":
		gs.Spirit = clamp(gs.Spirit+delta, 0, TrackMax)
	case "supply":
		gs.Supply = clamp(gs.Supply+delta, 0, TrackMax)
	}
}

// AdjustMomentum applies a delta clamped to the momentum range.
func (gs *GameState) AdjustMomentum(delta int) {
	gs.Momentum = clamp(gs.Momentum+delta, MomentumMin, MomentumMax)
}

// AdjustChaos applies a delta clamped to the chaos range.
func (gs *GameState) AdjustChaos(delta int) {
	gs.ChaosFactor = clamp(gs.ChaosFactor+delta, ChaosMin, ChaosMax)
}

// RecomputeCrisis derives crisis and game-over from the health and
// spirit tracks. Game over is sticky: once both tracks are empty it
// holds until an explicit chapter or new-game reset.
func (gs *GameState) RecomputeCrisis() {
	if gs.Health <= 0 && gs.Spirit <= 0 {
		gs.CrisisMode = true
		gs.GameOver = true
		return
	}
	if gs.GameOver {
		return
	}
	gs.CrisisMode = gs.Health <= 0 || gs.Spirit <= 0
}

// RecordNarration appends to the rolling narration window, truncating
// oversized entries and trimming FIFO.
func (gs *GameState) RecordNarration(playerInput, narration string) {
	if len(narration) > MaxNarrationChars {
		narration = narration[:MaxNarrationChars]
	}
	gs.NarrationHistory = append(gs.NarrationHistory, NarrationEntry{PlayerInput: playerInput, Narration: narration})
	if len(gs.NarrationHistory) > MaxNarrationHistory {
		gs.NarrationHistory = gs.NarrationHistory[len(gs.NarrationHistory)-MaxNarrationHistory:]
	}
}

// ReplaceLastNarration swaps the newest narration entry, used when a
// momentum burn re-narrates the same scene.
func (gs *GameState) ReplaceLastNarration(playerInput, narration string) {
	if len(gs.NarrationHistory) == 0 {
		gs.RecordNarration(playerInput, narration)
		return
	}
	if len(narration) > MaxNarrationChars {
		narration = narration[:MaxNarrationChars]
	}
	gs.NarrationHistory[len(gs.NarrationHistory)-1] = NarrationEntry{PlayerInput: playerInput, Narration: narration}
}

// RecordSceneSummary appends to the session log, trimming FIFO.
func (gs *GameState) RecordSceneSummary(summary string) {
	gs.SessionLog = append(gs.SessionLog, SessionLogEntry{Scene: gs.SceneCount, Summary: summary})
	if len(gs.SessionLog) > MaxSessionLog {
		gs.SessionLog = gs.SessionLog[len(gs.SessionLog)-MaxSessionLog:]
	}
}

// ReplaceLastSceneSummary swaps the newest session-log entry.
func (gs *GameState) ReplaceLastSceneSummary(summary string) {
	if len(gs.SessionLog) == 0 {
		gs.RecordSceneSummary(summary)
		return
	}
	gs.SessionLog[len(gs.SessionLog)-1] = SessionLogEntry{Scene: gs.SceneCount, Summary: summary}
}

// RecentSummaries returns up to n of the newest session-log summaries,
// oldest first.
func (gs *GameState) RecentSummaries(n int) []SessionLogEntry {
	if n <= 0 || len(gs.SessionLog) == 0 {
		return nil
	}
	if len(gs.SessionLog) < n {
		n = len(gs.SessionLog)
	}
	return gs.SessionLog[len(gs.SessionLog)-n:]
}
