// Package engine sequences one player turn end to end: classification,
// mechanics, prompt construction, narrative generation, response
// parsing, and bookkeeping. It owns the momentum-burn and chapter
// transitions and decides when the strategic director pass runs.
package engine

import (
	"log/slog"
	"strings"

	"github.com/averyhale/saga-engine/internal/services"
	"github.com/averyhale/saga-engine/pkg/dice"
	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/state"
	"github.com/averyhale/saga-engine/pkg/textfilter"
)

const (
	// DirectorInterval is the every-Nth-scene fallback trigger for the
	// strategic pass.
	DirectorInterval = 3

	// npcAgencyInterval is how often an off-screen scheme clock
	// advances on its own.
	npcAgencyInterval = 5

	narrationMaxTokens = 2048
	auxMaxTokens       = 1024
)

// Engine orchestrates turns for any number of game states. It holds no
// per-session state; sessions are sequenced by the caller.
type Engine struct {
	llm    services.LLMService
	roller dice.Roller
	logger *slog.Logger
}

func New(llm services.LLMService, roller dice.Roller, logger *slog.Logger) *Engine {
	return &Engine{llm: llm, roller: roller, logger: logger}
}

// TurnResult is everything a client needs to render one resolved turn.
// Clients consume narration and the roll display; they never touch the
// entity graph directly.
type TurnResult struct {
	Narration    string              `json:"narration"`
	Roll         *state.RollResult   `json:"roll,omitempty"`
	Move         *state.MoveContext  `json:"move,omitempty"`
	Consequences []state.Consequence `json:"consequences,omitempty"`
	ClockEvents  []state.ClockEvent  `json:"clock_events,omitempty"`
	Interrupt    *dice.Interrupt     `json:"interrupt,omitempty"`
	BurnOffered  bool                `json:"burn_offered,omitempty"`
	BurnUpgrade  string              `json:"burn_upgrade,omitempty"`

	StoryComplete  bool `json:"story_complete,omitempty"`
	GameOver       bool `json:"game_over,omitempty"`
	DirectorNeeded bool `json:"-"`
}

// scanText builds the blob the activation scorer searches for NPC
// relevance: the player's words, the classifier's reading of them, the
// standing scene context, and the freshest summaries.
func scanText(gs *state.GameState, input string, mv *state.MoveContext) string {
	parts := []string{input}
	if mv != nil {
		parts = append(parts, mv.Intent, mv.Approach)
	}
	parts = append(parts, gs.SceneContext, gs.Location)
	for _, e := range gs.RecentSummaries(2) {
		parts = append(parts, e.Summary)
	}
	return strings.Join(parts, " ")
}

func (e *Engine) activate(gs *state.GameState, input string, mv *state.MoveContext) npc.ActivationResult {
	var targetID string
	if mv != nil && mv.TargetID != "" {
		if t := gs.NPCs.Find(mv.TargetID); t != nil {
			targetID = t.ID
			if t.Status == npc.StatusBackground {
				t.Status = npc.StatusActive
			}
		}
	}
	return gs.NPCs.ActivateForPrompt(npc.ActivationInput{
		TargetID:     targetID,
		ScanText:     scanText(gs, input, mv),
		Location:     gs.Location,
		CurrentScene: gs.SceneCount,
	})
}

// needsDirector decides whether this turn schedules the deferred
// strategic pass.
func (e *Engine) needsDirector(gs *state.GameState, result string, interrupt *dice.Interrupt, newNPCs int, revelationUsed bool) bool {
	if result == state.ResultMiss || interrupt != nil || newNPCs > 0 || revelationUsed {
		return true
	}
	for _, n := range gs.NPCs {
		if n.NeedsReflection {
			return true
		}
	}
	if gs.Blueprint != nil {
		switch gs.Blueprint.CurrentAct(gs.SceneCount).Phase {
		case "climax", "ten", "ketsu", "resolution":
			return true
		}
	}
	return gs.SceneCount%DirectorInterval == 0
}

// cleanProse applies the content filter in kid-friendly sessions,
// softening coarse language and redacting the player's hard-limit
// terms. The narrator prompt carries the same boundaries; this is the
// backstop.
func cleanProse(gs *state.GameState, prose string) string {
	if !gs.KidFriendly {
		return prose
	}
	return textfilter.New(gs.Lines).Apply(prose)
}

// sceneSummary is the one-line session-log record for a turn.
func sceneSummary(input string, mv *state.MoveContext, roll *state.RollResult) string {
	s := mv.Intent
	if s == "" {
		s = input
		if len(s) > 80 {
			s = s[:80]
		}
	}
	if roll != nil {
		s += " (" + roll.Result + ")"
	}
	return s
}
