package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/averyhale/saga-engine/internal/services"
	"github.com/averyhale/saga-engine/pkg/chat"
	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/parser"
	"github.com/averyhale/saga-engine/pkg/prompts"
	"github.com/averyhale/saga-engine/pkg/state"
	"github.com/averyhale/saga-engine/pkg/story"
)

const (
	chapterSummaryAttempts = 3

	// collapseKeep is how many memories each NPC carries across a
	// chapter boundary.
	collapseKeep = 5
)

// StartChapter closes the current chapter and opens the next one: the
// finished chapter is summarized into campaign history, the mechanical
// state resets, NPC memories collapse to their most impactful, and a
// fresh opening scene and story arc are generated.
func (e *Engine) StartChapter(ctx context.Context, gs *state.GameState, tone string) (*TurnResult, error) {
	record := e.summarizeChapter(ctx, gs)
	gs.CampaignHistory = append(gs.CampaignHistory, record)

	returning := make(map[string]*npc.NPC, len(gs.NPCs))
	for id, n := range gs.NPCs {
		returning[id] = n
	}

	gs.Chapter++
	gs.Health = state.TrackMax
	gs.Spirit = state.TrackMax
	gs.Supply = state.TrackMax
	gs.Momentum = state.MomentumStart
	gs.ChaosFactor = state.ChaosStart
	gs.SceneCount = 1
	gs.CrisisMode = false
	gs.GameOver = false
	gs.Clocks = map[string]*state.Clock{}
	gs.SessionLog = []state.SessionLogEntry{}
	gs.NarrationHistory = []state.NarrationEntry{}
	gs.IntensityHistory = []string{}
	gs.LocationHistory = []string{}
	gs.Blueprint = nil
	gs.Guidance = nil
	gs.PendingBurn = nil
	gs.TimeOfDay = ""

	for _, n := range gs.NPCs {
		n.CollapseMemories(collapseKeep)
	}

	if len(record.UnresolvedThreads) > 0 {
		gs.SceneContext = "Unresolved from the last chapter: " + joinThreads(record.UnresolvedThreads)
	} else {
		gs.SceneContext = ""
	}

	msgs, err := prompts.NewBuilder().
		WithGameState(gs).
		WithSceneType(prompts.SceneChapterOpening).
		WithPlayerInput(fmt.Sprintf("Begin chapter %d.", gs.Chapter)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build chapter opening prompt: %w", err)
	}

	narration, err := e.narrate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("chapter opening narration failed: %w", err)
	}

	// Scene count 1 lets the opening payload replace the roster.
	parsed := parser.New(e.logger).Parse(gs, narration)
	parsed.Prose = cleanProse(gs, parsed.Prose)

	// NPCs the opening dropped come back as background cast rather
	// than vanishing mid-campaign.
	for id, n := range returning {
		if gs.NPCs.Find(id) != nil || gs.NPCs.Find(n.Name) != nil {
			continue
		}
		n.Status = npc.StatusBackground
		n.Introduced = true
		gs.NPCs[id] = n
	}

	gs.Blueprint = e.generateBlueprint(ctx, gs, tone)

	gs.RecordNarration("", parsed.Prose)
	gs.RecordSceneSummary(fmt.Sprintf("Chapter %d opens.", gs.Chapter))
	gs.Transcript = append(gs.Transcript,
		chat.TranscriptEntry{Role: chat.ChatRoleAssistant, Content: parsed.Prose})

	return &TurnResult{Narration: parsed.Prose}, nil
}

// chapterPayload is the chapter close-out JSON contract.
type chapterPayload struct {
	Title             string   `json:"title"`
	Summary           string   `json:"summary"`
	UnresolvedThreads []string `json:"unresolved_threads"`
	CharacterGrowth   string   `json:"character_growth"`
}

func (e *Engine) summarizeChapter(ctx context.Context, gs *state.GameState) state.ChapterRecord {
	msgs := prompts.BuildChapterSummaryMessages(gs)

	for attempt := 0; attempt < chapterSummaryAttempts; attempt++ {
		resp, err := e.llm.Generate(ctx, services.GenerateRequest{
			Messages:   msgs,
			Prefill:    "{",
			MaxTokens:  auxMaxTokens,
			UseBackend: true,
		})
		if err != nil {
			e.logger.Warn("chapter summary call failed", "attempt", attempt, "error", err)
			continue
		}
		text := resp.Text
		if resp.Truncated {
			text = parser.CloseTruncatedJSON(text)
		}
		m := jsonObjectRe.FindString(text)
		if m == "" {
			continue
		}
		var p chapterPayload
		if err := json.Unmarshal([]byte(m), &p); err != nil {
			if err = json.Unmarshal([]byte(parser.RepairJSON(m)), &p); err != nil {
				e.logger.Warn("unparseable chapter summary", "attempt", attempt)
				continue
			}
		}
		if p.Summary == "" {
			continue
		}
		return state.ChapterRecord{
			Chapter:           gs.Chapter,
			Title:             p.Title,
			Summary:           p.Summary,
			UnresolvedThreads: p.UnresolvedThreads,
			CharacterGrowth:   p.CharacterGrowth,
		}
	}

	e.logger.Warn("chapter summary failed, recording fallback")
	return state.ChapterRecord{
		Chapter: gs.Chapter,
		Title:   fmt.Sprintf("Chapter %d", gs.Chapter),
		Summary: fallbackChapterSummary(gs),
	}
}

// fallbackChapterSummary stitches session-log lines together when the
// summary call fails outright.
func fallbackChapterSummary(gs *state.GameState) string {
	entries := gs.RecentSummaries(5)
	if len(entries) == 0 {
		return "A chapter passed, its details lost to memory."
	}
	s := ""
	for _, entry := range entries {
		if s != "" {
			s += " "
		}
		s += entry.Summary + "."
	}
	return s
}

// generateBlueprint asks the architect for a fresh arc, falling back to
// the hardcoded blueprint for the chosen structure on any failure.
func (e *Engine) generateBlueprint(ctx context.Context, gs *state.GameState, tone string) *story.Blueprint {
	structure := story.ChooseStructure(tone, e.roller.Float64())
	msgs := prompts.BuildArchitectMessages(gs, structure)

	resp, err := e.llm.Generate(ctx, services.GenerateRequest{
		Messages:   msgs,
		Prefill:    "{",
		MaxTokens:  auxMaxTokens,
		UseBackend: true,
	})
	if err != nil {
		e.logger.Warn("architect call failed, using fallback blueprint", "error", err)
		return story.FallbackBlueprint(structure)
	}
	text := resp.Text
	if resp.Truncated {
		text = parser.CloseTruncatedJSON(text)
	}
	m := jsonObjectRe.FindString(text)
	if m == "" {
		return story.FallbackBlueprint(structure)
	}
	var bp story.Blueprint
	if err := json.Unmarshal([]byte(m), &bp); err != nil {
		if err = json.Unmarshal([]byte(parser.RepairJSON(m)), &bp); err != nil {
			e.logger.Warn("unparseable blueprint, using fallback", "error", err)
			return story.FallbackBlueprint(structure)
		}
	}
	if len(bp.Acts) == 0 {
		return story.FallbackBlueprint(structure)
	}
	bp.Structure = structure
	return &bp
}

func joinThreads(threads []string) string {
	s := ""
	for i, t := range threads {
		if i > 0 {
			s += "; "
		}
		s += t
	}
	return s
}
