package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/averyhale/saga-engine/internal/services"
	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/parser"
	"github.com/averyhale/saga-engine/pkg/prompts"
	"github.com/averyhale/saga-engine/pkg/state"
)

const directorAttempts = 2

// directorPayload is the strategic pass's JSON contract.
type directorPayload struct {
	SceneSummary     string            `json:"scene_summary"`
	NarratorGuidance string            `json:"narrator_guidance"`
	NPCGuidance      map[string]string `json:"npc_guidance"`
	Pacing           string            `json:"pacing"`
	Reflections      []struct {
		NPCID              string `json:"npc_id"`
		Insight            string `json:"insight"`
		UpdatedDescription string `json:"updated_description"`
	} `json:"reflections"`
	ArcNotes string `json:"arc_notes"`
}

// RunDirector executes the strategic pass: a behind-the-scenes call
// that summarizes the last scene, caches guidance for the narrator, and
// synthesizes reflections for NPCs that have accumulated enough
// experience. It is advisory and fails silently; a turn never blocks on
// the director.
func (e *Engine) RunDirector(ctx context.Context, gs *state.GameState) {
	var flagged []*npc.NPC
	for _, id := range gs.NPCs.SortedIDs() {
		if gs.NPCs[id].NeedsReflection {
			flagged = append(flagged, gs.NPCs[id])
		}
	}

	msgs := prompts.BuildDirectorMessages(gs, flagged)

	var payload *directorPayload
	for attempt := 0; attempt < directorAttempts && payload == nil; attempt++ {
		resp, err := e.llm.Generate(ctx, services.GenerateRequest{
			Messages:   msgs,
			Prefill:    "{",
			MaxTokens:  auxMaxTokens,
			UseBackend: true,
		})
		if err != nil {
			e.logger.Warn("director call failed", "attempt", attempt, "error", err)
			continue
		}
		text := resp.Text
		if resp.Truncated {
			text = parser.CloseTruncatedJSON(text)
		}
		payload = parseDirector(text)
		if payload == nil {
			e.logger.Warn("unparseable director response", "attempt", attempt)
		}
	}
	if payload == nil {
		return
	}

	if payload.SceneSummary != "" && len(gs.SessionLog) > 0 {
		gs.SessionLog[len(gs.SessionLog)-1].RichSummary = payload.SceneSummary
	}

	gs.Guidance = &state.DirectorGuidance{
		NarratorGuidance: payload.NarratorGuidance,
		NPCGuidance:      payload.NPCGuidance,
		Pacing:           payload.Pacing,
		ArcNotes:         payload.ArcNotes,
	}

	addressed := map[string]bool{}
	for _, r := range payload.Reflections {
		n := gs.NPCs.Find(r.NPCID)
		if n == nil || strings.TrimSpace(r.Insight) == "" {
			continue
		}
		n.AddReflection(r.Insight, gs.SceneCount)
		addressed[n.ID] = true
		if d := strings.TrimSpace(r.UpdatedDescription); len(d) > 10 && len(d) <= 200 {
			n.Description = d
		}
	}

	// Flagged NPCs the director skipped stop asking: the flag clears
	// but the accumulated importance keeps counting toward the next
	// threshold crossing.
	for _, n := range flagged {
		if !addressed[n.ID] {
			n.NeedsReflection = false
		}
	}
}

func parseDirector(text string) *directorPayload {
	m := jsonObjectRe.FindString(text)
	if m == "" {
		return nil
	}
	var p directorPayload
	if err := json.Unmarshal([]byte(m), &p); err != nil {
		if err = json.Unmarshal([]byte(parser.RepairJSON(m)), &p); err != nil {
			return nil
		}
	}
	return &p
}
