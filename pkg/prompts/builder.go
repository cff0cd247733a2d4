package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/averyhale/saga-engine/pkg/chat"
	"github.com/averyhale/saga-engine/pkg/dice"
	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/state"
)

type SceneType string

const (
	SceneOpening        SceneType = "opening"
	SceneAction         SceneType = "action"
	SceneDialog         SceneType = "dialog"
	SceneChapterOpening SceneType = "chapter_opening"
	SceneEpilogue       SceneType = "epilogue"
)

// historyReplay is how many narration exchanges are replayed as
// conversational context for style continuity.
const historyReplay = 3

// Builder assembles the narrative prompt for one scene. Usage:
//
//	msgs, err := prompts.NewBuilder().
//		WithGameState(gs).
//		WithSceneType(prompts.SceneAction).
//		WithPlayerInput(input).
//		WithMove(mv).
//		WithRoll(roll, consequences).
//		Build()
type Builder struct {
	gs           *state.GameState
	sceneType    SceneType
	playerInput  string
	mv           *state.MoveContext
	roll         *state.RollResult
	consequences []state.Consequence
	clockEvents  []state.ClockEvent
	interrupt    *dice.Interrupt
	activation   *npc.ActivationResult
	agencyNote   string
	isBurn       bool
}

func NewBuilder() *Builder {
	return &Builder{sceneType: SceneDialog}
}

func (b *Builder) WithGameState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

func (b *Builder) WithSceneType(t SceneType) *Builder {
	b.sceneType = t
	return b
}

func (b *Builder) WithPlayerInput(input string) *Builder {
	b.playerInput = input
	return b
}

func (b *Builder) WithMove(mv *state.MoveContext) *Builder {
	b.mv = mv
	return b
}

func (b *Builder) WithRoll(roll *state.RollResult, consequences []state.Consequence) *Builder {
	b.roll = roll
	b.consequences = consequences
	return b
}

func (b *Builder) WithClockEvents(events []state.ClockEvent) *Builder {
	b.clockEvents = events
	return b
}

func (b *Builder) WithInterrupt(in *dice.Interrupt) *Builder {
	b.interrupt = in
	return b
}

func (b *Builder) WithActivation(res *npc.ActivationResult) *Builder {
	b.activation = res
	return b
}

func (b *Builder) WithAgencyNote(note string) *Builder {
	b.agencyNote = note
	return b
}

// AsBurnRenarration marks this build as a momentum-burn redo of the
// same scene with an upgraded result.
func (b *Builder) AsBurnRenarration() *Builder {
	b.isBurn = true
	return b
}

// Build produces the full message list: system prompt, replayed
// narration history, and the user prompt with the metadata contract.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.gs == nil {
		return nil, fmt.Errorf("game state is required")
	}

	msgs := []chat.ChatMessage{{Role: chat.ChatRoleSystem, Content: b.systemPrompt()}}

	history := b.gs.NarrationHistory
	if b.isBurn && len(history) > 0 {
		// The last entry narrates the outcome being burned away.
		history = history[:len(history)-1]
	}
	if len(history) > historyReplay {
		history = history[len(history)-historyReplay:]
	}
	for _, h := range history {
		msgs = append(msgs,
			chat.ChatMessage{Role: chat.ChatRoleUser, Content: h.PlayerInput},
			chat.ChatMessage{Role: chat.ChatRoleAssistant, Content: h.Narration},
		)
	}

	msgs = append(msgs, chat.ChatMessage{Role: chat.ChatRoleUser, Content: b.userPrompt()})
	return msgs, nil
}

func (b *Builder) systemPrompt() string {
	var sb strings.Builder
	sb.WriteString(NarratorSystemPrompt)
	if b.gs.KidFriendly {
		sb.WriteString(KidFriendlyBlock)
	}
	if b.gs.Lines != "" || b.gs.Wishes != "" {
		sb.WriteString("\n\nPlayer boundaries:")
		if b.gs.Lines != "" {
			sb.WriteString("\n- Never include: " + b.gs.Lines)
		}
		if b.gs.Wishes != "" {
			sb.WriteString("\n- The player enjoys: " + b.gs.Wishes)
		}
	}
	if b.gs.Backstory != "" {
		sb.WriteString("\n\n" + tag("backstory", b.gs.Backstory))
	}
	return sb.String()
}

func (b *Builder) userPrompt() string {
	gs := b.gs
	var blocks []string
	add := func(name, content string) {
		if strings.TrimSpace(content) != "" {
			blocks = append(blocks, tag(name, content))
		}
	}

	add("world", gs.WorldIntro)
	add("character", b.characterBlock())
	add("scene", gs.SceneContext)
	add("location", gs.Location)
	if len(gs.LocationHistory) > 0 {
		add("prev_locations", strings.Join(gs.LocationHistory, ", "))
	}
	if gs.TimeOfDay != "" {
		add("time", strings.ReplaceAll(gs.TimeOfDay, "_", " "))
	}

	if b.mv != nil {
		var intent []string
		if b.mv.Intent != "" {
			intent = append(intent, "Intent: "+b.mv.Intent)
		}
		if b.mv.Approach != "" {
			intent = append(intent, "Approach: "+b.mv.Approach)
		}
		add("intent", strings.Join(intent, "\n"))
		add("dramatic_question", b.mv.DramaticQuestion)
	}

	add("player_words", b.playerInput)
	b.addNPCBlocks(&blocks)

	if b.roll != nil {
		add("result", b.rollBlock())
	}
	add("status", b.statusBlock())

	if len(b.clockEvents) > 0 {
		var lines []string
		for _, ev := range b.clockEvents {
			lines = append(lines, fmt.Sprintf("The clock %q has filled: %s", ev.Name, ev.Trigger))
		}
		add("clock_fired", strings.Join(lines, "\n"))
	}

	b.addArcBlocks(&blocks)

	if pacing := gs.PacingHint(); pacing != "" {
		if pacing == state.PacingBreather {
			add("pacing", "Recent scenes have been relentless. Let this one breathe: quieter stakes, character, texture.")
		} else {
			add("pacing", "Recent scenes have been quiet. Push: raise pressure or introduce movement.")
		}
	}
	if b.interrupt != nil {
		add("chaos_interrupt", fmt.Sprintf("An unplanned disruption (%s) cuts into this scene. %s", b.interrupt.Type, b.interrupt.Guidance))
	}
	add("npc_agency", b.agencyNote)

	if gs.Guidance != nil {
		add("director_guidance", gs.Guidance.NarratorGuidance)
		if len(gs.Guidance.NPCGuidance) > 0 {
			var notes []string
			for _, id := range sortedKeys(gs.Guidance.NPCGuidance) {
				if n := gs.NPCs.Find(id); n != nil {
					notes = append(notes, n.Name+": "+gs.Guidance.NPCGuidance[id])
				}
			}
			add("npc_note", strings.Join(notes, "\n"))
		}
	}

	if gs.CrisisMode && !gs.GameOver {
		add("crisis", "The player character is at their breaking point. Narrate the weight of it; survival is in question.")
	}
	if gs.GameOver {
		add("crisis", "Both body and spirit have given out. Narrate this as the end of the road for this chapter, with dignity.")
	}

	blocks = append(blocks, b.sceneInstruction())

	prompt := strings.Join(blocks, "\n\n")
	if b.sceneType != SceneEpilogue {
		prompt += MetadataContract
	}
	return prompt
}

func (b *Builder) characterBlock() string {
	gs := b.gs
	return fmt.Sprintf("%s — edge %d, heart %d, iron %d, shadow %d, wits %d",
		gs.PlayerName, gs.Stats.Edge, gs.Stats.Heart, gs.Stats.Iron, gs.Stats.Shadow, gs.Stats.Wits)
}

func (b *Builder) rollBlock() string {
	r := b.roll
	line := fmt.Sprintf("%s on %s (action %d vs challenge %d and %d)", r.Result, r.Stat, r.ActionScore, r.Challenge1, r.Challenge2)
	if r.Match {
		line += " — MATCH: the dice doubled, give this outcome extra dramatic weight"
	}
	if b.mv != nil {
		line += fmt.Sprintf("\nPosition: %s. Effect: %s.", b.mv.Position, b.mv.Effect)
	}
	if b.isBurn {
		line += "\nThe player burned all momentum to turn this outcome around. Re-narrate the scene with the upgraded result; the earlier version never happened."
	}
	if len(b.consequences) > 0 {
		var lines []string
		for _, c := range b.consequences {
			lines = append(lines, consequenceLine(c))
		}
		line += "\nMechanical consequences already applied: " + strings.Join(lines, "; ")
	}
	return line
}

func consequenceLine(c state.Consequence) string {
	switch c.Kind {
	case "track":
		return fmt.Sprintf("%s %+d", c.Target, c.Delta)
	case "momentum":
		return fmt.Sprintf("momentum %+d", c.Delta)
	case "bond":
		return fmt.Sprintf("bond with %s %+d", c.Target, c.Delta)
	case "disposition":
		return fmt.Sprintf("%s now %s", c.Target, c.Detail)
	case "clock":
		return c.Detail
	}
	return c.Detail
}

func (b *Builder) statusBlock() string {
	gs := b.gs
	s := fmt.Sprintf("health %d/5, spirit %d/5, supply %d/5, momentum %d", gs.Health, gs.Spirit, gs.Supply, gs.Momentum)
	var flags []string
	if gs.Health <= 2 {
		flags = append(flags, "WOUNDED")
	}
	if gs.Spirit <= 2 {
		flags = append(flags, "BROKEN")
	}
	if gs.Supply <= 1 {
		flags = append(flags, "DEPLETED")
	}
	if gs.CrisisMode {
		flags = append(flags, "CRISIS")
	}
	if gs.Blueprint != nil {
		if pos := gs.Blueprint.CurrentAct(gs.SceneCount); pos.ApproachingEnd {
			flags = append(flags, "FINAL_SCENE")
		}
	}
	if len(flags) > 0 {
		s += "\nFlags: " + strings.Join(flags, ", ")
	}
	return s
}

func (b *Builder) addNPCBlocks(blocks *[]string) {
	gs := b.gs
	if b.activation == nil {
		return
	}

	var targetID string
	if b.mv != nil && b.mv.TargetID != "" {
		if t := gs.NPCs.Find(b.mv.TargetID); t != nil {
			targetID = t.ID
			*blocks = append(*blocks, tag("target_npc", b.npcProfile(t, 5)))
		}
	}

	for _, n := range b.activation.Activated {
		if n.ID == targetID {
			continue
		}
		*blocks = append(*blocks, tag("activated_npc", b.npcProfile(n, 3)))
	}

	if len(b.activation.Mentioned) > 0 {
		var lines []string
		for _, n := range b.activation.Mentioned {
			if n.ID == targetID {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s (%s)", n.Name, n.Disposition))
		}
		if len(lines) > 0 {
			*blocks = append(*blocks, tag("known_npcs", strings.Join(lines, "\n")))
		}
	}
}

func (b *Builder) npcProfile(n *npc.NPC, memories int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s — %s, bond %d/%d", n.Name, n.Disposition, n.Bond, npc.MaxBond)
	if len(n.Aliases) > 0 {
		fmt.Fprintf(&sb, " (also known as %s)", strings.Join(n.Aliases, ", "))
	}
	if n.Description != "" {
		sb.WriteString("\n" + n.Description)
	}
	if n.Agenda != "" {
		sb.WriteString("\nAgenda: " + n.Agenda)
	}
	if n.Instinct != "" {
		sb.WriteString("\nInstinct: " + n.Instinct)
	}
	if n.Secrets != "" {
		sb.WriteString("\nSecret (never state directly): " + n.Secrets)
	}

	ctx := b.playerInput
	if b.mv != nil {
		ctx += " " + b.mv.Intent + " " + b.mv.Approach
	}
	if mems := n.RetrieveMemories(ctx, memories, b.gs.SceneCount); len(mems) > 0 {
		sb.WriteString("\nRemembers:")
		for _, m := range mems {
			sb.WriteString("\n- " + m.Event)
		}
	}
	return sb.String()
}

func (b *Builder) addArcBlocks(blocks *[]string) {
	gs := b.gs
	if gs.Blueprint == nil {
		return
	}
	bp := gs.Blueprint
	pos := bp.CurrentAct(gs.SceneCount)
	arc := fmt.Sprintf("Act %d (%s, %s): %s\nCentral conflict: %s", pos.ActNumber, pos.Phase, pos.Progress, pos.Goal, bp.CentralConflict)
	if pos.Mood != "" {
		arc += "\nMood: " + pos.Mood
	}
	*blocks = append(*blocks, tag("story_arc", arc))

	if rev := bp.PendingRevelation(gs.SceneCount); rev != nil {
		*blocks = append(*blocks, tag("revelation", "Weave this into the scene if it fits naturally: "+rev.Text))
	}
	if pos.ApproachingEnd && len(bp.PossibleEndings) > 0 {
		*blocks = append(*blocks, tag("story_ending", "The story is approaching its end. Possible endings:\n"+strings.Join(bp.PossibleEndings, "\n")))
	}
}

func (b *Builder) sceneInstruction() string {
	switch b.sceneType {
	case SceneOpening:
		return "Open the story. Establish the world, the player character in motion, and at least one NPC with a stake in what happens. Declare the full starting cast, clocks, location and time in a <game_data> tag after the prose."
	case SceneChapterOpening:
		return "Open a new chapter of this campaign. Reintroduce the world some time after the previous chapter's events, honoring its unresolved threads. Declare the chapter's cast, clocks, location and time in a <game_data> tag after the prose."
	case SceneEpilogue:
		return EpilogueInstruction
	case SceneAction:
		return "Narrate this scene honoring the roll result above."
	default:
		return "Narrate this scene. It is conversation, not action: no dice were rolled. Let NPCs speak in their own voices."
	}
}

func tag(name, content string) string {
	return "<" + name + ">\n" + strings.TrimSpace(content) + "\n</" + name + ">"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
