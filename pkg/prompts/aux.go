package prompts

import (
	"fmt"
	"strings"

	"github.com/averyhale/saga-engine/pkg/chat"
	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/state"
)

// BuildClassifierMessages assembles the fast "brain" call classifying
// one player input.
func BuildClassifierMessages(gs *state.GameState, playerInput string) []chat.ChatMessage {
	var ctx []string
	if gs.SceneContext != "" {
		ctx = append(ctx, "Scene: "+gs.SceneContext)
	}
	if gs.Location != "" {
		ctx = append(ctx, "Location: "+gs.Location)
	}
	if gs.CrisisMode {
		ctx = append(ctx, "The player character is in crisis (a track is empty).")
	}
	var roster []string
	for _, n := range gs.NPCs.Active() {
		roster = append(roster, fmt.Sprintf("%s (%s)", n.ID, n.Name))
	}
	if len(roster) > 0 {
		ctx = append(ctx, "Known NPCs: "+strings.Join(roster, ", "))
	}

	user := "Player input: " + playerInput
	if len(ctx) > 0 {
		user = strings.Join(ctx, "\n") + "\n\n" + user
	}
	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: ClassifierSystemPrompt},
		{Role: chat.ChatRoleUser, Content: user},
	}
}

// directorLogWindow is how many session-log entries the director sees.
const directorLogWindow = 8

// BuildDirectorMessages assembles the strategic pass input: recent
// session log, flagged NPCs with their recent observations, arc
// position, and a roster overview.
func BuildDirectorMessages(gs *state.GameState, flagged []*npc.NPC) []chat.ChatMessage {
	var sb strings.Builder

	var log []string
	for _, e := range gs.RecentSummaries(directorLogWindow) {
		summary := e.Summary
		if e.RichSummary != "" {
			summary = e.RichSummary
		}
		log = append(log, fmt.Sprintf("Scene %d: %s", e.Scene, summary))
	}
	sb.WriteString(tag("recent_scenes", strings.Join(log, "\n")))

	for _, n := range flagged {
		var obs []string
		count := 0
		for i := len(n.Memory) - 1; i >= 0 && count < directorLogWindow; i-- {
			if n.Memory[i].Type == npc.MemoryObservation {
				obs = append([]string{"- " + n.Memory[i].Event}, obs...)
				count++
			}
		}
		sb.WriteString("\n\n" + tag("reflect",
			fmt.Sprintf("%s (id %s) has accumulated enough experience to form a reflection.\nRecent observations:\n%s", n.Name, n.ID, strings.Join(obs, "\n"))))
	}

	if gs.Blueprint != nil {
		pos := gs.Blueprint.CurrentAct(gs.SceneCount)
		sb.WriteString("\n\n" + tag("story_arc",
			fmt.Sprintf("Act %d (%s, %s): %s\nCentral conflict: %s", pos.ActNumber, pos.Phase, pos.Progress, pos.Goal, gs.Blueprint.CentralConflict)))
	}

	var roster []string
	for _, n := range gs.NPCs.Active() {
		roster = append(roster, fmt.Sprintf("%s (id %s, %s, bond %d)", n.Name, n.ID, n.Disposition, n.Bond))
	}
	sb.WriteString("\n\n" + tag("npcs", strings.Join(roster, "\n")))

	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: DirectorSystemPrompt},
		{Role: chat.ChatRoleUser, Content: sb.String()},
	}
}

// BuildChapterSummaryMessages assembles the chapter close-out call.
func BuildChapterSummaryMessages(gs *state.GameState) []chat.ChatMessage {
	var log []string
	for _, e := range gs.SessionLog {
		summary := e.Summary
		if e.RichSummary != "" {
			summary = e.RichSummary
		}
		log = append(log, fmt.Sprintf("Scene %d: %s", e.Scene, summary))
	}
	user := fmt.Sprintf("Chapter %d of %s's story has ended. Scene record:\n\n%s",
		gs.Chapter, gs.PlayerName, strings.Join(log, "\n"))
	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: ChapterSummarySystemPrompt},
		{Role: chat.ChatRoleUser, Content: user},
	}
}

// BuildArchitectMessages assembles the story-blueprint generation call
// for the chosen structure.
func BuildArchitectMessages(gs *state.GameState, structure string) []chat.ChatMessage {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Design the arc for chapter %d of %s's story.", gs.Chapter, gs.PlayerName)
	if gs.WorldIntro != "" {
		sb.WriteString("\n\n" + tag("world", gs.WorldIntro))
	}
	if gs.SceneContext != "" {
		sb.WriteString("\n\n" + tag("situation", gs.SceneContext))
	}
	if len(gs.CampaignHistory) > 0 {
		last := gs.CampaignHistory[len(gs.CampaignHistory)-1]
		sb.WriteString("\n\n" + tag("previous_chapter", last.Summary))
		if len(last.UnresolvedThreads) > 0 {
			sb.WriteString("\n\n" + tag("unresolved_threads", strings.Join(last.UnresolvedThreads, "\n")))
		}
	}
	var roster []string
	for _, n := range gs.NPCs.Active() {
		roster = append(roster, fmt.Sprintf("%s: %s", n.Name, n.Description))
	}
	if len(roster) > 0 {
		sb.WriteString("\n\n" + tag("cast", strings.Join(roster, "\n")))
	}

	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: fmt.Sprintf(ArchitectSystemPrompt, structure)},
		{Role: chat.ChatRoleUser, Content: sb.String()},
	}
}

// BuildRecapMessages assembles the resume recap call.
func BuildRecapMessages(gs *state.GameState) []chat.ChatMessage {
	var log []string
	for _, e := range gs.RecentSummaries(10) {
		log = append(log, fmt.Sprintf("Scene %d: %s", e.Scene, e.Summary))
	}
	user := fmt.Sprintf("Player character: %s. Current location: %s.\n\nScene summaries:\n%s",
		gs.PlayerName, gs.Location, strings.Join(log, "\n"))
	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: RecapSystemPrompt},
		{Role: chat.ChatRoleUser, Content: user},
	}
}
