package engine

import (
	"context"
	"fmt"

	"github.com/averyhale/saga-engine/internal/services"
	"github.com/averyhale/saga-engine/pkg/chat"
	"github.com/averyhale/saga-engine/pkg/dice"
	"github.com/averyhale/saga-engine/pkg/parser"
	"github.com/averyhale/saga-engine/pkg/prompts"
	"github.com/averyhale/saga-engine/pkg/state"
	"github.com/averyhale/saga-engine/pkg/story"
)

// ProcessTurn resolves one player turn: classify the input, roll dice
// if it is an action, apply consequences, narrate, and fold the
// response's metadata back into the state. The state is mutated in
// place; callers persist it after a successful return.
func (e *Engine) ProcessTurn(ctx context.Context, gs *state.GameState, input string) (*TurnResult, error) {
	if gs.GameOver {
		return nil, fmt.Errorf("game is over; start a new chapter or game")
	}
	// Any unclaimed burn offer from a previous turn lapses.
	gs.PendingBurn = nil

	mv := e.Classify(ctx, gs, input)
	e.logger.Debug("turn classified",
		"move", mv.Move, "stat", mv.Stat, "position", mv.Position, "target", mv.TargetID)

	if mv.LocationChange != "" {
		gs.SetLocation(mv.LocationChange)
	}
	gs.AdvanceTime(mv.TimeProgression)

	activation := e.activate(gs, input, &mv)

	interrupt := dice.CheckInterrupt(e.roller, gs)
	gs.SceneCount++

	// The prompt builder surfaces the same pending revelation; it is
	// marked revealed once the narration lands.
	var revelation *story.Revelation
	if gs.Blueprint != nil {
		revelation = gs.Blueprint.PendingRevelation(gs.SceneCount)
	}

	result := &TurnResult{Move: &mv, Interrupt: interrupt}
	sceneType := prompts.SceneDialog
	intensity := state.IntensityBreather
	var agencyNote string

	if mv.Move != "dialog" {
		sceneType = prompts.SceneAction
		intensity = state.IntensityAction

		roll := dice.RollAction(e.roller, mv.Stat, gs.Stats.Get(mv.Stat))
		result.Roll = &roll

		if upgrade, ok := dice.CanBurnMomentum(gs.Momentum, roll); ok {
			gs.PendingBurn = &state.BurnOffer{
				UpgradeTo:   upgrade,
				Roll:        roll,
				Move:        mv,
				PlayerInput: input,
				Snapshot:    gs.TakeSnapshot(),
			}
			result.BurnOffered = true
			result.BurnUpgrade = upgrade
		}

		result.Consequences, result.ClockEvents = dice.ApplyConsequences(gs, roll, mv)
		agencyNote = e.npcAgency(gs)
	}
	if interrupt != nil {
		intensity = state.IntensityInterrupt
	}

	msgs, err := prompts.NewBuilder().
		WithGameState(gs).
		WithSceneType(sceneType).
		WithPlayerInput(input).
		WithMove(&mv).
		WithRoll(result.Roll, result.Consequences).
		WithClockEvents(result.ClockEvents).
		WithInterrupt(interrupt).
		WithActivation(&activation).
		WithAgencyNote(agencyNote).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build narration prompt: %w", err)
	}

	narration, err := e.narrate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("narration failed: %w", err)
	}

	parsed := parser.New(e.logger).Parse(gs, narration)
	parsed.Prose = cleanProse(gs, parsed.Prose)
	result.Narration = parsed.Prose

	if result.Roll != nil {
		dice.UpdateChaos(gs, result.Roll.Result)
	}
	if revelation != nil {
		revelation.Revealed = true
	}

	gs.RecordNarration(input, parsed.Prose)
	gs.RecordSceneSummary(sceneSummary(input, &mv, result.Roll))
	gs.RecordIntensity(intensity)
	gs.Transcript = append(gs.Transcript,
		chat.TranscriptEntry{Role: chat.ChatRoleUser, Content: input},
		chat.TranscriptEntry{Role: chat.ChatRoleAssistant, Content: parsed.Prose},
	)

	if demoted := gs.NPCs.RetireDistant(gs.SceneCount); len(demoted) > 0 {
		e.logger.Debug("npcs moved to background", "count", len(demoted))
	}

	if gs.Blueprint != nil && gs.Blueprint.CheckComplete(gs.SceneCount) {
		result.StoryComplete = true
	}
	result.GameOver = gs.GameOver

	rollResult := ""
	if result.Roll != nil {
		rollResult = result.Roll.Result
	}
	result.DirectorNeeded = e.needsDirector(gs, rollResult, interrupt, len(parsed.NewNPCIDs), revelation != nil)

	return result, nil
}

// npcAgency gives off-screen schemers forward motion: every fifth scene
// the first open scheme clock advances one segment, and the narrator
// gets a nudge to let its consequences show.
func (e *Engine) npcAgency(gs *state.GameState) string {
	if gs.SceneCount%npcAgencyInterval != 0 {
		return ""
	}
	clocks := gs.OpenSchemeClocks()
	if len(clocks) == 0 {
		return ""
	}
	c := clocks[0]
	ev := c.Advance(1)
	note := fmt.Sprintf("Off-screen, %q advances (%d/%d). Hint at its progress in the background of this scene.", c.Name, c.Filled, c.Segments)
	if ev != nil {
		note = fmt.Sprintf("Off-screen, %q has come to fruition: %s. Its effects reach this scene.", ev.Name, ev.Trigger)
	}
	if owner := gs.NPCs.Find(c.Owner); owner != nil {
		note += fmt.Sprintf(" (This is %s's doing.)", owner.Name)
	}
	return note
}

// narrate performs the narrator call with retries, salvaging a clean
// cut when generation hits the token limit.
func (e *Engine) narrate(ctx context.Context, msgs []chat.ChatMessage) (string, error) {
	var resp *services.GenerateResponse
	err := services.NarratorRetry.Do(ctx, e.logger, "narrate", func() error {
		var genErr error
		resp, genErr = e.llm.Generate(ctx, services.GenerateRequest{
			Messages:  msgs,
			MaxTokens: narrationMaxTokens,
		})
		return genErr
	})
	if err != nil {
		return "", err
	}
	text := resp.Text
	if resp.Truncated {
		e.logger.Warn("narration truncated, salvaging")
		text = parser.SalvageTruncatedNarration(text)
	}
	return text, nil
}
