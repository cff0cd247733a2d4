package engine

import (
	"context"
	"fmt"

	"github.com/averyhale/saga-engine/pkg/chat"
	"github.com/averyhale/saga-engine/pkg/dice"
	"github.com/averyhale/saga-engine/pkg/parser"
	"github.com/averyhale/saga-engine/pkg/prompts"
	"github.com/averyhale/saga-engine/pkg/state"
)

// BurnMomentum accepts the pending burn offer: the pre-consequence
// snapshot is restored, momentum is spent to zero, the upgraded
// result's consequences are applied, and the scene is re-narrated. The
// replacement narration overwrites the burned one in every history the
// narrator sees, so the original outcome leaves no trace.
func (e *Engine) BurnMomentum(ctx context.Context, gs *state.GameState) (*TurnResult, error) {
	offer := gs.PendingBurn
	if offer == nil {
		return nil, fmt.Errorf("no momentum burn is pending")
	}
	gs.PendingBurn = nil

	gs.RestoreSnapshot(offer.Snapshot)
	gs.Momentum = 0
	gs.DropCurrentSceneMemories()

	roll := offer.Roll
	roll.Result = offer.UpgradeTo
	mv := offer.Move

	result := &TurnResult{Roll: &roll, Move: &mv}
	result.Consequences, result.ClockEvents = dice.ApplyConsequences(gs, roll, mv)

	activation := e.activate(gs, offer.PlayerInput, &mv)
	msgs, err := prompts.NewBuilder().
		WithGameState(gs).
		WithSceneType(prompts.SceneAction).
		WithPlayerInput(offer.PlayerInput).
		WithMove(&mv).
		WithRoll(&roll, result.Consequences).
		WithClockEvents(result.ClockEvents).
		WithActivation(&activation).
		AsBurnRenarration().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build burn prompt: %w", err)
	}

	narration, err := e.narrate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("burn re-narration failed: %w", err)
	}

	parsed := parser.New(e.logger).Parse(gs, narration)
	parsed.Prose = cleanProse(gs, parsed.Prose)
	result.Narration = parsed.Prose

	dice.UpdateChaos(gs, roll.Result)

	gs.ReplaceLastNarration(offer.PlayerInput, parsed.Prose)
	gs.ReplaceLastSceneSummary(sceneSummary(offer.PlayerInput, &mv, &roll))
	if n := len(gs.Transcript); n >= 1 && gs.Transcript[n-1].Role == chat.ChatRoleAssistant {
		gs.Transcript[n-1].Content = parsed.Prose
		gs.Transcript[n-1].Audio = nil
	}

	if gs.Blueprint != nil && gs.Blueprint.CheckComplete(gs.SceneCount) {
		result.StoryComplete = true
	}
	result.GameOver = gs.GameOver
	result.DirectorNeeded = e.needsDirector(gs, roll.Result, nil, len(parsed.NewNPCIDs), false)

	return result, nil
}
