package engine

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/averyhale/saga-engine/internal/services"
	"github.com/averyhale/saga-engine/pkg/dice"
	"github.com/averyhale/saga-engine/pkg/parser"
	"github.com/averyhale/saga-engine/pkg/prompts"
	"github.com/averyhale/saga-engine/pkg/state"
)

const classifierAttempts = 3

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// Classify maps free player input onto a move. It retries with a brace
// prefill when the model drifts from strict JSON and falls back to a
// plain dialog move on total failure, because a turn must never fail
// on classification.
func (e *Engine) Classify(ctx context.Context, gs *state.GameState, input string) state.MoveContext {
	msgs := prompts.BuildClassifierMessages(gs, input)

	for attempt := 0; attempt < classifierAttempts; attempt++ {
		req := services.GenerateRequest{
			Messages:   msgs,
			MaxTokens:  auxMaxTokens,
			UseBackend: true,
		}
		if attempt > 0 {
			req.Prefill = "{"
		}

		var resp *services.GenerateResponse
		err := services.ClassifierRetry.Do(ctx, e.logger, "classify", func() error {
			var genErr error
			resp, genErr = e.llm.Generate(ctx, req)
			return genErr
		})
		if err != nil {
			e.logger.Error("classifier call failed", "error", err, "attempt", attempt)
			continue
		}

		if mv, ok := e.parseClassifier(resp.Text); ok {
			return mv
		}
		e.logger.Warn("classifier returned unparseable output", "attempt", attempt)
	}

	e.logger.Warn("classification failed, falling back to dialog move")
	return state.MoveContext{Move: "dialog", Stat: "heart", Position: state.PositionRisky, Effect: state.EffectStandard}
}

func (e *Engine) parseClassifier(text string) (state.MoveContext, bool) {
	raw := jsonObjectRe.FindString(text)
	if raw == "" {
		return state.MoveContext{}, false
	}

	var mv state.MoveContext
	if err := json.Unmarshal([]byte(raw), &mv); err != nil {
		if err := json.Unmarshal([]byte(parser.RepairJSON(raw)), &mv); err != nil {
			return state.MoveContext{}, false
		}
	}

	move := dice.LookupMove(strings.ToLower(strings.TrimSpace(mv.Move)))
	mv.Move = move.Name
	switch mv.Stat {
	case "edge", "heart", "iron", "shadow", "wits":
	default:
		// Unknown stat names resolve through the move table.
		mv.Stat = move.Stat
	}
	switch mv.Position {
	case state.PositionControlled, state.PositionRisky, state.PositionDesperate:
	default:
		mv.Position = state.PositionRisky
	}
	switch mv.Effect {
	case state.EffectLimited, state.EffectStandard, state.EffectGreat:
	default:
		mv.Effect = state.EffectStandard
	}
	return mv, true
}
