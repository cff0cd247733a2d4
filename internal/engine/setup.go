package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/averyhale/saga-engine/internal/services"
	"github.com/averyhale/saga-engine/pkg/chat"
	"github.com/averyhale/saga-engine/pkg/parser"
	"github.com/averyhale/saga-engine/pkg/prompts"
	"github.com/averyhale/saga-engine/pkg/state"
)

// GameSetup is the new-game creation payload.
type GameSetup struct {
	PlayerName  string       `json:"player_name"`
	Stats       *state.Stats `json:"stats,omitempty"`
	WorldID     string       `json:"world_id,omitempty"`
	WorldIntro  string       `json:"world_intro,omitempty"`
	Tone        string       `json:"tone,omitempty"`
	Wishes      string       `json:"wishes,omitempty"`
	Lines       string       `json:"lines,omitempty"`
	Backstory   string       `json:"backstory,omitempty"`
	KidFriendly bool         `json:"kid_friendly"`
}

func (s *GameSetup) Validate() error {
	if strings.TrimSpace(s.PlayerName) == "" {
		return fmt.Errorf("player_name is required")
	}
	if s.Stats != nil {
		if err := s.Stats.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NewGame creates a fresh game state and narrates its opening scene.
// The opening response declares the starting cast, clocks, location and
// time, which the parser folds into the state.
func (e *Engine) NewGame(ctx context.Context, setup GameSetup) (*state.GameState, *TurnResult, error) {
	if err := setup.Validate(); err != nil {
		return nil, nil, err
	}

	stats := state.DefaultStats()
	if setup.Stats != nil {
		stats = *setup.Stats
	}

	gs := state.NewGameState(strings.TrimSpace(setup.PlayerName), stats)
	gs.WorldID = setup.WorldID
	gs.WorldIntro = setup.WorldIntro
	gs.Wishes = setup.Wishes
	gs.Lines = setup.Lines
	gs.Backstory = setup.Backstory
	gs.KidFriendly = setup.KidFriendly

	gs.Blueprint = e.generateBlueprint(ctx, gs, setup.Tone)

	msgs, err := prompts.NewBuilder().
		WithGameState(gs).
		WithSceneType(prompts.SceneOpening).
		WithPlayerInput("Begin the story.").
		Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build opening prompt: %w", err)
	}

	narration, err := e.narrate(ctx, msgs)
	if err != nil {
		return nil, nil, fmt.Errorf("opening narration failed: %w", err)
	}

	parsed := parser.New(e.logger).Parse(gs, narration)
	parsed.Prose = cleanProse(gs, parsed.Prose)

	gs.RecordNarration("", parsed.Prose)
	gs.RecordSceneSummary("The story opens.")
	gs.Transcript = append(gs.Transcript,
		chat.TranscriptEntry{Role: chat.ChatRoleAssistant, Content: parsed.Prose})

	return gs, &TurnResult{Narration: parsed.Prose}, nil
}

// Recap produces a short "previously on" text for a resumed save. It
// never blocks resuming: any failure yields a canned line.
func (e *Engine) Recap(ctx context.Context, gs *state.GameState) string {
	if len(gs.SessionLog) == 0 {
		return prompts.RecapFallback
	}
	resp, err := e.llm.Generate(ctx, services.GenerateRequest{
		Messages:   prompts.BuildRecapMessages(gs),
		MaxTokens:  auxMaxTokens,
		UseBackend: true,
	})
	if err != nil {
		e.logger.Warn("recap call failed", "error", err)
		return prompts.RecapFallback
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return prompts.RecapFallback
	}
	return text
}

// Epilogue narrates a closing scene once the story arc is complete.
func (e *Engine) Epilogue(ctx context.Context, gs *state.GameState, input string) (*TurnResult, error) {
	if input == "" {
		input = "Bring the story to its close."
	}
	activation := e.activate(gs, input, nil)
	msgs, err := prompts.NewBuilder().
		WithGameState(gs).
		WithSceneType(prompts.SceneEpilogue).
		WithPlayerInput(input).
		WithActivation(&activation).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build epilogue prompt: %w", err)
	}

	narration, err := e.narrate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("epilogue narration failed: %w", err)
	}

	// The epilogue prompt carries no metadata contract; the parser
	// still scrubs any stray blocks the narrator emits.
	parsed := parser.New(e.logger).Parse(gs, narration)
	parsed.Prose = cleanProse(gs, parsed.Prose)

	gs.RecordNarration(input, parsed.Prose)
	gs.RecordSceneSummary("Epilogue.")
	gs.Transcript = append(gs.Transcript,
		chat.TranscriptEntry{Role: chat.ChatRoleUser, Content: input},
		chat.TranscriptEntry{Role: chat.ChatRoleAssistant, Content: parsed.Prose})

	return &TurnResult{Narration: parsed.Prose, StoryComplete: true}, nil
}
