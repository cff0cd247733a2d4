package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/averyhale/saga-engine/internal/engine"
	"github.com/averyhale/saga-engine/internal/services"
	"github.com/averyhale/saga-engine/internal/storage"
	"github.com/averyhale/saga-engine/pkg/dice"
	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/state"
)

func testRunner(llm services.LLMService, store storage.Storage) *Runner {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(llm, dice.NewRoller(), log)
	return NewRunner(eng, store, NewSessionLocks(), log, "test-runner")
}

func directorScript() string {
	return `{
		"scene_summary": "Rook stole the ledger from Mara.",
		"narrator_guidance": "Let the theft have consequences.",
		"npc_guidance": {"mara_voss": "she suspects the player"},
		"pacing": "push",
		"reflections": [{"npc_id": "mara_voss", "insight": "The player cannot be trusted with secrets."}],
		"arc_notes": ""
	}`
}

func storedState(store *storage.MockStorage) *state.GameState {
	gs := state.NewGameState("Rook", state.Stats{Edge: 1, Heart: 2, Iron: 2, Shadow: 1, Wits: 1})
	gs.SceneCount = 5
	gs.RecordSceneSummary("Stole the ledger")
	gs.NPCs["mara_voss"] = npc.New("mara_voss", "Mara Voss")
	store.SaveGameState(context.Background(), gs.ID, gs)
	return gs
}

func TestRunner_ProcessAppliesDirectorPass(t *testing.T) {
	llm := services.NewMockLLMService().Enqueue(directorScript())
	store := storage.NewMockStorage()
	r := testRunner(llm, store)
	gs := storedState(store)

	job := Job{GameID: gs.ID, Generation: r.Generation(gs.ID), FlaggedNPCs: []string{"mara_voss"}}
	if err := r.process(job); err != nil {
		t.Fatalf("process: %v", err)
	}

	saved, _ := store.LoadGameState(context.Background(), gs.ID)
	if saved.Guidance == nil || saved.Guidance.NarratorGuidance != "Let the theft have consequences." {
		t.Errorf("guidance = %+v", saved.Guidance)
	}
	if saved.SessionLog[len(saved.SessionLog)-1].RichSummary == "" {
		t.Error("rich summary not attached")
	}

	mara := saved.NPCs["mara_voss"]
	found := false
	for _, m := range mara.Memory {
		if m.Type == npc.MemoryReflection {
			found = true
		}
	}
	if !found {
		t.Error("flagged NPC did not receive a reflection")
	}
}

func TestRunner_StaleGenerationDiscarded(t *testing.T) {
	llm := services.NewMockLLMService().Enqueue(directorScript())
	store := storage.NewMockStorage()
	r := testRunner(llm, store)
	gs := storedState(store)

	job := Job{GameID: gs.ID, Generation: r.Generation(gs.ID)}
	r.Bump(gs.ID)

	if err := r.process(job); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(llm.Calls()) != 0 {
		t.Error("stale job still ran the director")
	}
}

func TestRunner_BusySessionRequeues(t *testing.T) {
	llm := services.NewMockLLMService().Enqueue(directorScript())
	store := storage.NewMockStorage()
	r := testRunner(llm, store)
	gs := storedState(store)

	r.locks.TryLock(gs.ID)
	job := Job{GameID: gs.ID, Generation: r.Generation(gs.ID)}
	if err := r.process(job); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(llm.Calls()) != 0 {
		t.Error("director ran while the session was locked")
	}
	select {
	case requeued := <-r.jobs:
		if requeued.GameID != gs.ID {
			t.Errorf("requeued wrong job: %+v", requeued)
		}
	default:
		t.Error("job was not requeued")
	}
}

func TestRunner_MissingStateDiscarded(t *testing.T) {
	llm := services.NewMockLLMService().Enqueue(directorScript())
	store := storage.NewMockStorage()
	r := testRunner(llm, store)

	gs := state.NewGameState("Rook", state.Stats{Edge: 1, Heart: 2, Iron: 2, Shadow: 1, Wits: 1})
	job := Job{GameID: gs.ID, Generation: r.Generation(gs.ID)}
	if err := r.process(job); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(llm.Calls()) != 0 {
		t.Error("director ran without a state")
	}
}

func TestRunner_ScheduleDropsWhenFull(t *testing.T) {
	llm := services.NewMockLLMService()
	store := storage.NewMockStorage()
	r := testRunner(llm, store)
	gs := storedState(store)

	for i := 0; i < jobBuffer+10; i++ {
		r.Schedule(gs.ID, nil)
	}
	if len(r.jobs) != jobBuffer {
		t.Errorf("queue length = %d, want %d", len(r.jobs), jobBuffer)
	}
}
