// Package worker runs the deferred director pass. Turns return to the
// player as soon as narration lands; the strategic pass runs behind the
// scenes and its results surface in the next prompt build.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/averyhale/saga-engine/internal/engine"
	"github.com/averyhale/saga-engine/internal/storage"
)

const (
	jobBuffer  = 64
	jobTimeout = 60 * time.Second
)

// Job is one scheduled director pass. Generation pins the session
// generation at scheduling time; a pass whose generation has moved on
// (load, new game, chapter change) is discarded. FlaggedNPCs carries
// the reflection flags, which are session-scoped and do not survive the
// runner's fresh load from storage.
type Job struct {
	GameID      uuid.UUID
	Generation  uint64
	FlaggedNPCs []string
}

// Runner executes director jobs one at a time off a buffered channel.
type Runner struct {
	id      string
	engine  *engine.Engine
	storage storage.Storage
	locks   *SessionLocks
	log     *slog.Logger

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	gens map[uuid.UUID]uint64
}

func NewRunner(eng *engine.Engine, store storage.Storage, locks *SessionLocks, log *slog.Logger, runnerID string) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	if runnerID == "" {
		runnerID = fmt.Sprintf("director-%s", uuid.New().String()[:8])
	}
	return &Runner{
		id:      runnerID,
		engine:  eng,
		storage: store,
		locks:   locks,
		log:     log,
		jobs:    make(chan Job, jobBuffer),
		ctx:     ctx,
		cancel:  cancel,
		gens:    make(map[uuid.UUID]uint64),
	}
}

// Generation returns the session's current generation.
func (r *Runner) Generation(id uuid.UUID) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gens[id]
}

// Bump invalidates any in-flight director work for the session. Called
// on load, new game, and chapter transitions.
func (r *Runner) Bump(id uuid.UUID) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens[id]++
	return r.gens[id]
}

// Schedule enqueues a director pass at the session's current
// generation. A full queue drops the job; the pass is advisory and the
// every-Nth-scene trigger will reschedule one.
func (r *Runner) Schedule(id uuid.UUID, flaggedNPCs []string) {
	job := Job{GameID: id, Generation: r.Generation(id), FlaggedNPCs: flaggedNPCs}
	select {
	case r.jobs <- job:
	default:
		r.log.Warn("Director queue full, dropping job", "game_id", id)
	}
}

// Start processes jobs until Stop is called.
func (r *Runner) Start() {
	r.log.Info("Director runner starting", "runner_id", r.id)
	for {
		select {
		case <-r.ctx.Done():
			r.log.Info("Director runner shutting down", "runner_id", r.id)
			return
		case job := <-r.jobs:
			if err := r.process(job); err != nil {
				r.log.Error("Director job failed", "runner_id", r.id, "game_id", job.GameID, "error", err)
			}
		}
	}
}

// Stop gracefully shuts down the runner.
func (r *Runner) Stop() {
	r.cancel()
}

func (r *Runner) process(job Job) error {
	if r.Generation(job.GameID) != job.Generation {
		r.log.Debug("Discarding stale director job", "game_id", job.GameID)
		return nil
	}

	if !r.locks.TryLock(job.GameID) {
		// A turn is in flight; requeue behind it.
		r.log.Debug("Session busy, requeueing director job", "game_id", job.GameID)
		select {
		case r.jobs <- job:
		default:
		}
		return nil
	}
	defer r.locks.Unlock(job.GameID)

	// The lock is held, but a turn may have completed between
	// scheduling and acquisition; the generation check above plus this
	// fresh load keep the pass consistent with the latest state.
	ctx, cancel := context.WithTimeout(r.ctx, jobTimeout)
	defer cancel()

	gs, err := r.storage.LoadGameState(ctx, job.GameID)
	if err != nil {
		return fmt.Errorf("failed to load game state: %w", err)
	}
	if gs == nil {
		r.log.Debug("Game state gone, discarding director job", "game_id", job.GameID)
		return nil
	}
	for _, id := range job.FlaggedNPCs {
		if n := gs.NPCs.Find(id); n != nil {
			n.NeedsReflection = true
		}
	}

	r.engine.RunDirector(ctx, gs)

	if r.Generation(job.GameID) != job.Generation {
		r.log.Debug("Session generation moved during director pass, discarding result", "game_id", job.GameID)
		return nil
	}

	if err := r.storage.SaveGameState(ctx, job.GameID, gs); err != nil {
		return fmt.Errorf("failed to save game state: %w", err)
	}
	r.log.Debug("Director pass applied", "game_id", job.GameID, "scene", gs.SceneCount)
	return nil
}
