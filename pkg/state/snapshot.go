package state

// Snapshot captures exactly the fields a momentum burn must restore:
// tracks, momentum, chaos, crisis flags, per-NPC bonds and per-clock
// fills. Restoration is a pure function of the snapshot.
type Snapshot struct {
	Health      int            `json:"health"`
	Spirit      int            `json:"spirit"`
	Supply      int            `json:"supply"`
	Momentum    int            `json:"momentum"`
	ChaosFactor int            `json:"chaos_factor"`
	CrisisMode  bool           `json:"crisis_mode"`
	GameOver    bool           `json:"game_over"`
	NPCBonds    map[string]int `json:"npc_bonds"`
	ClockFills  map[string]int `json:"clock_fills"`
}

// TakeSnapshot captures the burn-restorable state before consequences
// are applied.
func (gs *GameState) TakeSnapshot() Snapshot {
	bonds := make(map[string]int, len(gs.NPCs))
	for id, n := range gs.NPCs {
		bonds[id] = n.Bond
	}
	fills := make(map[string]int, len(gs.Clocks))
	for id, c := range gs.Clocks {
		fills[id] = c.Filled
	}
	return Snapshot{
		Health:      gs.Health,
		Spirit:      gs.Spirit,
		Supply:      gs.Supply,
		Momentum:    gs.Momentum,
		ChaosFactor: gs.ChaosFactor,
		CrisisMode:  gs.CrisisMode,
		GameOver:    gs.GameOver,
		NPCBonds:    bonds,
		ClockFills:  fills,
	}
}

// RestoreSnapshot puts the burn-restorable fields back exactly as
// captured. NPCs or clocks created after the snapshot are untouched.
func (gs *GameState) RestoreSnapshot(snap Snapshot) {
	gs.Health = snap.Health
	gs.Spirit = snap.Spirit
	gs.Supply = snap.Supply
	gs.Momentum = snap.Momentum
	gs.ChaosFactor = snap.ChaosFactor
	gs.CrisisMode = snap.CrisisMode
	gs.GameOver = snap.GameOver
	for id, bond := range snap.NPCBonds {
		if n, ok := gs.NPCs[id]; ok {
			n.Bond = bond
		}
	}
	for id, filled := range snap.ClockFills {
		if c, ok := gs.Clocks[id]; ok {
			c.Filled = filled
		}
	}
}

// DropCurrentSceneMemories removes observations stamped with the
// current scene from every NPC, so a burn re-narration does not leave
// memories of the un-burned outcome behind.
func (gs *GameState) DropCurrentSceneMemories() {
	for _, n := range gs.NPCs {
		kept := n.Memory[:0]
		for _, m := range n.Memory {
			if m.Scene != nil && *m.Scene == gs.SceneCount {
				continue
			}
			kept = append(kept, m)
		}
		n.Memory = kept
	}
}
