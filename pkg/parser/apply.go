package parser

import (
	"strings"

	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/state"
)

// NPCPayload is the narrator's declared shape for a new or updated NPC.
type NPCPayload struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description,omitempty"`
	Agenda      string   `json:"agenda,omitempty"`
	Instinct    string   `json:"instinct,omitempty"`
	Secrets     string   `json:"secrets,omitempty"`
	Disposition string   `json:"disposition,omitempty"`
	Bond        int      `json:"bond,omitempty"`
}

// ClockPayload is the narrator's declared shape for a clock.
type ClockPayload struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Segments int    `json:"segments,omitempty"`
	Filled   int    `json:"filled,omitempty"`
	Trigger  string `json:"trigger,omitempty"`
	Owner    string `json:"owner,omitempty"`
}

// GameDataPayload is the full opening/chapter-opening structured block.
type GameDataPayload struct {
	NPCs         []NPCPayload   `json:"npcs"`
	Clocks       []ClockPayload `json:"clocks,omitempty"`
	Location     string         `json:"location,omitempty"`
	TimeOfDay    string         `json:"time_of_day,omitempty"`
	SceneContext string         `json:"scene_context,omitempty"`
}

// RenamePayload declares an identity reveal.
type RenamePayload struct {
	NPCID   string `json:"npc_id"`
	NewName string `json:"new_name"`
}

// MemoryPayload declares one NPC memory event.
type MemoryPayload struct {
	NPCID           string `json:"npc_id"`
	Event           string `json:"event"`
	EmotionalWeight string `json:"emotional_weight,omitempty"`
}

// applyGameData installs a structured payload. On the first scene of a
// chapter the payload replaces the roster; on any later scene the same
// shape is a likely hallucination and only merges, protecting
// established state.
func (p *Parser) applyGameData(gs *state.GameState, gd *GameDataPayload) {
	replace := gs.SceneCount <= 1
	if replace {
		gs.NPCs = npc.Roster{}
		gs.Clocks = map[string]*state.Clock{}
	}

	for _, np := range gd.NPCs {
		p.applyNPCPayload(gs, np, !replace)
	}
	for _, cp := range gd.Clocks {
		p.applyClockPayload(gs, cp, !replace)
	}
	if gd.Location != "" {
		gs.SetLocation(gd.Location)
	}
	if gd.TimeOfDay != "" {
		gs.SetTimeOfDay(gd.TimeOfDay)
	}
	if gd.SceneContext != "" {
		gs.SceneContext = gd.SceneContext
	}
	gs.NPCs.RetireDistant(gs.SceneCount)
}

// applyNPCPayload adds one declared NPC, merging with a fuzzy-matched
// existing entry rather than creating a near-duplicate.
func (p *Parser) applyNPCPayload(gs *state.GameState, np NPCPayload, mergeOnly bool) {
	name := strings.TrimSpace(np.Name)
	if name == "" {
		return
	}

	var existing *npc.NPC
	if np.ID != "" {
		existing = gs.NPCs[np.ID]
	}
	if existing == nil {
		existing = gs.NPCs.Find(name)
	}
	if existing == nil {
		existing = gs.NPCs.FuzzyMatchExisting(name)
		if existing != nil {
			p.logger.Debug("new NPC resolved to existing roster member",
				"declared", name, "existing", existing.Name)
			existing.Merge(name)
		}
	}

	if existing != nil {
		if np.Description != "" {
			existing.Description = np.Description
		}
		if np.Agenda != "" {
			existing.Agenda = np.Agenda
		}
		if np.Instinct != "" {
			existing.Instinct = np.Instinct
		}
		if np.Secrets != "" {
			existing.Secrets = np.Secrets
		}
		if np.Disposition != "" {
			existing.Disposition = npc.NormalizeDisposition(np.Disposition)
		}
		if existing.Status == npc.StatusBackground {
			existing.Status = npc.StatusActive
		}
		existing.GenerateKeywords()
		return
	}

	id := np.ID
	if id == "" {
		id = npc.IDFromName(name)
	}
	n := npc.New(id, name)
	n.Aliases = append(n.Aliases, np.Aliases...)
	n.Description = np.Description
	n.Agenda = np.Agenda
	n.Instinct = np.Instinct
	n.Secrets = np.Secrets
	n.Disposition = npc.NormalizeDisposition(np.Disposition)
	if np.Bond > 0 && np.Bond <= npc.MaxBond {
		n.Bond = np.Bond
	}
	n.GenerateKeywords()
	gs.NPCs[id] = n
	p.newNPCIDs = append(p.newNPCIDs, id)
	if !mergeOnly {
		n.Introduced = true
	}
}

func (p *Parser) applyClockPayload(gs *state.GameState, cp ClockPayload, mergeOnly bool) {
	name := strings.TrimSpace(cp.Name)
	if name == "" {
		return
	}
	id := cp.ID
	if id == "" {
		id = npc.IDFromName(name)
	}
	if existing, ok := gs.Clocks[id]; ok {
		if mergeOnly {
			return
		}
		existing.Filled = cp.Filled
		return
	}
	segments := cp.Segments
	if segments <= 0 {
		segments = 4
	}
	ctype := cp.Type
	if ctype == "" {
		ctype = state.ClockTypeThreat
	}
	owner := cp.Owner
	if owner == "" {
		owner = state.ClockOwnerWorld
	}
	filled := cp.Filled
	if filled < 0 {
		filled = 0
	}
	if filled > segments {
		filled = segments
	}
	gs.Clocks[id] = &state.Clock{
		ID: id, Name: name, Type: ctype,
		Segments: segments, Filled: filled,
		Trigger: cp.Trigger, Owner: owner,
	}
}

// applyRename records an identity reveal: the referenced NPC keeps its
// history and gains the new primary name.
func (p *Parser) applyRename(gs *state.GameState, rn RenamePayload) {
	if rn.NPCID == "" || strings.TrimSpace(rn.NewName) == "" {
		return
	}
	n := gs.NPCs.Find(rn.NPCID)
	if n == nil {
		p.logger.Debug("rename references unknown NPC", "ref", rn.NPCID)
		return
	}
	n.Merge(rn.NewName)
}

// nonNPCRefs are memory-update references that never become NPC stubs.
var nonNPCRefs = map[string]bool{
	"world": true, "player": true, "none": true, "narrator": true,
}

// applyMemoryUpdate attaches an observation to the referenced NPC,
// resolving the reference through lookup, fuzzy identity matching, and
// finally stub creation. Dropping the memory silently would be worse
// than carrying a redundant NPC.
func (p *Parser) applyMemoryUpdate(gs *state.GameState, upd MemoryPayload) {
	ref := strings.TrimSpace(upd.NPCID)
	event := strings.TrimSpace(upd.Event)
	if ref == "" || event == "" {
		return
	}
	if nonNPCRefs[strings.ToLower(ref)] || strings.EqualFold(ref, gs.PlayerName) {
		return
	}

	n := gs.NPCs.Find(ref)
	if n == nil {
		n = gs.NPCs.FuzzyMatchExisting(ref)
	}
	if n == nil {
		n = gs.NPCs.CreateStub(ref)
		p.newNPCIDs = append(p.newNPCIDs, n.ID)
		p.logger.Debug("memory update created NPC stub", "ref", ref)
	}
	if n.Status == npc.StatusBackground {
		n.Status = npc.StatusActive
	}
	n.AddObservation(gs.SceneCount, event, upd.EmotionalWeight)
	p.memoryUpdates++
}
