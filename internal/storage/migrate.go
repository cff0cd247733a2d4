package storage

import (
	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/state"
)

// Migrate upgrades a loaded save in place to the current schema. Older
// saves predate several fields; every rule here is idempotent so
// migrating a current save is a no-op.
func Migrate(gs *state.GameState) {
	if gs.NPCs == nil {
		gs.NPCs = npc.Roster{}
	}
	if gs.Clocks == nil {
		gs.Clocks = map[string]*state.Clock{}
	}
	if gs.LocationHistory == nil {
		gs.LocationHistory = []string{}
	}
	if gs.SessionLog == nil {
		gs.SessionLog = []state.SessionLogEntry{}
	}
	if gs.NarrationHistory == nil {
		gs.NarrationHistory = []state.NarrationEntry{}
	}
	if gs.IntensityHistory == nil {
		gs.IntensityHistory = []string{}
	}
	if gs.CampaignHistory == nil {
		gs.CampaignHistory = []state.ChapterRecord{}
	}

	for _, n := range gs.NPCs {
		n.Disposition = npc.NormalizeDisposition(n.Disposition)
		if n.Aliases == nil {
			n.Aliases = []string{}
		}
		if n.Memory == nil {
			n.Memory = []npc.Memory{}
		}
		// Saves written before the introduction flag existed hold
		// established characters.
		if !n.Introduced && len(n.Memory) > 0 {
			n.Introduced = true
		}
		switch n.Status {
		case npc.StatusActive, npc.StatusBackground:
		case "inactive":
			n.Status = npc.StatusBackground
		default:
			n.Status = npc.StatusActive
		}
		for i := range n.Memory {
			if n.Memory[i].Type == "" {
				n.Memory[i].Type = npc.MemoryObservation
			}
			if n.Memory[i].Importance == 0 {
				n.Memory[i].Importance = 3
			}
		}
		// Reflection flags are session-scoped and never persist.
		n.NeedsReflection = false
	}
}
