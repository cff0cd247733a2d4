package dice

import "github.com/averyhale/saga-engine/pkg/state"

// Interrupt is an unscripted scene disruption injected into the prompt.
type Interrupt struct {
	Type     string `json:"type"`
	Guidance string `json:"guidance"`
}

// interruptCatalog pairs each disruption archetype with the directive
// the narrator receives.
var interruptCatalog = []Interrupt{
	{"npc_unexpected", "Someone arrives or acts when least expected. Pick an NPC with reason to be here and have them appear mid-scene."},
	{"threat_escalation", "An existing danger gets suddenly worse. Escalate a known threat in a way the player cannot ignore."},
	{"twist", "Something believed true turns out not to be. Reveal through events, not exposition."},
	{"discovery", "The player stumbles onto something significant: an object, a place, a trace of what happened here."},
	{"environment_shift", "The setting itself changes: weather, collapse, fire, sudden dark. The space stops cooperating."},
	{"remote_event", "Something important happens elsewhere and word of it arrives now: a signal, a messenger, smoke on the horizon."},
	{"positive_windfall", "Fortune briefly favors the player: unexpected help, a found resource, a door left open."},
	{"callback", "A past choice resurfaces. Pull a thread from an earlier scene back into play."},
	{"dilemma", "Force a choice between two things the player cares about. Neither option should be clean."},
	{"ticking_clock", "Introduce or sharpen a time limit. Whatever the player is doing, it now needs doing fast."},
}

// CheckInterrupt rolls the chaos die: a d10 at or under chaos-3 fires
// an interrupt, consuming one chaos point and selecting a random
// archetype from the catalog.
func CheckInterrupt(r Roller, gs *state.GameState) *Interrupt {
	threshold := gs.ChaosFactor - 3
	if threshold <= 0 {
		return nil
	}
	if r.D10() > threshold {
		return nil
	}
	gs.AdjustChaos(-1)
	in := interruptCatalog[r.IntN(len(interruptCatalog))]
	return &in
}
