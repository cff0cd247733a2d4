package npc

import (
	"strings"
	"unicode"
)

const (
	// Memory caps. Consolidation enforces these; see memory.go.
	MaxMemoryEntries = 25
	MaxObservations  = 15
	MaxReflections   = 8

	// Importance accumulated across observations before an NPC is
	// flagged for a director reflection.
	ReflectionThreshold = 30

	MaxBond     = 4
	MaxKeywords = 20
)

const (
	StatusActive     = "active"
	StatusBackground = "background"
)

const (
	MemoryObservation = "observation"
	MemoryReflection  = "reflection"
)

// Memory is a single thing an NPC remembers about the story.
// Reflections are synthesized by the director pass and carry no scene
// number; observations are raw per-turn events.
type Memory struct {
	Scene           *int   `json:"scene"`
	Event           string `json:"event"`
	EmotionalWeight string `json:"emotional_weight,omitempty"`
	Importance      int    `json:"importance"`
	Type            string `json:"type"`
}

// NPC is one character in the roster. The game state owns all NPCs;
// there is no sharing across save slots.
type NPC struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases"`
	Description string   `json:"description,omitempty"`
	Agenda      string   `json:"agenda,omitempty"`
	Instinct    string   `json:"instinct,omitempty"`
	Secrets     string   `json:"secrets,omitempty"`
	Disposition string   `json:"disposition"`
	Bond        int      `json:"bond"`
	Status      string   `json:"status"`
	Introduced  bool     `json:"introduced"`
	Memory      []Memory `json:"memory"`
	Keywords    []string `json:"keywords,omitempty"`

	// ImportanceAccum totals observation importance since the last
	// reflection. Crossing ReflectionThreshold flags the NPC for the
	// next director pass.
	ImportanceAccum     int `json:"importance_accum"`
	LastReflectionScene int `json:"last_reflection_scene,omitempty"`

	// NeedsReflection is session-scoped and never persisted.
	NeedsReflection bool `json:"-"`
}

// New creates an active, not-yet-introduced NPC and derives its keywords.
func New(id, name string) *NPC {
	n := &NPC{
		ID:          id,
		Name:        name,
		Aliases:     []string{},
		Disposition: DispositionNeutral,
		Status:      StatusActive,
		Memory:      []Memory{},
	}
	n.GenerateKeywords()
	return n
}

// IDFromName derives a stable roster id from a display name.
func IDFromName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '\'':
			b.WriteRune('_')
		}
	}
	id := strings.Trim(b.String(), "_")
	if id == "" {
		id = "npc"
	}
	return id
}

// GenerateKeywords derives the mention-detection keyword list from the
// NPC's name, aliases, description and agenda. Keywords feed activation
// scoring only; they are never displayed.
func (n *NPC) GenerateKeywords() {
	seen := make(map[string]bool)
	var kws []string
	add := func(w string) {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] || len(kws) >= MaxKeywords {
			return
		}
		seen[w] = true
		kws = append(kws, w)
	}

	for _, part := range strings.Fields(n.Name) {
		if len(part) >= 3 {
			add(part)
		}
	}
	add(n.Name)
	for _, alias := range n.Aliases {
		add(alias)
		for _, part := range strings.Fields(alias) {
			if len(part) >= 3 {
				add(part)
			}
		}
	}

	// Capitalized description words tend to be proper nouns tied to
	// the character (places, factions, titles).
	for _, w := range strings.Fields(n.Description) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) >= 4 && w[0] >= 'A' && w[0] <= 'Z' {
			add(w)
		}
	}
	for _, w := range strings.Fields(n.Agenda) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) >= 5 {
			add(w)
		}
	}

	n.Keywords = kws
}

// LastMemoryScene returns the most recent observation scene, or -1 when
// the NPC has no scene-stamped memories.
func (n *NPC) LastMemoryScene() int {
	last := -1
	for _, m := range n.Memory {
		if m.Scene != nil && *m.Scene > last {
			last = *m.Scene
		}
	}
	return last
}

// HasRecentMemory reports whether the NPC remembers anything from the
// last two scenes.
func (n *NPC) HasRecentMemory(currentScene int) bool {
	for _, m := range n.Memory {
		if m.Scene != nil && *m.Scene >= currentScene-2 {
			return true
		}
	}
	return false
}
