package npc

import (
	"sort"
	"strings"
)

// Active-roster soft cap. Excess NPCs are demoted to background to keep
// prompt context bounded.
const MaxActiveNPCs = 12

// Roster holds every NPC the story knows about, keyed by id.
type Roster map[string]*NPC

// SortedIDs returns the roster ids in stable order.
func (r Roster) SortedIDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Active returns all NPCs with active status.
func (r Roster) Active() []*NPC {
	var out []*NPC
	for _, id := range r.SortedIDs() {
		if r[id].Status == StatusActive {
			out = append(out, r[id])
		}
	}
	return out
}

// Find resolves a loose reference (id, name, alias, or partial name) to
// an NPC. Resolution order: exact id, exact case-insensitive name, exact
// case-insensitive alias, then substring fuzzy fallback for references
// of at least four characters. Returns nil when nothing matches.
func (r Roster) Find(ref string) *NPC {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if n, ok := r[ref]; ok {
		return n
	}

	lower := strings.ToLower(ref)
	for _, id := range r.SortedIDs() {
		if strings.ToLower(r[id].Name) == lower {
			return r[id]
		}
	}
	for _, id := range r.SortedIDs() {
		for _, alias := range r[id].Aliases {
			if strings.ToLower(alias) == lower {
				return r[id]
			}
		}
	}

	if len(lower) < 4 {
		return nil
	}
	var best *NPC
	bestScore := 0
	consider := func(candidate string, n *NPC) {
		c := strings.ToLower(candidate)
		if c == "" {
			return
		}
		if strings.Contains(c, lower) || strings.Contains(lower, c) {
			score := len(c)
			if len(lower) < score {
				score = len(lower)
			}
			if score > bestScore {
				bestScore = score
				best = n
			}
		}
	}
	for _, id := range r.SortedIDs() {
		n := r[id]
		consider(n.Name, n)
		for _, alias := range n.Aliases {
			consider(alias, n)
		}
	}
	return best
}

// FuzzyMatchExisting decides whether a "new" NPC name coming out of
// narration is really an existing roster member under a different
// surface form. Exact alias equality matches immediately; otherwise
// substring containment and significant-word overlap are scored and the
// best candidate wins. Returns nil when the name looks genuinely new.
func (r Roster) FuzzyMatchExisting(name string) *NPC {
	lower := strings.ToLower(strings.TrimSpace(name))
	if len(lower) < 3 {
		return nil
	}

	var best *NPC
	bestScore := 0
	for _, id := range r.SortedIDs() {
		n := r[id]

		for _, alias := range n.Aliases {
			if strings.ToLower(alias) == lower {
				return n
			}
		}

		score := 0
		existing := strings.ToLower(n.Name)
		if len(existing) >= 3 && (strings.Contains(existing, lower) || strings.Contains(lower, existing)) {
			score = len(existing)
			if len(lower) < score {
				score = len(lower)
			}
		}

		overlap := wordOverlapScore(lower, existing)
		for _, alias := range n.Aliases {
			if s := wordOverlapScore(lower, strings.ToLower(alias)); s > overlap {
				overlap = s
			}
		}
		if overlap > score {
			score = overlap
		}

		if score >= 4 && score > bestScore {
			bestScore = score
			best = n
		}
	}
	return best
}

// wordOverlapScore sums the lengths of significant (3+ char) words the
// two names share.
func wordOverlapScore(a, b string) int {
	aw := significantWords(a, 3)
	score := 0
	for _, w := range strings.Fields(b) {
		w = strings.Trim(w, ".,;:!?\"'")
		if len(w) >= 3 && aw[w] {
			score += len(w)
		}
	}
	return score
}

// Merge records an identity reveal: newName becomes the primary display
// name and the prior name survives as an alias. Background NPCs
// reactivate, since a reveal means they are back on stage.
func (n *NPC) Merge(newName string) {
	newName = strings.TrimSpace(newName)
	if newName == "" || strings.EqualFold(newName, n.Name) {
		return
	}
	hasAlias := false
	for _, a := range n.Aliases {
		if strings.EqualFold(a, n.Name) {
			hasAlias = true
			break
		}
	}
	if !hasAlias {
		n.Aliases = append(n.Aliases, n.Name)
	}
	filtered := n.Aliases[:0]
	for _, a := range n.Aliases {
		if !strings.EqualFold(a, newName) {
			filtered = append(filtered, a)
		}
	}
	n.Aliases = filtered
	n.Name = newName
	if n.Status == StatusBackground {
		n.Status = StatusActive
	}
	n.GenerateKeywords()
}

// CreateStub adds a minimal NPC for a memory update that references a
// character the roster has never seen. Losing the memory silently would
// be worse than carrying a slightly redundant entry.
func (r Roster) CreateStub(name string) *NPC {
	id := IDFromName(name)
	if existing, ok := r[id]; ok {
		return existing
	}
	n := New(id, strings.TrimSpace(name))
	n.Description = "Mentioned in the story."
	r[id] = n
	return n
}

// RetireDistant demotes the least relevant active NPCs to background
// once the active roster exceeds the cap. Relevance favors recent
// memories and strong bonds; NPCs with no memories yet, or touched this
// scene, are protected so a just-introduced character is never demoted.
func (r Roster) RetireDistant(currentScene int) []*NPC {
	active := r.Active()
	if len(active) <= MaxActiveNPCs {
		return nil
	}

	type rated struct {
		n     *NPC
		score int
	}
	scores := make([]rated, 0, len(active))
	for _, n := range active {
		last := n.LastMemoryScene()
		score := 3 * n.Bond
		if last >= 0 {
			score += last
		}
		if len(n.Memory) == 0 || last >= currentScene {
			score += 1000
		}
		scores = append(scores, rated{n, score})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score < scores[j].score })

	excess := len(active) - MaxActiveNPCs
	demoted := make([]*NPC, 0, excess)
	for _, rt := range scores[:excess] {
		rt.n.Status = StatusBackground
		demoted = append(demoted, rt.n)
	}
	return demoted
}

// CollapseMemories reduces an NPC's memory to its most impactful entries
// for a chapter transition, ranked by importance with recency as the
// tiebreaker, then re-sorted chronologically.
func (n *NPC) CollapseMemories(keep int) {
	if len(n.Memory) <= keep {
		return
	}
	ranked := make([]Memory, len(n.Memory))
	copy(ranked, n.Memory)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Importance != ranked[j].Importance {
			return ranked[i].Importance > ranked[j].Importance
		}
		return sceneOf(ranked[i]) > sceneOf(ranked[j])
	})
	kept := ranked[:keep]
	sort.SliceStable(kept, func(i, j int) bool { return sceneOf(kept[i]) < sceneOf(kept[j]) })
	n.Memory = kept
	n.Consolidate()
}

// FlaggedForReflection lists the ids of NPCs whose accumulated
// importance has crossed the reflection threshold, sorted for
// determinism.
func (r Roster) FlaggedForReflection() []string {
	var ids []string
	for _, id := range r.SortedIDs() {
		if r[id].NeedsReflection {
			ids = append(ids, id)
		}
	}
	return ids
}
