package npc

import (
	"math"
	"sort"
	"strings"
)

const (
	// Weighted memory-ranking mix. Higher recency, importance, or
	// context relevance all push a memory toward retrieval.
	recencyWeight    = 0.40
	importanceWeight = 0.35
	relevanceWeight  = 0.25

	recencyDecay    = 0.92
	reflectionFloor = 0.6
)

// importanceByWeight maps the narrator's emotional-weight tags onto a
// 1-10 importance scale.
var importanceByWeight = map[string]int{
	"neutral":     2,
	"curious":     3,
	"amused":      3,
	"wary":        4,
	"impressed":   5,
	"angry":       5,
	"grateful":    6,
	"afraid":      6,
	"protective":  7,
	"betrayed":    9,
	"devoted":     9,
	"transformed": 10,
	"sacrificial": 10,
	"reborn":      10,
}

// importanceBoosts bumps importance when the event text carries words
// signalling life-or-death stakes, revealed secrets, or meaningful aid.
var importanceBoosts = []struct {
	level int
	words []string
}{
	{7, []string{"saved", "death", "killed", "died", "life", "murder", "sacrifice"}},
	{5, []string{"secret", "revealed", "betrayed", "trust", "oath", "sworn", "love"}},
	{3, []string{"gift", "helped", "fought", "protected", "warned", "lied"}},
}

// ScoreImportance rates a memory event 1-10 from its emotional weight
// and any high-stakes words in the event text.
func ScoreImportance(event, emotionalWeight string) int {
	importance := 3
	if v, ok := importanceByWeight[strings.ToLower(strings.TrimSpace(emotionalWeight))]; ok {
		importance = v
	}
	lower := strings.ToLower(event)
	for _, tier := range importanceBoosts {
		for _, w := range tier.words {
			if strings.Contains(lower, w) {
				if tier.level > importance {
					importance = tier.level
				}
				break
			}
		}
	}
	if importance > 10 {
		importance = 10
	}
	return importance
}

// AddObservation appends a scene-stamped observation, accumulates its
// importance toward the reflection threshold, and consolidates if the
// memory cap was crossed. Returns the scored importance.
func (n *NPC) AddObservation(scene int, event, emotionalWeight string) int {
	importance := ScoreImportance(event, emotionalWeight)
	s := scene
	n.Memory = append(n.Memory, Memory{
		Scene:           &s,
		Event:           event,
		EmotionalWeight: emotionalWeight,
		Importance:      importance,
		Type:            MemoryObservation,
	})
	n.ImportanceAccum += importance
	if n.ImportanceAccum >= ReflectionThreshold {
		n.NeedsReflection = true
	}
	n.Consolidate()
	return importance
}

// AddReflection appends a timeless director-synthesized reflection and
// clears the reflection bookkeeping.
func (n *NPC) AddReflection(insight string, currentScene int) {
	n.Memory = append(n.Memory, Memory{
		Scene:      nil,
		Event:      insight,
		Importance: 8,
		Type:       MemoryReflection,
	})
	n.NeedsReflection = false
	n.ImportanceAccum = 0
	n.LastReflectionScene = currentScene
	n.Consolidate()
}

// Consolidate trims memory back under the caps. All reflections survive
// up to their sub-cap (newest first); the remaining budget goes to
// observations, favoring recent scenes first and high importance second,
// with the kept observations re-sorted chronologically.
func (n *NPC) Consolidate() {
	if len(n.Memory) <= MaxMemoryEntries {
		return
	}

	var reflections, observations []Memory
	for _, m := range n.Memory {
		if m.Type == MemoryReflection {
			reflections = append(reflections, m)
		} else {
			observations = append(observations, m)
		}
	}
	if len(reflections) > MaxReflections {
		reflections = reflections[len(reflections)-MaxReflections:]
	}

	budget := MaxMemoryEntries - len(reflections)
	if budget > MaxObservations {
		budget = MaxObservations
	}
	if len(observations) > budget {
		observations = selectObservations(observations, budget)
	}

	n.Memory = append(observations, reflections...)
}

// selectObservations keeps `budget` observations: roughly 60% by
// recency, the rest by importance, deduplicated, chronological order.
func selectObservations(observations []Memory, budget int) []Memory {
	recencyBudget := budget * 60 / 100
	if recencyBudget < 3 {
		recencyBudget = 3
	}
	if recencyBudget > budget {
		recencyBudget = budget
	}

	byScene := make([]Memory, len(observations))
	copy(byScene, observations)
	sort.SliceStable(byScene, func(i, j int) bool {
		return sceneOf(byScene[i]) > sceneOf(byScene[j])
	})

	kept := make([]Memory, 0, budget)
	seen := make(map[string]bool)
	for _, m := range byScene[:recencyBudget] {
		kept = append(kept, m)
		seen[m.Event] = true
	}

	byImportance := make([]Memory, len(observations))
	copy(byImportance, observations)
	sort.SliceStable(byImportance, func(i, j int) bool {
		return byImportance[i].Importance > byImportance[j].Importance
	})
	for _, m := range byImportance {
		if len(kept) >= budget {
			break
		}
		if !seen[m.Event] {
			kept = append(kept, m)
			seen[m.Event] = true
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return sceneOf(kept[i]) < sceneOf(kept[j])
	})
	return kept
}

func sceneOf(m Memory) int {
	if m.Scene == nil {
		return 0
	}
	return *m.Scene
}

// RetrieveMemories ranks the NPC's memories against the current scene
// context and returns the top maxCount. At least one reflection is
// guaranteed a slot whenever the NPC has any.
func (n *NPC) RetrieveMemories(contextText string, maxCount, currentScene int) []Memory {
	if len(n.Memory) == 0 || maxCount <= 0 {
		return nil
	}
	if len(n.Memory) <= maxCount {
		out := make([]Memory, len(n.Memory))
		copy(out, n.Memory)
		return out
	}

	contextWords := significantWords(contextText, 3)
	type scored struct {
		m     Memory
		score float64
	}
	ranked := make([]scored, 0, len(n.Memory))
	for _, m := range n.Memory {
		var recency float64
		if m.Type == MemoryReflection {
			recency = reflectionFloor
			if m.Scene != nil {
				if r := math.Pow(recencyDecay, float64(currentScene-*m.Scene)); r > recency {
					recency = r
				}
			}
		} else {
			gap := 0
			if m.Scene != nil {
				gap = currentScene - *m.Scene
				if gap < 0 {
					gap = 0
				}
			}
			recency = math.Pow(recencyDecay, float64(gap))
		}

		importance := float64(m.Importance) / 10.0
		if importance > 1 {
			importance = 1
		}

		relevance := memoryRelevance(m, n.Keywords, contextWords)
		ranked = append(ranked, scored{m, recencyWeight*recency + importanceWeight*importance + relevanceWeight*relevance})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	top := ranked[:maxCount]

	hasReflection := false
	for _, s := range top {
		if s.m.Type == MemoryReflection {
			hasReflection = true
			break
		}
	}
	if !hasReflection {
		var best *Memory
		for i := range n.Memory {
			m := &n.Memory[i]
			if m.Type == MemoryReflection && (best == nil || m.Importance > best.Importance) {
				best = m
			}
		}
		if best != nil {
			top[len(top)-1] = scored{*best, 0}
		}
	}

	out := make([]Memory, 0, len(top))
	for _, s := range top {
		out = append(out, s.m)
	}
	return out
}

func memoryRelevance(m Memory, keywords []string, contextWords map[string]bool) float64 {
	if len(contextWords) == 0 {
		return 0
	}
	memWords := significantWords(m.Event, 3)
	for _, kw := range keywords {
		memWords[kw] = true
	}
	overlap := 0
	for w := range contextWords {
		if memWords[w] {
			overlap++
		}
	}
	denom := len(contextWords)
	if denom < 3 {
		denom = 3
	}
	rel := float64(overlap) / float64(denom) * 2
	if rel > 1 {
		rel = 1
	}
	return rel
}

func significantWords(text string, minLen int) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?\"'()[]{}")
		if len(w) >= minLen {
			words[w] = true
		}
	}
	return words
}
