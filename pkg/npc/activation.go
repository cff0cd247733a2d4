package npc

import (
	"sort"
	"strings"
)

const (
	// Activation gives an NPC full prompt context; mention gives name
	// and disposition only.
	ActivationThreshold = 0.7
	MentionThreshold    = 0.3
	MaxActivated        = 3
)

// ActivationInput carries everything the scorer scans for NPC relevance
// on one turn.
type ActivationInput struct {
	TargetID     string
	ScanText     string // player input + classifier intent + scene context + recent summaries
	Location     string
	CurrentScene int
}

// ActivationResult partitions the roster into full-context and
// name-only tiers for the prompt builder.
type ActivationResult struct {
	Activated []*NPC
	Mentioned []*NPC
}

// ActivateForPrompt scores every active and background NPC against the
// turn's scan text and returns the activation tiers. Background NPCs
// crossing the activation threshold are reactivated. At most
// MaxActivated NPCs get full context; the explicit target always keeps
// its slot and overflow is demoted to mentioned, lowest bond first.
func (r Roster) ActivateForPrompt(in ActivationInput) ActivationResult {
	scan := strings.ToLower(in.ScanText)
	location := strings.ToLower(strings.TrimSpace(in.Location))

	var activated, mentioned []*NPC
	for _, id := range r.SortedIDs() {
		n := r[id]
		if n.Status != StatusActive && n.Status != StatusBackground {
			continue
		}
		score := r.activationScore(n, id == in.TargetID, scan, location, in.CurrentScene)
		switch {
		case score >= ActivationThreshold:
			if n.Status == StatusBackground {
				n.Status = StatusActive
			}
			activated = append(activated, n)
		case score >= MentionThreshold:
			mentioned = append(mentioned, n)
		}
	}

	if len(activated) > MaxActivated {
		activated, mentioned = capActivated(activated, mentioned, in.TargetID)
	}

	if secondary := r.secondaryActivation(activated, mentioned); secondary != nil {
		if secondary.Status == StatusBackground {
			secondary.Status = StatusActive
		}
		activated = append(activated, secondary)
	}

	return ActivationResult{Activated: activated, Mentioned: mentioned}
}

func (r Roster) activationScore(n *NPC, isTarget bool, scan, location string, currentScene int) float64 {
	score := 0.0
	if isTarget {
		score += 1.0
	}

	name := strings.ToLower(n.Name)
	if name != "" && strings.Contains(scan, name) {
		score += 0.8
	} else {
		for _, part := range strings.Fields(name) {
			if len(part) >= 4 && strings.Contains(scan, part) {
				score += 0.6
				break
			}
		}
	}

	for _, alias := range n.Aliases {
		a := strings.ToLower(alias)
		if a != "" && strings.Contains(scan, a) {
			score += 0.7
			break
		}
	}

	kwHits := 0
	for _, kw := range n.Keywords {
		if strings.Contains(scan, kw) {
			kwHits++
		}
	}
	kwScore := float64(kwHits) * 0.15
	if kwScore > 0.4 {
		kwScore = 0.4
	}
	score += kwScore

	if location != "" {
		if strings.Contains(strings.ToLower(n.Description), location) ||
			strings.Contains(strings.ToLower(n.Agenda), location) {
			score += 0.3
		}
	}

	if n.HasRecentMemory(currentScene) {
		score += 0.2
	}
	return score
}

// capActivated trims the activated tier to MaxActivated, keeping the
// explicit target and then the strongest bonds.
func capActivated(activated, mentioned []*NPC, targetID string) ([]*NPC, []*NPC) {
	sort.SliceStable(activated, func(i, j int) bool {
		if (activated[i].ID == targetID) != (activated[j].ID == targetID) {
			return activated[i].ID == targetID
		}
		return activated[i].Bond > activated[j].Bond
	})
	for _, n := range activated[MaxActivated:] {
		mentioned = append(mentioned, n)
	}
	return activated[:MaxActivated], mentioned
}

// secondaryActivation pulls in at most one extra NPC whose name appears
// in an activated NPC's secrets or agenda. A confidant's hidden agenda
// can drag the person they are plotting about on stage.
func (r Roster) secondaryActivation(activated, mentioned []*NPC) *NPC {
	included := make(map[string]bool)
	for _, n := range activated {
		included[n.ID] = true
	}
	for _, n := range mentioned {
		included[n.ID] = true
	}

	for _, a := range activated {
		hidden := strings.ToLower(a.Secrets + " " + a.Agenda)
		if strings.TrimSpace(hidden) == "" {
			continue
		}
		for _, id := range r.SortedIDs() {
			candidate := r[id]
			if included[id] || candidate == a {
				continue
			}
			name := strings.ToLower(candidate.Name)
			if len(name) >= 3 && strings.Contains(hidden, name) {
				return candidate
			}
		}
	}
	return nil
}
