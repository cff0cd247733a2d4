package story

import "strings"

const (
	StructureThreeAct      = "3act"
	StructureKishotenketsu = "kishotenketsu"
)

// Act is one phase of the story arc with a soft scene range.
type Act struct {
	Phase      string `json:"phase"`
	Goal       string `json:"goal"`
	SceneStart int    `json:"scene_start"`
	SceneEnd   int    `json:"scene_end"`
	Mood       string `json:"mood,omitempty"`
}

// Revelation is a plot beat gated behind an earliest-eligible scene.
type Revelation struct {
	Text          string `json:"text"`
	EarliestScene int    `json:"earliest_scene"`
	Revealed      bool   `json:"revealed"`
}

// Blueprint is the structured multi-act arc used as soft guidance for
// the narrator, never a script.
type Blueprint struct {
	Structure       string       `json:"structure"`
	CentralConflict string       `json:"central_conflict"`
	Acts            []Act        `json:"acts"`
	Revelations     []Revelation `json:"revelations"`
	PossibleEndings []string     `json:"possible_endings,omitempty"`
	StoryComplete   bool         `json:"story_complete"`
}

// ActPosition describes where the scene counter sits within the arc.
type ActPosition struct {
	ActNumber      int    // 1-based
	Phase          string
	Goal           string
	Mood           string
	Progress       string // early, mid, late
	ApproachingEnd bool
}

// kishotenketsuOdds is the probability of choosing the four-act
// structure over three-act, keyed by story tone.
var kishotenketsuOdds = map[string]float64{
	"mystery":       0.70,
	"slice_of_life": 0.40,
	"action":        0.15,
}

const defaultKishotenketsuOdds = 0.50

// ChooseStructure picks an arc structure for the given tone. The roll
// argument is a uniform [0,1) draw supplied by the caller so the choice
// is testable.
func ChooseStructure(tone string, roll float64) string {
	odds, ok := kishotenketsuOdds[strings.ToLower(strings.TrimSpace(tone))]
	if !ok {
		odds = defaultKishotenketsuOdds
	}
	if roll < odds {
		return StructureKishotenketsu
	}
	return StructureThreeAct
}

// CurrentAct locates the scene counter within the acts and derives the
// early/mid/late progress and whether the story is approaching its end.
func (b *Blueprint) CurrentAct(sceneCount int) ActPosition {
	if len(b.Acts) == 0 {
		return ActPosition{ActNumber: 1, Progress: "early"}
	}

	idx := len(b.Acts) - 1
	for i, act := range b.Acts {
		if sceneCount <= act.SceneEnd {
			idx = i
			break
		}
	}
	act := b.Acts[idx]

	span := act.SceneEnd - act.SceneStart + 1
	if span < 1 {
		span = 1
	}
	into := sceneCount - act.SceneStart
	if into < 0 {
		into = 0
	}
	frac := float64(into) / float64(span)
	progress := "early"
	switch {
	case frac >= 0.7:
		progress = "late"
	case frac >= 0.3:
		progress = "mid"
	}

	final := idx == len(b.Acts)-1
	return ActPosition{
		ActNumber:      idx + 1,
		Phase:          act.Phase,
		Goal:           act.Goal,
		Mood:           act.Mood,
		Progress:       progress,
		ApproachingEnd: final && progress != "early",
	}
}

// PendingRevelation returns the first unrevealed revelation whose
// earliest scene has arrived, or nil.
func (b *Blueprint) PendingRevelation(sceneCount int) *Revelation {
	for i := range b.Revelations {
		r := &b.Revelations[i]
		if !r.Revealed && sceneCount >= r.EarliestScene {
			return r
		}
	}
	return nil
}

// CheckComplete marks the blueprint complete once the scene counter
// passes the final act's range. Returns true on the transition.
func (b *Blueprint) CheckComplete(sceneCount int) bool {
	if b.StoryComplete || len(b.Acts) == 0 {
		return false
	}
	if sceneCount >= b.Acts[len(b.Acts)-1].SceneEnd {
		b.StoryComplete = true
		return true
	}
	return false
}

// FallbackBlueprint returns a serviceable hardcoded arc for when the
// architect call fails. The story must remain playable without it.
func FallbackBlueprint(structure string) *Blueprint {
	if structure == StructureKishotenketsu {
		return &Blueprint{
			Structure:       StructureKishotenketsu,
			CentralConflict: "Something long hidden is working its way to the surface.",
			Acts: []Act{
				{Phase: "ki", Goal: "Establish the ordinary rhythm of this place and its people.", SceneStart: 1, SceneEnd: 6, Mood: "calm"},
				{Phase: "sho", Goal: "Deepen relationships and let small oddities accumulate.", SceneStart: 7, SceneEnd: 14, Mood: "curious"},
				{Phase: "ten", Goal: "Reframe everything with an unexpected turn.", SceneStart: 15, SceneEnd: 20, Mood: "unsettling"},
				{Phase: "ketsu", Goal: "Settle into a new understanding of what was always true.", SceneStart: 21, SceneEnd: 26, Mood: "reflective"},
			},
			Revelations: []Revelation{
				{Text: "A familiar face has been watching the player from the start.", EarliestScene: 8},
				{Text: "The strange details all trace back to a single cause.", EarliestScene: 15},
			},
			PossibleEndings: []string{
				"The player accepts the changed world and their place in it.",
				"The player walks away, carrying what they learned.",
			},
		}
	}
	return &Blueprint{
		Structure:       StructureThreeAct,
		CentralConflict: "A growing threat that will not resolve itself.",
		Acts: []Act{
			{Phase: "setup", Goal: "Introduce the stakes and the people who matter.", SceneStart: 1, SceneEnd: 8, Mood: "grounded"},
			{Phase: "confrontation", Goal: "Escalate pressure and force hard choices.", SceneStart: 9, SceneEnd: 18, Mood: "tense"},
			{Phase: "climax", Goal: "Bring the central conflict to a head.", SceneStart: 19, SceneEnd: 24, Mood: "charged"},
		},
		Revelations: []Revelation{
			{Text: "An ally is compromised by the threat.", EarliestScene: 9},
			{Text: "The threat's true goal is not what it first appeared.", EarliestScene: 14},
		},
		PossibleEndings: []string{
			"The threat is broken, at a cost.",
			"An uneasy bargain leaves the threat contained but alive.",
		},
	}
}
