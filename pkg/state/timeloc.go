package state

import "strings"

// timePhases order the coarse time-of-day enum. Time only moves
// forward, wrapping past deep_night into a new day.
var timePhases = []string{
	"early_morning",
	"morning",
	"midday",
	"afternoon",
	"evening",
	"dusk",
	"night",
	"deep_night",
}

// timeSteps maps the classifier's time-progression hint to phase steps.
var timeSteps = map[string]int{
	"none":     0,
	"short":    0,
	"moderate": 1,
	"long":     2,
}

// AdvanceTime moves time-of-day forward by the named progression. A
// state with no established time is left untouched; the narrator sets
// it in the opening payload.
func (gs *GameState) AdvanceTime(progression string) {
	if gs.TimeOfDay == "" {
		return
	}
	steps := timeSteps[strings.ToLower(strings.TrimSpace(progression))]
	if steps == 0 {
		return
	}
	idx := -1
	for i, p := range timePhases {
		if p == gs.TimeOfDay {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	gs.TimeOfDay = timePhases[(idx+steps)%len(timePhases)]
}

// SetTimeOfDay normalizes and stores a narrator-supplied phase,
// ignoring values outside the enum.
func (gs *GameState) SetTimeOfDay(phase string) {
	phase = strings.ToLower(strings.TrimSpace(phase))
	phase = strings.ReplaceAll(phase, " ", "_")
	for _, p := range timePhases {
		if p == phase {
			gs.TimeOfDay = p
			return
		}
	}
}

// SetLocation moves the story to a new location, pushing the previous
// one onto the rolling history. Same-location moves are ignored so the
// history never ends with the current location.
func (gs *GameState) SetLocation(location string) {
	location = strings.TrimSpace(strings.ReplaceAll(location, "_", " "))
	if location == "" || strings.EqualFold(location, gs.Location) {
		return
	}
	if gs.Location != "" {
		gs.LocationHistory = append(gs.LocationHistory, gs.Location)
		if len(gs.LocationHistory) > MaxLocationHistory {
			gs.LocationHistory = gs.LocationHistory[len(gs.LocationHistory)-MaxLocationHistory:]
		}
	}
	gs.Location = location
}
