package state

const (
	IntensityAction    = "action"
	IntensityBreather  = "breather"
	IntensityInterrupt = "interrupt"

	PacingBreather = "breather"
	PacingPush     = "action"
	PacingNeutral  = ""
)

// RecordIntensity appends one scene's intensity classification,
// trimming the rolling window.
func (gs *GameState) RecordIntensity(intensity string) {
	gs.IntensityHistory = append(gs.IntensityHistory, intensity)
	if len(gs.IntensityHistory) > MaxIntensityHistory {
		gs.IntensityHistory = gs.IntensityHistory[len(gs.IntensityHistory)-MaxIntensityHistory:]
	}
}

// PacingHint inspects the last five intensity entries: three or more
// consecutive intense scenes suggest a breather, two or more
// consecutive breathers suggest a push, anything else is neutral.
func (gs *GameState) PacingHint() string {
	window := gs.IntensityHistory
	if len(window) > 5 {
		window = window[len(window)-5:]
	}
	if len(window) == 0 {
		return PacingNeutral
	}

	intense := 0
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == IntensityAction || window[i] == IntensityInterrupt {
			intense++
		} else {
			break
		}
	}
	if intense >= 3 {
		return PacingBreather
	}

	calm := 0
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == IntensityBreather {
			calm++
		} else {
			break
		}
	}
	if calm >= 2 {
		return PacingPush
	}
	return PacingNeutral
}
