package state

import "sort"

const (
	ClockTypeThreat = "threat"
	ClockTypeScheme = "scheme"

	ClockOwnerWorld = "world"
)

// Clock is a segmented countdown for a background threat or scheme.
// Filling it fires a one-time trigger event consumed by the caller.
type Clock struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Segments int    `json:"segments"`
	Filled   int    `json:"filled"`
	Trigger  string `json:"trigger,omitempty"`
	Owner    string `json:"owner,omitempty"`
}

// ClockEvent signals a clock reaching its cap.
type ClockEvent struct {
	ClockID string `json:"clock_id"`
	Name    string `json:"name"`
	Trigger string `json:"trigger"`
}

// Advance fills ticks segments, capped. Returns a ClockEvent the first
// time the clock completes, nil otherwise.
func (c *Clock) Advance(ticks int) *ClockEvent {
	if ticks <= 0 || c.Filled >= c.Segments {
		return nil
	}
	c.Filled += ticks
	if c.Filled >= c.Segments {
		c.Filled = c.Segments
		return &ClockEvent{ClockID: c.ID, Name: c.Name, Trigger: c.Trigger}
	}
	return nil
}

// Open reports whether the clock still has unfilled segments.
func (c *Clock) Open() bool {
	return c.Filled < c.Segments
}

// SortedClockIDs returns clock ids in stable order.
func (gs *GameState) SortedClockIDs() []string {
	ids := make([]string, 0, len(gs.Clocks))
	for id := range gs.Clocks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FirstOpenThreatClock returns the first open threat clock in stable
// order, or nil when none exist.
func (gs *GameState) FirstOpenThreatClock() *Clock {
	for _, id := range gs.SortedClockIDs() {
		c := gs.Clocks[id]
		if c.Type == ClockTypeThreat && c.Open() {
			return c
		}
	}
	return nil
}

// OpenSchemeClocks returns every open NPC-owned scheme clock in stable
// order, for the off-screen agency beat.
func (gs *GameState) OpenSchemeClocks() []*Clock {
	var out []*Clock
	for _, id := range gs.SortedClockIDs() {
		c := gs.Clocks[id]
		if c.Type == ClockTypeScheme && c.Owner != ClockOwnerWorld && c.Open() {
			out = append(out, c)
		}
	}
	return out
}
