package story

import (
	"fmt"
	"strings"
)

// World is a playable setting seed, loaded from a YAML file under the
// data directory. The intro is injected verbatim into the narrator's
// world block; tone steers the arc structure choice.
type World struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Tone        string `yaml:"tone,omitempty" json:"tone,omitempty"`
	Intro       string `yaml:"intro" json:"intro"`
	OpeningHint string `yaml:"opening_hint,omitempty" json:"opening_hint,omitempty"`
	KidFriendly bool   `yaml:"kid_friendly,omitempty" json:"kid_friendly,omitempty"`
}

func (w *World) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return fmt.Errorf("world id is required")
	}
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("world %q: name is required", w.ID)
	}
	if strings.TrimSpace(w.Intro) == "" {
		return fmt.Errorf("world %q: intro is required", w.ID)
	}
	return nil
}
