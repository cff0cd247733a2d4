// Command validate checks world seed YAML files and save JSON blobs
// before they are deployed or imported. Exits non-zero on the first
// invalid file.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/averyhale/saga-engine/pkg/state"
	"github.com/averyhale/saga-engine/pkg/story"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <world.yaml|save.json> [...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		if err := validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "%s: FAILED\n  %v\n", filename, err)
			failed = true
			continue
		}
		fmt.Printf("%s: ok\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

func validateFile(filename string) error {
	switch ext := filepath.Ext(filename); ext {
	case ".yaml", ".yml":
		return validateWorld(filename)
	case ".json":
		return validateSave(filename)
	default:
		return fmt.Errorf("unsupported extension %q (want .yaml, .yml or .json)", ext)
	}
}

var snakeCaseRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func validateWorld(filename string) error {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if !snakeCaseRe.MatchString(base) {
		return fmt.Errorf("world filename %q must be lowercase snake_case", filepath.Base(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var w story.World
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&w); err != nil {
		return fmt.Errorf("failed strict YAML unmarshaling: %w", err)
	}

	if err := w.Validate(); err != nil {
		return err
	}
	if w.ID != base {
		return fmt.Errorf("world id %q must match filename %q", w.ID, base)
	}
	if w.Tone != "" {
		switch w.Tone {
		case "mystery", "slice_of_life", "action":
		default:
			return fmt.Errorf("unknown tone %q (want mystery, slice_of_life or action)", w.Tone)
		}
	}
	return nil
}

func validateSave(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("file contains invalid JSON")
	}

	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return fmt.Errorf("failed to unmarshal save: %w", err)
	}

	var errs []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Sprintf(format, args...))
		}
	}

	check(gs.PlayerName != "", "player_name is empty")
	check(gs.Stats.Validate() == nil, "stats are invalid: %v", gs.Stats)
	check(gs.Health >= 0 && gs.Health <= state.TrackMax, "health %d out of range", gs.Health)
	check(gs.Spirit >= 0 && gs.Spirit <= state.TrackMax, "spirit %d out of range", gs.Spirit)
	check(gs.Supply >= 0 && gs.Supply <= state.TrackMax, "supply %d out of range", gs.Supply)
	check(gs.Momentum >= state.MomentumMin && gs.Momentum <= state.MomentumMax, "momentum %d out of range", gs.Momentum)
	check(gs.ChaosFactor >= state.ChaosMin && gs.ChaosFactor <= state.ChaosMax, "chaos_factor %d out of range", gs.ChaosFactor)
	check(gs.SceneCount >= 1, "scene_count %d must be at least 1", gs.SceneCount)
	check(gs.Chapter >= 1, "chapter %d must be at least 1", gs.Chapter)

	for id, n := range gs.NPCs {
		check(n != nil && n.Name != "", "npc %q has no name", id)
		if n == nil {
			continue
		}
		check(n.Bond >= 0, "npc %q bond %d is negative", id, n.Bond)
	}
	for id, c := range gs.Clocks {
		check(c != nil && c.Segments > 0, "clock %q has no segments", id)
		if c == nil {
			continue
		}
		check(c.Filled >= 0 && c.Filled <= c.Segments, "clock %q fill %d out of range", id, c.Filled)
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
